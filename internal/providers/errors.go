package providers

import (
	"context"
	"errors"
	"net"
	"net/http"
)

// Error taxonomy for endpoint calls. ErrConnection and ErrTimeout are
// transient: callers may retry. ErrProtocol is fatal for that single request.
var (
	// ErrConnection indicates the endpoint was unreachable (connection
	// refused, DNS failure).
	ErrConnection = errors.New("endpoint unreachable")

	// ErrTimeout indicates no response arrived within the configured deadline.
	ErrTimeout = errors.New("endpoint timed out")

	// ErrProtocol indicates the endpoint rejected a malformed request.
	ErrProtocol = errors.New("endpoint rejected request")

	// ErrStartupTimeout indicates the endpoint never became ready within the
	// startup wait budget. Fatal for the whole run.
	ErrStartupTimeout = errors.New("endpoint never became ready")
)

// IsTransient reports whether err is classified as likely to succeed on retry.
func IsTransient(err error) bool {
	return errors.Is(err, ErrConnection) || errors.Is(err, ErrTimeout)
}

// classifyTransportError maps an http.Client error onto the taxonomy.
func classifyTransportError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}
	return ErrConnection
}

// classifyStatus maps a non-200 HTTP status onto the taxonomy. Server-side
// errors and rate limiting are transient; client-side rejections are not.
func classifyStatus(statusCode int) error {
	if statusCode >= 500 || statusCode == http.StatusTooManyRequests {
		return ErrConnection
	}
	return ErrProtocol
}
