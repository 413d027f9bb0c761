package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

// Health probes the endpoint's root route once. Ollama and the common
// OpenAI-compatible servers all answer 200 on GET /.
func Health(ctx context.Context, address string) error {
	httpClient := &http.Client{Timeout: 2 * time.Second}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(address, "/")+"/", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health probe failed: %w: %v", classifyTransportError(err), err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unhealthy status: %d", classifyStatus(resp.StatusCode), resp.StatusCode)
	}
	return nil
}

// WaitReady polls the endpoint until it answers its health route, with an
// explicit deadline. Batch schedulers start the pipeline before the model
// server finishes loading, so callers poll at startup instead of failing.
// Returns ErrStartupTimeout once the budget is exhausted.
func WaitReady(ctx context.Context, address string, timeout time.Duration) error {
	attempts := uint(timeout / time.Second)
	if attempts == 0 {
		attempts = 1
	}

	err := retry.Do(
		func() error {
			return Health(ctx, address)
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(1*time.Second),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return fmt.Errorf("%w after %s: %v", ErrStartupTimeout, timeout, err)
	}
	return nil
}
