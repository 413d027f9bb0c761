// Package testutil provides shared helpers for endpoint and CLI tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// FindFreePort finds an available TCP port and returns it as a string.
func FindFreePort() (string, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	defer listener.Close()
	return fmt.Sprintf("%d", listener.Addr().(*net.TCPAddr).Port), nil
}

// StubEndpoint is a fake Ollama server for tests. It answers the health
// probe on GET / and returns canned chat content on POST /api/chat.
type StubEndpoint struct {
	*httptest.Server

	// Content returned for each chat call.
	Content string

	// FailChats makes the first n chat calls answer 503.
	FailChats int32

	chats int32
}

// NewStubEndpoint starts a stub endpoint and registers cleanup with t.
func NewStubEndpoint(t *testing.T, content string) *StubEndpoint {
	t.Helper()

	stub := &StubEndpoint{Content: content}
	stub.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/":
			fmt.Fprint(w, "Ollama is running")
		case r.Method == http.MethodPost && r.URL.Path == "/api/chat":
			n := atomic.AddInt32(&stub.chats, 1)
			if n <= atomic.LoadInt32(&stub.FailChats) {
				http.Error(w, "loading model", http.StatusServiceUnavailable)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"model":   "stub",
				"message": map[string]string{"role": "assistant", "content": stub.Content},
				"done":    true,
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(stub.Server.Close)
	return stub
}

// ChatCalls returns how many chat requests the stub has served.
func (s *StubEndpoint) ChatCalls() int {
	return int(atomic.LoadInt32(&s.chats))
}
