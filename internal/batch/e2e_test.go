package batch

import (
	"context"
	"testing"
	"time"

	"github.com/kfellner/bookminer/internal/config"
	"github.com/kfellner/bookminer/internal/extract"
	"github.com/kfellner/bookminer/internal/providers"
	"github.com/kfellner/bookminer/internal/testutil"
)

// Drives the real HTTP client against a stub endpoint, covering transport
// error classification and retries end to end.
func TestRunner_AgainstStubEndpoint(t *testing.T) {
	stub := testutil.NewStubEndpoint(t, bookResponse("Stubbed Book"))
	stub.FailChats = 2 // first two chat calls answer 503

	client, err := providers.New(config.EndpointCfg{
		Type:    "ollama",
		Address: stub.URL,
		Model:   "stub",
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("providers.New() error = %v", err)
	}

	if err := providers.WaitReady(context.Background(), stub.URL, 5*time.Second); err != nil {
		t.Fatalf("WaitReady() error = %v", err)
	}

	r := newRunner(t, Config{Client: client, MaxAttempts: 3})
	result, err := r.Run(context.Background(), []string{"a review"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !result.Outcomes[0].Valid() {
		t.Fatalf("expected valid outcome, got %s: %s", result.Outcomes[0].Reason, result.Outcomes[0].Detail)
	}
	if result.Outcomes[0].Record.Title != "Stubbed Book" {
		t.Errorf("unexpected title: %s", result.Outcomes[0].Record.Title)
	}
	if got := stub.ChatCalls(); got != 3 {
		t.Errorf("expected 3 chat calls (2 failures + 1 success), got %d", got)
	}

	// The failure path through the same transport.
	stub2 := testutil.NewStubEndpoint(t, "")
	stub2.FailChats = 100
	client2, err := providers.New(config.EndpointCfg{Type: "ollama", Address: stub2.URL, Model: "stub", Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("providers.New() error = %v", err)
	}

	r2 := newRunner(t, Config{Client: client2, MaxAttempts: 2})
	result2, err := r2.Run(context.Background(), []string{"a review"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result2.Outcomes[0].Reason != extract.ReasonEndpointUnavailable {
		t.Errorf("expected endpoint_unavailable, got %s", result2.Outcomes[0].Reason)
	}
}
