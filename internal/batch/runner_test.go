package batch

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/kfellner/bookminer/internal/extract"
	"github.com/kfellner/bookminer/internal/providers"
	"github.com/kfellner/bookminer/internal/schema"
)

func bookResponse(title string) string {
	return fmt.Sprintf(`{
		"title": %q,
		"author": "Some Author",
		"genre": ["fiction"],
		"publication_year": 1950,
		"sentiment_positive": true
	}`, title)
}

func newTestValidator(t *testing.T) *extract.Validator {
	t.Helper()
	s, err := schema.Get("book_review")
	if err != nil {
		t.Fatalf("failed to load schema: %v", err)
	}
	return extract.NewValidator(s)
}

// echoClient is a deterministic stub that answers every prompt with a valid
// record whose title is the item text. Safe for concurrent use.
type echoClient struct {
	latency time.Duration
}

func (c *echoClient) Name() string { return "echo" }

func (c *echoClient) Chat(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResult, error) {
	if c.latency > 0 {
		select {
		case <-time.After(c.latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	// The prompt template wraps the item; recover it.
	item := strings.TrimSuffix(strings.TrimPrefix(req.Prompt, "Extract the book information from this review: "), ".")
	return &providers.ChatResult{Content: bookResponse(item), Provider: "echo"}, nil
}

func newRunner(t *testing.T, cfg Config) *Runner {
	t.Helper()
	if cfg.Validator == nil {
		cfg.Validator = newTestValidator(t)
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Millisecond
	}
	r, err := NewRunner(cfg)
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	return r
}

func TestRunner_HappyPath(t *testing.T) {
	items := []string{"Pride and Prejudice", "1984", "The Hobbit"}
	r := newRunner(t, Config{Client: &echoClient{}})

	result, err := r.Run(context.Background(), items)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	valid, invalid := result.Counts()
	if valid != 3 || invalid != 0 {
		t.Fatalf("expected valid=3 invalid=0, got valid=%d invalid=%d", valid, invalid)
	}
	for i, o := range result.Outcomes {
		if o.Record.Title != items[i] {
			t.Errorf("outcome %d: expected title %q, got %q", i, items[i], o.Record.Title)
		}
	}
}

func TestRunner_EveryItemYieldsOneOutcome(t *testing.T) {
	mock := providers.NewMockClient()
	mock.Responses = []string{
		bookResponse("Good Book"),
		"no json here at all",
		`{"title": "Partial"}`,
	}
	items := []string{"one", "two", "three"}

	r := newRunner(t, Config{Client: mock})
	result, err := r.Run(context.Background(), items)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(result.Outcomes) != len(items) {
		t.Fatalf("expected %d outcomes, got %d", len(items), len(result.Outcomes))
	}
	valid, invalid := result.Counts()
	if valid+invalid != len(items) {
		t.Errorf("conservation violated: valid=%d invalid=%d items=%d", valid, invalid, len(items))
	}
	if valid != 1 || invalid != 2 {
		t.Errorf("expected valid=1 invalid=2, got valid=%d invalid=%d", valid, invalid)
	}
	if result.Outcomes[1].Reason != extract.ReasonMalformedOutput {
		t.Errorf("expected malformed_output, got %s", result.Outcomes[1].Reason)
	}
	if result.Outcomes[2].Reason != extract.ReasonSchemaViolation {
		t.Errorf("expected schema_violation, got %s", result.Outcomes[2].Reason)
	}
}

func TestRunner_TransientRetry(t *testing.T) {
	t.Run("succeeds within attempt cap", func(t *testing.T) {
		mock := providers.NewMockClient()
		mock.FailTimes = 2 // attempts 1 and 2 fail, 3 succeeds
		mock.ResponseText = bookResponse("Recovered")

		r := newRunner(t, Config{Client: mock, MaxAttempts: 3})
		result, err := r.Run(context.Background(), []string{"item"})
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		if !result.Outcomes[0].Valid() {
			t.Fatalf("expected valid outcome, got %s", result.Outcomes[0].Reason)
		}
		if got := mock.RequestCount(); got != 3 {
			t.Errorf("expected 3 attempts, got %d", got)
		}
	})

	t.Run("exhausted retries downgrade to EndpointUnavailable", func(t *testing.T) {
		mock := providers.NewMockClient()
		mock.FailTimes = 10

		r := newRunner(t, Config{Client: mock, MaxAttempts: 3})
		result, err := r.Run(context.Background(), []string{"item", "item2"})
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		if result.Outcomes[0].Reason != extract.ReasonEndpointUnavailable {
			t.Errorf("expected endpoint_unavailable, got %s", result.Outcomes[0].Reason)
		}
		// One bad item does not abort the batch; the second item still got
		// its own attempts.
		if len(result.Outcomes) != 2 {
			t.Errorf("expected 2 outcomes, got %d", len(result.Outcomes))
		}
	})

	t.Run("protocol errors are not retried", func(t *testing.T) {
		mock := providers.NewMockClient()
		mock.FailTimes = 10
		mock.FailWith = providers.ErrProtocol

		r := newRunner(t, Config{Client: mock, MaxAttempts: 3})
		result, err := r.Run(context.Background(), []string{"item"})
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		if result.Outcomes[0].Valid() {
			t.Fatal("expected invalid outcome")
		}
		if got := mock.RequestCount(); got != 1 {
			t.Errorf("expected a single attempt for a fatal error, got %d", got)
		}
	})
}

func TestRunner_ConcurrentOrdering(t *testing.T) {
	items := make([]string, 20)
	for i := range items {
		items[i] = fmt.Sprintf("Book %02d", i)
	}

	r := newRunner(t, Config{Client: &echoClient{latency: time.Millisecond}, MaxWorkers: 4})
	result, err := r.Run(context.Background(), items)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(result.Outcomes) != len(items) {
		t.Fatalf("expected %d outcomes, got %d", len(items), len(result.Outcomes))
	}
	for i, o := range result.Outcomes {
		if !o.Valid() {
			t.Fatalf("outcome %d invalid: %s", i, o.Reason)
		}
		if o.Record.Title != items[i] {
			t.Errorf("outcome %d: expected %q, got %q (output order must match input order)", i, items[i], o.Record.Title)
		}
	}
}

func TestRunner_Idempotence(t *testing.T) {
	items := []string{"Pride and Prejudice", "1984", "The Hobbit"}

	run := func() *Result {
		r := newRunner(t, Config{Client: &echoClient{}, MaxWorkers: 3})
		result, err := r.Run(context.Background(), items)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		return result
	}

	first := run()
	second := run()

	for i := range first.Outcomes {
		if !first.Outcomes[i].Record.Equal(second.Outcomes[i].Record) {
			t.Errorf("outcome %d differs between runs", i)
		}
	}
}

func TestRunner_StateMachine(t *testing.T) {
	r := newRunner(t, Config{Client: &echoClient{}})

	if r.State() != StateIdle {
		t.Errorf("expected idle, got %s", r.State())
	}

	if _, err := r.Run(context.Background(), []string{"x"}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if r.State() != StateCompleted {
		t.Errorf("expected completed, got %s", r.State())
	}

	// A completed runner cannot be restarted.
	if _, err := r.Run(context.Background(), []string{"x"}); err == nil {
		t.Error("expected error on second run")
	}
}

func TestRunner_AbortBetweenItems(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newRunner(t, Config{Client: &echoClient{}})
	if _, err := r.Run(ctx, []string{"a", "b"}); err == nil {
		t.Error("expected abort error for cancelled context")
	}
}

func TestNewRunner_Validation(t *testing.T) {
	validator := newTestValidator(t)

	t.Run("missing client", func(t *testing.T) {
		if _, err := NewRunner(Config{Validator: validator}); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("missing validator", func(t *testing.T) {
		if _, err := NewRunner(Config{Client: &echoClient{}}); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("template without placeholder", func(t *testing.T) {
		_, err := NewRunner(Config{Client: &echoClient{}, Validator: validator, PromptTemplate: "no placeholder"})
		if err == nil {
			t.Error("expected error")
		}
	})
}
