// Package batch drives one end-to-end pass over a collection of input items:
// build prompt, call the endpoint, validate the response, accumulate
// outcomes.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/kfellner/bookminer/internal/extract"
	"github.com/kfellner/bookminer/internal/providers"
)

// DefaultPromptTemplate is the extraction prompt; {input} is replaced with
// the item text.
const DefaultPromptTemplate = "Extract the book information from this review: {input}."

// State of a runner. Endpoint calls happen only in StateRunning.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
)

// Config configures a batch runner.
type Config struct {
	Client    providers.LLMClient
	Validator *extract.Validator

	// PromptTemplate with an {input} placeholder.
	// Defaults to DefaultPromptTemplate.
	PromptTemplate string

	// MaxAttempts caps endpoint attempts per item, including the first
	// (default 3). Only transient failures are retried.
	MaxAttempts int

	// RetryDelay is the fixed backoff between attempts (default 2s).
	RetryDelay time.Duration

	// MaxWorkers bounds simultaneous in-flight endpoint calls (default 1,
	// the sequential baseline).
	MaxWorkers int

	Logger *slog.Logger
}

// Result aggregates all outcomes for one run. Valid records and failures
// each preserve input order.
type Result struct {
	Outcomes []extract.Outcome
	Duration time.Duration
}

// Valid returns the validated records in input order.
func (r *Result) Valid() []extract.Outcome {
	var valid []extract.Outcome
	for _, o := range r.Outcomes {
		if o.Valid() {
			valid = append(valid, o)
		}
	}
	return valid
}

// Invalid returns the failure outcomes in input order.
func (r *Result) Invalid() []extract.Outcome {
	var invalid []extract.Outcome
	for _, o := range r.Outcomes {
		if !o.Valid() {
			invalid = append(invalid, o)
		}
	}
	return invalid
}

// Counts returns the number of valid and invalid outcomes.
func (r *Result) Counts() (valid, invalid int) {
	for _, o := range r.Outcomes {
		if o.Valid() {
			valid++
		} else {
			invalid++
		}
	}
	return valid, invalid
}

// Runner executes one batch pass. A runner is single-use: it moves
// Idle -> Running -> Completed and cannot be restarted.
type Runner struct {
	cfg    Config
	logger *slog.Logger

	mu    sync.Mutex
	state State
}

// NewRunner creates a runner, applying defaults.
func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("client is required")
	}
	if cfg.Validator == nil {
		return nil, fmt.Errorf("validator is required")
	}
	if cfg.PromptTemplate == "" {
		cfg.PromptTemplate = DefaultPromptTemplate
	}
	if !strings.Contains(cfg.PromptTemplate, "{input}") {
		return nil, fmt.Errorf("prompt template must contain {input}")
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 1
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		cfg:    cfg,
		logger: logger.With("component", "batch"),
		state:  StateIdle,
	}, nil
}

// State returns the runner's current state.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Run processes every item and returns exactly one outcome per item, in
// input order. Item failures never abort the batch; only cancellation does,
// and only between items, never mid-call.
func (r *Runner) Run(ctx context.Context, items []string) (*Result, error) {
	r.mu.Lock()
	if r.state != StateIdle {
		r.mu.Unlock()
		return nil, fmt.Errorf("runner already %s", r.state)
	}
	r.state = StateRunning
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.state = StateCompleted
		r.mu.Unlock()
	}()

	start := time.Now()
	r.logger.Info("starting batch run",
		"items", len(items),
		"workers", r.cfg.MaxWorkers,
		"max_attempts", r.cfg.MaxAttempts,
	)

	// Outcomes land in per-index slots so sink order is deterministic even
	// when execution is concurrent.
	slots := make([]extract.Outcome, len(items))

	var err error
	if r.cfg.MaxWorkers == 1 {
		err = r.runSequential(ctx, items, slots)
	} else {
		err = r.runPool(ctx, items, slots)
	}
	if err != nil {
		return nil, err
	}

	result := &Result{
		Outcomes: slots,
		Duration: time.Since(start),
	}
	valid, invalid := result.Counts()
	r.logger.Info("batch run completed",
		"valid", valid,
		"invalid", invalid,
		"duration", result.Duration,
	)
	return result, nil
}

// runSequential resolves items one at a time, each fully (including retries)
// before the next begins.
func (r *Runner) runSequential(ctx context.Context, items []string, slots []extract.Outcome) error {
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("batch aborted after %d/%d items: %w", i, len(items), err)
		}
		slots[i] = r.processItem(ctx, i, len(items), item)
	}
	return nil
}

// runPool resolves items with a bounded worker pool. Workers own disjoint
// slot indices, so no synchronization on the slots is needed.
func (r *Runner) runPool(ctx context.Context, items []string, slots []extract.Outcome) error {
	indices := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < r.cfg.MaxWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				slots[i] = r.processItem(ctx, i, len(items), items[i])
			}
		}()
	}

	aborted := false
feed:
	for i := range items {
		select {
		case <-ctx.Done():
			aborted = true
			break feed
		case indices <- i:
		}
	}
	close(indices)
	wg.Wait()

	if aborted {
		return fmt.Errorf("batch aborted: %w", ctx.Err())
	}
	return nil
}

// processItem resolves one item to exactly one outcome. Transient endpoint
// failures are retried up to the attempt cap with a fixed backoff, then
// downgraded to a terminal EndpointUnavailable entry. Nothing thrown here
// escapes the batch.
func (r *Runner) processItem(ctx context.Context, idx, total int, item string) extract.Outcome {
	logger := r.logger.With("item", idx+1, "total", total)
	logger.Debug("processing item")

	req := &providers.ChatRequest{
		Prompt: strings.ReplaceAll(r.cfg.PromptTemplate, "{input}", item),
		Format: r.cfg.Validator.Schema().Descriptor(),
	}

	var result *providers.ChatResult
	err := retry.Do(
		func() error {
			var callErr error
			result, callErr = r.cfg.Client.Chat(ctx, req)
			return callErr
		},
		retry.Context(ctx),
		retry.Attempts(uint(r.cfg.MaxAttempts)),
		retry.Delay(r.cfg.RetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.RetryIf(providers.IsTransient),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			logger.Warn("transient endpoint failure, retrying",
				"attempt", attempt+1,
				"max_attempts", r.cfg.MaxAttempts,
				"error", err,
			)
		}),
	)
	if err != nil {
		logger.Warn("item failed at endpoint", "error", err)
		return extract.Unavailable(item, err)
	}

	logger.Debug("endpoint responded",
		"latency", result.Latency,
		"prompt_tokens", result.PromptTokens,
		"completion_tokens", result.CompletionTokens,
	)

	outcome := r.cfg.Validator.Validate(item, result.Content)
	if !outcome.Valid() {
		logger.Warn("item failed validation", "reason", outcome.Reason, "fields", outcome.Fields)
	}
	return outcome
}
