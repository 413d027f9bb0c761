package providers

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const MockClientName = "mock"

// MockClient is an LLMClient for testing.
type MockClient struct {
	// Configurable behavior
	Latency      time.Duration
	ResponseText string

	// FailTimes makes the first N requests fail with FailWith before
	// succeeding. FailWith defaults to ErrConnection.
	FailTimes int
	FailWith  error

	// Responses, when non-empty, are returned in order per request,
	// falling back to ResponseText when exhausted.
	Responses []string

	// State
	requestCount atomic.Int64
	mu           sync.Mutex
}

// NewMockClient creates a new mock client with sensible defaults.
func NewMockClient() *MockClient {
	return &MockClient{
		ResponseText: `{"title": "mock"}`,
	}
}

// Name returns the client identifier.
func (c *MockClient) Name() string {
	return MockClientName
}

// Chat returns the next scripted response.
func (c *MockClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()
	count := c.requestCount.Add(1)

	if c.Latency > 0 {
		select {
		case <-time.After(c.Latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if int(count) <= c.FailTimes {
		failWith := c.FailWith
		if failWith == nil {
			failWith = ErrConnection
		}
		return nil, fmt.Errorf("mock failure %d/%d: %w", count, c.FailTimes, failWith)
	}

	content := c.ResponseText
	c.mu.Lock()
	if len(c.Responses) > 0 {
		content = c.Responses[0]
		c.Responses = c.Responses[1:]
	}
	c.mu.Unlock()

	return &ChatResult{
		Content:          content,
		ModelUsed:        req.Model,
		PromptTokens:     len(req.Prompt) / 4, // Rough estimate
		CompletionTokens: len(content) / 4,
		Latency:          time.Since(start),
		Provider:         MockClientName,
		RequestID:        fmt.Sprintf("mock-%d", count),
	}, nil
}

// RequestCount returns the number of requests made.
func (c *MockClient) RequestCount() int64 {
	return c.requestCount.Load()
}

// Reset resets the request counter.
func (c *MockClient) Reset() {
	c.requestCount.Store(0)
}

// Verify interface
var _ LLMClient = (*MockClient)(nil)
