package providers

import (
	"context"
	"encoding/json"
	"time"
)

// LLMClient is the primary interface for completion requests against the
// locally hosted model endpoint.
type LLMClient interface {
	// Chat sends a single prompt and returns the raw generated text.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error)

	// Name returns the client identifier (e.g., "ollama").
	Name() string
}

// ChatRequest is a request to the model endpoint.
type ChatRequest struct {
	// Required. Must be non-empty.
	Prompt string `json:"prompt"`

	// Optional system message.
	System string `json:"system,omitempty"`

	// Model selection (uses client default if empty)
	Model string `json:"model,omitempty"`

	// Format is an optional JSON Schema hint steering the endpoint toward
	// structured output. The response is expected, but not guaranteed, to
	// conform.
	Format json.RawMessage `json:"format,omitempty"`

	// Generation parameters, passed through opaquely.
	Temperature   float64 `json:"temperature,omitempty"`
	TopP          float64 `json:"top_p,omitempty"`
	ContextWindow int     `json:"context_window,omitempty"`

	// Request tracking
	RequestID string `json:"-"`
}

// ChatResult is the complete response from a model call.
// Content is the unvalidated raw text; latency and token counts are
// observability metadata, not required for correctness.
type ChatResult struct {
	Content   string `json:"content"`
	ModelUsed string `json:"model_used"`

	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`

	Latency time.Duration `json:"latency"`

	Provider  string `json:"provider"`
	RequestID string `json:"request_id"`
}
