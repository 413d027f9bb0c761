package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	OllamaName    = "ollama"
	OllamaBaseURL = "http://localhost:11434"
)

// OllamaConfig holds configuration for the Ollama client.
type OllamaConfig struct {
	BaseURL       string
	DefaultModel  string
	Timeout       time.Duration
	Temperature   float64
	TopP          float64
	ContextWindow int
}

// OllamaClient implements LLMClient against the native Ollama chat API.
// The client holds no state between calls.
type OllamaClient struct {
	baseURL       string
	defaultModel  string
	client        *http.Client
	temperature   float64
	topP          float64
	contextWindow int
}

// NewOllamaClient creates a new Ollama client.
func NewOllamaClient(cfg OllamaConfig) *OllamaClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = OllamaBaseURL
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "gemma3"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	return &OllamaClient{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		defaultModel: cfg.DefaultModel,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		temperature:   cfg.Temperature,
		topP:          cfg.TopP,
		contextWindow: cfg.ContextWindow,
	}
}

// Name returns the client identifier.
func (c *OllamaClient) Name() string {
	return OllamaName
}

// Chat sends a single prompt and returns the raw generated text.
func (c *OllamaClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()

	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("%w: prompt must be non-empty", ErrProtocol)
	}

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}

	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	messages := make([]ollamaMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, ollamaMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, ollamaMessage{Role: "user", Content: req.Prompt})

	oReq := ollamaChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   false,
		Format:   req.Format,
		Options:  c.buildOptions(req),
	}

	oResp, err := c.doRequest(ctx, "/api/chat", &oReq)
	if err != nil {
		return nil, err
	}

	return &ChatResult{
		Content:          oResp.Message.Content,
		ModelUsed:        oResp.Model,
		PromptTokens:     oResp.PromptEvalCount,
		CompletionTokens: oResp.EvalCount,
		Latency:          time.Since(start),
		Provider:         OllamaName,
		RequestID:        requestID,
	}, nil
}

// buildOptions merges per-request generation parameters over client defaults.
// Zero values are omitted so the server keeps its own defaults.
func (c *OllamaClient) buildOptions(req *ChatRequest) map[string]any {
	temperature := req.Temperature
	if temperature == 0 {
		temperature = c.temperature
	}
	topP := req.TopP
	if topP == 0 {
		topP = c.topP
	}
	numCtx := req.ContextWindow
	if numCtx == 0 {
		numCtx = c.contextWindow
	}

	opts := make(map[string]any)
	if temperature != 0 {
		opts["temperature"] = temperature
	}
	if topP != 0 {
		opts["top_p"] = topP
	}
	if numCtx != 0 {
		opts["num_ctx"] = numCtx
	}
	if len(opts) == 0 {
		return nil
	}
	return opts
}

// doRequest makes a single HTTP request to the Ollama API. Retries are the
// caller's responsibility; errors are classified per the taxonomy so callers
// can tell transient from fatal.
func (c *OllamaClient) doRequest(ctx context.Context, path string, body any) (*ollamaChatResponse, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w: %v", classifyTransportError(err), err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", ErrConnection)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", classifyStatus(resp.StatusCode), resp.StatusCode, truncate(string(respBody), 200))
	}

	var oResp ollamaChatResponse
	if err := json.Unmarshal(respBody, &oResp); err != nil {
		return nil, fmt.Errorf("%w: unparseable response body: %v", ErrProtocol, err)
	}

	return &oResp, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Ollama API types

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   json.RawMessage `json:"format,omitempty"`
	Options  map[string]any  `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatResponse struct {
	Model           string        `json:"model"`
	Message         ollamaMessage `json:"message"`
	Done            bool          `json:"done"`
	PromptEvalCount int           `json:"prompt_eval_count"`
	EvalCount       int           `json:"eval_count"`
}

// Verify interface
var _ LLMClient = (*OllamaClient)(nil)
