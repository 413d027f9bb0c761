package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const OpenAIName = "openai"

// OpenAIConfig holds configuration for the OpenAI-compatible client.
// BaseURL points at a local server exposing the OpenAI chat API
// (ollama's /v1, llama.cpp, vLLM).
type OpenAIConfig struct {
	BaseURL      string
	APIKey       string
	DefaultModel string
	Timeout      time.Duration
	Temperature  float64
	TopP         float64
	HTTPClient   *http.Client // Optional (tests)
}

// OpenAIClient implements LLMClient using the official OpenAI SDK against an
// OpenAI-compatible endpoint.
type OpenAIClient struct {
	defaultModel string
	temperature  float64
	topP         float64
	client       openai.Client
}

// NewOpenAIClient creates a new OpenAI-compatible client.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "gemma3"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		// Retries are handled by the batch runner so transient failures
		// stay visible to its per-item accounting.
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIClient{
		defaultModel: cfg.DefaultModel,
		temperature:  cfg.Temperature,
		topP:         cfg.TopP,
		client:       openai.NewClient(opts...),
	}
}

// Name returns the client identifier.
func (c *OpenAIClient) Name() string {
	return OpenAIName
}

// Chat sends a single prompt and returns the raw generated text.
func (c *OpenAIClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
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

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: messages,
	}

	temperature := req.Temperature
	if temperature == 0 {
		temperature = c.temperature
	}
	if temperature != 0 {
		params.Temperature = openai.Float(temperature)
	}
	topP := req.TopP
	if topP == 0 {
		topP = c.topP
	}
	if topP != 0 {
		params.TopP = openai.Float(topP)
	}

	if len(req.Format) > 0 {
		var schemaDoc any
		if err := json.Unmarshal(req.Format, &schemaDoc); err != nil {
			return nil, fmt.Errorf("%w: invalid schema hint: %v", ErrProtocol, err)
		}
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "record",
					Schema: schemaDoc,
					Strict: openai.Bool(true),
				},
			},
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, mapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in response", ErrConnection)
	}

	return &ChatResult{
		Content:          resp.Choices[0].Message.Content,
		ModelUsed:        resp.Model,
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		Latency:          time.Since(start),
		Provider:         OpenAIName,
		RequestID:        requestID,
	}, nil
}

// mapOpenAIError folds SDK errors into the shared taxonomy.
func mapOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		base := classifyStatus(apiErr.StatusCode)
		if apiErr.Message != "" {
			return fmt.Errorf("%w: status %d: %s", base, apiErr.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("%w: status %d", base, apiErr.StatusCode)
	}
	return fmt.Errorf("request failed: %w: %v", classifyTransportError(err), err)
}

// Verify interface
var _ LLMClient = (*OpenAIClient)(nil)
