package providers

import (
	"fmt"

	"github.com/kfellner/bookminer/internal/config"
)

// New builds an LLMClient from endpoint configuration.
// Recognized types: "ollama" (native API) and "openai" (any OpenAI-compatible
// server, e.g. ollama's /v1, llama.cpp, vLLM).
func New(cfg config.EndpointCfg) (LLMClient, error) {
	switch cfg.Type {
	case "ollama", "":
		return NewOllamaClient(OllamaConfig{
			BaseURL:       cfg.Address,
			DefaultModel:  cfg.Model,
			Timeout:       cfg.Timeout,
			Temperature:   cfg.Temperature,
			TopP:          cfg.TopP,
			ContextWindow: cfg.ContextWindow,
		}), nil
	case "openai":
		return NewOpenAIClient(OpenAIConfig{
			BaseURL:      cfg.Address,
			APIKey:       config.ResolveEnvVars(cfg.APIKey),
			DefaultModel: cfg.Model,
			Timeout:      cfg.Timeout,
			Temperature:  cfg.Temperature,
			TopP:         cfg.TopP,
		}), nil
	default:
		return nil, fmt.Errorf("unknown endpoint type: %q", cfg.Type)
	}
}
