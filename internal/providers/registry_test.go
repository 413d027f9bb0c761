package providers

import (
	"testing"

	"github.com/kfellner/bookminer/internal/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.EndpointCfg
		wantName string
		wantErr  bool
	}{
		{"ollama", config.EndpointCfg{Type: "ollama"}, OllamaName, false},
		{"empty type defaults to ollama", config.EndpointCfg{}, OllamaName, false},
		{"openai compatible", config.EndpointCfg{Type: "openai", Address: "http://localhost:11434/v1"}, OpenAIName, false},
		{"unknown type", config.EndpointCfg{Type: "bedrock"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if client.Name() != tt.wantName {
				t.Errorf("expected client %s, got %s", tt.wantName, client.Name())
			}
		})
	}
}
