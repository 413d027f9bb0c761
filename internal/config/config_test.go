package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Endpoint.Type != "ollama" {
		t.Errorf("expected endpoint type ollama, got %s", cfg.Endpoint.Type)
	}
	if cfg.Endpoint.Address != "http://localhost:11434" {
		t.Errorf("unexpected endpoint address: %s", cfg.Endpoint.Address)
	}
	if cfg.Endpoint.MaxRetries != 3 {
		t.Errorf("expected 3 retries, got %d", cfg.Endpoint.MaxRetries)
	}
	if cfg.Batch.MaxWorkers != 1 {
		t.Errorf("expected sequential default (1 worker), got %d", cfg.Batch.MaxWorkers)
	}
	if cfg.Batch.Schema != "book_review" {
		t.Errorf("unexpected default schema: %s", cfg.Batch.Schema)
	}
	if cfg.Batch.StartupWait != 60*time.Second {
		t.Errorf("unexpected startup wait: %s", cfg.Batch.StartupWait)
	}
}

func TestResolveEnvVars(t *testing.T) {
	t.Setenv("BOOKMINER_TEST_KEY", "secret123")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain value", "no-vars-here", "no-vars-here"},
		{"env reference", "${BOOKMINER_TEST_KEY}", "secret123"},
		{"embedded reference", "key=${BOOKMINER_TEST_KEY}!", "key=secret123!"},
		{"missing var", "${BOOKMINER_DOES_NOT_EXIST}", ""},
		{"empty string", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveEnvVars(tt.input); got != tt.want {
				t.Errorf("ResolveEnvVars(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read written config: %v", err)
	}

	content := string(data)
	if !strings.HasPrefix(content, "# bookminer configuration") {
		t.Error("written config missing header comment")
	}
	for _, want := range []string{"endpoint:", "batch:", "server:", "ollama/ollama:latest"} {
		if !strings.Contains(content, want) {
			t.Errorf("written config missing %q", want)
		}
	}
}

func TestManager_LoadsFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
endpoint:
  type: openai
  address: http://127.0.0.1:8080
  model: qwen2.5
  timeout: 30s
batch:
  max_workers: 4
  schema: book_report
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cm, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	cfg := cm.Get()
	if cfg.Endpoint.Type != "openai" {
		t.Errorf("expected endpoint type openai, got %s", cfg.Endpoint.Type)
	}
	if cfg.Endpoint.Model != "qwen2.5" {
		t.Errorf("expected model qwen2.5, got %s", cfg.Endpoint.Model)
	}
	if cfg.Endpoint.Timeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %s", cfg.Endpoint.Timeout)
	}
	if cfg.Batch.MaxWorkers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Batch.MaxWorkers)
	}

	// Values absent from the file keep their defaults
	if cfg.Endpoint.MaxRetries != 3 {
		t.Errorf("expected default retries, got %d", cfg.Endpoint.MaxRetries)
	}
	if cfg.Server.Port != "11434" {
		t.Errorf("expected default server port, got %s", cfg.Server.Port)
	}
}
