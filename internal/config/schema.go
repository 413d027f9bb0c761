package config

import "time"

// Config holds bookminer configuration.
// Stored at: ~/.bookminer/config.yaml (or ./config.yaml)
type Config struct {
	Endpoint EndpointCfg `mapstructure:"endpoint" yaml:"endpoint"`
	Batch    BatchCfg    `mapstructure:"batch" yaml:"batch"`
	Server   ServerCfg   `mapstructure:"server" yaml:"server"`
}

// EndpointCfg configures the language-model endpoint.
type EndpointCfg struct {
	Type          string        `mapstructure:"type" yaml:"type"`                     // "ollama" or "openai"
	Address       string        `mapstructure:"address" yaml:"address"`               // Base URL of the local server
	Model         string        `mapstructure:"model" yaml:"model"`                   // Model identifier to request
	APIKey        string        `mapstructure:"api_key" yaml:"api_key"`               // API key (supports ${ENV_VAR} syntax, usually empty locally)
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`               // Per-call deadline
	MaxRetries    int           `mapstructure:"max_retries" yaml:"max_retries"`       // Transient-failure retry cap per item
	RetryDelay    time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`       // Fixed delay between retries
	Temperature   float64       `mapstructure:"temperature" yaml:"temperature"`       // Passed through to the model
	TopP          float64       `mapstructure:"top_p" yaml:"top_p"`                   // Passed through to the model
	ContextWindow int           `mapstructure:"context_window" yaml:"context_window"` // num_ctx, passed through opaquely
}

// BatchCfg configures batch runs.
type BatchCfg struct {
	Schema      string        `mapstructure:"schema" yaml:"schema"`             // Record schema variant name
	MaxWorkers  int           `mapstructure:"max_workers" yaml:"max_workers"`   // Concurrent in-flight calls (1 = sequential)
	StartupWait time.Duration `mapstructure:"startup_wait" yaml:"startup_wait"` // Max wait for the endpoint at process start
}

// ServerCfg holds local model server container configuration.
type ServerCfg struct {
	// ContainerName is the Docker container name (default: bookminer-ollama)
	ContainerName string `mapstructure:"container_name" yaml:"container_name"`
	// Image is the Docker image to use (default: ollama/ollama:latest)
	Image string `mapstructure:"image" yaml:"image"`
	// Port is the host port to bind (default: 11434)
	Port string `mapstructure:"port" yaml:"port"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Endpoint: EndpointCfg{
			Type:       "ollama",
			Address:    "http://localhost:11434",
			Model:      "gemma3",
			Timeout:    120 * time.Second,
			MaxRetries: 3,
			RetryDelay: 2 * time.Second,
		},
		Batch: BatchCfg{
			Schema:      "book_review",
			MaxWorkers:  1,
			StartupWait: 60 * time.Second,
		},
		Server: ServerCfg{
			ContainerName: "bookminer-ollama",
			Image:         "ollama/ollama:latest",
			Port:          "11434",
		},
	}
}
