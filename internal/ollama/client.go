package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// AdminClient talks to the Ollama admin API: version checks, model listing
// and model pulls. Chat traffic goes through the providers package instead.
type AdminClient struct {
	address    string
	httpClient *http.Client
}

// NewAdminClient creates an admin client for the given Ollama address.
func NewAdminClient(address string) *AdminClient {
	return &AdminClient{
		address: strings.TrimRight(address, "/"),
		// Model pulls can run for minutes on a cold cache; the per-request
		// context governs cancellation instead of a client-wide timeout.
		httpClient: &http.Client{},
	}
}

// Version returns the server version string.
func (c *AdminClient) Version(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.address+"/api/version", nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d from version endpoint", resp.StatusCode)
	}

	var body struct {
		Version string `json:"version"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode version response: %w", err)
	}
	return body.Version, nil
}

// HasModel reports whether the named model is already present locally.
// Tag-less names match any tag of that model.
func (c *AdminClient) HasModel(ctx context.Context, model string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.address+"/api/tags", nil)
	if err != nil {
		return false, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to reach ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("unexpected status %d from tags endpoint", resp.StatusCode)
	}

	var body struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("failed to decode tags response: %w", err)
	}

	for _, m := range body.Models {
		if m.Name == model || strings.TrimSuffix(m.Name, ":latest") == model {
			return true, nil
		}
	}
	return false, nil
}

// PullProgress is one status update from a streaming model pull.
type PullProgress struct {
	Status    string `json:"status"`
	Total     int64  `json:"total,omitempty"`
	Completed int64  `json:"completed,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Pull downloads a model, invoking onProgress for each status line of the
// streaming response. onProgress may be nil.
func (c *AdminClient) Pull(ctx context.Context, model string, onProgress func(PullProgress)) error {
	payload, err := json.Marshal(map[string]any{"model": model})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.address+"/api/pull", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("pull failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var progress PullProgress
		if err := json.Unmarshal(line, &progress); err != nil {
			return fmt.Errorf("failed to decode pull progress: %w", err)
		}
		if progress.Error != "" {
			return fmt.Errorf("pull failed: %s", progress.Error)
		}
		if onProgress != nil {
			onProgress(progress)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read pull stream: %w", err)
	}
	return nil
}

// EnsureModel pulls the model unless it is already present.
func (c *AdminClient) EnsureModel(ctx context.Context, model string, onProgress func(PullProgress)) error {
	present, err := c.HasModel(ctx, model)
	if err != nil {
		return err
	}
	if present {
		return nil
	}

	pullCtx, cancel := context.WithTimeout(ctx, 30*time.Minute)
	defer cancel()
	return c.Pull(pullCtx, model, onProgress)
}
