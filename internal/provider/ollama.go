package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/kioskhub/kiosk-gateway/internal/config"
)

// OllamaClient is an Ollama inference client
type OllamaClient struct {
	baseURL    string
	model      string
	options    map[string]any
	httpClient *http.Client
}

func newOllamaClient(cfg config.ModelConfig) (Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("ollama URL is required")
	}

	options := map[string]any{}
	if cfg.Temperature > 0 {
		options["temperature"] = cfg.Temperature
	}
	if cfg.MaxTokens > 0 {
		options["num_predict"] = cfg.MaxTokens
	}

	return &OllamaClient{
		baseURL:    cfg.URL,
		model:      cfg.Name,
		options:    options,
		httpClient: &http.Client{Timeout: cfg.GetTimeout()},
	}, nil
}

// Complete sends a generate request to Ollama. The raw payload is the
// plain response string.
func (c *OllamaClient) Complete(ctx context.Context, req *Request) (any, error) {
	ollamaReq := map[string]any{
		"model":  c.model,
		"prompt": req.Prompt,
		"stream": false,
	}
	if len(c.options) > 0 {
		ollamaReq["options"] = c.options
	}

	body, err := json.Marshal(ollamaReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/generate", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(body))
	}

	var ollamaResp OllamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return ollamaResp.Response, nil
}

// Health checks if Ollama is reachable
func (c *OllamaClient) Health() error {
	url := fmt.Sprintf("%s/api/tags", c.baseURL)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create health request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama health check returned status %d", resp.StatusCode)
	}

	return nil
}

// OllamaResponse represents an Ollama API response
type OllamaResponse struct {
	Model       string `json:"model"`
	Response    string `json:"response"`
	Done        bool   `json:"done"`
	PromptCount int    `json:"prompt_eval_count"`
	EvalCount   int    `json:"eval_count"`
}
