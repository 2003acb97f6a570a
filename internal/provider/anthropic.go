package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/kioskhub/kiosk-gateway/internal/config"
)

const (
	defaultAnthropicURL     = "https://api.anthropic.com/v1"
	anthropicVersion        = "2023-06-01"
	anthropicDefaultTokens  = 1024
)

// AnthropicClient is an Anthropic Messages API client
type AnthropicClient struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
}

func newAnthropicClient(cfg config.ModelConfig) (Client, error) {
	baseURL := cfg.URL
	if baseURL == "" {
		baseURL = defaultAnthropicURL
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = anthropicDefaultTokens
	}

	return &AnthropicClient{
		baseURL:     baseURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Name,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
		httpClient:  &http.Client{Timeout: cfg.GetTimeout()},
	}, nil
}

// Complete sends a messages request. The raw payload is a map carrying a
// text field with the joined content blocks.
func (c *AnthropicClient) Complete(ctx context.Context, req *Request) (any, error) {
	anthropicReq := AnthropicRequest{
		Model: c.model,
		Messages: []ChatMessage{
			{Role: "user", Content: req.Prompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	body, err := json.Marshal(anthropicReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/messages", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("anthropic API returned status %d: %s", resp.StatusCode, string(body))
	}

	var anthropicResp AnthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&anthropicResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	parts := make([]string, 0, len(anthropicResp.Content))
	for _, block := range anthropicResp.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	return map[string]any{"text": strings.Join(parts, "")}, nil
}

// Health checks if the Anthropic API is usable
func (c *AnthropicClient) Health() error {
	if c.apiKey == "" {
		return fmt.Errorf("API key is not configured")
	}
	return nil
}

// AnthropicRequest represents a Messages API request
type AnthropicRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens"`
}

// AnthropicResponse represents a Messages API response
type AnthropicResponse struct {
	ID      string           `json:"id"`
	Model   string           `json:"model"`
	Content []AnthropicBlock `json:"content"`
	Usage   AnthropicUsage   `json:"usage"`
}

// AnthropicBlock represents a content block
type AnthropicBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// AnthropicUsage represents token usage
type AnthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}
