// Package provider implements clients for the supported model backends.
// Each client returns its raw payload shape untouched; normalization to a
// plain string happens in the dispatch package.
package provider

import (
	"context"
	"fmt"

	"github.com/kioskhub/kiosk-gateway/internal/config"
)

// Client is the interface for model backends
type Client interface {
	// Complete sends the prompt to the backend and returns the raw
	// payload. The payload is one of: string, []string, or a map
	// carrying a text field.
	Complete(ctx context.Context, req *Request) (any, error)

	// Health reports whether the backend is reachable
	Health() error
}

// Request represents a completion request. Sampling parameters come from
// the model's own configuration, not the request.
type Request struct {
	Prompt string
}

// Provider identifies a model backend type
type Provider string

const (
	Ollama    Provider = "ollama"
	OpenAI    Provider = "openai"
	Anthropic Provider = "anthropic"
)

// constructors maps each provider to its client constructor so that new
// providers register here without touching call sites.
var constructors = map[Provider]func(cfg config.ModelConfig) (Client, error){
	Ollama:    newOllamaClient,
	OpenAI:    newOpenAIClient,
	Anthropic: newAnthropicClient,
}

// New creates a client for the configured model
func New(cfg config.ModelConfig) (Client, error) {
	ctor, ok := constructors[Provider(cfg.Provider)]
	if !ok {
		return nil, fmt.Errorf("unsupported model provider: %s", cfg.Provider)
	}
	return ctor(cfg)
}

// ModelKey returns the identifying key for a configured model
func ModelKey(cfg config.ModelConfig) string {
	return fmt.Sprintf("%s_%s", cfg.Provider, cfg.Name)
}
