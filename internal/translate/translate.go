// Package translate provides the translation collaborator interface and
// a LibreTranslate-compatible HTTP client.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kioskhub/kiosk-gateway/internal/config"
)

// Translator converts text between languages
type Translator interface {
	Translate(ctx context.Context, text, targetLang, sourceLang string) (string, error)
}

// SupportedLanguages lists the language codes the kiosk accepts
var SupportedLanguages = []string{"en", "es", "fr", "de", "it", "pt", "ru", "zh", "ja", "ko", "ar", "hi"}

// IsSupported reports whether a language code is accepted
func IsSupported(code string) bool {
	for _, l := range SupportedLanguages {
		if l == code {
			return true
		}
	}
	return false
}

// HTTPTranslator is a LibreTranslate-compatible translation client
type HTTPTranslator struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPTranslator creates a translation client from config
func NewHTTPTranslator(cfg config.TranslatorConfig) *HTTPTranslator {
	return &HTTPTranslator{
		baseURL:    cfg.URL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	APIKey string `json:"api_key,omitempty"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
}

// Translate converts text to the target language
func (t *HTTPTranslator) Translate(ctx context.Context, text, targetLang, sourceLang string) (string, error) {
	if sourceLang == "" {
		sourceLang = "auto"
	}

	body, err := json.Marshal(translateRequest{
		Q:      text,
		Source: sourceLang,
		Target: targetLang,
		APIKey: t.apiKey,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/translate", t.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("translator returned status %d: %s", resp.StatusCode, string(body))
	}

	var tr translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if tr.TranslatedText == "" {
		return "", fmt.Errorf("translator returned an empty result")
	}

	return tr.TranslatedText, nil
}
