package translate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kioskhub/kiosk-gateway/internal/config"
)

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("en"))
	assert.True(t, IsSupported("ja"))
	assert.False(t, IsSupported("xx"))
}

func TestTranslate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/translate", r.URL.Path)
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, "hello", req["q"])
		assert.Equal(t, "es", req["target"])
		w.Write([]byte(`{"translatedText":"hola"}`))
	}))
	defer srv.Close()

	tr := NewHTTPTranslator(config.TranslatorConfig{URL: srv.URL})
	out, err := tr.Translate(context.Background(), "hello", "es", "en")
	require.NoError(t, err)
	assert.Equal(t, "hola", out)
}

func TestTranslateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	tr := NewHTTPTranslator(config.TranslatorConfig{URL: srv.URL})
	_, err := tr.Translate(context.Background(), "hello", "es", "en")
	assert.Error(t, err)
}

func TestTranslateEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"translatedText":""}`))
	}))
	defer srv.Close()

	tr := NewHTTPTranslator(config.TranslatorConfig{URL: srv.URL})
	_, err := tr.Translate(context.Background(), "hello", "es", "en")
	assert.Error(t, err)
}
