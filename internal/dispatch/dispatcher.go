// Package dispatch orchestrates model invocation with ordered failover.
// The primary model is tried first, then each configured fallback in
// order, until one succeeds or all candidates are exhausted.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kioskhub/kiosk-gateway/internal/config"
	"github.com/kioskhub/kiosk-gateway/internal/health"
	"github.com/kioskhub/kiosk-gateway/internal/metrics"
	"github.com/kioskhub/kiosk-gateway/internal/provider"
)

const (
	// PrimaryKey tags responses produced by the primary model
	PrimaryKey = "primary"

	// ErrorKey tags the fixed fallback message returned when every
	// candidate has failed
	ErrorKey = "error"

	// FallbackMessage is returned when all candidates fail
	FallbackMessage = "I'm experiencing technical difficulties. Please try again in a moment."
)

// Candidate is one model in the failover chain
type Candidate struct {
	Key     string
	Client  provider.Client
	Timeout time.Duration
	Primary bool
}

// Dispatcher tries the primary model, then each fallback in order
type Dispatcher struct {
	candidates    []Candidate
	tracker       *health.Tracker
	contextWindow int
	logger        *slog.Logger
}

// New builds a dispatcher from the models config. The first candidate is
// always the primary; fallbacks keep their configured order.
func New(cfg *config.ModelsConfig, tracker *health.Tracker, logger *slog.Logger) (*Dispatcher, error) {
	primaryClient, err := provider.New(cfg.Primary)
	if err != nil {
		return nil, fmt.Errorf("failed to create primary model client: %w", err)
	}

	candidates := []Candidate{{
		Key:     PrimaryKey,
		Client:  primaryClient,
		Timeout: cfg.Primary.GetTimeout(),
		Primary: true,
	}}

	for _, fb := range cfg.Fallbacks {
		client, err := provider.New(fb)
		if err != nil {
			logger.Warn("Failed to initialize fallback model", "model", provider.ModelKey(fb), "error", err)
			continue
		}
		candidates = append(candidates, Candidate{
			Key:     provider.ModelKey(fb),
			Client:  client,
			Timeout: fb.GetTimeout(),
		})
	}

	return NewFromCandidates(candidates, tracker, cfg.ContextWindow, logger), nil
}

// NewFromCandidates builds a dispatcher from an explicit candidate list
func NewFromCandidates(candidates []Candidate, tracker *health.Tracker, contextWindow int, logger *slog.Logger) *Dispatcher {
	if contextWindow <= 0 {
		contextWindow = 1000
	}
	return &Dispatcher{
		candidates:    candidates,
		tracker:       tracker,
		contextWindow: contextWindow,
		logger:        logger,
	}
}

// GetResponse returns the first successful model response and the key of
// the model that produced it. When every candidate fails it returns the
// fixed fallback message keyed "error"; it never returns an error.
func (d *Dispatcher) GetResponse(ctx context.Context, question, convContext string) (string, string) {
	if len(convContext) > d.contextWindow {
		convContext = convContext[:d.contextWindow]
	}
	prompt := renderPrompt(convContext, question)

	for _, cand := range d.candidates {
		start := time.Now()
		raw, err := d.invoke(ctx, cand, prompt)
		if err == nil {
			var response string
			response, err = Normalize(raw)
			if err == nil {
				metrics.ModelLatency.WithLabelValues(cand.Key).Observe(time.Since(start).Seconds())
				if !cand.Primary {
					d.tracker.Mark(cand.Key, true, "")
				}
				return response, cand.Key
			}
		}

		d.logger.Warn("Model attempt failed", "model", cand.Key, "error", err)
		metrics.FailoverCount.WithLabelValues(cand.Key).Inc()
		if !cand.Primary {
			d.tracker.Mark(cand.Key, false, err.Error())
		}
	}

	return FallbackMessage, ErrorKey
}

// invoke runs the blocking model call on its own goroutine so the
// deadline holds even when the underlying transport stalls.
func (d *Dispatcher) invoke(ctx context.Context, cand Candidate, prompt string) (any, error) {
	callCtx, cancel := context.WithTimeout(ctx, cand.Timeout)
	defer cancel()

	type result struct {
		raw any
		err error
	}
	done := make(chan result, 1)

	go func() {
		raw, err := cand.Client.Complete(callCtx, &provider.Request{Prompt: prompt})
		done <- result{raw, err}
	}()

	select {
	case <-callCtx.Done():
		return nil, fmt.Errorf("model %s: %w", cand.Key, ErrTimeout)
	case res := <-done:
		return res.raw, res.err
	}
}

// Health probes every candidate backend
func (d *Dispatcher) Health() map[string]error {
	results := make(map[string]error, len(d.candidates))
	for _, cand := range d.candidates {
		results[cand.Key] = cand.Client.Health()
	}
	return results
}

// Keys returns the candidate keys in attempt order
func (d *Dispatcher) Keys() []string {
	keys := make([]string, 0, len(d.candidates))
	for _, cand := range d.candidates {
		keys = append(keys, cand.Key)
	}
	return keys
}
