// Package kiosk implements the per-turn query orchestrator. It wires the
// response cache, the failover dispatcher, the content filter, the
// translator, and the analytics sink into one pipeline.
package kiosk

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/kioskhub/kiosk-gateway/internal/analytics"
	"github.com/kioskhub/kiosk-gateway/internal/cache"
	"github.com/kioskhub/kiosk-gateway/internal/config"
	"github.com/kioskhub/kiosk-gateway/internal/filter"
	"github.com/kioskhub/kiosk-gateway/internal/health"
	"github.com/kioskhub/kiosk-gateway/internal/metrics"
	"github.com/kioskhub/kiosk-gateway/internal/session"
	"github.com/kioskhub/kiosk-gateway/internal/translate"
)

// Fixed user-facing messages. The orchestrator never surfaces raw errors
// to the kiosk screen.
const (
	MsgTooLong         = "Please keep your question shorter for better assistance."
	MsgRejected        = "I can only help with appropriate questions. Please rephrase your request."
	MsgRateLimited     = "You're sending requests too quickly. Please wait a moment."
	MsgProcessingError = "I encountered an error processing your request. Please try again."
)

// Dispatcher is the model failover chain consumed by the orchestrator
type Dispatcher interface {
	GetResponse(ctx context.Context, question, convContext string) (string, string)
	Health() map[string]error
	Keys() []string
}

// Reply is the outcome of one kiosk turn
type Reply struct {
	Text         string        `json:"text"`
	SessionID    string        `json:"session_id"`
	Cached       bool          `json:"cached"`
	ModelUsed    string        `json:"model_used"`
	ResponseTime time.Duration `json:"response_time"`
	Error        string        `json:"error,omitempty"`
}

// Orchestrator processes kiosk turns session by session
type Orchestrator struct {
	cfg        *config.Config
	cache      *cache.Cache
	dispatcher Dispatcher
	tracker    *health.Tracker
	registry   *session.Registry
	filter     *filter.Filter
	translator translate.Translator
	sink       analytics.Sink
	insights   InsightsProvider
	logger     *slog.Logger
}

// New creates an orchestrator with all collaborators injected
func New(cfg *config.Config, c *cache.Cache, d Dispatcher, tracker *health.Tracker,
	registry *session.Registry, f *filter.Filter, tr translate.Translator,
	sink analytics.Sink, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		cache:      c,
		dispatcher: d,
		tracker:    tracker,
		registry:   registry,
		filter:     f,
		translator: tr,
		sink:       sink,
		logger:     logger,
	}
}

// Session returns the session for the given ID, creating a fresh one when
// the ID is empty or unknown, and rolling over when the turn ceiling is
// reached.
func (o *Orchestrator) Session(id string) *session.Session {
	sess, ok := o.registry.Get(id)
	if !ok {
		sess = o.registry.Create(o.cfg.Session.DefaultLanguage)
		o.logger.Info("New session created", "session_id", sess.ID)
		return sess
	}

	if sess.QuestionsCount >= o.cfg.Session.MaxTurns {
		o.finalize(sess)
		fresh := o.registry.Create(sess.Language)
		o.logger.Info("Session rolled over", "old_session_id", sess.ID, "session_id", fresh.ID)
		return fresh
	}
	return sess
}

// ProcessQuery runs one kiosk turn. It never returns an error: every
// failure mode maps to a fixed user-safe message.
func (o *Orchestrator) ProcessQuery(ctx context.Context, sessionID, input string) (reply Reply) {
	start := time.Now()
	sess := o.Session(sessionID)
	reply.SessionID = sess.ID

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("Query processing failed", "session_id", sess.ID, "panic", r)
			sess.Errors++
			reply.Text = MsgProcessingError
			reply.Error = "internal error"
			reply.ResponseTime = time.Since(start)
			metrics.QueryCount.WithLabelValues("error").Inc()
		}
	}()

	if !sess.AllowRequest(o.cfg.Session.RateLimitPerMinute) {
		reply.Text = MsgRateLimited
		metrics.QueryCount.WithLabelValues("rate_limited").Inc()
		return reply
	}

	if len(input) > o.cfg.Session.MaxInputLength {
		reply.Text = MsgTooLong
		metrics.QueryCount.WithLabelValues("too_long").Inc()
		return reply
	}

	if o.filter.IsInappropriate(input) {
		reply.Text = MsgRejected
		metrics.QueryCount.WithLabelValues("rejected").Inc()
		return reply
	}

	convContext := sess.Context(o.cfg.Session.ContextPairs)

	if cached, ok := o.cache.Get(input, convContext); ok {
		metrics.CacheHits.Inc()
		metrics.QueryCount.WithLabelValues("cache_hit").Inc()
		reply.Text = cached
		reply.Cached = true
		reply.ResponseTime = time.Since(start)
		return reply
	}
	metrics.CacheMisses.Inc()

	response, modelUsed := o.dispatcher.GetResponse(ctx, input, convContext)

	// The cache always holds the pre-translation response so a later
	// session in another language can reuse it.
	o.cache.Set(input, response, convContext)

	if o.translator != nil && sess.Language != o.cfg.Session.DefaultLanguage {
		translated, err := o.translator.Translate(ctx, response, sess.Language, o.cfg.Session.DefaultLanguage)
		if err != nil {
			o.logger.Warn("Translation failed, keeping original language",
				"session_id", sess.ID, "target", sess.Language, "error", err)
		} else {
			response = translated
		}
	}

	elapsed := time.Since(start)
	sess.AddTurn(session.Turn{
		Question:     input,
		Response:     response,
		ModelUsed:    modelUsed,
		ResponseTime: elapsed,
	})

	if err := o.sink.LogInteraction(sess.ID, input, response, elapsed.Seconds(), false, modelUsed); err != nil {
		o.logger.Warn("Failed to log interaction", "session_id", sess.ID, "error", err)
	}

	metrics.QueryCount.WithLabelValues("ok").Inc()
	metrics.QueryDuration.Observe(elapsed.Seconds())

	reply.Text = response
	reply.ModelUsed = modelUsed
	reply.ResponseTime = elapsed
	return reply
}

// EndSession flushes a session to analytics and drops it
func (o *Orchestrator) EndSession(sessionID string) {
	if sess, ok := o.registry.Get(sessionID); ok {
		o.finalize(sess)
	}
}

// SetLanguage changes the session language after validating the code
func (o *Orchestrator) SetLanguage(sessionID, code string) bool {
	if !translate.IsSupported(code) {
		return false
	}
	sess := o.Session(sessionID)
	sess.Language = code
	o.logger.Info("Language changed", "session_id", sess.ID, "language", code)
	return true
}

// FlushIdleSessions finalizes sessions idle beyond the configured timeout
func (o *Orchestrator) FlushIdleSessions() int {
	swept := o.registry.SweepIdle(o.cfg.Session.GetIdleTimeout())
	for _, sess := range swept {
		if err := o.sink.LogSession(sess); err != nil {
			o.logger.Warn("Failed to log session", "session_id", sess.ID, "error", err)
		}
	}
	return len(swept)
}

// CacheStats exposes cache statistics for the status surfaces
func (o *Orchestrator) CacheStats() cache.Stats {
	return o.cache.Stats()
}

// ActiveSessions returns the number of live sessions
func (o *Orchestrator) ActiveSessions() int {
	return o.registry.Len()
}

// Models lists the configured model keys in failover order
func (o *Orchestrator) Models() []string {
	return o.dispatcher.Keys()
}

// ModelHealth probes every configured model client
func (o *Orchestrator) ModelHealth() map[string]error {
	return o.dispatcher.Health()
}

// InsightsReport returns aggregated usage insights, or an error when
// analytics are disabled
func (o *Orchestrator) InsightsReport(days int) (*analytics.Insights, error) {
	if o.insights == nil {
		return nil, errors.New("analytics disabled")
	}
	return o.insights.Insights(days)
}

// HealthSnapshot exposes recorded fallback health for the status surfaces
func (o *Orchestrator) HealthSnapshot() map[string]health.Status {
	return o.tracker.Snapshot()
}

// finalize flushes a session to analytics exactly once and drops it from
// the active set
func (o *Orchestrator) finalize(sess *session.Session) {
	o.registry.Drop(sess.ID)
	if err := o.sink.LogSession(sess); err != nil {
		o.logger.Warn("Failed to log session", "session_id", sess.ID, "error", err)
	}
}
