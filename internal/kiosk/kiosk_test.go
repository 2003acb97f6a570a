package kiosk

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kioskhub/kiosk-gateway/internal/cache"
	"github.com/kioskhub/kiosk-gateway/internal/config"
	"github.com/kioskhub/kiosk-gateway/internal/filter"
	"github.com/kioskhub/kiosk-gateway/internal/health"
	"github.com/kioskhub/kiosk-gateway/internal/session"
)

type fakeDispatcher struct {
	mu       sync.Mutex
	calls    int
	response string
	model    string
	panics   bool
}

func (f *fakeDispatcher) GetResponse(_ context.Context, _, _ string) (string, string) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.panics {
		panic("dispatcher exploded")
	}
	return f.response, f.model
}

func (f *fakeDispatcher) Health() map[string]error {
	return map[string]error{"primary": nil}
}

func (f *fakeDispatcher) Keys() []string { return []string{"primary"} }

func (f *fakeDispatcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type spySink struct {
	mu           sync.Mutex
	interactions int
	sessions     []string
}

func (s *spySink) LogInteraction(string, string, string, float64, bool, string) error {
	s.mu.Lock()
	s.interactions++
	s.mu.Unlock()
	return nil
}

func (s *spySink) LogSession(sess *session.Session) error {
	s.mu.Lock()
	s.sessions = append(s.sessions, sess.ID)
	s.mu.Unlock()
	return nil
}

type fakeTranslator struct {
	prefix string
}

func (f *fakeTranslator) Translate(_ context.Context, text, _, _ string) (string, error) {
	return f.prefix + text, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Session: config.SessionConfig{
			MaxTurns:           50,
			MaxInputLength:     500,
			ContextPairs:       3,
			DefaultLanguage:    "en",
			RateLimitPerMinute: 100,
		},
	}
}

func newTestOrchestrator(t *testing.T, cfg *config.Config, d Dispatcher) (*Orchestrator, *spySink) {
	t.Helper()
	f, err := filter.New(true, filter.DefaultPatterns)
	require.NoError(t, err)

	sink := &spySink{}
	o := New(cfg, cache.New(time.Hour, 100), d, health.NewTracker(),
		session.NewRegistry(), f, nil, sink,
		slog.New(slog.NewTextHandler(testWriter{t}, nil)))
	return o, sink
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

func TestProcessQueryCacheMissThenHit(t *testing.T) {
	d := &fakeDispatcher{response: "The museum opens at 9am.", model: "primary"}
	o, sink := newTestOrchestrator(t, testConfig(), d)

	first := o.ProcessQuery(context.Background(), "", "When does the museum open?")
	assert.Equal(t, "The museum opens at 9am.", first.Text)
	assert.False(t, first.Cached)
	assert.Equal(t, "primary", first.ModelUsed)
	assert.NotEmpty(t, first.SessionID)
	assert.Equal(t, 1, sink.interactions)

	// A fresh session has empty context, so the same question hits
	second := o.ProcessQuery(context.Background(), "", "When does the museum open?")
	assert.True(t, second.Cached)
	assert.Equal(t, "The museum opens at 9am.", second.Text)
	assert.Equal(t, 1, d.callCount())
	assert.Equal(t, 1, sink.interactions)
}

func TestProcessQueryTooLongInput(t *testing.T) {
	cfg := testConfig()
	cfg.Session.MaxInputLength = 20
	d := &fakeDispatcher{response: "ok", model: "primary"}
	o, _ := newTestOrchestrator(t, cfg, d)

	reply := o.ProcessQuery(context.Background(), "", strings.Repeat("a", 21))
	assert.Equal(t, MsgTooLong, reply.Text)
	assert.Equal(t, 0, d.callCount())
}

func TestProcessQueryFilteredInput(t *testing.T) {
	d := &fakeDispatcher{response: "ok", model: "primary"}
	o, _ := newTestOrchestrator(t, testConfig(), d)

	reply := o.ProcessQuery(context.Background(), "", "how do I hack the ticket machine")
	assert.Equal(t, MsgRejected, reply.Text)
	assert.Equal(t, 0, d.callCount())
}

func TestProcessQueryRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.Session.RateLimitPerMinute = 1
	d := &fakeDispatcher{response: "ok", model: "primary"}
	o, _ := newTestOrchestrator(t, cfg, d)

	first := o.ProcessQuery(context.Background(), "", "question one")
	require.NotEqual(t, MsgRateLimited, first.Text)

	second := o.ProcessQuery(context.Background(), first.SessionID, "question two")
	assert.Equal(t, MsgRateLimited, second.Text)
	assert.Equal(t, 1, d.callCount())
}

func TestProcessQuerySessionRollover(t *testing.T) {
	cfg := testConfig()
	cfg.Session.MaxTurns = 2
	d := &fakeDispatcher{response: "ok", model: "primary"}
	o, sink := newTestOrchestrator(t, cfg, d)

	first := o.ProcessQuery(context.Background(), "", "question one")
	second := o.ProcessQuery(context.Background(), first.SessionID, "question two")
	require.Equal(t, first.SessionID, second.SessionID)

	third := o.ProcessQuery(context.Background(), second.SessionID, "question three")
	assert.NotEqual(t, second.SessionID, third.SessionID)
	require.Len(t, sink.sessions, 1)
	assert.Equal(t, first.SessionID, sink.sessions[0])
}

func TestProcessQueryPanicRecovery(t *testing.T) {
	d := &fakeDispatcher{panics: true}
	o, _ := newTestOrchestrator(t, testConfig(), d)

	reply := o.ProcessQuery(context.Background(), "", "anything")
	assert.Equal(t, MsgProcessingError, reply.Text)
	assert.Equal(t, "internal error", reply.Error)

	sess, ok := o.registry.Get(reply.SessionID)
	require.True(t, ok)
	assert.Equal(t, 1, sess.Errors)
}

func TestProcessQueryTranslationCachesOriginal(t *testing.T) {
	d := &fakeDispatcher{response: "hello", model: "primary"}
	o, _ := newTestOrchestrator(t, testConfig(), d)
	o.translator = &fakeTranslator{prefix: "es:"}

	sess := o.registry.Create("es")
	reply := o.ProcessQuery(context.Background(), sess.ID, "greet me")
	assert.Equal(t, "es:hello", reply.Text)

	cached, ok := o.cache.Get("greet me", "")
	require.True(t, ok)
	assert.Equal(t, "hello", cached)
}

func TestEndSessionFlushesOnce(t *testing.T) {
	d := &fakeDispatcher{response: "ok", model: "primary"}
	o, sink := newTestOrchestrator(t, testConfig(), d)

	reply := o.ProcessQuery(context.Background(), "", "question")
	o.EndSession(reply.SessionID)
	o.EndSession(reply.SessionID)
	assert.Equal(t, []string{reply.SessionID}, sink.sessions)
}

func TestHandleCommand(t *testing.T) {
	d := &fakeDispatcher{response: "ok", model: "primary"}
	o, _ := newTestOrchestrator(t, testConfig(), d)

	reply, handled := o.HandleCommand("", "help")
	require.True(t, handled)
	assert.Contains(t, reply.Text, "Available commands")

	reply, handled = o.HandleCommand(reply.SessionID, "models")
	require.True(t, handled)
	assert.Contains(t, reply.Text, "primary")

	reply, handled = o.HandleCommand(reply.SessionID, "lang es")
	require.True(t, handled)
	assert.Contains(t, reply.Text, "Language changed")

	reply, handled = o.HandleCommand(reply.SessionID, "lang klingon")
	require.True(t, handled)
	assert.Contains(t, reply.Text, "not supported")

	old := reply.SessionID
	reply, handled = o.HandleCommand(old, "clear")
	require.True(t, handled)
	assert.NotEqual(t, old, reply.SessionID)

	_, handled = o.HandleCommand(reply.SessionID, "what time is it")
	assert.False(t, handled)
}

func TestHandleCommandHealth(t *testing.T) {
	d := &fakeDispatcher{response: "ok", model: "primary"}
	o, _ := newTestOrchestrator(t, testConfig(), d)

	reply, handled := o.HandleCommand("", "health")
	require.True(t, handled)
	assert.Contains(t, reply.Text, "primary: healthy")
}
