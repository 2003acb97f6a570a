package scheduler

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kioskhub/kiosk-gateway/internal/cache"
	"github.com/kioskhub/kiosk-gateway/internal/health"
)

type fakeProber struct {
	statuses map[string]error
}

func (f *fakeProber) Health() map[string]error { return f.statuses }

type fakeSweeper struct {
	swept int
	stats cache.Stats
}

func (f *fakeSweeper) FlushIdleSessions() int  { return f.swept }
func (f *fakeSweeper) CacheStats() cache.Stats { return f.stats }

type fakeRecorder struct {
	recorded map[string]float64
}

func (f *fakeRecorder) RecordMetric(name string, value float64) error {
	if f.recorded == nil {
		f.recorded = make(map[string]float64)
	}
	f.recorded[name] = value
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discard{}, nil))
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func TestProbeModelsUpdatesTracker(t *testing.T) {
	prober := &fakeProber{statuses: map[string]error{
		"primary":       nil,
		"ollama_llama3": nil,
		"openai_gpt-4o": errors.New("401 unauthorized"),
	}}
	tracker := health.NewTracker()
	s := New(prober, tracker, &fakeSweeper{}, nil, testLogger())

	s.probeModels()

	up, ok := tracker.Get("ollama_llama3")
	require.True(t, ok)
	assert.True(t, up.Healthy)

	down, ok := tracker.Get("openai_gpt-4o")
	require.True(t, ok)
	assert.False(t, down.Healthy)
	assert.Equal(t, "401 unauthorized", down.LastError)

	// The primary is never recorded
	_, ok = tracker.Get("primary")
	assert.False(t, ok)
}

func TestRollupRecordsCacheStats(t *testing.T) {
	recorder := &fakeRecorder{}
	sweeper := &fakeSweeper{stats: cache.Stats{Size: 12, TotalHits: 30, HitRate: 2.5}}
	s := New(&fakeProber{}, health.NewTracker(), sweeper, recorder, testLogger())

	s.rollupMetrics()

	assert.Equal(t, 12.0, recorder.recorded["cache_size"])
	assert.Equal(t, 30.0, recorder.recorded["cache_hits"])
	assert.Equal(t, 2.5, recorder.recorded["cache_hit_rate"])
}

func TestStartStop(t *testing.T) {
	s := New(&fakeProber{}, health.NewTracker(), &fakeSweeper{}, nil, testLogger())
	s.Start()
	s.Stop()
}
