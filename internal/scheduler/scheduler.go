// Package scheduler runs the kiosk's periodic maintenance jobs.
package scheduler

import (
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/kioskhub/kiosk-gateway/internal/cache"
	"github.com/kioskhub/kiosk-gateway/internal/dispatch"
	"github.com/kioskhub/kiosk-gateway/internal/health"
)

// Prober checks every configured model client
type Prober interface {
	Health() map[string]error
}

// Sweeper finalizes idle sessions
type Sweeper interface {
	FlushIdleSessions() int
	CacheStats() cache.Stats
}

// MetricRecorder persists rollup metrics. The analytics store implements
// it; a nil recorder disables the rollup job.
type MetricRecorder interface {
	RecordMetric(name string, value float64) error
}

// Scheduler manages the kiosk's cron jobs
type Scheduler struct {
	cron     *cron.Cron
	prober   Prober
	tracker  *health.Tracker
	sweeper  Sweeper
	recorder MetricRecorder
	logger   *slog.Logger
}

// New creates a scheduler with all maintenance jobs registered
func New(prober Prober, tracker *health.Tracker, sweeper Sweeper, recorder MetricRecorder, logger *slog.Logger) *Scheduler {
	s := &Scheduler{
		cron:     cron.New(),
		prober:   prober,
		tracker:  tracker,
		sweeper:  sweeper,
		recorder: recorder,
		logger:   logger,
	}
	s.scheduleHealthProbe()
	s.scheduleIdleSweep()
	s.scheduleNightlyRollup()
	return s
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// scheduleHealthProbe probes every model each minute and records the
// outcome in the health tracker
func (s *Scheduler) scheduleHealthProbe() {
	_, err := s.cron.AddFunc("* * * * *", s.probeModels)
	if err != nil {
		s.logger.Error("Failed to schedule health probe", "error", err)
	}
}

// scheduleIdleSweep flushes idle sessions every five minutes
func (s *Scheduler) scheduleIdleSweep() {
	_, err := s.cron.AddFunc("*/5 * * * *", func() {
		if n := s.sweeper.FlushIdleSessions(); n > 0 {
			s.logger.Info("Idle sessions flushed", "count", n)
		}
	})
	if err != nil {
		s.logger.Error("Failed to schedule idle sweep", "error", err)
	}
}

// scheduleNightlyRollup records cache statistics at 3 AM
func (s *Scheduler) scheduleNightlyRollup() {
	if s.recorder == nil {
		return
	}
	_, err := s.cron.AddFunc("0 3 * * *", s.rollupMetrics)
	if err != nil {
		s.logger.Error("Failed to schedule nightly rollup", "error", err)
	}
}

func (s *Scheduler) probeModels() {
	for key, probeErr := range s.prober.Health() {
		// The tracker only ever holds fallback state; the primary is
		// always tried first regardless of recorded health.
		if key == dispatch.PrimaryKey {
			continue
		}
		if probeErr != nil {
			s.tracker.Mark(key, false, probeErr.Error())
			s.logger.Warn("Model probe failed", "model", key, "error", probeErr)
		} else {
			s.tracker.Mark(key, true, "")
		}
	}
}

func (s *Scheduler) rollupMetrics() {
	stats := s.sweeper.CacheStats()
	for name, value := range map[string]float64{
		"cache_size":     float64(stats.Size),
		"cache_hits":     float64(stats.TotalHits),
		"cache_hit_rate": stats.HitRate,
	} {
		if err := s.recorder.RecordMetric(name, value); err != nil {
			s.logger.Warn("Failed to record rollup metric", "metric", name, "error", err)
		}
	}
}
