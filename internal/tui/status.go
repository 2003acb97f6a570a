package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kioskhub/kiosk-gateway/internal/kiosk"
)

type Status struct {
	models       []string
	modelStates  map[string]string
	cacheSize    int
	cacheHits    int
	cacheHitRate float64
	sessions     int
	refreshed    bool
}

func NewStatus() *Status {
	return &Status{modelStates: map[string]string{}}
}

// Refresh pulls current state from the orchestrator. Called on a timer
// from the app, never from View.
func (s *Status) Refresh(orch *kiosk.Orchestrator) {
	s.models = orch.Models()
	s.modelStates = map[string]string{}
	for key, status := range orch.HealthSnapshot() {
		if status.Healthy {
			s.modelStates[key] = "healthy"
		} else {
			s.modelStates[key] = "unhealthy"
		}
	}

	stats := orch.CacheStats()
	s.cacheSize = stats.Size
	s.cacheHits = stats.TotalHits
	s.cacheHitRate = stats.HitRate
	s.sessions = orch.ActiveSessions()
	s.refreshed = true
}

func (s *Status) View(width, height int) string {
	if !s.refreshed {
		return StatusPanelStyle.Width(width).Height(height).Render("Gathering status...")
	}

	var sb strings.Builder
	sb.WriteString("Models:\n")
	sorted := append([]string(nil), s.models...)
	sort.Strings(sorted)
	for _, key := range sorted {
		state, ok := s.modelStates[key]
		if !ok {
			state = "unknown"
		}
		fmt.Fprintf(&sb, "  %s: %s\n", key, state)
	}
	fmt.Fprintf(&sb, "\nCache: %d entries\nHits: %d (rate %.2f)\n\nSessions: %d",
		s.cacheSize, s.cacheHits, s.cacheHitRate, s.sessions)

	return StatusPanelStyle.Width(width).Height(height).Render(sb.String())
}
