// Package health tracks per-model health for the fallback chain.
package health

import (
	"sync"
	"time"
)

// Status represents the recorded health of one model
type Status struct {
	ModelKey    string    `json:"model_key"`
	Healthy     bool      `json:"healthy"`
	LastError   string    `json:"last_error,omitempty"`
	LastChecked time.Time `json:"last_checked"`
}

// Tracker is a thread-safe holder of per-model health records. Records
// are only ever overwritten, never deleted.
type Tracker struct {
	statuses map[string]*Status
	mu       sync.RWMutex
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{
		statuses: make(map[string]*Status),
	}
}

// Mark records the outcome of an attempt on the given model
func (t *Tracker) Mark(modelKey string, healthy bool, lastError string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.statuses[modelKey] = &Status{
		ModelKey:    modelKey,
		Healthy:     healthy,
		LastError:   lastError,
		LastChecked: time.Now(),
	}
}

// Get returns the recorded status for a model
func (t *Tracker) Get(modelKey string) (Status, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s, ok := t.statuses[modelKey]
	if !ok {
		return Status{}, false
	}
	return *s, true
}

// Snapshot returns a copy of all recorded statuses
func (t *Tracker) Snapshot() map[string]Status {
	t.mu.RLock()
	defer t.mu.RUnlock()

	m := make(map[string]Status, len(t.statuses))
	for k, v := range t.statuses {
		m[k] = *v
	}
	return m
}
