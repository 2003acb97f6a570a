package session

import (
	"sync"
	"time"

	"github.com/kioskhub/kiosk-gateway/internal/metrics"
)

// Registry owns the set of active sessions
type Registry struct {
	sessions map[string]*Session
	mu       sync.Mutex
}

// NewRegistry creates an empty session registry
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// Create starts a new session and registers it
func (r *Registry) Create(language string) *Session {
	s := New(language)

	r.mu.Lock()
	r.sessions[s.ID] = s
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
	r.mu.Unlock()

	return s
}

// Get returns the session with the given ID
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Drop removes a session from the active set
func (r *Registry) Drop(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
	r.mu.Unlock()
}

// Len returns the number of active sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// List returns a snapshot of the active sessions
func (r *Registry) List() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		list = append(list, s)
	}
	return list
}

// SweepIdle removes and returns sessions that have been idle longer than
// maxIdle, so the caller can flush them to analytics.
func (r *Registry) SweepIdle(maxIdle time.Duration) []*Session {
	cutoff := time.Now().Add(-maxIdle)

	r.mu.Lock()
	defer r.mu.Unlock()

	var swept []*Session
	for id, s := range r.sessions {
		if s.UpdatedAt.Before(cutoff) {
			swept = append(swept, s)
			delete(r.sessions, id)
		}
	}
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
	return swept
}
