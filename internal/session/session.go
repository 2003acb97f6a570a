package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Turn represents one question/response exchange
type Turn struct {
	Question     string
	Response     string
	ModelUsed    string
	Cached       bool
	ResponseTime time.Duration
	Timestamp    time.Time
}

// Session represents a conversation session at the kiosk
type Session struct {
	ID                string
	StartTime         time.Time
	UpdatedAt         time.Time
	Language          string
	QuestionsCount    int
	TotalResponseTime time.Duration
	Errors            int
	History           []Turn

	windowStart time.Time
	windowCount int
}

// New creates a new session with a unique ID
func New(language string) *Session {
	now := time.Now()
	return &Session{
		ID:        fmt.Sprintf("session_%s", uuid.NewString()),
		StartTime: now,
		UpdatedAt: now,
		Language:  language,
		History:   []Turn{},
	}
}

// AddTurn appends a completed exchange and updates the counters
func (s *Session) AddTurn(turn Turn) {
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now()
	}
	s.History = append(s.History, turn)
	s.QuestionsCount++
	s.TotalResponseTime += turn.ResponseTime
	s.UpdatedAt = time.Now()
}

// Context renders the last n question/response pairs for the model prompt
func (s *Session) Context(pairs int) string {
	if pairs <= 0 || len(s.History) == 0 {
		return ""
	}
	start := len(s.History) - pairs
	if start < 0 {
		start = 0
	}

	var sb strings.Builder
	for _, turn := range s.History[start:] {
		sb.WriteString("User: ")
		sb.WriteString(turn.Question)
		sb.WriteString("\nAssistant: ")
		sb.WriteString(turn.Response)
		sb.WriteString("\n")
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// AllowRequest checks the per-minute rate limit for this session
func (s *Session) AllowRequest(limitPerMinute int) bool {
	if limitPerMinute <= 0 {
		return true
	}
	now := time.Now()
	if now.Sub(s.windowStart) >= time.Minute {
		s.windowStart = now
		s.windowCount = 0
	}
	if s.windowCount >= limitPerMinute {
		return false
	}
	s.windowCount++
	return true
}

// AvgResponseTime returns the mean response time across the session
func (s *Session) AvgResponseTime() time.Duration {
	if s.QuestionsCount == 0 {
		return 0
	}
	return s.TotalResponseTime / time.Duration(s.QuestionsCount)
}
