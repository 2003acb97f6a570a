// Package analytics persists session and interaction data to SQLite.
package analytics

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kioskhub/kiosk-gateway/internal/session"
)

// Sink receives analytics events from the orchestrator
type Sink interface {
	LogInteraction(sessionID, question, response string, responseTime float64, cached bool, modelUsed string) error
	LogSession(s *session.Session) error
}

// Store is a SQLite-backed analytics sink
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	start_time TIMESTAMP,
	end_time TIMESTAMP,
	questions_count INTEGER,
	avg_response_time REAL,
	language TEXT,
	errors_count INTEGER
);

CREATE TABLE IF NOT EXISTS interactions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT,
	timestamp TIMESTAMP,
	question TEXT,
	response TEXT,
	response_time REAL,
	cached BOOLEAN,
	model_used TEXT,
	FOREIGN KEY (session_id) REFERENCES sessions (id)
);

CREATE TABLE IF NOT EXISTS performance_metrics (
	timestamp TIMESTAMP,
	metric_name TEXT,
	metric_value REAL,
	PRIMARY KEY (timestamp, metric_name)
);

CREATE INDEX IF NOT EXISTS idx_sessions_time ON sessions(start_time);
CREATE INDEX IF NOT EXISTS idx_interactions_session ON interactions(session_id);
CREATE INDEX IF NOT EXISTS idx_interactions_time ON interactions(timestamp);
`

// NewStore opens the analytics database and ensures the schema exists
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open analytics database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize analytics schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// LogInteraction records a single question/response exchange
func (s *Store) LogInteraction(sessionID, question, response string, responseTime float64, cached bool, modelUsed string) error {
	_, err := s.db.Exec(`
		INSERT INTO interactions
		(session_id, timestamp, question, response, response_time, cached, model_used)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sessionID, time.Now(), question, response, responseTime, cached, modelUsed)
	if err != nil {
		return fmt.Errorf("failed to log interaction: %w", err)
	}
	return nil
}

// LogSession records a finished session summary
func (s *Store) LogSession(sess *session.Session) error {
	avg := 0.0
	if sess.QuestionsCount > 0 {
		avg = sess.TotalResponseTime.Seconds() / float64(sess.QuestionsCount)
	}
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO sessions
		(id, start_time, end_time, questions_count, avg_response_time, language, errors_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.StartTime, time.Now(), sess.QuestionsCount, avg, sess.Language, sess.Errors)
	if err != nil {
		return fmt.Errorf("failed to log session: %w", err)
	}
	return nil
}

// RecordMetric stores one named performance metric sample
func (s *Store) RecordMetric(name string, value float64) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO performance_metrics (timestamp, metric_name, metric_value)
		VALUES (?, ?, ?)`,
		time.Now(), name, value)
	if err != nil {
		return fmt.Errorf("failed to record metric: %w", err)
	}
	return nil
}

// NopSink discards all analytics events; used when analytics is disabled
type NopSink struct{}

func (NopSink) LogInteraction(string, string, string, float64, bool, string) error { return nil }
func (NopSink) LogSession(*session.Session) error                                  { return nil }
