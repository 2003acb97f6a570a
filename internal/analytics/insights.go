package analytics

import (
	"fmt"
	"time"
)

// SessionStats summarizes sessions over the report period
type SessionStats struct {
	TotalSessions          int     `json:"total_sessions"`
	AvgQuestionsPerSession float64 `json:"avg_questions_per_session"`
	AvgResponseTime        float64 `json:"avg_response_time"`
}

// PopularQuestion is a frequently asked question with its count
type PopularQuestion struct {
	Question  string `json:"question"`
	Frequency int    `json:"frequency"`
}

// TrendPoint is one day of interaction volume and latency
type TrendPoint struct {
	Date            string  `json:"date"`
	AvgResponseTime float64 `json:"avg_response_time"`
	Interactions    int     `json:"interactions_count"`
}

// Insights aggregates analytics over a report period
type Insights struct {
	SessionStats     SessionStats      `json:"session_stats"`
	PopularQuestions []PopularQuestion `json:"popular_questions"`
	PerformanceTrend []TrendPoint      `json:"performance_trend"`
	ReportPeriodDays int               `json:"report_period_days"`
}

// Insights computes usage insights over the last n days
func (s *Store) Insights(days int) (*Insights, error) {
	if days <= 0 {
		days = 7
	}
	since := time.Now().AddDate(0, 0, -days)
	out := &Insights{ReportPeriodDays: days}

	row := s.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(AVG(questions_count), 0),
		       COALESCE(AVG(avg_response_time), 0)
		FROM sessions WHERE start_time >= ?`, since)
	if err := row.Scan(&out.SessionStats.TotalSessions,
		&out.SessionStats.AvgQuestionsPerSession,
		&out.SessionStats.AvgResponseTime); err != nil {
		return nil, fmt.Errorf("failed to query session stats: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT question, COUNT(*) as frequency
		FROM interactions
		WHERE timestamp >= ?
		GROUP BY LOWER(question)
		ORDER BY frequency DESC
		LIMIT 10`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query popular questions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var pq PopularQuestion
		if err := rows.Scan(&pq.Question, &pq.Frequency); err != nil {
			return nil, fmt.Errorf("failed to scan popular question: %w", err)
		}
		out.PopularQuestions = append(out.PopularQuestions, pq)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	trendRows, err := s.db.Query(`
		SELECT DATE(timestamp), COALESCE(AVG(response_time), 0), COUNT(*)
		FROM interactions
		WHERE timestamp >= ?
		GROUP BY DATE(timestamp)
		ORDER BY DATE(timestamp)`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query performance trend: %w", err)
	}
	defer trendRows.Close()
	for trendRows.Next() {
		var tp TrendPoint
		if err := trendRows.Scan(&tp.Date, &tp.AvgResponseTime, &tp.Interactions); err != nil {
			return nil, fmt.Errorf("failed to scan trend point: %w", err)
		}
		out.PerformanceTrend = append(out.PerformanceTrend, tp)
	}
	if err := trendRows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}
