package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kioskhub/kiosk-gateway/internal/config"
	"github.com/kioskhub/kiosk-gateway/internal/kiosk"
	"github.com/kioskhub/kiosk-gateway/internal/session"
)

// Server represents the HTTP server
type Server struct {
	cfg        *config.Config
	orch       *kiosk.Orchestrator
	registry   *session.Registry
	httpServer *http.Server
	startTime  time.Time
	logger     *slog.Logger
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string                   `json:"status"`
	Version   string                   `json:"version"`
	Uptime    string                   `json:"uptime"`
	Services  map[string]ServiceHealth `json:"services"`
	Timestamp string                   `json:"timestamp"`
}

// ServiceHealth represents a service health status
type ServiceHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// StatusResponse represents the full system status
type StatusResponse struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Services  map[string]interface{} `json:"services"`
	Channels  map[string]bool        `json:"channels"`
	Timestamp string                 `json:"timestamp"`
}

// QueryRequest is a kiosk question over HTTP
type QueryRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

// QueryResponse is the reply to one kiosk question
type QueryResponse struct {
	Response     string  `json:"response"`
	SessionID    string  `json:"session_id"`
	Cached       bool    `json:"cached"`
	ModelUsed    string  `json:"model_used,omitempty"`
	ResponseTime float64 `json:"response_time"`
	Error        string  `json:"error,omitempty"`
}

// SessionsResponse represents the active sessions list
type SessionsResponse struct {
	Sessions []SessionInfo `json:"sessions"`
}

// SessionInfo represents session info
type SessionInfo struct {
	ID             string `json:"id"`
	Language       string `json:"language"`
	QuestionsCount int    `json:"questions_count"`
	Errors         int    `json:"errors"`
	StartedAt      string `json:"started_at"`
	UpdatedAt      string `json:"updated_at"`
}

// ModelInfo represents one model in the failover chain
type ModelInfo struct {
	Key     string `json:"key"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// New creates a new HTTP server
func New(cfg *config.Config, orch *kiosk.Orchestrator, registry *session.Registry, logger *slog.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		orch:      orch,
		registry:  registry,
		logger:    logger,
		startTime: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/api/v1/status", s.statusHandler)
	mux.HandleFunc("/api/v1/query", s.queryHandler)
	mux.HandleFunc("/api/v1/sessions", s.sessionsHandler)
	mux.HandleFunc("/api/v1/models", s.modelsHandler)
	mux.HandleFunc("/api/v1/cache/stats", s.cacheStatsHandler)
	mux.HandleFunc("/api/v1/insights", s.insightsHandler)
	mux.Handle("/metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler exposes the routing table for tests
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("HTTP server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// healthHandler handles health check requests
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	services := map[string]ServiceHealth{
		"http": {Healthy: true, Message: "HTTP server running"},
	}

	healthyModels := 0
	modelHealth := s.orch.ModelHealth()
	for _, err := range modelHealth {
		if err == nil {
			healthyModels++
		}
	}
	services["models"] = ServiceHealth{
		Healthy: healthyModels > 0,
		Message: fmt.Sprintf("%d/%d models healthy", healthyModels, len(modelHealth)),
	}

	status := "healthy"
	if healthyModels == 0 {
		status = "degraded"
	}

	response := HealthResponse{
		Status:    status,
		Version:   "1.0.0",
		Uptime:    time.Since(s.startTime).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  services,
	}

	writeJSON(w, response)
}

// statusHandler handles full system status
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats := s.orch.CacheStats()
	modelHealth := s.orch.ModelHealth()
	healthy := 0
	for _, err := range modelHealth {
		if err == nil {
			healthy++
		}
	}

	services := map[string]interface{}{
		"models": map[string]interface{}{
			"configured": len(modelHealth),
			"healthy":    healthy,
		},
		"cache": map[string]interface{}{
			"entries":  stats.Size,
			"hits":     stats.TotalHits,
			"hit_rate": stats.HitRate,
		},
		"sessions": map[string]interface{}{
			"active": s.registry.Len(),
		},
	}

	response := StatusResponse{
		Status:    "healthy",
		Version:   "1.0.0",
		Uptime:    time.Since(s.startTime).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  services,
		Channels: map[string]bool{
			"webchat": s.cfg.Channels.WebChat.Enabled,
		},
	}

	writeJSON(w, response)
}

// queryHandler handles kiosk questions over HTTP
func (s *Server) queryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		http.Error(w, "message required", http.StatusBadRequest)
		return
	}

	reply, handled := s.orch.HandleCommand(req.SessionID, req.Message)
	if !handled {
		reply = s.orch.ProcessQuery(r.Context(), req.SessionID, req.Message)
	}

	writeJSON(w, QueryResponse{
		Response:     reply.Text,
		SessionID:    reply.SessionID,
		Cached:       reply.Cached,
		ModelUsed:    reply.ModelUsed,
		ResponseTime: reply.ResponseTime.Seconds(),
		Error:        reply.Error,
	})
}

// sessionsHandler lists active sessions
func (s *Server) sessionsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessions := []SessionInfo{}
	for _, sess := range s.registry.List() {
		sessions = append(sessions, SessionInfo{
			ID:             sess.ID,
			Language:       sess.Language,
			QuestionsCount: sess.QuestionsCount,
			Errors:         sess.Errors,
			StartedAt:      sess.StartTime.UTC().Format(time.RFC3339),
			UpdatedAt:      sess.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}

	writeJSON(w, SessionsResponse{Sessions: sessions})
}

// modelsHandler lists the failover chain with health
func (s *Server) modelsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	modelHealth := s.orch.ModelHealth()
	list := []ModelInfo{}
	for _, key := range s.orch.Models() {
		info := ModelInfo{Key: key, Healthy: true}
		if err := modelHealth[key]; err != nil {
			info.Healthy = false
			info.Error = err.Error()
		}
		list = append(list, info)
	}

	writeJSON(w, list)
}

// cacheStatsHandler exposes cache statistics
func (s *Server) cacheStatsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, s.orch.CacheStats())
}

// insightsHandler returns aggregated usage insights
func (s *Server) insightsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "days must be a positive integer", http.StatusBadRequest)
			return
		}
		days = n
	}

	report, err := s.orch.InsightsReport(days)
	if err != nil {
		s.logger.Error("Insights query failed", "error", err)
		http.Error(w, "Insights unavailable", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, report)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}
