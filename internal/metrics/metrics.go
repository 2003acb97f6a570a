package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueryCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kiosk_gateway_queries_total",
			Help: "Total number of processed queries",
		},
		[]string{"outcome"},
	)

	QueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "kiosk_gateway_query_duration_seconds",
			Help: "End-to-end query processing duration in seconds",
		},
	)

	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kiosk_gateway_cache_hits_total",
			Help: "Total number of response cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kiosk_gateway_cache_misses_total",
			Help: "Total number of response cache misses",
		},
	)

	ModelLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "kiosk_gateway_model_latency_seconds",
			Help: "Model invocation latency in seconds",
		},
		[]string{"model"},
	)

	FailoverCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kiosk_gateway_failovers_total",
			Help: "Total number of failed model attempts that triggered failover",
		},
		[]string{"model"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kiosk_gateway_active_sessions",
			Help: "Number of active kiosk sessions",
		},
	)
)
