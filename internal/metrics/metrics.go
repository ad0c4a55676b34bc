// Package metrics declares the Prometheus collectors of the agenda service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Agenda generation
	AgendaGenerations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agenda_generations_total",
			Help: "Total number of agenda generations by outcome",
		},
		[]string{"outcome"}, // "ok", "cached", "error"
	)

	AgendaGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "agenda_generation_duration_seconds",
			Help:    "Time spent ranking and packing an agenda",
			Buckets: prometheus.DefBuckets,
		},
	)

	AgendaSessionsScheduled = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "agenda_sessions_scheduled",
			Help:    "Number of sessions placed in a generated agenda",
			Buckets: []float64{0, 1, 2, 4, 8, 16, 32, 64},
		},
	)

	// Result cache
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "result_cache_hits_total",
			Help: "Total number of result cache hits",
		},
		[]string{"namespace"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "result_cache_misses_total",
			Help: "Total number of result cache misses",
		},
		[]string{"namespace"},
	)

	// Relevance provider
	RelevanceRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relevance_requests_total",
			Help: "Total number of relevance provider requests by outcome",
		},
		[]string{"provider", "outcome"},
	)

	RelevanceBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "relevance_breaker_state",
			Help: "Circuit breaker state of the relevance provider (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// HTTP
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// ObserveAgenda records one agenda generation.
func ObserveAgenda(outcome string, elapsed time.Duration, scheduled int) {
	AgendaGenerations.WithLabelValues(outcome).Inc()
	if outcome == "error" || outcome == "cached" {
		return
	}
	AgendaGenerationDuration.Observe(elapsed.Seconds())
	AgendaSessionsScheduled.Observe(float64(scheduled))
}

// ObserveCache records a cache lookup for the namespace.
func ObserveCache(namespace string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(namespace).Inc()
		return
	}
	CacheMisses.WithLabelValues(namespace).Inc()
}

// ObserveRelevance records a relevance provider call.
func ObserveRelevance(provider string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	RelevanceRequests.WithLabelValues(provider, outcome).Inc()
}

// ObserveHTTP records a served request.
func ObserveHTTP(method, route, status string, elapsed time.Duration) {
	HTTPRequests.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
