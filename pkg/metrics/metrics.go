// Package metrics defines the Prometheus collectors used by the resolver
// binaries and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the resolver.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	ResolveRequestsTotal *prometheus.CounterVec
	ResolveLatency       *prometheus.HistogramVec
	CandidatesReturned   prometheus.Histogram
	SearchFallbacksTotal prometheus.Counter
	AlignmentsTotal      *prometheus.CounterVec
	AlignmentLatency     *prometheus.HistogramVec
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	JobsProcessedTotal   *prometheus.CounterVec
	CircuitBreakerState  *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg. A nil reg means
// the process-wide default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		ResolveRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resolve_requests_total",
				Help: "Repeat resolution requests by outcome (resolved, unresolved, invalid, error).",
			},
			[]string{"outcome"},
		),
		ResolveLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "resolve_latency_seconds",
				Help:    "Repeat resolution latency in seconds by search strategy.",
				Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 120},
			},
			[]string{"strategy"},
		),
		CandidatesReturned: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "resolve_candidates_returned",
				Help:    "Number of candidate paths returned per resolution.",
				Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
			},
		),
		SearchFallbacksTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "path_search_fallbacks_total",
				Help: "Times exhaustive enumeration gave up and progressive search ran instead.",
			},
		),
		AlignmentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alignments_total",
				Help: "Alignment oracle calls by mode (global, path) and outcome (ok, failed).",
			},
			[]string{"mode", "outcome"},
		),
		AlignmentLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "alignment_latency_seconds",
				Help:    "Alignment oracle latency in seconds.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"mode"},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "alignment_cache_hits_total",
				Help: "Total number of alignment cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "alignment_cache_misses_total",
				Help: "Total number of alignment cache misses.",
			},
		),
		JobsProcessedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resolve_jobs_processed_total",
				Help: "Queued resolution jobs by status (ok, failed, poison, publish_failed).",
			},
			[]string{"status"},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.ResolveRequestsTotal,
		m.ResolveLatency,
		m.CandidatesReturned,
		m.SearchFallbacksTotal,
		m.AlignmentsTotal,
		m.AlignmentLatency,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.JobsProcessedTotal,
		m.CircuitBreakerState,
	)

	return m
}

// NewUnregistered builds the collectors against a private registry. Tests
// and the CLI use it so repeated construction never collides.
func NewUnregistered() *Metrics {
	return New(prometheus.NewRegistry())
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
