// Package metrics defines the Prometheus metric collectors used by the QA
// service and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Ask outcomes used as the "outcome" label of AskRequestsTotal.
const (
	OutcomeAnswered  = "answered"
	OutcomeCanonical = "canonical"
	OutcomeNoAnswer  = "no_answer"
	OutcomeCacheHit  = "cache_hit"
	OutcomeCancelled = "cancelled"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestsInFlight  prometheus.Gauge
	AskRequestsTotal      *prometheus.CounterVec
	AskLatency            prometheus.Histogram
	AskCandidatesReturned prometheus.Histogram
	CacheHitsTotal        prometheus.Counter
	CacheMissesTotal      prometheus.Counter
	RateLimitRejections   prometheus.Counter
	IndexedSnippets       prometheus.Gauge
	CircuitBreakerState   *prometheus.GaugeVec
}

// New creates the collectors and registers them with the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates the collectors and registers them with reg.
// Tests pass a fresh prometheus.NewRegistry() to avoid duplicate
// registration panics.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
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
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		AskRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ask_requests_total",
				Help: "Total /ask requests by outcome (answered, canonical, no_answer, cache_hit, cancelled).",
			},
			[]string{"outcome"},
		),
		AskLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ask_latency_seconds",
				Help:    "Time spent answering a question in seconds.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
			},
		),
		AskCandidatesReturned: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ask_candidates_returned",
				Help:    "Number of candidate snippets returned per question.",
				Buckets: []float64{0, 1, 3, 5, 10, 25, 50},
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "answer_cache_hits_total",
				Help: "Total number of answer cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "answer_cache_misses_total",
				Help: "Total number of answer cache misses.",
			},
		),
		RateLimitRejections: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ratelimit_rejections_total",
				Help: "Total requests rejected by the rate limiter.",
			},
		),
		IndexedSnippets: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "indexed_snippets",
				Help: "Number of snippets in the loaded index.",
			},
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
		m.AskRequestsTotal,
		m.AskLatency,
		m.AskCandidatesReturned,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.RateLimitRejections,
		m.IndexedSnippets,
		m.CircuitBreakerState,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
