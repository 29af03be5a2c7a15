// Package metrics defines the Prometheus metric collectors used by the
// anagram service and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	AnagramQueriesTotal  *prometheus.CounterVec
	AnagramLatency       *prometheus.HistogramVec
	AnagramResultsCount  prometheus.Histogram
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	DictionaryWords      prometheus.Gauge
	DictionarySignatures prometheus.Gauge
	CircuitBreakerState  *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg. A nil reg uses
// the default registerer.
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
		AnagramQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "anagram_queries_total",
				Help: "Total anagram queries by result type (found, none, truncated, error).",
			},
			[]string{"result_type"},
		),
		AnagramLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "anagram_search_latency_seconds",
				Help:    "Anagram search latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"cache_status"},
		),
		AnagramResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "anagram_results_count",
				Help:    "Number of sentences found per anagram query.",
				Buckets: []float64{0, 1, 10, 100, 1000, 10000, 100000},
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of result cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of result cache misses.",
			},
		),
		DictionaryWords: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "dictionary_words",
				Help: "Number of words in the loaded dictionary.",
			},
		),
		DictionarySignatures: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "dictionary_signatures",
				Help: "Number of distinct letter signatures in the dictionary index.",
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
		m.AnagramQueriesTotal,
		m.AnagramLatency,
		m.AnagramResultsCount,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.DictionaryWords,
		m.DictionarySignatures,
		m.CircuitBreakerState,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
