// Package metrics defines the Prometheus collectors used by the corpus
// services and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the platform.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestsInFlight prometheus.Gauge
	HTTPRequestDuration  *prometheus.HistogramVec

	CommentsIngestedTotal *prometheus.CounterVec
	GramsMergedTotal      *prometheus.CounterVec
	GramFailuresTotal     *prometheus.CounterVec
	IngestDuration        prometheus.Histogram
	DictionaryTermsTotal  *prometheus.CounterVec
	DictionaryCacheTotal  *prometheus.CounterVec

	QueriesTotal        *prometheus.CounterVec
	QueryLatency        *prometheus.HistogramVec
	ResultCacheTotal    *prometheus.CounterVec
	RemainderComments   prometheus.Histogram
	CircuitBreakerState *prometheus.GaugeVec

	CrawlCommentsTotal *prometheus.CounterVec
	CrawlRunsTotal     *prometheus.CounterVec
	QueueDepth         prometheus.Gauge
}

// New creates all collectors and registers them on reg. Passing
// prometheus.DefaultRegisterer exposes them on Handler.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		CommentsIngestedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corpus_comments_ingested_total",
				Help: "Comments processed by the ingestion pipeline by outcome (inserted, duplicate, error).",
			},
			[]string{"outcome"},
		),
		GramsMergedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corpus_grams_merged_total",
				Help: "Grams merged into daily aggregates by variant and length.",
			},
			[]string{"variant", "length"},
		),
		GramFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corpus_gram_failures_total",
				Help: "Grams whose dictionary or aggregate step failed, by stage.",
			},
			[]string{"stage"},
		),
		IngestDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "corpus_ingest_duration_seconds",
				Help:    "Time to persist and aggregate one comment.",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
		),
		DictionaryTermsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corpus_dictionary_terms_created_total",
				Help: "New dictionary entries by variant and length.",
			},
			[]string{"variant", "length"},
		),
		DictionaryCacheTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corpus_dictionary_cache_total",
				Help: "Dictionary LRU lookups by result (hit, miss).",
			},
			[]string{"result"},
		),
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corpus_queries_total",
				Help: "Queries by kind (vector, map) and outcome (ok, invalid, empty, error).",
			},
			[]string{"kind", "outcome"},
		),
		QueryLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "corpus_query_latency_seconds",
				Help:    "Query latency in seconds by kind and cache status.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5},
			},
			[]string{"kind", "cache_status"},
		),
		ResultCacheTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corpus_result_cache_total",
				Help: "Result cache lookups by kind and result (hit, miss, error).",
			},
			[]string{"kind", "result"},
		),
		RemainderComments: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "corpus_remainder_comments",
				Help:    "Raw comments rescanned for partial-day remainders per query.",
				Buckets: []float64{0, 10, 100, 1000, 10000, 100000},
			},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
		CrawlCommentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corpus_crawl_comments_total",
				Help: "Comments fetched and submitted by the crawler, by source.",
			},
			[]string{"source"},
		),
		CrawlRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corpus_crawl_runs_total",
				Help: "Crawl cycles by source and status (ok, error).",
			},
			[]string{"source", "status"},
		),
		QueueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "corpus_queue_depth",
				Help: "Comments waiting in the in-process ingestion queue.",
			},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestsInFlight,
		m.HTTPRequestDuration,
		m.CommentsIngestedTotal,
		m.GramsMergedTotal,
		m.GramFailuresTotal,
		m.IngestDuration,
		m.DictionaryTermsTotal,
		m.DictionaryCacheTotal,
		m.QueriesTotal,
		m.QueryLatency,
		m.ResultCacheTotal,
		m.RemainderComments,
		m.CircuitBreakerState,
		m.CrawlCommentsTotal,
		m.CrawlRunsTotal,
		m.QueueDepth,
	)

	return m
}

// NewNop returns collectors registered on a throwaway registry, for tests and
// tools that do not export metrics.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
