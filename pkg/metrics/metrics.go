// Package metrics defines the Prometheus collectors for index builds,
// searches, the query cache, filtering and benchmark runs, and exposes an
// HTTP handler for scraping.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors. A nil *Metrics is valid and
// records nothing, so library callers that do not scrape pay nothing.
type Metrics struct {
	SearchQueriesTotal     *prometheus.CounterVec
	SearchLatency          *prometheus.HistogramVec
	SearchResultsCount     prometheus.Histogram
	CacheHitsTotal         prometheus.Counter
	CacheMissesTotal       prometheus.Counter
	CacheEvictionsTotal    *prometheus.CounterVec
	CacheEntries           prometheus.Gauge
	IndexBuildDuration     prometheus.Histogram
	IndexedRecords         prometheus.Gauge
	IndexTokens            prometheus.Gauge
	FilterEvaluationsTotal *prometheus.CounterVec
	BenchmarkThroughput    *prometheus.GaugeVec
	BenchmarkMeanLatency   *prometheus.GaugeVec
	ReportPublishTotal     *prometheus.CounterVec
	HTTPRequestsTotal      *prometheus.CounterVec
	HTTPRequestDuration    *prometheus.HistogramVec
	HTTPRequestsInFlight   prometheus.Gauge
}

// New creates all collectors and registers them with reg. Passing nil uses
// the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "search_queries_total",
				Help: "Total search queries by result type (hit, miss, zero_result, empty, stale).",
			},
			[]string{"result_type"},
		),
		SearchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "search_latency_seconds",
				Help:    "Search latency in seconds.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"cache_status"},
		),
		SearchResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "search_results_count",
				Help:    "Number of results returned per search.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 500},
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "query_cache_hits_total",
				Help: "Total number of query cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "query_cache_misses_total",
				Help: "Total number of query cache misses.",
			},
		),
		CacheEvictionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "query_cache_evictions_total",
				Help: "Query cache evictions by reason (ttl, capacity, prune).",
			},
			[]string{"reason"},
		),
		CacheEntries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "query_cache_entries",
				Help: "Current number of query cache entries.",
			},
		),
		IndexBuildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "index_build_duration_seconds",
				Help:    "Time spent building the search index.",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
			},
		),
		IndexedRecords: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "index_records",
				Help: "Number of records covered by the current index.",
			},
		),
		IndexTokens: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "index_tokens",
				Help: "Number of distinct (field, token) keys in the current index.",
			},
		),
		FilterEvaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "filter_evaluations_total",
				Help: "Filter runs by mode (sequential, chunked).",
			},
			[]string{"mode"},
		),
		BenchmarkThroughput: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "benchmark_throughput",
				Help: "Searches per second measured by the last benchmark run.",
			},
			[]string{"test"},
		),
		BenchmarkMeanLatency: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "benchmark_mean_latency_ms",
				Help: "Mean search latency in milliseconds measured by the last benchmark run.",
			},
			[]string{"test"},
		),
		ReportPublishTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "report_publish_total",
				Help: "Benchmark report publish attempts by sink and outcome.",
			},
			[]string{"sink", "outcome"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "HTTP requests served by route, method and status.",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency by route and method.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "HTTP requests currently being served.",
			},
		),
	}

	reg.MustRegister(
		m.SearchQueriesTotal,
		m.SearchLatency,
		m.SearchResultsCount,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.CacheEvictionsTotal,
		m.CacheEntries,
		m.IndexBuildDuration,
		m.IndexedRecords,
		m.IndexTokens,
		m.FilterEvaluationsTotal,
		m.BenchmarkThroughput,
		m.BenchmarkMeanLatency,
		m.ReportPublishTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
	)

	return m
}

// ObserveSearch records one search outcome.
func (m *Metrics) ObserveSearch(resultType string, cacheHit bool, d time.Duration, results int) {
	if m == nil {
		return
	}
	status := "miss"
	if cacheHit {
		status = "hit"
	}
	m.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	m.SearchLatency.WithLabelValues(status).Observe(d.Seconds())
	m.SearchResultsCount.Observe(float64(results))
}

func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.CacheHitsTotal.Inc()
}

func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.CacheMissesTotal.Inc()
}

func (m *Metrics) CacheEvicted(reason string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.CacheEvictionsTotal.WithLabelValues(reason).Add(float64(n))
}

func (m *Metrics) CacheSize(n int) {
	if m == nil {
		return
	}
	m.CacheEntries.Set(float64(n))
}

// ObserveIndexBuild records a completed index build.
func (m *Metrics) ObserveIndexBuild(d time.Duration, records, tokens int) {
	if m == nil {
		return
	}
	m.IndexBuildDuration.Observe(d.Seconds())
	m.IndexedRecords.Set(float64(records))
	m.IndexTokens.Set(float64(tokens))
}

func (m *Metrics) FilterRun(mode string) {
	if m == nil {
		return
	}
	m.FilterEvaluationsTotal.WithLabelValues(mode).Inc()
}

// ObserveBenchmark publishes the headline numbers of a benchmark result.
func (m *Metrics) ObserveBenchmark(test string, throughput, meanMs float64) {
	if m == nil {
		return
	}
	m.BenchmarkThroughput.WithLabelValues(test).Set(throughput)
	m.BenchmarkMeanLatency.WithLabelValues(test).Set(meanMs)
}

// ReportPublished counts one sink publish with outcome "ok", "error" or
// "skipped".
func (m *Metrics) ReportPublished(sink, outcome string) {
	if m == nil {
		return
	}
	m.ReportPublishTotal.WithLabelValues(sink, outcome).Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// InFlight adjusts the in-flight request gauge by delta.
func (m *Metrics) InFlight(delta float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsInFlight.Add(delta)
}

// Handler returns the scrape handler for the given gatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
