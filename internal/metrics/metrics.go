// Package metrics exposes Prometheus collectors for the acquisition pipeline.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	fetchAttemptsTotal         *prometheus.CounterVec
	fetchBytesTotal            prometheus.Counter
	blockWaitSeconds           prometheus.Histogram
	archivesTotal              *prometheus.CounterVec
	recordsTotal               *prometheus.CounterVec
	queryRequestsTotal         *prometheus.CounterVec
	sinkWritesTotal            *prometheus.CounterVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	rateLimitDelaysSeconds     *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		fetchAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tender_fetch_attempts_total",
				Help: "Archive download attempts, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		fetchBytesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "tender_fetch_bytes_total",
				Help: "Total archive bytes downloaded.",
			},
		)

		blockWaitSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tender_block_wait_seconds",
				Help:    "Time spent waiting out provider download blocks.",
				Buckets: []float64{1, 30, 60, 300, 610, 1200, 3600},
			},
		)

		archivesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tender_archives_total",
				Help: "Archives handled by the orchestrator, labeled by status.",
			},
			[]string{"status"},
		)

		recordsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tender_records_total",
				Help: "Parsed XML documents, labeled by document type.",
			},
			[]string{"type"},
		)

		queryRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tender_query_requests_total",
				Help: "Document service queries, labeled by status.",
			},
			[]string{"status"},
		)

		sinkWritesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tender_sink_writes_total",
				Help: "Record sink writes, labeled by sink and status.",
			},
			[]string{"sink", "status"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 30, 120},
			},
			[]string{"method", "route"},
		)

		rateLimitDelaysSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tender_rate_limit_delays_seconds",
				Help:    "Histogram of rate limit wait durations.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"host"},
		)
	})
}

// SanitizeHost extracts a lowercase hostname for use as a label.
// It returns "unknown" if the URL is invalid.
func SanitizeHost(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveFetchAttempt counts one download attempt by outcome.
func ObserveFetchAttempt(outcome string) {
	Init()
	fetchAttemptsTotal.WithLabelValues(outcome).Inc()
}

// ObserveFetchBytes adds downloaded bytes.
func ObserveFetchBytes(n int64) {
	Init()
	if n > 0 {
		fetchBytesTotal.Add(float64(n))
	}
}

// ObserveBlockWait records one block wait.
func ObserveBlockWait(d time.Duration) {
	Init()
	blockWaitSeconds.Observe(d.Seconds())
}

// ObserveArchive counts an archive by final status.
func ObserveArchive(status string) {
	Init()
	archivesTotal.WithLabelValues(status).Inc()
}

// ObserveRecord counts a parsed document by type.
func ObserveRecord(docType string) {
	Init()
	recordsTotal.WithLabelValues(docType).Inc()
}

// ObserveQuery counts a query service call.
func ObserveQuery(status string) {
	Init()
	queryRequestsTotal.WithLabelValues(status).Inc()
}

// ObserveSinkWrite counts a record sink write.
func ObserveSinkWrite(sink, status string) {
	Init()
	sinkWritesTotal.WithLabelValues(sink, status).Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(host string, duration time.Duration) {
	Init()
	rateLimitDelaysSeconds.WithLabelValues(host).Observe(duration.Seconds())
}
