// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gourl/idforge/internal/idgen"
)

var (
	// HTTPRequestsTotal counts total HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures request latency in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// ActiveConnections tracks in-flight requests.
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_connections",
			Help: "Number of active connections",
		},
	)

	// IDsGeneratedTotal counts identifiers produced, by format.
	IDsGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ids_generated_total",
			Help: "Total number of identifiers generated",
		},
		[]string{"format"},
	)

	// BatchSize observes the number of identifiers per generation call.
	BatchSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "id_batch_size",
			Help:    "Identifiers produced per generation call",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
		},
		[]string{"format"},
	)

	// GenerationFailuresTotal counts failed generation calls.
	GenerationFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "id_generation_failures_total",
			Help: "Total number of failed identifier generation calls",
		},
		[]string{"format", "reason"},
	)

	// DBQueryDuration measures database query latency.
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	// RateLimitedTotal counts rate-limited requests.
	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rate_limited_total",
			Help: "Total number of rate-limited requests",
		},
	)

	// StatsCacheTotal counts statistics cache lookups by result (hit, miss, error).
	StatsCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stats_cache_requests_total",
			Help: "Total number of statistics cache lookups",
		},
		[]string{"result"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRequest records an HTTP request metric.
func RecordRequest(method, path string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordGenerated records one successful generation call of count identifiers.
func RecordGenerated(format string, count int) {
	IDsGeneratedTotal.WithLabelValues(format).Add(float64(count))
	BatchSize.WithLabelValues(format).Observe(float64(count))
}

// RecordGenerationFailure records a failed generation call.
func RecordGenerationFailure(format, reason string) {
	GenerationFailuresTotal.WithLabelValues(format, reason).Inc()
}

// RecordDBQuery records a database query duration.
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordRateLimited records a rate-limited request.
func RecordRateLimited() {
	RateLimitedTotal.Inc()
}

// RecordStatsCache records a statistics cache lookup result.
func RecordStatsCache(result string) {
	StatsCacheTotal.WithLabelValues(result).Inc()
}

// Recorder adapts the package-level collectors to idgen.Recorder.
type Recorder struct{}

// RecordGenerated implements idgen.Recorder.
func (Recorder) RecordGenerated(format idgen.Format, count int) {
	RecordGenerated(string(format), count)
}

var _ idgen.Recorder = Recorder{}
