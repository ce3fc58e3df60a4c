// Package metrics provides Prometheus metrics for the scopefs server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scopefs_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scopefs_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// File streaming metrics
	fileBytesStreamed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scopefs_file_bytes_streamed_total",
			Help: "Total bytes streamed to clients from file responses",
		},
	)

	fileStreamsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scopefs_file_streams_total",
			Help: "Total number of file responses by outcome",
		},
		[]string{"status"},
	)

	// Upload metrics
	uploadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scopefs_upload_bytes_total",
			Help: "Total bytes ingested by uploads",
		},
	)

	uploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scopefs_uploads_total",
			Help: "Total number of uploads by outcome",
		},
		[]string{"status"},
	)

	// Directory index metrics
	indexBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scopefs_index_build_duration_seconds",
			Help:    "Time to enumerate, sort and serialize a directory index",
			Buckets: prometheus.DefBuckets,
		},
	)

	indexEntries = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scopefs_index_entries",
			Help:    "Number of entries per directory index",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	// Auth metrics
	authAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scopefs_auth_attempts_total",
			Help: "Total basic auth attempts",
		},
		[]string{"result"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records an HTTP request metric. route should be the
// router pattern, not the raw path, to keep label cardinality bounded.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordFileStream records a finished file response.
func RecordFileStream(bytes int64, success bool) {
	fileBytesStreamed.Add(float64(bytes))
	fileStreamsTotal.WithLabelValues(outcome(success)).Inc()
}

// RecordUpload records an upload.
func RecordUpload(bytes int64, success bool) {
	uploadBytesTotal.Add(float64(bytes))
	uploadsTotal.WithLabelValues(outcome(success)).Inc()
}

// RecordIndex records how long a directory index took and how big it was.
func RecordIndex(duration time.Duration, entries int) {
	indexBuildDuration.Observe(duration.Seconds())
	indexEntries.Observe(float64(entries))
}

// RecordAuthAttempt records an authentication attempt.
func RecordAuthAttempt(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	authAttemptsTotal.WithLabelValues(result).Inc()
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
