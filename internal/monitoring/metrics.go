package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Tool metrics
	ToolExecutions *prometheus.CounterVec

	// Download metrics
	DownloadsTotal *prometheus.CounterVec
	DownloadBytes  prometheus.Histogram

	// Staging metrics
	StagingTotal    *prometheus.CounterVec
	SecretsDetected prometheus.Counter

	// Sandbox metrics
	LockAttempts *prometheus.CounterVec
	RootsReaped  prometheus.Counter
}

// NewMetrics creates a new metrics collector registered on reg. A nil reg
// selects the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zipline_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "zipline_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		ToolExecutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zipline_tool_executions_total",
				Help: "Total number of tool executions",
			},
			[]string{"tool", "outcome"},
		),
		DownloadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zipline_downloads_total",
				Help: "Total number of URL downloads",
			},
			[]string{"outcome"},
		),
		DownloadBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "zipline_download_bytes",
				Help:    "Bytes written per completed download",
				Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
			},
		),
		StagingTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zipline_staging_total",
				Help: "Total number of staging operations",
			},
			[]string{"variant"},
		),
		SecretsDetected: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "zipline_secrets_detected_total",
				Help: "Staging refusals due to detected secrets",
			},
		),
		LockAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zipline_sandbox_lock_attempts_total",
				Help: "Sandbox lock attempts by outcome",
			},
			[]string{"outcome"},
		),
		RootsReaped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "zipline_sandbox_roots_reaped_total",
				Help: "Sandbox roots removed by the reaper",
			},
		),
	}
}

// RecordHTTPRequest records one served request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordDownload records a download outcome.
func (m *Metrics) RecordDownload(outcome string, bytes int64) {
	m.DownloadsTotal.WithLabelValues(outcome).Inc()
	if outcome == "success" {
		m.DownloadBytes.Observe(float64(bytes))
	}
}

// RecordStaging records a staging outcome by variant.
func (m *Metrics) RecordStaging(variant string) {
	m.StagingTotal.WithLabelValues(variant).Inc()
}
