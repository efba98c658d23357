// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datacol_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "datacol_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "path"},
	)

	// Ingestion metrics
	UpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datacol_updates_total",
			Help: "Upstream updates by ingestion outcome",
		},
		[]string{"outcome", "reason"},
	)

	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datacol_commands_total",
			Help: "Chat commands handled",
		},
		[]string{"command"},
	)

	BatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datacol_batches_total",
			Help: "Delivery batches processed",
		},
		[]string{"mode"},
	)

	BatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "datacol_batch_duration_seconds",
			Help:    "Time to process one delivery batch",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"mode"},
	)

	CursorPosition = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "datacol_cursor_position",
			Help: "Last persisted delivery cursor",
		},
	)

	CursorStoreErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "datacol_cursor_store_errors_total",
			Help: "Failed cursor writes",
		},
	)

	// Export metrics
	SyncRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datacol_sync_runs_total",
			Help: "Backup export runs by result",
		},
		[]string{"result"},
	)
)
