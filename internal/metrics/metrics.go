package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRegistry holds all Prometheus metrics for FleetPulse
type MetricsRegistry struct {
	// HTTP Metrics
	HTTPRequestsTotal    prometheus.CounterVec
	HTTPRequestDuration  prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.GaugeVec

	// Sync Metrics
	SyncRunsTotal       prometheus.CounterVec
	SyncRunDuration     prometheus.Histogram
	SyncDriversUpserted prometheus.CounterVec

	// Alert Metrics
	AlertsDispatchedTotal prometheus.CounterVec
	AlertsSuppressedTotal prometheus.Counter
}

// NewMetricsRegistry initializes and returns a new MetricsRegistry with all metrics
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		HTTPRequestsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fleetpulse_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fleetpulse_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method"},
		),
		HTTPRequestsInFlight: *promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fleetpulse_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"endpoint"},
		),

		SyncRunsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fleetpulse_sync_runs_total",
				Help: "Reconciliation runs by final status",
			},
			[]string{"status", "trigger"},
		),
		SyncRunDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fleetpulse_sync_run_duration_seconds",
				Help:    "Reconciliation run wall time in seconds",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
		),
		SyncDriversUpserted: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fleetpulse_sync_drivers_upserted_total",
				Help: "Driver rows written by reconciliation, by kind (created/updated)",
			},
			[]string{"kind"},
		),

		AlertsDispatchedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fleetpulse_alerts_dispatched_total",
				Help: "Channel dispatch attempts by channel and result",
			},
			[]string{"channel", "result"},
		),
		AlertsSuppressedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "fleetpulse_alerts_suppressed_total",
				Help: "Automatic alerts suppressed by the cooldown window",
			},
		),
	}
}
