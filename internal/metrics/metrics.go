package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ── HTTP request metrics (RED method) ──────────────────────────────────

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chain_watchdog",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status_code"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "chain_watchdog",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})

	HTTPRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "chain_watchdog",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being processed.",
	})
)

// ── Evaluation loop metrics ────────────────────────────────────────────

var (
	TickTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chain_watchdog",
		Subsystem: "tick",
		Name:      "total",
		Help:      "Total number of evaluation ticks by outcome.",
	}, []string{"status"})

	TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "chain_watchdog",
		Subsystem: "tick",
		Name:      "duration_seconds",
		Help:      "Duration of one evaluation tick in seconds.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})

	TickLastSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "chain_watchdog",
		Subsystem: "tick",
		Name:      "last_success_timestamp",
		Help:      "Unix timestamp of the last successful evaluation tick.",
	})

	WatchdogRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "chain_watchdog",
		Subsystem: "loop",
		Name:      "running",
		Help:      "Whether the evaluation loop is running (1) or stopped (0).",
	})
)

// ── Alert metrics ──────────────────────────────────────────────────────

var (
	AlertsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chain_watchdog",
		Subsystem: "alerts",
		Name:      "created_total",
		Help:      "Total alerts created by type and severity.",
	}, []string{"type", "severity"})

	AlertsAcknowledgedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "chain_watchdog",
		Subsystem: "alerts",
		Name:      "acknowledged_total",
		Help:      "Total alerts acknowledged through the API.",
	})

	LedgerSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "chain_watchdog",
		Subsystem: "alerts",
		Name:      "ledger_size",
		Help:      "Number of alerts currently held in the ledger.",
	})
)

// ── Node and subscriber metrics ────────────────────────────────────────

var (
	NodeMetricValue = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "chain_watchdog",
		Subsystem: "node",
		Name:      "metric_value",
		Help:      "Latest observed value of a tracked node metric.",
	}, []string{"metric_name"})

	WebsocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "chain_watchdog",
		Subsystem: "push",
		Name:      "websocket_clients",
		Help:      "Number of connected WebSocket subscribers.",
	})

	WebhookDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chain_watchdog",
		Subsystem: "push",
		Name:      "webhook_deliveries_total",
		Help:      "Total webhook alert deliveries by outcome.",
	}, []string{"status"})
)
