package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"
)

// ExternalAPIMetrics contains all metrics for external API monitoring
type ExternalAPIMetrics struct {
	apiDuration         *prometheus.HistogramVec
	apiCalls            *prometheus.CounterVec
	circuitBreakerState *prometheus.GaugeVec
	timeouts            *prometheus.CounterVec
}

func NewExternalAPIMetrics() *ExternalAPIMetrics {
	return &ExternalAPIMetrics{
		apiDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "purchase_backend_external_api_duration_seconds",
				Help:    "Duration of external API calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"api_name", "endpoint", "status"},
		),
		apiCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "purchase_backend_external_api_calls_total",
				Help: "Total number of external API calls",
			},
			[]string{"api_name", "status"},
		),
		circuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "purchase_backend_circuit_breaker_state",
				Help: "Current state of circuit breakers (0=closed, 1=half-open, 2=open)",
			},
			[]string{"api_name"},
		),
		timeouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "purchase_backend_external_api_timeouts_total",
				Help: "Total number of external API timeouts",
			},
			[]string{"api_name", "endpoint"},
		),
	}
}

func (m *ExternalAPIMetrics) MustRegister(registry prometheus.Registerer) {
	registry.MustRegister(
		m.apiDuration,
		m.apiCalls,
		m.circuitBreakerState,
		m.timeouts,
	)
}

func (m *ExternalAPIMetrics) RecordAPICall(apiName, endpoint, status string, duration float64) {
	m.apiDuration.WithLabelValues(apiName, endpoint, status).Observe(duration)
	m.apiCalls.WithLabelValues(apiName, status).Inc()
}

func (m *ExternalAPIMetrics) UpdateCircuitBreakerState(apiName string, state gobreaker.State) {
	m.circuitBreakerState.WithLabelValues(apiName).Set(float64(state))
}

func (m *ExternalAPIMetrics) RecordTimeout(apiName, endpoint string) {
	m.timeouts.WithLabelValues(apiName, endpoint).Inc()
}

// PurchaseMetrics tracks the purchase flow itself.
type PurchaseMetrics struct {
	started        prometheus.Counter
	transitions    *prometheus.CounterVec
	failures       *prometheus.CounterVec
	completed      prometheus.Counter
	activeMonitors prometheus.Gauge
	duration       *prometheus.HistogramVec
}

func NewPurchaseMetrics() *PurchaseMetrics {
	return &PurchaseMetrics{
		started: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "purchase_backend_purchases_started_total",
			Help: "Total number of purchase flows started",
		}),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "purchase_backend_purchase_transitions_total",
				Help: "Purchase step transitions",
			},
			[]string{"from", "to"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "purchase_backend_purchase_failures_total",
				Help: "Purchase failures by kind and stage",
			},
			[]string{"kind", "stage"},
		),
		completed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "purchase_backend_purchases_completed_total",
			Help: "Total number of purchases that received STRK",
		}),
		activeMonitors: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "purchase_backend_swap_monitors_active",
			Help: "Swaps currently watched in the background",
		}),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "purchase_backend_purchase_duration_seconds",
				Help:    "Time from start to a final or error step",
				Buckets: []float64{10, 30, 60, 300, 600, 1800, 3600, 7200, 14400},
			},
			[]string{"outcome"},
		),
	}
}

func (m *PurchaseMetrics) MustRegister(registry prometheus.Registerer) {
	registry.MustRegister(
		m.started,
		m.transitions,
		m.failures,
		m.completed,
		m.activeMonitors,
		m.duration,
	)
}

func (m *PurchaseMetrics) RecordStarted() {
	m.started.Inc()
}

func (m *PurchaseMetrics) RecordTransition(from, to string) {
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *PurchaseMetrics) RecordFailure(kind, stage string, elapsedSeconds float64) {
	if stage == "" {
		stage = "none"
	}
	m.failures.WithLabelValues(kind, stage).Inc()
	m.duration.WithLabelValues("error").Observe(elapsedSeconds)
}

func (m *PurchaseMetrics) RecordCompleted(elapsedSeconds float64) {
	m.completed.Inc()
	m.duration.WithLabelValues("complete").Observe(elapsedSeconds)
}

func (m *PurchaseMetrics) MonitorStarted() {
	m.activeMonitors.Inc()
}

func (m *PurchaseMetrics) MonitorStopped() {
	m.activeMonitors.Dec()
}
