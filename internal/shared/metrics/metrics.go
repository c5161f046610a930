package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Payment metrics
	PaymentInitiationsTotal   *prometheus.CounterVec
	PaymentVerificationsTotal *prometheus.CounterVec
	PaymentTransitionsTotal   *prometheus.CounterVec

	// Gateway metrics
	GatewayRequestDuration *prometheus.HistogramVec
	GatewayErrorsTotal     *prometheus.CounterVec
	GatewayBreakerState    *prometheus.GaugeVec

	// Notification metrics
	NotificationsTotal *prometheus.CounterVec
}

// New creates a Metrics instance registered on reg.
// A nil reg registers on the default Prometheus registry.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "alxtravel"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),

		PaymentInitiationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "payment",
				Name:      "initiations_total",
				Help:      "Payment initiations by result",
			},
			[]string{"result"}, // created, resumed, conflict, invalid, gateway_error, error
		),
		PaymentVerificationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "payment",
				Name:      "verifications_total",
				Help:      "Payment verifications by gateway outcome",
			},
			[]string{"outcome"}, // succeeded, failed, unknown, settled, gateway_error
		),
		PaymentTransitionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "payment",
				Name:      "transitions_total",
				Help:      "Applied payment status transitions",
			},
			[]string{"from", "to"},
		),

		GatewayRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "gateway",
				Name:      "request_duration_seconds",
				Help:      "Payment gateway call duration in seconds",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"provider", "op"},
		),
		GatewayErrorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "gateway",
				Name:      "errors_total",
				Help:      "Payment gateway errors by reason",
			},
			[]string{"provider", "op", "reason"},
		),
		GatewayBreakerState: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "gateway",
				Name:      "breaker_state",
				Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"provider"},
		),

		NotificationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "notification",
				Name:      "total",
				Help:      "Payment notifications by result",
			},
			[]string{"result"}, // enqueued, enqueue_error, sent, send_error, dropped
		),
	}
}

// --- Convenience methods ---

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusCodeToString(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordInitiation records the result of a payment initiation.
func (m *Metrics) RecordInitiation(result string) {
	m.PaymentInitiationsTotal.WithLabelValues(result).Inc()
}

// RecordVerification records a verification outcome.
func (m *Metrics) RecordVerification(outcome string) {
	m.PaymentVerificationsTotal.WithLabelValues(outcome).Inc()
}

// RecordTransition records an applied status transition.
func (m *Metrics) RecordTransition(from, to string) {
	m.PaymentTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordGatewayCall records a gateway call and, when reason is non-empty, its failure.
func (m *Metrics) RecordGatewayCall(provider, op, reason string, duration time.Duration) {
	m.GatewayRequestDuration.WithLabelValues(provider, op).Observe(duration.Seconds())
	if reason != "" {
		m.GatewayErrorsTotal.WithLabelValues(provider, op, reason).Inc()
	}
}

// SetBreakerState records the circuit breaker state for a provider.
func (m *Metrics) SetBreakerState(provider string, state int) {
	m.GatewayBreakerState.WithLabelValues(provider).Set(float64(state))
}

// RecordNotification records a notification lifecycle event.
func (m *Metrics) RecordNotification(result string) {
	m.NotificationsTotal.WithLabelValues(result).Inc()
}

// statusCodeToString converts an HTTP status code to a string category.
func statusCodeToString(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
