package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outbound call targets.
const (
	TargetTokenEndpoint = "token_endpoint"
	TargetResource      = "resource"
)

// Outcomes shared by callbacks and outbound calls.
const (
	OutcomeSuccess           = "success"
	OutcomeProviderError     = "provider_error"
	OutcomeStateMismatch     = "state_mismatch"
	OutcomeTransportError    = "transport_error"
	OutcomeProtocolViolation = "protocol_violation"
	OutcomeHTTPError         = "http_error"
	OutcomeInternalError     = "internal_error"
)

// Metrics holds all Prometheus metrics for the test client. Each instance owns its
// registry so tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	Callbacks        *prometheus.CounterVec
	OutboundRequests *prometheus.CounterVec
	OutboundDuration *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Callbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "oauth2_test_client_callbacks_total",
			Help: "Authorization callbacks handled, by terminal outcome",
		}, []string{"outcome"}),
		OutboundRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "oauth2_test_client_outbound_requests_total",
			Help: "Requests made to the authorization server and protected resource",
		}, []string{"target", "outcome"}),
		OutboundDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "oauth2_test_client_outbound_request_duration_seconds",
			Help:    "Latency of outbound requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"target"}),
	}
}

// ObserveCallback counts a finished callback. Safe on a nil receiver.
func (m *Metrics) ObserveCallback(outcome string) {
	if m == nil {
		return
	}
	m.Callbacks.WithLabelValues(outcome).Inc()
}

// ObserveOutbound records one outbound request. Safe on a nil receiver.
func (m *Metrics) ObserveOutbound(target, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.OutboundRequests.WithLabelValues(target, outcome).Inc()
	m.OutboundDuration.WithLabelValues(target).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
