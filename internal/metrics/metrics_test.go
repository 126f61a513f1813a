package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jrsteele09/oauth2-test-client/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Observe(t *testing.T) {
	m := metrics.New()

	m.ObserveCallback(metrics.OutcomeSuccess)
	m.ObserveCallback(metrics.OutcomeSuccess)
	m.ObserveOutbound(metrics.TargetTokenEndpoint, metrics.OutcomeSuccess, 10*time.Millisecond)

	require.Equal(t, 2.0, testutil.ToFloat64(m.Callbacks.WithLabelValues(metrics.OutcomeSuccess)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.OutboundRequests.WithLabelValues(metrics.TargetTokenEndpoint, metrics.OutcomeSuccess)))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *metrics.Metrics
	require.NotPanics(t, func() {
		m.ObserveCallback(metrics.OutcomeSuccess)
		m.ObserveOutbound(metrics.TargetResource, metrics.OutcomeSuccess, time.Second)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := metrics.New()
	m.ObserveCallback(metrics.OutcomeStateMismatch)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `oauth2_test_client_callbacks_total{outcome="state_mismatch"} 1`)
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	require.NotPanics(t, func() {
		metrics.New()
		metrics.New()
	})
}
