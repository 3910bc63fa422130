package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RecordSignal(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)

	m.RecordSignal("long")
	m.RecordSignal("long")
	m.RecordSignal("short")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SignalsEmitted.WithLabelValues("long")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SignalsEmitted.WithLabelValues("short")))
}

func TestMetrics_RecordRiskCheck(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)

	m.RecordRiskCheck(9500, 0.1, false)
	m.RecordRiskCheck(6000, 0.4, true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RiskChecks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RiskTriggered))
	assert.Equal(t, 6000.0, testutil.ToFloat64(m.FollowerEquity))
	assert.Equal(t, 0.4, testutil.ToFloat64(m.FollowerDrawdown))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordSignal("long")
		m.RecordTradeEvent("ignored")
		m.RecordBacktest("ok", 3, 0.2)
		m.RecordFills(1, map[string]int{"unknown_side": 1})
	})
}

func TestHandler_ServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)
	m.RecordSignalExecuted()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "test_signal_signals_executed_total 1"))
}
