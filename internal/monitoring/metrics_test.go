package monitoring

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ObserveCall(t *testing.T) {
	m := NewMetrics()
	boom := errors.New("boom")

	assert.NoError(t, m.ObserveCall("SetJumpSpeed", nil))
	assert.ErrorIs(t, m.ObserveCall("SetJumpSpeed", boom), boom)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HardwareCalls.WithLabelValues("SetJumpSpeed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HardwareErrors.WithLabelValues("SetJumpSpeed")))
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics
	boom := errors.New("boom")
	assert.ErrorIs(t, m.ObserveCall("x", boom), boom)
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.ConnectAttempts.Inc()
	m.ListsExecuted.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "rtc6_connect_attempts_total 1")
	assert.Contains(t, rec.Body.String(), "rtc6_lists_executed_total 1")
}
