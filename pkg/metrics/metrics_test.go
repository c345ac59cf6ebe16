package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitMetrics_Idempotent(t *testing.T) {
	InitMetrics()
	first := BorrowingsCreatedTotal

	// 第二次调用不会重复注册（重复注册会panic）
	assert.NotPanics(t, InitMetrics)
	assert.Same(t, first, BorrowingsCreatedTotal)

	require.NotNil(t, HTTPRequestsTotal)
	require.NotNil(t, HTTPRequestDuration)
	require.NotNil(t, NotificationsTotal)
	require.NotNil(t, CircuitBreakerState)
}

func TestIncCounter(t *testing.T) {
	InitMetrics()

	before := testutil.ToFloat64(BorrowingsReturnedTotal)
	IncCounter(BorrowingsReturnedTotal)
	IncCounter(BorrowingsReturnedTotal)

	assert.Equal(t, before+2, testutil.ToFloat64(BorrowingsReturnedTotal))
}

func TestIncCounterVec(t *testing.T) {
	InitMetrics()

	unavailable := BorrowingsRejectedTotal.WithLabelValues("unavailable")
	before := testutil.ToFloat64(unavailable)

	IncCounterVec(BorrowingsRejectedTotal, "unavailable")
	IncCounterVec(BorrowingsRejectedTotal, "unpaid_fines")
	IncCounterVec(BorrowingsRejectedTotal, "unavailable")

	assert.Equal(t, before+2, testutil.ToFloat64(unavailable))
}

func TestSetGaugeVec(t *testing.T) {
	InitMetrics()

	SetGaugeVec(CircuitBreakerState, 0, "stripe")
	SetGaugeVec(CircuitBreakerState, 1, "telegram")

	assert.Equal(t, float64(0), testutil.ToFloat64(CircuitBreakerState.WithLabelValues("stripe")))
	assert.Equal(t, float64(1), testutil.ToFloat64(CircuitBreakerState.WithLabelValues("telegram")))
}

func TestSetGauge(t *testing.T) {
	InitMetrics()

	SetGauge(OverdueBorrowings, 7)
	assert.Equal(t, float64(7), testutil.ToFloat64(OverdueBorrowings))

	SetGauge(OverdueBorrowings, 0)
	assert.Equal(t, float64(0), testutil.ToFloat64(OverdueBorrowings))
}

func TestHTTPRequestDuration_Observe(t *testing.T) {
	InitMetrics()

	h, ok := HTTPRequestDuration.WithLabelValues("GET", "/api/v1/borrowings").(prometheus.Histogram)
	require.True(t, ok)
	h.Observe(0.02)
	h.Observe(0.3)

	var m dto.Metric
	require.NoError(t, h.Write(&m))
	assert.Equal(t, uint64(2), m.GetHistogram().GetSampleCount())
	assert.InDelta(t, 0.32, m.GetHistogram().GetSampleSum(), 1e-9)
}

func TestBotCommandsTotal(t *testing.T) {
	InitMetrics()

	before := testutil.ToFloat64(BotCommandsTotal.WithLabelValues("mybooks"))
	IncCounterVec(BotCommandsTotal, "mybooks")
	assert.Equal(t, before+1, testutil.ToFloat64(BotCommandsTotal.WithLabelValues("mybooks")))
}

// 未注册的指标（nil）不应导致panic
func TestHelpers_NilSafe(t *testing.T) {
	var counter prometheus.Counter
	var vec *prometheus.CounterVec
	var gauge prometheus.Gauge
	var gaugeVec *prometheus.GaugeVec

	assert.NotPanics(t, func() {
		IncCounter(counter)
		IncCounterVec(vec, "x")
		SetGauge(gauge, 1)
		SetGaugeVec(gaugeVec, 1, "x")
	})
}
