package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndRecord(t *testing.T) {
	m := NewPrometheusMetrics()

	m.Register("test_rows_total", Counter, "Rows seen")
	m.Register("test_inflight", Gauge, "In-flight runs")
	m.Register("test_duration_seconds", Histogram, "Run duration")

	m.Record("test_rows_total", 1)
	m.Record("test_rows_total", 2)
	m.Record("test_inflight", 7)
	m.Record("test_duration_seconds", 0.25)
	m.Record("not_registered", 1)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.counters["test_rows_total"]))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.gauges["test_inflight"]))
	assert.Equal(t, 1, testutil.CollectAndCount(m.histograms["test_duration_seconds"]))
}

func TestRegisterWithLabels(t *testing.T) {
	m := NewPrometheusMetrics()

	m.RegisterWithLabels("test_metric1", Counter, "Test metric with labels", []string{"label1", "label2"})

	_, ok := m.counterVecs["test_metric1"]
	assert.True(t, ok, "counter vec was not registered")
}

func TestRecordWithLabels(t *testing.T) {
	m := NewPrometheusMetrics()

	m.RegisterWithLabels("test_skipped_total", Counter, "Skipped rows", []string{"reason"})
	m.RecordWithLabels("test_skipped_total", 1, "invalid_amount")
	m.RecordWithLabels("test_skipped_total", 1, "invalid_amount")
	m.RecordWithLabels("test_skipped_total", 1, "invalid_type")

	cv := m.counterVecs["test_skipped_total"]
	assert.Equal(t, 2.0, testutil.ToFloat64(cv.WithLabelValues("invalid_amount")))
	assert.Equal(t, 1.0, testutil.ToFloat64(cv.WithLabelValues("invalid_type")))
}

func TestInstancesDoNotShareRegistry(t *testing.T) {
	a := NewPrometheusMetrics()
	b := NewPrometheusMetrics()

	assert.NotPanics(t, func() {
		a.Register("dup_total", Counter, "dup")
		b.Register("dup_total", Counter, "dup")
	})
}

func TestCustomBuckets(t *testing.T) {
	m := NewPrometheusMetrics()
	m.SetCustomBuckets("test_latency_seconds", []float64{0.1, 1})
	m.Register("test_latency_seconds", Histogram, "Latency")

	assert.Equal(t, []float64{0.1, 1}, m.buckets("test_latency_seconds"))
}

func TestHandlerExposesRegisteredMetrics(t *testing.T) {
	m := NewPrometheusMetrics()
	m.Register("test_exposed_total", Counter, "Exposed counter")
	m.Record("test_exposed_total", 5)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	m.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test_exposed_total 5")
}
