// Package metrics provides a small abstraction for recording counters, gauges
// and histograms, with a Prometheus-backed implementation.
//
// The analyzer and the HTTP middleware record through the Metrics interface
// so that tests and tools that do not care about metrics can pass nil.
//
// Usage Example:
//
//	m := metrics.NewPrometheusMetrics()
//	m.RegisterWithLabels("txn_analyzer_runs_total", metrics.Counter, "Analysis runs by outcome", []string{"outcome"})
//	m.RecordWithLabels("txn_analyzer_runs_total", 1, "success")
//	router.GET("/metrics", gin.WrapH(m.Handler()))
package metrics

// Metric types accepted by Register and RegisterWithLabels.
const (
	Counter   = "Counter"
	Gauge     = "Gauge"
	Histogram = "Histogram"
)

type Metrics interface {
	Register(name, metricType, help string)
	Record(name string, value float64)
	RegisterWithLabels(name, metricType, help string, labels []string)
	RecordWithLabels(name string, value float64, labelValues ...string)
}
