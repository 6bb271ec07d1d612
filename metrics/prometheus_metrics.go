package metrics

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusMetrics implements Metrics on top of a private Prometheus registry.
// Every instance owns its registry, so two instances may register the same
// metric names without colliding.
//
// All registration must happen before the first Record call; the lookup maps
// are not guarded for concurrent writes.
type PrometheusMetrics struct {
	registry      *prometheus.Registry
	counters      map[string]prometheus.Counter
	counterVecs   map[string]*prometheus.CounterVec
	gauges        map[string]prometheus.Gauge
	gaugeVecs     map[string]*prometheus.GaugeVec
	histograms    map[string]prometheus.Histogram
	histogramVecs map[string]*prometheus.HistogramVec
	customBuckets map[string][]float64
}

// NewPrometheusMetrics creates a PrometheusMetrics with an empty registry that
// also exports the Go runtime and process collectors.
func NewPrometheusMetrics() *PrometheusMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return &PrometheusMetrics{
		registry:      reg,
		counters:      make(map[string]prometheus.Counter),
		counterVecs:   make(map[string]*prometheus.CounterVec),
		gauges:        make(map[string]prometheus.Gauge),
		gaugeVecs:     make(map[string]*prometheus.GaugeVec),
		histograms:    make(map[string]prometheus.Histogram),
		histogramVecs: make(map[string]*prometheus.HistogramVec),
		customBuckets: make(map[string][]float64),
	}
}

// SetCustomBuckets sets the buckets used when the histogram called name is
// registered. It has no effect on histograms that are already registered.
func (p *PrometheusMetrics) SetCustomBuckets(name string, buckets []float64) {
	p.customBuckets[name] = buckets
}

func (p *PrometheusMetrics) buckets(name string) []float64 {
	if b, ok := p.customBuckets[name]; ok {
		return b
	}
	return prometheus.DefBuckets
}

// Register creates and registers an unlabelled metric of the given type.
func (p *PrometheusMetrics) Register(name, metricType, help string) {
	switch metricType {
	case Counter:
		c := prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
		p.registry.MustRegister(c)
		p.counters[name] = c
	case Gauge:
		g := prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
		p.registry.MustRegister(g)
		p.gauges[name] = g
	case Histogram:
		h := prometheus.NewHistogram(prometheus.HistogramOpts{Name: name, Help: help, Buckets: p.buckets(name)})
		p.registry.MustRegister(h)
		p.histograms[name] = h
	default:
		log.Printf("Error: Attempted to register unknown metric type '%s' with name '%s'", metricType, name)
	}
}

// Record adds to a counter, sets a gauge or observes a histogram value.
// Unknown names are ignored.
func (p *PrometheusMetrics) Record(name string, value float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(value)
		return
	}
	if g, ok := p.gauges[name]; ok {
		g.Set(value)
		return
	}
	if h, ok := p.histograms[name]; ok {
		h.Observe(value)
	}
}

// RegisterWithLabels creates and registers a labelled metric of the given type.
func (p *PrometheusMetrics) RegisterWithLabels(name, metricType, help string, labels []string) {
	switch metricType {
	case Counter:
		cv := prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, labels)
		p.registry.MustRegister(cv)
		p.counterVecs[name] = cv
	case Gauge:
		gv := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, labels)
		p.registry.MustRegister(gv)
		p.gaugeVecs[name] = gv
	case Histogram:
		hv := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: name, Help: help, Buckets: p.buckets(name)}, labels)
		p.registry.MustRegister(hv)
		p.histogramVecs[name] = hv
	default:
		log.Printf("Error: Attempted to register unknown metric type '%s' with name '%s'", metricType, name)
	}
}

// RecordWithLabels records value on the labelled metric called name. The
// label values must follow the order given at registration.
func (p *PrometheusMetrics) RecordWithLabels(name string, value float64, labelValues ...string) {
	if cv, ok := p.counterVecs[name]; ok {
		cv.WithLabelValues(labelValues...).Add(value)
		return
	}
	if gv, ok := p.gaugeVecs[name]; ok {
		gv.WithLabelValues(labelValues...).Set(value)
		return
	}
	if hv, ok := p.histogramVecs[name]; ok {
		hv.WithLabelValues(labelValues...).Observe(value)
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (p *PrometheusMetrics) Registry() *prometheus.Registry {
	return p.registry
}

// Handler returns the scrape endpoint for this instance's registry.
func (p *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
