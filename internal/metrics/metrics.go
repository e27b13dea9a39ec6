// Package metrics provides Prometheus instrumentation for the ring pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	resultOK    = "ok"
	resultError = "error"
)

// Manager owns the pipeline metrics. A nil *Manager is valid and records
// nothing.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	renders           *prometheus.CounterVec
	renderDuration    prometheus.Histogram
	normalizations    *prometheus.CounterVec
	exports           *prometheus.CounterVec
	debounceEmissions prometheus.Counter
	renderInProgress  prometheus.Gauge
}

// New creates a Manager registered on its own registry unless WithRegistry
// is given.
func New(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "growthring",
		histogramBuckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}
	for _, o := range opts {
		o(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	m.renders = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "renders_total",
		Help:      "Ring renders by result.",
	}, []string{"result"})
	m.renderDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "render_duration_seconds",
		Help:      "Time spent compositing a ring.",
		Buckets:   m.histogramBuckets,
	})
	m.normalizations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "normalize_total",
		Help:      "Uploaded images normalized by result.",
	}, []string{"result"})
	m.exports = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "exports_total",
		Help:      "Ring exports by result.",
	}, []string{"result"})
	m.debounceEmissions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "debounce_emissions_total",
		Help:      "Settled progress values emitted by the debouncer.",
	})
	m.renderInProgress = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "render_in_progress",
		Help:      "1 while a render is running.",
	})

	m.registry.MustRegister(
		m.renders,
		m.renderDuration,
		m.normalizations,
		m.exports,
		m.debounceEmissions,
		m.renderInProgress,
	)
	return m
}

// Registry exposes the registry for promhttp and textfile export.
func (m *Manager) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func result(err error) string {
	if err != nil {
		return resultError
	}
	return resultOK
}

// RenderStarted marks a render as running.
func (m *Manager) RenderStarted() {
	if m == nil {
		return
	}
	m.renderInProgress.Set(1)
}

// ObserveRender records a finished render.
func (m *Manager) ObserveRender(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.renderInProgress.Set(0)
	m.renders.WithLabelValues(result(err)).Inc()
	m.renderDuration.Observe(d.Seconds())
}

// ObserveNormalize records a normalization attempt.
func (m *Manager) ObserveNormalize(err error) {
	if m == nil {
		return
	}
	m.normalizations.WithLabelValues(result(err)).Inc()
}

// ObserveExport records an export attempt.
func (m *Manager) ObserveExport(err error) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(result(err)).Inc()
}

// DebounceEmitted counts a settled debounce emission.
func (m *Manager) DebounceEmitted() {
	if m == nil {
		return
	}
	m.debounceEmissions.Inc()
}

// WriteTextfile writes the current metrics in the node_exporter textfile
// format.
func (m *Manager) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
