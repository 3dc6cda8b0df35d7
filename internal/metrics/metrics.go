// Package metrics exposes Prometheus collectors for the configuration store.
//
// All collectors live on a private registry so tests and embedders can
// create independent instances. Every method is safe on a nil *Metrics,
// which disables instrumentation.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "camcfg"

// Metrics holds the collectors
type Metrics struct {
	registry *prometheus.Registry

	mutations       *prometheus.CounterVec
	rejections      *prometheus.CounterVec
	generation      prometheus.Gauge
	pending         prometheus.Gauge
	dropped         prometheus.Counter
	flushes         *prometheus.CounterVec
	flushDuration   prometheus.Histogram
	bootAdjustments *prometheus.CounterVec
}

// New creates the collectors on a fresh registry
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}
	factory := promauto.With(m.registry)

	m.mutations = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mutations_total",
		Help:      "Committed setting changes by section",
	}, []string{"section"})

	m.rejections = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rejections_total",
		Help:      "Refused get/set calls by error kind",
	}, []string{"kind"})

	m.generation = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "generation",
		Help:      "Current configuration generation",
	})

	m.pending = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "persistence_pending",
		Help:      "Entries waiting in the persistence queue",
	})

	m.dropped = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "persistence_dropped_total",
		Help:      "Write-back entries refused because the queue was full",
	})

	m.flushes = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "flushes_total",
		Help:      "Persistence flushes by result",
	}, []string{"result"})

	m.flushDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "flush_duration_seconds",
		Help:      "Time spent saving the configuration file",
		Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
	})

	m.bootAdjustments = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "boot_adjustments_total",
		Help:      "Values the boot loader clamped, truncated, defaulted or skipped",
	}, []string{"reason"})

	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveMutation records a committed change and the new generation
func (m *Metrics) ObserveMutation(section string, generation uint32) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(section).Inc()
	m.generation.Set(float64(generation))
}

// ObserveRejection records a refused call
func (m *Metrics) ObserveRejection(kind string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(kind).Inc()
}

// SetPending records the persistence queue depth
func (m *Metrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.pending.Set(float64(n))
}

// ObserveDropped records a write-back the queue could not hold
func (m *Metrics) ObserveDropped() {
	if m == nil {
		return
	}
	m.dropped.Inc()
}

// ObserveFlush records a flush attempt
func (m *Metrics) ObserveFlush(d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.flushes.WithLabelValues(result).Inc()
	m.flushDuration.Observe(d.Seconds())
}

// ObserveBootAdjustment records a tolerant-load adjustment
func (m *Metrics) ObserveBootAdjustment(reason string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.bootAdjustments.WithLabelValues(reason).Add(float64(n))
}
