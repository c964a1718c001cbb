// Package metrics exposes Prometheus instrumentation for the poll loop.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jpalmerr/soilboard/internal/poller"
)

const namespace = "soilboard"

// Metrics records scheduler events. It implements poller.Observer.
//
// Each Metrics owns its registry, so several dashboards in one process do
// not collide on registration.
type Metrics struct {
	reg *prometheus.Registry

	cycles        prometheus.Counter
	rangeChanges  prometheus.Counter
	rangeSeconds  prometheus.Gauge
	fetches       *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	discarded     *prometheus.CounterVec
}

// New creates a Metrics with all collectors registered.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		cycles: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "poll_cycles_total",
				Help:      "The number of poll cycles issued.",
			},
		),
		rangeChanges: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "range_changes_total",
				Help:      "The number of times the requested range was changed.",
			},
		),
		rangeSeconds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "range_seconds",
				Help:      "The trailing window currently requested from the backend.",
			},
		),
		fetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetches_total",
				Help:      "The number of backend fetches by kind and outcome.",
			}, []string{"kind", "outcome"},
		),
		fetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fetch_duration_seconds",
				Help:      "The latency of backend fetches.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"kind"},
		),
		discarded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "responses_discarded_total",
				Help:      "The number of responses dropped because a later cycle had already been applied.",
			}, []string{"kind"},
		),
	}

	m.reg.MustRegister(
		m.cycles,
		m.rangeChanges,
		m.rangeSeconds,
		m.fetches,
		m.fetchDuration,
		m.discarded,
	)
	return m
}

// CycleStarted implements poller.Observer.
func (m *Metrics) CycleStarted(_ uint64, rangeSeconds int64) {
	m.cycles.Inc()
	m.rangeSeconds.Set(float64(rangeSeconds))
}

// RangeChanged implements poller.Observer.
func (m *Metrics) RangeChanged(rangeSeconds int64) {
	m.rangeChanges.Inc()
	m.rangeSeconds.Set(float64(rangeSeconds))
}

// FetchCompleted implements poller.Observer.
func (m *Metrics) FetchCompleted(kind poller.Kind, latency time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.fetches.With(prometheus.Labels{"kind": string(kind), "outcome": outcome}).Inc()
	m.fetchDuration.With(prometheus.Labels{"kind": string(kind)}).Observe(latency.Seconds())
}

// ResponseDiscarded implements poller.Observer.
func (m *Metrics) ResponseDiscarded(kind poller.Kind) {
	m.discarded.With(prometheus.Labels{"kind": string(kind)}).Inc()
}

// Registry returns the registry the collectors are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
