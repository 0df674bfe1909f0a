// Package metrics exports featuremap's observability hooks as Prometheus
// metrics.
//
//	m := metrics.New()
//	m.Install()
//	http.Handle("/metrics", m.Handler())
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/featuremap/pkg/observability"
)

const namespace = "featuremap"

// Metrics holds the collectors behind the hooks. Each Metrics has its own
// registry so tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	actions      *prometheus.CounterVec
	historyOps   *prometheus.CounterVec
	undoDepth    prometheus.Gauge
	tickDuration prometheus.Histogram
	springs      prometheus.Gauge
	imports      *prometheus.CounterVec

	storeOps      *prometheus.CounterVec
	storeDuration *prometheus.HistogramVec
	storeBytes    prometheus.Histogram

	cacheLookups *prometheus.CounterVec
	cacheBytes   prometheus.Counter
}

// New creates and registers all collectors, plus the Go runtime and process
// collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "editor", Name: "actions_total",
			Help: "Mutating editor actions by kind.",
		}, []string{"action"}),
		historyOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "editor", Name: "history_ops_total",
			Help: "Undo stack operations.",
		}, []string{"op"}),
		undoDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "editor", Name: "undo_depth",
			Help: "Current number of undo snapshots.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "editor", Name: "layout_step_seconds",
			Help:    "Duration of one layout step.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		springs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "editor", Name: "stretched_edges",
			Help: "Edges stretched past their slack in the last layout step.",
		}),
		imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "editor", Name: "imports_total",
			Help: "Whole-world imports by kind and result.",
		}, []string{"kind", "result"}),
		storeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "store", Name: "ops_total",
			Help: "Board store operations.",
		}, []string{"backend", "op", "result"}),
		storeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "store", Name: "op_duration_seconds",
			Help:    "Latency of board loads and saves.",
			Buckets: prometheus.DefBuckets,
		}, []string{"backend", "op"}),
		storeBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "store", Name: "board_size_items",
			Help:    "Nodes plus edges per saved board.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "lookups_total",
			Help: "Artifact cache lookups by key type and result.",
		}, []string{"key_type", "result"}),
		cacheBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "written_bytes_total",
			Help: "Bytes written to the artifact cache.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.actions, m.historyOps, m.undoDepth, m.tickDuration, m.springs, m.imports,
		m.storeOps, m.storeDuration, m.storeBytes,
		m.cacheLookups, m.cacheBytes,
	)
	return m
}

// Install registers m as the process-wide editor, store and cache hooks.
func (m *Metrics) Install() {
	observability.SetEditorHooks(editorHooks{m})
	observability.SetStoreHooks(storeHooks{m})
	observability.SetCacheHooks(cacheHooks{m})
}

// Registry returns the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// =============================================================================
// Hook Adapters
// =============================================================================

type editorHooks struct{ m *Metrics }

func (h editorHooks) OnAction(action string) {
	h.m.actions.WithLabelValues(action).Inc()
}

func (h editorHooks) OnHistory(op string, undoDepth, _ int) {
	h.m.historyOps.WithLabelValues(op).Inc()
	h.m.undoDepth.Set(float64(undoDepth))
}

func (h editorHooks) OnTick(d time.Duration, _, springs int) {
	h.m.tickDuration.Observe(d.Seconds())
	h.m.springs.Set(float64(springs))
}

func (h editorHooks) OnImport(kind string, _, _ int, err error) {
	h.m.imports.WithLabelValues(kind, result(err)).Inc()
}

type storeHooks struct{ m *Metrics }

func (h storeHooks) OnLoad(_ context.Context, backend, _ string, d time.Duration, err error) {
	h.m.storeOps.WithLabelValues(backend, "load", result(err)).Inc()
	h.m.storeDuration.WithLabelValues(backend, "load").Observe(d.Seconds())
}

func (h storeHooks) OnSave(_ context.Context, backend, _ string, size int, d time.Duration, err error) {
	h.m.storeOps.WithLabelValues(backend, "save", result(err)).Inc()
	h.m.storeDuration.WithLabelValues(backend, "save").Observe(d.Seconds())
	if err == nil {
		h.m.storeBytes.Observe(float64(size))
	}
}

func (h storeHooks) OnDelete(_ context.Context, backend, _ string, err error) {
	h.m.storeOps.WithLabelValues(backend, "delete", result(err)).Inc()
}

type cacheHooks struct{ m *Metrics }

func (h cacheHooks) OnCacheHit(_ context.Context, keyType string) {
	h.m.cacheLookups.WithLabelValues(keyType, "hit").Inc()
}

func (h cacheHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.m.cacheLookups.WithLabelValues(keyType, "miss").Inc()
}

func (h cacheHooks) OnCacheSet(_ context.Context, _ string, size int) {
	h.m.cacheBytes.Add(float64(size))
}
