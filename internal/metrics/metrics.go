// Package metrics exports engine activity as Prometheus metrics. The CLI is
// short-lived, so metrics are written to a node_exporter textfile rather
// than served over HTTP.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bamsammich/ferry/internal/engine"
	"github.com/bamsammich/ferry/internal/event"
)

const namespace = "ferry"

// Result label values on ferry_operations_total.
const (
	ResultOK        = "ok"
	ResultFailed    = "failed"
	ResultCancelled = "cancelled"
)

// Metrics aggregates engine events into a private registry.
type Metrics struct {
	registry *prometheus.Registry

	operations *prometheus.CounterVec
	entities   *prometheus.CounterVec
	fallbacks  *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	bytes      prometheus.Counter
	rollbacks  prometheus.Counter
}

// New creates a Metrics with all collectors registered.
func New() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Copy and move operations by outcome.",
		}, []string{"op", "result"}),
		entities: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entities_created_total",
			Help:      "Entities created at a target, by kind.",
		}, []string{"kind"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_total",
			Help:      "Fallbacks taken: fast path disabled or rename replaced by copy.",
		}, []string{"reason"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Wall time of completed operations.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"op"}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_copied_total",
			Help:      "Regular file bytes written to targets.",
		}),
		rollbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rollbacks_total",
			Help:      "Partially created targets removed after a failure.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.operations, m.entities, m.fallbacks, m.duration, m.bytes, m.rollbacks,
	} {
		if err := m.registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Registry returns the registry holding ferry's collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Observe folds one engine event into the metrics. Events may be dropped
// under load, so operation outcomes come from Finish instead.
func (m *Metrics) Observe(ev event.Event) {
	switch ev.Type {
	case event.EntityCreated:
		m.entities.WithLabelValues(ev.Kind).Inc()
		if ev.Size > 0 {
			m.bytes.Add(float64(ev.Size))
		}
	case event.FastPathDisabled:
		m.fallbacks.WithLabelValues("fast_path_disabled").Inc()
	case event.RenameFallback:
		m.fallbacks.WithLabelValues("rename_cross_device").Inc()
	case event.RolledBack:
		m.rollbacks.Inc()
	}
}

// Finish records the outcome of one operation from its returned error.
func (m *Metrics) Finish(op string, err error, elapsed time.Duration) {
	result := ResultOK
	switch {
	case err == nil:
		m.duration.WithLabelValues(op).Observe(elapsed.Seconds())
	case errors.Is(err, engine.Cancelled):
		result = ResultCancelled
	default:
		result = ResultFailed
	}
	m.operations.WithLabelValues(op, result).Inc()
}

// WriteTextfile writes the current metrics in the text exposition format,
// replacing path atomically.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
