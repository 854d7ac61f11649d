package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/aretw0/parkdash/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsConfig configures the store metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "parkdash").
	Namespace string

	// Buckets are the histogram buckets for operation duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry receives the collectors. Default: a fresh prometheus.Registry.
	Registry *prometheus.Registry
}

// MetricsOption configures Metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry *prometheus.Registry) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// Metrics holds the store collectors.
type Metrics struct {
	registry   *prometheus.Registry
	dispatched *prometheus.CounterVec
	settled    *prometheus.CounterVec
	discarded  *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	inflight   *prometheus.GaugeVec
}

// NewMetrics registers the store collectors.
func NewMetrics(opts ...MetricsOption) *Metrics {
	cfg := MetricsConfig{
		Namespace: "parkdash",
		Buckets:   prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}

	factory := promauto.With(cfg.Registry)
	return &Metrics{
		registry: cfg.Registry,
		dispatched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "operations_dispatched_total",
			Help:      "Total number of dispatched operations.",
		}, []string{"slice", "operation"}),
		settled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "operations_settled_total",
			Help:      "Total number of operations applied to their slice, by outcome.",
		}, []string{"slice", "operation", "status", "kind"}),
		discarded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "operations_discarded_total",
			Help:      "Total number of stale settlements dropped by the settle policy.",
		}, []string{"slice", "operation"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of applied operations.",
			Buckets:   cfg.Buckets,
		}, []string{"slice", "operation"}),
		inflight: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "operations_inflight",
			Help:      "Operations dispatched and not yet settled.",
		}, []string{"slice"}),
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Hooks returns lifecycle hooks recording into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnDispatch: func(_ context.Context, e *domain.Event) {
			m.dispatched.WithLabelValues(e.Slice, e.Operation).Inc()
			m.inflight.WithLabelValues(e.Slice).Inc()
		},
		OnSettle: func(_ context.Context, e *domain.Event, d time.Duration) {
			m.inflight.WithLabelValues(e.Slice).Dec()
			kind := ""
			if e.Err != nil {
				kind = string(e.Err.Kind)
			}
			m.settled.WithLabelValues(e.Slice, e.Operation, string(e.Type), kind).Inc()
			m.duration.WithLabelValues(e.Slice, e.Operation).Observe(d.Seconds())
		},
		OnDiscard: func(_ context.Context, e *domain.Event) {
			m.inflight.WithLabelValues(e.Slice).Dec()
			m.discarded.WithLabelValues(e.Slice, e.Operation).Inc()
		},
	}
}
