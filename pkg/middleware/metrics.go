package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/nestroute/pkg/router"
)

// MetricsConfig configures the Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "routerd").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for transition duration.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "routerd",
		Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the routerd collectors.
type Metrics struct {
	transitionsTotal   *prometheus.CounterVec
	transitionDuration *prometheus.HistogramVec
	routeCommits       *prometheus.CounterVec
	activeConnections  prometheus.Gauge
	protocolErrors     *prometheus.CounterVec
	manifestReloads    *prometheus.CounterVec
}

// NewMetrics registers the collectors with the configured registry.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		transitionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "transitions_total",
			Help:        "Total number of router transitions by kind and outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"kind", "outcome"}),

		transitionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "transition_duration_seconds",
			Help:        "Transition lifecycle duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"kind"}),

		routeCommits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "route_commits_total",
			Help:        "Committed transitions by destination route",
			ConstLabels: config.ConstLabels,
		}, []string{"route"}),

		activeConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_connections",
			Help:        "Number of open WebSocket connections",
			ConstLabels: config.ConstLabels,
		}),

		protocolErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "protocol_errors_total",
			Help:        "Rejected WebSocket frames by type",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),

		manifestReloads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "manifest_reloads_total",
			Help:        "Manifest reloads by status",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),
	}
}

// Middleware returns router middleware that records every transition.
func (m *Metrics) Middleware() router.Middleware {
	return router.MiddlewareFunc(func(ctx context.Context, t *router.Transition, next func(context.Context) error) error {
		start := time.Now()
		err := next(ctx)

		kind := t.Kind.String()
		m.transitionDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
		m.transitionsTotal.WithLabelValues(kind, outcomeLabel(t, err)).Inc()
		if t.Committed() && t.To != nil && t.To.Router != nil {
			m.routeCommits.WithLabelValues(t.To.Router.FullName()).Inc()
		}
		return err
	})
}

func outcomeLabel(t *router.Transition, err error) string {
	if err != nil && t.Outcome == router.OutcomePending {
		return "error"
	}
	return t.Outcome.String()
}

// ConnectionOpened increments the active connection gauge.
func (m *Metrics) ConnectionOpened() { m.activeConnections.Inc() }

// ConnectionClosed decrements the active connection gauge.
func (m *Metrics) ConnectionClosed() { m.activeConnections.Dec() }

// ProtocolError counts a rejected frame.
func (m *Metrics) ProtocolError(kind string) {
	m.protocolErrors.WithLabelValues(kind).Inc()
}

// ManifestReloaded counts a reload attempt.
func (m *Metrics) ManifestReloaded(err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.manifestReloads.WithLabelValues(status).Inc()
}

var (
	globalMetrics   *Metrics
	globalMetricsMu sync.Mutex
)

// Prometheus returns transition middleware backed by a process-wide Metrics
// instance. The options of the first call win.
func Prometheus(opts ...MetricsOption) router.Middleware {
	globalMetricsMu.Lock()
	if globalMetrics == nil {
		globalMetrics = NewMetrics(opts...)
	}
	m := globalMetrics
	globalMetricsMu.Unlock()

	return m.Middleware()
}
