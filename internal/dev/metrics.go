package dev

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the dev server's Prometheus instrumentation.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "replayview").
	Namespace string

	// Buckets are the histogram buckets for build duration.
	// Default: prometheus.DefBuckets.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// MetricsOption configures the dev server metrics.
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
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "replayview",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the dev server's instruments.
type Metrics struct {
	buildsTotal   *prometheus.CounterVec
	buildDuration prometheus.Histogram
	reloadClients prometheus.GaugeFunc
	assetsServed  prometheus.Counter
}

// NewMetrics registers and returns the dev server metrics. clientCount is
// sampled for the connected-clients gauge.
func NewMetrics(clientCount func() int, opts ...MetricsOption) *Metrics {
	cfg := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	factory := promauto.With(cfg.Registry)

	return &Metrics{
		buildsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "dev",
			Name:      "builds_total",
			Help:      "Number of bundle builds by outcome.",
		}, []string{"outcome"}),
		buildDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: "dev",
			Name:      "build_duration_seconds",
			Help:      "Bundle build duration in seconds.",
			Buckets:   cfg.Buckets,
		}),
		reloadClients: factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: "dev",
			Name:      "reload_clients",
			Help:      "Browser tabs connected to the reload channel.",
		}, func() float64 {
			return float64(clientCount())
		}),
		assetsServed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "dev",
			Name:      "assets_served_total",
			Help:      "Asset responses served from the in-memory bundle.",
		}),
	}
}

// ObserveBuild records one build.
func (m *Metrics) ObserveBuild(result BuildResult) {
	if m == nil {
		return
	}
	outcome := "success"
	if !result.Success {
		outcome = "failure"
	}
	m.buildsTotal.WithLabelValues(outcome).Inc()
	m.buildDuration.Observe(result.Duration.Seconds())
}

// ObserveAsset records one served asset response.
func (m *Metrics) ObserveAsset() {
	if m == nil {
		return
	}
	m.assetsServed.Inc()
}
