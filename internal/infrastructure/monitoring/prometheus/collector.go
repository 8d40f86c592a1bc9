package prometheus

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/monitoring/logging"
)

// MetricsCollector owns the registry the annotation services report to.
type MetricsCollector interface {
	RegisterCounter(name, help string, labels ...string) CounterVec
	RegisterGauge(name, help string, labels ...string) GaugeVec
	RegisterHistogram(name, help string, buckets []float64, labels ...string) HistogramVec
	Handler() http.Handler
}

// Vec hands out the child metric for one set of label values.
type Vec[M any] interface {
	WithLabelValues(lvs ...string) M
}

// Counter only goes up.
type Counter interface {
	Inc()
	Add(delta float64)
}

// Gauge tracks a value that moves both ways.
type Gauge interface {
	Inc()
	Dec()
}

// Histogram buckets observed values.
type Histogram interface {
	Observe(value float64)
}

type (
	CounterVec   = Vec[Counter]
	GaugeVec     = Vec[Gauge]
	HistogramVec = Vec[Histogram]
)

// CollectorConfig holds configuration for the collector.
type CollectorConfig struct {
	Namespace            string
	Subsystem            string
	EnableProcessMetrics bool
	EnableGoMetrics      bool
}

type prometheusCollector struct {
	registry *prometheus.Registry
	config   CollectorConfig
	mu       sync.Mutex
	byName   map[string]prometheus.Collector
	logger   logging.Logger
}

// NewMetricsCollector creates a collector backed by a private registry.
func NewMetricsCollector(cfg CollectorConfig, logger logging.Logger) (MetricsCollector, error) {
	if cfg.Namespace == "" {
		return nil, fmt.Errorf("namespace is required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	registry := prometheus.NewRegistry()
	if cfg.EnableProcessMetrics {
		registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{
			Namespace: cfg.Namespace,
		}))
	}
	if cfg.EnableGoMetrics {
		registry.MustRegister(prometheus.NewGoCollector())
	}

	return &prometheusCollector{
		registry: registry,
		config:   cfg,
		byName:   make(map[string]prometheus.Collector),
		logger:   logger.Named("metrics"),
	}, nil
}

func (c *prometheusCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// register adds vec under name, or returns whatever is already registered
// there so repeated registration shares one vector.
func (c *prometheusCollector) register(name string, vec prometheus.Collector) (prometheus.Collector, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fqName := prometheus.BuildFQName(c.config.Namespace, c.config.Subsystem, name)
	if existing, ok := c.byName[fqName]; ok {
		return existing, nil
	}
	if err := c.registry.Register(vec); err != nil {
		return nil, err
	}
	c.byName[fqName] = vec
	return vec, nil
}

// registerVec registers vec and adapts the result.  A registration error or a
// name already taken by another metric type yields a vector that records
// nothing.
func registerVec[V prometheus.Collector, M any](c *prometheusCollector, kind, name string, vec V, wrap func(V) Vec[M], noop M) Vec[M] {
	registered, err := c.register(name, vec)
	if err != nil {
		c.logger.Error("Failed to register metric", logging.String("name", name),
			logging.String("type", kind), logging.Err(err))
		return noopVec[M]{m: noop}
	}
	typed, ok := registered.(V)
	if !ok {
		c.logger.Warn("Metric name already registered with another type",
			logging.String("name", name), logging.String("type", kind))
		return noopVec[M]{m: noop}
	}
	return wrap(typed)
}

func (c *prometheusCollector) RegisterCounter(name, help string, labels ...string) CounterVec {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: c.config.Namespace,
		Subsystem: c.config.Subsystem,
		Name:      name,
		Help:      help,
	}, labels)
	return registerVec(c, "counter", name, vec, func(v *prometheus.CounterVec) CounterVec {
		return promVec[Counter]{with: func(lvs []string) Counter { return v.WithLabelValues(lvs...) }}
	}, Counter(noopMetric{}))
}

func (c *prometheusCollector) RegisterGauge(name, help string, labels ...string) GaugeVec {
	vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: c.config.Namespace,
		Subsystem: c.config.Subsystem,
		Name:      name,
		Help:      help,
	}, labels)
	return registerVec(c, "gauge", name, vec, func(v *prometheus.GaugeVec) GaugeVec {
		return promVec[Gauge]{with: func(lvs []string) Gauge { return v.WithLabelValues(lvs...) }}
	}, Gauge(noopMetric{}))
}

// RegisterHistogram registers a histogram; nil buckets use the client
// library defaults.
func (c *prometheusCollector) RegisterHistogram(name, help string, buckets []float64, labels ...string) HistogramVec {
	if buckets == nil {
		buckets = prometheus.DefBuckets
	}
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: c.config.Namespace,
		Subsystem: c.config.Subsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}, labels)
	return registerVec(c, "histogram", name, vec, func(v *prometheus.HistogramVec) HistogramVec {
		return promVec[Histogram]{with: func(lvs []string) Histogram { return v.WithLabelValues(lvs...) }}
	}, Histogram(noopMetric{}))
}

// promVec adapts a client library vector.  The client's Counter, Gauge and
// Observer already satisfy the narrower interfaces here.
type promVec[M any] struct {
	with func(lvs []string) M
}

func (v promVec[M]) WithLabelValues(lvs ...string) M { return v.with(lvs) }

type noopVec[M any] struct{ m M }

func (v noopVec[M]) WithLabelValues(...string) M { return v.m }

// noopMetric satisfies Counter, Gauge and Histogram.
type noopMetric struct{}

func (noopMetric) Inc()            {}
func (noopMetric) Dec()            {}
func (noopMetric) Add(float64)     {}
func (noopMetric) Observe(float64) {}

//Personal.AI order the ending
