// Package metrics exposes Prometheus counters for rule caching, validation
// outcomes and detected threats. Every method is safe on a nil *Collector.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	DefaultNamespace = "fieldguard"
	DefaultSubsystem = "validation"
)

// Config configures a Collector.
type Config struct {
	Namespace            string
	Subsystem            string
	EnableGoMetrics      bool
	EnableProcessMetrics bool
}

// Collector owns a private registry so several engines can coexist in one process.
type Collector struct {
	registry *prometheus.Registry

	cacheLookups     *prometheus.CounterVec
	validations      *prometheus.CounterVec
	threats          *prometheus.CounterVec
	ruleResolutions  *prometheus.CounterVec
	multipleItems    prometheus.Histogram
	fallbackPatterns *prometheus.CounterVec
}

// NewCollector creates and registers every metric.
func NewCollector(config Config) *Collector {
	if config.Namespace == "" {
		config.Namespace = DefaultNamespace
	}
	if config.Subsystem == "" {
		config.Subsystem = DefaultSubsystem
	}

	c := &Collector{registry: prometheus.NewRegistry()}

	c.cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "rule_cache_lookups_total",
			Help:      "Rule cache lookups by result (hit or miss)",
		},
		[]string{"result"},
	)
	c.validations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "validations_total",
			Help:      "Validation outcomes by field type and failure kind",
		},
		[]string{"field_type", "kind"},
	)
	c.threats = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "threats_detected_total",
			Help:      "Values rejected by the security scanner, by pattern and threat level",
		},
		[]string{"pattern", "level"},
	)
	c.ruleResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "rule_resolutions_total",
			Help:      "Rule resolutions against the rule store, by source",
		},
		[]string{"source"},
	)
	c.fallbackPatterns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "fallback_patterns_total",
			Help:      "Configured rules built with the fallback pattern because the configured one was malformed",
		},
		[]string{"field_type"},
	)
	c.multipleItems = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "multiple_items",
			Help:      "Number of items per comma-separated validation",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100},
		},
	)

	c.registry.MustRegister(c.cacheLookups, c.validations, c.threats, c.ruleResolutions, c.fallbackPatterns, c.multipleItems)

	if config.EnableGoMetrics {
		c.registry.MustRegister(collectors.NewGoCollector())
	}
	if config.EnableProcessMetrics {
		c.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	return c
}

// Registry returns the registry the metrics live in.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) CacheHit() {
	if c == nil {
		return
	}
	c.cacheLookups.WithLabelValues("hit").Inc()
}

func (c *Collector) CacheMiss() {
	if c == nil {
		return
	}
	c.cacheLookups.WithLabelValues("miss").Inc()
}

// Validation records one outcome. kind is "none" for accepted values.
func (c *Collector) Validation(fieldType, kind string) {
	if c == nil {
		return
	}
	c.validations.WithLabelValues(fieldType, kind).Inc()
}

func (c *Collector) Threat(pattern, level string) {
	if c == nil {
		return
	}
	c.threats.WithLabelValues(pattern, level).Inc()
}

func (c *Collector) RuleResolved(source string) {
	if c == nil {
		return
	}
	c.ruleResolutions.WithLabelValues(source).Inc()
}

func (c *Collector) FallbackPattern(fieldType string) {
	if c == nil {
		return
	}
	c.fallbackPatterns.WithLabelValues(fieldType).Inc()
}

func (c *Collector) MultipleItems(n int) {
	if c == nil {
		return
	}
	c.multipleItems.Observe(float64(n))
}
