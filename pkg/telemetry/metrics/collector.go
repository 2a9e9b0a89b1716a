package metrics

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"chaoszone/tileproxy/pkg/config"
)

// DefaultDurationBuckets cover tile fetches from a few milliseconds up to
// slow style or font downloads.
var DefaultDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Collector owns every Prometheus metric exported by tileproxy.
//
// It implements the observer interfaces of the proxy forwarder and the
// directory lookup, so both record cache and upstream events through it.
// When metrics are disabled all recording methods are no-ops.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	requestMetrics  *RequestMetrics
	upstreamMetrics *UpstreamMetrics
	cacheMetrics    *CacheMetrics
}

// NewCollector creates a collector and registers its metrics with registry.
// If registry is nil, a new registry is created. Go runtime and process
// collectors are registered alongside.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "tileproxy",
//	}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.RequestDurationBuckets) == 0 {
		cfg.RequestDurationBuckets = DefaultDurationBuckets
	}

	c := &Collector{
		config:   cfg,
		registry: registry,
	}

	c.requestMetrics = NewRequestMetrics(cfg, registry)
	c.upstreamMetrics = NewUpstreamMetrics(cfg, registry)
	c.cacheMetrics = NewCacheMetrics(cfg, registry)

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// CacheHit records a fresh cache hit.
func (c *Collector) CacheHit(cacheName string) {
	if !c.config.Enabled {
		return
	}
	c.cacheMetrics.RecordHit(cacheName)
}

// CacheMiss records a lookup that found no fresh entry.
func (c *Collector) CacheMiss(cacheName string) {
	if !c.config.Enabled {
		return
	}
	c.cacheMetrics.RecordMiss(cacheName)
}

// CacheSize updates the number of stored entries, expired ones included.
func (c *Collector) CacheSize(cacheName string, entries int) {
	if !c.config.Enabled {
		return
	}
	c.cacheMetrics.UpdateSize(cacheName, entries)
}

// CacheSwept records a sweep of expired entries.
func (c *Collector) CacheSwept(cacheName string, removed, remaining int) {
	if !c.config.Enabled {
		return
	}
	c.cacheMetrics.RecordSweep(cacheName, removed)
	c.cacheMetrics.UpdateSize(cacheName, remaining)
}

// UpstreamFetch records one outbound request. status is 0 when no response
// was received.
func (c *Collector) UpstreamFetch(target string, status int, duration time.Duration, err error) {
	if !c.config.Enabled {
		return
	}
	c.upstreamMetrics.RecordFetch(target, Outcome(status, err), duration)
}

// Outcome classifies an upstream fetch for the outcome label.
func Outcome(status int, err error) string {
	switch {
	case err != nil && isTimeout(err):
		return "timeout"
	case err != nil:
		return "error"
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Enabled reports whether recording is active.
func (c *Collector) Enabled() bool {
	return c.config.Enabled
}
