package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"chaoszone/tileproxy/pkg/config"
)

// CacheMetrics tracks cache performance metrics.
//
// Metrics:
//   - tileproxy_cache_hits_total: Fresh hits by cache name
//   - tileproxy_cache_misses_total: Misses (absent or expired) by cache name
//   - tileproxy_cache_entries: Stored entries, expired ones included
//   - tileproxy_cache_swept_total: Expired entries removed by the sweeper
//
// The cache label is "proxy" for the response cache and "directory" for
// the lookup cache.
type CacheMetrics struct {
	hitsTotal   *prometheus.CounterVec
	missesTotal *prometheus.CounterVec
	entries     *prometheus.GaugeVec
	sweptTotal  *prometheus.CounterVec
}

// NewCacheMetrics creates and registers cache metrics with the provided registry.
func NewCacheMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CacheMetrics {
	cm := &CacheMetrics{
		hitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_hits_total",
				Help:      "Total number of fresh cache hits",
			},
			[]string{"cache"},
		),

		missesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_misses_total",
				Help:      "Total number of cache misses, expired entries included",
			},
			[]string{"cache"},
		),

		entries: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_entries",
				Help:      "Current number of stored cache entries",
			},
			[]string{"cache"},
		),

		sweptTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_swept_total",
				Help:      "Total number of expired entries removed by scheduled sweeps",
			},
			[]string{"cache"},
		),
	}

	registry.MustRegister(
		cm.hitsTotal,
		cm.missesTotal,
		cm.entries,
		cm.sweptTotal,
	)

	return cm
}

// RecordHit records a cache hit.
func (cm *CacheMetrics) RecordHit(cacheName string) {
	cm.hitsTotal.WithLabelValues(cacheName).Inc()
}

// RecordMiss records a cache miss.
func (cm *CacheMetrics) RecordMiss(cacheName string) {
	cm.missesTotal.WithLabelValues(cacheName).Inc()
}

// UpdateSize updates the current size of a cache.
func (cm *CacheMetrics) UpdateSize(cacheName string, size int) {
	cm.entries.WithLabelValues(cacheName).Set(float64(size))
}

// RecordSweep adds removed to the swept counter.
func (cm *CacheMetrics) RecordSweep(cacheName string, removed int) {
	cm.sweptTotal.WithLabelValues(cacheName).Add(float64(removed))
}
