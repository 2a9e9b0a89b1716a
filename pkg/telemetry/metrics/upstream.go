package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"chaoszone/tileproxy/pkg/config"
)

// UpstreamMetrics tracks outbound fetches to proxy targets and the
// directory API.
//
// Metrics:
//   - tileproxy_upstream_requests_total: Fetches by target and outcome
//   - tileproxy_upstream_request_duration_seconds: Fetch latency by target
//
// Outcome is one of 2xx, 3xx, 4xx, 5xx, error or timeout. Upstream 4xx and
// 5xx responses are relayed to clients and are not errors for the proxy.
type UpstreamMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewUpstreamMetrics creates and registers upstream metrics with the provided registry.
func NewUpstreamMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *UpstreamMetrics {
	um := &UpstreamMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "upstream_requests_total",
				Help:      "Total number of upstream fetches by target and outcome",
			},
			[]string{"target", "outcome"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "upstream_request_duration_seconds",
				Help:      "Duration of upstream fetches in seconds, body read included",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"target"},
		),
	}

	registry.MustRegister(
		um.requestsTotal,
		um.requestDuration,
	)

	return um
}

// RecordFetch records one upstream fetch.
func (um *UpstreamMetrics) RecordFetch(target, outcome string, duration time.Duration) {
	um.requestsTotal.WithLabelValues(target, outcome).Inc()
	um.requestDuration.WithLabelValues(target).Observe(duration.Seconds())
}
