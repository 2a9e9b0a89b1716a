package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chaoszone/tileproxy/pkg/config"
)

// RequestMetrics tracks inbound HTTP requests per route.
//
// Metrics:
//   - tileproxy_http_requests_total: Requests by route, method and status code
//   - tileproxy_http_request_duration_seconds: Latency by route, method and code
//   - tileproxy_http_requests_in_flight: Requests currently being served
//
// Routes are fixed names ("proxy", "lookup", ...), never raw paths, so the
// label set stays bounded whatever clients request.
type RequestMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	inFlight        prometheus.Gauge
}

// NewRequestMetrics creates and registers request metrics with the provided registry.
func NewRequestMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RequestMetrics {
	rm := &RequestMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests served",
			},
			[]string{"route", "method", "code"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"route", "method", "code"},
		),

		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "http_requests_in_flight",
				Help:      "Number of HTTP requests currently being served",
			},
		),
	}

	registry.MustRegister(
		rm.requestsTotal,
		rm.requestDuration,
		rm.inFlight,
	)

	return rm
}

// InstrumentHandler wraps next so that its requests are counted and timed
// under route. When metrics are disabled next is returned unchanged.
func (c *Collector) InstrumentHandler(route string, next http.Handler) http.Handler {
	if !c.config.Enabled {
		return next
	}

	labels := prometheus.Labels{"route": route}
	counter := c.requestMetrics.requestsTotal.MustCurryWith(labels)
	duration := c.requestMetrics.requestDuration.MustCurryWith(labels)

	return promhttp.InstrumentHandlerInFlight(c.requestMetrics.inFlight,
		promhttp.InstrumentHandlerDuration(duration,
			promhttp.InstrumentHandlerCounter(counter, next),
		),
	)
}
