// Package metrics provides Prometheus metrics collection for tileproxy.
//
// # Metrics Categories
//
//   - Request Metrics: inbound requests by route, method and status code
//   - Upstream Metrics: outbound fetches by target and outcome, latency
//   - Cache Metrics: hits, misses, stored entries and swept entries
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	forwarder := proxy.NewForwarder(registry, store,
//		proxy.WithObserver(collector),
//	)
//
//	mux.Handle("GET /proxy/{target}", collector.InstrumentHandler("proxy", h))
//	mux.Handle("GET /metrics", collector.Handler())
//
// # Useful Queries
//
// Proxy cache hit ratio:
//
//	rate(tileproxy_cache_hits_total{cache="proxy"}[5m]) /
//	(rate(tileproxy_cache_hits_total{cache="proxy"}[5m]) +
//	 rate(tileproxy_cache_misses_total{cache="proxy"}[5m]))
package metrics
