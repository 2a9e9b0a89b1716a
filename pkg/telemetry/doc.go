// Package telemetry groups the observability packages of tileproxy.
//
// # Components
//
//   - logging: slog setup with request, target and trace correlation
//   - metrics: Prometheus collectors for requests, upstream fetches and caches
//   - tracing: OpenTelemetry spans exported over OTLP/gRPC
//   - health: liveness, readiness and version endpoints
//
// # Wiring
//
//	logger, _ := logging.New(logging.Config{Level: "info", Format: "json"})
//	slog.SetDefault(logger.Slog())
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry())
//	tracer, _ := tracing.New(&cfg.Telemetry.Tracing, version)
//	defer tracer.Shutdown(context.Background())
//
// The metrics collector satisfies proxy.Observer and is handed to both the
// forwarder and the directory lookup, so cache hits, misses and upstream
// fetches are counted per cache name.
package telemetry
