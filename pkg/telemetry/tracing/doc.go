// Package tracing provides OpenTelemetry tracing for tileproxy.
//
// # Overview
//
// When enabled, spans are exported over OTLP/gRPC. The server wraps every
// route in a server span (continuing any W3C traceparent sent by the
// client), and the proxy forwarder and directory lookup open client spans
// around each upstream fetch. When disabled a no-op tracer is used.
//
// Trace context is never injected into upstream requests.
//
// # Sampling Strategies
//
//   - always: Sample all traces (development/debugging)
//   - never: Sample no traces
//   - ratio: Sample a fraction of traces (production)
//
// All samplers respect the parent's decision when a traceparent is present.
//
// # Usage
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	handler = tracing.HTTPMiddleware(tracer, "proxy")(handler)
package tracing
