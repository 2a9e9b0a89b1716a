// Package server provides the HTTP server of tileproxy.
//
// The server ties the handlers, middleware and telemetry packages together
// and owns the listener lifecycle.
//
// # Routes
//
//	GET /proxy/{target}            relay the target's base URL
//	GET /proxy/{target}/{path...}  relay a path below the target
//	GET /lookup                    filtered directory (WithDirectory only)
//	GET /health                    liveness
//	GET /ready                     readiness
//	GET /version                   build information
//	GET /metrics                   Prometheus (WithMetrics only, path configurable)
//
// The /proxy and /lookup routes are wrapped with a server span and request
// metrics labelled by route name.
//
// # Middleware
//
// Every request passes through, outermost first:
//
//	Recovery -> Logging -> RequestID -> CORS -> mux
//
// # Usage
//
//	srv := server.NewServer(&cfg.Proxy, forwarder,
//	    server.WithDirectory(lookup),
//	    server.WithHealthChecker(checker),
//	    server.WithMetrics(collector, cfg.Telemetry.Metrics.Path),
//	    server.WithTracer(tracer),
//	)
//	if err := srv.Start(ctx); err != nil {
//	    return err
//	}
//
// Start blocks until ctx is cancelled, then shuts down gracefully within
// proxy.shutdown_timeout.
package server
