// Package health provides the liveness, readiness and version endpoints of
// tileproxy.
//
// # Endpoints
//
//   - /health: liveness, 200 whenever the process can answer
//   - /ready: readiness, 200 when every registered check passes, else 503
//   - /version: build information
//
// # Usage
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("targets", func(ctx context.Context) error {
//	    if registry.Len() == 0 {
//	        return errors.New("no targets configured")
//	    }
//	    return nil
//	})
//
//	mux.Handle("GET /health", checker.LivenessHandler())
//	mux.Handle("GET /ready", checker.ReadinessHandler())
//
// Readiness checks run concurrently, each bounded by the checker's timeout.
// A check that does not return in time is reported as unhealthy.
package health
