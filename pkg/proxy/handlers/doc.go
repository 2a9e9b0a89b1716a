// Package handlers provides the HTTP handlers of the proxy surface.
//
//   - ProxyHandler: GET /proxy/{target} and GET /proxy/{target}/{path...}
//   - LookupHandler: GET /lookup
//
// Handlers translate between HTTP and the proxy and directory packages.
// They depend on the small Forwarder and Directory interfaces so tests can
// substitute fakes. Errors are written with proxy.WriteError, which maps
// an unknown target to 404 and an upstream failure to 502.
//
// Liveness and readiness are served by the telemetry/health package.
package handlers
