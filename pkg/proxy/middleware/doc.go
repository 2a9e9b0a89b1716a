// Package middleware provides HTTP middleware for cross-cutting concerns.
//
// # Middleware Chain
//
// The server chains middleware in this order:
//
//	handler = Recovery(Logging(RequestID(CORS(mux))))
//
// Order (innermost to outermost):
//  1. CORS: answer preflights and add Cross-Origin Resource Sharing headers
//  2. RequestID: generate and propagate the request ID
//  3. Logging: log method, path, status, size and latency
//  4. Recovery: recover from panics with a plain-text 500
//
// # Request ID
//
// RequestIDMiddleware generates a UUID v4 per request unless the client
// sent an X-Request-ID header:
//
//	X-Request-ID: 550e8400-e29b-41d4-a716-446655440000
//
// The ID is stored with logging.WithRequestID, so every slog record written
// with the request context carries request_id. It is echoed in the response
// and never forwarded upstream.
package middleware
