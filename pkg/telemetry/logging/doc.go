// Package logging provides structured logging for tileproxy.
//
// # Overview
//
// The logging package wraps Go's standard log/slog package to provide:
//   - JSON and text output
//   - Context-aware logging with request IDs, target names and trace IDs
//   - Configurable log levels (debug, info, warn, error)
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger.Slog())
//
//	ctx = logging.WithRequestID(ctx, "req-123")
//	ctx = logging.WithTarget(ctx, "tiles")
//	slog.InfoContext(ctx, "cache miss") // includes request_id and target
//
// # Context Fields
//
// The handler installed by New reads request_id and target from the
// context of every record, and trace_id/span_id from an active
// OpenTelemetry span. Code that logs through slog.Default() therefore gets
// correlation fields without passing a logger around.
package logging
