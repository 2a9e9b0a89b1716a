package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"chaoszone/tileproxy/pkg/config"
	"chaoszone/tileproxy/pkg/proxy/handlers"
	"chaoszone/tileproxy/pkg/proxy/middleware"
	"chaoszone/tileproxy/pkg/telemetry/health"
	"chaoszone/tileproxy/pkg/telemetry/metrics"
	"chaoszone/tileproxy/pkg/telemetry/tracing"
)

// Server is the HTTP front of the tile proxy.
type Server struct {
	config    *config.ProxyConfig
	forwarder handlers.Forwarder
	directory handlers.Directory
	checker   *health.Checker
	metrics   *metrics.Collector
	metricsAt string
	tracer    *tracing.Tracer
	version   VersionInfo

	httpServer   *http.Server
	listener     net.Listener
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// VersionInfo is reported on /version.
type VersionInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// Option configures optional server components.
type Option func(*Server)

// WithDirectory serves /lookup from d. Without it the route is not
// registered.
func WithDirectory(d handlers.Directory) Option {
	return func(s *Server) {
		s.directory = d
	}
}

// WithHealthChecker sets the checker behind /health and /ready.
func WithHealthChecker(c *health.Checker) Option {
	return func(s *Server) {
		if c != nil {
			s.checker = c
		}
	}
}

// WithMetrics instruments every route and serves the collector's registry
// at path.
func WithMetrics(c *metrics.Collector, path string) Option {
	return func(s *Server) {
		s.metrics = c
		s.metricsAt = path
	}
}

// WithTracer opens a server span per request.
func WithTracer(t *tracing.Tracer) Option {
	return func(s *Server) {
		s.tracer = t
	}
}

// WithVersion sets the build information served on /version.
func WithVersion(v VersionInfo) Option {
	return func(s *Server) {
		s.version = v
	}
}

// NewServer creates a server that relays /proxy requests through fwd.
func NewServer(cfg *config.ProxyConfig, fwd handlers.Forwarder, opts ...Option) *Server {
	s := &Server{
		config:    cfg,
		forwarder: fwd,
		checker:   health.New(0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start listens on the configured address and serves until ctx is
// cancelled or the listener fails. Cancellation triggers a graceful
// shutdown bounded by the configured shutdown timeout.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}

	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("listen on %s: %w", s.config.ListenAddress, err)
	}

	s.listener = ln
	s.httpServer = &http.Server{
		Handler:        s.Handler(),
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		IdleTimeout:    s.config.IdleTimeout,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
	}
	s.isRunning = true
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting proxy server", "address", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return err
	}
}

// Shutdown gracefully shuts down the server. It is safe to call more than
// once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		slog.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx := ctx
		if s.config.ShutdownTimeout > 0 {
			var cancel context.CancelFunc
			shutdownCtx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
			defer cancel()
		}

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		slog.Info("proxy server stopped")
	})

	return shutdownErr
}

// Addr returns the address the server is listening on, or nil before
// Start.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	proxyHandler := s.instrument("proxy", handlers.NewProxyHandler(s.forwarder))
	mux.Handle("GET /proxy/{target}", proxyHandler)
	mux.Handle("GET /proxy/{target}/{path...}", proxyHandler)

	if s.directory != nil {
		mux.Handle("GET /lookup", s.instrument("lookup", handlers.NewLookupHandler(s.directory)))
	}

	mux.Handle("GET /health", s.checker.LivenessHandler())
	mux.Handle("GET /ready", s.checker.ReadinessHandler())
	mux.Handle("GET /version", health.VersionHandler(s.version.Version, s.version.Commit, s.version.BuildTime))

	if s.metrics != nil && s.metrics.Enabled() && s.metricsAt != "" {
		mux.Handle("GET "+s.metricsAt, s.metrics.Handler())
	}

	var handler http.Handler = mux

	handler = middleware.CORSMiddleware(s.corsConfig())(handler)

	handler = middleware.RequestIDMiddleware(handler)

	handler = middleware.LoggingMiddleware(handler)

	// Recovery middleware (outermost)
	handler = middleware.RecoveryMiddleware(handler)

	return handler
}

// instrument wraps a route with the server span and the request metrics.
func (s *Server) instrument(route string, h http.Handler) http.Handler {
	if s.tracer != nil {
		h = tracing.HTTPMiddleware(s.tracer, route)(h)
	}
	if s.metrics != nil {
		h = s.metrics.InstrumentHandler(route, h)
	}
	return h
}

func (s *Server) corsConfig() *middleware.CORSConfig {
	return &middleware.CORSConfig{
		Enabled:        s.config.CORS.Enabled,
		AllowedOrigins: s.config.CORS.AllowedOrigins,
		AllowedMethods: s.config.CORS.AllowedMethods,
		AllowedHeaders: s.config.CORS.AllowedHeaders,
		ExposedHeaders: s.config.CORS.ExposedHeaders,
		MaxAge:         s.config.CORS.MaxAge,
	}
}
