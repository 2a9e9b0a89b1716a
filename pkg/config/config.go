package config

import "time"

// Config is the root configuration structure for tileproxy.
// It contains the proxy server settings, the upstream target registry,
// cache behavior, the directory lookup endpoint and telemetry.
type Config struct {
	// Proxy contains HTTP server configuration including listen address,
	// timeouts and CORS.
	Proxy ProxyConfig `yaml:"proxy"`

	// Targets maps a short target name to an upstream base URL.
	// Requests to /proxy/{name}/{path} are forwarded to Targets[name] + path.
	// The registry is built once at startup and never reloaded.
	Targets map[string]string `yaml:"targets"`

	// Cache contains response cache configuration.
	Cache CacheConfig `yaml:"cache"`

	// Directory contains configuration for the filtered directory lookup
	// passthrough served at /lookup.
	Directory DirectoryConfig `yaml:"directory"`

	// Telemetry contains configuration for logging, metrics and tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ProxyConfig contains configuration for the HTTP proxy server.
type ProxyConfig struct {
	// ListenAddress is the address and port for the proxy to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:8080", "0.0.0.0:8080").
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// PublicBaseURL is the externally visible base URL of the proxy
	// (e.g., "https://map.example.org"). Upstream URLs in rewritten bodies
	// and Location headers are replaced with PublicBaseURL/{target}.
	// When empty, the scheme and Host of each inbound request are used.
	PublicBaseURL string `yaml:"public_base_url"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. Zero means no timeout, which is the default because large
	// upstream responses are relayed without a deadline.
	// Default: 0
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits the size of request headers.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// UpstreamTimeout bounds a single outbound proxy fetch.
	// Zero means no timeout.
	// Default: 0
	UpstreamTimeout time.Duration `yaml:"upstream_timeout"`

	// CORS contains Cross-Origin Resource Sharing configuration.
	CORS CORSConfig `yaml:"cors"`
}

// CORSConfig contains CORS (Cross-Origin Resource Sharing) configuration.
type CORSConfig struct {
	// Enabled controls whether CORS headers are added.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// AllowedOrigins is a list of allowed origins. Use ["*"] to allow all.
	// Default: ["*"]
	AllowedOrigins []string `yaml:"allowed_origins"`

	// AllowedMethods is a list of allowed HTTP methods.
	// Default: ["GET", "OPTIONS"]
	AllowedMethods []string `yaml:"allowed_methods"`

	// AllowedHeaders is a list of allowed request headers.
	// Default: ["Range", "If-Range", "Accept", "X-Playback-Session-Id", "X-Request-ID"]
	AllowedHeaders []string `yaml:"allowed_headers"`

	// ExposedHeaders is a list of headers exposed to the client.
	// Default: ["X-Request-ID", "Content-Range", "Accept-Ranges"]
	ExposedHeaders []string `yaml:"exposed_headers"`

	// MaxAge is the preflight cache lifetime in seconds.
	// Default: 3600
	MaxAge int `yaml:"max_age"`
}

// CacheConfig contains configuration for the proxy response cache.
type CacheConfig struct {
	// TTL is how long a cached response stays valid.
	// Default: 24h
	TTL time.Duration `yaml:"ttl"`

	// CacheableExtensions lists the sub-path extensions eligible for caching.
	// Default: [".json", ".js", ".css"]
	CacheableExtensions []string `yaml:"cacheable_extensions"`

	// DedupeFetches collapses concurrent misses on the same key into a
	// single upstream fetch. When false, concurrent misses each fetch and
	// the last writer wins.
	// Default: false
	DedupeFetches bool `yaml:"dedupe_fetches"`

	// SweepSchedule is an optional cron expression. When set, expired
	// entries are removed on that schedule. Fresh entries are never removed.
	// Example: "@every 1h", "0 * * * *"
	// Default: "" (lazy expiry only)
	SweepSchedule string `yaml:"sweep_schedule"`
}

// DirectoryConfig contains configuration for the directory lookup endpoint.
type DirectoryConfig struct {
	// Enabled controls whether /lookup is served.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// URL is the upstream directory API returning a JSON array.
	// Default: "https://api.spaceapi.io/"
	URL string `yaml:"url"`

	// TTL is how long the fetched array is reused.
	// Default: 60s
	TTL time.Duration `yaml:"ttl"`

	// Timeout bounds the upstream fetch.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`

	// Field is the key of the nested object inspected in each entry.
	// Default: "data"
	Field string `yaml:"field"`

	// SubField is the key inside Field whose value is compared.
	// Default: "ext_habitat"
	SubField string `yaml:"sub_field"`

	// Match is the value SubField must equal, compared case-insensitively.
	// Default: "ChaosZone"
	Match string `yaml:"match"`

	// ServeStaleOnError returns the last successfully fetched array when a
	// refresh fails instead of failing the request.
	// Default: false
	ServeStaleOnError bool `yaml:"serve_stale_on_error"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "tileproxy"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: ""
	Subsystem string `yaml:"subsystem"`

	// RequestDurationBuckets defines histogram buckets for upstream fetch
	// duration in seconds.
	// Default: [0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10]
	RequestDurationBuckets []float64 `yaml:"request_duration_buckets"`
}

// TracingConfig contains OpenTelemetry tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS to the collector.
	Insecure bool `yaml:"insecure"`

	// ServiceName is the service name in traces.
	// Default: "tileproxy"
	ServiceName string `yaml:"service_name"`
}
