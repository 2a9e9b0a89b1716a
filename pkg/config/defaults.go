package config

import "time"

// Default values for configuration fields.
const (
	// Proxy defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB

	// CORS defaults
	DefaultCORSEnabled = true
	DefaultCORSMaxAge  = 3600

	// Cache defaults
	DefaultCacheTTL = 24 * time.Hour

	// Directory defaults
	DefaultDirectoryEnabled  = true
	DefaultDirectoryURL      = "https://api.spaceapi.io/"
	DefaultDirectoryTTL      = 60 * time.Second
	DefaultDirectoryTimeout  = 10 * time.Second
	DefaultDirectoryField    = "data"
	DefaultDirectorySubField = "ext_habitat"
	DefaultDirectoryMatch    = "ChaosZone"

	// Telemetry defaults
	DefaultLoggingLevel        = "info"
	DefaultLoggingFormat       = "json"
	DefaultMetricsEnabled      = true
	DefaultPrometheusPath      = "/metrics"
	DefaultMetricsNamespace    = "tileproxy"
	DefaultTracingSampler      = "ratio"
	DefaultTracingSamplingRate = 1.0
	DefaultTracingServiceName  = "tileproxy"
)

// DefaultTargets returns the upstream registry used when none is configured.
func DefaultTargets() map[string]string {
	return map[string]string{
		"tiles":       "https://tiles.openfreemap.org/",
		"maplibre-gl": "https://unpkg.com/maplibre-gl@5.1.0/",
	}
}

// DefaultCacheableExtensions returns the sub-path extensions cached by default.
func DefaultCacheableExtensions() []string {
	return []string{".json", ".js", ".css"}
}

// DefaultConfig returns a configuration with every boolean default set.
// LoadConfig decodes YAML on top of it so that booleans omitted from the
// file keep their defaults while explicit false values are honored.
func DefaultConfig() *Config {
	cfg := &Config{
		Proxy: ProxyConfig{
			CORS: CORSConfig{Enabled: DefaultCORSEnabled},
		},
		Directory: DirectoryConfig{Enabled: DefaultDirectoryEnabled},
		Telemetry: TelemetryConfig{
			Metrics: MetricsConfig{Enabled: DefaultMetricsEnabled},
		},
	}
	ApplyDefaults(cfg)
	cfg.Targets = nil
	cfg.Cache.CacheableExtensions = nil
	return cfg
}

// ApplyDefaults fills zero-valued fields with their defaults. Booleans are
// left untouched; see DefaultConfig.
func ApplyDefaults(cfg *Config) {
	// Proxy defaults
	if cfg.Proxy.ListenAddress == "" {
		cfg.Proxy.ListenAddress = DefaultListenAddress
	}
	if cfg.Proxy.ReadTimeout == 0 {
		cfg.Proxy.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Proxy.IdleTimeout == 0 {
		cfg.Proxy.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Proxy.ShutdownTimeout == 0 {
		cfg.Proxy.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Proxy.MaxHeaderBytes == 0 {
		cfg.Proxy.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	applyCORSDefaults(&cfg.Proxy.CORS)

	if len(cfg.Targets) == 0 {
		cfg.Targets = DefaultTargets()
	}

	// Cache defaults
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = DefaultCacheTTL
	}
	if len(cfg.Cache.CacheableExtensions) == 0 {
		cfg.Cache.CacheableExtensions = DefaultCacheableExtensions()
	}

	// Directory defaults
	if cfg.Directory.URL == "" {
		cfg.Directory.URL = DefaultDirectoryURL
	}
	if cfg.Directory.TTL == 0 {
		cfg.Directory.TTL = DefaultDirectoryTTL
	}
	if cfg.Directory.Timeout == 0 {
		cfg.Directory.Timeout = DefaultDirectoryTimeout
	}
	if cfg.Directory.Field == "" {
		cfg.Directory.Field = DefaultDirectoryField
	}
	if cfg.Directory.SubField == "" {
		cfg.Directory.SubField = DefaultDirectorySubField
	}
	if cfg.Directory.Match == "" {
		cfg.Directory.Match = DefaultDirectoryMatch
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultPrometheusPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if len(cfg.Telemetry.Metrics.RequestDurationBuckets) == 0 {
		cfg.Telemetry.Metrics.RequestDurationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSamplingRate
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
}

func applyCORSDefaults(cors *CORSConfig) {
	if len(cors.AllowedOrigins) == 0 {
		cors.AllowedOrigins = []string{"*"}
	}
	if len(cors.AllowedMethods) == 0 {
		cors.AllowedMethods = []string{"GET", "OPTIONS"}
	}
	if len(cors.AllowedHeaders) == 0 {
		cors.AllowedHeaders = []string{"Range", "If-Range", "Accept", "X-Playback-Session-Id", "X-Request-ID"}
	}
	if len(cors.ExposedHeaders) == 0 {
		cors.ExposedHeaders = []string{"X-Request-ID", "Content-Range", "Accept-Ranges"}
	}
	if cors.MaxAge == 0 {
		cors.MaxAge = DefaultCORSMaxAge
	}
}
