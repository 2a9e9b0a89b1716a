package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// An empty path yields the built-in defaults. Defaults are applied and the
// result is validated; environment variables are not consulted, use
// LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention TILEPROXY_SECTION_FIELD (e.g., TILEPROXY_PROXY_LISTEN_ADDRESS)
// and always take precedence over the file.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	// Proxy overrides
	if val := os.Getenv("TILEPROXY_PROXY_LISTEN_ADDRESS"); val != "" {
		cfg.Proxy.ListenAddress = val
	}
	if val := os.Getenv("TILEPROXY_PROXY_PUBLIC_BASE_URL"); val != "" {
		cfg.Proxy.PublicBaseURL = val
	}
	envDuration("TILEPROXY_PROXY_READ_TIMEOUT", &cfg.Proxy.ReadTimeout)
	envDuration("TILEPROXY_PROXY_WRITE_TIMEOUT", &cfg.Proxy.WriteTimeout)
	envDuration("TILEPROXY_PROXY_IDLE_TIMEOUT", &cfg.Proxy.IdleTimeout)
	envDuration("TILEPROXY_PROXY_SHUTDOWN_TIMEOUT", &cfg.Proxy.ShutdownTimeout)
	envDuration("TILEPROXY_PROXY_UPSTREAM_TIMEOUT", &cfg.Proxy.UpstreamTimeout)
	if val := os.Getenv("TILEPROXY_PROXY_MAX_HEADER_BYTES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Proxy.MaxHeaderBytes = i
		}
	}
	envBool("TILEPROXY_PROXY_CORS_ENABLED", &cfg.Proxy.CORS.Enabled)

	// Target overrides: TILEPROXY_TARGETS_<NAME>=<base url>. Underscores in
	// NAME map to dashes so that "maplibre-gl" is TILEPROXY_TARGETS_MAPLIBRE_GL.
	for _, kv := range os.Environ() {
		key, val, ok := strings.Cut(kv, "=")
		if !ok || val == "" || !strings.HasPrefix(key, "TILEPROXY_TARGETS_") {
			continue
		}
		name := strings.ToLower(strings.TrimPrefix(key, "TILEPROXY_TARGETS_"))
		name = strings.ReplaceAll(name, "_", "-")
		if name == "" {
			continue
		}
		if cfg.Targets == nil {
			cfg.Targets = make(map[string]string)
		}
		cfg.Targets[name] = val
	}

	// Cache overrides
	envDuration("TILEPROXY_CACHE_TTL", &cfg.Cache.TTL)
	envBool("TILEPROXY_CACHE_DEDUPE_FETCHES", &cfg.Cache.DedupeFetches)
	if val := os.Getenv("TILEPROXY_CACHE_SWEEP_SCHEDULE"); val != "" {
		cfg.Cache.SweepSchedule = val
	}
	if val := os.Getenv("TILEPROXY_CACHE_CACHEABLE_EXTENSIONS"); val != "" {
		var exts []string
		for _, ext := range strings.Split(val, ",") {
			if ext = strings.TrimSpace(ext); ext != "" {
				exts = append(exts, ext)
			}
		}
		cfg.Cache.CacheableExtensions = exts
	}

	// Directory overrides
	envBool("TILEPROXY_DIRECTORY_ENABLED", &cfg.Directory.Enabled)
	if val := os.Getenv("TILEPROXY_DIRECTORY_URL"); val != "" {
		cfg.Directory.URL = val
	}
	envDuration("TILEPROXY_DIRECTORY_TTL", &cfg.Directory.TTL)
	envDuration("TILEPROXY_DIRECTORY_TIMEOUT", &cfg.Directory.Timeout)
	if val := os.Getenv("TILEPROXY_DIRECTORY_MATCH"); val != "" {
		cfg.Directory.Match = val
	}
	envBool("TILEPROXY_DIRECTORY_SERVE_STALE_ON_ERROR", &cfg.Directory.ServeStaleOnError)

	// Telemetry overrides
	if val := os.Getenv("TILEPROXY_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("TILEPROXY_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	envBool("TILEPROXY_TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	if val := os.Getenv("TILEPROXY_TELEMETRY_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}
	envBool("TILEPROXY_TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	if val := os.Getenv("TILEPROXY_TELEMETRY_TRACING_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}
	if val := os.Getenv("TILEPROXY_TELEMETRY_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

func envBool(key string, dst *bool) {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}
