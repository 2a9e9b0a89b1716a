package config

import (
	"errors"
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	ApplyDefaults(cfg)
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{
			name:   "bad listen address",
			mutate: func(c *Config) { c.Proxy.ListenAddress = "8080" },
			field:  "proxy.listen_address",
		},
		{
			name:   "relative public base url",
			mutate: func(c *Config) { c.Proxy.PublicBaseURL = "/map" },
			field:  "proxy.public_base_url",
		},
		{
			name:   "negative upstream timeout",
			mutate: func(c *Config) { c.Proxy.UpstreamTimeout = -1 },
			field:  "proxy.upstream_timeout",
		},
		{
			name:   "no targets",
			mutate: func(c *Config) { c.Targets = map[string]string{} },
			field:  "targets",
		},
		{
			name:   "target name with slash",
			mutate: func(c *Config) { c.Targets = map[string]string{"a/b": "https://x.example/"} },
			field:  "targets.a/b",
		},
		{
			name:   "target without host",
			mutate: func(c *Config) { c.Targets = map[string]string{"tiles": "https:///tiles"} },
			field:  "targets.tiles",
		},
		{
			name:   "zero cache ttl",
			mutate: func(c *Config) { c.Cache.TTL = 0 },
			field:  "cache.ttl",
		},
		{
			name:   "extension without dot",
			mutate: func(c *Config) { c.Cache.CacheableExtensions = []string{"json"} },
			field:  "cache.cacheable_extensions[0]",
		},
		{
			name:   "bad sweep schedule",
			mutate: func(c *Config) { c.Cache.SweepSchedule = "every hour" },
			field:  "cache.sweep_schedule",
		},
		{
			name:   "directory url scheme",
			mutate: func(c *Config) { c.Directory.URL = "file:///etc/passwd" },
			field:  "directory.url",
		},
		{
			name:   "unknown log level",
			mutate: func(c *Config) { c.Telemetry.Logging.Level = "trace" },
			field:  "telemetry.logging.level",
		},
		{
			name:   "metrics path without slash",
			mutate: func(c *Config) { c.Telemetry.Metrics.Path = "metrics" },
			field:  "telemetry.metrics.path",
		},
		{
			name: "tracing without endpoint",
			mutate: func(c *Config) {
				c.Telemetry.Tracing.Enabled = true
				c.Telemetry.Tracing.Endpoint = ""
			},
			field: "telemetry.tracing.endpoint",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}

			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %T", err)
			}

			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error for field %q, got %v", tt.field, verr.Errors)
			}
		})
	}
}

func TestValidate_DisabledDirectorySkipsChecks(t *testing.T) {
	cfg := validConfig()
	cfg.Directory.Enabled = false
	cfg.Directory.URL = "not a url"

	if err := Validate(cfg); err != nil {
		t.Errorf("disabled directory should not be validated: %v", err)
	}
}

func TestValidationError_Message(t *testing.T) {
	err := ValidationError{Errors: []FieldError{
		{Field: "a", Message: "first"},
		{Field: "b", Message: "second"},
	}}

	msg := err.Error()
	if !strings.Contains(msg, "2 errors") {
		t.Errorf("expected error count in message, got %q", msg)
	}
	if !strings.Contains(msg, "a: first") || !strings.Contains(msg, "b: second") {
		t.Errorf("expected both field errors in message, got %q", msg)
	}
}
