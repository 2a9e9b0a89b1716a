package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"chaoszone/tileproxy/pkg/cache"
	"chaoszone/tileproxy/pkg/config"
	"chaoszone/tileproxy/pkg/directory"
	"chaoszone/tileproxy/pkg/proxy"
	"chaoszone/tileproxy/pkg/server"
	"chaoszone/tileproxy/pkg/telemetry/health"
	"chaoszone/tileproxy/pkg/telemetry/metrics"
	"chaoszone/tileproxy/pkg/telemetry/tracing"
)

// readinessTimeout bounds each readiness check.
const readinessTimeout = 2 * time.Second

// app holds the long-lived components of a running proxy.
type app struct {
	server    *server.Server
	forwarder *proxy.Forwarder
	lookup    *directory.Lookup
	collector *metrics.Collector
	tracer    *tracing.Tracer
	sweeper   *cache.Sweeper
}

// newApp builds every component from cfg. Nothing is started.
func newApp(cfg *config.Config) (*app, error) {
	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry())

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	provider := tracer.TracerProvider()

	registry := proxy.NewTargetRegistry(cfg.Targets)
	store := cache.New[*proxy.Response](cfg.Cache.TTL)

	forwarder := proxy.NewForwarder(registry, store,
		proxy.WithHTTPClient(proxy.NewUpstreamClient()),
		proxy.WithCachePolicy(proxy.NewCachePolicy(cfg.Cache.CacheableExtensions)),
		proxy.WithPublicBaseURL(cfg.Proxy.PublicBaseURL),
		proxy.WithUpstreamTimeout(cfg.Proxy.UpstreamTimeout),
		proxy.WithDedupe(cfg.Cache.DedupeFetches),
		proxy.WithObserver(collector),
		proxy.WithTracer(provider.Tracer("chaoszone/tileproxy/pkg/proxy")),
	)

	sweeper := cache.NewSweeper(store, cfg.Cache.SweepSchedule)
	sweeper.OnSweep = func(removed, remaining int) {
		collector.CacheSwept(proxy.CacheName, removed, remaining)
	}

	checker := health.New(readinessTimeout)
	checker.RegisterCheck("targets", func(context.Context) error {
		if registry.Len() == 0 {
			return errors.New("no targets configured")
		}
		return nil
	})

	opts := []server.Option{
		server.WithHealthChecker(checker),
		server.WithMetrics(collector, cfg.Telemetry.Metrics.Path),
		server.WithTracer(tracer),
		server.WithVersion(server.VersionInfo{Version: Version, Commit: GitCommit, BuildTime: BuildDate}),
	}

	var lookup *directory.Lookup
	if cfg.Directory.Enabled {
		lookup = directory.New(cfg.Directory.URL,
			directory.Filter{
				Field:    cfg.Directory.Field,
				SubField: cfg.Directory.SubField,
				Match:    cfg.Directory.Match,
			},
			cache.NewSlot[[]json.RawMessage](cfg.Directory.TTL),
			directory.WithTimeout(cfg.Directory.Timeout),
			directory.WithServeStale(cfg.Directory.ServeStaleOnError),
			directory.WithObserver(collector),
			directory.WithTracer(provider.Tracer("chaoszone/tileproxy/pkg/directory")),
		)
		opts = append(opts, server.WithDirectory(lookup))
	}

	return &app{
		server:    server.NewServer(&cfg.Proxy, forwarder, opts...),
		forwarder: forwarder,
		lookup:    lookup,
		collector: collector,
		tracer:    tracer,
		sweeper:   sweeper,
	}, nil
}

// run starts the sweeper and serves until ctx is cancelled.
func (a *app) run(ctx context.Context) error {
	if err := a.sweeper.Start(ctx); err != nil {
		return err
	}
	defer a.sweeper.Stop()

	if next := a.sweeper.NextRun(); next != nil {
		slog.Debug("cache sweeper scheduled", "next_run", next)
	}

	return a.server.Start(ctx)
}

// close flushes telemetry.
func (a *app) close(ctx context.Context) {
	if err := a.tracer.Shutdown(ctx); err != nil {
		slog.Warn("tracer shutdown failed", "error", err)
	}
}
