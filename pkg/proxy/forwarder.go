package proxy

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"chaoszone/tileproxy/pkg/cache"
	"chaoszone/tileproxy/pkg/telemetry/tracing"
)

// CacheName labels the proxy response cache in metrics.
const CacheName = "proxy"

// Observer receives cache and upstream events. The metrics collector
// implements it; a nil Observer is replaced by a no-op.
type Observer interface {
	CacheHit(cacheName string)
	CacheMiss(cacheName string)
	CacheSize(cacheName string, entries int)
	UpstreamFetch(target string, status int, duration time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) CacheHit(string) {}
func (nopObserver) CacheMiss(string) {}
func (nopObserver) CacheSize(string, int) {}
func (nopObserver) UpstreamFetch(string, int, time.Duration, error) {}

// ForwarderOption configures a Forwarder.
type ForwarderOption func(*Forwarder)

// WithHTTPClient sets the client used for upstream fetches.
func WithHTTPClient(client *http.Client) ForwarderOption {
	return func(f *Forwarder) {
		if client != nil {
			f.client = client
		}
	}
}

// WithCachePolicy sets which sub-paths are cacheable.
func WithCachePolicy(policy *CachePolicy) ForwarderOption {
	return func(f *Forwarder) {
		if policy != nil {
			f.policy = policy
		}
	}
}

// WithPublicBaseURL fixes the proxy base URL used in rewrites instead of
// deriving it from each inbound request.
func WithPublicBaseURL(baseURL string) ForwarderOption {
	return func(f *Forwarder) {
		f.publicBaseURL = baseURL
	}
}

// WithUpstreamTimeout bounds each upstream fetch. Zero disables the bound.
func WithUpstreamTimeout(d time.Duration) ForwarderOption {
	return func(f *Forwarder) {
		f.upstreamTimeout = d
	}
}

// WithDedupe collapses concurrent misses for the same cacheable key into a
// single upstream fetch whose result is shared by all waiters.
func WithDedupe(enabled bool) ForwarderOption {
	return func(f *Forwarder) {
		if enabled {
			f.group = &singleflight.Group{}
		} else {
			f.group = nil
		}
	}
}

// WithObserver registers an Observer for cache and upstream events.
func WithObserver(o Observer) ForwarderOption {
	return func(f *Forwarder) {
		if o != nil {
			f.observer = o
		}
	}
}

// WithTracer overrides the tracer used for upstream spans.
func WithTracer(t trace.Tracer) ForwarderOption {
	return func(f *Forwarder) {
		if t != nil {
			f.tracer = t
		}
	}
}

// WithLogger overrides the forwarder's logger.
func WithLogger(l *slog.Logger) ForwarderOption {
	return func(f *Forwarder) {
		if l != nil {
			f.logger = l
		}
	}
}

// Forwarder relays requests to registered targets through the response
// cache.
type Forwarder struct {
	registry        *TargetRegistry
	cache           *cache.TTLCache[*Response]
	policy          *CachePolicy
	client          *http.Client
	publicBaseURL   string
	upstreamTimeout time.Duration
	group           *singleflight.Group
	observer        Observer
	tracer          trace.Tracer
	logger          *slog.Logger
}

// NewForwarder creates a Forwarder. The cache is shared by every request
// served by the Forwarder and should be constructed once per process.
func NewForwarder(registry *TargetRegistry, store *cache.TTLCache[*Response], opts ...ForwarderOption) *Forwarder {
	f := &Forwarder{
		registry: registry,
		cache:    store,
		policy:   defaultPolicy,
		client:   NewUpstreamClient(),
		observer: nopObserver{},
		tracer:   otel.Tracer("chaoszone/tileproxy/pkg/proxy"),
		logger:   slog.Default().With("component", "proxy.forwarder"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewUpstreamClient returns the HTTP client used for upstream fetches.
// Redirects are not followed so that Location can be rewritten and the
// client follows it back through the proxy.
func NewUpstreamClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// Handle serves subPath of target for the inbound request in.
//
// Cacheable paths are answered from the cache when a fresh entry exists;
// the stored response is returned as is. Otherwise the upstream is fetched,
// the response rewritten, stored when cacheable (whatever its status) and
// returned. Errors are *NotFoundError or *UpstreamError.
func (f *Forwarder) Handle(ctx context.Context, target, subPath string, in *http.Request) (*Response, error) {
	baseURL, err := f.registry.Resolve(target)
	if err != nil {
		return nil, err
	}

	targetURL := joinURL(baseURL, subPath)
	key := CacheKey(target, subPath)
	cacheable := f.policy.IsCacheable(subPath)

	if cacheable {
		span := trace.SpanFromContext(ctx)
		if resp, ok := f.cache.Get(key); ok {
			f.observer.CacheHit(CacheName)
			tracing.SetCacheAttributes(span, true, CacheName)
			f.logger.DebugContext(ctx, "cache hit", "target", target, "path", subPath)
			return resp, nil
		}
		f.observer.CacheMiss(CacheName)
		tracing.SetCacheAttributes(span, false, CacheName)
	}

	proxyBaseURL := f.publicBaseURL
	if proxyBaseURL == "" {
		proxyBaseURL = RequestBaseURL(in)
	}
	headers := ForwardHeaders(in)

	load := func(ctx context.Context) (*Response, error) {
		up, err := f.fetch(ctx, target, targetURL, headers)
		if err != nil {
			return nil, err
		}

		resp, err := Rewrite(up, target, proxyBaseURL, baseURL)
		if err != nil {
			return nil, &UpstreamError{URL: targetURL, Err: err}
		}

		if cacheable {
			f.cache.Put(key, resp)
			f.observer.CacheSize(CacheName, f.cache.Len())
		}
		return resp, nil
	}

	if !cacheable || f.group == nil {
		return load(ctx)
	}

	// The shared fetch outlives any one caller; each caller still stops
	// waiting when its own context ends.
	shared := context.WithoutCancel(ctx)
	ch := f.group.DoChan(key, func() (interface{}, error) {
		// A flight that finished just before this one may have filled the key.
		if resp, ok := f.cache.Get(key); ok {
			return resp, nil
		}
		return load(shared)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			f.logger.DebugContext(ctx, "shared upstream fetch", "target", target, "path", subPath)
		}
		return res.Val.(*Response), nil
	case <-ctx.Done():
		return nil, &UpstreamError{URL: targetURL, Err: ctx.Err()}
	}
}

// fetch performs the outbound GET and reads the whole body.
func (f *Forwarder) fetch(ctx context.Context, target, targetURL string, headers http.Header) (*Upstream, error) {
	ctx, span := f.tracer.Start(ctx, "proxy.fetch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			tracing.AttrTarget.String(target),
			attribute.String("http.url", targetURL),
		),
	)
	defer span.End()

	if f.upstreamTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.upstreamTimeout)
		defer cancel()
	}

	start := time.Now()
	up, err := f.do(ctx, targetURL, headers)
	duration := time.Since(start)

	status := 0
	if up != nil {
		status = up.Status
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
	f.observer.UpstreamFetch(target, status, duration, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		f.logger.WarnContext(ctx, "upstream fetch failed",
			"target", target,
			"url", targetURL,
			"error", err,
		)
		return nil, err
	}

	f.logger.DebugContext(ctx, "upstream fetch completed",
		"target", target,
		"url", targetURL,
		"status", status,
		"duration_ms", duration.Milliseconds(),
		"bytes", len(up.Body),
	)
	return up, nil
}

func (f *Forwarder) do(ctx context.Context, targetURL string, headers http.Header) (*Upstream, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, &UpstreamError{URL: targetURL, Err: err}
	}
	req.Header = headers.Clone()

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &UpstreamError{URL: targetURL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{URL: targetURL, Err: fmt.Errorf("read body: %w", err)}
	}

	return &Upstream{
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   body,
	}, nil
}

// Registry returns the target registry.
func (f *Forwarder) Registry() *TargetRegistry {
	return f.registry
}
