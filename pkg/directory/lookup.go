package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"chaoszone/tileproxy/pkg/cache"
	"chaoszone/tileproxy/pkg/proxy"
	"chaoszone/tileproxy/pkg/telemetry/tracing"
)

// CacheName labels the directory cache in metrics.
const CacheName = "directory"

// DefaultTimeout bounds a directory fetch when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// Option configures a Lookup.
type Option func(*Lookup)

// WithHTTPClient sets the client used to fetch the directory.
func WithHTTPClient(client *http.Client) Option {
	return func(l *Lookup) {
		if client != nil {
			l.client = client
		}
	}
}

// WithTimeout bounds each directory fetch.
func WithTimeout(d time.Duration) Option {
	return func(l *Lookup) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// WithServeStale makes a failed fetch fall back to the last array that was
// fetched successfully, however old it is.
func WithServeStale(enabled bool) Option {
	return func(l *Lookup) {
		l.serveStale = enabled
	}
}

// WithObserver registers an observer for cache and fetch events.
func WithObserver(o proxy.Observer) Option {
	return func(l *Lookup) {
		if o != nil {
			l.observer = o
		}
	}
}

// WithTracer overrides the tracer used for fetch spans.
func WithTracer(t trace.Tracer) Option {
	return func(l *Lookup) {
		if t != nil {
			l.tracer = t
		}
	}
}

// WithLogger overrides the lookup's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Lookup) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Lookup serves filtered directory entries backed by a single-entry cache.
type Lookup struct {
	url        string
	filter     Filter
	slot       *cache.Slot[[]json.RawMessage]
	client     *http.Client
	timeout    time.Duration
	serveStale bool
	observer   proxy.Observer
	tracer     trace.Tracer
	logger     *slog.Logger
}

// New creates a Lookup fetching url and caching the raw array in slot.
func New(url string, filter Filter, slot *cache.Slot[[]json.RawMessage], opts ...Option) *Lookup {
	l := &Lookup{
		url:      url,
		filter:   filter,
		slot:     slot,
		client:   &http.Client{},
		timeout:  DefaultTimeout,
		observer: nopObserver{},
		tracer:   otel.Tracer("chaoszone/tileproxy/pkg/directory"),
		logger:   slog.Default().With("component", "directory.lookup"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Entries returns the matching directory entries. A fresh cached array is
// reused; otherwise the directory is fetched and the cache refreshed.
// Failures are *proxy.UpstreamError.
func (l *Lookup) Entries(ctx context.Context) ([]json.RawMessage, error) {
	span := trace.SpanFromContext(ctx)
	if all, ok := l.slot.Get(); ok {
		l.observer.CacheHit(CacheName)
		tracing.SetCacheAttributes(span, true, CacheName)
		return l.filter.Apply(all), nil
	}
	l.observer.CacheMiss(CacheName)
	tracing.SetCacheAttributes(span, false, CacheName)

	all, err := l.fetch(ctx)
	if err != nil {
		if l.serveStale {
			if last, storedAt, ok := l.slot.Last(); ok {
				l.logger.WarnContext(ctx, "serving stale directory after fetch failure",
					"stored_at", storedAt,
					"error", err,
				)
				return l.filter.Apply(last), nil
			}
		}
		return nil, err
	}

	l.slot.Put(all)
	l.observer.CacheSize(CacheName, 1)
	return l.filter.Apply(all), nil
}

func (l *Lookup) fetch(ctx context.Context) ([]json.RawMessage, error) {
	ctx, span := l.tracer.Start(ctx, "directory.fetch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("http.url", l.url)),
	)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	start := time.Now()
	status, all, err := l.get(ctx)
	duration := time.Since(start)

	l.observer.UpstreamFetch(CacheName, status, duration, err)
	if status != 0 {
		span.SetAttributes(attribute.Int("http.status_code", status))
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		l.logger.WarnContext(ctx, "directory fetch failed", "url", l.url, "error", err)
		return nil, &proxy.UpstreamError{URL: l.url, Err: err}
	}

	span.SetAttributes(attribute.Int("directory.entries", len(all)))
	l.logger.DebugContext(ctx, "directory fetched",
		"entries", len(all),
		"duration_ms", duration.Milliseconds(),
	)
	return all, nil
}

// get issues the request and decodes the array. Non-2xx statuses and
// bodies that are not a JSON array are errors.
func (l *Lookup) get(ctx context.Context) (int, []json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read body: %w", err)
	}

	var all []json.RawMessage
	if err := json.Unmarshal(body, &all); err != nil {
		return resp.StatusCode, nil, fmt.Errorf("decode directory: %w", err)
	}
	if all == nil {
		return resp.StatusCode, nil, errors.New("decode directory: expected a JSON array")
	}
	return resp.StatusCode, all, nil
}

type nopObserver struct{}

func (nopObserver) CacheHit(string) {}
func (nopObserver) CacheMiss(string) {}
func (nopObserver) CacheSize(string, int) {}
func (nopObserver) UpstreamFetch(string, int, time.Duration, error) {}
