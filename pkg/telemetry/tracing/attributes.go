package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys shared by the proxy and directory spans.
const (
	AttrCacheHit  = attribute.Key("cache.hit")
	AttrCacheName = attribute.Key("cache.name")
	AttrTarget    = attribute.Key("proxy.target")
)

// SetCacheAttributes records the outcome of a cache lookup on span.
func SetCacheAttributes(span trace.Span, hit bool, cacheName string) {
	span.SetAttributes(
		AttrCacheHit.Bool(hit),
		AttrCacheName.String(cacheName),
	)
}
