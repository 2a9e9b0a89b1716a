package proxy

import (
	"path"
	"strings"
)

// DefaultCacheableExtensions are the sub-path extensions cached unless
// configured otherwise.
var DefaultCacheableExtensions = []string{".json", ".js", ".css"}

// CachePolicy decides which sub-paths may be served from and stored in the
// response cache.
type CachePolicy struct {
	extensions map[string]struct{}
}

// NewCachePolicy creates a policy caching the given extensions. Extensions
// are matched case-sensitively and must include the leading dot. An empty
// list falls back to DefaultCacheableExtensions.
func NewCachePolicy(extensions []string) *CachePolicy {
	if len(extensions) == 0 {
		extensions = DefaultCacheableExtensions
	}
	p := &CachePolicy{extensions: make(map[string]struct{}, len(extensions))}
	for _, ext := range extensions {
		p.extensions[ext] = struct{}{}
	}
	return p
}

// IsCacheable reports whether subPath ends in a cacheable extension.
func (p *CachePolicy) IsCacheable(subPath string) bool {
	ext := path.Ext(subPath)
	if ext == "" {
		return false
	}
	_, ok := p.extensions[ext]
	return ok
}

// IsCacheable reports whether subPath is cacheable under the default policy.
func IsCacheable(subPath string) bool {
	return defaultPolicy.IsCacheable(subPath)
}

var defaultPolicy = NewCachePolicy(nil)

// CacheKey builds the response cache key for a target and sub-path.
func CacheKey(target, subPath string) string {
	return target + ":" + subPath
}

// joinURL appends subPath to base with exactly one slash between them.
func joinURL(base, subPath string) string {
	switch {
	case subPath == "":
		return base
	case strings.HasSuffix(base, "/"):
		return base + strings.TrimPrefix(subPath, "/")
	case strings.HasPrefix(subPath, "/"):
		return base + subPath
	default:
		return base + "/" + subPath
	}
}
