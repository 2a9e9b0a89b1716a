// Package proxy implements the caching reverse proxy in front of the map
// tile and style upstreams.
//
// A request for /proxy/{target}/{path} is resolved against a TargetRegistry,
// served from the response cache when the path is cacheable and a fresh entry
// exists, and otherwise fetched from the upstream with a fixed allow-list of
// request headers. Upstream responses are rewritten before they are cached
// or returned:
//
//   - gzip bodies are decompressed
//   - JSON bodies have every occurrence of the upstream base URL replaced
//     with {proxyBaseURL}/{target} (plain byte substitution, not JSON-aware)
//   - Location headers are pointed back at the proxy
//   - Content-Encoding, Content-Length, Transfer-Encoding and Connection
//     are dropped
//
// # Error Handling
//
// Unknown targets yield *NotFoundError (404). Network failures and
// undecodable upstream bodies yield *UpstreamError (502). Upstream 4xx/5xx
// responses are not errors; they are relayed, and cached when the path is
// cacheable.
//
// # Concurrency
//
// The Forwarder is safe for concurrent use. The cache lock is never held
// across a fetch, so concurrent misses on one key fetch independently unless
// fetch deduplication is enabled with WithDedupe.
package proxy
