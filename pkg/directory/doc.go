// Package directory serves the filtered directory lookup.
//
// A Lookup fetches a JSON array from a remote directory API, keeps the raw
// array in a single-entry cache for a short TTL, and returns only the
// entries whose nested field matches a configured value. The cache holds
// the unfiltered array; the filter runs on every call.
//
// Fetch failures surface as *proxy.UpstreamError. By default a failed fetch
// is not masked by an older array; WithServeStale changes that.
package directory
