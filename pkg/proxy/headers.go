package proxy

import (
	"net/http"
	"strings"
)

// SessionIDHeader carries the media player session id used by some tile
// and video clients.
const SessionIDHeader = "X-Playback-Session-Id"

// forwardedHeaders is the allow-list of inbound headers copied onto
// outbound requests. Everything else, cookies included, is dropped.
var forwardedHeaders = []string{
	"Range",
	"Accept",
	"Accept-Encoding",
	SessionIDHeader,
	"If-Range",
}

// ForwardHeaders builds the outbound header set for an inbound request:
// the non-empty allow-listed headers plus a synthesized Origin.
//
// Accept-Encoding is narrowed to the codings the rewriter can undo (gzip
// and identity), because Content-Encoding is always removed from the
// relayed response.
func ForwardHeaders(r *http.Request) http.Header {
	out := make(http.Header, len(forwardedHeaders)+1)
	out.Set("Origin", RequestBaseURL(r))

	for _, name := range forwardedHeaders {
		value := r.Header.Get(name)
		if value == "" {
			continue
		}
		if name == "Accept-Encoding" {
			value = decodableEncodings(value)
		}
		out.Set(name, value)
	}

	return out
}

// RequestBaseURL returns scheme://host as observed by the inbound request.
// The scheme is https for TLS connections or when a fronting proxy reports
// X-Forwarded-Proto: https.
func RequestBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// decodableEncodings keeps the gzip and identity entries of an
// Accept-Encoding value, preserving their parameters.
func decodableEncodings(value string) string {
	var kept []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		coding, _, _ := strings.Cut(part, ";")
		switch strings.ToLower(strings.TrimSpace(coding)) {
		case "gzip", "identity":
			kept = append(kept, part)
		}
	}
	if len(kept) == 0 {
		return "identity"
	}
	return strings.Join(kept, ", ")
}
