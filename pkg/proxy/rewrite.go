package proxy

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// hopHeaders are removed from every relayed response. They are either
// connection-scoped or no longer describe the body after rewriting.
var hopHeaders = []string{
	"Content-Encoding",
	"Content-Length",
	"Transfer-Encoding",
	"Connection",
}

// Upstream is a fully read upstream response.
type Upstream struct {
	Status int
	Header http.Header
	Body   []byte
}

// Response is a rewritten response ready to be relayed or cached.
// A Response stored in the cache is shared between requests and must not
// be modified.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Serve copies the response onto w.
func (r *Response) Serve(w http.ResponseWriter) error {
	dst := w.Header()
	for name, values := range r.Header {
		dst[name] = append([]string(nil), values...)
	}
	w.WriteHeader(r.Status)
	_, err := w.Write(r.Body)
	return err
}

// Rewrite turns an upstream response into the response relayed to the
// client. upstreamBaseURL occurrences (trailing slash ignored) in JSON
// bodies and in Location are replaced with proxyBaseURL + "/" + target.
// It has no side effects beyond its return value.
func Rewrite(up *Upstream, target, proxyBaseURL, upstreamBaseURL string) (*Response, error) {
	header := up.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	body := up.Body

	upstreamBase := strings.TrimRight(upstreamBaseURL, "/")
	proxyTarget := strings.TrimRight(proxyBaseURL, "/") + "/" + target

	isJSON := strings.HasPrefix(header.Get("Content-Type"), "application/json")

	if strings.EqualFold(header.Get("Content-Encoding"), "gzip") {
		switch {
		case isJSON:
			decoded, err := gunzip(body)
			if err != nil {
				return nil, fmt.Errorf("decompress body: %w", err)
			}
			body = decoded
		case !isPartial(up.Status, header):
			// Other bodies are decoded best effort and relayed as received
			// when they are not a complete gzip stream.
			if decoded, err := gunzip(body); err == nil {
				body = decoded
			}
		}
	}

	if isJSON && upstreamBase != "" {
		body = bytes.ReplaceAll(body, []byte(upstreamBase), []byte(proxyTarget))
	}

	if location := header.Get("Location"); location != "" {
		header.Set("Location", rewriteLocation(location, upstreamBase, proxyTarget))
	}

	for _, name := range hopHeaders {
		header.Del(name)
	}

	return &Response{
		Status: up.Status,
		Header: header,
		Body:   body,
	}, nil
}

// rewriteLocation points an upstream redirect back at the proxy. Absolute
// upstream URLs are substituted; upstream-relative paths are prefixed.
func rewriteLocation(location, upstreamBase, proxyTarget string) string {
	if upstreamBase != "" {
		location = strings.ReplaceAll(location, upstreamBase, proxyTarget)
	}
	if strings.HasPrefix(location, "/") {
		location = proxyTarget + location
	}
	return location
}

// isPartial reports whether the body is a byte range of the representation,
// which for a gzip encoding is a fragment of the compressed stream.
func isPartial(status int, header http.Header) bool {
	return status == http.StatusPartialContent || header.Get("Content-Range") != ""
}

func gunzip(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	return io.ReadAll(zr)
}
