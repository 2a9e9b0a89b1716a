package proxy

import (
	"errors"
	"fmt"
	"net/http"
)

// NotFoundError is returned when a request names a target that is not in
// the registry.
type NotFoundError struct {
	Target string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("target not found: %s", e.Target)
}

// UpstreamError is returned when an upstream could not be reached or its
// response could not be decoded.
type UpstreamError struct {
	URL string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream request to %s failed: %v", e.URL, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// StatusCode maps an error returned by this package to an HTTP status.
// Unknown errors map to 500.
func StatusCode(err error) int {
	var notFound *NotFoundError
	if errors.As(err, &notFound) {
		return http.StatusNotFound
	}

	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return http.StatusBadGateway
	}

	return http.StatusInternalServerError
}

// WriteError writes err as a plain-text response with the status from
// StatusCode. Not-found errors get a static message; upstream errors carry
// the underlying cause.
func WriteError(w http.ResponseWriter, err error) {
	status := StatusCode(err)

	var msg string
	switch status {
	case http.StatusNotFound:
		msg = "target not found"
	case http.StatusBadGateway:
		msg = err.Error()
	default:
		msg = "internal server error"
	}

	http.Error(w, msg, status)
}
