package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"chaoszone/tileproxy/pkg/proxy"
)

// Forwarder relays a request for target/subPath to its upstream.
// *proxy.Forwarder implements it.
type Forwarder interface {
	Handle(ctx context.Context, target, subPath string, in *http.Request) (*proxy.Response, error)
}

// Directory returns the filtered directory entries.
// *directory.Lookup implements it.
type Directory interface {
	Entries(ctx context.Context) ([]json.RawMessage, error)
}
