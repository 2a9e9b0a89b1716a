package handlers

import (
	"log/slog"
	"net/http"

	"chaoszone/tileproxy/pkg/proxy"
	"chaoszone/tileproxy/pkg/telemetry/logging"
)

// ProxyHandler serves GET /proxy/{target} and GET /proxy/{target}/{path...}.
type ProxyHandler struct {
	Forwarder Forwarder
}

// NewProxyHandler creates a new proxy handler.
func NewProxyHandler(f Forwarder) *ProxyHandler {
	return &ProxyHandler{Forwarder: f}
}

// ServeHTTP implements http.Handler.
func (h *ProxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	target := r.PathValue("target")
	subPath := r.PathValue("path")

	ctx := logging.WithTarget(r.Context(), target)

	resp, err := h.Forwarder.Handle(ctx, target, subPath, r)
	if err != nil {
		level := slog.LevelWarn
		if proxy.StatusCode(err) == http.StatusNotFound {
			level = slog.LevelInfo
		}
		slog.Log(ctx, level, "proxy request failed", "path", subPath, "error", err)
		proxy.WriteError(w, err)
		return
	}

	if err := resp.Serve(w); err != nil {
		slog.DebugContext(ctx, "client write failed", "path", subPath, "error", err)
	}
}

// requireGet rejects every method but GET. ServeMux lets HEAD through GET
// patterns, and the upstreams are only ever fetched with GET.
func requireGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet {
		return true
	}
	w.Header().Set("Allow", http.MethodGet)
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	return false
}
