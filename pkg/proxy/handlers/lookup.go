package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"chaoszone/tileproxy/pkg/proxy"
)

// LookupHandler serves GET /lookup: the filtered directory as a JSON array.
type LookupHandler struct {
	Directory Directory
}

// NewLookupHandler creates a new lookup handler.
func NewLookupHandler(d Directory) *LookupHandler {
	return &LookupHandler{Directory: d}
}

// ServeHTTP implements http.Handler.
func (h *LookupHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	entries, err := h.Directory.Entries(r.Context())
	if err != nil {
		slog.WarnContext(r.Context(), "directory lookup failed", "error", err)
		proxy.WriteError(w, err)
		return
	}

	if entries == nil {
		entries = []json.RawMessage{}
	}

	body, err := json.Marshal(entries)
	if err != nil {
		slog.ErrorContext(r.Context(), "encode directory entries", "error", err)
		proxy.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
