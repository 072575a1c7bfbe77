package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
	"p9e.in/sitelog/notify"
	"p9e.in/sitelog/repositories"
	"p9e.in/sitelog/storage"
)

// AdminHandler serves the settings page and the health probe.
type AdminHandler struct {
	store     *repositories.Store
	blobs     storage.BlobStore
	fanout    *notify.Fanout
	version   string
	startedAt time.Time
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(store *repositories.Store, blobs storage.BlobStore, fanout *notify.Fanout, version string) *AdminHandler {
	return &AdminHandler{store: store, blobs: blobs, fanout: fanout, version: version, startedAt: time.Now()}
}

// Stats handles GET /admin/stats.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.store.Counts(r.Context())
	if err != nil {
		writeError(w, err, "stats")
		return
	}
	channels := []string{}
	if h.fanout != nil {
		channels = h.fanout.Channels()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"counts":         counts,
		"photo_storage":  h.blobs.Name(),
		"notifications":  channels,
		"version":        h.version,
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
	})
}

// Health handles GET /healthz.
func (h *AdminHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		zap.L().Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "database": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": h.version})
}
