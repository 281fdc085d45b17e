package server

import (
	"context"
	"net/http"

	"github.com/desertthunder/setlist/internal/models"
)

// Catalog is the part of the catalog service the HTTP front reads from directly.
type Catalog interface {
	Health(ctx context.Context) error
	ListPlaylists(ctx context.Context) ([]models.Playlist, error)
}

// HealthHandler reports whether this process and the catalog behind it are up.
type HealthHandler struct {
	catalog Catalog
}

func NewHealthHandler(catalog Catalog) *HealthHandler {
	return &HealthHandler{catalog: catalog}
}

func (h *HealthHandler) Routes() []string {
	return []string{"GET /health"}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Health(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// PlaylistsHandler proxies the catalog's playlist list for the web page.
type PlaylistsHandler struct {
	catalog Catalog
}

func NewPlaylistsHandler(catalog Catalog) *PlaylistsHandler {
	return &PlaylistsHandler{catalog: catalog}
}

func (h *PlaylistsHandler) Routes() []string {
	return []string{"GET /playlists"}
}

func (h *PlaylistsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	playlists, err := h.catalog.ListPlaylists(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if playlists == nil {
		playlists = []models.Playlist{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"playlists": playlists})
}
