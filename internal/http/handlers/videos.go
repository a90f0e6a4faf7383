package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"downloader/internal/domain"
)

// ListVideos returns every recorded download in discovery order.
func (a *App) ListVideos(w http.ResponseWriter, r *http.Request) {
	recs, err := a.Index.List(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("failed to list videos")
		a.error(w, http.StatusBadRequest, "failed to list videos")
		return
	}
	if recs == nil {
		recs = []domain.VideoRecord{}
	}
	a.json(w, http.StatusOK, recs)
}

// GetVideo returns a single recorded download by uuid.
func (a *App) GetVideo(w http.ResponseWriter, r *http.Request) {
	uuid := chi.URLParam(r, "uuid")
	if uuid == "" {
		a.error(w, http.StatusBadRequest, "uuid required")
		return
	}
	rec, err := a.Index.Get(r.Context(), uuid)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "video not found")
			return
		}
		a.Logger.Error().Err(err).Str("uuid", uuid).Msg("failed to load video")
		a.error(w, http.StatusInternalServerError, "failed to load video")
		return
	}
	a.json(w, http.StatusOK, rec)
}
