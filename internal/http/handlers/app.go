package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"downloader/internal/domain"
	"downloader/internal/download"
)

// Submitter is the orchestrator surface the download handler depends on.
type Submitter interface {
	Submit(ctx context.Context, url, videoID, audioID string) (*download.Subscription, error)
}

// App bundles the handler dependencies.
type App struct {
	Submitter Submitter
	Index     domain.ResultIndex
	Logger    zerolog.Logger
}

// NewApp builds the handler container.
func NewApp(submitter Submitter, index domain.ResultIndex, logger zerolog.Logger) *App {
	return &App{Submitter: submitter, Index: index, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, msg string) {
	a.json(w, code, map[string]string{"error": msg})
}
