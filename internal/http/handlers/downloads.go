package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"downloader/internal/domain"
)

const badURLHint = "Please add `http://` or `https://`. ex) https://www.youtube.com/xxxxx"

type downloadStatus struct {
	Success   bool   `json:"success"`
	URL       string `json:"url"`
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
}

// Download accepts a submission and streams its status. The response is
// acknowledged and closed on the first recognized progress event; the job
// itself keeps running and a later success shows up in the listing. This
// mirrors the reference behavior rather than waiting for completion.
func (a *App) Download(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	url := q.Get("url")
	if strings.TrimSpace(url) == "" {
		http.Error(w, "Param `url` is required", http.StatusBadRequest)
		return
	}

	sub, err := a.Submitter.Submit(r.Context(), url, q.Get("videoId"), q.Get("audioId"))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidURL) {
			http.Error(w, badURLHint, http.StatusBadRequest)
			return
		}
		a.Logger.Error().Err(err).Str("url", url).Msg("submit failed")
		a.error(w, http.StatusInternalServerError, "failed to submit download")
		return
	}
	defer sub.Unsubscribe()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)

	select {
	case ev, ok := <-sub.Events:
		if !ok {
			return
		}
		switch ev.Kind {
		case domain.EventError:
			_ = enc.Encode(map[string]string{"error": ev.Message})
		case domain.EventAlready:
			_ = enc.Encode(downloadStatus{Success: true, URL: url, Status: "already", Timestamp: ev.Timestamp.UnixMilli()})
		default:
			_ = enc.Encode(downloadStatus{Success: true, URL: url, Status: "downloading", Timestamp: ev.Timestamp.UnixMilli()})
		}
		if flusher != nil {
			flusher.Flush()
		}
	case <-r.Context().Done():
		// Caller went away; the job continues for remaining subscribers.
	}
}
