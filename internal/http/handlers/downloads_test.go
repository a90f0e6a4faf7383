package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"downloader/internal/domain"
	"downloader/internal/download"
)

// fakeSubmitter serves a canned subscription or error.
type fakeSubmitter struct {
	events []domain.ProgressEvent
	err    error
	calls  int
}

func (f *fakeSubmitter) Submit(ctx context.Context, url, videoID, audioID string) (*download.Subscription, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	ch := make(chan domain.ProgressEvent, len(f.events))
	for _, ev := range f.events {
		ch <- ev
	}
	close(ch)
	return &download.Subscription{Events: ch}, nil
}

func TestDownloadMissingURL(t *testing.T) {
	submitter := &fakeSubmitter{}
	app := NewApp(submitter, nil, zerolog.Nop())

	req := httptest.NewRequest("GET", "/api/d", nil)
	rr := httptest.NewRecorder()
	app.Download(rr, req)

	if rr.Code != 400 {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("content type = %q, want plain text", ct)
	}
	if submitter.calls != 0 {
		t.Fatalf("submitter called %d times before validation, want 0", submitter.calls)
	}
}

func TestDownloadInvalidURL(t *testing.T) {
	submitter := &fakeSubmitter{err: domain.ErrInvalidURL}
	app := NewApp(submitter, nil, zerolog.Nop())

	req := httptest.NewRequest("GET", "/api/d?url=example.com", nil)
	rr := httptest.NewRecorder()
	app.Download(rr, req)

	if rr.Code != 400 {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "http://") {
		t.Fatalf("body = %q, want scheme hint", rr.Body.String())
	}
}

func TestDownloadFirstProgressEventAcknowledges(t *testing.T) {
	submitter := &fakeSubmitter{events: []domain.ProgressEvent{
		{Kind: domain.EventDownloading, Timestamp: time.Now()},
		{Kind: domain.EventDownloading, Timestamp: time.Now()},
	}}
	app := NewApp(submitter, nil, zerolog.Nop())

	req := httptest.NewRequest("GET", "/api/d?url=https://example.com/v1", nil)
	rr := httptest.NewRecorder()
	app.Download(rr, req)

	if rr.Code != 200 {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	// The body holds exactly one JSON object, later events are dropped.
	if got := strings.Count(body, "success"); got != 1 {
		t.Fatalf("body carries %d status objects, want 1: %q", got, body)
	}
	var resp struct {
		Success   bool   `json:"success"`
		URL       string `json:"url"`
		Status    string `json:"status"`
		Timestamp int64  `json:"timestamp"`
	}
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.Status != "downloading" {
		t.Fatalf("response = %+v", resp)
	}
	if resp.URL != "https://example.com/v1" {
		t.Fatalf("url = %q", resp.URL)
	}
	if resp.Timestamp == 0 {
		t.Fatal("timestamp missing")
	}
}

func TestDownloadAlreadyDownloaded(t *testing.T) {
	submitter := &fakeSubmitter{events: []domain.ProgressEvent{
		{Kind: domain.EventAlready, Path: "/downloads/x (y).mp4", Timestamp: time.Now()},
	}}
	app := NewApp(submitter, nil, zerolog.Nop())

	req := httptest.NewRequest("GET", "/api/d?url=https://example.com/v1", nil)
	rr := httptest.NewRecorder()
	app.Download(rr, req)

	if !strings.Contains(rr.Body.String(), `"status":"already"`) {
		t.Fatalf("body = %q, want already status", rr.Body.String())
	}
}

func TestDownloadErrorEvent(t *testing.T) {
	submitter := &fakeSubmitter{events: []domain.ProgressEvent{
		{Kind: domain.EventError, Message: "ERROR: unsupported url", Timestamp: time.Now()},
	}}
	app := NewApp(submitter, nil, zerolog.Nop())

	req := httptest.NewRequest("GET", "/api/d?url=https://example.com/v1", nil)
	rr := httptest.NewRecorder()
	app.Download(rr, req)

	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["error"] != "ERROR: unsupported url" {
		t.Fatalf("response = %#v, want captured error text", resp)
	}
}
