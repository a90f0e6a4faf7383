package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"downloader/internal/domain"
)

func testRecord(uuid, title string) *domain.VideoRecord {
	return &domain.VideoRecord{
		UUID:      uuid,
		Title:     title,
		URL:       "https://example.com/" + uuid,
		Ext:       "mp4",
		CreatedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCacheRequiresDir(t *testing.T) {
	if _, err := NewCache(" "); err == nil {
		t.Fatal("expected error for empty dir")
	}
}

func TestCachePutGetRoundTrip(t *testing.T) {
	c, err := NewCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewCache returned error: %v", err)
	}
	ctx := context.Background()

	want := testRecord("abc123", "Some Clip")
	if err := c.Put(ctx, want); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	got, err := c.Get(ctx, "abc123")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.Title != want.Title || got.URL != want.URL || got.Ext != want.Ext {
		t.Fatalf("record mismatch: got %+v want %+v", got, want)
	}
}

func TestCacheGetMissing(t *testing.T) {
	c, err := NewCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewCache returned error: %v", err)
	}
	if _, err := c.Get(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get error = %v, want ErrNotFound", err)
	}
}

func TestCachePutIsIdempotent(t *testing.T) {
	c, err := NewCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewCache returned error: %v", err)
	}
	ctx := context.Background()

	if err := c.Put(ctx, testRecord("a", "first")); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if err := c.Put(ctx, testRecord("b", "second")); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if err := c.Put(ctx, testRecord("a", "first, updated")); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	ids, err := c.ListIDs(ctx)
	if err != nil {
		t.Fatalf("ListIDs returned error: %v", err)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("ids = %#v, want [a b]", ids)
	}

	got, err := c.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.Title != "first, updated" {
		t.Fatalf("title = %q, want overwrite to win", got.Title)
	}
}

func TestCacheListInsertionOrder(t *testing.T) {
	c, err := NewCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewCache returned error: %v", err)
	}
	ctx := context.Background()

	for _, uuid := range []string{"c", "a", "b"} {
		if err := c.Put(ctx, testRecord(uuid, uuid)); err != nil {
			t.Fatalf("Put returned error: %v", err)
		}
	}
	recs, err := c.List(ctx)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(recs) != 3 || recs[0].UUID != "c" || recs[1].UUID != "a" || recs[2].UUID != "b" {
		t.Fatalf("records out of order: %+v", recs)
	}
}

func TestCacheListSkipsMissingRecordFiles(t *testing.T) {
	dir := t.TempDir()
	c, err := NewCache(dir)
	if err != nil {
		t.Fatalf("NewCache returned error: %v", err)
	}
	ctx := context.Background()

	if err := c.Put(ctx, testRecord("a", "kept")); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if err := c.Put(ctx, testRecord("b", "removed")); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if err := os.Remove(filepath.Join(dir, "b.json")); err != nil {
		t.Fatalf("remove record file: %v", err)
	}

	recs, err := c.List(ctx)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(recs) != 1 || recs[0].UUID != "a" {
		t.Fatalf("records = %+v, want only the surviving one", recs)
	}
}

func TestCacheSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	c, err := NewCache(dir)
	if err != nil {
		t.Fatalf("NewCache returned error: %v", err)
	}
	if err := c.Put(ctx, testRecord("a", "durable")); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	reopened, err := NewCache(dir)
	if err != nil {
		t.Fatalf("NewCache returned error: %v", err)
	}
	got, err := reopened.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.Title != "durable" {
		t.Fatalf("title = %q", got.Title)
	}
}
