package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"downloader/internal/domain"
)

// listFile holds the ordered uuid enumeration.
const listFile = "list.json"

// Cache is a file-backed domain.ResultIndex: one JSON file per record plus a
// uuid list file giving insertion order. It serves deployments without a
// database. Every successful Put has been flushed to disk before returning.
type Cache struct {
	mu  sync.Mutex
	dir string
}

// NewCache initializes a cache rooted at dir.
func NewCache(dir string) (*Cache, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("storage: cache dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure cache dir: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// Get reads one record by uuid.
func (c *Cache) Get(ctx context.Context, uuid string) (*domain.VideoRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readRecord(uuid)
}

// Put durably upserts a record, appending its uuid to the enumeration when
// it is new.
func (c *Cache) Put(ctx context.Context, rec *domain.VideoRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec == nil || rec.UUID == "" {
		return errors.New("storage: record uuid is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("storage: marshal record: %w", err)
	}
	if err := c.writeFile(rec.UUID+".json", data); err != nil {
		return err
	}

	ids, err := c.readList()
	if err != nil {
		return err
	}
	if slices.Contains(ids, rec.UUID) {
		return nil
	}
	ids = append(ids, rec.UUID)
	listData, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("storage: marshal list: %w", err)
	}
	return c.writeFile(listFile, listData)
}

// ListIDs returns the ordered uuid enumeration.
func (c *Cache) ListIDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readList()
}

// List returns every record in insertion order. Records whose file has gone
// missing are skipped, matching a list that outlived a manual cleanup.
func (c *Cache) List(ctx context.Context) ([]domain.VideoRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	ids, err := c.readList()
	if err != nil {
		return nil, err
	}
	recs := make([]domain.VideoRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := c.readRecord(id)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	return recs, nil
}

func (c *Cache) readRecord(uuid string) (*domain.VideoRecord, error) {
	data, err := os.ReadFile(filepath.Join(c.dir, uuid+".json"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read record: %w", err)
	}
	var rec domain.VideoRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("storage: decode record: %w", err)
	}
	return &rec, nil
}

func (c *Cache) readList() ([]string, error) {
	data, err := os.ReadFile(filepath.Join(c.dir, listFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read list: %w", err)
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("storage: decode list: %w", err)
	}
	return ids, nil
}

// writeFile writes through a temp file, fsyncs and renames so a crash never
// leaves a half-written file behind a reported success.
func (c *Cache) writeFile(name string, data []byte) error {
	tmp, err := os.CreateTemp(c.dir, name+".tmp*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("storage: sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(c.dir, name)); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	return nil
}
