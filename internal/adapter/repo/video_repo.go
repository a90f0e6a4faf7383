package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"downloader/internal/domain"
)

// VideoRepositoryPG implements domain.ResultIndex on PostgreSQL. Insertion
// order is kept by an identity column that upserts never touch.
type VideoRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewVideoRepository creates a result index backed by PostgreSQL.
func NewVideoRepository(pool *pgxpool.Pool) *VideoRepositoryPG {
	return &VideoRepositoryPG{pool: pool}
}

// EnsureSchema creates the videos table when it does not exist yet.
func (r *VideoRepositoryPG) EnsureSchema(ctx context.Context) error {
	query := `
CREATE TABLE IF NOT EXISTS videos (
    uuid        TEXT PRIMARY KEY,
    title       TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    thumbnail   TEXT NOT NULL DEFAULT '',
    url         TEXT NOT NULL,
    ext         TEXT NOT NULL DEFAULT '',
    duration    DOUBLE PRECISION NOT NULL DEFAULT 0,
    formats     JSONB NOT NULL DEFAULT '[]',
    position    BIGINT GENERATED ALWAYS AS IDENTITY,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
	if _, err := r.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("ensure videos schema: %w", err)
	}
	return nil
}

// Put upserts a record. A conflicting uuid keeps its position so the ordered
// enumeration never gains duplicates.
func (r *VideoRepositoryPG) Put(ctx context.Context, rec *domain.VideoRecord) error {
	formats, err := json.Marshal(rec.Formats)
	if err != nil {
		return fmt.Errorf("marshal formats: %w", err)
	}
	query := `
INSERT INTO videos (uuid, title, description, thumbnail, url, ext, duration, formats, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (uuid) DO UPDATE
SET title = EXCLUDED.title,
    description = EXCLUDED.description,
    thumbnail = EXCLUDED.thumbnail,
    url = EXCLUDED.url,
    ext = EXCLUDED.ext,
    duration = EXCLUDED.duration,
    formats = EXCLUDED.formats;
`
	_, err = r.pool.Exec(ctx, query,
		rec.UUID,
		rec.Title,
		rec.Description,
		rec.Thumbnail,
		rec.URL,
		rec.Ext,
		rec.Duration,
		formats,
		rec.CreatedAt,
	)
	return err
}

// Get fetches a record by uuid.
func (r *VideoRepositoryPG) Get(ctx context.Context, uuid string) (*domain.VideoRecord, error) {
	query := `
SELECT uuid, title, description, thumbnail, url, ext, duration, formats, created_at
FROM videos
WHERE uuid = $1;
`
	row := r.pool.QueryRow(ctx, query, uuid)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// ListIDs returns every known uuid in insertion order.
func (r *VideoRepositoryPG) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT uuid FROM videos ORDER BY position;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// List returns every record in insertion order.
func (r *VideoRepositoryPG) List(ctx context.Context) ([]domain.VideoRecord, error) {
	query := `
SELECT uuid, title, description, thumbnail, url, ext, duration, formats, created_at
FROM videos
ORDER BY position;
`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var recs []domain.VideoRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	return recs, rows.Err()
}

func scanRecord(row pgx.Row) (*domain.VideoRecord, error) {
	var rec domain.VideoRecord
	var formats []byte
	if err := row.Scan(
		&rec.UUID,
		&rec.Title,
		&rec.Description,
		&rec.Thumbnail,
		&rec.URL,
		&rec.Ext,
		&rec.Duration,
		&formats,
		&rec.CreatedAt,
	); err != nil {
		return nil, err
	}
	if len(formats) > 0 {
		if err := json.Unmarshal(formats, &rec.Formats); err != nil {
			return nil, fmt.Errorf("unmarshal formats: %w", err)
		}
	}
	return &rec, nil
}
