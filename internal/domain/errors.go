package domain

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidURL  = errors.New("invalid url")
	ErrSpawnFailed = errors.New("spawn failed")
	ErrJobFailed   = errors.New("job failed")
)
