package domain

import "context"

// ResultIndex is the durable index of completed downloads. Put is an
// idempotent upsert: a new uuid is appended to the ordered enumeration, an
// existing one keeps its position. ListIDs and List return records in
// insertion order.
type ResultIndex interface {
	Get(ctx context.Context, uuid string) (*VideoRecord, error)
	Put(ctx context.Context, rec *VideoRecord) error
	ListIDs(ctx context.Context) ([]string, error)
	List(ctx context.Context) ([]VideoRecord, error)
}
