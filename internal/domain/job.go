package domain

import "time"

// JobKey is the deduplication identity of an acquisition: normalized URL plus
// the stream-selector expression. Two submissions with the same URL and the
// same selectors always map to the same key.
type JobKey string

// JobState enumerates job lifecycle states.
type JobState string

const (
	JobStateStarting  JobState = "starting"
	JobStateRunning   JobState = "running"
	JobStateSucceeded JobState = "succeeded"
	JobStateFailed    JobState = "failed"
	JobStateCancelled JobState = "cancelled"
)

// Terminal reports whether the state is one of the final states.
func (s JobState) Terminal() bool {
	return s == JobStateSucceeded || s == JobStateFailed || s == JobStateCancelled
}

// Job tracks one acquisition attempt for a key.
type Job struct {
	Key       JobKey
	URL       string
	VideoID   string
	AudioID   string
	State     JobState
	StartedAt time.Time
	Percent   *float64
	Error     string
}
