package domain

import "time"

// EventKind enumerates recognized progress event categories.
type EventKind string

const (
	EventDownloading EventKind = "downloading"
	EventAlready     EventKind = "already"
	EventError       EventKind = "error"
	EventCompleted   EventKind = "completed"
)

// ProgressEvent is an immutable status update produced while a job runs.
// Percent is nil when the source line did not carry a usable percentage.
// Path holds the destination file when the tool reported one.
type ProgressEvent struct {
	Kind      EventKind
	Percent   *float64
	Size      string
	Speed     string
	ETA       string
	Path      string
	Message   string
	Timestamp time.Time
}

// Terminal reports whether the event ends the job's event stream.
func (e ProgressEvent) Terminal() bool {
	return e.Kind == EventCompleted || e.Kind == EventError
}
