package domain

import "time"

// StreamKind distinguishes the two halves of a selected format pair.
type StreamKind string

const (
	StreamKindVideo StreamKind = "video"
	StreamKindAudio StreamKind = "audio"
)

// StreamFormat is a snapshot of one selected source stream.
type StreamFormat struct {
	Kind         StreamKind `json:"kind"`
	FormatID     string     `json:"format_id"`
	Codec        string     `json:"codec,omitempty"`
	Height       int        `json:"height,omitempty"`
	FPS          float64    `json:"fps,omitempty"`
	DynamicRange string     `json:"dynamic_range,omitempty"`
	Filesize     int64      `json:"filesize,omitempty"`
}

// VideoRecord is the durable record of one completed download.
type VideoRecord struct {
	UUID        string         `json:"uuid"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Thumbnail   string         `json:"thumbnail,omitempty"`
	URL         string         `json:"url"`
	Ext         string         `json:"ext,omitempty"`
	Duration    float64        `json:"duration,omitempty"`
	Formats     []StreamFormat `json:"formats,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
