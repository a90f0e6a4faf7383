package download

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"downloader/internal/domain"
)

// progressMarker prefixes every progress line the tool prints.
const progressMarker = "[download]"

// Each fragment is matched independently so a reshuffled or truncated line
// still yields whatever fields it carries.
var (
	percentRe     = regexp.MustCompile(`^\[download\]\s+([0-9.]+)%`)
	sizeRe        = regexp.MustCompile(`\bof\s+~?\s*([0-9.]+\s*[KMGT]?i?B)`)
	speedRe       = regexp.MustCompile(`\bat\s+([0-9.]+\s*[KMGT]?i?B/s|Unknown speed)`)
	etaRe         = regexp.MustCompile(`\bETA\s+([0-9:]+|Unknown)`)
	destinationRe = regexp.MustCompile(`^\[download\]\s+Destination:\s+(.+)$`)
	alreadyRe     = regexp.MustCompile(`^\[download\]\s+(.+?)\s+has already been downloaded`)
)

// Parse maps one line of tool stdout to a progress event. The second return
// is false for lines without the progress marker. Parse is total: any
// marker-prefixed line yields an event, with numeric fields left empty when
// the shape is unrecognized.
func Parse(line string) (domain.ProgressEvent, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, progressMarker) {
		return domain.ProgressEvent{}, false
	}

	ev := domain.ProgressEvent{Kind: domain.EventDownloading, Timestamp: time.Now()}

	if m := alreadyRe.FindStringSubmatch(line); m != nil {
		ev.Kind = domain.EventAlready
		ev.Path = m[1]
		return ev, true
	}
	if m := destinationRe.FindStringSubmatch(line); m != nil {
		ev.Path = strings.TrimSpace(m[1])
		return ev, true
	}
	if m := percentRe.FindStringSubmatch(line); m != nil {
		if pct, err := strconv.ParseFloat(m[1], 64); err == nil {
			ev.Percent = &pct
		}
	}
	if m := sizeRe.FindStringSubmatch(line); m != nil {
		ev.Size = m[1]
	}
	if m := speedRe.FindStringSubmatch(line); m != nil {
		ev.Speed = m[1]
	}
	if m := etaRe.FindStringSubmatch(line); m != nil {
		ev.ETA = m[1]
	}
	return ev, true
}

// ErrorEvent wraps fatal output or an abnormal exit as a terminal event.
func ErrorEvent(msg string) domain.ProgressEvent {
	return domain.ProgressEvent{Kind: domain.EventError, Message: msg, Timestamp: time.Now()}
}

// CompletedEvent is the terminal event of a successful job. Path carries the
// destination file when the tool reported one.
func CompletedEvent(path string) domain.ProgressEvent {
	return domain.ProgressEvent{Kind: domain.EventCompleted, Path: path, Timestamp: time.Now()}
}
