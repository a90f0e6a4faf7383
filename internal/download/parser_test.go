package download

import (
	"testing"

	"downloader/internal/domain"
)

func TestParseIgnoresUnmarkedLines(t *testing.T) {
	lines := []string{
		"",
		"hello",
		"[youtube] abc123: Downloading webpage",
		"[Merger] Merging formats",
		"download] missing bracket",
	}
	for _, line := range lines {
		if _, ok := Parse(line); ok {
			t.Fatalf("Parse(%q) produced an event, want none", line)
		}
	}
}

func TestParseProgressLine(t *testing.T) {
	ev, ok := Parse("[download]  42.5% of ~ 120.50MiB at 2.50MiB/s ETA 00:45")
	if !ok {
		t.Fatal("expected an event")
	}
	if ev.Kind != domain.EventDownloading {
		t.Fatalf("kind = %q, want downloading", ev.Kind)
	}
	if ev.Percent == nil || *ev.Percent != 42.5 {
		t.Fatalf("percent = %v, want 42.5", ev.Percent)
	}
	if ev.Size != "120.50MiB" {
		t.Fatalf("size = %q", ev.Size)
	}
	if ev.Speed != "2.50MiB/s" {
		t.Fatalf("speed = %q", ev.Speed)
	}
	if ev.ETA != "00:45" {
		t.Fatalf("eta = %q", ev.ETA)
	}
}

func TestParseDestinationLine(t *testing.T) {
	ev, ok := Parse("[download] Destination: /downloads/Some Clip (abc123).mp4")
	if !ok {
		t.Fatal("expected an event")
	}
	if ev.Kind != domain.EventDownloading {
		t.Fatalf("kind = %q, want downloading", ev.Kind)
	}
	if ev.Path != "/downloads/Some Clip (abc123).mp4" {
		t.Fatalf("path = %q", ev.Path)
	}
}

func TestParseAlreadyDownloaded(t *testing.T) {
	ev, ok := Parse("[download] /downloads/Some Clip (abc123).mp4 has already been downloaded")
	if !ok {
		t.Fatal("expected an event")
	}
	if ev.Kind != domain.EventAlready {
		t.Fatalf("kind = %q, want already", ev.Kind)
	}
	if ev.Path != "/downloads/Some Clip (abc123).mp4" {
		t.Fatalf("path = %q", ev.Path)
	}
}

func TestParseUnrecognizedMarkerLineDegrades(t *testing.T) {
	ev, ok := Parse("[download] Got server HTTP error. Retrying (attempt 1 of 10) ...")
	if !ok {
		t.Fatal("expected an event")
	}
	if ev.Kind != domain.EventDownloading {
		t.Fatalf("kind = %q, want downloading", ev.Kind)
	}
	if ev.Percent != nil {
		t.Fatalf("percent = %v, want nil", *ev.Percent)
	}
}

func TestParseIsTotal(t *testing.T) {
	inputs := []string{
		"[download]",
		"[download] % of at ETA",
		"[download] 99999999999999999999999999% of junk",
		"[download] \x00\x01\xff",
		"[download] 12.% of ~",
		"[download] Destination:",
		"[download] has already been downloaded",
	}
	for _, line := range inputs {
		ev, ok := Parse(line)
		if !ok {
			t.Fatalf("Parse(%q) dropped a marker-prefixed line", line)
		}
		switch ev.Kind {
		case domain.EventDownloading, domain.EventAlready:
		default:
			t.Fatalf("Parse(%q) kind = %q", line, ev.Kind)
		}
	}
}
