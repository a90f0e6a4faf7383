package download

import (
	"regexp"
	"strings"

	"downloader/internal/domain"
)

// BestFormat asks the tool for best video plus best audio, falling back to
// the best combined stream.
const BestFormat = "bv+ba/b"

// schemeRe mirrors the permissive check of the submission form: a scheme
// prefix is required, sloppy slashes are tolerated.
var schemeRe = regexp.MustCompile(`(?i)^https?:/?/?`)

// FormatExpr builds the stream-selector expression handed to the tool:
// "video+audio" when both selectors are present, a lone id when only one is,
// or BestFormat when neither is supplied.
func FormatExpr(videoID, audioID string) string {
	videoID = strings.TrimSpace(videoID)
	audioID = strings.TrimSpace(audioID)
	switch {
	case videoID != "" && audioID != "":
		return videoID + "+" + audioID
	case videoID != "":
		return videoID
	case audioID != "":
		return audioID
	default:
		return BestFormat
	}
}

// DeriveKey produces the deduplication key for a submission. Identical
// inputs always yield identical keys; distinct selector pairs for the same
// URL yield distinct keys.
func DeriveKey(rawURL, videoID, audioID string) (domain.JobKey, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" || !schemeRe.MatchString(rawURL) {
		return "", domain.ErrInvalidURL
	}
	return domain.JobKey(rawURL + "|" + FormatExpr(videoID, audioID)), nil
}
