package download

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"downloader/internal/domain"
)

// Orchestrator composes the key deriver, the registry and the supervisor,
// and records successful jobs into the result index.
type Orchestrator struct {
	registry *Registry
	starter  Starter
	index    domain.ResultIndex
	logger   zerolog.Logger
}

// NewOrchestrator wires the registry's completion hook to result recording.
func NewOrchestrator(registry *Registry, starter Starter, index domain.ResultIndex, logger zerolog.Logger) *Orchestrator {
	o := &Orchestrator{
		registry: registry,
		starter:  starter,
		index:    index,
		logger:   logger,
	}
	registry.OnComplete(o.recordResult)
	return o
}

// Submit validates the submission, derives its key and attaches to the job,
// starting one if no acquisition for the key is in flight. Validation
// failures are reported before any process is spawned.
func (o *Orchestrator) Submit(ctx context.Context, rawURL, videoID, audioID string) (*Subscription, error) {
	key, err := DeriveKey(rawURL, videoID, audioID)
	if err != nil {
		return nil, err
	}
	url := strings.TrimSpace(rawURL)
	job := domain.Job{
		Key:     key,
		URL:     url,
		VideoID: strings.TrimSpace(videoID),
		AudioID: strings.TrimSpace(audioID),
	}
	sub, created := o.registry.Submit(job, func(jctx context.Context) (*Handle, error) {
		return o.starter.Start(jctx, url, FormatExpr(videoID, audioID))
	})
	if !created {
		o.logger.Debug().Str("key", string(key)).Msg("attached to running job")
	}
	return sub, nil
}

// Cancel requests termination of the job for the given submission.
func (o *Orchestrator) Cancel(rawURL, videoID, audioID string) error {
	key, err := DeriveKey(rawURL, videoID, audioID)
	if err != nil {
		return err
	}
	o.registry.Cancel(key)
	return nil
}

// sourceIDRe captures the trailing "(id)" the output template appends to
// every filename.
var sourceIDRe = regexp.MustCompile(`\(([^()]+)\)$`)

// recordResult persists a record for every successfully finished job. The
// identifier comes from the source id embedded in the filename so repeated
// downloads of the same item overwrite instead of duplicating.
func (o *Orchestrator) recordResult(job domain.Job, ev domain.ProgressEvent) {
	if job.State != domain.JobStateSucceeded {
		return
	}
	if ev.Path == "" {
		o.logger.Warn().Str("key", string(job.Key)).Msg("job succeeded without a destination path, nothing recorded")
		return
	}

	rec := recordFromPath(job, ev.Path)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := o.index.Put(ctx, rec); err != nil {
		o.logger.Error().Str("uuid", rec.UUID).Err(err).Msg("failed to record result")
		return
	}
	o.logger.Info().Str("uuid", rec.UUID).Str("title", rec.Title).Msg("result recorded")
}

// recordFromPath rebuilds record fields from the templated output filename.
func recordFromPath(job domain.Job, path string) *domain.VideoRecord {
	base := filepath.Base(path)
	ext := strings.TrimPrefix(filepath.Ext(base), ".")
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	id := ""
	title := stem
	if m := sourceIDRe.FindStringSubmatch(stem); m != nil {
		id = m[1]
		title = strings.TrimSpace(strings.TrimSuffix(stem, m[0]))
	}
	if id == "" {
		id = uuid.NewString()
	}

	var formats []domain.StreamFormat
	if job.VideoID != "" {
		formats = append(formats, domain.StreamFormat{Kind: domain.StreamKindVideo, FormatID: job.VideoID})
	}
	if job.AudioID != "" {
		formats = append(formats, domain.StreamFormat{Kind: domain.StreamKindAudio, FormatID: job.AudioID})
	}

	return &domain.VideoRecord{
		UUID:      id,
		Title:     title,
		URL:       job.URL,
		Ext:       ext,
		Formats:   formats,
		CreatedAt: time.Now().UTC(),
	}
}
