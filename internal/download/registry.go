package download

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"downloader/internal/domain"
)

// subscriberBuffer bounds how far a slow subscriber may lag before
// intermediate progress events are dropped for it.
const subscriberBuffer = 32

// StartFunc spawns the acquisition process for a new job. The context owns
// the process lifetime and is cancelled by the registry, never by an
// individual subscriber.
type StartFunc func(ctx context.Context) (*Handle, error)

// CompleteFunc observes the terminal outcome of every job.
type CompleteFunc func(job domain.Job, ev domain.ProgressEvent)

// Subscription is one caller's view of a job's event stream. Events is
// closed after the terminal event. Unsubscribe detaches this caller only;
// the job keeps running while its process is alive.
type Subscription struct {
	Events <-chan domain.ProgressEvent
	cancel func()
}

// Unsubscribe detaches the subscription. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s.cancel != nil {
		s.cancel()
	}
}

type jobEntry struct {
	job       domain.Job
	handle    *Handle
	subs      map[int]chan domain.ProgressEvent
	nextSub   int
	terminal  *domain.ProgressEvent
	cancelled bool
}

// Registry enforces at-most-one in-flight acquisition per key and fans each
// job's events out to its subscribers. All operations on one key are
// serialized; the critical sections only copy state and push into buffered
// channels.
type Registry struct {
	mu         sync.Mutex
	jobs       map[domain.JobKey]*jobEntry
	retention  time.Duration
	logger     zerolog.Logger
	onComplete CompleteFunc
}

// NewRegistry builds an empty registry. Terminal jobs are retained for the
// given duration so late subscribers still observe the terminal event.
func NewRegistry(retention time.Duration, logger zerolog.Logger) *Registry {
	return &Registry{
		jobs:      make(map[domain.JobKey]*jobEntry),
		retention: retention,
		logger:    logger,
	}
}

// OnComplete registers a hook invoked once per job after its terminal event
// has been delivered. Must be set before the first Submit.
func (r *Registry) OnComplete(fn CompleteFunc) {
	r.onComplete = fn
}

// Submit attaches to the job identified by job.Key, starting it via start if
// no attempt is in flight. The boolean reports whether this call created the
// job. Every subscriber of one job observes the same terminal event.
func (r *Registry) Submit(job domain.Job, start StartFunc) (*Subscription, bool) {
	key := job.Key

	r.mu.Lock()
	if e, ok := r.jobs[key]; ok {
		sub := r.attachLocked(e)
		r.mu.Unlock()
		return sub, false
	}
	e := &jobEntry{
		job:  job,
		subs: make(map[int]chan domain.ProgressEvent),
	}
	e.job.State = domain.JobStateStarting
	e.job.StartedAt = time.Now()
	r.jobs[key] = e
	sub := r.attachLocked(e)
	r.mu.Unlock()

	// The process outlives any one subscriber, so its context is owned here
	// rather than derived from a request.
	ctx, cancel := context.WithCancel(context.Background())
	h, err := start(ctx)
	if err != nil {
		cancel()
		r.logger.Error().Str("key", string(key)).Err(err).Msg("failed to start job")
		r.complete(key, ErrorEvent(err.Error()))
		return sub, true
	}

	r.mu.Lock()
	e.handle = h
	e.job.State = domain.JobStateRunning
	r.mu.Unlock()

	r.logger.Info().Str("key", string(key)).Msg("job started")
	go r.pump(key, h)
	return sub, true
}

// attachLocked adds a subscriber channel to the entry. A terminal entry
// immediately yields its terminal event and a closed channel.
func (r *Registry) attachLocked(e *jobEntry) *Subscription {
	ch := make(chan domain.ProgressEvent, subscriberBuffer)
	if e.terminal != nil {
		ch <- *e.terminal
		close(ch)
		return &Subscription{Events: ch}
	}
	id := e.nextSub
	e.nextSub++
	e.subs[id] = ch
	return &Subscription{
		Events: ch,
		cancel: func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if e.subs == nil {
				return
			}
			if c, ok := e.subs[id]; ok {
				delete(e.subs, id)
				close(c)
			}
		},
	}
}

// pump relays supervisor events into the fan-out until the stream closes.
func (r *Registry) pump(key domain.JobKey, h *Handle) {
	for ev := range h.Events {
		if ev.Terminal() {
			r.complete(key, ev)
		} else {
			r.publish(key, ev)
		}
	}
}

// publish records the latest progress and delivers the event to every
// current subscriber. Delivery is best effort per subscriber: a full buffer
// drops the event rather than blocking the job.
func (r *Registry) publish(key domain.JobKey, ev domain.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.jobs[key]
	if !ok || e.subs == nil {
		return
	}
	if ev.Percent != nil {
		pct := *ev.Percent
		e.job.Percent = &pct
	}
	for _, ch := range e.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// complete transitions the job to its terminal state, delivers the terminal
// event to all subscribers exactly once and schedules eviction.
func (r *Registry) complete(key domain.JobKey, ev domain.ProgressEvent) {
	r.mu.Lock()
	e, ok := r.jobs[key]
	if !ok || e.terminal != nil {
		r.mu.Unlock()
		return
	}
	e.terminal = &ev
	switch {
	case ev.Kind == domain.EventCompleted:
		e.job.State = domain.JobStateSucceeded
	case e.cancelled:
		e.job.State = domain.JobStateCancelled
	default:
		e.job.State = domain.JobStateFailed
		e.job.Error = ev.Message
	}
	for _, ch := range e.subs {
		sendTerminal(ch, ev)
		close(ch)
	}
	e.subs = nil
	jobCopy := e.job
	onComplete := r.onComplete
	r.mu.Unlock()

	r.logger.Info().Str("key", string(key)).Str("state", string(jobCopy.State)).Msg("job finished")
	if onComplete != nil {
		go onComplete(jobCopy, ev)
	}
	time.AfterFunc(r.retention, func() {
		r.mu.Lock()
		if cur, ok := r.jobs[key]; ok && cur == e {
			delete(r.jobs, key)
		}
		r.mu.Unlock()
	})
}

// sendTerminal guarantees the terminal event lands even when the subscriber
// buffer is full of stale progress, by dropping the oldest entries.
func sendTerminal(ch chan domain.ProgressEvent, ev domain.ProgressEvent) {
	for {
		select {
		case ch <- ev:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

// Cancel requests termination of a live job. Subscribers observe a terminal
// error event once the process stops.
func (r *Registry) Cancel(key domain.JobKey) {
	r.mu.Lock()
	e, ok := r.jobs[key]
	if !ok || e.terminal != nil || e.handle == nil {
		r.mu.Unlock()
		return
	}
	e.cancelled = true
	h := e.handle
	r.mu.Unlock()
	h.Cancel()
}

// Job returns a snapshot of the tracked job for key.
func (r *Registry) Job(key domain.JobKey) (domain.Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.jobs[key]
	if !ok {
		return domain.Job{}, false
	}
	return e.job, true
}

// Shutdown cancels every live job. Used on process exit.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	var handles []*Handle
	for _, e := range r.jobs {
		if e.terminal == nil && e.handle != nil {
			e.cancelled = true
			handles = append(handles, e.handle)
		}
	}
	r.mu.Unlock()
	for _, h := range handles {
		h.Cancel()
	}
}
