package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"multiviral/internal/core/domain"
	"multiviral/internal/core/ports"
)

// DefaultPollInterval is used when Start is given a non-positive interval.
const DefaultPollInterval = 3 * time.Second

// ErrNotTracking is returned by Refetch when no job is tracked.
var ErrNotTracking = errors.New("no job is being tracked")

var errEmptySnapshot = errors.New("empty status response")

// State is what a Tracker publishes after every fetch.
type State struct {
	JobID string

	// Snapshot is the latest successfully fetched snapshot, nil before the first success.
	Snapshot *domain.Snapshot

	// Loading is true until the first fetch of the job finished, successfully or not.
	Loading bool

	// Err is the transport error of the most recent fetch, nil once a fetch succeeds again.
	// It is independent of the job-reported Snapshot.ErrorMessage.
	Err error
}

// Terminal reports whether the stored snapshot has a terminal status.
func (s State) Terminal() bool {
	return s.Snapshot != nil && s.Snapshot.Status.Terminal()
}

// token identifies the tracking session and schedule a fetch was issued for.
type token struct {
	session  uint64
	schedule uint64
}

// Tracker polls one job at a fixed interval until it reaches a terminal status.
//
// Each schedule runs in its own goroutine and fetches sequentially, so fetches
// of one schedule never overlap. Results of a schedule that was stopped or
// replaced, or of a session that was closed, are dropped.
type Tracker struct {
	fetcher  ports.StatusFetcher
	logger   logrus.FieldLogger
	onUpdate func(State)

	mu       sync.Mutex
	session  uint64
	schedule uint64
	tracking bool
	running  bool
	jobID    string
	interval time.Duration
	cancel   context.CancelFunc
	state    State
}

// TrackerOption customises a Tracker.
type TrackerOption func(*Tracker)

// WithTrackerLogger sets the logger.
func WithTrackerLogger(l logrus.FieldLogger) TrackerOption {
	return func(t *Tracker) { t.logger = l }
}

// WithOnUpdate registers fn to receive every stored state. It is called without
// the tracker's lock held, possibly from the polling goroutine.
func WithOnUpdate(fn func(State)) TrackerOption {
	return func(t *Tracker) { t.onUpdate = fn }
}

// NewTracker creates an idle Tracker reading from fetcher.
func NewTracker(fetcher ports.StatusFetcher, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		fetcher: fetcher,
		logger:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start begins polling jobID: one fetch right away, then one per interval.
// Any previous schedule is cancelled before the first fetch for jobID is issued.
// Calling Start again with the same job and interval while polling is a no-op,
// and a job whose terminal snapshot is already stored is not polled again.
func (t *Tracker) Start(jobID string, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	t.mu.Lock()
	if t.running && t.jobID == jobID && t.interval == interval {
		t.mu.Unlock()
		return
	}

	t.stopLocked()
	if !t.tracking || t.jobID != jobID {
		t.session++
		t.jobID = jobID
		t.state = State{JobID: jobID, Loading: true}
	}
	t.tracking = true
	t.interval = interval

	if t.state.Terminal() {
		t.mu.Unlock()
		return
	}

	t.schedule++
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.running = true
	run := token{session: t.session, schedule: t.schedule}
	t.mu.Unlock()

	t.logger.WithFields(logrus.Fields{"job_id": jobID, "interval": interval}).Debug("tracking started")
	go t.poll(ctx, run, jobID, interval)
}

// Stop cancels the schedule. Fetches already in flight for it are discarded.
// The tracked job and its last state are kept, so Refetch still works.
func (t *Tracker) Stop() {
	t.mu.Lock()
	stopped := t.stopLocked()
	jobID := t.jobID
	t.mu.Unlock()

	if stopped {
		t.logger.WithField("job_id", jobID).Debug("tracking stopped")
	}
}

// Close stops tracking for good. No fetch issued before Close is stored after it.
func (t *Tracker) Close() {
	t.mu.Lock()
	t.stopLocked()
	t.session++
	t.tracking = false
	t.mu.Unlock()
}

// Refetch performs one fetch outside the schedule and returns the resulting state.
// Transport failures are reported in State.Err, not as an error.
func (t *Tracker) Refetch(ctx context.Context) (State, error) {
	t.mu.Lock()
	if !t.tracking {
		t.mu.Unlock()
		return State{}, ErrNotTracking
	}
	run := token{session: t.session}
	jobID := t.jobID
	t.mu.Unlock()

	snap, err := t.fetcher.GetStatus(ctx, jobID)
	state, stored, _ := t.apply(run, false, snap, err)
	if !stored {
		return State{}, ErrNotTracking
	}
	t.notify(state)
	return state, nil
}

// State returns the latest published state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Running reports whether a schedule is active.
func (t *Tracker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

func (t *Tracker) poll(ctx context.Context, run token, jobID string, interval time.Duration) {
	if t.fetch(ctx, run, jobID) {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if t.fetch(ctx, run, jobID) {
				return
			}
		}
	}
}

// fetch runs one scheduled fetch and reports whether the schedule is over.
func (t *Tracker) fetch(ctx context.Context, run token, jobID string) bool {
	snap, err := t.fetcher.GetStatus(ctx, jobID)
	state, stored, done := t.apply(run, true, snap, err)
	if stored {
		t.notify(state)
	}
	return done
}

// apply stores a fetch result if it still belongs to the current session (and,
// for scheduled fetches, the current schedule). A terminal snapshot cancels the
// schedule in the same critical section that stores it.
func (t *Tracker) apply(run token, scheduled bool, snap *domain.Snapshot, err error) (state State, stored, done bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if run.session != t.session || (scheduled && run.schedule != t.schedule) {
		return State{}, false, true
	}

	log := t.logger.WithField("job_id", t.jobID)
	t.state.Loading = false

	if err == nil && snap == nil {
		err = errEmptySnapshot
	}
	if err != nil {
		t.state.Err = err
		log.WithError(err).Warn("status fetch failed")
		return t.state, true, false
	}

	t.state.Err = nil
	if t.state.Terminal() && !snap.Status.Terminal() {
		log.WithField("status", snap.Status).Debug("ignoring non-terminal status after terminal one")
	} else {
		if t.state.Snapshot == nil || t.state.Snapshot.Status != snap.Status {
			log.WithField("status", snap.Status).Info("job status changed")
		}
		t.state.Snapshot = snap
	}

	if t.state.Terminal() {
		t.stopLocked()
		return t.state, true, true
	}
	return t.state, true, false
}

func (t *Tracker) stopLocked() bool {
	if !t.running {
		return false
	}
	t.running = false
	t.schedule++
	t.cancel()
	t.cancel = nil
	return true
}

func (t *Tracker) notify(s State) {
	if t.onUpdate != nil {
		t.onUpdate(s)
	}
}
