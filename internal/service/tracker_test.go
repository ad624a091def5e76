package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multiviral/internal/core/domain"
)

const (
	jobA = "11111111-1111-4111-8111-111111111111"
	jobB = "22222222-2222-4222-8222-222222222222"

	tick    = 5 * time.Millisecond
	waitFor = 2 * time.Second
)

var errTransport = errors.New("connection refused")

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// fakeFetcher records calls and answers with respond(jobID, n) where n counts
// calls for that job starting at 1.
type fakeFetcher struct {
	mu      sync.Mutex
	calls   map[string]int
	respond func(ctx context.Context, jobID string, n int) (*domain.Snapshot, error)
}

func newFakeFetcher(respond func(ctx context.Context, jobID string, n int) (*domain.Snapshot, error)) *fakeFetcher {
	return &fakeFetcher{calls: map[string]int{}, respond: respond}
}

func (f *fakeFetcher) GetStatus(ctx context.Context, jobID string) (*domain.Snapshot, error) {
	f.mu.Lock()
	f.calls[jobID]++
	n := f.calls[jobID]
	f.mu.Unlock()
	return f.respond(ctx, jobID, n)
}

func (f *fakeFetcher) count(jobID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[jobID]
}

func snapshot(jobID string, status domain.Status) *domain.Snapshot {
	return &domain.Snapshot{ID: jobID, Status: status}
}

func completed(jobID string) *domain.Snapshot {
	return &domain.Snapshot{
		ID:        jobID,
		Status:    domain.StatusCompleted,
		Artifacts: &domain.Artifacts{Thread: []string{"post"}, Article: "# Done"},
	}
}

// sequence answers with statuses in order and repeats the last one.
func sequence(statuses ...domain.Status) func(context.Context, string, int) (*domain.Snapshot, error) {
	return func(_ context.Context, jobID string, n int) (*domain.Snapshot, error) {
		if n > len(statuses) {
			n = len(statuses)
		}
		s := statuses[n-1]
		if s == domain.StatusCompleted {
			return completed(jobID), nil
		}
		return snapshot(jobID, s), nil
	}
}

func TestTrackerStopsAfterTerminalStatus(t *testing.T) {
	for _, terminal := range []domain.Status{domain.StatusCompleted, domain.StatusError} {
		t.Run(string(terminal), func(t *testing.T) {
			f := newFakeFetcher(sequence(domain.StatusProcessing, domain.StatusTranscribing, terminal, domain.StatusGenerating))
			tr := NewTracker(f, WithTrackerLogger(quietLogger()))
			defer tr.Close()

			tr.Start(jobA, tick)

			require.Eventually(t, func() bool { return tr.State().Terminal() }, waitFor, tick)
			assert.False(t, tr.Running())

			time.Sleep(10 * tick)
			assert.Equal(t, 3, f.count(jobA))
			assert.Equal(t, terminal, tr.State().Snapshot.Status)
		})
	}
}

func TestTrackerKeepsPollingThroughTransportErrors(t *testing.T) {
	f := newFakeFetcher(func(_ context.Context, jobID string, n int) (*domain.Snapshot, error) {
		if n%2 == 0 {
			return nil, errTransport
		}
		return snapshot(jobID, domain.StatusTranscribing), nil
	})
	tr := NewTracker(f, WithTrackerLogger(quietLogger()))
	defer tr.Close()

	tr.Start(jobA, tick)

	require.Eventually(t, func() bool { return f.count(jobA) >= 8 }, waitFor, tick)
	assert.True(t, tr.Running())

	st := tr.State()
	require.NotNil(t, st.Snapshot)
	assert.Equal(t, domain.StatusTranscribing, st.Snapshot.Status)
	assert.False(t, st.Loading)
}

func TestTrackerTransportErrorKeepsLastSnapshot(t *testing.T) {
	f := newFakeFetcher(func(_ context.Context, jobID string, n int) (*domain.Snapshot, error) {
		if n == 1 {
			return snapshot(jobID, domain.StatusGenerating), nil
		}
		return nil, errTransport
	})
	tr := NewTracker(f, WithTrackerLogger(quietLogger()))
	defer tr.Close()

	tr.Start(jobA, tick)

	require.Eventually(t, func() bool { return tr.State().Err != nil }, waitFor, tick)
	st := tr.State()
	require.NotNil(t, st.Snapshot)
	assert.Equal(t, domain.StatusGenerating, st.Snapshot.Status)
	assert.ErrorIs(t, st.Err, errTransport)
}

func TestTrackerErrorClearedOnNextSuccess(t *testing.T) {
	f := newFakeFetcher(func(_ context.Context, jobID string, n int) (*domain.Snapshot, error) {
		if n == 1 {
			return nil, errTransport
		}
		return snapshot(jobID, domain.StatusProcessing), nil
	})
	tr := NewTracker(f, WithTrackerLogger(quietLogger()))
	defer tr.Close()

	tr.Start(jobA, tick)

	require.Eventually(t, func() bool {
		st := tr.State()
		return st.Snapshot != nil && st.Err == nil
	}, waitFor, tick)
}

func TestTrackerFirstFetchTransportError(t *testing.T) {
	f := newFakeFetcher(func(context.Context, string, int) (*domain.Snapshot, error) {
		return nil, errTransport
	})
	updates := make(chan State, 1)
	tr := NewTracker(f,
		WithTrackerLogger(quietLogger()),
		WithOnUpdate(func(s State) {
			select {
			case updates <- s:
			default:
			}
		}),
	)
	defer tr.Close()

	tr.Start(jobA, time.Hour)

	select {
	case st := <-updates:
		assert.False(t, st.Loading)
		assert.ErrorIs(t, st.Err, errTransport)
		assert.Nil(t, st.Snapshot)
		assert.Equal(t, jobA, st.JobID)
	case <-time.After(waitFor):
		t.Fatal("no state published after first fetch")
	}
}

func TestTrackerLoadingBeforeFirstFetch(t *testing.T) {
	release := make(chan struct{})
	f := newFakeFetcher(func(ctx context.Context, jobID string, _ int) (*domain.Snapshot, error) {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return snapshot(jobID, domain.StatusUploaded), nil
	})
	tr := NewTracker(f, WithTrackerLogger(quietLogger()))
	defer tr.Close()

	tr.Start(jobA, time.Hour)
	st := tr.State()
	assert.True(t, st.Loading)
	assert.Nil(t, st.Snapshot)
	assert.NoError(t, st.Err)

	close(release)
	require.Eventually(t, func() bool { return !tr.State().Loading }, waitFor, tick)
	assert.Equal(t, domain.StatusUploaded, tr.State().Snapshot.Status)
}

func TestTrackerStartIsIdempotent(t *testing.T) {
	f := newFakeFetcher(sequence(domain.StatusProcessing))
	tr := NewTracker(f, WithTrackerLogger(quietLogger()))
	defer tr.Close()

	tr.Start(jobA, time.Hour)
	tr.Start(jobA, time.Hour)

	require.Eventually(t, func() bool { return f.count(jobA) == 1 }, waitFor, tick)
	time.Sleep(10 * tick)
	assert.Equal(t, 1, f.count(jobA))
}

func TestTrackerIntervalChangeRestartsSchedule(t *testing.T) {
	f := newFakeFetcher(sequence(domain.StatusProcessing))
	tr := NewTracker(f, WithTrackerLogger(quietLogger()))
	defer tr.Close()

	tr.Start(jobA, time.Hour)
	require.Eventually(t, func() bool { return f.count(jobA) == 1 }, waitFor, tick)

	tr.Start(jobA, tick)
	require.Eventually(t, func() bool { return f.count(jobA) >= 4 }, waitFor, tick)
	assert.NotNil(t, tr.State().Snapshot, "state of the same job is kept across restarts")
}

func TestTrackerRestartDropsPreviousJobResults(t *testing.T) {
	releaseA := make(chan struct{})
	startedA := make(chan struct{})
	var once sync.Once

	f := newFakeFetcher(func(ctx context.Context, jobID string, _ int) (*domain.Snapshot, error) {
		if jobID == jobA {
			once.Do(func() { close(startedA) })
			<-releaseA
			return snapshot(jobA, domain.StatusGenerating), nil
		}
		return snapshot(jobB, domain.StatusTranscribing), nil
	})

	var (
		mu   sync.Mutex
		seen []State
	)
	tr := NewTracker(f,
		WithTrackerLogger(quietLogger()),
		WithOnUpdate(func(s State) {
			mu.Lock()
			seen = append(seen, s)
			mu.Unlock()
		}),
	)
	defer tr.Close()

	tr.Start(jobA, time.Hour)
	<-startedA

	tr.Start(jobB, time.Hour)
	require.Eventually(t, func() bool { return f.count(jobB) == 1 && tr.State().Snapshot != nil }, waitFor, tick)

	close(releaseA)
	time.Sleep(10 * tick)

	st := tr.State()
	assert.Equal(t, jobB, st.JobID)
	assert.Equal(t, jobB, st.Snapshot.ID)

	mu.Lock()
	defer mu.Unlock()
	for _, s := range seen {
		require.NotNil(t, s.Snapshot)
		assert.Equal(t, s.JobID, s.Snapshot.ID)
		assert.Equal(t, jobB, s.JobID)
	}
}

func TestTrackerCloseDropsInFlightResult(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	f := newFakeFetcher(func(context.Context, string, int) (*domain.Snapshot, error) {
		close(started)
		<-release
		return snapshot(jobA, domain.StatusProcessing), nil
	})

	var updated bool
	var mu sync.Mutex
	tr := NewTracker(f,
		WithTrackerLogger(quietLogger()),
		WithOnUpdate(func(State) {
			mu.Lock()
			updated = true
			mu.Unlock()
		}),
	)

	tr.Start(jobA, time.Hour)
	<-started
	tr.Close()
	close(release)

	time.Sleep(10 * tick)
	assert.Nil(t, tr.State().Snapshot)
	assert.False(t, tr.Running())
	mu.Lock()
	assert.False(t, updated)
	mu.Unlock()

	_, err := tr.Refetch(context.Background())
	assert.ErrorIs(t, err, ErrNotTracking)
}

func TestTrackerStopIsIdempotent(t *testing.T) {
	f := newFakeFetcher(sequence(domain.StatusProcessing))
	tr := NewTracker(f, WithTrackerLogger(quietLogger()))

	tr.Stop()
	tr.Start(jobA, tick)
	require.Eventually(t, func() bool { return f.count(jobA) >= 1 }, waitFor, tick)
	tr.Stop()
	tr.Stop()
	assert.False(t, tr.Running())

	n := f.count(jobA)
	time.Sleep(10 * tick)
	assert.LessOrEqual(t, f.count(jobA), n+1, "at most the fetch already in flight")
	tr.Close()
	tr.Close()
}

func TestTrackerRefetchMaterializesResults(t *testing.T) {
	f := newFakeFetcher(func(_ context.Context, jobID string, n int) (*domain.Snapshot, error) {
		if n == 1 {
			return snapshot(jobID, domain.StatusCompleted), nil
		}
		return completed(jobID), nil
	})
	tr := NewTracker(f, WithTrackerLogger(quietLogger()))
	defer tr.Close()

	tr.Start(jobA, tick)
	require.Eventually(t, func() bool { return tr.State().Terminal() }, waitFor, tick)
	assert.False(t, tr.State().Snapshot.Materialized())
	assert.False(t, tr.Running())

	st, err := tr.Refetch(context.Background())
	require.NoError(t, err)
	assert.True(t, st.Snapshot.Materialized())
	assert.Equal(t, 2, f.count(jobA))
	assert.False(t, tr.Running(), "refetch does not resume the schedule")
}

func TestTrackerRefetchIsIdempotent(t *testing.T) {
	f := newFakeFetcher(sequence(domain.StatusCompleted))
	tr := NewTracker(f, WithTrackerLogger(quietLogger()))
	defer tr.Close()

	tr.Start(jobA, tick)
	require.Eventually(t, func() bool { return tr.State().Terminal() }, waitFor, tick)
	first := tr.State().Snapshot

	for i := 0; i < 3; i++ {
		st, err := tr.Refetch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, first, st.Snapshot)
	}
}

func TestTrackerRefetchTransportError(t *testing.T) {
	f := newFakeFetcher(func(_ context.Context, jobID string, n int) (*domain.Snapshot, error) {
		if n == 1 {
			return snapshot(jobID, domain.StatusGenerating), nil
		}
		return nil, errTransport
	})
	tr := NewTracker(f, WithTrackerLogger(quietLogger()))
	defer tr.Close()

	tr.Start(jobA, time.Hour)
	require.Eventually(t, func() bool { return tr.State().Snapshot != nil }, waitFor, tick)

	st, err := tr.Refetch(context.Background())
	require.NoError(t, err)
	assert.ErrorIs(t, st.Err, errTransport)
	assert.Equal(t, domain.StatusGenerating, st.Snapshot.Status)
	assert.True(t, tr.Running())
}

func TestTrackerTerminalIsNeverReplaced(t *testing.T) {
	f := newFakeFetcher(func(_ context.Context, jobID string, n int) (*domain.Snapshot, error) {
		if n == 1 {
			return completed(jobID), nil
		}
		return snapshot(jobID, domain.StatusGenerating), nil
	})
	tr := NewTracker(f, WithTrackerLogger(quietLogger()))
	defer tr.Close()

	tr.Start(jobA, tick)
	require.Eventually(t, func() bool { return tr.State().Terminal() }, waitFor, tick)

	st, err := tr.Refetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, st.Snapshot.Status)

	// Start on a job that already finished does not resurrect polling.
	tr.Start(jobA, 2*tick)
	assert.False(t, tr.Running())
	assert.Equal(t, 2, f.count(jobA))
}

func TestTrackerRefetchWithoutStart(t *testing.T) {
	tr := NewTracker(newFakeFetcher(sequence(domain.StatusProcessing)), WithTrackerLogger(quietLogger()))
	_, err := tr.Refetch(context.Background())
	assert.ErrorIs(t, err, ErrNotTracking)
}

func TestTrackerNilSnapshotIsTransportError(t *testing.T) {
	f := newFakeFetcher(func(context.Context, string, int) (*domain.Snapshot, error) {
		return nil, nil
	})
	tr := NewTracker(f, WithTrackerLogger(quietLogger()))
	defer tr.Close()

	tr.Start(jobA, time.Hour)
	require.Eventually(t, func() bool { return tr.State().Err != nil }, waitFor, tick)
	assert.Nil(t, tr.State().Snapshot)
}
