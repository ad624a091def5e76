package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"multiviral/internal/core/domain"
	"multiviral/internal/service"
	"multiviral/internal/view"
)

type watchOptions struct {
	section view.Section
	export  bool
}

func newWatchCommand(a *app) *cobra.Command {
	var (
		section string
		export  bool
	)

	cmd := &cobra.Command{
		Use:   "watch <job-id>...",
		Short: "Follow jobs until they complete or fail",
		Long: `Poll each job at the configured interval and print every status change.

Polling stops as soon as a job reaches completed or error. Transport errors
are reported and polling continues. With a single job the results are printed
once it completes.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := jobIDs(args)
			if err != nil {
				return err
			}
			sec, err := view.ParseSection(section)
			if err != nil {
				return err
			}
			return a.watch(cmd.Context(), cmd.OutOrStdout(), ids, watchOptions{section: sec, export: export})
		},
	}

	cmd.Flags().StringVarP(&section, "section", "s", "all", "Results to print for a single job: all, clips, thread or article")
	cmd.Flags().BoolVarP(&export, "export", "e", false, "Save the results of completed jobs to the data directory")

	return cmd
}

// lockedWriter serialises writes from concurrently watched jobs.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func (a *app) watch(ctx context.Context, out io.Writer, ids []string, opts watchOptions) error {
	w := &lockedWriter{w: out}
	snaps := make([]*domain.Snapshot, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			snap, err := a.watchJob(gctx, w, id)
			snaps[i] = snap
			if err != nil {
				return fmt.Errorf("watching %s: %w", domain.ShortID(id), err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var failed []error
	for i, snap := range snaps {
		switch {
		case snap.Status == domain.StatusError:
			failed = append(failed, &JobFailedError{JobID: ids[i], Message: snap.Err()})
		case !snap.Materialized():
			fmt.Fprintf(out, "\n[%s] results are not available yet, try: multiviral show %s\n", domain.ShortID(ids[i]), ids[i]) //nolint:errcheck
		default:
			if opts.export {
				dir, err := a.export(ctx, ids[i], snap)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "[%s] results saved to %s\n", domain.ShortID(ids[i]), dir) //nolint:errcheck
			}
			if len(ids) == 1 {
				fmt.Fprintln(out) //nolint:errcheck
				if err := view.Results(out, snap.Artifacts, opts.section, a.styles); err != nil {
					return err
				}
			}
		}
	}
	return errors.Join(failed...)
}

// watchJob tracks one job until a terminal snapshot is stored. A completed
// snapshot without results is refetched a bounded number of times.
func (a *app) watchJob(ctx context.Context, w io.Writer, jobID string) (*domain.Snapshot, error) {
	log := a.logger.WithField("job_id", jobID)
	terminal := make(chan struct{})
	var (
		once sync.Once
		last string
	)

	tr := service.NewTracker(a.client,
		service.WithTrackerLogger(log),
		service.WithOnUpdate(func(s service.State) {
			if key := progressKey(s); key != last {
				last = key
				var buf bytes.Buffer
				if err := view.Progress(&buf, view.Tracking(s), a.styles); err == nil {
					w.Write(buf.Bytes()) //nolint:errcheck
				}
			}
			if s.Terminal() {
				once.Do(func() { close(terminal) })
			}
		}),
	)
	defer tr.Close()

	tr.Start(jobID, a.cfg.Poll.Interval)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-terminal:
	}

	state := tr.State()
	for attempt := 0; attempt < a.cfg.Poll.ResultsAttempts; attempt++ {
		if state.Snapshot.Status != domain.StatusCompleted || state.Snapshot.Materialized() {
			break
		}
		log.Debug("completed without results, refetching")
		select {
		case <-ctx.Done():
			return state.Snapshot, ctx.Err()
		case <-time.After(a.cfg.Poll.Interval):
		}
		next, err := tr.Refetch(ctx)
		if err != nil {
			return state.Snapshot, err
		}
		state = next
	}
	return state.Snapshot, nil
}

// progressKey identifies what the progress view would show, so unchanged
// polls are not printed again.
func progressKey(s service.State) string {
	key := "loading"
	if s.Snapshot != nil {
		key = string(s.Snapshot.Status)
	}
	if s.Err != nil {
		key += "|" + s.Err.Error()
	}
	return key
}
