package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"multiviral/internal/core/domain"
	"multiviral/internal/view"
)

func newGenerateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "generate <job-id>",
		Short: "Start content generation for an uploaded job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := jobIDs(args)
			if err != nil {
				return err
			}
			if err := a.orchestrator().Generate(cmd.Context(), ids[0]); err != nil {
				return fmt.Errorf("failed to start generation: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generation started for %s\n", ids[0]) //nolint:errcheck
			return nil
		},
	}
}

func newStatusCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <job-id>",
		Short: "Print the current state of a job once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := jobIDs(args)
			if err != nil {
				return err
			}
			snap, err := a.fetch(cmd, ids[0])
			if err != nil {
				return err
			}
			return view.Progress(cmd.OutOrStdout(), view.Tracking{JobID: ids[0], Snapshot: snap}, a.styles)
		},
	}
}

func newShowCommand(a *app) *cobra.Command {
	var section string

	cmd := &cobra.Command{
		Use:   "show <job-id>",
		Short: "Print the generated clips, thread and article of a completed job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := jobIDs(args)
			if err != nil {
				return err
			}
			sec, err := view.ParseSection(section)
			if err != nil {
				return err
			}
			snap, err := a.fetch(cmd, ids[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case snap.Status == domain.StatusError:
				return &JobFailedError{JobID: ids[0], Message: snap.Err()}
			case snap.Status != domain.StatusCompleted:
				if err := view.Progress(out, view.Tracking{JobID: ids[0], Snapshot: snap}, a.styles); err != nil {
					return err
				}
				return fmt.Errorf("job %s is not completed yet", domain.ShortID(ids[0]))
			case !snap.Materialized():
				return fmt.Errorf("job %s completed but its results are not available yet, try again shortly", domain.ShortID(ids[0]))
			}
			return view.Results(out, snap.Artifacts, sec, a.styles)
		},
	}

	cmd.Flags().StringVarP(&section, "section", "s", "all", "Results to print: all, clips, thread or article")

	return cmd
}

func newExportCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <job-id>...",
		Short: "Save job snapshots and generated content under the data directory",
		Long: `Fetch each job and write it to <data-dir>/jobs/<job-id>/.

The raw snapshot is always saved. Completed jobs also get clips.json,
thread.txt, article.md and article.html.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := jobIDs(args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, id := range ids {
				snap, err := a.fetch(cmd, id)
				if err != nil {
					return err
				}
				dir, err := a.export(cmd.Context(), id, snap)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "[%s] %s saved to %s\n", domain.ShortID(id), snap.Status, dir) //nolint:errcheck
			}
			return nil
		},
	}
}

func newJobsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "jobs",
		Short: "List jobs known to the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			done := a.busy(out, "loading jobs...")
			jobs, err := a.client.ListJobs(cmd.Context())
			done()
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				fmt.Fprintln(out, "No jobs yet.") //nolint:errcheck
				return nil
			}

			fmt.Fprintf(out, "%s  %s  %s  %s\n", //nolint:errcheck
				runewidth.FillRight("JOB ID", 36),
				runewidth.FillRight("STATUS", 12),
				runewidth.FillRight("SOURCE", 8),
				"CREATED")
			for _, j := range jobs {
				fmt.Fprintf(out, "%s  %s  %s  %s\n", //nolint:errcheck
					runewidth.FillRight(j.ID, 36),
					runewidth.FillRight(string(j.Status), 12),
					runewidth.FillRight(j.SourceType, 8),
					j.CreatedAt)
			}
			return nil
		},
	}
}

// fetch reads one snapshot, showing a spinner while waiting.
func (a *app) fetch(cmd *cobra.Command, jobID string) (*domain.Snapshot, error) {
	done := a.busy(cmd.OutOrStdout(), "fetching job information...")
	snap, err := a.client.GetStatus(cmd.Context(), jobID)
	done()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch status: %w", err)
	}
	return snap, nil
}

// export saves the snapshot of jobID and, when present, its artifacts. It
// returns the job directory. A snapshot reporting another job is rejected.
func (a *app) export(ctx context.Context, jobID string, snap *domain.Snapshot) (string, error) {
	if snap == nil {
		return "", errors.New("nothing to export")
	}
	if snap.ID != jobID {
		return "", fmt.Errorf("backend returned job %q for %s", snap.ID, jobID)
	}
	if err := a.store.SaveSnapshot(ctx, snap); err != nil {
		return "", err
	}
	if snap.Artifacts != nil {
		if err := a.store.SaveArtifacts(ctx, jobID, snap.Artifacts); err != nil {
			return "", err
		}
	}
	dir := a.store.GetJobPath(jobID)
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return dir, nil
}
