package view

import (
	"fmt"
	"io"
	"math"
	"strings"

	"multiviral/internal/core/domain"
)

const barWidth = 30

// Tracking is the subset of tracker state the progress view needs.
type Tracking struct {
	JobID    string
	Snapshot *domain.Snapshot
	Loading  bool
	Err      error
}

// Progress writes the status display for one job.
func Progress(w io.Writer, t Tracking, s Styles) error {
	var b strings.Builder
	short := domain.ShortID(t.JobID)

	switch {
	case t.Snapshot == nil && t.Loading:
		fmt.Fprintf(&b, "[%s] fetching job information...\n", short)
	case t.Snapshot == nil && t.Err != nil:
		fmt.Fprintf(&b, "[%s] %s\n", short, s.render(s.Failure, "failed to fetch status: "+t.Err.Error()))
	case t.Snapshot == nil:
		fmt.Fprintf(&b, "[%s] no status yet\n", short)
	default:
		writeSnapshotProgress(&b, short, t.Snapshot, s)
		if t.Err != nil {
			fmt.Fprintf(&b, "  %s\n", s.render(s.Muted, "connection problem, retrying: "+t.Err.Error()))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeSnapshotProgress(b *strings.Builder, short string, snap *domain.Snapshot, s Styles) {
	if snap.Status == domain.StatusError {
		fmt.Fprintf(b, "[%s] %s\n", short, s.render(s.Failure, "An error occurred"))
		if msg := snap.Err(); msg != "" {
			fmt.Fprintf(b, "  %s\n", msg)
		}
		return
	}

	p := domain.ProgressFor(snap.Status)
	label, description := "Processing", ""
	if step, ok := p.Current(); ok {
		label, description = step.Label, step.Description
	}
	if snap.Status == domain.StatusCompleted {
		label = s.render(s.Success, "Generation complete!")
	}

	fmt.Fprintf(b, "[%s] %s\n", short, label)
	if description != "" {
		fmt.Fprintf(b, "  %s\n", s.render(s.Muted, description))
	}
	fmt.Fprintf(b, "  %s %3d%%\n", bar(p.Percent), int(math.Round(p.Percent)))

	marks := make([]string, len(domain.Steps))
	for i, step := range domain.Steps {
		switch p.StateOf(i) {
		case domain.StepDone:
			marks[i] = s.render(s.Success, "✓ "+step.Label)
		case domain.StepCurrent:
			marks[i] = s.render(s.Accent, "▶ "+step.Label)
		default:
			marks[i] = s.render(s.Muted, "· "+step.Label)
		}
	}
	fmt.Fprintf(b, "  %s\n", strings.Join(marks, "  "))
}

func bar(percent float64) string {
	filled := int(math.Round(percent / 100 * barWidth))
	if filled < 0 {
		filled = 0
	}
	if filled > barWidth {
		filled = barWidth
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled) + "]"
}
