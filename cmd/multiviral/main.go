package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// Exit codes for different failure modes
const (
	ExitSuccess   = 0 // Command finished and every watched job completed
	ExitJobFailed = 1 // A watched job ended with status error
	ExitError     = 2 // Configuration, transport or usage error
)

// JobFailedError indicates that watching succeeded but the backend reported
// the job as failed.
type JobFailedError struct {
	JobID   string
	Message string
}

func (e *JobFailedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("job %s failed", e.JobID)
	}
	return fmt.Sprintf("job %s failed: %s", e.JobID, e.Message)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := execute(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)

		var jobErr *JobFailedError
		if errors.As(err, &jobErr) {
			os.Exit(ExitJobFailed)
		}
		os.Exit(ExitError)
	}
}
