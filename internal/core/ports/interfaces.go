package ports

import (
	"context"
	"io"

	"multiviral/internal/core/domain"
)

// StatusFetcher reads the current state of a job.
type StatusFetcher interface {
	// GetStatus returns the latest snapshot for the job. It must be safe to call repeatedly.
	GetStatus(ctx context.Context, jobID string) (*domain.Snapshot, error)
}

// JobAPI is the backend contract consumed by the client.
type JobAPI interface {
	StatusFetcher

	// Upload sends a media file and returns the accepted submission.
	Upload(ctx context.Context, filename string, body io.Reader, opts domain.Options) (*domain.Submission, error)

	// SubmitURL registers a source URL (e.g. YouTube) for processing.
	SubmitURL(ctx context.Context, sourceURL string, opts domain.Options) (*domain.Submission, error)

	// Generate starts processing of an uploaded job. It returns once the backend accepted it.
	Generate(ctx context.Context, jobID string) error

	// ListJobs returns the jobs known to the backend.
	ListJobs(ctx context.Context) ([]domain.JobSummary, error)
}

// Downloader defines the contract for fetching remote media.
type Downloader interface {
	// Download fetches the media from the given URL.
	// Returns a ReadCloser that the caller must close.
	Download(ctx context.Context, mediaURL string) (io.ReadCloser, error)
}

// ArtifactStore persists the generated outputs of a job.
type ArtifactStore interface {
	// InitJob creates the job directory structure.
	InitJob(ctx context.Context, jobID string) error

	// SaveSubmission records what was submitted for the job.
	SaveSubmission(ctx context.Context, result *domain.SubmitResult) error

	// SaveSnapshot saves the raw snapshot as JSON.
	SaveSnapshot(ctx context.Context, snap *domain.Snapshot) error

	// SaveArtifacts writes each generated output to its own file.
	SaveArtifacts(ctx context.Context, jobID string, artifacts *domain.Artifacts) error

	// GetJobPath returns the storage path for a given job ID.
	GetJobPath(jobID string) string
}
