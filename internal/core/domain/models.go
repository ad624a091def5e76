package domain

import (
	"strings"
	"time"
)

// Status is the processing stage reported by the backend for a job.
type Status string

const (
	StatusUploaded     Status = "uploaded"
	StatusProcessing   Status = "processing"
	StatusDownloading  Status = "downloading"
	StatusTranscribing Status = "transcribing"
	StatusGenerating   Status = "generating"
	StatusCompleted    Status = "completed"
	StatusError        Status = "error"
)

// Terminal reports whether no further status change can happen.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Source types reported by the backend.
const (
	SourceFile    = "file"
	SourceYouTube = "youtube"
)

// Clip is a short highlight candidate cut from the source media.
type Clip struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Title     string `json:"title"`
	Reason    string `json:"reason"`
}

// Artifacts holds the generated outputs of a completed job.
type Artifacts struct {
	Clips   []Clip   `json:"viral_clips"`
	Thread  []string `json:"x_thread"`
	Article string   `json:"blog_article"`
}

// ThreadSeparator joins thread posts when they are copied or saved together.
const ThreadSeparator = "\n\n"

// ThreadText returns all thread posts as one block of text.
func (a *Artifacts) ThreadText() string {
	return strings.Join(a.Thread, ThreadSeparator)
}

// Snapshot is one fetched copy of a job's state. It is never mutated after decoding.
type Snapshot struct {
	ID           string     `json:"job_id"`
	Status       Status     `json:"status"`
	SourceType   string     `json:"source_type,omitempty"`
	Transcript   *string    `json:"transcript"`
	Artifacts    *Artifacts `json:"results"`
	ErrorMessage *string    `json:"error"`
	CreatedAt    string     `json:"created_at,omitempty"`
	UpdatedAt    string     `json:"updated_at,omitempty"`
}

// Materialized reports whether a completed snapshot already carries its artifacts.
func (s *Snapshot) Materialized() bool {
	return s != nil && s.Status == StatusCompleted && s.Artifacts != nil
}

// Err returns the job-reported error message, or "" when there is none.
func (s *Snapshot) Err() string {
	if s == nil || s.ErrorMessage == nil {
		return ""
	}
	return *s.ErrorMessage
}

// ShortID is the abbreviated identifier shown next to a job.
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// JobSummary is one row of the backend's job listing.
type JobSummary struct {
	ID         string `json:"job_id"`
	Status     Status `json:"status"`
	SourceType string `json:"source_type"`
	CreatedAt  string `json:"created_at"`
}

// Submission is the backend's answer to an accepted upload or URL.
type Submission struct {
	JobID    string `json:"job_id"`
	Status   Status `json:"status"`
	Filename string `json:"filename,omitempty"`
	URL      string `json:"url,omitempty"`
}

// SubmitResult holds the outcome of a submission run by the orchestrator.
type SubmitResult struct {
	Submission  Submission `json:"submission"`
	Source      string     `json:"source"`
	Generated   bool       `json:"generated"`
	SubmittedAt time.Time  `json:"submitted_at"`
}
