package localstorage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"multiviral/internal/core/domain"
	"multiviral/internal/core/markup"
)

// File names written into a job directory.
const (
	SubmissionFile  = "submission.json"
	SnapshotFile    = "snapshot.json"
	ClipsFile       = "clips.json"
	ThreadFile      = "thread.txt"
	ArticleFile     = "article.md"
	ArticleHTMLFile = "article.html"
)

// LocalStorage implements ports.ArtifactStore for the local filesystem.
type LocalStorage struct {
	BaseDir string
}

// NewLocalStorage creates a new LocalStorage instance.
func NewLocalStorage(baseDir string) *LocalStorage {
	return &LocalStorage{BaseDir: baseDir}
}

// InitJob creates the job directory. jobID must be a UUID so that it always
// names a single directory below BaseDir/jobs.
func (s *LocalStorage) InitJob(ctx context.Context, jobID string) error {
	if err := domain.ValidateJobID(jobID); err != nil {
		return err
	}
	path := s.GetJobPath(jobID)
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create job directory %s: %w", path, err)
	}
	return nil
}

// SaveSubmission records the accepted submission.
func (s *LocalStorage) SaveSubmission(ctx context.Context, result *domain.SubmitResult) error {
	if err := s.InitJob(ctx, result.Submission.JobID); err != nil {
		return err
	}
	return s.writeJSON(result.Submission.JobID, SubmissionFile, result)
}

// SaveSnapshot saves the snapshot as fetched.
func (s *LocalStorage) SaveSnapshot(ctx context.Context, snap *domain.Snapshot) error {
	if err := s.InitJob(ctx, snap.ID); err != nil {
		return err
	}
	return s.writeJSON(snap.ID, SnapshotFile, snap)
}

// SaveArtifacts writes clips, thread and article to separate files. The
// article is stored both as written and rendered to HTML.
func (s *LocalStorage) SaveArtifacts(ctx context.Context, jobID string, artifacts *domain.Artifacts) error {
	if artifacts == nil {
		return fmt.Errorf("no artifacts to save for job %s", jobID)
	}
	if err := s.InitJob(ctx, jobID); err != nil {
		return err
	}

	clips := artifacts.Clips
	if clips == nil {
		clips = []domain.Clip{}
	}
	if err := s.writeJSON(jobID, ClipsFile, clips); err != nil {
		return err
	}
	if err := s.writeFile(jobID, ThreadFile, []byte(artifacts.ThreadText())); err != nil {
		return err
	}
	if err := s.writeFile(jobID, ArticleFile, []byte(artifacts.Article)); err != nil {
		return err
	}
	return s.writeFile(jobID, ArticleHTMLFile, []byte(markup.HTML(markup.Parse(artifacts.Article))))
}

// GetJobPath returns the path for a job directory.
func (s *LocalStorage) GetJobPath(jobID string) string {
	return filepath.Join(s.BaseDir, "jobs", jobID)
}

func (s *LocalStorage) writeJSON(jobID, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	return s.writeFile(jobID, name, data)
}

func (s *LocalStorage) writeFile(jobID, name string, data []byte) error {
	path := filepath.Join(s.GetJobPath(jobID), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to save %s: %w", name, err)
	}
	return nil
}
