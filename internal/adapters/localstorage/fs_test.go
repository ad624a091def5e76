package localstorage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multiviral/internal/core/domain"
)

const jobID = "3b241101-e2bb-4255-8caf-4136c566a962"

func readFile(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(data)
}

func TestGetJobPath(t *testing.T) {
	s := NewLocalStorage("/data")
	assert.Equal(t, filepath.Join("/data", "jobs", jobID), s.GetJobPath(jobID))
}

func TestSaveArtifacts(t *testing.T) {
	s := NewLocalStorage(t.TempDir())
	artifacts := &domain.Artifacts{
		Clips:   []domain.Clip{{StartTime: "00:00:10", EndTime: "00:00:40", Title: "Hook", Reason: "strong open"}},
		Thread:  []string{"first post", "second post"},
		Article: "# Title\n\nSome **bold** text.",
	}

	require.NoError(t, s.SaveArtifacts(context.Background(), jobID, artifacts))
	dir := s.GetJobPath(jobID)

	var clips []domain.Clip
	require.NoError(t, json.Unmarshal([]byte(readFile(t, dir, ClipsFile)), &clips))
	assert.Equal(t, artifacts.Clips, clips)

	assert.Equal(t, "first post\n\nsecond post", readFile(t, dir, ThreadFile))
	assert.Equal(t, artifacts.Article, readFile(t, dir, ArticleFile))
	assert.Equal(t, "<h1>Title</h1>\n<p>Some <strong>bold</strong> text.</p>\n", readFile(t, dir, ArticleHTMLFile))
}

func TestSaveArtifactsEmpty(t *testing.T) {
	s := NewLocalStorage(t.TempDir())
	require.Error(t, s.SaveArtifacts(context.Background(), jobID, nil))

	require.NoError(t, s.SaveArtifacts(context.Background(), jobID, &domain.Artifacts{}))
	assert.Equal(t, "[]", readFile(t, s.GetJobPath(jobID), ClipsFile))
}

func TestSaveSnapshotAndSubmission(t *testing.T) {
	s := NewLocalStorage(t.TempDir())
	ctx := context.Background()

	snap := &domain.Snapshot{ID: jobID, Status: domain.StatusGenerating}
	require.NoError(t, s.SaveSnapshot(ctx, snap))

	var got domain.Snapshot
	require.NoError(t, json.Unmarshal([]byte(readFile(t, s.GetJobPath(jobID), SnapshotFile)), &got))
	assert.Equal(t, *snap, got)

	result := &domain.SubmitResult{
		Submission:  domain.Submission{JobID: jobID, Status: domain.StatusUploaded, Filename: "talk.mp4"},
		Source:      "file",
		SubmittedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, s.SaveSubmission(ctx, result))
	assert.Contains(t, readFile(t, s.GetJobPath(jobID), SubmissionFile), `"filename": "talk.mp4"`)
}

func TestRejectsInvalidJobID(t *testing.T) {
	root := t.TempDir()
	s := NewLocalStorage(filepath.Join(root, "data"))
	ctx := context.Background()

	for _, id := range []string{"../../escaped", "", "a/b"} {
		require.ErrorIs(t, s.SaveSnapshot(ctx, &domain.Snapshot{ID: id, Status: domain.StatusCompleted}), domain.ErrInvalidJobID, id)
		require.ErrorIs(t, s.SaveArtifacts(ctx, id, &domain.Artifacts{}), domain.ErrInvalidJobID, id)
		require.ErrorIs(t, s.SaveSubmission(ctx, &domain.SubmitResult{Submission: domain.Submission{JobID: id}}), domain.ErrInvalidJobID, id)
	}

	assert.NoFileExists(t, filepath.Join(root, "escaped", SnapshotFile))
	assert.NoDirExists(t, filepath.Join(root, "data"))
}
