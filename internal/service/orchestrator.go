package service

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"multiviral/internal/core/domain"
	"multiviral/internal/core/ports"
)

// Source kinds accepted by Submit.
const (
	SourceYouTube = "youtube"
	SourceRemote  = "remote"
	SourceFile    = "file"
)

var youtubePattern = regexp.MustCompile(`(?:https?://)?(?:www\.)?(?:youtube\.com/(?:watch\?v=|shorts/)|youtu\.be/)[\w-]+`)

// SubmitRequest describes one submission.
type SubmitRequest struct {
	// Source is a local file path or a media URL.
	Source   string
	Options  domain.Options
	Generate bool
}

// Orchestrator coordinates the submission workflow.
type Orchestrator struct {
	api        ports.JobAPI
	downloader ports.Downloader
	store      ports.ArtifactStore
	logger     logrus.FieldLogger
	now        func() time.Time
}

// NewOrchestrator creates a new Orchestrator. store may be nil.
func NewOrchestrator(
	api ports.JobAPI,
	downloader ports.Downloader,
	store ports.ArtifactStore,
	logger logrus.FieldLogger,
) *Orchestrator {
	return &Orchestrator{
		api:        api,
		downloader: downloader,
		store:      store,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Submit sends the source to the backend and, if requested, starts generation.
// YouTube links are registered by URL, other URLs are fetched and uploaded,
// anything else is read from disk.
func (o *Orchestrator) Submit(ctx context.Context, req SubmitRequest) (*domain.SubmitResult, error) {
	opts, err := req.Options.Normalize()
	if err != nil {
		return nil, err
	}

	kind := DetectSource(req.Source)
	log := o.logger.WithFields(logrus.Fields{"source": kind, "transcript_language": opts.TranscriptLanguage})

	var sub *domain.Submission
	switch kind {
	case SourceYouTube:
		log.Info("submitting YouTube URL")
		sub, err = o.api.SubmitURL(ctx, strings.TrimSpace(req.Source), opts)
	case SourceRemote:
		sub, err = o.uploadRemote(ctx, req.Source, opts, log)
	default:
		sub, err = o.uploadFile(ctx, req.Source, opts, log)
	}
	if err != nil {
		return nil, fmt.Errorf("submission failed: %w", err)
	}
	if err := domain.ValidateJobID(sub.JobID); err != nil {
		return nil, fmt.Errorf("backend accepted the submission: %w", err)
	}

	result := &domain.SubmitResult{Submission: *sub, Source: kind, SubmittedAt: o.now()}
	log = log.WithField("job_id", sub.JobID)
	log.Info("submission accepted")

	if o.store != nil {
		if err := o.store.SaveSubmission(ctx, result); err != nil {
			log.WithError(err).Warn("failed to record submission")
		}
	}

	if req.Generate {
		if err := o.api.Generate(ctx, sub.JobID); err != nil {
			return result, fmt.Errorf("failed to start generation: %w", err)
		}
		result.Generated = true
		log.Info("generation started")
	}
	return result, nil
}

// Generate starts processing of an existing job.
func (o *Orchestrator) Generate(ctx context.Context, jobID string) error {
	if err := domain.ValidateJobID(jobID); err != nil {
		return err
	}
	if err := o.api.Generate(ctx, jobID); err != nil {
		return err
	}
	o.logger.WithField("job_id", jobID).Info("generation started")
	return nil
}

func (o *Orchestrator) uploadFile(ctx context.Context, p string, opts domain.Options, log logrus.FieldLogger) (*domain.Submission, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open media file: %w", err)
	}
	defer f.Close()

	log.WithField("path", p).Info("uploading media file")
	return o.api.Upload(ctx, filepath.Base(p), f, opts)
}

func (o *Orchestrator) uploadRemote(ctx context.Context, mediaURL string, opts domain.Options, log logrus.FieldLogger) (*domain.Submission, error) {
	if o.downloader == nil {
		return nil, fmt.Errorf("no downloader configured for %s", mediaURL)
	}

	log.WithField("url", mediaURL).Info("fetching remote media")
	body, err := o.downloader.Download(ctx, mediaURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	return o.api.Upload(ctx, remoteFilename(mediaURL), body, opts)
}

// DetectSource classifies a submission source.
func DetectSource(source string) string {
	s := strings.TrimSpace(source)
	if youtubePattern.MatchString(s) {
		return SourceYouTube
	}
	if u, err := url.Parse(s); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		return SourceRemote
	}
	return SourceFile
}

func remoteFilename(mediaURL string) string {
	u, err := url.Parse(mediaURL)
	if err != nil {
		return "media"
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "media"
	}
	return name
}
