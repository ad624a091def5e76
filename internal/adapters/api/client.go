package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"multiviral/internal/core/domain"
)

// DefaultBaseURL is used when no API URL is configured.
const DefaultBaseURL = "http://localhost:8001"

// Client implements ports.JobAPI over the backend's REST API.
type Client struct {
	baseURL      string
	client       *http.Client
	uploadClient *http.Client
	logger       logrus.FieldLogger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient sets the client used for status, listing and generation calls.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.client = c }
}

// WithUploadClient sets the client used for media uploads.
func WithUploadClient(c *http.Client) Option {
	return func(cl *Client) { cl.uploadClient = c }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(cl *Client) { cl.logger = l }
}

// NewClient creates a Client for baseURL. A trailing slash is ignored.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid API URL %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL:      baseURL,
		client:       &http.Client{Timeout: 30 * time.Second},
		uploadClient: &http.Client{Timeout: 30 * time.Minute}, // media files can be large
		logger:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalised API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Upload sends a media file as multipart form data.
func (c *Client) Upload(ctx context.Context, filename string, body io.Reader, opts domain.Options) (*domain.Submission, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("transcript_language", string(opts.TranscriptLanguage))
	params.Set("output_language", string(opts.OutputLanguage))
	endpoint := fmt.Sprintf("%s/api/upload?%s", c.baseURL, params.Encode())

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", filename)
		if err == nil {
			_, err = io.Copy(part, body)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := c.newRequest(ctx, http.MethodPost, endpoint, pr)
	if err != nil {
		pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	c.logger.WithFields(logrus.Fields{"filename": filename, "transcript_language": opts.TranscriptLanguage}).Debug("uploading media")

	resp, err := c.uploadClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", filename, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, readError(resp, "Upload failed", maxSubmitErrorLen)
	}

	var sub domain.Submission
	if err := json.NewDecoder(resp.Body).Decode(&sub); err != nil {
		return nil, fmt.Errorf("decoding upload response: %w", err)
	}
	return &sub, nil
}

// SubmitURL registers a source URL for processing.
func (c *Client) SubmitURL(ctx context.Context, sourceURL string, opts domain.Options) (*domain.Submission, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(map[string]string{
		"url":                 sourceURL,
		"transcript_language": string(opts.TranscriptLanguage),
		"output_language":     string(opts.OutputLanguage),
	})
	if err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.baseURL+"/api/upload/youtube", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to submit URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, readError(resp, "YouTube fetch failed", maxSubmitErrorLen)
	}

	var sub domain.Submission
	if err := json.NewDecoder(resp.Body).Decode(&sub); err != nil {
		return nil, fmt.Errorf("decoding submission response: %w", err)
	}
	return &sub, nil
}

// Generate asks the backend to start processing jobID.
func (c *Client) Generate(ctx context.Context, jobID string) error {
	req, err := c.newRequest(ctx, http.MethodPost, c.jobURL("/api/generate/", jobID), nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to start generation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return readError(resp, "Generation failed", maxSubmitErrorLen)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// GetStatus fetches the current snapshot of jobID.
func (c *Client) GetStatus(ctx context.Context, jobID string) (*domain.Snapshot, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.jobURL("/api/jobs/", jobID), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, readError(resp, "Failed to fetch status", maxStatusErrorLen)
	}

	var snap domain.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decoding job status: %w", err)
	}
	if snap.Status == "" {
		return nil, fmt.Errorf("decoding job status: missing status field")
	}
	return &snap, nil
}

// ListJobs returns the backend's job listing.
func (c *Client) ListJobs(ctx context.Context) ([]domain.JobSummary, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.baseURL+"/api/jobs", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, readError(resp, "Failed to list jobs", maxStatusErrorLen)
	}

	var jobs []domain.JobSummary
	if err := json.NewDecoder(resp.Body).Decode(&jobs); err != nil {
		return nil, fmt.Errorf("decoding job list: %w", err)
	}
	return jobs, nil
}

func (c *Client) jobURL(prefix, jobID string) string {
	return c.baseURL + prefix + url.PathEscape(jobID)
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	return req, nil
}
