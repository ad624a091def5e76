package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrNotMedia is returned when a URL serves a web page instead of a media file.
var ErrNotMedia = errors.New("URL does not point to a media file")

// HTTPDownloader implements ports.Downloader using standard HTTP.
type HTTPDownloader struct {
	client *http.Client
	logger logrus.FieldLogger
}

// NewHTTPDownloader creates a new HTTPDownloader. A nil client gets a 30 minute timeout.
func NewHTTPDownloader(client *http.Client, logger logrus.FieldLogger) *HTTPDownloader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Minute} // media files can be large
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &HTTPDownloader{client: client, logger: logger}
}

// Download fetches the media at mediaURL. The caller must close the returned body.
func (d *HTTPDownloader) Download(ctx context.Context, mediaURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download media: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if mt, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err == nil && (mt == "text/html" || mt == "application/xhtml+xml") {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s serves %s", ErrNotMedia, mediaURL, mt)
	}

	d.logger.WithFields(logrus.Fields{
		"url":            mediaURL,
		"content_length": resp.ContentLength,
	}).Debug("media download started")
	return resp.Body, nil
}
