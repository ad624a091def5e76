package downloader

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, h http.HandlerFunc) string {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv.URL
}

func quiet() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestDownload(t *testing.T) {
	url := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		_, _ = io.WriteString(w, "frames")
	})

	d := NewHTTPDownloader(nil, quiet())
	body, err := d.Download(context.Background(), url+"/clip.mp4")
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "frames", string(data))
}

func TestDownloadRejectsBadStatus(t *testing.T) {
	url := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := NewHTTPDownloader(nil, quiet()).Download(context.Background(), url)
	require.ErrorContains(t, err, "unexpected status code: 404")
}

func TestDownloadRejectsWebPages(t *testing.T) {
	url := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, "<html></html>")
	})

	_, err := NewHTTPDownloader(nil, quiet()).Download(context.Background(), url)
	require.ErrorIs(t, err, ErrNotMedia)
}
