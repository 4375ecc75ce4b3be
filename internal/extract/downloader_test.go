package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDownloader(maxSize int64) *Downloader {
	return NewDownloader(DownloaderConfig{
		MaxSize:              maxSize,
		AllowPrivateNetworks: true,
	})
}

func pdfHandler(body []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(body)
	}
}

func TestDownloader_Download(t *testing.T) {
	t.Run("downloads a PDF and hashes it", func(t *testing.T) {
		body := []byte("%PDF-1.7 fake pdf content")
		server := httptest.NewServer(pdfHandler(body))
		defer server.Close()

		d := newTestDownloader(0)
		result, err := d.Download(context.Background(), server.URL)
		require.NoError(t, err)

		assert.Equal(t, body, result.Content)
		assert.Equal(t, int64(len(body)), result.SizeBytes)
		assert.Len(t, result.ContentHash, 64)
		assert.Contains(t, result.ContentType, "application/pdf")
	})

	t.Run("rejects non-PDF content type", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html>not found</html>"))
		}))
		defer server.Close()

		d := newTestDownloader(0)
		_, err := d.Download(context.Background(), server.URL)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNotPDF)
	})

	t.Run("rejects files exceeding max size", func(t *testing.T) {
		server := httptest.NewServer(pdfHandler(make([]byte, 100)))
		defer server.Close()

		d := newTestDownloader(50)
		_, err := d.Download(context.Background(), server.URL)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTooLarge)
	})

	t.Run("fails on non-2xx status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		d := newTestDownloader(0)
		_, err := d.Download(context.Background(), server.URL)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDownloadFailed)
	})

	t.Run("rejects private addresses when SSRF guard is on", func(t *testing.T) {
		server := httptest.NewServer(pdfHandler([]byte("%PDF")))
		defer server.Close()

		d := NewDownloader(DownloaderConfig{})
		_, err := d.Download(context.Background(), server.URL)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSSRF)
	})

	t.Run("rejects non-http schemes", func(t *testing.T) {
		d := NewDownloader(DownloaderConfig{})
		_, err := d.Download(context.Background(), "file:///etc/passwd")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSSRF)
	})
}
