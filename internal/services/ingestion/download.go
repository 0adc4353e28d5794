package ingestion

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
)

// maxDownloadSize caps fetched documents at 100MB
const maxDownloadSize = 100 << 20

// Downloader fetches report documents from download URLs with a bounded
// timeout so a slow origin cannot stall ingestion.
type Downloader struct {
	client *http.Client
	logger arbor.ILogger
}

// NewDownloader creates a document downloader with the given timeout
func NewDownloader(timeout time.Duration, logger arbor.ILogger) *Downloader {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Downloader{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Download fetches the document at url. Any non-2xx response is an error.
func (d *Downloader) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build download request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", "specto/1.0")

	startTime := time.Now()
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download document from %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("download from %s returned status %d", url, resp.StatusCode)
	}

	content, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read document body from %s: %w", url, err)
	}
	if len(content) > maxDownloadSize {
		return nil, fmt.Errorf("document from %s exceeds %d byte limit", url, maxDownloadSize)
	}

	d.logger.Debug().
		Str("url", url).
		Int("size", len(content)).
		Dur("duration", time.Since(startTime)).
		Msg("Document downloaded")

	return content, nil
}
