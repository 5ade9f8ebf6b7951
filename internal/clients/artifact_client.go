/**
 * Artifact Client
 *
 * Fetches documents the OCR backend pre-generated (e.g. a .docx behind a
 * presigned download_url) into a local file so they can be shared.
 */

package clients

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/adverant/nexus/docscan-client/internal/errors"
	"github.com/adverant/nexus/docscan-client/internal/logging"
)

// ArtifactClient downloads remote artifacts to local files
type ArtifactClient struct {
	httpClient *http.Client
	logger     *logging.Logger
}

// NewArtifactClient creates a new artifact client
func NewArtifactClient(timeout time.Duration) *ArtifactClient {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &ArtifactClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logging.NewLogger("ArtifactClient"),
	}
}

// Download streams url into destPath and returns the number of bytes written.
// The file appears at destPath only once fully written.
func (c *ArtifactClient) Download(ctx context.Context, url string, destPath string) (int64, error) {
	if url == "" {
		return 0, fmt.Errorf("download URL is required")
	}

	if destPath == "" {
		return 0, fmt.Errorf("destination path is required")
	}

	c.logger.Info("Downloading artifact", "url", url, "dest", destPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, errors.NewDownloadFailedError(url, 0, err)
	}

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, errors.NewDownloadFailedError(url, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return 0, errors.NewDownloadFailedError(url, resp.StatusCode, fmt.Errorf("%s", string(body)))
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create download directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".download-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	written, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, errors.NewDownloadFailedError(url, resp.StatusCode, err)
	}

	if err := os.Rename(tmpName, destPath); err != nil {
		return 0, fmt.Errorf("failed to move download into place: %w", err)
	}

	c.logger.Info("Artifact downloaded",
		"dest", destPath,
		"bytes", written,
		"duration", time.Since(startTime))

	return written, nil
}
