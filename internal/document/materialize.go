/**
 * Document materialization
 *
 * Turns an OCR result into a local file the user can share:
 * - a pre-generated .docx fetched from the backend's download_url, or
 * - an HTML document synthesized locally from the extracted text.
 *
 * When the platform has no share surface, the local path is reported instead.
 */

package document

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adverant/nexus/docscan-client/internal/clients"
	"github.com/adverant/nexus/docscan-client/internal/errors"
	"github.com/adverant/nexus/docscan-client/internal/logging"
)

const (
	MimeTypeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeTypeHTML = "text/html"
)

// Artifact sources
const (
	SourceDownloaded = "downloaded"
	SourceGenerated  = "generated"
)

// Downloader fetches a remote artifact to a local path
type Downloader interface {
	Download(ctx context.Context, url string, destPath string) (int64, error)
}

// Artifact is a materialized, shareable document
type Artifact struct {
	Path     string
	MimeType string
	Size     int64
	Source   string
	Shared   bool
}

// MaterializerConfig holds materializer configuration
type MaterializerConfig struct {
	OutputDir  string
	Downloader Downloader
	Sharer     Sharer           // nil = NoShare
	Now        func() time.Time // nil = time.Now
}

// Materializer produces shareable documents from OCR results
type Materializer struct {
	outputDir  string
	downloader Downloader
	sharer     Sharer
	now        func() time.Time
	logger     *logging.Logger
}

// NewMaterializer creates a new materializer
func NewMaterializer(cfg *MaterializerConfig) (*Materializer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	if cfg.OutputDir == "" {
		return nil, fmt.Errorf("OutputDir is required")
	}

	if cfg.Downloader == nil {
		return nil, fmt.Errorf("Downloader is required")
	}

	m := &Materializer{
		outputDir:  cfg.OutputDir,
		downloader: cfg.Downloader,
		sharer:     cfg.Sharer,
		now:        cfg.Now,
		logger:     logging.NewLogger("Materializer"),
	}
	if m.sharer == nil {
		m.sharer = NoShare{}
	}
	if m.now == nil {
		m.now = time.Now
	}

	return m, nil
}

// Materialize produces the document for a result and hands it to the share
// surface. result may be nil (e.g. a saved history entry); text is the
// current, possibly edited, document text.
func (m *Materializer) Materialize(ctx context.Context, result *clients.OCRResult, text string, title string) (*Artifact, error) {
	var (
		artifact *Artifact
		err      error
	)

	if result.HasDownload() {
		artifact, err = m.download(ctx, result.DownloadURL)
	} else {
		method := ""
		if result != nil {
			method = result.Metadata.ProcessingMethod
		}
		artifact, err = m.generate(text, title, method)
	}
	if err != nil {
		return nil, err
	}

	if !m.sharer.Available() {
		m.logger.Info("No share surface available, document saved locally", "path", artifact.Path)
		return artifact, nil
	}

	dialogTitle := "Share document"
	if artifact.MimeType == MimeTypeDocx {
		dialogTitle = "Share Word document"
	}
	if err := m.sharer.Share(ctx, artifact.Path, artifact.MimeType, dialogTitle); err != nil {
		return artifact, fmt.Errorf("failed to share document: %w", err)
	}
	artifact.Shared = true

	return artifact, nil
}

func (m *Materializer) download(ctx context.Context, url string) (*Artifact, error) {
	path := filepath.Join(m.outputDir, m.filename("docx"))

	if _, err := m.downloader.Download(ctx, url, path); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		_ = os.Remove(path)
		return nil, errors.NewEmptyArtifactError(path, url)
	}

	m.logger.Info("Downloaded document", "path", path, "bytes", info.Size())

	return &Artifact{
		Path:     path,
		MimeType: MimeTypeDocx,
		Size:     info.Size(),
		Source:   SourceDownloaded,
	}, nil
}

func (m *Materializer) generate(text, title, method string) (*Artifact, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.NewInputError("", "There is no text to build the document", nil)
	}

	content, err := RenderHTML(HTMLInput{
		Title:            title,
		Text:             text,
		ProcessingMethod: method,
		GeneratedAt:      m.now(),
	})
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(m.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(m.outputDir, m.filename("html"))
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write document: %w", err)
	}

	m.logger.Info("Generated HTML document", "path", path, "bytes", len(content))

	return &Artifact{
		Path:     path,
		MimeType: MimeTypeHTML,
		Size:     int64(len(content)),
		Source:   SourceGenerated,
	}, nil
}

func (m *Materializer) filename(ext string) string {
	return fmt.Sprintf("ocr_document_%d.%s", m.now().UnixMilli(), ext)
}
