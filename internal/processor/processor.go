/**
 * Scan Processor
 *
 * Owns the lifecycle of one scan-to-document request:
 * - validate and base64-encode the local image
 * - submit it to the OCR backend in a single round trip
 * - run the scripted progress sequence alongside the request
 * - record the result (or the failure) on the ScanJob
 *
 * The progress timer and the request run as two tasks in one errgroup scope.
 * The final progress state is written only after both have exited.
 */

package processor

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/adverant/nexus/docscan-client/internal/clients"
	"github.com/adverant/nexus/docscan-client/internal/errors"
	"github.com/adverant/nexus/docscan-client/internal/logging"
)

// OCRSubmitter is the transport used by the processor
type OCRSubmitter interface {
	Submit(ctx context.Context, jobID string, req *clients.ScanRequest, opts ...clients.SubmitOption) (*clients.OCRResult, error)
	BaseURL() string
}

// ProgressFunc observes every progress or status change of a job.
// It may be called from the timer and request goroutines concurrently.
type ProgressFunc func(JobSnapshot)

// ProcessorConfig holds processor configuration
type ProcessorConfig struct {
	Client           OCRSubmitter
	ProgressSteps    []ProgressStep // nil = DefaultProgressSteps
	ProgressInterval time.Duration  // 0 = DefaultProgressInterval
	OnProgress       ProgressFunc   // optional
}

// ScanProcessor runs scan submissions
type ScanProcessor struct {
	client     OCRSubmitter
	script     *ProgressScript
	onProgress ProgressFunc
	logger     *logging.Logger
}

// NewScanProcessor creates a new scan processor
func NewScanProcessor(cfg *ProcessorConfig) (*ScanProcessor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	if cfg.Client == nil {
		return nil, fmt.Errorf("OCR client is required")
	}

	return &ScanProcessor{
		client:     cfg.Client,
		script:     NewProgressScript(cfg.ProgressSteps, cfg.ProgressInterval),
		onProgress: cfg.OnProgress,
		logger:     logging.NewLogger("ScanProcessor"),
	}, nil
}

// Submit turns the job's image into an OCRResult via one backend round trip.
// A job accepts one submission at a time; a concurrent call fails with
// SUBMISSION_IN_PROGRESS without touching the running attempt.
func (p *ScanProcessor) Submit(ctx context.Context, job *ScanJob) (*clients.OCRResult, error) {
	if job == nil {
		return nil, errors.NewInputError("", "There is no image to process", nil)
	}

	if !job.tryBegin() {
		return nil, errors.NewSubmissionInProgressError(job.ID())
	}
	defer job.end()

	startTime := time.Now()
	job.begin()
	p.update(job, StartStep)

	result, err := p.run(ctx, job)
	if err != nil {
		job.fail(err)
		p.update(job, ResetStep)

		fields := append([]interface{}{"jobId", job.ID(), "duration", time.Since(startTime)}, errorFields(err)...)
		p.logger.Error("Scan failed", fields...)
		return nil, err
	}

	job.succeed(result)
	p.update(job, DoneStep)
	p.update(job, ResetStep)

	p.logger.Info("Scan succeeded",
		"jobId", job.ID(),
		"duration", time.Since(startTime),
		"characters", len(result.Text),
		"hasDownload", result.HasDownload())

	return result, nil
}

func (p *ScanProcessor) run(ctx context.Context, job *ScanJob) (*clients.OCRResult, error) {
	info, err := os.Stat(job.SourceImageLocation())
	if err != nil {
		return nil, errors.NewInputError(job.ID(), "The image is not available", err)
	}
	if info.IsDir() {
		return nil, errors.NewInputError(job.ID(), "The image is not available",
			fmt.Errorf("%s is a directory", job.SourceImageLocation()))
	}

	g, gctx := errgroup.WithContext(ctx)
	tickCtx, stopTicks := context.WithCancel(gctx)
	defer stopTicks()

	g.Go(func() error {
		p.script.Run(tickCtx, func(step ProgressStep) {
			p.update(job, step)
		})
		return nil
	})

	var result *clients.OCRResult
	g.Go(func() error {
		defer stopTicks()

		imageData, err := os.ReadFile(job.SourceImageLocation())
		if err != nil {
			return errors.NewInputError(job.ID(), "The image could not be read", err)
		}

		req := clients.NewScanRequest(imageData, job.Title())
		p.setStatus(job, StatusSubmitted)

		res, err := p.client.Submit(gctx, job.ID(), req, clients.WithRequestWritten(func() {
			job.advanceStatus(StatusSubmitted, StatusAwaitingResponse)
			p.notify(job)
		}))
		if err != nil {
			return err
		}
		result = res
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return result, nil
}

func (p *ScanProcessor) setStatus(job *ScanJob, status JobStatus) {
	job.setStatus(status)
	p.notify(job)
}

func (p *ScanProcessor) update(job *ScanJob, step ProgressStep) {
	job.setProgress(step)
	p.notify(job)
}

func (p *ScanProcessor) notify(job *ScanJob) {
	if p.onProgress != nil {
		p.onProgress(job.Snapshot())
	}
}

// errorFields flattens a ScanError anywhere in err's chain into log key-values
func errorFields(err error) []interface{} {
	var se *errors.ScanError
	if !stderrors.As(err, &se) {
		return []interface{}{"error", err}
	}

	fields := make([]interface{}, 0, 2*len(se.ToMap()))
	for k, v := range se.ToMap() {
		fields = append(fields, k, v)
	}
	return fields
}
