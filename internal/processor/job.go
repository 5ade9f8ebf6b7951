package processor

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/adverant/nexus/docscan-client/internal/clients"
)

// JobStatus is the lifecycle state of a ScanJob
type JobStatus string

const (
	StatusIdle             JobStatus = "idle"
	StatusEncoding         JobStatus = "encoding"
	StatusSubmitted        JobStatus = "submitted"
	StatusAwaitingResponse JobStatus = "awaiting-response"
	StatusSucceeded        JobStatus = "succeeded"
	StatusFailed           JobStatus = "failed"
)

// InFlight reports whether a submission is running in this state
func (s JobStatus) InFlight() bool {
	return s == StatusEncoding || s == StatusSubmitted || s == StatusAwaitingResponse
}

// ScanJob is the transient record of one capture-to-result attempt.
// It is safe for concurrent readers; only the processor mutates it.
type ScanJob struct {
	id                  string
	sourceImageLocation string
	title               string
	createdAt           time.Time

	busy atomic.Bool

	mu              sync.RWMutex
	status          JobStatus
	progressPercent int
	progressLabel   string
	result          *clients.OCRResult
	err             error
	text            string
}

// JobSnapshot is a consistent copy of a job's observable state
type JobSnapshot struct {
	ID                  string
	SourceImageLocation string
	Title               string
	Status              JobStatus
	ProgressPercent     int
	ProgressLabel       string
	Result              *clients.OCRResult
	Err                 error
	Text                string
}

// NewScanJob creates an idle job for a local image
func NewScanJob(sourceImageLocation, title string) *ScanJob {
	return &ScanJob{
		id:                  uuid.NewString(),
		sourceImageLocation: sourceImageLocation,
		title:               title,
		createdAt:           time.Now(),
		status:              StatusIdle,
	}
}

func (j *ScanJob) ID() string                  { return j.id }
func (j *ScanJob) SourceImageLocation() string { return j.sourceImageLocation }
func (j *ScanJob) Title() string               { return j.title }
func (j *ScanJob) CreatedAt() time.Time        { return j.createdAt }

// Status returns the current lifecycle state
func (j *ScanJob) Status() JobStatus {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.status
}

// Result returns the OCR result, nil unless the job succeeded
func (j *ScanJob) Result() *clients.OCRResult {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.result
}

// Err returns the failure, nil unless the job failed
func (j *ScanJob) Err() error {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.err
}

// Text returns the current (possibly edited) document text
func (j *ScanJob) Text() string {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.text
}

// EditText replaces the document text. No validation is applied.
func (j *ScanJob) EditText(updated string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.text = updated
}

// Snapshot returns a consistent copy of the job state
func (j *ScanJob) Snapshot() JobSnapshot {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return JobSnapshot{
		ID:                  j.id,
		SourceImageLocation: j.sourceImageLocation,
		Title:               j.title,
		Status:              j.status,
		ProgressPercent:     j.progressPercent,
		ProgressLabel:       j.progressLabel,
		Result:              j.result,
		Err:                 j.err,
		Text:                j.text,
	}
}

func (j *ScanJob) tryBegin() bool {
	return j.busy.CompareAndSwap(false, true)
}

func (j *ScanJob) end() {
	j.busy.Store(false)
}

// begin clears the outcome of any previous attempt
func (j *ScanJob) begin() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = StatusEncoding
	j.result = nil
	j.err = nil
}

func (j *ScanJob) setStatus(s JobStatus) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = s
}

// advanceStatus moves forward only from the expected state, so a late
// callback cannot overwrite a terminal status.
func (j *ScanJob) advanceStatus(from, to JobStatus) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status == from {
		j.status = to
	}
}

func (j *ScanJob) setProgress(step ProgressStep) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.progressPercent = step.Percent
	j.progressLabel = step.Label
}

func (j *ScanJob) succeed(result *clients.OCRResult) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = StatusSucceeded
	j.result = result
	j.err = nil
	j.text = result.Text
}

func (j *ScanJob) fail(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = StatusFailed
	j.result = nil
	j.err = err
}
