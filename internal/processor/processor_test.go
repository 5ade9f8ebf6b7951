package processor

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/adverant/nexus/docscan-client/internal/clients"
	"github.com/adverant/nexus/docscan-client/internal/errors"
)

// recorder collects progress snapshots from concurrent callbacks
type recorder struct {
	mu        sync.Mutex
	snapshots []JobSnapshot
}

func (r *recorder) observe(s JobSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, s)
}

func (r *recorder) all() []JobSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]JobSnapshot(nil), r.snapshots...)
}

// fakeSubmitter counts calls and optionally blocks until released
type fakeSubmitter struct {
	calls   int32
	result  *clients.OCRResult
	err     error
	release chan struct{}
}

func (f *fakeSubmitter) Submit(ctx context.Context, jobID string, req *clients.ScanRequest, opts ...clients.SubmitOption) (*clients.OCRResult, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, errors.NewCancelledError(jobID, ctx.Err())
		}
	}
	return f.result, f.err
}

func (f *fakeSubmitter) BaseURL() string { return "http://fake" }

func writeImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "photo.jpg")
	if err := os.WriteFile(path, []byte{0xff, 0xd8, 0xff, 0xe0}, 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}
	return path
}

func TestSubmitHelloWorldScenario(t *testing.T) {
	var posts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&posts, 1)
		// Hold the response long enough for a few scripted ticks.
		time.Sleep(60 * time.Millisecond)
		io.WriteString(w, `{"text":"Hello world","metadata":{"processing_method":"AWS Textract","confidence":99,"character_count":11,"processing_type":"document_text_detection"},"status":"ok"}`)
	}))
	defer server.Close()

	client, err := clients.NewOCRClient(&clients.OCRClientConfig{BaseURL: server.URL, Timeout: time.Second, ValidateResponses: true})
	if err != nil {
		t.Fatalf("NewOCRClient() error = %v", err)
	}

	rec := &recorder{}
	proc, err := NewScanProcessor(&ProcessorConfig{
		Client:           client,
		ProgressInterval: 10 * time.Millisecond,
		OnProgress:       rec.observe,
	})
	if err != nil {
		t.Fatalf("NewScanProcessor() error = %v", err)
	}

	job := NewScanJob(writeImage(t), "Doc")
	res, err := proc.Submit(context.Background(), job)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if res.Text != "Hello world" {
		t.Errorf("result text = %q", res.Text)
	}
	if n := atomic.LoadInt32(&posts); n != 1 {
		t.Errorf("POSTs = %d, want 1", n)
	}

	snap := job.Snapshot()
	if snap.Status != StatusSucceeded {
		t.Errorf("status = %s, want succeeded", snap.Status)
	}
	if snap.ProgressPercent != 0 || snap.ProgressLabel != "" {
		t.Errorf("progress = %d/%q, want reset", snap.ProgressPercent, snap.ProgressLabel)
	}
	if snap.Result == nil || snap.Text != "Hello world" {
		t.Errorf("job result/text not recorded: %+v", snap)
	}

	seen := rec.all()
	if len(seen) < 3 {
		t.Fatalf("progress updates = %d, want at least start, done and reset", len(seen))
	}
	if first := seen[0]; first.ProgressPercent != StartStep.Percent {
		t.Errorf("first update = %d, want %d", first.ProgressPercent, StartStep.Percent)
	}
	if done := seen[len(seen)-2]; done.ProgressPercent != 100 || done.Status != StatusSucceeded {
		t.Errorf("penultimate update = %+v, want 100%% succeeded", done)
	}
	if last := seen[len(seen)-1]; last.ProgressPercent != 0 || last.ProgressLabel != "" {
		t.Errorf("last update = %+v, want reset", last)
	}

	sawAwaiting := false
	for _, s := range seen {
		if s.Status == StatusAwaitingResponse {
			sawAwaiting = true
		}
	}
	if !sawAwaiting {
		t.Errorf("never observed %s", StatusAwaitingResponse)
	}
}

func TestSubmitMissingFileMakesNoCall(t *testing.T) {
	fake := &fakeSubmitter{result: &clients.OCRResult{Text: "x", Status: "ok"}}
	proc, _ := NewScanProcessor(&ProcessorConfig{Client: fake, ProgressInterval: time.Millisecond})

	job := NewScanJob(filepath.Join(t.TempDir(), "nope.jpg"), "Doc")
	_, err := proc.Submit(context.Background(), job)

	if !errors.HasCode(err, errors.ErrorInvalidInput) {
		t.Fatalf("error = %v, want input error", err)
	}
	if n := atomic.LoadInt32(&fake.calls); n != 0 {
		t.Errorf("submitter calls = %d, want 0", n)
	}

	snap := job.Snapshot()
	if snap.Status != StatusFailed || snap.Err == nil {
		t.Errorf("snapshot = %+v, want failed with error", snap)
	}
	if snap.ProgressPercent != 0 || snap.ProgressLabel != "" {
		t.Errorf("progress not reset: %d/%q", snap.ProgressPercent, snap.ProgressLabel)
	}
}

func TestSubmitFailureStopsTimer(t *testing.T) {
	fake := &fakeSubmitter{err: errors.NewAuthError("job", 403, "Forbidden"), release: make(chan struct{})}
	rec := &recorder{}
	proc, _ := NewScanProcessor(&ProcessorConfig{
		Client:           fake,
		ProgressInterval: 5 * time.Millisecond,
		OnProgress:       rec.observe,
	})

	job := NewScanJob(writeImage(t), "Doc")
	time.AfterFunc(20*time.Millisecond, func() { close(fake.release) })

	_, err := proc.Submit(context.Background(), job)
	if !errors.HasCode(err, errors.ErrorAuth) {
		t.Fatalf("error = %v, want auth error", err)
	}

	countAtReturn := len(rec.all())
	time.Sleep(50 * time.Millisecond)
	if after := len(rec.all()); after != countAtReturn {
		t.Errorf("progress updated after Submit returned: %d → %d", countAtReturn, after)
	}

	snap := job.Snapshot()
	if snap.Status != StatusFailed {
		t.Errorf("status = %s, want failed", snap.Status)
	}
	if snap.ProgressPercent != 0 || snap.ProgressLabel != "" {
		t.Errorf("progress not reset: %d/%q", snap.ProgressPercent, snap.ProgressLabel)
	}
}

func TestSubmitRejectsConcurrentSubmission(t *testing.T) {
	fake := &fakeSubmitter{result: &clients.OCRResult{Text: "x", Status: "success"}, release: make(chan struct{})}
	proc, _ := NewScanProcessor(&ProcessorConfig{Client: fake, ProgressInterval: time.Hour})

	job := NewScanJob(writeImage(t), "Doc")

	done := make(chan error, 1)
	go func() {
		_, err := proc.Submit(context.Background(), job)
		done <- err
	}()

	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&fake.calls) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	_, err := proc.Submit(context.Background(), job)
	if !errors.HasCode(err, errors.ErrorSubmissionInProgress) {
		t.Errorf("second Submit error = %v, want submission in progress", err)
	}

	close(fake.release)
	if err := <-done; err != nil {
		t.Fatalf("first Submit error = %v", err)
	}
	if n := atomic.LoadInt32(&fake.calls); n != 1 {
		t.Errorf("submitter calls = %d, want 1", n)
	}
}

func TestSubmitCancelledOnTeardown(t *testing.T) {
	fake := &fakeSubmitter{release: make(chan struct{})}
	proc, _ := NewScanProcessor(&ProcessorConfig{Client: fake, ProgressInterval: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	job := NewScanJob(writeImage(t), "Doc")
	_, err := proc.Submit(ctx, job)
	if !errors.HasCode(err, errors.ErrorCancelled) {
		t.Fatalf("error = %v, want cancelled", err)
	}
	if job.Status() != StatusFailed {
		t.Errorf("status = %s, want failed", job.Status())
	}
}

func TestEditTextReplacesText(t *testing.T) {
	job := NewScanJob("photo.jpg", "Doc")
	job.succeed(&clients.OCRResult{Text: "original", Status: "ok"})

	job.EditText("")
	if job.Text() != "" {
		t.Errorf("Text() = %q, want empty", job.Text())
	}
	job.EditText("changed\ntext")
	if job.Text() != "changed\ntext" {
		t.Errorf("Text() = %q", job.Text())
	}
	if job.Result().Text != "original" {
		t.Errorf("result text must stay immutable, got %q", job.Result().Text)
	}
}

func TestErrorFieldsUnwrapsScanError(t *testing.T) {
	wrapped := fmt.Errorf("submit: %w", errors.NewServerError("job-1", 503, "busy"))

	fields := errorFields(wrapped)
	got := map[interface{}]interface{}{}
	for i := 0; i+1 < len(fields); i += 2 {
		got[fields[i]] = fields[i+1]
	}
	if got["error_code"] != string(errors.ErrorServer) || got["status_code"] != 503 || got["job_id"] != "job-1" {
		t.Errorf("errorFields() = %v, want ScanError fields", fields)
	}

	plain := errorFields(stderrors.New("disk gone"))
	if len(plain) != 2 || plain[0] != "error" {
		t.Errorf("errorFields(plain) = %v", plain)
	}
}
