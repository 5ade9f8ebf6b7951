package processor

import (
	"testing"

	"github.com/adverant/nexus/docscan-client/internal/clients"
	"github.com/adverant/nexus/docscan-client/internal/errors"
)

func succeededSession(t *testing.T) *Session {
	t.Helper()
	s := NewSession(func() string { return "OCR Document" })
	job, err := s.Capture("photo.jpg")
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	job.succeed(&clients.OCRResult{Text: "scanned text", Status: "success"})
	return s
}

func TestSessionHappyPath(t *testing.T) {
	s := succeededSession(t)

	if s.View() != ViewCapture {
		t.Fatalf("view = %s, want capture", s.View())
	}
	if s.Job().Title() != "OCR Document" {
		t.Errorf("title = %q", s.Job().Title())
	}

	if err := s.ShowResult(); err != nil {
		t.Fatalf("ShowResult() error = %v", err)
	}

	text, err := s.OpenEdit()
	if err != nil {
		t.Fatalf("OpenEdit() error = %v", err)
	}
	if text != "scanned text" || s.View() != ViewEditModal {
		t.Fatalf("OpenEdit() = %q in %s", text, s.View())
	}

	if err := s.SetEditBuffer("fixed text"); err != nil {
		t.Fatalf("SetEditBuffer() error = %v", err)
	}
	if err := s.SaveEdit(); err != nil {
		t.Fatalf("SaveEdit() error = %v", err)
	}
	if s.View() != ViewResultPreview {
		t.Errorf("view after save = %s, want result-preview", s.View())
	}
	if s.Job().Text() != "fixed text" {
		t.Errorf("job text = %q", s.Job().Text())
	}
}

func TestSessionCancelEditKeepsText(t *testing.T) {
	s := succeededSession(t)

	if _, err := s.OpenEdit(); err != nil {
		t.Fatalf("OpenEdit() error = %v", err)
	}
	_ = s.SetEditBuffer("discarded")
	if err := s.CancelEdit(); err != nil {
		t.Fatalf("CancelEdit() error = %v", err)
	}
	if s.View() != ViewCapture {
		t.Errorf("view = %s, want capture", s.View())
	}
	if s.Job().Text() != "scanned text" {
		t.Errorf("text changed on cancel: %q", s.Job().Text())
	}
}

func TestSessionInvalidTransitions(t *testing.T) {
	s := NewSession(nil)

	if err := s.ShowResult(); !errors.HasCode(err, errors.ErrorInvalidTransition) {
		t.Errorf("ShowResult() from source-select error = %v", err)
	}
	if _, err := s.OpenEdit(); !errors.HasCode(err, errors.ErrorInvalidTransition) {
		t.Errorf("OpenEdit() from source-select error = %v", err)
	}
	if err := s.SaveEdit(); !errors.HasCode(err, errors.ErrorInvalidTransition) {
		t.Errorf("SaveEdit() outside modal error = %v", err)
	}
	if err := s.Back(); !errors.HasCode(err, errors.ErrorInvalidTransition) {
		t.Errorf("Back() from source-select error = %v", err)
	}

	if _, err := s.Capture("a.jpg"); err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if err := s.ShowResult(); !errors.HasCode(err, errors.ErrorInvalidTransition) {
		t.Errorf("ShowResult() without result error = %v", err)
	}
}

func TestSessionRecaptureDiscardsJob(t *testing.T) {
	s := succeededSession(t)
	first := s.Job()

	second, err := s.Capture("other.jpg")
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if second == first || second.Status() != StatusIdle || second.Text() != "" {
		t.Errorf("recapture kept prior state: %+v", second.Snapshot())
	}

	if err := s.Back(); err != nil {
		t.Fatalf("Back() error = %v", err)
	}
	if s.View() != ViewSourceSelect || s.Job() != nil {
		t.Errorf("Back() from capture left view=%s job=%v", s.View(), s.Job())
	}
}

func TestSessionRetakeBlockedWhileInFlight(t *testing.T) {
	s := NewSession(nil)
	job, _ := s.Capture("a.jpg")
	job.setStatus(StatusAwaitingResponse)

	if err := s.Retake(); !errors.HasCode(err, errors.ErrorSubmissionInProgress) {
		t.Errorf("Retake() error = %v, want submission in progress", err)
	}
	if _, err := s.Capture("b.jpg"); !errors.HasCode(err, errors.ErrorSubmissionInProgress) {
		t.Errorf("Capture() error = %v, want submission in progress", err)
	}

	job.setStatus(StatusFailed)
	if err := s.Retake(); err != nil {
		t.Errorf("Retake() error = %v", err)
	}
	if s.View() != ViewCapture || s.Job() != nil {
		t.Errorf("Retake() left view=%s job=%v", s.View(), s.Job())
	}
}

func TestShowResultForBlankPage(t *testing.T) {
	s := NewSession(nil)
	job, err := s.Capture("blank.jpg")
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	job.succeed(&clients.OCRResult{Text: "", Status: "success"})

	if err := s.ShowResult(); err != nil {
		t.Fatalf("ShowResult() for empty text error = %v", err)
	}
	if s.View() != ViewResultPreview {
		t.Errorf("view = %s, want result-preview", s.View())
	}
}
