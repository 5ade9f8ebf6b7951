package processor

import (
	"sync"

	"github.com/adverant/nexus/docscan-client/internal/errors"
)

// View is the screen a scan session is showing
type View int

const (
	ViewSourceSelect View = iota
	ViewCapture
	ViewEditModal
	ViewResultPreview
)

func (v View) String() string {
	switch v {
	case ViewSourceSelect:
		return "source-select"
	case ViewCapture:
		return "capture"
	case ViewEditModal:
		return "edit-modal"
	case ViewResultPreview:
		return "result-preview"
	default:
		return "unknown"
	}
}

// Session is the navigation state of one scan screen plus the job it owns.
// Exactly one view is active at a time.
type Session struct {
	mu          sync.Mutex
	view        View
	returnView  View // where the edit modal goes back to
	job         *ScanJob
	editBuffer  string
	defaultName func() string
}

// NewSession starts at the source selector with no job
func NewSession(defaultTitle func() string) *Session {
	return &Session{
		view:        ViewSourceSelect,
		defaultName: defaultTitle,
	}
}

// View returns the active view
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Job returns the current job, or nil before a capture
func (s *Session) Job() *ScanJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.job
}

// Capture records a captured or picked image and discards any prior job.
// Allowed from the source selector and the capture view (retake).
func (s *Session) Capture(imageLocation string) (*ScanJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.view != ViewSourceSelect && s.view != ViewCapture {
		return nil, errors.NewInvalidTransitionError(s.view.String(), "capture")
	}
	if s.job != nil && s.job.Status().InFlight() {
		return nil, errors.NewSubmissionInProgressError(s.job.ID())
	}

	title := ""
	if s.defaultName != nil {
		title = s.defaultName()
	}

	s.job = NewScanJob(imageLocation, title)
	s.editBuffer = ""
	s.view = ViewCapture
	return s.job, nil
}

// Retake discards the job and returns to the capture view from anywhere
// except during an in-flight submission.
func (s *Session) Retake() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.job != nil && s.job.Status().InFlight() {
		return errors.NewSubmissionInProgressError(s.job.ID())
	}

	s.job = nil
	s.editBuffer = ""
	s.view = ViewCapture
	return nil
}

// ShowResult moves to the result preview once the job has succeeded.
// A blank page (empty text) still has a result to preview.
func (s *Session) ShowResult() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.view != ViewCapture {
		return errors.NewInvalidTransitionError(s.view.String(), "show the result")
	}
	if s.job == nil || s.job.Status() != StatusSucceeded {
		return errors.NewInvalidTransitionError(s.view.String(), "show a result that does not exist")
	}

	s.view = ViewResultPreview
	return nil
}

// OpenEdit opens the edit overlay seeded with the job's current text
func (s *Session) OpenEdit() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.view != ViewCapture && s.view != ViewResultPreview {
		return "", errors.NewInvalidTransitionError(s.view.String(), "edit")
	}
	if s.job == nil || s.job.Status() != StatusSucceeded {
		return "", errors.NewInvalidTransitionError(s.view.String(), "edit without extracted text")
	}

	s.returnView = s.view
	s.editBuffer = s.job.Text()
	s.view = ViewEditModal
	return s.editBuffer, nil
}

// SetEditBuffer replaces the text being edited
func (s *Session) SetEditBuffer(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.view != ViewEditModal {
		return errors.NewInvalidTransitionError(s.view.String(), "change the edit buffer")
	}
	s.editBuffer = text
	return nil
}

// SaveEdit applies the edit buffer to the job and closes the overlay
func (s *Session) SaveEdit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.view != ViewEditModal {
		return errors.NewInvalidTransitionError(s.view.String(), "save an edit")
	}
	s.job.EditText(s.editBuffer)
	s.view = s.returnView
	return nil
}

// CancelEdit closes the overlay without changing the job
func (s *Session) CancelEdit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.view != ViewEditModal {
		return errors.NewInvalidTransitionError(s.view.String(), "cancel an edit")
	}
	s.editBuffer = ""
	s.view = s.returnView
	return nil
}

// Back steps one view back: preview → capture, capture → source selector.
// Leaving the capture view discards the job.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.view {
	case ViewResultPreview:
		s.view = ViewCapture
	case ViewCapture:
		if s.job != nil && s.job.Status().InFlight() {
			return errors.NewSubmissionInProgressError(s.job.ID())
		}
		s.job = nil
		s.view = ViewSourceSelect
	case ViewEditModal:
		s.editBuffer = ""
		s.view = s.returnView
	default:
		return errors.NewInvalidTransitionError(s.view.String(), "go back")
	}
	return nil
}
