package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

/**
 * Error taxonomy for the docscan client
 *
 * Every failure of a scan attempt is terminal for that attempt: nothing is
 * retried automatically. Each error carries a display message naming the
 * likely cause so the caller can surface it as a dismissable notification.
 */

// ErrorCode enum for structured error handling
type ErrorCode string

const (
	// Input errors
	ErrorInvalidInput         ErrorCode = "INVALID_INPUT"
	ErrorSubmissionInProgress ErrorCode = "SUBMISSION_IN_PROGRESS"
	ErrorInvalidTransition    ErrorCode = "INVALID_TRANSITION"

	// Network errors
	ErrorNetwork   ErrorCode = "NETWORK_ERROR"
	ErrorTimeout   ErrorCode = "REQUEST_TIMEOUT"
	ErrorCancelled ErrorCode = "CANCELLED"

	// Backend errors
	ErrorAuth              ErrorCode = "AUTH_FAILED"
	ErrorServer            ErrorCode = "SERVER_ERROR"
	ErrorInvalidResponse   ErrorCode = "INVALID_RESPONSE"
	ErrorApplicationFailed ErrorCode = "APPLICATION_FAILED"

	// Artifact errors
	ErrorEmptyArtifact  ErrorCode = "EMPTY_ARTIFACT"
	ErrorDownloadFailed ErrorCode = "DOWNLOAD_FAILED"

	// Storage errors
	ErrorStorageFailed ErrorCode = "STORAGE_FAILED"
	ErrorNotFound      ErrorCode = "NOT_FOUND"
)

// ScanError represents a structured scan/document error
type ScanError struct {
	Code      ErrorCode
	Message   string
	JobID     string
	Timestamp time.Time
	Details   map[string]interface{}
	Cause     error
}

func (e *ScanError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScanError) Unwrap() error {
	return e.Cause
}

// UserMessage is the text shown to the user, without codes or causes.
func (e *ScanError) UserMessage() string {
	return e.Message
}

// CodeOf returns the code of the first ScanError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var se *ScanError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return ""
}

// HasCode reports whether err's chain holds a ScanError with the given code.
func HasCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// UserMessage extracts a display message from any error.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var se *ScanError
	if stderrors.As(err, &se) {
		return se.UserMessage()
	}
	return err.Error()
}

func newError(code ErrorCode, jobID, message string, details map[string]interface{}, cause error) *ScanError {
	return &ScanError{
		Code:      code,
		Message:   message,
		JobID:     jobID,
		Timestamp: time.Now(),
		Details:   details,
		Cause:     cause,
	}
}

// Factory functions for common errors

func NewInputError(jobID string, message string, cause error) *ScanError {
	return newError(ErrorInvalidInput, jobID, message, nil, cause)
}

func NewSubmissionInProgressError(jobID string) *ScanError {
	return newError(ErrorSubmissionInProgress, jobID,
		"A scan is already being processed; wait for it to finish before submitting again", nil, nil)
}

func NewInvalidTransitionError(from, event string) *ScanError {
	return newError(ErrorInvalidTransition, "",
		fmt.Sprintf("Cannot %s from the %s view", event, from),
		map[string]interface{}{
			"from":  from,
			"event": event,
		}, nil)
}

func NewNetworkError(jobID string, url string, cause error) *ScanError {
	return newError(ErrorNetwork, jobID,
		fmt.Sprintf("Connection error. Check that the server is running at %s", url),
		map[string]interface{}{
			"url": url,
		}, cause)
}

func NewTimeoutError(jobID string, duration time.Duration, cause error) *ScanError {
	return newError(ErrorTimeout, jobID,
		fmt.Sprintf("The OCR request timed out after %v", duration),
		map[string]interface{}{
			"timeout_duration": duration.String(),
		}, cause)
}

func NewCancelledError(jobID string, cause error) *ScanError {
	return newError(ErrorCancelled, jobID, "The scan was cancelled", nil, cause)
}

func NewAuthError(jobID string, statusCode int, body string) *ScanError {
	return newError(ErrorAuth, jobID,
		"Authentication or cross-origin configuration problem. Check the API gateway permissions and CORS settings",
		map[string]interface{}{
			"status_code": statusCode,
			"body":        body,
		}, nil)
}

func NewServerError(jobID string, statusCode int, body string) *ScanError {
	return newError(ErrorServer, jobID,
		fmt.Sprintf("Server error: %d - %s", statusCode, body),
		map[string]interface{}{
			"status_code": statusCode,
			"body":        body,
		}, nil)
}

func NewInvalidResponseError(jobID string, cause error) *ScanError {
	return newError(ErrorInvalidResponse, jobID, "The OCR backend returned an unreadable response", nil, cause)
}

func NewApplicationError(jobID string, status string) *ScanError {
	return newError(ErrorApplicationFailed, jobID,
		fmt.Sprintf("The OCR backend reported status %q", status),
		map[string]interface{}{
			"backend_status": status,
		}, nil)
}

func NewEmptyArtifactError(path string, url string) *ScanError {
	return newError(ErrorEmptyArtifact, "", "The downloaded document is empty",
		map[string]interface{}{
			"path": path,
			"url":  url,
		}, nil)
}

func NewDownloadFailedError(url string, statusCode int, cause error) *ScanError {
	msg := "Could not download the document"
	if statusCode != 0 {
		msg = fmt.Sprintf("Download error: %d", statusCode)
	}
	return newError(ErrorDownloadFailed, "", msg,
		map[string]interface{}{
			"url":         url,
			"status_code": statusCode,
		}, cause)
}

func NewStorageFailedError(operation string, cause error) *ScanError {
	return newError(ErrorStorageFailed, "", fmt.Sprintf("History storage failed during %s", operation),
		map[string]interface{}{
			"operation": operation,
		}, cause)
}

func NewNotFoundError(kind string, id string) *ScanError {
	return newError(ErrorNotFound, "", fmt.Sprintf("%s not found: %s", kind, id),
		map[string]interface{}{
			"kind": kind,
			"id":   id,
		}, nil)
}

// ToMap converts error to map for structured logging
func (e *ScanError) ToMap() map[string]interface{} {
	result := map[string]interface{}{
		"error_code": string(e.Code),
		"message":    e.Message,
		"timestamp":  e.Timestamp,
	}

	if e.JobID != "" {
		result["job_id"] = e.JobID
	}

	for k, v := range e.Details {
		result[k] = v
	}

	if e.Cause != nil {
		result["cause"] = e.Cause.Error()
	}

	return result
}
