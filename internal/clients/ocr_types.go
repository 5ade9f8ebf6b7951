/**
 * OCR Types - wire structures exchanged with the OCR backend
 */

package clients

import (
	"encoding/base64"
	"strings"
)

// Backend statuses accepted as success inside a 2xx body.
var successStatuses = map[string]bool{
	"":        true,
	"ok":      true,
	"success": true,
}

// ScanRequest is the POST body sent to the OCR backend
type ScanRequest struct {
	Image string `json:"image"` // data URI, base64 JPEG
	Title string `json:"title"`
}

// NewScanRequest encodes raw image bytes into a request body
func NewScanRequest(imageData []byte, title string) *ScanRequest {
	return &ScanRequest{
		Image: EncodeImageDataURI(imageData),
		Title: title,
	}
}

// EncodeImageDataURI returns "data:image/jpeg;base64,<...>" for the image bytes.
// The backend strips the prefix before decoding, so the declared type is fixed.
func EncodeImageDataURI(imageData []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(imageData)
}

// OCRResult is the success body returned by the OCR backend
type OCRResult struct {
	Text        string      `json:"text"`
	Metadata    OCRMetadata `json:"metadata"`
	DownloadURL string      `json:"download_url,omitempty"`
	Status      string      `json:"status"`
}

// OCRMetadata describes how the text was produced
type OCRMetadata struct {
	ProcessingMethod string  `json:"processing_method"`
	Confidence       float64 `json:"confidence"`
	CharacterCount   int     `json:"character_count"`
	LineCount        *int    `json:"line_count,omitempty"`
	ProcessingType   string  `json:"processing_type"`
}

// ConfidenceScore returns the confidence on a 0-1 scale. The backend reports
// percentages (e.g. 95.5), older servers report fractions.
func (m OCRMetadata) ConfidenceScore() float64 {
	c := m.Confidence
	if c > 1 {
		c = c / 100
	}
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// Succeeded reports whether the backend status tag marks success
func (r *OCRResult) Succeeded() bool {
	return successStatuses[strings.ToLower(strings.TrimSpace(r.Status))]
}

// HasDownload reports whether the backend pre-generated a document
func (r *OCRResult) HasDownload() bool {
	return r != nil && strings.TrimSpace(r.DownloadURL) != ""
}
