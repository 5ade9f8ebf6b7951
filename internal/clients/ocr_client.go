/**
 * OCR Client - single round trip to the OCR backend
 *
 * The backend is a Lambda-style endpoint addressed by one base URL: the scan
 * request is POSTed to the URL itself, with no path templating. Exactly one
 * request is issued per call; failures are classified and never retried.
 */

package clients

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/adverant/nexus/docscan-client/internal/errors"
	"github.com/adverant/nexus/docscan-client/internal/logging"
)

// DefaultRequestTimeout bounds one OCR round trip
const DefaultRequestTimeout = 60 * time.Second

// maxErrorBody caps how much of a failed response body is kept in errors
const maxErrorBody = 8 << 10

// OCRClient handles communication with the OCR backend
type OCRClient struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	validator  *ResponseValidator
	logger     *logging.Logger
}

// OCRClientConfig holds client configuration
type OCRClientConfig struct {
	BaseURL           string
	Timeout           time.Duration // 0 = DefaultRequestTimeout
	HTTPClient        *http.Client  // nil = a client without its own timeout
	ValidateResponses bool
}

// SubmitOption customizes a single Submit call
type SubmitOption func(*submitOptions)

type submitOptions struct {
	onRequestWritten func()
}

// WithRequestWritten registers a callback fired once the request has been
// fully written to the connection.
func WithRequestWritten(fn func()) SubmitOption {
	return func(o *submitOptions) {
		o.onRequestWritten = fn
	}
}

// NewOCRClient creates a new OCR backend client
func NewOCRClient(cfg *OCRClientConfig) (*OCRClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("BaseURL is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// The per-request context carries the deadline.
		httpClient = &http.Client{}
	}

	c := &OCRClient{
		baseURL:    cfg.BaseURL,
		timeout:    timeout,
		httpClient: httpClient,
		logger:     logging.NewLogger("OCRClient"),
	}

	if cfg.ValidateResponses {
		v, err := NewResponseValidator()
		if err != nil {
			return nil, fmt.Errorf("failed to build response validator: %w", err)
		}
		c.validator = v
	}

	return c, nil
}

// BaseURL returns the configured backend URL
func (c *OCRClient) BaseURL() string {
	return c.baseURL
}

// Timeout returns the per-request deadline
func (c *OCRClient) Timeout() time.Duration {
	return c.timeout
}

// Submit posts one scan request and returns the parsed result
func (c *OCRClient) Submit(ctx context.Context, jobID string, req *ScanRequest, opts ...SubmitOption) (*OCRResult, error) {
	if req == nil || req.Image == "" {
		return nil, errors.NewInputError(jobID, "There is no image to process", nil)
	}

	c.logger.Info("Submitting image to OCR backend",
		"jobId", jobID,
		"url", c.baseURL,
		"title", req.Title,
		"imageSize", len(req.Image))

	return c.post(ctx, jobID, req, opts...)
}

// Probe sends the backend's test-mode request and returns its canned result
func (c *OCRClient) Probe(ctx context.Context) (*OCRResult, error) {
	return c.post(ctx, "probe", map[string]bool{"test": true})
}

// HealthCheck verifies the backend's /health endpoint responds with 200
func (c *OCRClient) HealthCheck(ctx context.Context) error {
	endpoint := strings.TrimRight(c.baseURL, "/") + "/health"

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.classifyTransportError(ctx, reqCtx, "health", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return statusError("health", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return nil
}

func (c *OCRClient) post(ctx context.Context, jobID string, payload any, opts ...SubmitOption) (*OCRResult, error) {
	var o submitOptions
	for _, opt := range opts {
		opt(&o)
	}

	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.NewInputError(jobID, "Could not encode the request", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if o.onRequestWritten != nil {
		var once sync.Once
		reqCtx = httptrace.WithClientTrace(reqCtx, &httptrace.ClientTrace{
			WroteRequest: func(info httptrace.WroteRequestInfo) {
				if info.Err == nil {
					once.Do(o.onRequestWritten)
				}
			},
		})
	}

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, errors.NewInputError(jobID, fmt.Sprintf("Invalid backend URL %s", c.baseURL), err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())

	startTime := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("OCR request failed", "jobId", jobID, "url", c.baseURL, "elapsed", time.Since(startTime), "error", err)
		return nil, c.classifyTransportError(ctx, reqCtx, jobID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.classifyTransportError(ctx, reqCtx, jobID, err)
	}

	c.logger.Info("OCR response received",
		"jobId", jobID,
		"status", resp.StatusCode,
		"bytes", len(body),
		"elapsed", time.Since(startTime))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errText := truncate(strings.TrimSpace(string(body)), maxErrorBody)
		c.logger.Error("OCR backend returned error status", "jobId", jobID, "status", resp.StatusCode, "body", errText)
		return nil, statusError(jobID, resp.StatusCode, errText)
	}

	if c.validator != nil {
		if err := c.validator.Validate(body); err != nil {
			return nil, errors.NewInvalidResponseError(jobID, err)
		}
	}

	var result OCRResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, errors.NewInvalidResponseError(jobID, fmt.Errorf("failed to parse response: %w", err))
	}

	if !result.Succeeded() {
		return nil, errors.NewApplicationError(jobID, result.Status)
	}

	c.logger.Info("Text extraction complete",
		"jobId", jobID,
		"method", result.Metadata.ProcessingMethod,
		"confidence", result.Metadata.Confidence,
		"textLength", len(result.Text),
		"hasDownload", result.HasDownload())

	return &result, nil
}

// classifyTransportError separates caller cancellation, the client deadline
// and plain connectivity failures.
// statusError maps a non-2xx response: 401/403 are auth problems, the rest server errors
func statusError(jobID string, status int, body string) error {
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return errors.NewAuthError(jobID, status, body)
	}
	return errors.NewServerError(jobID, status, body)
}

func (c *OCRClient) classifyTransportError(parent, reqCtx context.Context, jobID string, err error) error {
	switch {
	case stderrors.Is(parent.Err(), context.Canceled):
		return errors.NewCancelledError(jobID, err)
	case stderrors.Is(reqCtx.Err(), context.DeadlineExceeded):
		return errors.NewTimeoutError(jobID, c.timeout, err)
	default:
		return errors.NewNetworkError(jobID, c.baseURL, err)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
