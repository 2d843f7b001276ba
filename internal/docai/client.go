package docai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Extraction statuses reported by the document-AI service. COMPLETED and
// FAILED are terminal; a request never leaves a terminal status.
const (
	StatusQueued    = "QUEUED"
	StatusRunning   = "RUNNING"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

// Result is the state of one extraction request as last reported by the
// service. Data is only populated once the status is COMPLETED, Error only
// when it is FAILED.
type Result struct {
	RequestID string          `json:"request_id"`
	Status    string          `json:"status"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// Terminal reports whether no further status transition will occur.
func (r *Result) Terminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed
}

// SubmissionError is a rejected batch-extraction request. It is terminal for
// the submitted page; retries happen at result resolution, not here.
type SubmissionError struct {
	Detail string
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("extraction submission rejected: %s", e.Detail)
}

type Client struct {
	baseURL       string
	apiKey        string
	schemaName    string
	schemaVersion string
	httpClient    *http.Client
}

// NewClient builds a document-AI client. Schema name and version are
// deployment configuration, not per-request inputs.
func NewClient(baseURL, apiKey, schemaName, schemaVersion string, timeout time.Duration) *Client {
	return &Client{
		baseURL:       baseURL,
		apiKey:        apiKey,
		schemaName:    schemaName,
		schemaVersion: schemaVersion,
		httpClient:    &http.Client{Timeout: timeout},
	}
}

type envelope struct {
	OK     bool `json:"OK"`
	Result struct {
		RequestID string          `json:"request_id"`
		Status    string          `json:"status"`
		Data      json.RawMessage `json:"data"`
		Error     string          `json:"error"`
	} `json:"result"`
}

// Submit sends one page image for batch extraction and returns the request id
// assigned by the service. Content is the base64-encoded image.
func (c *Client) Submit(ctx context.Context, content, mimeType string) (string, error) {
	body, err := json.Marshal(map[string]string{
		"schema_name":    c.schemaName,
		"schema_version": c.schemaVersion,
		"content":        content,
		"mime_type":      mimeType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/extract-data-batch", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	env, err := c.do(req)
	if err != nil {
		return "", err
	}
	if !env.OK {
		return "", &SubmissionError{Detail: env.Result.Error}
	}
	if env.Result.RequestID == "" {
		return "", &SubmissionError{Detail: "no request_id in response"}
	}
	return env.Result.RequestID, nil
}

// FetchResult reads the current state of a request. It does not block until
// terminal; callers poll.
func (c *Client) FetchResult(ctx context.Context, requestID string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/get-result/"+requestID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	env, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if !env.OK {
		return nil, fmt.Errorf("get-result rejected for %s: %s", requestID, env.Result.Error)
	}

	res := &Result{
		RequestID: env.Result.RequestID,
		Status:    env.Result.Status,
		Data:      env.Result.Data,
		Error:     env.Result.Error,
	}
	if res.RequestID == "" {
		res.RequestID = requestID
	}
	return res, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
}

func (c *Client) do(req *http.Request) (*envelope, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("document-ai returned status %d: %s", resp.StatusCode, raw)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w, body: %s", err, raw)
	}
	return &env, nil
}
