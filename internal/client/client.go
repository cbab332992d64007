package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/analystai/internal/domain"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultPollInterval = time.Second
)

// ErrTaskFailed is returned by Wait when the task ends in the failed state.
var ErrTaskFailed = errors.New("extraction task failed")

// APIError is a non-2xx response from the extraction API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("extraction API error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("extraction API error: status %d: %s", e.StatusCode, e.Message)
}

// Config holds configuration for the API client
type Config struct {
	BaseURL      string
	APIKey       string
	Timeout      time.Duration
	PollInterval time.Duration // used by Wait
}

// Client calls the extraction HTTP API.
type Client struct {
	client       *resty.Client
	pollInterval time.Duration
}

// SubmitResult is the acknowledgement of a submission.
type SubmitResult struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type errorBody struct {
	Error string `json:"error"`
}

// New creates a new API client
func New(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimRight(cfg.BaseURL, "/"))
	client.SetTimeout(timeout)
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Accept", "application/json")

	return &Client{
		client:       client,
		pollInterval: poll,
	}
}

// Submit starts an extraction for fileID.
// Parameters:
//   - ctx: request context.
//   - fileID: source document identifier.
//   - options: JSON object string of pipeline switches, sent as-is.
//
// Returns:
//   - *SubmitResult: task id and initial status.
//   - error: transport failure or *APIError.
func (c *Client) Submit(ctx context.Context, fileID, options string) (*SubmitResult, error) {
	var result SubmitResult
	resp, err := c.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"fileId":  fileID,
			"options": options,
		}).
		SetResult(&result).
		SetError(&errorBody{}).
		Post("/api/extract-pdf")
	if err != nil {
		return nil, fmt.Errorf("failed to call extraction API: %w", err)
	}
	if resp.IsError() {
		return nil, toAPIError(resp)
	}
	return &result, nil
}

// Status fetches the current state of a task.
func (c *Client) Status(ctx context.Context, id string) (*domain.Task, error) {
	var task domain.Task
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("task_id", id).
		SetResult(&task).
		SetError(&errorBody{}).
		Get("/api/extraction-status/{task_id}")
	if err != nil {
		return nil, fmt.Errorf("failed to call extraction API: %w", err)
	}
	if resp.IsError() {
		return nil, toAPIError(resp)
	}
	return &task, nil
}

// Download fetches the exported result of a completed task as raw bytes.
// An empty format lets the server pick its default.
func (c *Client) Download(ctx context.Context, id, format string) ([]byte, error) {
	req := c.client.R().
		SetContext(ctx).
		SetPathParam("task_id", id).
		SetError(&errorBody{})
	if format != "" {
		req.SetQueryParam("format", format)
	}

	resp, err := req.Get("/api/download/{task_id}")
	if err != nil {
		return nil, fmt.Errorf("failed to call extraction API: %w", err)
	}
	if resp.IsError() {
		return nil, toAPIError(resp)
	}
	return resp.Body(), nil
}

// Wait polls a task until it reaches a terminal state.
// Parameters:
//   - ctx: bounds the whole wait.
//   - id: task identifier.
//
// Returns:
//   - *domain.Task: the terminal task, also returned alongside ErrTaskFailed.
//   - error: ctx error, API error, or ErrTaskFailed.
func (c *Client) Wait(ctx context.Context, id string) (*domain.Task, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		task, err := c.Status(ctx, id)
		if err != nil {
			return nil, err
		}

		switch task.Status {
		case domain.TaskStatusCompleted:
			return task, nil
		case domain.TaskStatusFailed:
			msg := "unknown error"
			if task.Error != nil {
				msg = *task.Error
			}
			return task, fmt.Errorf("%w: %s", ErrTaskFailed, msg)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func toAPIError(resp *resty.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode()}
	if body, ok := resp.Error().(*errorBody); ok && body.Error != "" {
		apiErr.Message = body.Error
	} else if resp.StatusCode() != 0 {
		apiErr.Message = http.StatusText(resp.StatusCode())
	}
	return apiErr
}
