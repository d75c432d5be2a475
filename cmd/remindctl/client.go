package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reminderd/internal/reminder"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

// response mirrors the body the reminder API returns for every operation
type response struct {
	reminder.Outcome
	ErrorCode string `json:"error_code,omitempty"`
}

// apiError is a response the server answered with a non-2xx status
type apiError struct {
	Status  int
	Code    string
	Message string
}

func (e *apiError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s, HTTP %d)", e.Message, e.Code, e.Status)
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

// Client talks to the reminderd HTTP API
type Client struct {
	baseURL    string
	httpClient *http.Client
	// maxWait bounds how long requests are retried while the server reports itself unavailable
	maxWait time.Duration
}

func NewClient(baseURL string, timeout, maxWait time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		maxWait:    maxWait,
	}
}

func (c *Client) Create(ctx context.Context, body map[string]interface{}) (*response, error) {
	return c.do(ctx, http.MethodPost, "/api/v1/reminders", body)
}

func (c *Client) List(ctx context.Context) (*response, error) {
	return c.do(ctx, http.MethodGet, "/api/v1/reminders", nil)
}

func (c *Client) Get(ctx context.Context, id int64) (*response, error) {
	return c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/reminders/%d", id), nil)
}

func (c *Client) Cancel(ctx context.Context, id int64) (*response, error) {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/v1/reminders/%d", id), nil)
}

func (c *Client) CancelByText(ctx context.Context, text string) (*response, error) {
	return c.do(ctx, http.MethodPost, "/api/v1/reminders/cancel", map[string]interface{}{"text": text})
}

func (c *Client) Snooze(ctx context.Context, id int64, minutes int) (*response, error) {
	var body map[string]interface{}
	if minutes > 0 {
		body = map[string]interface{}{"minutes": minutes}
	}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/reminders/%d/snooze", id), body)
}

func (c *Client) Cleanup(ctx context.Context, days *int) (*response, error) {
	var body map[string]interface{}
	if days != nil {
		body = map[string]interface{}{"retention_days": *days}
	}
	return c.do(ctx, http.MethodPost, "/api/v1/reminders/cleanup", body)
}

// do sends one request. A 503 means the daemon is still restoring or shutting
// down, so it is retried until maxWait; every other failure is returned as is.
func (c *Client) do(ctx context.Context, method, path string, body map[string]interface{}) (*response, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
	}
	requestID := uuid.New().String()

	var policy backoff.BackOff = &backoff.StopBackOff{}
	if c.maxWait > 0 {
		exp := backoff.NewExponentialBackOff()
		exp.InitialInterval = 200 * time.Millisecond
		exp.MaxElapsedTime = c.maxWait
		policy = exp
	}

	var result *response
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Request-ID", requestID)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("request failed: %w", err))
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to read response: %w", err))
		}

		var decoded response
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return backoff.Permanent(fmt.Errorf("unexpected response (HTTP %d): %s", resp.StatusCode, strings.TrimSpace(string(raw))))
		}

		if resp.StatusCode >= http.StatusBadRequest {
			apiErr := &apiError{Status: resp.StatusCode, Code: decoded.ErrorCode, Message: decoded.Message}
			if resp.StatusCode == http.StatusServiceUnavailable {
				return apiErr
			}
			return backoff.Permanent(apiErr)
		}

		result = &decoded
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return nil, err
	}
	return result, nil
}
