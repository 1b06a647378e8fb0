package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Client talks to a running daemon over its HTTP control surface.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// ClientOption adjusts client construction.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// NewClient constructs a control client for the given bind address. The
// address may be a bare host:port or a full http URL.
func NewClient(address, token string, opts ...ClientOption) *Client {
	base := strings.TrimSpace(address)
	if base != "" && !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	client := &Client{
		baseURL: strings.TrimRight(base, "/"),
		token:   strings.TrimSpace(token),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Status fetches daemon runtime state.
func (c *Client) Status(ctx context.Context) (StatusResponse, error) {
	var out StatusResponse
	err := c.do(ctx, http.MethodGet, "/api/status", nil, &out)
	return out, err
}

// Health fetches collaborator health checks.
func (c *Client) Health(ctx context.Context) (HealthResponse, error) {
	var out HealthResponse
	err := c.do(ctx, http.MethodGet, "/api/health", nil, &out)
	return out, err
}

// History fetches recently processed documents.
func (c *Client) History(ctx context.Context, limit int) (HistoryResponse, error) {
	path := "/api/history"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out HistoryResponse
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// Stats fetches aggregate ledger statistics.
func (c *Client) Stats(ctx context.Context) (StatsResponse, error) {
	var out StatsResponse
	err := c.do(ctx, http.MethodGet, "/api/stats", nil, &out)
	return out, err
}

// TriggerRun asks the daemon to start a pipeline run now.
func (c *Client) TriggerRun(ctx context.Context) (RunResponse, error) {
	var out RunResponse
	err := c.do(ctx, http.MethodPost, "/api/run", nil, &out)
	return out, err
}

// Shutdown asks the daemon to stop.
func (c *Client) Shutdown(ctx context.Context) (ShutdownResponse, error) {
	var out ShutdownResponse
	err := c.do(ctx, http.MethodPost, "/api/shutdown", nil, &out)
	return out, err
}

// PauseScheduler suspends timer-triggered runs.
func (c *Client) PauseScheduler(ctx context.Context) (SchedulerResponse, error) {
	var out SchedulerResponse
	err := c.do(ctx, http.MethodPost, "/api/scheduler/pause", nil, &out)
	return out, err
}

// ResumeScheduler re-enables timer-triggered runs.
func (c *Client) ResumeScheduler(ctx context.Context) (SchedulerResponse, error) {
	var out SchedulerResponse
	err := c.do(ctx, http.MethodPost, "/api/scheduler/resume", nil, &out)
	return out, err
}

// ReloadPrompts asks the daemon to re-read the extraction prompt files.
func (c *Client) ReloadPrompts(ctx context.Context) (ReloadResponse, error) {
	var out ReloadResponse
	err := c.do(ctx, http.MethodPost, "/api/prompts/reload", nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("daemon unreachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		// Error statuses may still carry a decodable payload, e.g. the
		// health endpoint reporting which probe failed.
		if out != nil {
			_ = json.Unmarshal(data, out)
		}
		var apiErr ErrorResponse
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("daemon responded %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("daemon responded %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
