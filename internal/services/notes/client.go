package notes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"quill/internal/block"
	"quill/internal/retry"
	"quill/internal/services"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	defaultBaseURL     = "https://api.notion.com/v1"
	defaultAPIVersion  = "2022-06-28"
)

// Config captures the runtime settings required to talk to the
// knowledge-base API.
type Config struct {
	Token          string
	BaseURL        string
	ParentID       string
	APIVersion     string
	TimeoutSeconds int
}

// Client wraps the knowledge-base page API. Errors returned by its
// methods are tagged with the services sentinels so callers can decide
// whether a retry is worthwhile.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a destination client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			Token:          strings.TrimSpace(cfg.Token),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			ParentID:       strings.TrimSpace(cfg.ParentID),
			APIVersion:     strings.TrimSpace(cfg.APIVersion),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	if client.cfg.APIVersion == "" {
		client.cfg.APIVersion = defaultAPIVersion
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

// CreatePage creates the remote page with the supplied header properties
// and returns the new page identifier.
func (c *Client) CreatePage(ctx context.Context, header PageHeader) (string, error) {
	if c.cfg.Token == "" {
		return "", services.Wrap(services.ErrConfiguration, "notes", "create page", "api token required", nil)
	}
	if c.cfg.ParentID == "" {
		return "", services.Wrap(services.ErrConfiguration, "notes", "create page", "parent id required", nil)
	}
	payload := map[string]any{
		"parent":     map[string]string{"database_id": c.cfg.ParentID},
		"properties": pageProperties(header.normalized()),
	}
	body, err := c.send(ctx, http.MethodPost, "/pages", payload, "create page")
	if err != nil {
		return "", err
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return "", services.Wrap(services.ErrValidation, "notes", "create page", "decode response", err)
	}
	if created.ID == "" {
		return "", services.Wrap(services.ErrValidation, "notes", "create page", "response missing page id", nil)
	}
	return created.ID, nil
}

// AppendBlocks appends one batch of blocks to the page. The caller is
// responsible for keeping batches within the destination's 100-block
// append limit.
func (c *Client) AppendBlocks(ctx context.Context, pageID string, blocks []block.Block) error {
	if c.cfg.Token == "" {
		return services.Wrap(services.ErrConfiguration, "notes", "append blocks", "api token required", nil)
	}
	if strings.TrimSpace(pageID) == "" {
		return services.Wrap(services.ErrValidation, "notes", "append blocks", "page id required", nil)
	}
	if len(blocks) == 0 {
		return nil
	}
	children := make([]map[string]any, 0, len(blocks))
	for _, b := range blocks {
		children = append(children, encodeBlock(b))
	}
	payload := map[string]any{"children": children}
	_, err := c.send(ctx, http.MethodPatch, "/blocks/"+url.PathEscape(pageID)+"/children", payload, "append blocks")
	return err
}

// HealthCheck verifies the token can reach the configured parent.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.Token == "" {
		return services.Wrap(services.ErrConfiguration, "notes", "health", "api token required", nil)
	}
	if c.cfg.ParentID == "" {
		return services.Wrap(services.ErrConfiguration, "notes", "health", "parent id required", nil)
	}
	_, err := c.send(ctx, http.MethodGet, "/databases/"+url.PathEscape(c.cfg.ParentID), nil, "health")
	return err
}

func (c *Client) send(ctx context.Context, method, path string, payload any, op string) ([]byte, error) {
	endpoint := c.cfg.BaseURL + path
	var reader io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "notes", op, "encode body", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "notes", op, "new request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Notion-Version", c.cfg.APIVersion)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(op, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "notes", op, "read body", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, classifyStatusError(op, resp.StatusCode, body, resp.Header.Get("Retry-After"))
	}
	return body, nil
}

// classifyStatusError maps HTTP status codes onto the error taxonomy:
// rate limits, timeouts, and server errors are transient; everything
// else in the 4xx range is a validation failure that retries cannot fix.
func classifyStatusError(op string, status int, body []byte, retryAfter string) error {
	detail := fmt.Sprintf("http %d: %s", status, summarizeBody(body))
	switch {
	case status == http.StatusRequestTimeout,
		status == http.StatusTooManyRequests,
		status >= http.StatusInternalServerError:
		err := services.Wrap(services.ErrTransient, "notes", op, detail, nil)
		if delay, ok := parseRetryAfter(retryAfter); ok {
			return &retry.HintedDelayError{Delay: delay, Err: err}
		}
		return err
	default:
		return services.Wrap(services.ErrValidation, "notes", op, detail, nil)
	}
}

func classifyTransportError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return services.Wrap(services.ErrTimeout, "notes", op, "request timed out", err)
	}
	return services.Wrap(services.ErrTransient, "notes", op, "http error", err)
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}

func summarizeBody(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return "<empty>"
	}
	clean := strings.Join(strings.Fields(trimmed), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
