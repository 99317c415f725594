// Package api wraps the FloodAura backend's JSON endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/couchcryptid/floodaura-sync/internal/observability"
)

// maxErrorBody bounds how much of a failed response body is kept on a StatusError.
const maxErrorBody = 512

// StatusError is returned when the backend answers outside the 2xx range.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// StatusCode extracts the HTTP status carried by err, or 0 when the failure
// happened before a response arrived.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// Request describes one backend call relative to the client's base URL.
type Request struct {
	Op     string // metrics label, e.g. "alerts.active"
	Method string
	Path   string
	Query  url.Values
	Body   any
	Header http.Header
}

// Client issues JSON requests against a configured origin.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a client for baseURL. retryMax is the number of extra
// attempts on connection errors and 5xx responses; 0 disables retries.
func NewClient(baseURL string, timeout time.Duration, retryMax int, logger *slog.Logger, metrics *observability.Metrics) *Client {
	rc := retryablehttp.NewClient()
	rc.Logger = nil
	rc.RetryMax = retryMax
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	httpClient := rc.StandardClient()
	httpClient.Timeout = timeout

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
		metrics:    metrics,
	}
}

// BaseURL returns the origin every request path is resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do sends req and decodes the JSON response body into out. A nil out
// discards the body. Any transport failure or non-2xx status is returned as
// an error and out is left untouched.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	start := time.Now()
	err := c.do(ctx, req, out)
	c.metrics.APIRequestDuration.WithLabelValues(req.Op).Observe(time.Since(start).Seconds())

	if err != nil {
		c.metrics.APIRequests.WithLabelValues(req.Op, "error").Inc()
		c.logger.Debug("api request failed", "op", req.Op, "method", req.Method, "path", req.Path, "error", err)
		return err
	}
	c.metrics.APIRequests.WithLabelValues(req.Op, "success").Inc()
	c.logger.Debug("api request", "op", req.Op, "method", req.Method, "path", req.Path, "duration", time.Since(start))
	return nil
}

func (c *Client) do(ctx context.Context, req Request, out any) error {
	u := c.baseURL + req.Path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", req.Op, err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s request: %w", req.Op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method:     req.Method,
			Path:       req.Path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(excerpt)),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", req.Op, err)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.Op, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, op, path string, query url.Values, out any) error {
	return c.Do(ctx, Request{Op: op, Method: http.MethodGet, Path: path, Query: query}, out)
}

func (c *Client) post(ctx context.Context, op, path string, body, out any) error {
	return c.Do(ctx, Request{Op: op, Method: http.MethodPost, Path: path, Body: body}, out)
}
