package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vietddude/jobsync/internal/core/retry"
	"github.com/vietddude/jobsync/internal/syncing/metrics"
)

const maxErrorBody = 512

// Doer issues HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds marketplace API settings.
type Config struct {
	BaseURL   string        `yaml:"base_url"`
	AuthToken string        `yaml:"auth_token"`
	Timeout   time.Duration `yaml:"timeout"` // per attempt
}

// Client talks to the marketplace REST API. Each call is a single attempt
// bounded by Config.Timeout; failures are mapped onto the retry error types so
// callers can wrap calls in a retry.Executor.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	doer    Doer
}

// NewClient creates a Client. A nil doer gets a pooled *http.Client.
func NewClient(cfg Config, doer Doer) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if doer == nil {
		doer = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.AuthToken,
		timeout: timeout,
		doer:    doer,
	}
}

// do performs one request. body and out may be nil.
func (c *Client) do(
	ctx context.Context,
	method, path string,
	body any,
	headers map[string]string,
	out any,
) error {
	op := method + " " + path
	start := time.Now()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.doer.Do(req)
	metrics.HTTPLatency.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.HTTPRequestsTotal.WithLabelValues(method, "error").Inc()
		return classifyTransportError(ctx, attemptCtx, op, err)
	}
	defer resp.Body.Close()
	metrics.HTTPRequestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &retry.HTTPError{
			Method:     method,
			URL:        path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return classifyTransportError(ctx, attemptCtx, op, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: parse response: %w", op, err)
	}
	return nil
}

// classifyTransportError maps a failure without a status code onto the retry
// taxonomy. Cancellation of the caller's context is returned untouched.
func classifyTransportError(parent, attempt context.Context, op string, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(attempt.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &retry.TimeoutError{Op: op, Err: err}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &retry.TimeoutError{Op: op, Err: err}
	}
	return &retry.NetworkError{Op: op, Err: err}
}
