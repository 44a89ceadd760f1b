package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ewanb/gridpulse/pkg/config"
	"github.com/ewanb/gridpulse/pkg/logger"
)

// ErrAttemptsExhausted is returned when every retry attempt has failed.
// Callers should treat it as terminal and not retry further.
var ErrAttemptsExhausted = errors.New("retry attempts exhausted")

// Client is an HTTP client wrapper with retry logic and logging.
// All HTTP requests go through this client.
type Client struct {
	httpClient  *http.Client
	logger      *logger.Logger
	retryConfig RetryConfig
}

// RetryConfig holds retry configuration.
// The delay before retry i (counting failed attempts from 0) is
// BaseDelay * 2^i. The schedule is deterministic: no jitter, no cap.
type RetryConfig struct {
	MaxAttempts int // total attempts, including the first
	BaseDelay   time.Duration
	Enabled     bool
}

// New creates a new HTTP client from config.
// The http.Client instance is created here and reused for every call.
func New(cfg *config.Config, log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Elexon.Timeout,
		},
		logger: log,
		retryConfig: RetryConfig{
			MaxAttempts: cfg.Elexon.RetryAttempts,
			BaseDelay:   cfg.Elexon.RetryBaseDelay,
			Enabled:     true,
		},
	}
}

// WithRetry configures retry behavior
func (c *Client) WithRetry(maxAttempts int, baseDelay time.Duration) *Client {
	c.retryConfig.MaxAttempts = maxAttempts
	c.retryConfig.BaseDelay = baseDelay
	c.retryConfig.Enabled = true
	return c
}

// DisableRetry disables automatic retry
func (c *Client) DisableRetry() *Client {
	c.retryConfig.Enabled = false
	return c
}

// Get performs a GET request
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create GET request: %w", err)
	}

	return c.do(req)
}

// do executes the request with retry logic and latency logging
func (c *Client) do(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error

	startTime := time.Now()
	url := req.URL.String()

	c.logger.WithFields(map[string]interface{}{
		"method": req.Method,
		"url":    url,
	}).Debug("HTTP request started")

	if c.retryConfig.Enabled {
		resp, err = c.doWithRetry(req)
	} else {
		resp, err = c.doOnce(req)
	}

	duration := time.Since(startTime)

	if err != nil {
		c.logger.WithFields(map[string]interface{}{
			"method":   req.Method,
			"url":      url,
			"duration": duration,
			"error":    err.Error(),
		}).Error("HTTP request failed")
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"method":      req.Method,
		"url":         url,
		"status_code": resp.StatusCode,
		"duration":    duration,
	}).Debug("HTTP request completed")

	return resp, nil
}

// doOnce executes the request a single time, treating a non-success
// status as an error
func (c *Client) doOnce(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if !isSuccess(resp.StatusCode) {
		drainAndClose(resp)
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return resp, nil
}

// doWithRetry executes the request with exponential backoff.
// Transport failures and non-success statuses are retried; a success
// response is returned as-is and never retried.
func (c *Client) doWithRetry(req *http.Request) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt < c.retryConfig.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(c.retryConfig.BaseDelay, attempt-1)

			c.logger.WithFields(map[string]interface{}{
				"attempt": attempt + 1,
				"delay":   delay,
				"url":     req.URL.String(),
			}).Warn("Retrying HTTP request")

			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(delay):
			}
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if isSuccess(resp.StatusCode) {
			return resp, nil
		}

		lastErr = fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		drainAndClose(resp)
	}

	return nil, fmt.Errorf("%w after %d attempts: %v",
		ErrAttemptsExhausted, c.retryConfig.MaxAttempts, lastErr)
}

// backoffDelay returns the delay after the i-th failed attempt (0-indexed)
func backoffDelay(base time.Duration, i int) time.Duration {
	return base << uint(i)
}

// isSuccess reports whether the status code is in the 2xx range
func isSuccess(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

// drainAndClose discards the body so the connection can be reused
func drainAndClose(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
