// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api implements the HTTP client for the DataGround backend.
//
// The backend exposes auth, chat, file upload, location lookup, and
// geospatial analysis endpoints. This package covers each area in its own
// file; the shared request plumbing (retries, pacing, error mapping) lives
// here.
package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Configuration constants for the DataGround API.
const (
	// DefaultBaseURL is the production backend.
	DefaultBaseURL = "https://dataground2025.vercel.app"

	// DefaultTimeout is the default timeout for API requests. Topic
	// modeling and comprehensive stats can take a while server-side.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxRetries is the retry budget for transient errors.
	DefaultMaxRetries = 3

	// retryBaseDelay is the base delay for exponential backoff.
	retryBaseDelay = 500 * time.Millisecond

	// retryMaxDelay is the maximum delay for exponential backoff.
	retryMaxDelay = 10 * time.Second

	// MaxResponseSize caps response bodies read into memory.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit
)

// sharedHTTPClient is used by every Client. Connection pooling avoids TCP
// handshake overhead across the frequent small dashboard fetches.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	},
	Timeout: DefaultTimeout,
}

// Error variables for common backend errors.
var (
	// ErrNotAuthenticated indicates no token is configured on the client.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrAuthFailed indicates the backend rejected the credentials or token.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited indicates too many requests were made.
	ErrRateLimited = errors.New("rate limited")
)

// APIError represents a non-2xx response from the backend.
type APIError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend error (HTTP %d)", e.Status)
}

// errorBody is the backend's error envelope.
type errorBody struct {
	Detail string `json:"detail"`
	Error  string `json:"error"`
}

// Client is a client for the DataGround backend API.
type Client struct {
	baseURL    string
	token      string
	maxRetries int

	// limiter paces outgoing requests so a burst of panel refreshes does
	// not trip the backend's rate limiting.
	limiter *rate.Limiter
}

// NewClient creates a client for the given base URL. An empty baseURL
// selects the production backend.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		maxRetries: DefaultMaxRetries,
		limiter:    rate.NewLimiter(rate.Limit(10), 20),
	}
}

// WithMaxRetries sets the retry budget for transient errors.
func (c *Client) WithMaxRetries(n int) *Client {
	c.maxRetries = n
	return c
}

// SetToken installs the bearer token used for authenticated calls.
func (c *Client) SetToken(token string) {
	c.token = strings.TrimSpace(token)
}

// ClearToken removes the bearer token (logout).
func (c *Client) ClearToken() {
	c.token = ""
}

// IsAuthenticated reports whether a token is configured. It does not verify
// the token with the backend; use Me for that.
func (c *Client) IsAuthenticated() bool {
	return c.token != ""
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// logRequest logs an API request. Headers and bodies are never logged; the
// auth header and chat content must not reach the log file.
func logRequest(req *http.Request) {
	log.Printf("API Request: %s %s", req.Method, req.URL.Path)
}

// logResponse logs status and duration only.
func logResponse(resp *http.Response, duration time.Duration) {
	log.Printf("API Response: %d %s (%v)", resp.StatusCode, resp.Status, duration)
}

// readResponse reads the response body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	limited := io.LimitReader(resp.Body, MaxResponseSize)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// handleErrorResponse converts a non-2xx response into a Go error.
func handleErrorResponse(statusCode int, body []byte) error {
	message := ""
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if eb.Detail != "" {
			message = eb.Detail
		} else if eb.Error != "" {
			message = eb.Error
		}
	}
	if message == "" {
		message = strings.TrimSpace(string(body))
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		if message != "" {
			return fmt.Errorf("%w: %s", ErrAuthFailed, message)
		}
		return ErrAuthFailed
	case http.StatusNotFound:
		if message != "" {
			return fmt.Errorf("%w: %s", ErrNotFound, message)
		}
		return ErrNotFound
	case http.StatusTooManyRequests:
		if message != "" {
			return fmt.Errorf("%w: %s", ErrRateLimited, message)
		}
		return ErrRateLimited
	default:
		return &APIError{Status: statusCode, Message: message}
	}
}

// isRetryable reports whether a failed attempt should be retried.
func isRetryable(err error, statusCode int) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if err != nil {
		// Network-level failure before a response arrived.
		return true
	}
	return statusCode >= 500 || statusCode == http.StatusTooManyRequests
}

// calculateBackoff returns the delay before the next retry attempt.
func calculateBackoff(attempt int) time.Duration {
	delay := retryBaseDelay * time.Duration(1<<uint(attempt))
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay
}

// request describes one backend call.
type request struct {
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
	// noRetry disables the retry loop for non-idempotent calls such as
	// message sends, where a duplicate would surface to the user.
	noRetry bool
}

// do executes a request with pacing and retries, decoding a JSON response
// into out when out is non-nil.
func (c *Client) do(ctx context.Context, r request, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	requestURL := c.baseURL + r.path
	if len(r.query) > 0 {
		requestURL += "?" + r.query.Encode()
	}

	attempts := c.maxRetries
	if r.noRetry || attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(calculateBackoff(attempt - 1)):
			}
		}

		var bodyReader io.Reader
		if r.body != nil {
			bodyReader = bytes.NewReader(r.body)
		}
		req, err := http.NewRequestWithContext(ctx, r.method, requestURL, bodyReader)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		if r.contentType != "" {
			req.Header.Set("Content-Type", r.contentType)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "dataground-tui/0.1.0")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		logRequest(req)
		start := time.Now()
		resp, err := sharedHTTPClient.Do(req)
		duration := time.Since(start)

		// Drop the auth header reference so it cannot leak through later
		// request logging.
		req.Header.Del("Authorization")

		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			if isRetryable(err, 0) && attempt < attempts-1 {
				continue
			}
			return lastErr
		}

		logResponse(resp, duration)

		body, readErr := readResponse(resp)
		resp.Body.Close()
		if readErr != nil {
			return readErr
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			lastErr = handleErrorResponse(resp.StatusCode, body)
			if isRetryable(nil, resp.StatusCode) && attempt < attempts-1 {
				continue
			}
			return lastErr
		}

		if out == nil {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
		return nil
	}

	if lastErr != nil {
		return fmt.Errorf("max retries exceeded: %w", lastErr)
	}
	return errors.New("max retries exceeded")
}

// marshalBody marshals a JSON request body with a consistent error wrap.
func marshalBody(in any) ([]byte, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return body, nil
}

// getJSON issues a GET and decodes the JSON response.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, request{method: http.MethodGet, path: path, query: query}, out)
}

// postJSON issues a POST with a JSON body and decodes the JSON response.
func (c *Client) postJSON(ctx context.Context, path string, query url.Values, in, out any, noRetry bool) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}
	return c.do(ctx, request{
		method:      http.MethodPost,
		path:        path,
		query:       query,
		body:        body,
		contentType: "application/json",
		noRetry:     noRetry,
	}, out)
}
