// Package client is the Go SDK for the KeyIP-Depict annotation API.
//
//	c, err := client.NewClient("http://localhost:8080", client.WithRetryMax(2))
//	resp, err := c.Annotate(ctx, &depict.AnnotateRequest{Molecule: mol})
package client

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/KeyIP-Depict/pkg/errors"
)

const Version = "0.1.0"

// ErrInvalidConfig is returned by NewClient for an unusable base URL.
var ErrInvalidConfig = stderrors.New("depict: invalid client configuration")

// Logger is the minimal logging surface the client writes to.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Debugf(format string, args ...interface{}) {}
func (noopLogger) Infof(format string, args ...interface{})  {}
func (noopLogger) Errorf(format string, args ...interface{}) {}

// Client talks to one API server.  It is safe for concurrent use.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	apiKey       string
	userAgent    string
	logger       Logger
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int    `json:"status_code"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	RequestID  string `json:"request_id"`
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("depict: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg + " [request_id=" + e.RequestID + "]"
}

// ErrorCode maps the response code onto the shared error code set.
func (e *APIError) ErrorCode() errors.ErrorCode {
	if e.Code == "" {
		return errors.CodeUnknown
	}
	return errors.ErrorCode(e.Code)
}

func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

func (e *APIError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// NewClient builds a client for baseURL (http or https).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, ErrInvalidConfig
	}
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid baseURL: %v", ErrInvalidConfig, err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("%w: baseURL scheme must be http or https", ErrInvalidConfig)
	}

	c := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		userAgent:    fmt.Sprintf("depict-go-sdk/%s", Version),
		logger:       noopLogger{},
		retryMax:     3,
		retryWaitMin: 500 * time.Millisecond,
		retryWaitMax: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the server address without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}, result interface{}) error {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.retryMax; attempt++ {
		if attempt > 0 {
			backoff := c.calculateBackoff(attempt)
			c.logger.Debugf("Retry attempt %d after %v", attempt, backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		requestID := uuid.New().String()
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("X-Request-ID", requestID)

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		duration := time.Since(start)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Errorf("Request failed: %v", err)
			lastErr = err
			continue
		}
		c.logger.Debugf("%s %s %d (%v)", method, path, resp.StatusCode, duration)

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt < c.retryMax {
			if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
				c.logger.Infof("Rate limited, retrying after %d seconds", seconds)
				select {
				case <-time.After(time.Duration(seconds) * time.Second):
					lastErr = newAPIError(resp.StatusCode, requestID, respBody)
					continue
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}

		if resp.StatusCode >= 400 {
			apiErr := newAPIError(resp.StatusCode, requestID, respBody)
			if apiErr.IsServerError() && resp.StatusCode != http.StatusNotImplemented {
				lastErr = apiErr
				continue
			}
			return apiErr
		}

		if result != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, result); err != nil {
				return fmt.Errorf("failed to unmarshal response: %w", err)
			}
		}
		return nil
	}
	return lastErr
}

func newAPIError(status int, requestID string, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, RequestID: requestID}
	if len(body) == 0 {
		return apiErr
	}
	var errResp struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil {
		apiErr.Code = errResp.Code
		apiErr.Message = errResp.Message
		apiErr.Detail = errResp.Detail
	} else {
		apiErr.Message = string(body)
	}
	return apiErr
}

func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := c.retryWaitMin * time.Duration(1<<uint(attempt-1))
	if backoff > c.retryWaitMax {
		backoff = c.retryWaitMax
	}
	if q := int64(backoff / 4); q > 0 {
		backoff += time.Duration(rand.Int63n(q))
	}
	return backoff
}

//Personal.AI order the ending
