package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// RateLimitError is a retryable failure: HTTP 429 or 503, or a transport
// error whose message indicates rate limiting.
type RateLimitError struct {
	StatusCode int
	Message    string
}

func (e *RateLimitError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("rate limited: %s", e.Message)
	}
	return fmt.Sprintf("rate limited (status %d): %s", e.StatusCode, e.Message)
}

// APIError is a non-retryable HTTP failure carrying the server message.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("model API request failed (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("model API request failed (status %d): %s", e.StatusCode, e.Message)
}

// ParseError is returned when no JSON object can be located in, or decoded
// from, the model output.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse model response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

var rateLimitMarkers = []string{
	"rate limit",
	"ratelimit",
	"too many requests",
	"resource_exhausted",
	"resource exhausted",
	"quota",
	"429",
}

// looksRateLimited reports whether an error message indicates rate limiting.
func looksRateLimited(msg string) bool {
	msg = strings.ToLower(msg)
	for _, m := range rateLimitMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusServiceUnavailable
}

// statusError builds the error for a failed HTTP status.
func statusError(code int, status, message string) error {
	if isRetryableStatus(code) {
		return &RateLimitError{StatusCode: code, Message: message}
	}
	return &APIError{StatusCode: code, Status: status, Message: message}
}

// IsRetryable reports whether err should be retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return true
	}
	var apiErr *APIError
	var parseErr *ParseError
	if errors.As(err, &apiErr) || errors.As(err, &parseErr) {
		return false
	}
	return looksRateLimited(err.Error())
}
