package llm

import (
	"context"
	"errors"
	"time"

	"github.com/raine/stock-metadata/internal/retry"
	"github.com/raine/stock-metadata/internal/storage"
	"github.com/rs/zerolog/log"
)

// AttemptRecorder receives one record per model attempt.
type AttemptRecorder interface {
	RecordAttempt(a storage.Attempt) error
}

// RetryingClient applies the retry policy around a single-attempt client.
// It is the only retry layer in the pipeline.
type RetryingClient struct {
	inner    Client
	policy   retry.Policy
	recorder AttemptRecorder
	runID    string
}

// NewRetryingClient wraps inner with policy. The policy's Retryable defaults
// to IsRetryable.
func NewRetryingClient(inner Client, policy retry.Policy) *RetryingClient {
	if policy.Retryable == nil {
		policy.Retryable = IsRetryable
	}
	return &RetryingClient{inner: inner, policy: policy}
}

// WithRecorder records every attempt under runID.
func (c *RetryingClient) WithRecorder(r AttemptRecorder, runID string) *RetryingClient {
	c.recorder = r
	c.runID = runID
	return c
}

// Invoke calls the inner client until it succeeds or the policy gives up.
func (c *RetryingClient) Invoke(ctx context.Context, req Request) (*Response, error) {
	var resp *Response
	policy := c.policy
	var nextDelay time.Duration
	onRetry := policy.OnRetry
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		nextDelay = delay
		if onRetry != nil {
			onRetry(attempt, delay, err)
		}
	}

	err := policy.Do(ctx, func(ctx context.Context, attempt int) error {
		started := time.Now()
		r, err := c.inner.Invoke(ctx, req)
		c.record(req, attempt, nextDelay, time.Since(started), err)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *RetryingClient) record(req Request, attempt int, delay, took time.Duration, err error) {
	if c.recorder == nil {
		return
	}
	a := storage.Attempt{
		RunID:    c.runID,
		File:     req.FileName,
		Attempt:  attempt + 1,
		Status:   attemptStatus(err),
		DelayMS:  delay.Milliseconds(),
		Duration: took,
	}
	if attempt == 0 {
		a.DelayMS = 0
	}
	if err != nil {
		a.Error = err.Error()
	}
	if rerr := c.recorder.RecordAttempt(a); rerr != nil {
		log.Warn().Err(rerr).Msg("failed to record model attempt")
	}
}

func attemptStatus(err error) string {
	if err == nil {
		return storage.AttemptOK
	}
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return storage.AttemptRateLimited
	}
	return storage.AttemptFailed
}
