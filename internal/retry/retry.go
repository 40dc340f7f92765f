// Package retry implements the single retry policy used for model calls.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxRetries = 5
	DefaultBaseDelay  = 2 * time.Second
	DefaultMaxDelay   = 60 * time.Second
)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the real Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Policy decides whether and when a failed attempt is retried.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// Backoff returns the delay before retry n (0-based).
	Backoff func(n int) time.Duration
	// Retryable reports whether err may be retried.
	Retryable func(err error) bool
	Sleep     Sleeper
	// OnRetry is called before each wait, if set.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// ExponentialBackoff returns min(base*2^n, limit).
func ExponentialBackoff(base, limit time.Duration) func(n int) time.Duration {
	return func(n int) time.Duration {
		d := base
		for i := 0; i < n; i++ {
			d *= 2
			if d >= limit {
				return limit
			}
		}
		return min(d, limit)
	}
}

// DefaultPolicy retries errors accepted by retryable up to five times with
// delays of 2s, 4s, 8s, 16s and 32s.
func DefaultPolicy(retryable func(error) bool) Policy {
	return Policy{
		MaxRetries: DefaultMaxRetries,
		Backoff:    ExponentialBackoff(DefaultBaseDelay, DefaultMaxDelay),
		Retryable:  retryable,
		Sleep:      Sleep,
	}
}

// ExhaustedError wraps the last error after all retries were used.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("giving up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Do calls fn until it succeeds, returns a non-retryable error, retries run
// out or ctx is cancelled. fn receives the 0-based attempt number.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = Sleep
	}
	backoff := p.Backoff
	if backoff == nil {
		backoff = ExponentialBackoff(DefaultBaseDelay, DefaultMaxDelay)
	}

	for attempt := 0; ; attempt++ {
		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		if p.Retryable == nil || !p.Retryable(err) {
			return err
		}
		if attempt >= p.MaxRetries {
			return &ExhaustedError{Attempts: attempt + 1, Err: err}
		}

		delay := backoff(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt+1, delay, err)
		}
		log.Warn().Err(err).Int("attempt", attempt+1).Dur("delay", delay).Msg("retrying after transient failure")

		if serr := sleep(ctx, delay); serr != nil {
			return errors.Join(err, serr)
		}
	}
}
