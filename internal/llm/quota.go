package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// DefaultRequestsPerMinute is the documented free-tier quota per credential.
const DefaultRequestsPerMinute = 15

// QuotaClient holds each call until the token bucket allows it.
type QuotaClient struct {
	inner   Client
	limiter *rate.Limiter
}

// NewQuotaClient allows requestsPerMinute calls per minute with a burst of one.
func NewQuotaClient(inner Client, requestsPerMinute int) *QuotaClient {
	if requestsPerMinute <= 0 {
		requestsPerMinute = DefaultRequestsPerMinute
	}
	return &QuotaClient{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1),
	}
}

func (q *QuotaClient) Invoke(ctx context.Context, req Request) (*Response, error) {
	if err := q.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for request quota: %w", err)
	}
	return q.inner.Invoke(ctx, req)
}
