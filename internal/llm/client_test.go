package llm

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/raine/stock-metadata/internal/media"
	"github.com/raine/stock-metadata/internal/retry"
	"github.com/raine/stock-metadata/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) Invoke(ctx context.Context, req Request) (*Response, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*Response)
	return resp, args.Error(1)
}

type memoryRecorder struct {
	mu       sync.Mutex
	attempts []storage.Attempt
}

func (r *memoryRecorder) RecordAttempt(a storage.Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, a)
	return nil
}

func noSleepPolicy(delays *[]time.Duration) retry.Policy {
	p := retry.DefaultPolicy(IsRetryable)
	p.Sleep = func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
	return p
}

func TestRetryingClient_AlwaysRateLimited(t *testing.T) {
	inner := new(mockClient)
	inner.On("Invoke", mock.Anything, mock.Anything).Return(nil, &RateLimitError{StatusCode: 429, Message: "slow down"})

	var delays []time.Duration
	rec := &memoryRecorder{}
	c := NewRetryingClient(inner, noSleepPolicy(&delays)).WithRecorder(rec, "run-1")

	_, err := c.Invoke(context.Background(), Request{Prompt: "p", APIKey: "k", FileName: "a.jpg"})
	require.Error(t, err)

	var rl *RateLimitError
	assert.ErrorAs(t, err, &rl)
	inner.AssertNumberOfCalls(t, "Invoke", 6)
	assert.Equal(t, []time.Duration{
		2000 * time.Millisecond,
		4000 * time.Millisecond,
		8000 * time.Millisecond,
		16000 * time.Millisecond,
		32000 * time.Millisecond,
	}, delays)

	require.Len(t, rec.attempts, 6)
	assert.Equal(t, int64(0), rec.attempts[0].DelayMS)
	assert.Equal(t, int64(32000), rec.attempts[5].DelayMS)
	assert.Equal(t, 6, rec.attempts[5].Attempt)
	assert.Equal(t, storage.AttemptRateLimited, rec.attempts[5].Status)
	assert.Equal(t, "run-1", rec.attempts[0].RunID)
}

func TestRetryingClient_FatalErrorIsNotRetried(t *testing.T) {
	inner := new(mockClient)
	inner.On("Invoke", mock.Anything, mock.Anything).Return(nil, &APIError{StatusCode: 400, Message: "bad"})

	var delays []time.Duration
	_, err := NewRetryingClient(inner, noSleepPolicy(&delays)).Invoke(context.Background(), Request{})

	var apiErr *APIError
	assert.ErrorAs(t, err, &apiErr)
	inner.AssertNumberOfCalls(t, "Invoke", 1)
	assert.Empty(t, delays)
}

func TestRetryingClient_RecoversAfterRateLimit(t *testing.T) {
	inner := new(mockClient)
	inner.On("Invoke", mock.Anything, mock.Anything).Return(nil, &RateLimitError{StatusCode: 503}).Once()
	inner.On("Invoke", mock.Anything, mock.Anything).Return(&Response{Text: "{}"}, nil).Once()

	var delays []time.Duration
	resp, err := NewRetryingClient(inner, noSleepPolicy(&delays)).Invoke(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "{}", resp.Text)
	assert.Equal(t, []time.Duration{2 * time.Second}, delays)
}

type memoryCache struct {
	entries map[string]*storage.CachedResponse
}

func (m *memoryCache) GetResponse(hash string) (*storage.CachedResponse, error) {
	return m.entries[hash], nil
}

func (m *memoryCache) SetResponse(hash string, entry *storage.CachedResponse) error {
	m.entries[hash] = entry
	return nil
}

func TestCachedClient(t *testing.T) {
	inner := new(mockClient)
	inner.On("Invoke", mock.Anything, mock.Anything).Return(&Response{Text: `{"title":"x"}`}, nil)

	c := NewCachedClient(inner, &memoryCache{entries: map[string]*storage.CachedResponse{}})
	req := Request{Prompt: "p", Payload: media.NewImagePayload([]byte{1, 2}, "image/png")}

	first, err := c.Invoke(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := c.Invoke(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Text, second.Text)

	other := req
	other.Payload = media.NewImagePayload([]byte{1, 2, 3}, "image/png")
	_, err = c.Invoke(context.Background(), other)
	require.NoError(t, err)

	inner.AssertNumberOfCalls(t, "Invoke", 2)
}

func TestHashRequest_BoundaryCollision(t *testing.T) {
	a := Request{Prompt: "ab", Payload: media.Payload{Text: "c"}}
	b := Request{Prompt: "a", Payload: media.Payload{Text: "bc"}}
	assert.NotEqual(t, hashRequest(a), hashRequest(b))
}

func TestQuotaClient_PassesThrough(t *testing.T) {
	inner := new(mockClient)
	inner.On("Invoke", mock.Anything, mock.Anything).Return(&Response{Text: "ok"}, nil)

	q := NewQuotaClient(inner, 600)
	resp, err := q.Invoke(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
}

func TestQuotaClient_CancelledContext(t *testing.T) {
	inner := new(mockClient)
	q := NewQuotaClient(inner, 1)
	inner.On("Invoke", mock.Anything, mock.Anything).Return(&Response{Text: "ok"}, nil)

	_, err := q.Invoke(context.Background(), Request{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = q.Invoke(ctx, Request{})
	assert.Error(t, err)
	inner.AssertNumberOfCalls(t, "Invoke", 1)
}
