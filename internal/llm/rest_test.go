package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/raine/stock-metadata/internal/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, status int, body string, seen *map[string]any) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/test-model:generateContent", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		if seen != nil {
			data, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(data, seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts
}

const okBody = `{
  "candidates": [{"content": {"parts": [{"text": "{\"title\": \"Red car\"}"}]}, "finishReason": "STOP"}],
  "usageMetadata": {"promptTokenCount": 120, "candidatesTokenCount": 30, "totalTokenCount": 150}
}`

func TestRESTClient_InvokeImage(t *testing.T) {
	var body map[string]any
	ts := newTestServer(t, http.StatusOK, okBody, &body)
	c := NewRESTClient(RESTClientOpts{BaseURL: ts.URL, Model: "test-model"})

	resp, err := c.Invoke(context.Background(), Request{
		Prompt:   "describe",
		Payload:  media.NewImagePayload([]byte{1, 2, 3}, "image/jpeg"),
		APIKey:   "secret",
		FileName: "car.jpg",
	})
	require.NoError(t, err)
	assert.Equal(t, `{"title": "Red car"}`, resp.Text)
	assert.Equal(t, int64(120), resp.Usage.InputTokens)
	assert.Equal(t, int64(150), resp.Usage.TotalTokens)

	contents := body["contents"].([]any)
	parts := contents[0].(map[string]any)["parts"].([]any)
	require.Len(t, parts, 2)
	assert.Equal(t, "describe", parts[0].(map[string]any)["text"])
	inline := parts[1].(map[string]any)["inline_data"].(map[string]any)
	assert.Equal(t, "image/jpeg", inline["mime_type"])
	assert.Equal(t, "AQID", inline["data"])

	cfg := body["generationConfig"].(map[string]any)
	assert.InDelta(t, 0.4, cfg["temperature"], 0.001)
	assert.Equal(t, float64(32), cfg["topK"])
	assert.InDelta(t, 0.95, cfg["topP"], 0.001)
	assert.Equal(t, float64(1024), cfg["maxOutputTokens"])
}

func TestRESTClient_EPSPayloadIsSentAsText(t *testing.T) {
	var body map[string]any
	ts := newTestServer(t, http.StatusOK, okBody, &body)
	c := NewRESTClient(RESTClientOpts{BaseURL: ts.URL, Model: "test-model"})

	_, err := c.Invoke(context.Background(), Request{
		Prompt:  "describe",
		Payload: media.NewTextPayload("=== EPS FILE ANALYSIS ==="),
		APIKey:  "secret",
	})
	require.NoError(t, err)

	parts := body["contents"].([]any)[0].(map[string]any)["parts"].([]any)
	require.Len(t, parts, 2)
	for _, p := range parts {
		_, hasInline := p.(map[string]any)["inline_data"]
		assert.False(t, hasInline)
	}
	assert.Equal(t, "=== EPS FILE ANALYSIS ===", parts[1].(map[string]any)["text"])
}

func TestRESTClient_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		retryable bool
		message   string
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error": {"code": 429, "message": "Resource has been exhausted", "status": "RESOURCE_EXHAUSTED"}}`, true, "Resource has been exhausted"},
		{"unavailable", http.StatusServiceUnavailable, `{"error": {"code": 503, "message": "The model is overloaded", "status": "UNAVAILABLE"}}`, true, "The model is overloaded"},
		{"bad request", http.StatusBadRequest, `{"error": {"code": 400, "message": "API key not valid", "status": "INVALID_ARGUMENT"}}`, false, "API key not valid"},
		{"empty candidates", http.StatusOK, `{"candidates": []}`, false, "no candidates"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, tt.status, tt.body, nil)
			c := NewRESTClient(RESTClientOpts{BaseURL: ts.URL, Model: "test-model"})

			_, err := c.Invoke(context.Background(), Request{Prompt: "p", APIKey: "secret"})
			require.Error(t, err)
			assert.Equal(t, tt.retryable, IsRetryable(err))
			assert.Contains(t, err.Error(), tt.message)

			if tt.retryable {
				var rl *RateLimitError
				require.ErrorAs(t, err, &rl)
				assert.Equal(t, tt.status, rl.StatusCode)
			} else {
				var apiErr *APIError
				require.ErrorAs(t, err, &apiErr)
			}
		})
	}
}

func TestRESTClient_MissingAPIKey(t *testing.T) {
	c := NewRESTClient(RESTClientOpts{BaseURL: "http://127.0.0.1:1"})
	_, err := c.Invoke(context.Background(), Request{Prompt: "p"})
	assert.ErrorContains(t, err, "missing API key")
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&RateLimitError{StatusCode: 429}))
	assert.False(t, IsRetryable(assert.AnError))
	assert.False(t, IsRetryable(io.ErrUnexpectedEOF))
	assert.True(t, IsRetryable(errString("upstream said: Too Many Requests")))
	assert.False(t, IsRetryable(&APIError{StatusCode: 400, Message: "quota project not set"}))
	assert.False(t, IsRetryable(nil))
}

type errString string

func (e errString) Error() string { return string(e) }
