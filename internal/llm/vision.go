// Package llm talks to the vision model: request transport, retries, quota,
// caching and response parsing.
package llm

import (
	"context"

	"github.com/raine/stock-metadata/internal/media"
)

// Request is one model invocation.
type Request struct {
	Prompt  string
	Payload media.Payload
	APIKey  string
	// FileName identifies the file in logs and the attempt log.
	FileName string
}

// Usage contains token usage information.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// Response is the raw text returned by the model.
type Response struct {
	Text  string
	Usage Usage
	// Cached is set when the response came from the session cache.
	Cached bool
}

// Client performs model calls. Implementations block until the call and any
// retries complete.
type Client interface {
	Invoke(ctx context.Context, req Request) (*Response, error)
}

// GenerationParams are the sampling parameters sent with each call.
type GenerationParams struct {
	Temperature     float32
	TopK            int
	TopP            float32
	MaxOutputTokens int
}

// DefaultGenerationParams returns the parameters used for metadata
// generation.
func DefaultGenerationParams() GenerationParams {
	return GenerationParams{
		Temperature:     0.4,
		TopK:            32,
		TopP:            0.95,
		MaxOutputTokens: 1024,
	}
}

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash"
