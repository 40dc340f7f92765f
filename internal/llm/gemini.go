package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// GenaiClient uses the Gemini SDK. Clients are created lazily per API key
// since the SDK binds the key at construction.
type GenaiClient struct {
	model   string
	baseURL string
	params  GenerationParams

	mu      sync.Mutex
	clients map[string]*genai.Client
}

// NewGenaiClient creates an SDK-backed client. Empty model and baseURL use the
// defaults.
func NewGenaiClient(model, baseURL string) *GenaiClient {
	if model == "" {
		model = DefaultModel
	}
	return &GenaiClient{
		model:   model,
		baseURL: baseURL,
		params:  DefaultGenerationParams(),
		clients: make(map[string]*genai.Client),
	}
}

func (g *GenaiClient) client(ctx context.Context, apiKey string) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if c, ok := g.clients[apiKey]; ok {
		return c, nil
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if g.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: g.baseURL}
	}
	c, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	g.clients[apiKey] = c
	return c, nil
}

// Invoke implements Client using GenerateContent.
func (g *GenaiClient) Invoke(ctx context.Context, req Request) (*Response, error) {
	if req.APIKey == "" {
		return nil, errors.New("missing API key")
	}
	client, err := g.client(ctx, req.APIKey)
	if err != nil {
		return nil, err
	}

	// Build parts: prompt first, then the payload
	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}
	if req.Payload.IsText() {
		parts = append(parts, genai.NewPartFromText(req.Payload.Text))
	} else if len(req.Payload.Data) > 0 {
		parts = append(parts, genai.NewPartFromBytes(req.Payload.Data, req.Payload.MIMEType))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.params.Temperature),
		TopP:            genai.Ptr(g.params.TopP),
		TopK:            genai.Ptr(float32(g.params.TopK)),
		MaxOutputTokens: int32(g.params.MaxOutputTokens),
	}

	result, err := client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, mapGenaiError(err)
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, &APIError{Message: "no response from Gemini"}
	}

	usage := Usage{}
	if result.UsageMetadata != nil {
		usage.InputTokens = int64(result.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int64(result.UsageMetadata.CandidatesTokenCount)
		usage.TotalTokens = int64(result.UsageMetadata.TotalTokenCount)
	}

	log.Info().
		Str("model", g.model).
		Str("file", req.FileName).
		Bool("textPayload", req.Payload.IsText()).
		Int64("inputTokens", usage.InputTokens).
		Int64("outputTokens", usage.OutputTokens).
		Msg("vision llm call")

	return &Response{Text: result.Text(), Usage: usage}, nil
}

// mapGenaiError converts SDK errors into RateLimitError or APIError.
func mapGenaiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return statusError(apiErr.Code, apiErr.Status, apiErr.Message)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return statusError(apiErrPtr.Code, apiErrPtr.Status, apiErrPtr.Message)
	}
	if looksRateLimited(err.Error()) {
		return &RateLimitError{Message: err.Error()}
	}
	return fmt.Errorf("failed to generate content: %w", err)
}
