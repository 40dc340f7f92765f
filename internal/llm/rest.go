package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

const (
	DefaultBaseURL     = "https://generativelanguage.googleapis.com"
	defaultRESTTimeout = 120 * time.Second
	generatePath       = "/v1beta/models/{model}:generateContent"
)

type RESTClientOpts struct {
	BaseURL string
	Model   string
	Timeout time.Duration
	Params  *GenerationParams
}

// RESTClient calls the generateContent endpoint directly. Each Invoke is a
// single POST; retries are layered on top by RetryingClient.
type RESTClient struct {
	httpClient *resty.Client
	model      string
	params     GenerationParams
}

func NewRESTClient(opts RESTClientOpts) *RESTClient {
	c := RESTClient{model: DefaultModel, params: DefaultGenerationParams()}
	if opts.Model != "" {
		c.model = opts.Model
	}
	if opts.Params != nil {
		c.params = *opts.Params
	}
	baseURL := DefaultBaseURL
	if opts.BaseURL != "" {
		baseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	timeout := defaultRESTTimeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}

	c.httpClient = resty.New().
		SetDebug(false).
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeaders(map[string]string{
			"Accept":       "application/json",
			"Content-Type": "application/json",
		})

	return &c
}

// Model returns the model name requests are sent to.
func (c *RESTClient) Model() string {
	return c.model
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	// Data is base64 encoded by encoding/json.
	Data []byte `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     float32 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float32 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata *struct {
		PromptTokenCount     int64 `json:"promptTokenCount"`
		CandidatesTokenCount int64 `json:"candidatesTokenCount"`
		TotalTokenCount      int64 `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func buildRequest(req Request, params GenerationParams) generateRequest {
	parts := []part{{Text: req.Prompt}}
	if req.Payload.IsText() {
		parts = append(parts, part{Text: req.Payload.Text})
	} else if len(req.Payload.Data) > 0 {
		parts = append(parts, part{InlineData: &inlineData{
			MimeType: req.Payload.MIMEType,
			Data:     req.Payload.Data,
		}})
	}

	return generateRequest{
		Contents: []content{{Role: "user", Parts: parts}},
		GenerationConfig: generationConfig{
			Temperature:     params.Temperature,
			TopK:            params.TopK,
			TopP:            params.TopP,
			MaxOutputTokens: params.MaxOutputTokens,
		},
	}
}

// Invoke performs one generateContent call with the API key as the `key`
// query parameter.
func (c *RESTClient) Invoke(ctx context.Context, req Request) (*Response, error) {
	if req.APIKey == "" {
		return nil, errors.New("missing API key")
	}

	result := &generateResponse{}
	errResult := &errorResponse{}

	res, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("key", req.APIKey).
		SetPathParam("model", c.model).
		SetBody(buildRequest(req, c.params)).
		SetResult(result).
		SetError(errResult).
		Post(generatePath)
	if err := handleError(res, err, errResult); err != nil {
		return nil, err
	}

	var sb strings.Builder
	for _, cand := range result.Candidates {
		for _, p := range cand.Content.Parts {
			sb.WriteString(p.Text)
		}
		if sb.Len() > 0 {
			break
		}
	}
	if sb.Len() == 0 {
		return nil, &APIError{StatusCode: res.StatusCode(), Message: "no candidates in model response"}
	}

	usage := Usage{}
	if result.UsageMetadata != nil {
		usage.InputTokens = result.UsageMetadata.PromptTokenCount
		usage.OutputTokens = result.UsageMetadata.CandidatesTokenCount
		usage.TotalTokens = result.UsageMetadata.TotalTokenCount
	}

	log.Info().
		Str("model", c.model).
		Str("file", req.FileName).
		Bool("textPayload", req.Payload.IsText()).
		Int64("inputTokens", usage.InputTokens).
		Int64("outputTokens", usage.OutputTokens).
		Msg("vision llm call")

	return &Response{Text: sb.String(), Usage: usage}, nil
}

// handleError turns transport failures and >399 responses into typed errors.
// Without this, failing responses would have nil error.
func handleError(res *resty.Response, err error, errResult *errorResponse) error {
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("model request cancelled: %w", err)
		}
		if looksRateLimited(err.Error()) {
			return &RateLimitError{Message: err.Error()}
		}
		return fmt.Errorf("model request failed: %w", err)
	}
	if res.IsError() {
		msg := errResult.Error.Message
		if msg == "" {
			msg = strings.TrimSpace(res.String())
		}
		return statusError(res.StatusCode(), errResult.Error.Status, msg)
	}
	return nil
}
