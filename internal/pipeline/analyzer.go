package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/raine/stock-metadata/internal/llm"
	"github.com/raine/stock-metadata/internal/media"
	"github.com/raine/stock-metadata/internal/metadata"
	"github.com/raine/stock-metadata/internal/prompt"
	"github.com/rs/zerolog/log"
)

// Analyzer runs the single-file pipeline: normalize, compose the prompt, call
// the model, parse and post-process.
type Analyzer struct {
	normalizer *media.Normalizer
	client     llm.Client
	cacheHits  atomic.Int64
}

// NewAnalyzer creates an analyzer using client for model calls and the
// default normalizer.
func NewAnalyzer(client llm.Client) *Analyzer {
	return &Analyzer{
		normalizer: media.NewNormalizer(),
		client:     client,
	}
}

// WithNormalizer replaces the normalizer.
func (a *Analyzer) WithNormalizer(n *media.Normalizer) *Analyzer {
	a.normalizer = n
	return a
}

// Normalizer returns the normalizer used for files that were not
// preprocessed.
func (a *Analyzer) Normalizer() *media.Normalizer {
	return a.normalizer
}

// CacheHits returns how many model responses were served from the session
// cache.
func (a *Analyzer) CacheHits() int64 {
	return a.cacheHits.Load()
}

// Job is one file to analyze. Prepared holds the preprocessing outcome when
// the file was normalized ahead of time.
type Job struct {
	Index    int
	File     media.SourceFile
	Prepared *Prepared
}

// Analyze runs the pipeline for one file. It never returns an error: every
// failure is reported in Result.Error.
func (a *Analyzer) Analyze(ctx context.Context, job Job, apiKey string, opts prompt.Options) Result {
	res, cached, err := a.analyze(ctx, job, apiKey, opts)
	if err != nil {
		log.Error().Err(err).Str("file", job.File.Name).Int("index", job.Index).Msg("file analysis failed")
		return errorResult(job.Index, job.File, err)
	}
	if cached {
		a.cacheHits.Add(1)
	}
	log.Info().
		Str("file", job.File.Name).
		Str("title", res.Title).
		Int("keywords", len(res.Keywords)).
		Bool("cached", cached).
		Msg("file analyzed")
	return *res
}

func (a *Analyzer) analyze(ctx context.Context, job Job, apiKey string, opts prompt.Options) (*Result, bool, error) {
	f := job.File

	norm, err := a.normalized(ctx, job)
	if err != nil {
		return nil, false, err
	}

	fileType := fileTypeOf(norm.Kind)
	text := prompt.Compose(prompt.FileContext{Name: f.Name, Type: fileType, EPS: norm.EPS}, opts)

	resp, err := a.client.Invoke(ctx, llm.Request{
		Prompt:   text,
		Payload:  norm.Payload,
		APIKey:   apiKey,
		FileName: f.Name,
	})
	if err != nil {
		return nil, false, fmt.Errorf("model call failed: %w", err)
	}

	parsed, err := llm.ParseResponse(resp.Text, prompt.ResolveSchema(opts.Mode, opts.Group(), fileType))
	if err != nil {
		return nil, resp.Cached, err
	}

	md := metadata.NewPostProcessor(opts).Apply(metadata.Metadata{
		Title:       parsed.Title,
		Description: parsed.Description,
		Prompt:      parsed.Prompt,
		Keywords:    parsed.Keywords,
		Category:    parsed.Category,
	}, fileType)

	return &Result{
		Index:       job.Index,
		Filename:    f.Name,
		Title:       md.Title,
		Description: md.Description,
		Keywords:    md.Keywords,
		Prompt:      md.Prompt,
		BaseModel:   md.BaseModel,
		Category:    md.Category,
		Categories:  md.Categories,
		IsVideo:     norm.Kind == media.KindVideo,
		IsEps:       norm.Kind == media.KindEPS,
	}, resp.Cached, nil
}

func (a *Analyzer) normalized(ctx context.Context, job Job) (*media.Normalized, error) {
	if job.Prepared != nil {
		return job.Prepared.Normalized, job.Prepared.Err
	}
	return a.normalizer.Normalize(ctx, job.File)
}

func fileTypeOf(kind media.Kind) prompt.FileType {
	switch kind {
	case media.KindVideo:
		return prompt.FileVideo
	case media.KindEPS:
		return prompt.FileEPS
	default:
		return prompt.FileImage
	}
}
