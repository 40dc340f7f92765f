package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/raine/stock-metadata/internal/media"
	"github.com/raine/stock-metadata/internal/prompt"
	"github.com/raine/stock-metadata/internal/retry"
	"github.com/rs/zerolog/log"
)

// ProgressFunc is called once per file, in input order within each batch,
// after the file's result is final.
type ProgressFunc func(done, total int, r Result)

// Stats summarizes the most recent run.
type Stats struct {
	Files      int
	Succeeded  int
	Failed     int
	Batches    int
	Individual bool
	// Fallbacks counts batches that were re-dispatched file by file.
	Fallbacks int
	CacheHits int64
	Duration  time.Duration
}

// Scheduler runs a set of files through the analyzer. Model calls are made
// strictly one after another with growing pauses between files and batches.
type Scheduler struct {
	analyzer   *Analyzer
	pre        *Preprocessor
	sleep      retry.Sleeper
	onProgress ProgressFunc

	mu    sync.Mutex
	stats Stats
}

// NewScheduler creates a scheduler around analyzer. Files are preprocessed
// with the analyzer's normalizer.
func NewScheduler(analyzer *Analyzer) *Scheduler {
	return &Scheduler{
		analyzer: analyzer,
		pre:      NewPreprocessor(analyzer.Normalizer()),
		sleep:    retry.Sleep,
	}
}

// WithPreprocessor replaces the preprocessor.
func (s *Scheduler) WithPreprocessor(p *Preprocessor) *Scheduler {
	s.pre = p
	return s
}

// WithSleeper replaces the function used for pacing delays.
func (s *Scheduler) WithSleeper(sleep retry.Sleeper) *Scheduler {
	s.sleep = sleep
	return s
}

// OnProgress registers a progress callback.
func (s *Scheduler) OnProgress(fn ProgressFunc) *Scheduler {
	s.onProgress = fn
	return s
}

// Stats returns the statistics of the last completed run.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// run holds the state of one Run call.
type run struct {
	apiKey    string
	opts      prompt.Options
	processed int
	done      int
	total     int
	stats     Stats
}

// Run analyzes files and returns exactly one result per file, in input
// order. Per-file failures are reported in Result.Error. An error is
// returned only for invalid options or when ctx is cancelled, in which case
// files that were not reached carry the cancellation error.
func (s *Scheduler) Run(ctx context.Context, files []media.SourceFile, apiKey string, opts prompt.Options) ([]Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analysis options: %w", err)
	}
	started := time.Now()
	hitsBefore := s.analyzer.CacheHits()
	results := make([]Result, len(files))
	if len(files) == 0 {
		return results, nil
	}

	plan := PlanBatches(files)
	log.Info().
		Int("files", len(files)).
		Int("batches", len(plan.Batches)).
		Int("batchSize", plan.BatchSize).
		Bool("individual", plan.Individual).
		Msg("starting analysis run")

	prepared, err := s.pre.Prepare(ctx, files)
	if err != nil {
		return cancelled(files, results, nil, err), err
	}

	jobs := make([]Job, len(files))
	for i, f := range files {
		jobs[i] = Job{Index: i, File: f, Prepared: &prepared[i]}
	}

	r := &run{
		apiKey: apiKey,
		opts:   opts,
		total:  len(files),
		stats:  Stats{Files: len(files), Batches: len(plan.Batches), Individual: plan.Individual},
	}
	finished := make([]bool, len(files))

	for b, indexes := range plan.Batches {
		batch := make([]Job, len(indexes))
		for i, idx := range indexes {
			batch[i] = jobs[idx]
		}

		if b > 0 && !plan.Individual {
			if err := s.sleep(ctx, BatchDelay(b)); err != nil {
				return cancelled(files, results, finished, err), err
			}
		}

		out, err := s.runBatch(ctx, r, batch, plan.Individual)
		if err != nil {
			if ctx.Err() != nil {
				return cancelled(files, results, finished, ctx.Err()), ctx.Err()
			}
			log.Warn().Err(err).Int("batch", b).Msg("batch failed, processing remaining files individually")
			r.stats.Fallbacks++
			out = append(out, s.runFallback(ctx, r, batch[len(out):])...)
		}

		for i, res := range Reconcile(batch, out) {
			results[batch[i].Index] = res
			finished[batch[i].Index] = true
			s.report(r, res)
		}
	}

	r.stats.CacheHits = s.analyzer.CacheHits() - hitsBefore
	r.stats.Duration = time.Since(started)
	s.mu.Lock()
	s.stats = r.stats
	s.mu.Unlock()

	log.Info().
		Int("files", r.stats.Files).
		Int("succeeded", r.stats.Succeeded).
		Int("failed", r.stats.Failed).
		Dur("took", r.stats.Duration).
		Msg("analysis run finished")

	return results, nil
}

// runBatch processes the files of one batch sequentially. A panic anywhere
// in the batch is returned as an error together with the results produced
// so far.
func (s *Scheduler) runBatch(ctx context.Context, r *run, batch []Job, individual bool) (out []Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("batch aborted: %v", p)
		}
	}()

	for i, job := range batch {
		if r.processed > 0 && (individual || i > 0) {
			if err := s.sleep(ctx, FileDelay(r.processed)); err != nil {
				return out, err
			}
		}
		out = append(out, s.analyzer.Analyze(ctx, job, r.apiKey, r.opts))
		r.processed++
	}
	return out, nil
}

// runFallback processes each job on its own, turning a panic into an error
// result for that file only.
func (s *Scheduler) runFallback(ctx context.Context, r *run, jobs []Job) []Result {
	out := make([]Result, 0, len(jobs))
	for _, job := range jobs {
		if r.processed > 0 {
			if err := s.sleep(ctx, FileDelay(r.processed)); err != nil {
				out = append(out, errorResult(job.Index, job.File, err))
				continue
			}
		}
		out = append(out, s.analyzeIsolated(ctx, r, job))
		r.processed++
	}
	return out
}

func (s *Scheduler) analyzeIsolated(ctx context.Context, r *run, job Job) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("panic", p).Str("file", job.File.Name).Msg("file analysis panicked")
			res = errorResult(job.Index, job.File, fmt.Errorf("analysis aborted: %v", p))
		}
	}()
	return s.analyzer.Analyze(ctx, job, r.apiKey, r.opts)
}

func (s *Scheduler) report(r *run, res Result) {
	r.done++
	if res.Failed() {
		r.stats.Failed++
	} else {
		r.stats.Succeeded++
	}
	if s.onProgress != nil {
		s.onProgress(r.done, r.total, res)
	}
}

// cancelled fills every unfinished result with err.
func cancelled(files []media.SourceFile, results []Result, finished []bool, err error) []Result {
	for i, f := range files {
		if finished == nil || !finished[i] {
			results[i] = errorResult(i, f, err)
		}
	}
	return results
}
