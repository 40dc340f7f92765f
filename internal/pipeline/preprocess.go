package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/raine/stock-metadata/internal/media"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	// defaultPreprocessWorkers bounds concurrent normalizations. Video frame
	// extraction spawns ffmpeg, so this stays small.
	defaultPreprocessWorkers = 4
	memoTTL                  = 30 * time.Minute
	memoCleanup              = time.Hour
)

// Prepared is the normalization outcome of one file.
type Prepared struct {
	Normalized *media.Normalized
	Err        error
}

// Preprocessor normalizes all files of a run in parallel before any model
// call is made. Identical files are normalized once.
type Preprocessor struct {
	normalizer *media.Normalizer
	memo       *cache.Cache
	workers    int
}

func NewPreprocessor(normalizer *media.Normalizer) *Preprocessor {
	return &Preprocessor{
		normalizer: normalizer,
		memo:       cache.New(memoTTL, memoCleanup),
		workers:    defaultPreprocessWorkers,
	}
}

// WithWorkers sets the number of files normalized concurrently.
func (p *Preprocessor) WithWorkers(n int) *Preprocessor {
	if n > 0 {
		p.workers = n
	}
	return p
}

// Prepare normalizes files and returns one Prepared per file, in input
// order. Per-file failures are carried in Prepared.Err; the only error
// returned is context cancellation.
func (p *Preprocessor) Prepare(ctx context.Context, files []media.SourceFile) ([]Prepared, error) {
	out := make([]Prepared, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = p.prepareIsolated(gctx, f)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// prepareIsolated turns a panic during normalization into a per-file error.
func (p *Preprocessor) prepareIsolated(ctx context.Context, f media.SourceFile) (res Prepared) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("file", f.Name).Msg("preprocessing panicked")
			res = Prepared{Err: fmt.Errorf("failed to prepare %s: %v", f.Name, r)}
		}
	}()
	return p.prepare(ctx, f)
}

func (p *Preprocessor) prepare(ctx context.Context, f media.SourceFile) Prepared {
	key := memoKey(f)
	if v, ok := p.memo.Get(key); ok {
		log.Debug().Str("file", f.Name).Msg("normalization memo hit")
		return v.(Prepared)
	}

	started := time.Now()
	norm, err := p.normalizer.Normalize(ctx, f)
	prepared := Prepared{Normalized: norm, Err: err}
	if err != nil {
		log.Warn().Err(err).Str("file", f.Name).Msg("preprocessing failed")
		return prepared
	}

	log.Debug().
		Str("file", f.Name).
		Str("kind", norm.Kind.String()).
		Int("payloadBytes", norm.Payload.Size()).
		Dur("took", time.Since(started)).
		Msg("file preprocessed")
	p.memo.Set(key, prepared, cache.DefaultExpiration)
	return prepared
}

// memoKey identifies a file by name, declared type and content. The name is
// part of the key because EPS reports and video placeholders embed it.
func memoKey(f media.SourceFile) string {
	h := sha256.New()
	h.Write([]byte(f.Name))
	h.Write([]byte{0})
	h.Write([]byte(f.MIMEType))
	h.Write([]byte{0})
	h.Write(f.Data)
	return hex.EncodeToString(h.Sum(nil))
}
