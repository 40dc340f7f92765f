package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	runconfig "github.com/raine/stock-metadata/internal/config"
	"github.com/raine/stock-metadata/internal/llm"
	"github.com/raine/stock-metadata/internal/media"
	"github.com/raine/stock-metadata/internal/pipeline"
	"github.com/raine/stock-metadata/internal/prompt"
	"github.com/raine/stock-metadata/internal/retry"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <file> [options.toml|options.yaml]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment variables:\n")
		fmt.Fprintf(os.Stderr, "  %s - Required\n", runconfig.EnvAPIKey)
		fmt.Fprintf(os.Stderr, "  %s - Optional (default %s)\n", runconfig.EnvModel, llm.DefaultModel)
		os.Exit(1)
	}

	cfg, err := runconfig.FromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.APIKey == "" {
		log.Fatal().Msgf("%s is not set", runconfig.EnvAPIKey)
	}

	opts := prompt.DefaultOptions()
	if len(os.Args) >= 3 {
		opts, err = runconfig.LoadOptions(os.Args[2])
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load options")
		}
	}

	path := os.Args[1]
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("failed to read file")
	}
	file := media.SourceFile{Name: path, MIMEType: media.DetectMIME("", path, data), Data: data}

	client := llm.NewRetryingClient(
		llm.NewRESTClient(llm.RESTClientOpts{BaseURL: cfg.BaseURL, Model: cfg.Model}),
		retry.DefaultPolicy(llm.IsRetryable),
	)
	normalizer := media.NewNormalizer().
		WithFrameExtractor(media.NewFFmpegExtractor(cfg.FFmpegPath, cfg.FFprobePath))
	analyzer := pipeline.NewAnalyzer(client).WithNormalizer(normalizer)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	start := time.Now()
	result := analyzer.Analyze(ctx, pipeline.Job{Index: 0, File: file}, cfg.APIKey, opts)
	log.Info().Dur("took", time.Since(start)).Str("kind", file.Kind().String()).Msg("done")

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		log.Fatal().Err(err).Msg("failed to encode result")
	}
	if result.Failed() {
		os.Exit(1)
	}
}
