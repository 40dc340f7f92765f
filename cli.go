package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	runconfig "github.com/raine/stock-metadata/internal/config"
	"github.com/raine/stock-metadata/internal/llm"
	"github.com/raine/stock-metadata/internal/media"
	"github.com/raine/stock-metadata/internal/pipeline"
	"github.com/raine/stock-metadata/internal/prompt"
	"github.com/raine/stock-metadata/internal/retry"
	"github.com/raine/stock-metadata/internal/storage"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	verbose bool
	logFile string
}

type analyzeFlags struct {
	optionsFile     string
	platforms       []string
	mode            string
	recursive       bool
	output          string
	singleWord      bool
	prohibited      []string
	customPrompt    string
	whiteBackground bool
	transparent     bool
	silhouette      bool
}

func newRootCmd() *cobra.Command {
	var rf rootFlags
	var closeLog func()

	root := &cobra.Command{
		Use:           "stock-metadata",
		Short:         "Generate stock marketplace metadata for images, vectors and videos",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := setupLogging(rf.verbose, rf.logFile)
			if err != nil {
				return fmt.Errorf("failed to open log file: %w", err)
			}
			closeLog = c
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if closeLog != nil {
				closeLog()
			}
		},
	}
	root.PersistentFlags().BoolVarP(&rf.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&rf.logFile, "log-file", "", "also write logs to this file")

	root.AddCommand(newAnalyzeCmd(), newSetupCmd())
	return root
}

func newAnalyzeCmd() *cobra.Command {
	var af analyzeFlags

	cmd := &cobra.Command{
		Use:   "analyze [files or directories]...",
		Short: "Analyze files and print their metadata as JSON",
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return ensureRequiredConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, af, args)
		},
	}

	f := cmd.Flags()
	f.StringVar(&af.optionsFile, "options", "", "analysis options file (.toml, .yaml or .yml)")
	f.StringSliceVarP(&af.platforms, "platform", "p", nil, "target platform, repeatable (e.g. AdobeStock, Shutterstock, Freepik)")
	f.StringVarP(&af.mode, "mode", "m", "", "generation mode: metadata or imageToPrompt")
	f.BoolVarP(&af.recursive, "recursive", "r", false, "walk directories recursively")
	f.StringVarP(&af.output, "output", "o", "", "write JSON results to this file instead of stdout")
	f.BoolVar(&af.singleWord, "single-word-keywords", false, "split keywords into single words")
	f.StringSliceVar(&af.prohibited, "prohibit", nil, "words that must not appear in the metadata")
	f.StringVar(&af.customPrompt, "custom-prompt", "", "replace the built-in instructions with this text")
	f.BoolVar(&af.whiteBackground, "white-background", false, "mark files as isolated on white background")
	f.BoolVar(&af.transparent, "transparent-background", false, "mark files as having a transparent background")
	f.BoolVar(&af.silhouette, "silhouette", false, "mark files as silhouettes")
	return cmd
}

// ensureRequiredConfig runs the setup wizard when required configuration is
// missing and the terminal is interactive.
func ensureRequiredConfig() error {
	missing := runconfig.Missing()
	if len(missing) == 0 {
		return nil
	}
	if !isInteractiveTerminal() {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	if !runSetupWizard() {
		return errors.New("setup was not completed")
	}
	return nil
}

// resolveOptions loads the options file, if any, and overlays the flags that
// were set explicitly.
func resolveOptions(cmd *cobra.Command, af analyzeFlags) (prompt.Options, error) {
	opts := prompt.DefaultOptions()
	if af.optionsFile != "" {
		loaded, err := runconfig.LoadOptions(af.optionsFile)
		if err != nil {
			return prompt.Options{}, err
		}
		opts = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("platform") {
		opts.Platforms = nil
		for _, p := range af.platforms {
			opts.Platforms = append(opts.Platforms, prompt.Platform(p))
		}
	}
	if flags.Changed("mode") {
		opts.Mode = prompt.Mode(af.mode)
	}
	if flags.Changed("single-word-keywords") {
		opts.SingleWordKeywords = af.singleWord
	}
	if flags.Changed("prohibit") {
		opts.ProhibitedWordsEnabled = len(af.prohibited) > 0
		opts.ProhibitedWords = af.prohibited
	}
	if flags.Changed("custom-prompt") {
		opts.CustomPromptEnabled = strings.TrimSpace(af.customPrompt) != ""
		opts.CustomPrompt = af.customPrompt
	}
	if flags.Changed("white-background") {
		opts.WhiteBackground = af.whiteBackground
	}
	if flags.Changed("transparent-background") {
		opts.TransparentBackground = af.transparent
	}
	if flags.Changed("silhouette") {
		opts.Silhouette = af.silhouette
	}

	opts = runconfig.Canonicalize(opts)
	if err := opts.Validate(); err != nil {
		return prompt.Options{}, err
	}
	return opts, nil
}

func runAnalyze(cmd *cobra.Command, af analyzeFlags, args []string) error {
	ctx := cmd.Context()

	cfg, err := runconfig.FromEnv()
	if err != nil {
		return err
	}
	opts, err := resolveOptions(cmd, af)
	if err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}

	files, err := collectFiles(args, af.recursive)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.New("no supported files found")
	}

	store, err := storage.NewSQLiteStore(cfg.CacheDB)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer store.Close()

	run, err := store.CreateRun(len(files))
	if err != nil {
		return fmt.Errorf("failed to start run: %w", err)
	}
	log.Logger = log.With().Str("run", run.ID).Logger()

	log.Info().
		Str("backend", string(cfg.Backend)).
		Str("model", cfg.Model).
		Strs("platforms", platformNames(opts.Platforms)).
		Str("mode", string(opts.Mode)).
		Msg("run configured")

	normalizer := media.NewNormalizer().
		WithFrameExtractor(media.NewFFmpegExtractor(cfg.FFmpegPath, cfg.FFprobePath))
	scheduler := pipeline.NewScheduler(pipeline.NewAnalyzer(buildClient(cfg, store, run.ID)).WithNormalizer(normalizer)).
		OnProgress(func(done, total int, r pipeline.Result) {
			ev := log.Info()
			if r.Failed() {
				ev = log.Warn().Str("error", r.Error)
			}
			ev.Int("done", done).Int("total", total).Str("file", r.Filename).Msg("progress")
		})

	results, runErr := scheduler.Run(ctx, files, cfg.APIKey, opts)
	if results != nil {
		if err := writeResults(af.output, results); err != nil {
			return err
		}
	}
	if runErr != nil {
		return runErr
	}

	logRunSummary(store, run.ID, scheduler.Stats())
	return nil
}

// buildClient layers the model client: session cache, then retries with the
// attempt log, then the quota limiter, then the transport.
func buildClient(cfg *runconfig.Config, store *storage.SQLiteStore, runID string) llm.Client {
	var base llm.Client
	switch cfg.Backend {
	case runconfig.BackendSDK:
		baseURL := cfg.BaseURL
		if baseURL == llm.DefaultBaseURL {
			baseURL = ""
		}
		base = llm.NewGenaiClient(cfg.Model, baseURL)
	default:
		base = llm.NewRESTClient(llm.RESTClientOpts{BaseURL: cfg.BaseURL, Model: cfg.Model})
	}

	if cfg.RequestsPerMinute > 0 {
		base = llm.NewQuotaClient(base, cfg.RequestsPerMinute)
	}

	retrying := llm.NewRetryingClient(base, retry.DefaultPolicy(llm.IsRetryable)).WithRecorder(store, runID)
	return llm.NewCachedClient(retrying, store)
}

func writeResults(path string, results []pipeline.Result) error {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	return nil
}

func logRunSummary(store *storage.SQLiteStore, runID string, stats pipeline.Stats) {
	ev := log.Info().
		Int("files", stats.Files).
		Int("succeeded", stats.Succeeded).
		Int("failed", stats.Failed).
		Int("batches", stats.Batches).
		Bool("individual", stats.Individual).
		Int64("cacheHits", stats.CacheHits).
		Dur("took", stats.Duration)

	if rs, err := store.GetRunStats(runID); err != nil {
		log.Warn().Err(err).Msg("failed to read attempt stats")
	} else {
		ev = ev.Int("attempts", rs.Attempts).Int("retries", rs.Retries).Int("rateLimited", rs.RateLimited)
	}
	ev.Msg("run complete")
}

func platformNames(platforms []prompt.Platform) []string {
	names := make([]string, len(platforms))
	for i, p := range platforms {
		names[i] = string(p)
	}
	return names
}
