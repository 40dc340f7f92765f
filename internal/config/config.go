// Package config reads runtime configuration from the environment and
// analysis options from TOML or YAML files.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/raine/stock-metadata/internal/llm"
	"github.com/raine/stock-metadata/internal/storage"
)

// Backend selects the model transport.
type Backend string

const (
	BackendREST Backend = "rest"
	BackendSDK  Backend = "sdk"
)

const (
	EnvAPIKey  = "GEMINI_API_KEY"
	EnvModel   = "GEMINI_MODEL"
	EnvBaseURL = "GEMINI_BASE_URL"
	EnvBackend = "STOCK_METADATA_BACKEND"
	EnvRPM     = "STOCK_METADATA_RPM"
	EnvFFmpeg  = "FFMPEG_PATH"
	EnvFFprobe = "FFPROBE_PATH"
	EnvCacheDB = "STOCK_METADATA_CACHE_DB"
)

// RequiredEnvVars must be set before a run can start.
var RequiredEnvVars = []string{EnvAPIKey}

// Config is the runtime configuration.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Backend Backend
	// RequestsPerMinute feeds the quota limiter. Zero disables it.
	RequestsPerMinute int
	FFmpegPath        string
	FFprobePath       string
	CacheDB           string
}

// FromEnv reads the configuration from the process environment, applying
// defaults for everything optional. A missing API key is not an error here;
// see Missing.
func FromEnv() (*Config, error) {
	cfg := &Config{
		APIKey:            strings.TrimSpace(os.Getenv(EnvAPIKey)),
		Model:             envOr(EnvModel, llm.DefaultModel),
		BaseURL:           envOr(EnvBaseURL, llm.DefaultBaseURL),
		Backend:           Backend(strings.ToLower(envOr(EnvBackend, string(BackendREST)))),
		RequestsPerMinute: llm.DefaultRequestsPerMinute,
		FFmpegPath:        envOr(EnvFFmpeg, "ffmpeg"),
		FFprobePath:       envOr(EnvFFprobe, "ffprobe"),
		CacheDB:           envOr(EnvCacheDB, storage.MemoryPath),
	}

	var errs []error
	switch cfg.Backend {
	case BackendREST, BackendSDK:
	default:
		errs = append(errs, fmt.Errorf("%s must be %q or %q, got %q", EnvBackend, BackendREST, BackendSDK, cfg.Backend))
	}

	if v := strings.TrimSpace(os.Getenv(EnvRPM)); v != "" {
		rpm, err := strconv.Atoi(v)
		if err != nil || rpm < 0 {
			errs = append(errs, fmt.Errorf("%s must be a non-negative integer, got %q", EnvRPM, v))
		} else {
			cfg.RequestsPerMinute = rpm
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Missing returns the names of required variables that are not set.
func Missing() []string {
	var missing []string
	for _, v := range RequiredEnvVars {
		if strings.TrimSpace(os.Getenv(v)) == "" {
			missing = append(missing, v)
		}
	}
	return missing
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
