package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/raine/stock-metadata/internal/prompt"
	"gopkg.in/yaml.v3"
)

// Format is an options file format.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatOf infers the options file format from its extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported options file %q: use .toml, .yaml or .yml", path)
}

// LoadOptions reads analysis options from a TOML or YAML file. Fields the
// file does not set keep their default values.
func LoadOptions(path string) (prompt.Options, error) {
	format, err := FormatOf(path)
	if err != nil {
		return prompt.Options{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return prompt.Options{}, fmt.Errorf("failed to read options file: %w", err)
	}
	return ParseOptions(data, format)
}

// ParseOptions decodes options in the given format on top of the defaults,
// canonicalizes platform and mode names and validates the result.
func ParseOptions(data []byte, format Format) (prompt.Options, error) {
	opts := prompt.DefaultOptions()

	switch format {
	case FormatTOML:
		md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&opts)
		if err != nil {
			return prompt.Options{}, fmt.Errorf("failed to parse TOML options: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return prompt.Options{}, fmt.Errorf("unknown options: %v", undecoded)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
			return prompt.Options{}, fmt.Errorf("failed to parse YAML options: %w", err)
		}
	default:
		return prompt.Options{}, fmt.Errorf("unsupported options format %q", format)
	}

	opts = Canonicalize(opts)
	if err := opts.Validate(); err != nil {
		return prompt.Options{}, err
	}
	return opts, nil
}

// Canonicalize normalizes platform names and the mode spelling.
func Canonicalize(opts prompt.Options) prompt.Options {
	platforms := make([]prompt.Platform, 0, len(opts.Platforms))
	for _, p := range opts.Platforms {
		if strings.TrimSpace(string(p)) != "" {
			platforms = append(platforms, prompt.ParsePlatform(string(p)))
		}
	}
	opts.Platforms = platforms
	opts.Mode = ParseMode(string(opts.Mode))
	return opts
}

// ParseMode accepts "metadata" and "imageToPrompt" case-insensitively, with
// or without dashes. Other values are returned unchanged.
func ParseMode(s string) prompt.Mode {
	norm := strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(s))
	switch norm {
	case "", "metadata":
		return prompt.ModeMetadata
	case "imagetoprompt", "prompt":
		return prompt.ModeImageToPrompt
	}
	return prompt.Mode(s)
}
