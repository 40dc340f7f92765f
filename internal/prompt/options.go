// Package prompt holds the analysis options and builds the instruction text
// sent to the vision model.
package prompt

import (
	"errors"
	"fmt"
	"strings"
)

// Platform is a target stock marketplace.
type Platform string

const (
	AdobeStock    Platform = "AdobeStock"
	Shutterstock  Platform = "Shutterstock"
	Freepik       Platform = "Freepik"
	Dreamstime    Platform = "Dreamstime"
	Depositphotos Platform = "Depositphotos"
	Vecteezy      Platform = "Vecteezy"
	Canva         Platform = "Canva"
	RF123         Platform = "123RF"
	Pond5         Platform = "Pond5"
)

var knownPlatforms = []Platform{AdobeStock, Shutterstock, Freepik, Dreamstime, Depositphotos, Vecteezy, Canva, RF123, Pond5}

// ParsePlatform canonicalizes a platform name case-insensitively. Unknown
// names are kept as given and are treated as generic platforms.
func ParsePlatform(s string) Platform {
	s = strings.TrimSpace(s)
	norm := strings.ToLower(strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s))
	for _, p := range knownPlatforms {
		if strings.ToLower(string(p)) == norm {
			return p
		}
	}
	return Platform(s)
}

// Mode selects what the model is asked to generate.
type Mode string

const (
	ModeMetadata      Mode = "metadata"
	ModeImageToPrompt Mode = "imageToPrompt"
)

// FileType is the prompt-relevant kind of the analysed file.
type FileType int

const (
	FileImage FileType = iota
	FileVideo
	FileEPS
)

func (t FileType) String() string {
	switch t {
	case FileVideo:
		return "video"
	case FileEPS:
		return "eps"
	default:
		return "image"
	}
}

// PlatformGroup is the field-set family a platform selection maps to.
type PlatformGroup int

const (
	GroupGeneric PlatformGroup = iota
	GroupFreepik
	GroupShutterstock
	GroupAdobeStock
)

func (g PlatformGroup) String() string {
	switch g {
	case GroupFreepik:
		return "Freepik"
	case GroupShutterstock:
		return "Shutterstock"
	case GroupAdobeStock:
		return "AdobeStock"
	default:
		return "generic"
	}
}

// GroupOf maps a platform selection to its group. Only a single Freepik,
// Shutterstock or AdobeStock selection gets a dedicated group.
func GroupOf(platforms []Platform) PlatformGroup {
	if len(platforms) != 1 {
		return GroupGeneric
	}
	switch platforms[0] {
	case Freepik:
		return GroupFreepik
	case Shutterstock:
		return GroupShutterstock
	case AdobeStock:
		return GroupAdobeStock
	}
	return GroupGeneric
}

// Bounds is an inclusive min/max pair.
type Bounds struct {
	Min int `toml:"min" yaml:"min" json:"min"`
	Max int `toml:"max" yaml:"max" json:"max"`
}

func (b Bounds) validate(name string) error {
	if b.Max <= 0 {
		return fmt.Errorf("%s: max must be positive", name)
	}
	if b.Min < 0 || b.Min > b.Max {
		return fmt.Errorf("%s: min %d must be between 0 and max %d", name, b.Min, b.Max)
	}
	return nil
}

// Options is the per-run analysis configuration. It is treated as an
// immutable value once a run starts.
type Options struct {
	Platforms []Platform `toml:"platforms" yaml:"platforms" json:"platforms"`
	Mode      Mode       `toml:"mode" yaml:"mode" json:"mode"`

	TitleWords       Bounds `toml:"title_words" yaml:"title_words" json:"titleWords"`
	Keywords         Bounds `toml:"keywords" yaml:"keywords" json:"keywords"`
	DescriptionWords Bounds `toml:"description_words" yaml:"description_words" json:"descriptionWords"`

	CustomPromptEnabled bool   `toml:"custom_prompt_enabled" yaml:"custom_prompt_enabled" json:"customPromptEnabled"`
	CustomPrompt        string `toml:"custom_prompt" yaml:"custom_prompt" json:"customPrompt"`

	ProhibitedWordsEnabled bool     `toml:"prohibited_words_enabled" yaml:"prohibited_words_enabled" json:"prohibitedWordsEnabled"`
	ProhibitedWords        []string `toml:"prohibited_words" yaml:"prohibited_words" json:"prohibitedWords"`

	WhiteBackground       bool `toml:"white_background" yaml:"white_background" json:"whiteBackground"`
	TransparentBackground bool `toml:"transparent_background" yaml:"transparent_background" json:"transparentBackground"`
	Silhouette            bool `toml:"silhouette" yaml:"silhouette" json:"silhouette"`

	SingleWordKeywords bool `toml:"single_word_keywords" yaml:"single_word_keywords" json:"singleWordKeywords"`
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Platforms:        []Platform{AdobeStock},
		Mode:             ModeMetadata,
		TitleWords:       Bounds{Min: 5, Max: 15},
		Keywords:         Bounds{Min: 25, Max: 49},
		DescriptionWords: Bounds{Min: 10, Max: 30},
	}
}

// Validate rejects inconsistent options.
func (o Options) Validate() error {
	var errs []error
	switch o.Mode {
	case ModeMetadata, ModeImageToPrompt:
	default:
		errs = append(errs, fmt.Errorf("unknown mode %q", o.Mode))
	}
	if len(o.Platforms) == 0 {
		errs = append(errs, errors.New("at least one platform is required"))
	}
	for _, b := range []struct {
		name string
		b    Bounds
	}{
		{"title_words", o.TitleWords},
		{"keywords", o.Keywords},
		{"description_words", o.DescriptionWords},
	} {
		if err := b.b.validate(b.name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Group returns the platform group of the selected platforms.
func (o Options) Group() PlatformGroup {
	return GroupOf(o.Platforms)
}

// UsesCustomPrompt reports whether the custom prompt replaces the built-in
// template.
func (o Options) UsesCustomPrompt() bool {
	return o.CustomPromptEnabled && strings.TrimSpace(o.CustomPrompt) != ""
}

// Prohibited returns the cleaned prohibited word list, or nil when the
// feature is disabled.
func (o Options) Prohibited() []string {
	if !o.ProhibitedWordsEnabled {
		return nil
	}
	var words []string
	for _, w := range o.ProhibitedWords {
		for _, part := range strings.Split(w, ",") {
			if part = strings.TrimSpace(part); part != "" {
				words = append(words, part)
			}
		}
	}
	return words
}

// Modifiers returns the enabled content modifiers in their fixed order.
func (o Options) Modifiers() ContentModifiers {
	var mods ContentModifiers
	if o.WhiteBackground {
		mods = append(mods, WhiteBackgroundModifier)
	}
	if o.TransparentBackground {
		mods = append(mods, TransparentBackgroundModifier)
	}
	if o.Silhouette {
		mods = append(mods, SilhouetteModifier)
	}
	return mods
}
