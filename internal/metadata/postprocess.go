// Package metadata turns parsed model output into final stock metadata:
// content modifiers, keyword shaping, prohibited words and categories.
package metadata

import (
	"strings"

	"github.com/raine/stock-metadata/internal/prompt"
)

// FreepikBaseModel is the base-model tag attached to Freepik results.
const FreepikBaseModel = "Midjourney 6"

// Metadata is the mutable working copy the post processor rewrites.
type Metadata struct {
	Title       string
	Description string
	Prompt      string
	Keywords    []string
	// Category is the video category (1-21), 0 for non-video files.
	Category   int
	Categories []string
	BaseModel  string
}

// PostProcessor applies the ordered post-processing stages for one set of
// options.
type PostProcessor struct {
	opts prompt.Options
}

func NewPostProcessor(opts prompt.Options) *PostProcessor {
	return &PostProcessor{opts: opts}
}

// Apply runs, in order: content modifiers, single-word keyword expansion,
// keyword backfill, prohibited-word filtering and platform enrichment. The
// input is not modified.
func (p *PostProcessor) Apply(in Metadata, fileType prompt.FileType) Metadata {
	m := in
	m.Keywords = append([]string(nil), in.Keywords...)
	m.Categories = append([]string(nil), in.Categories...)

	if p.opts.Mode == prompt.ModeImageToPrompt {
		m.Prompt = strings.TrimSpace(m.Prompt)
		return m
	}

	p.applyModifiers(&m)

	if p.opts.SingleWordKeywords {
		m.Keywords = SplitSingleWords(m.Keywords, p.opts.Keywords.Max)
	}

	m.Keywords = Dedupe(m.Keywords)
	if len(m.Keywords) < p.opts.Keywords.Min && p.backfillAllowed() {
		m.Keywords = merge(m.Keywords, p.candidates(m), p.opts.Keywords.Max)
	}

	if prohibited := p.opts.Prohibited(); len(prohibited) > 0 {
		m.Keywords = FilterProhibited(m.Keywords, prohibited)
		if len(m.Keywords) < p.opts.Keywords.Min {
			extra := FilterProhibited(p.candidates(m), prohibited)
			m.Keywords = merge(m.Keywords, extra, p.opts.Keywords.Max)
		}
	}

	p.enrich(&m, fileType)

	m.Keywords = capKeywords(Dedupe(m.Keywords), p.opts.Keywords.Max)
	return m
}

func (p *PostProcessor) applyModifiers(m *Metadata) {
	for _, mod := range p.opts.Modifiers() {
		if m.Title != "" && mod.TitleSuffix != "" && !containsFold(m.Title, mod.TitleSuffix) {
			m.Title = strings.TrimSpace(m.Title) + " " + mod.TitleSuffix
		}
		if mod.Keyword != "" && !hasKeyword(m.Keywords, mod.Keyword) {
			m.Keywords = append(m.Keywords, mod.Keyword)
		}
		if m.Description != "" && mod.DescriptionAddendum != "" && !containsFold(m.Description, mod.Keyword) {
			m.Description = strings.TrimSpace(m.Description) + " " + mod.DescriptionAddendum
		}
	}
}

// backfillAllowed is true with a custom prompt or a generic platform group;
// single-platform templates are trusted to return enough keywords.
func (p *PostProcessor) backfillAllowed() bool {
	return p.opts.CustomPromptEnabled || p.opts.Group() == prompt.GroupGeneric
}

func (p *PostProcessor) candidates(m Metadata) []string {
	text := strings.Join([]string{m.Title, m.Description, strings.Join(m.Keywords, " ")}, " ")
	return ExtractKeywords(text)
}

func (p *PostProcessor) enrich(m *Metadata, fileType prompt.FileType) {
	switch group := p.opts.Group(); group {
	case prompt.GroupFreepik:
		m.BaseModel = FreepikBaseModel
		if len(m.Keywords) < p.opts.Keywords.Min && strings.TrimSpace(m.Prompt) != "" {
			regenerated := FilterProhibited(ExtractKeywords(m.Prompt), p.opts.Prohibited())
			if len(regenerated) > len(m.Keywords) {
				m.Keywords = capKeywords(regenerated, p.opts.Keywords.Max)
			}
		}
	case prompt.GroupShutterstock, prompt.GroupAdobeStock:
		m.Categories = SuggestCategories(group, m.Title+" "+m.Description, m.Keywords)
	}

	if fileType == prompt.FileVideo {
		m.Category = ResolveVideoCategory(m.Category, m.Title, m.Description, m.Keywords)
	} else {
		m.Category = 0
	}
}
