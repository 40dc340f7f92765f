package prompt

import (
	"fmt"
	"strings"

	"github.com/lithammer/dedent"
	"github.com/raine/stock-metadata/internal/eps"
)

// VideoCategories lists the stock video categories; category N is
// VideoCategories[N-1].
var VideoCategories = []string{
	"Animals",
	"Buildings and Architecture",
	"Business",
	"Drinks",
	"The Environment",
	"States of Mind",
	"Food",
	"Graphic Resources",
	"Hobbies and Leisure",
	"Industry",
	"Landscapes",
	"Lifestyle",
	"People",
	"Plants and Flowers",
	"Culture and Religion",
	"Science",
	"Social Issues",
	"Sports",
	"Technology",
	"Transport",
	"Travel",
}

// FileContext describes the file a prompt is built for.
type FileContext struct {
	Name string
	Type FileType
	// EPS is the extracted metadata for EPS files.
	EPS *eps.Metadata
}

// Compose builds the prompt text: prohibited words, modifier directives, the
// custom or built-in instructions and finally the response format.
func Compose(fc FileContext, opts Options) string {
	var sections []string

	if words := opts.Prohibited(); len(words) > 0 {
		sections = append(sections, fmt.Sprintf(
			"Do not use any of these words in the title, description or keywords: %s.",
			strings.Join(words, ", ")))
	}

	if mods := opts.Modifiers(); len(mods) > 0 {
		var lines []string
		for _, m := range mods {
			for _, d := range m.Directives() {
				lines = append(lines, "- "+d)
			}
		}
		sections = append(sections, "Additional requirements:\n"+strings.Join(lines, "\n"))
	}

	if opts.UsesCustomPrompt() {
		sections = append(sections, strings.TrimSpace(opts.CustomPrompt))
	} else {
		sections = append(sections, builtinInstructions(fc, opts))
	}

	schema := ResolveSchema(opts.Mode, opts.Group(), fc.Type)
	sections = append(sections, responseFormat(schema))

	return strings.Join(sections, "\n\n")
}

func formatTemplate(text string, a ...any) string {
	return fmt.Sprintf(strings.TrimSpace(dedent.Dedent(text)), a...)
}

func builtinInstructions(fc FileContext, opts Options) string {
	if opts.Mode == ModeImageToPrompt {
		return formatTemplate(imageToPromptTemplate, subjectIntro(fc))
	}

	var sb strings.Builder
	sb.WriteString(subjectIntro(fc))
	sb.WriteString("\n\n")

	switch opts.Group() {
	case GroupFreepik:
		sb.WriteString(formatTemplate(freepikTemplate,
			opts.TitleWords.Min, opts.TitleWords.Max,
			opts.Keywords.Min, opts.Keywords.Max))
	case GroupShutterstock:
		sb.WriteString(formatTemplate(shutterstockTemplate,
			opts.DescriptionWords.Min, opts.DescriptionWords.Max,
			opts.Keywords.Min, opts.Keywords.Max))
	case GroupAdobeStock:
		sb.WriteString(formatTemplate(adobeStockTemplate,
			opts.TitleWords.Min, opts.TitleWords.Max,
			opts.Keywords.Min, opts.Keywords.Max))
	default:
		sb.WriteString(formatTemplate(genericTemplate,
			platformList(opts.Platforms),
			opts.TitleWords.Min, opts.TitleWords.Max,
			opts.DescriptionWords.Min, opts.DescriptionWords.Max,
			opts.Keywords.Min, opts.Keywords.Max))
	}

	if fc.Type == FileVideo {
		sb.WriteString("\n\n")
		sb.WriteString(videoCategoryInstructions())
	}
	return sb.String()
}

func subjectIntro(fc FileContext) string {
	switch fc.Type {
	case FileVideo:
		return fmt.Sprintf("The attached image is a thumbnail frame taken from the stock video %q. "+
			"Describe the video based on this thumbnail.", fc.Name)
	case FileEPS:
		return epsIntro(fc)
	}
	return "Analyze the attached image as a stock photo or illustration."
}

func epsIntro(fc FileContext) string {
	m := fc.EPS
	if m == nil {
		return fmt.Sprintf("The vector file %q cannot be shown as an image. "+
			"Its structure is described in the attached text report.", fc.Name)
	}

	dims := "unknown"
	if m.BoundingBox != nil {
		dims = fmt.Sprintf("%g x %g pt", m.BoundingBox.Width(), m.BoundingBox.Height())
	}
	return formatTemplate(epsIntroTemplate,
		fc.Name,
		m.DocumentType,
		valueOr(m.Title, "none"),
		valueOr(m.Creator, "unknown"),
		dims,
		m.ObjectCount,
		valueOr(strings.Join(m.ColorHints, ", "), "none detected"),
		valueOr(strings.Join(m.Fonts, ", "), "none detected"),
	)
}

func videoCategoryInstructions() string {
	var sb strings.Builder
	sb.WriteString("Also choose the single best matching category number for the video:\n")
	for i, name := range VideoCategories {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, name)
	}
	fmt.Fprintf(&sb, "Return it as \"category\", an integer from 1 to %d.", len(VideoCategories))
	return sb.String()
}

func responseFormat(schema ResponseSchema) string {
	fields := make([]string, 0, len(schema.Fields()))
	for _, f := range schema.Fields() {
		fields = append(fields, string(f))
	}
	return formatTemplate(responseFormatTemplate, strings.Join(fields, ", "), schema.Example())
}

func platformList(platforms []Platform) string {
	if len(platforms) == 0 {
		return "stock marketplaces"
	}
	names := make([]string, len(platforms))
	for i, p := range platforms {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}

func valueOr(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
