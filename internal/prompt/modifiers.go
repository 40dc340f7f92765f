package prompt

import "fmt"

// ModifierKind identifies a content modifier.
type ModifierKind int

const (
	ModifierWhiteBackground ModifierKind = iota
	ModifierTransparentBackground
	ModifierSilhouette
)

// Modifier is a fixed annotation rule applied to the prompt and, after the
// model responds, to the result.
type Modifier struct {
	Kind ModifierKind
	// TitleSuffix is appended to the title when not already present.
	TitleSuffix string
	// Keyword is added to the keyword list when missing.
	Keyword string
	// Mention is what the prompt asks the description to mention.
	Mention string
	// DescriptionAddendum is appended to the description when Keyword does
	// not appear in it. Empty means the description is left alone.
	DescriptionAddendum string
}

// ContentModifiers is the ordered set of enabled modifiers.
type ContentModifiers []Modifier

var (
	WhiteBackgroundModifier = Modifier{
		Kind:        ModifierWhiteBackground,
		TitleSuffix: "on white background",
		Keyword:     "white background",
		Mention:     "the subject is isolated on a white background",
	}
	TransparentBackgroundModifier = Modifier{
		Kind:        ModifierTransparentBackground,
		TitleSuffix: "on transparent background",
		Keyword:     "transparent background",
		Mention:     "the subject is isolated on a transparent background",
	}
	SilhouetteModifier = Modifier{
		Kind:                ModifierSilhouette,
		TitleSuffix:         "silhouette",
		Keyword:             "silhouette",
		Mention:             "the subject is shown as a silhouette",
		DescriptionAddendum: "The image features a silhouette design.",
	}
)

// Directives returns the three prompt instructions for the modifier.
func (m Modifier) Directives() []string {
	return []string{
		fmt.Sprintf("Add %q at the end of the title.", m.TitleSuffix),
		fmt.Sprintf("Include %q as one of the keywords.", m.Keyword),
		fmt.Sprintf("Mention in the description that %s.", m.Mention),
	}
}
