package llm

import (
	"strings"
	"unicode"
)

// SanitizeTitle strips everything but letters, digits and whitespace,
// collapses whitespace and capitalizes only the first letter. It is
// idempotent.
func SanitizeTitle(title string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return r
		case unicode.IsSpace(r):
			return ' '
		}
		return -1
	}, title)

	cleaned = strings.ToLower(strings.Join(strings.Fields(cleaned), " "))
	if cleaned == "" {
		return ""
	}
	runes := []rune(cleaned)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
