package metadata

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const maxExtractedKeywords = 50

var stopwords = makeSet(
	"a", "about", "above", "after", "again", "against", "all", "also", "am", "an", "and", "any", "are", "as", "at",
	"be", "because", "been", "before", "being", "below", "between", "both", "but", "by",
	"can", "could", "did", "do", "does", "doing", "down", "during",
	"each", "few", "for", "from", "further",
	"had", "has", "have", "having", "he", "her", "here", "hers", "herself", "him", "himself", "his", "how",
	"i", "if", "in", "into", "is", "it", "its", "itself", "just",
	"me", "more", "most", "my", "myself",
	"no", "nor", "not", "now", "of", "off", "on", "once", "only", "or", "other", "our", "ours", "ourselves", "out", "over", "own",
	"same", "she", "should", "so", "some", "such",
	"than", "that", "the", "their", "theirs", "them", "themselves", "then", "there", "these", "they", "this", "those", "through", "to", "too",
	"under", "until", "up", "very",
	"was", "we", "were", "what", "when", "where", "which", "while", "who", "whom", "why", "will", "with", "would",
	"you", "your", "yours", "yourself", "yourselves",
	"image", "photo", "picture", "shows", "showing", "featuring", "features", "stock", "various",
)

func makeSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// ExtractKeywords returns up to 50 unique lower-case tokens from text that
// are longer than two characters and not stopwords, in order of appearance.
func ExtractKeywords(text string) []string {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var out []string
	seen := make(map[string]bool)
	for _, tok := range tokens {
		if utf8.RuneCountInString(tok) <= 2 || stopwords[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
		if len(out) == maxExtractedKeywords {
			break
		}
	}
	return out
}

// Dedupe removes empty and case-insensitively repeated keywords, keeping the
// first occurrence.
func Dedupe(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	seen := make(map[string]bool, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		key := strings.ToLower(kw)
		if kw == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, kw)
	}
	return out
}

// SplitSingleWords splits every keyword on whitespace and returns up to limit
// unique tokens in order of first occurrence.
func SplitSingleWords(keywords []string, limit int) []string {
	var tokens []string
	for _, kw := range keywords {
		for _, tok := range strings.Fields(kw) {
			tok = strings.TrimFunc(tok, func(r rune) bool {
				return !unicode.IsLetter(r) && !unicode.IsDigit(r)
			})
			if tok != "" {
				tokens = append(tokens, strings.ToLower(tok))
			}
		}
	}
	return capKeywords(Dedupe(tokens), limit)
}

// merge appends candidates that are not yet present until limit is reached.
func merge(keywords, candidates []string, limit int) []string {
	out := Dedupe(keywords)
	seen := make(map[string]bool, len(out))
	for _, kw := range out {
		seen[strings.ToLower(kw)] = true
	}
	for _, c := range candidates {
		if len(out) >= limit {
			break
		}
		key := strings.ToLower(strings.TrimSpace(c))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, strings.TrimSpace(c))
	}
	return out
}

// FilterProhibited drops keywords containing any prohibited word,
// case-insensitively.
func FilterProhibited(keywords, prohibited []string) []string {
	if len(prohibited) == 0 {
		return keywords
	}
	lowered := make([]string, 0, len(prohibited))
	for _, p := range prohibited {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			lowered = append(lowered, p)
		}
	}

	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		lk := strings.ToLower(kw)
		banned := false
		for _, p := range lowered {
			if strings.Contains(lk, p) {
				banned = true
				break
			}
		}
		if !banned {
			out = append(out, kw)
		}
	}
	return out
}

func capKeywords(keywords []string, limit int) []string {
	if limit > 0 && len(keywords) > limit {
		return keywords[:limit]
	}
	return keywords
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func hasKeyword(keywords []string, kw string) bool {
	for _, k := range keywords {
		if strings.EqualFold(strings.TrimSpace(k), kw) {
			return true
		}
	}
	return false
}
