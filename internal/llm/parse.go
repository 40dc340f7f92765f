package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/raine/stock-metadata/internal/prompt"
)

// Parsed is the structured content of a model response.
type Parsed struct {
	Title       string
	Description string
	Prompt      string
	Keywords    []string
	// Category is the model's numeric category claim, 0 when absent.
	Category int
}

var (
	fencedJSON    = regexp.MustCompile("(?s)```json\\s*(.*?)```")
	fencedAny     = regexp.MustCompile("(?s)```[A-Za-z0-9_-]*\\s*(.*?)```")
	greedyObject  = regexp.MustCompile(`(?s)\{.*\}`)
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
)

// extractJSONObject locates the JSON object in model output: a ```json
// fence, then any fence, then the outermost braces. Leading text before the
// first `{` and trailing text after the last `}` are stripped.
func extractJSONObject(text string) (string, error) {
	text = strings.TrimSpace(text)

	var candidate string
	for _, re := range []*regexp.Regexp{fencedJSON, fencedAny} {
		if m := re.FindStringSubmatch(text); m != nil && strings.Contains(m[1], "{") {
			candidate = m[1]
			break
		}
	}
	if candidate == "" {
		candidate = greedyObject.FindString(text)
	}

	start := strings.Index(candidate, "{")
	end := strings.LastIndex(candidate, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in response: %s", truncate(text, 200))
	}
	return candidate[start : end+1], nil
}

// ParseResponse decodes the model output according to schema. Fields outside
// the schema are ignored. The title is always sanitized.
func ParseResponse(raw string, schema prompt.ResponseSchema) (*Parsed, error) {
	jsonStr, err := extractJSONObject(raw)
	if err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(jsonStr), &fields); err != nil {
		repaired := trailingComma.ReplaceAllString(jsonStr, "$1")
		if err2 := json.Unmarshal([]byte(repaired), &fields); err2 != nil {
			return nil, &ParseError{Raw: raw, Err: fmt.Errorf("%w (response: %s)", err, truncate(jsonStr, 200))}
		}
	}

	found := false
	for _, f := range schema.Fields() {
		if _, ok := fields[string(f)]; ok {
			found = true
			break
		}
	}
	if !found {
		return nil, &ParseError{Raw: raw, Err: fmt.Errorf("response has none of the fields %v", schema.Fields())}
	}

	p := &Parsed{}
	if schema.Has(prompt.FieldTitle) {
		p.Title = SanitizeTitle(decodeString(fields["title"]))
	}
	if schema.Has(prompt.FieldDescription) {
		p.Description = strings.TrimSpace(decodeString(fields["description"]))
	}
	if schema.Has(prompt.FieldPrompt) {
		p.Prompt = strings.TrimSpace(decodeString(fields["prompt"]))
	}
	if schema.Has(prompt.FieldKeywords) {
		p.Keywords = decodeKeywords(fields["keywords"])
	}
	if schema.Has(prompt.FieldCategory) {
		p.Category = decodeInt(fields["category"])
	}
	return p, nil
}

func decodeString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, " ")
	}
	return ""
}

// decodeKeywords accepts a JSON array of strings or a comma separated string.
func decodeKeywords(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		items = nil
		if s := decodeString(raw); s != "" {
			for _, part := range strings.Split(s, ",") {
				items = append(items, part)
			}
		}
	}

	keywords := make([]string, 0, len(items))
	for _, item := range items {
		var kw string
		switch v := item.(type) {
		case string:
			kw = v
		case float64:
			kw = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			continue
		}
		if kw = strings.TrimSpace(kw); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return keywords
}

func decodeInt(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return int(n)
	}
	s := strings.TrimSpace(decodeString(raw))
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	return 0
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// IsParseError reports whether err is a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
