package eps

import (
	"errors"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	defaultDocumentType = "Vector Design"
	maxObjectCount      = 20
	// saveRestoreDivisor accounts for the several gsave/grestore pairs that
	// an illustration program typically emits for each visible object.
	saveRestoreDivisor = 3
	maxFonts           = 10
)

// BoundingBox is a DSC bounding box in PostScript points.
type BoundingBox struct {
	LLX, LLY, URX, URY float64
}

// Width returns the box width in points.
func (b BoundingBox) Width() float64 { return b.URX - b.LLX }

// Height returns the box height in points.
func (b BoundingBox) Height() float64 { return b.URY - b.LLY }

// Metadata is the structural data extracted from an EPS file.
type Metadata struct {
	Filename     string
	Title        string
	Creator      string
	CreationDate string
	BoundingBox  *BoundingBox
	DocumentType string
	ObjectCount  int
	Fonts        []string
	ColorHints   []string
	// Comments holds every DSC comment found, keyed as written.
	Comments map[string]string
	// Preview is the truncated, redacted program text.
	Preview string
}

// knownKeys are DSC keys that are mapped into dedicated Metadata fields and
// are therefore not repeated in the additional comments section.
var knownKeys = map[string]bool{
	"Title":            true,
	"Creator":          true,
	"Author":           true,
	"For":              true,
	"CreationDate":     true,
	"ModDate":          true,
	"BoundingBox":      true,
	"HiResBoundingBox": true,
}

// Analyze extracts metadata from the raw bytes of an EPS file.
func Analyze(filename string, data []byte) (*Metadata, error) {
	section, err := PostScriptSection(data)
	if err != nil {
		return nil, err
	}
	text := string(section)
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("empty PostScript content")
	}

	comments := ParseDSC(text)
	if len(comments) == 0 && !strings.Contains(text, "%!PS") {
		return nil, errors.New("no PostScript header or DSC comments found")
	}

	meta := &Metadata{
		Filename:     filepath.Base(filename),
		Title:        unquote(firstOf(comments, "Title")),
		Creator:      unquote(firstOf(comments, "Creator", "Author", "For")),
		CreationDate: unquote(firstOf(comments, "CreationDate", "ModDate")),
		DocumentType: InferDocumentType(filename),
		ObjectCount:  EstimateObjectCount(text),
		Fonts:        ExtractFonts(text, comments),
		ColorHints:   ExtractColorHints(text, comments),
		Comments:     comments,
		Preview:      ContentPreview(text, previewLimit),
	}

	for _, key := range []string{"BoundingBox", "HiResBoundingBox"} {
		if bb, ok := parseBoundingBox(comments[key]); ok {
			meta.BoundingBox = &bb
			break
		}
	}

	return meta, nil
}

func firstOf(comments map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(comments[k]); v != "" && v != "(atend)" {
			return v
		}
	}
	return ""
}

func parseBoundingBox(value string) (BoundingBox, bool) {
	fields := strings.Fields(value)
	if len(fields) != 4 {
		return BoundingBox{}, false
	}
	var nums [4]float64
	for i, f := range fields {
		n, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return BoundingBox{}, false
		}
		nums[i] = n
	}
	return BoundingBox{LLX: nums[0], LLY: nums[1], URX: nums[2], URY: nums[3]}, true
}

// documentTypes is matched in order against the lower-cased file name; the
// first hit wins.
var documentTypes = []struct {
	keyword string
	label   string
}{
	{"icon", "Icon Set"},
	{"logo", "Logo Design"},
	{"pattern", "Seamless Pattern"},
	{"banner", "Banner Design"},
	{"background", "Background Design"},
	{"infographic", "Infographic"},
	{"illustration", "Illustration"},
	{"poster", "Poster Design"},
	{"flyer", "Flyer Design"},
	{"card", "Card Design"},
	{"badge", "Badge Design"},
	{"sticker", "Sticker Design"},
	{"label", "Label Design"},
	{"frame", "Frame Design"},
	{"texture", "Texture"},
	{"character", "Character Design"},
	{"map", "Map Illustration"},
}

// InferDocumentType guesses a human document type label from keywords in the
// file name, defaulting to "Vector Design".
func InferDocumentType(filename string) string {
	name := strings.ToLower(filepath.Base(filename))
	for _, dt := range documentTypes {
		if strings.Contains(name, dt.keyword) {
			return dt.label
		}
	}
	return defaultDocumentType
}

var (
	pageMarker    = regexp.MustCompile(`(?m)^%%Page:`)
	gsaveToken    = regexp.MustCompile(`\bgsave\b`)
	grestoreToken = regexp.MustCompile(`\bgrestore\b`)
)

// EstimateObjectCount estimates how many images or objects the file holds.
// Page markers are used when present. Otherwise paired gsave/grestore
// operators are counted, divided by three and capped at 20. The result is
// never below one.
func EstimateObjectCount(text string) int {
	if pages := len(pageMarker.FindAllStringIndex(text, -1)); pages > 0 {
		return pages
	}

	saves := len(gsaveToken.FindAllStringIndex(text, -1))
	restores := len(grestoreToken.FindAllStringIndex(text, -1))
	pairs := min(saves, restores)

	count := pairs / saveRestoreDivisor
	if count > maxObjectCount {
		count = maxObjectCount
	}
	if count < 1 {
		count = 1
	}
	return count
}

// fontSelection matches a literal font name immediately followed by a font
// selection operator, e.g. `/Helvetica-Bold findfont`.
var fontSelection = regexp.MustCompile(`/([A-Za-z][A-Za-z0-9\-_+]*)\s+(?:\d+(?:\.\d+)?\s+)?(?:findfont|selectfont|scalefont)\b`)

// ExtractFonts returns up to ten distinct font names declared in DSC
// comments or selected in the program text, in order of first appearance.
func ExtractFonts(text string, comments map[string]string) []string {
	var fonts []string
	seen := make(map[string]bool)
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" || name == "(atend)" || seen[name] || len(fonts) >= maxFonts {
			return
		}
		seen[name] = true
		fonts = append(fonts, name)
	}

	for _, key := range []string{"DocumentFonts", "DocumentNeededFonts", "DocumentSuppliedFonts"} {
		for _, f := range strings.Fields(comments[key]) {
			add(f)
		}
	}
	for _, key := range []string{"DocumentNeededResources", "DocumentSuppliedResources"} {
		fields := strings.Fields(comments[key])
		for i := 0; i+1 < len(fields); i++ {
			if fields[i] == "font" {
				add(fields[i+1])
			}
		}
	}

	for _, m := range fontSelection.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}

	return fonts
}

var colorPatterns = []struct {
	label   string
	pattern *regexp.Regexp
}{
	{"CMYK", regexp.MustCompile(`(?m)\bsetcmykcolor\b|(?:^|\s)(?:\d*\.?\d+\s+){4}[kK]\s*$`)},
	{"RGB", regexp.MustCompile(`(?m)\bsetrgbcolor\b|(?:^|\s)(?:\d*\.?\d+\s+){3}(?:Xa|XA)\s*$`)},
	{"Grayscale", regexp.MustCompile(`(?m)\bsetgray\b|(?:^|\s)\d*\.?\d+\s+[gG]\s*$`)},
}

var namedColorMarkers = []string{"findcmykcustomcolor", "setcustomcolor", "PANTONE", "/Separation"}

// ExtractColorHints reports which color models the program appears to use.
func ExtractColorHints(text string, comments map[string]string) []string {
	var hints []string
	for _, cp := range colorPatterns {
		if cp.pattern.MatchString(text) {
			hints = append(hints, cp.label)
		}
	}

	named := comments["DocumentCustomColors"] != "" || comments["CMYKCustomColor"] != ""
	for _, marker := range namedColorMarkers {
		if named {
			break
		}
		named = strings.Contains(text, marker)
	}
	if named {
		hints = append(hints, "Named/Spot colors")
	}

	if process := strings.ToLower(comments["DocumentProcessColors"]); process != "" && len(hints) == 0 {
		if strings.Contains(process, "cyan") || strings.Contains(process, "black") {
			hints = append(hints, "CMYK")
		}
	}

	return hints
}

// extraComments returns the DSC comments that are not mapped into dedicated
// fields, sorted by key.
func (m *Metadata) extraComments() []string {
	var keys []string
	for k, v := range m.Comments {
		if knownKeys[k] || v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
