package eps

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleEPS = `%!PS-Adobe-3.0 EPSF-3.0
%%Title: Company Logo
%%Creator: Adobe Illustrator(R) 24.0
%%CreationDate: 2/14/2024 10:21 AM
%%BoundingBox: 0 0 512 256
%%HiResBoundingBox: 0 0 512.25 256.5
%%DocumentFonts: Helvetica-Bold
%%+ Times-Roman
%%DocumentProcessColors: Cyan Magenta Yellow Black
%%LanguageLevel: 2
%%EndComments
%%BeginProlog
/Helvetica-Bold findfont 24 scalefont setfont
/Futura-Medium 12 selectfont
%%EndProlog
gsave
0.1 0.2 0.3 0.4 setcmykcolor
newpath 10 10 moveto 100 100 lineto stroke
grestore
gsave grestore gsave grestore
%%BeginData: 10 Hex Bytes
0011223344
%%EndData
%%Trailer
%%EOF
`

func TestParseDSC_WellKnownKeys(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		input string
		want  string
	}{
		{"title", "Title", "%%Title: Company Logo", "Company Logo"},
		{"creator", "Creator", "%%Creator: Adobe Illustrator", "Adobe Illustrator"},
		{"author", "Author", "%%Author: Jane", "Jane"},
		{"creation date", "CreationDate", "%%CreationDate: 2024-01-01", "2024-01-01"},
		{"mod date", "ModDate", "%%ModDate: 2024-02-02", "2024-02-02"},
		{"bounding box", "BoundingBox", "%%BoundingBox: 0 0 100 200", "0 0 100 200"},
		{"key without value", "EndComments", "%%EndComments", ""},
		{"no space after colon", "Pages", "%%Pages:1", "1"},
		{"trailing whitespace", "Title", "%%Title: Spaced   ", "Spaced"},
		{"crlf line endings", "Title", "%%Title: Windows\r\n", "Windows"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDSC(tt.input)
			value, ok := got[tt.key]
			assert.True(t, ok, "key %q not parsed", tt.key)
			assert.Equal(t, tt.want, value)
		})
	}
}

func TestParseDSC_IgnoresNonCommentLines(t *testing.T) {
	got := ParseDSC("%!PS-Adobe-3.0\n% plain comment\nnewpath\n  %%Indented: no\n")
	assert.Empty(t, got)
}

func TestParseDSC_AtendReplacedByTrailerValue(t *testing.T) {
	got := ParseDSC("%%BoundingBox: (atend)\n%%Trailer\n%%BoundingBox: 1 2 3 4\n")
	assert.Equal(t, "1 2 3 4", got["BoundingBox"])
}

func TestParseDSC_TrailerAfterLongLine(t *testing.T) {
	text := "%!PS-Adobe-3.0 EPSF-3.0\n%%BoundingBox: (atend)\n" +
		strings.Repeat("A", 2*1024*1024) + "\n" +
		"%%Trailer\n%%BoundingBox: 0 0 100 50\n%%EOF\n"

	got := ParseDSC(text)
	assert.Equal(t, "0 0 100 50", got["BoundingBox"])
	assert.Contains(t, got, "EOF")

	meta, err := Analyze("long.eps", []byte(text))
	require.NoError(t, err)
	require.NotNil(t, meta.BoundingBox)
	assert.Equal(t, 100.0, meta.BoundingBox.Width())
	assert.Equal(t, 50.0, meta.BoundingBox.Height())
}

func TestParseDSC_FirstOccurrenceWins(t *testing.T) {
	got := ParseDSC("%%Title: First\n%%Title: Second\n")
	assert.Equal(t, "First", got["Title"])
}

func TestParseDSC_ContinuationLines(t *testing.T) {
	got := ParseDSC("%%DocumentFonts: Helvetica\n%%+ Courier\n")
	assert.Equal(t, "Helvetica Courier", got["DocumentFonts"])
}

func TestInferDocumentType(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"logo-icon-set.eps", "Icon Set"},
		{"company-logo.eps", "Logo Design"},
		{"floral_PATTERN.eps", "Seamless Pattern"},
		{"web-banner.eps", "Banner Design"},
		{"/tmp/uploads/abstract-background.eps", "Background Design"},
		{"untitled.eps", "Vector Design"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, InferDocumentType(tt.filename))
		})
	}
}

func TestEstimateObjectCount(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"page markers", "%%Page: 1 1\n%%Page: 2 2\n%%Page: 3 3\n", 3},
		{"no markers", "newpath stroke", 1},
		{"save restore pairs", strings.Repeat("gsave grestore\n", 9), 3},
		{"unbalanced pairs use the smaller count", strings.Repeat("gsave\n", 30) + strings.Repeat("grestore\n", 6), 2},
		{"capped at twenty", strings.Repeat("gsave grestore\n", 300), 20},
		{"operators inside names are ignored", "/mygsavething /grestorex", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateObjectCount(tt.text))
		})
	}
}

func TestExtractFonts(t *testing.T) {
	comments := ParseDSC(sampleEPS)
	fonts := ExtractFonts(sampleEPS, comments)
	assert.Equal(t, []string{"Helvetica-Bold", "Times-Roman", "Futura-Medium"}, fonts)
}

func TestExtractFonts_NeededResources(t *testing.T) {
	text := "%%DocumentNeededResources: font Myriad-Pro procset Adobe_level2 font Arial\n"
	assert.Equal(t, []string{"Myriad-Pro", "Arial"}, ExtractFonts(text, ParseDSC(text)))
}

func TestExtractColorHints(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"cmyk operator", "0 0 0 1 setcmykcolor", []string{"CMYK"}},
		{"illustrator cmyk shorthand", "0 0.5 1 0 k\n", []string{"CMYK"}},
		{"rgb operator", "1 0 0 setrgbcolor", []string{"RGB"}},
		{"gray", "0.5 setgray", []string{"Grayscale"}},
		{"named colors", "(PANTONE 185 C) 0 0.9 0.8 0 findcmykcustomcolor", []string{"Named/Spot colors"}},
		{"nothing", "newpath stroke", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractColorHints(tt.text, ParseDSC(tt.text)))
		})
	}
}

func TestAnalyze(t *testing.T) {
	meta, err := Analyze("uploads/logo-icon-set.eps", []byte(sampleEPS))
	require.NoError(t, err)

	assert.Equal(t, "logo-icon-set.eps", meta.Filename)
	assert.Equal(t, "Company Logo", meta.Title)
	assert.Equal(t, "Adobe Illustrator(R) 24.0", meta.Creator)
	assert.Equal(t, "2/14/2024 10:21 AM", meta.CreationDate)
	assert.Equal(t, "Icon Set", meta.DocumentType)
	require.NotNil(t, meta.BoundingBox)
	assert.Equal(t, 512.0, meta.BoundingBox.Width())
	assert.Equal(t, 256.0, meta.BoundingBox.Height())
	assert.Equal(t, 1, meta.ObjectCount)
	assert.Contains(t, meta.ColorHints, "CMYK")
}

func TestAnalyze_LogoIconSetFilename(t *testing.T) {
	meta, err := Analyze("logo-icon-set.eps", []byte("%%Title: Company Logo\n"))
	require.NoError(t, err)
	assert.Equal(t, "Icon Set", meta.DocumentType)
	assert.Equal(t, "Company Logo", meta.Title)
}

func TestAnalyze_QuotedTitle(t *testing.T) {
	meta, err := Analyze("x.eps", []byte("%!PS\n%%Title: (Sunset Scene)\n"))
	require.NoError(t, err)
	assert.Equal(t, "Sunset Scene", meta.Title)
}

func TestAnalyze_HiResBoundingBoxFallback(t *testing.T) {
	meta, err := Analyze("x.eps", []byte("%!PS\n%%BoundingBox: (atend)\n%%HiResBoundingBox: 0 0 10.5 20\n"))
	require.NoError(t, err)
	require.NotNil(t, meta.BoundingBox)
	assert.Equal(t, 10.5, meta.BoundingBox.Width())
}

func TestAnalyze_Errors(t *testing.T) {
	_, err := Analyze("empty.eps", []byte("   \n"))
	assert.Error(t, err)

	_, err = Analyze("binary.eps", []byte{0x00, 0x01, 0x02, 0x03})
	assert.Error(t, err)
}

func TestPostScriptSection_DOSBinaryHeader(t *testing.T) {
	ps := []byte("%!PS-Adobe-3.0 EPSF-3.0\n%%Title: Wrapped\n")
	header := make([]byte, 30)
	copy(header, dosEPSMagic)
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(header)))
	binary.LittleEndian.PutUint32(header[8:12], uint32(len(ps)))
	data := append(header, ps...)
	data = append(data, []byte("TIFFPREVIEW")...)

	assert.True(t, HasBinaryHeader(data))
	section, err := PostScriptSection(data)
	require.NoError(t, err)
	assert.Equal(t, ps, section)

	meta, err := Analyze("wrapped.eps", data)
	require.NoError(t, err)
	assert.Equal(t, "Wrapped", meta.Title)
}

func TestPostScriptSection_BadOffsets(t *testing.T) {
	header := make([]byte, 12)
	copy(header, dosEPSMagic)
	binary.LittleEndian.PutUint32(header[4:8], 100)
	binary.LittleEndian.PutUint32(header[8:12], 100)

	_, err := PostScriptSection(header)
	assert.Error(t, err)
}

func TestContentPreview_RedactsAndTruncates(t *testing.T) {
	text := "%%Title: X\nnewpath\n" + strings.Repeat("0123456789ABCDEF", 8) + "\n<~9jqo^BlbD-BleB1DJ+*+F(f,q~>\nstroke\n"
	preview := ContentPreview(text, 1500)
	assert.NotContains(t, preview, "%%Title")
	assert.NotContains(t, preview, "0123456789ABCDEF0123")
	assert.Contains(t, preview, "[hex data removed]")
	assert.Contains(t, preview, "[encoded data removed]")
	assert.Contains(t, preview, "newpath")

	long := ContentPreview(strings.Repeat("moveto ", 1000), 1500)
	assert.True(t, strings.HasSuffix(long, "[... truncated]"))
	assert.LessOrEqual(t, len([]rune(long)), 1500+len("\n[... truncated]"))
}

func TestReport_Sections(t *testing.T) {
	meta, err := Analyze("logo-icon-set.eps", []byte(sampleEPS))
	require.NoError(t, err)

	report := meta.Report()
	for _, section := range []string{
		"=== EPS FILE ANALYSIS ===",
		"=== DOCUMENT PROPERTIES ===",
		"=== COLORS ===",
		"=== FONTS ===",
		"=== CONTENT PREVIEW ===",
		"=== ADDITIONAL DSC COMMENTS ===",
	} {
		assert.Contains(t, report, section)
	}
	assert.Contains(t, report, "Title: Company Logo")
	assert.Contains(t, report, "Dimensions: 512 x 256 pt")
	assert.Contains(t, report, "LanguageLevel: 2")
	assert.NotContains(t, report, "0011223344")
	assert.NotContains(t, report, "HiResBoundingBox:")
}
