package prompt

import (
	"strings"
	"testing"

	"github.com/raine/stock-metadata/internal/eps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupOf(t *testing.T) {
	tests := []struct {
		name      string
		platforms []Platform
		want      PlatformGroup
	}{
		{"freepik", []Platform{Freepik}, GroupFreepik},
		{"shutterstock", []Platform{Shutterstock}, GroupShutterstock},
		{"adobe", []Platform{AdobeStock}, GroupAdobeStock},
		{"other single platform", []Platform{Dreamstime}, GroupGeneric},
		{"multi platform", []Platform{AdobeStock, Shutterstock}, GroupGeneric},
		{"none", nil, GroupGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GroupOf(tt.platforms))
		})
	}
}

func TestParsePlatform(t *testing.T) {
	assert.Equal(t, AdobeStock, ParsePlatform("adobe stock"))
	assert.Equal(t, Shutterstock, ParsePlatform("SHUTTERSTOCK"))
	assert.Equal(t, RF123, ParsePlatform("123rf"))
	assert.Equal(t, Platform("Alamy"), ParsePlatform(" Alamy "))
}

func TestResolveSchema(t *testing.T) {
	tests := []struct {
		name     string
		mode     Mode
		group    PlatformGroup
		fileType FileType
		want     []Field
	}{
		{"freepik", ModeMetadata, GroupFreepik, FileImage, []Field{FieldTitle, FieldPrompt, FieldKeywords}},
		{"shutterstock", ModeMetadata, GroupShutterstock, FileImage, []Field{FieldDescription, FieldKeywords}},
		{"adobe", ModeMetadata, GroupAdobeStock, FileEPS, []Field{FieldTitle, FieldKeywords}},
		{"generic", ModeMetadata, GroupGeneric, FileImage, []Field{FieldTitle, FieldDescription, FieldKeywords}},
		{"generic video", ModeMetadata, GroupGeneric, FileVideo, []Field{FieldTitle, FieldDescription, FieldKeywords, FieldCategory}},
		{"adobe video", ModeMetadata, GroupAdobeStock, FileVideo, []Field{FieldTitle, FieldKeywords, FieldCategory}},
		{"image to prompt ignores platform", ModeImageToPrompt, GroupShutterstock, FileVideo, []Field{FieldPrompt}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveSchema(tt.mode, tt.group, tt.fileType).Fields())
		})
	}
}

func TestResponseSchema_Example(t *testing.T) {
	assert.Equal(t, `{"title": "...", "keywords": ["keyword1", "keyword2"]}`, SchemaAdobeStock.Example())
	assert.True(t, SchemaFreepikVideo.Has(FieldCategory))
	assert.False(t, SchemaFreepik.Has(FieldDescription))
}

func TestOptions_Validate(t *testing.T) {
	require.NoError(t, DefaultOptions().Validate())

	opts := DefaultOptions()
	opts.Keywords = Bounds{Min: 50, Max: 10}
	assert.ErrorContains(t, opts.Validate(), "keywords")

	opts = DefaultOptions()
	opts.TitleWords.Max = 0
	assert.ErrorContains(t, opts.Validate(), "title_words")

	opts = DefaultOptions()
	opts.Mode = "poetry"
	assert.ErrorContains(t, opts.Validate(), "unknown mode")

	opts = DefaultOptions()
	opts.Platforms = nil
	assert.Error(t, opts.Validate())
}

func TestOptions_Prohibited(t *testing.T) {
	opts := DefaultOptions()
	opts.ProhibitedWords = []string{"cartoon, anime", " ", "logo"}
	assert.Nil(t, opts.Prohibited())

	opts.ProhibitedWordsEnabled = true
	assert.Equal(t, []string{"cartoon", "anime", "logo"}, opts.Prohibited())
}

func TestCompose_SectionOrder(t *testing.T) {
	opts := DefaultOptions()
	opts.ProhibitedWordsEnabled = true
	opts.ProhibitedWords = []string{"cartoon", "anime"}
	opts.WhiteBackground = true
	opts.Silhouette = true

	got := Compose(FileContext{Name: "a.jpg", Type: FileImage}, opts)

	prohibited := strings.Index(got, "cartoon, anime")
	white := strings.Index(got, `Add "on white background" at the end of the title.`)
	silhouette := strings.Index(got, `Include "silhouette" as one of the keywords.`)
	template := strings.Index(got, "Generate metadata for Adobe Stock")
	format := strings.Index(got, "Respond ONLY with a JSON object containing exactly these fields: title, keywords.")

	for _, idx := range []int{prohibited, white, silhouette, template, format} {
		require.GreaterOrEqual(t, idx, 0, got)
	}
	assert.Less(t, prohibited, white)
	assert.Less(t, white, silhouette)
	assert.Less(t, silhouette, template)
	assert.Less(t, template, format)
}

func TestCompose_InterpolatesBounds(t *testing.T) {
	opts := DefaultOptions()
	opts.Platforms = []Platform{Dreamstime, Vecteezy}
	opts.TitleWords = Bounds{Min: 3, Max: 9}
	opts.DescriptionWords = Bounds{Min: 12, Max: 40}
	opts.Keywords = Bounds{Min: 20, Max: 45}

	got := Compose(FileContext{Name: "a.jpg"}, opts)
	assert.Contains(t, got, "Dreamstime, Vecteezy")
	assert.Contains(t, got, "3 to 9 words")
	assert.Contains(t, got, "12 to 40 words")
	assert.Contains(t, got, "20 to 45 relevant keywords")
	assert.Contains(t, got, "title, description, keywords")
}

func TestCompose_CustomPromptReplacesTemplate(t *testing.T) {
	opts := DefaultOptions()
	opts.CustomPromptEnabled = true
	opts.CustomPrompt = "  Describe it like a haiku.  "

	got := Compose(FileContext{Name: "a.jpg"}, opts)
	assert.Contains(t, got, "Describe it like a haiku.")
	assert.NotContains(t, got, "Generate metadata for Adobe Stock")
	assert.Contains(t, got, "title, keywords")
}

func TestCompose_Video(t *testing.T) {
	opts := DefaultOptions()
	opts.Platforms = []Platform{Shutterstock}

	got := Compose(FileContext{Name: "clip.mp4", Type: FileVideo}, opts)
	assert.Contains(t, got, "thumbnail")
	assert.Contains(t, got, "21. Travel")
	assert.Contains(t, got, "an integer from 1 to 21")
	assert.Contains(t, got, "description, keywords, category")
}

func TestCompose_EPSReferencesMetadata(t *testing.T) {
	meta := &eps.Metadata{
		Filename:     "logo-icon-set.eps",
		Title:        "Company Logo",
		DocumentType: "Icon Set",
		BoundingBox:  &eps.BoundingBox{URX: 512, URY: 256},
		ObjectCount:  4,
		ColorHints:   []string{"CMYK"},
	}
	got := Compose(FileContext{Name: "logo-icon-set.eps", Type: FileEPS, EPS: meta}, DefaultOptions())

	assert.Contains(t, got, "structural report")
	assert.Contains(t, got, "Document type: Icon Set")
	assert.Contains(t, got, "Embedded title: Company Logo")
	assert.Contains(t, got, "Dimensions: 512 x 256 pt")
	assert.Contains(t, got, "Fonts: none detected")
}

func TestCompose_ImageToPrompt(t *testing.T) {
	opts := DefaultOptions()
	opts.Mode = ModeImageToPrompt

	got := Compose(FileContext{Name: "a.png"}, opts)
	assert.Contains(t, got, "text-to-image prompt")
	assert.Contains(t, got, "exactly these fields: prompt.")
}
