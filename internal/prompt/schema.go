package prompt

import (
	"fmt"
	"strings"
)

// Field is a JSON field the model is asked to return.
type Field string

const (
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
	FieldKeywords    Field = "keywords"
	FieldPrompt      Field = "prompt"
	FieldCategory    Field = "category"
)

// ResponseSchema is the fixed JSON field set for a (mode, platform group,
// file type) combination. Prompt construction and response parsing both key
// off the same value.
type ResponseSchema int

const (
	SchemaGeneric ResponseSchema = iota
	SchemaFreepik
	SchemaShutterstock
	SchemaAdobeStock
	SchemaImageToPrompt
	SchemaGenericVideo
	SchemaFreepikVideo
	SchemaShutterstockVideo
	SchemaAdobeStockVideo
)

var schemaFields = map[ResponseSchema][]Field{
	SchemaGeneric:           {FieldTitle, FieldDescription, FieldKeywords},
	SchemaFreepik:           {FieldTitle, FieldPrompt, FieldKeywords},
	SchemaShutterstock:      {FieldDescription, FieldKeywords},
	SchemaAdobeStock:        {FieldTitle, FieldKeywords},
	SchemaImageToPrompt:     {FieldPrompt},
	SchemaGenericVideo:      {FieldTitle, FieldDescription, FieldKeywords, FieldCategory},
	SchemaFreepikVideo:      {FieldTitle, FieldPrompt, FieldKeywords, FieldCategory},
	SchemaShutterstockVideo: {FieldDescription, FieldKeywords, FieldCategory},
	SchemaAdobeStockVideo:   {FieldTitle, FieldKeywords, FieldCategory},
}

var schemaNames = map[ResponseSchema]string{
	SchemaGeneric:           "generic",
	SchemaFreepik:           "freepik",
	SchemaShutterstock:      "shutterstock",
	SchemaAdobeStock:        "adobestock",
	SchemaImageToPrompt:     "image-to-prompt",
	SchemaGenericVideo:      "generic-video",
	SchemaFreepikVideo:      "freepik-video",
	SchemaShutterstockVideo: "shutterstock-video",
	SchemaAdobeStockVideo:   "adobestock-video",
}

// ResolveSchema picks the response schema.
func ResolveSchema(mode Mode, group PlatformGroup, fileType FileType) ResponseSchema {
	if mode == ModeImageToPrompt {
		return SchemaImageToPrompt
	}
	video := fileType == FileVideo
	switch group {
	case GroupFreepik:
		if video {
			return SchemaFreepikVideo
		}
		return SchemaFreepik
	case GroupShutterstock:
		if video {
			return SchemaShutterstockVideo
		}
		return SchemaShutterstock
	case GroupAdobeStock:
		if video {
			return SchemaAdobeStockVideo
		}
		return SchemaAdobeStock
	}
	if video {
		return SchemaGenericVideo
	}
	return SchemaGeneric
}

// Fields returns the ordered field list.
func (s ResponseSchema) Fields() []Field {
	return schemaFields[s]
}

// Has reports whether the schema includes f.
func (s ResponseSchema) Has(f Field) bool {
	for _, field := range schemaFields[s] {
		if field == f {
			return true
		}
	}
	return false
}

func (s ResponseSchema) String() string {
	if name, ok := schemaNames[s]; ok {
		return name
	}
	return fmt.Sprintf("schema(%d)", int(s))
}

// Example renders a one-line JSON example object with the schema's fields.
func (s ResponseSchema) Example() string {
	parts := make([]string, 0, len(s.Fields()))
	for _, f := range s.Fields() {
		var value string
		switch f {
		case FieldKeywords:
			value = `["keyword1", "keyword2"]`
		case FieldCategory:
			value = `8`
		default:
			value = fmt.Sprintf("%q", "...")
		}
		parts = append(parts, fmt.Sprintf("%q: %s", string(f), value))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
