package eps

import (
	"fmt"
	"regexp"
	"strings"
)

const previewLimit = 1500

var (
	binaryBlock = regexp.MustCompile(`(?s)%%Begin(Binary|Data|Preview|Photoshop|ICCProfile)\b.*?%%End(Binary|Data|Preview|Photoshop|ICCProfile)\b`)
	hexRun      = regexp.MustCompile(`[0-9A-Fa-f]{64,}`)
	ascii85Run  = regexp.MustCompile(`(?s)<~.*?~>`)
	dscComment  = regexp.MustCompile(`(?m)^%%.*$\n?`)
	blankLines  = regexp.MustCompile(`\n{3,}`)
)

// ContentPreview returns up to limit characters of program text with DSC
// comments removed and embedded binary or encoded data blocks redacted.
func ContentPreview(text string, limit int) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = binaryBlock.ReplaceAllString(text, "[binary data removed]")
	text = ascii85Run.ReplaceAllString(text, "[encoded data removed]")
	text = hexRun.ReplaceAllString(text, "[hex data removed]")
	text = dscComment.ReplaceAllString(text, "")
	text = blankLines.ReplaceAllString(text, "\n\n")
	text = strings.TrimSpace(text)

	runes := []rune(text)
	if len(runes) > limit {
		return string(runes[:limit]) + "\n[... truncated]"
	}
	return text
}

// Report renders the metadata as the fixed-section plain text report that is
// sent to the model in place of pixels.
func (m *Metadata) Report() string {
	var sb strings.Builder

	sb.WriteString("=== EPS FILE ANALYSIS ===\n")
	fmt.Fprintf(&sb, "Filename: %s\n", m.Filename)
	fmt.Fprintf(&sb, "Document Type: %s\n", m.DocumentType)

	sb.WriteString("\n=== DOCUMENT PROPERTIES ===\n")
	fmt.Fprintf(&sb, "Title: %s\n", orUnknown(m.Title))
	fmt.Fprintf(&sb, "Creator: %s\n", orUnknown(m.Creator))
	fmt.Fprintf(&sb, "Creation Date: %s\n", orUnknown(m.CreationDate))
	if m.BoundingBox != nil {
		bb := m.BoundingBox
		fmt.Fprintf(&sb, "Bounding Box: %g %g %g %g\n", bb.LLX, bb.LLY, bb.URX, bb.URY)
		fmt.Fprintf(&sb, "Dimensions: %g x %g pt\n", bb.Width(), bb.Height())
	} else {
		sb.WriteString("Bounding Box: Unknown\n")
	}
	fmt.Fprintf(&sb, "Estimated Objects: %d\n", m.ObjectCount)

	sb.WriteString("\n=== COLORS ===\n")
	sb.WriteString(listOrNone(m.ColorHints))
	sb.WriteString("\n=== FONTS ===\n")
	sb.WriteString(listOrNone(m.Fonts))

	sb.WriteString("\n=== CONTENT PREVIEW ===\n")
	if m.Preview == "" {
		sb.WriteString("(no readable content)\n")
	} else {
		sb.WriteString(m.Preview)
		sb.WriteString("\n")
	}

	if extra := m.extraComments(); len(extra) > 0 {
		sb.WriteString("\n=== ADDITIONAL DSC COMMENTS ===\n")
		for _, k := range extra {
			fmt.Fprintf(&sb, "%s: %s\n", k, m.Comments[k])
		}
	}

	return sb.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "None detected\n"
	}
	return "- " + strings.Join(items, "\n- ") + "\n"
}
