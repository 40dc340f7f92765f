package media

// Payload is the artifact uploaded to the model alongside the prompt. It is
// either an inline image or, for EPS files, a plain text report. It is never
// the model response.
type Payload struct {
	// Data holds the binary image. Nil for text payloads.
	Data     []byte
	MIMEType string
	// Text holds the textual representation for formats the model cannot
	// read as pixels.
	Text string
	// Placeholder is set when a video frame could not be decoded and a
	// synthetic frame was generated instead.
	Placeholder bool
}

// IsText reports whether the payload is textual rather than inline binary.
func (p Payload) IsText() bool {
	return p.Data == nil && p.Text != ""
}

// Size returns the number of bytes that will be uploaded.
func (p Payload) Size() int {
	if p.IsText() {
		return len(p.Text)
	}
	return len(p.Data)
}

// NewImagePayload wraps encoded image bytes.
func NewImagePayload(data []byte, mimeType string) Payload {
	return Payload{Data: data, MIMEType: mimeType}
}

// NewTextPayload wraps a text report.
func NewTextPayload(text string) Payload {
	return Payload{Text: text, MIMEType: "text/plain"}
}
