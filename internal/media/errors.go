package media

import "fmt"

// ConversionError is returned when an SVG cannot be rasterized or encoded.
// It is fatal for the file and must not be retried.
type ConversionError struct {
	File string
	Err  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("failed to convert %s: %v", e.File, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// ExtractionError is returned when an EPS file cannot be read or parsed.
type ExtractionError struct {
	File string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract EPS metadata from %s: %v", e.File, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ThumbnailError is returned when neither a decoded video frame nor the
// placeholder frame could be produced.
type ThumbnailError struct {
	File string
	Err  error
}

func (e *ThumbnailError) Error() string {
	return fmt.Sprintf("failed to create video thumbnail for %s: %v", e.File, e.Err)
}

func (e *ThumbnailError) Unwrap() error { return e.Err }

// UnsupportedError is returned for files that classify as KindUnsupported.
type UnsupportedError struct {
	File     string
	MIMEType string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported file type for %s (%s)", e.File, e.MIMEType)
}
