package media

import (
	"context"
	"errors"

	"github.com/raine/stock-metadata/internal/eps"
	"github.com/rs/zerolog/log"
)

// Normalized is the outcome of normalizing one source file.
type Normalized struct {
	Kind    Kind
	Payload Payload
	// EPS is set for EPS inputs and is consumed by the prompt composer.
	EPS *eps.Metadata
}

// Normalizer converts source files into payloads a vision model accepts.
type Normalizer struct {
	downscaler *Downscaler
	frames     FrameExtractor
	svgCanvas  int
}

// NewNormalizer creates a Normalizer with a default downscaler, an ffmpeg
// frame extractor resolved from PATH and a 1200px SVG canvas.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		downscaler: NewDownscaler(),
		frames:     NewFFmpegExtractor("", ""),
		svgCanvas:  DefaultSVGCanvas,
	}
}

// WithDownscaler replaces the raster downscaler.
func (n *Normalizer) WithDownscaler(d *Downscaler) *Normalizer {
	n.downscaler = d
	return n
}

// WithFrameExtractor replaces the video frame extractor.
func (n *Normalizer) WithFrameExtractor(fe FrameExtractor) *Normalizer {
	n.frames = fe
	return n
}

// WithSVGCanvas sets the square canvas size SVGs are rendered into.
func (n *Normalizer) WithSVGCanvas(px int) *Normalizer {
	if px > 0 {
		n.svgCanvas = px
	}
	return n
}

// Normalize dispatches on the file kind. SVG and EPS failures are returned as
// ConversionError and ExtractionError. Videos fall back to a placeholder
// frame, and raster downscaling never fails.
func (n *Normalizer) Normalize(ctx context.Context, f SourceFile) (*Normalized, error) {
	kind := f.Kind()
	switch kind {
	case KindRaster:
		out := n.downscaler.Downscale(f)
		return &Normalized{Kind: kind, Payload: NewImagePayload(out.Data, DetectMIME(out.MIMEType, out.Name, out.Data))}, nil

	case KindSVG:
		data, err := RasterizeSVG(f.Name, f.Data, n.svgCanvas)
		if err != nil {
			return nil, err
		}
		return &Normalized{Kind: kind, Payload: NewImagePayload(data, "image/png")}, nil

	case KindEPS:
		meta, err := eps.Analyze(f.Name, f.Data)
		if err != nil {
			return nil, &ExtractionError{File: f.Name, Err: err}
		}
		return &Normalized{Kind: kind, Payload: NewTextPayload(meta.Report()), EPS: meta}, nil

	case KindVideo:
		return n.normalizeVideo(ctx, f)
	}

	return nil, &UnsupportedError{File: f.Name, MIMEType: f.MIMEType}
}

func (n *Normalizer) normalizeVideo(ctx context.Context, f SourceFile) (*Normalized, error) {
	var frameErr error
	if n.frames != nil {
		frame, err := n.frames.ExtractFrame(ctx, f.Name, f.Data)
		if err == nil {
			return &Normalized{Kind: KindVideo, Payload: NewImagePayload(frame, "image/png")}, nil
		}
		frameErr = err
	} else {
		frameErr = errors.New("no frame extractor configured")
	}

	log.Warn().Err(frameErr).Str("file", f.Name).Msg("video frame extraction failed, using placeholder")

	placeholder, err := PlaceholderFrame(f.Name, DefaultFrameWidth, DefaultFrameHeight)
	if err != nil {
		return nil, &ThumbnailError{File: f.Name, Err: errors.Join(frameErr, err)}
	}
	p := NewImagePayload(placeholder, "image/png")
	p.Placeholder = true
	return &Normalized{Kind: KindVideo, Payload: p}, nil
}
