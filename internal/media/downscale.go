package media

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"math"

	_ "image/gif"
	_ "image/png"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	// DefaultMaxDimension caps the short side of a downscaled image.
	DefaultMaxDimension = 200
	// DefaultTargetBytes is the size above which a second, harsher pass runs.
	DefaultTargetBytes = 200 * 1024
	// DefaultMaxPixels is the largest declared width*height that is decoded.
	// Decoders allocate the full pixel buffer from the header before reading
	// any pixel data.
	DefaultMaxPixels = 50_000_000

	defaultScaleFactor       = 0.1
	defaultQuality           = 60
	defaultSecondPassQuality = 40
	secondPassScale          = 0.7
)

// Downscaler shrinks raster images before upload. It never fails: any decode
// or encode problem yields the original file.
type Downscaler struct {
	maxDimension      int
	targetBytes       int
	quality           int
	secondPassQuality int
	maxPixels         int
}

// NewDownscaler creates a Downscaler with default settings.
func NewDownscaler() *Downscaler {
	return &Downscaler{
		maxDimension:      DefaultMaxDimension,
		targetBytes:       DefaultTargetBytes,
		quality:           defaultQuality,
		secondPassQuality: defaultSecondPassQuality,
		maxPixels:         DefaultMaxPixels,
	}
}

// WithMaxDimension sets the maximum edge length for the short side.
func (d *Downscaler) WithMaxDimension(px int) *Downscaler {
	if px > 0 {
		d.maxDimension = px
	}
	return d
}

// WithTargetBytes sets the size threshold that triggers the second pass.
func (d *Downscaler) WithTargetBytes(n int) *Downscaler {
	if n > 0 {
		d.targetBytes = n
	}
	return d
}

// WithMaxPixels sets the pixel budget above which images are passed through
// without decoding.
func (d *Downscaler) WithMaxPixels(n int) *Downscaler {
	if n > 0 {
		d.maxPixels = n
	}
	return d
}

// TargetSize computes the output dimensions for a w x h image.
//
// Images at least 200x200 are scaled so their short side is 10% of the
// original, clamped between min(200, maxDimension) and maxDimension. Smaller
// images keep their size unless the long side exceeds 200px.
func (d *Downscaler) TargetSize(w, h int) (int, int) {
	if w <= 0 || h <= 0 {
		return w, h
	}
	short, long := min(w, h), max(w, h)

	var scale float64
	if short >= DefaultMaxDimension {
		floor := float64(min(DefaultMaxDimension, d.maxDimension))
		target := math.Max(floor, math.Min(float64(short)*defaultScaleFactor, float64(d.maxDimension)))
		scale = target / float64(short)
	} else {
		scale = math.Min(1, float64(DefaultMaxDimension)/float64(long))
	}
	if scale > 1 {
		scale = 1
	}
	return scaled(w, scale), scaled(h, scale)
}

func scaled(n int, scale float64) int {
	return max(1, int(math.Round(float64(n)*scale)))
}

// Downscale returns a JPEG re-encoding of f at reduced size. SVG and non-image
// files, and anything that fails to decode or encode, are returned unchanged.
func (d *Downscaler) Downscale(f SourceFile) (out SourceFile) {
	if f.Kind() != KindRaster {
		return f
	}
	defer func() {
		if p := recover(); p != nil {
			log.Warn().Interface("panic", p).Str("file", f.Name).Msg("downscale: decoder panicked, using original")
			out = f
		}
	}()

	cfg, _, err := image.DecodeConfig(bytes.NewReader(f.Data))
	if err != nil {
		log.Debug().Err(err).Str("file", f.Name).Msg("downscale: unreadable header, using original")
		return f
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > int64(d.maxPixels) {
		log.Warn().
			Str("file", f.Name).
			Int("width", cfg.Width).
			Int("height", cfg.Height).
			Msg("downscale: declared size over pixel budget, using original")
		return f
	}

	src, _, err := image.Decode(bytes.NewReader(f.Data))
	if err != nil {
		log.Debug().Err(err).Str("file", f.Name).Msg("downscale: decode failed, using original")
		return f
	}

	b := src.Bounds()
	w, h := d.TargetSize(b.Dx(), b.Dy())
	first, err := encodeJPEG(resize(src, w, h), d.quality)
	if err != nil {
		log.Debug().Err(err).Str("file", f.Name).Msg("downscale: encode failed, using original")
		return f
	}

	best := first
	if len(first) > d.targetBytes {
		w2, h2 := scaled(w, secondPassScale), scaled(h, secondPassScale)
		if second, err := encodeJPEG(resize(src, w2, h2), d.secondPassQuality); err == nil && len(second) < len(best) {
			best = second
		}
	}

	log.Debug().
		Str("file", f.Name).
		Int("originalBytes", len(f.Data)).
		Int("downscaledBytes", len(best)).
		Msg("downscaled image")

	return SourceFile{Name: f.Name, MIMEType: "image/jpeg", Data: best}
}

// resize draws src onto a white w x h canvas so transparent regions do not
// turn black in JPEG.
func resize(src image.Image, w, h int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
