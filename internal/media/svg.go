package media

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// DefaultSVGCanvas is the edge length of the square canvas SVGs are
// rendered into.
const DefaultSVGCanvas = 1200

// RasterizeSVG renders SVG markup into a size x size canvas and encodes it as
// PNG. Any parse or render failure is returned as a ConversionError.
func RasterizeSVG(name string, data []byte, size int) (out []byte, err error) {
	if size <= 0 {
		size = DefaultSVGCanvas
	}
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = &ConversionError{File: name, Err: fmt.Errorf("svg renderer panic: %v", r)}
		}
	}()

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ConversionError{File: name, Err: errors.New("empty SVG document")}
	}

	if err := checkSVGMarkup(data); err != nil {
		return nil, &ConversionError{File: name, Err: err}
	}

	icon, err := oksvg.ReadIconStream(bytes.NewReader(data), oksvg.WarnErrorMode)
	if err != nil {
		return nil, &ConversionError{File: name, Err: fmt.Errorf("invalid SVG markup: %w", err)}
	}
	if icon.ViewBox.W <= 0 || icon.ViewBox.H <= 0 {
		return nil, &ConversionError{File: name, Err: errors.New("SVG has no usable viewBox or size")}
	}

	icon.SetTarget(0, 0, float64(size), float64(size))
	canvas := image.NewRGBA(image.Rect(0, 0, size, size))
	scanner := rasterx.NewScannerGV(size, size, canvas, canvas.Bounds())
	icon.Draw(rasterx.NewDasher(size, size, scanner), 1)

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, &ConversionError{File: name, Err: fmt.Errorf("failed to encode PNG: %w", err)}
	}
	return buf.Bytes(), nil
}

// checkSVGMarkup requires well-formed XML with an <svg> root element. The
// renderer itself silently accepts truncated documents.
func checkSVGMarkup(data []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true
	root := ""
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("invalid SVG markup: %w", err)
		}
		if se, ok := tok.(xml.StartElement); ok && root == "" {
			root = se.Name.Local
		}
	}
	if root != "svg" {
		return fmt.Errorf("invalid SVG markup: root element is %q, want svg", root)
	}
	return nil
}
