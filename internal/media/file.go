// Package media turns uploaded stock assets into something a vision model can
// read: raster images pass through a downscaler, SVGs are rasterized, EPS files
// become a text report and videos are reduced to a single thumbnail frame.
package media

import (
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"github.com/raine/stock-metadata/internal/eps"
)

// Kind is the classification of a source file.
type Kind int

const (
	KindUnsupported Kind = iota
	KindRaster
	KindSVG
	KindEPS
	KindVideo
)

func (k Kind) String() string {
	switch k {
	case KindRaster:
		return "raster"
	case KindSVG:
		return "svg"
	case KindEPS:
		return "eps"
	case KindVideo:
		return "video"
	default:
		return "unsupported"
	}
}

// SourceFile is an uploaded asset. It is treated as immutable once created.
type SourceFile struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Size returns the payload size in bytes.
func (f SourceFile) Size() int64 {
	return int64(len(f.Data))
}

// Stem returns the file name without directory and extension.
func (f SourceFile) Stem() string {
	return Stem(f.Name)
}

// Stem strips the directory and the last extension from a file name.
func Stem(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Kind classifies the file. See Classify.
func (f SourceFile) Kind() Kind {
	return Classify(f.MIMEType, f.Name, f.Data)
}

var genericMIMETypes = map[string]bool{
	"":                         true,
	"application/octet-stream": true,
	"binary/octet-stream":      true,
	"application/unknown":      true,
	"application/x-unknown":    true,
}

var epsMIMETypes = map[string]bool{
	"application/postscript": true,
	"application/eps":        true,
	"application/x-eps":      true,
	"image/eps":              true,
	"image/x-eps":            true,
}

var extensionKinds = map[string]Kind{
	".jpg":  KindRaster,
	".jpeg": KindRaster,
	".png":  KindRaster,
	".gif":  KindRaster,
	".webp": KindRaster,
	".bmp":  KindRaster,
	".tif":  KindRaster,
	".tiff": KindRaster,
	".svg":  KindSVG,
	".eps":  KindEPS,
	".epsf": KindEPS,
	".ps":   KindEPS,
	".mp4":  KindVideo,
	".mov":  KindVideo,
	".m4v":  KindVideo,
	".avi":  KindVideo,
	".mkv":  KindVideo,
	".webm": KindVideo,
	".wmv":  KindVideo,
}

// Classify derives the file kind from the declared MIME type and the file
// name. The extension is authoritative when the MIME type is generic or
// absent. Content sniffing is used only when neither gives an answer.
func Classify(mimeType, name string, data []byte) Kind {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}

	if !genericMIMETypes[mimeType] {
		if k := kindFromMIME(mimeType); k != KindUnsupported {
			return k
		}
	}

	if k, ok := extensionKinds[strings.ToLower(filepath.Ext(name))]; ok {
		return k
	}

	return sniffKind(data)
}

func kindFromMIME(mimeType string) Kind {
	switch {
	case mimeType == "image/svg+xml" || mimeType == "image/svg":
		return KindSVG
	case epsMIMETypes[mimeType]:
		return KindEPS
	case strings.HasPrefix(mimeType, "video/"):
		return KindVideo
	case strings.HasPrefix(mimeType, "image/"):
		return KindRaster
	}
	return KindUnsupported
}

func sniffKind(data []byte) Kind {
	if len(data) == 0 {
		return KindUnsupported
	}
	if eps.HasBinaryHeader(data) || strings.HasPrefix(string(head(data, 4)), "%!PS") {
		return KindEPS
	}
	switch {
	case filetype.IsImage(data):
		return KindRaster
	case filetype.IsVideo(data):
		return KindVideo
	}
	if strings.Contains(strings.ToLower(string(head(data, 512))), "<svg") {
		return KindSVG
	}
	return KindUnsupported
}

// DetectMIME returns the MIME type for a file, preferring the declared one and
// falling back to content sniffing and the extension.
func DetectMIME(declared, name string, data []byte) string {
	if !genericMIMETypes[strings.ToLower(declared)] {
		return declared
	}
	if len(data) > 0 {
		if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
			return kind.MIME.Value
		}
	}
	switch extensionKinds[strings.ToLower(filepath.Ext(name))] {
	case KindSVG:
		return "image/svg+xml"
	case KindEPS:
		return "application/postscript"
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".mp4":
		return "video/mp4"
	case ".mov":
		return "video/quicktime"
	case ".webm":
		return "video/webm"
	}
	return "application/octet-stream"
}

func head(data []byte, n int) []byte {
	if len(data) < n {
		return data
	}
	return data[:n]
}
