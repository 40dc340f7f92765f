package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	// DefaultFrameWidth and DefaultFrameHeight are used for placeholder
	// frames and when the native video size is unknown.
	DefaultFrameWidth  = 640
	DefaultFrameHeight = 360

	defaultSeekTimeout   = 5 * time.Second
	defaultDecodeTimeout = 10 * time.Second
	maxSeekSeconds       = 1.0
	tempFilePrefix       = "stock-metadata-video-"
)

// FrameExtractor grabs a single PNG frame from a video.
type FrameExtractor interface {
	ExtractFrame(ctx context.Context, name string, data []byte) ([]byte, error)
}

// FFmpegExtractor extracts frames by shelling out to ffprobe and ffmpeg.
type FFmpegExtractor struct {
	ffmpegPath    string
	ffprobePath   string
	seekTimeout   time.Duration
	decodeTimeout time.Duration
}

// NewFFmpegExtractor creates an extractor using the given binaries. Empty
// paths fall back to "ffmpeg" and "ffprobe" on PATH.
func NewFFmpegExtractor(ffmpegPath, ffprobePath string) *FFmpegExtractor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpegExtractor{
		ffmpegPath:    ffmpegPath,
		ffprobePath:   ffprobePath,
		seekTimeout:   defaultSeekTimeout,
		decodeTimeout: defaultDecodeTimeout,
	}
}

// WithTimeouts overrides the probe/seek and decode timeouts.
func (e *FFmpegExtractor) WithTimeouts(seek, decode time.Duration) *FFmpegExtractor {
	e.seekTimeout = seek
	e.decodeTimeout = decode
	return e
}

// ExtractFrame writes the video to a temporary file, probes its duration and
// grabs the frame at min(1s, duration/2) at native resolution.
func (e *FFmpegExtractor) ExtractFrame(ctx context.Context, name string, data []byte) ([]byte, error) {
	tmp, err := os.CreateTemp("", tempFilePrefix+"*"+filepath.Ext(name))
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to close temp file: %w", err)
	}

	duration, err := e.probeDuration(ctx, tmp.Name())
	if err != nil {
		return nil, err
	}

	decodeCtx, cancel := context.WithTimeout(ctx, e.decodeTimeout)
	defer cancel()

	seek := SeekPosition(duration)
	cmd := exec.CommandContext(decodeCtx, e.ffmpegPath,
		"-hide_banner", "-loglevel", "error",
		"-ss", strconv.FormatFloat(seek, 'f', 3, 64),
		"-i", tmp.Name(),
		"-frames:v", "1",
		"-f", "image2pipe", "-vcodec", "png", "-",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if decodeCtx.Err() != nil {
			return nil, fmt.Errorf("video decode timed out after %s", e.decodeTimeout)
		}
		return nil, fmt.Errorf("error running ffmpeg: %w (%s)", err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no frame")
	}
	return stdout.Bytes(), nil
}

func (e *FFmpegExtractor) probeDuration(ctx context.Context, path string) (float64, error) {
	probeCtx, cancel := context.WithTimeout(ctx, e.seekTimeout)
	defer cancel()

	out, err := exec.CommandContext(probeCtx, e.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	).Output()
	if err != nil {
		if probeCtx.Err() != nil {
			return 0, fmt.Errorf("video seek timed out after %s", e.seekTimeout)
		}
		return 0, fmt.Errorf("error running ffprobe: %w", err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid video duration %q: %w", strings.TrimSpace(string(out)), err)
	}
	return duration, nil
}

// SeekPosition returns the timestamp in seconds the thumbnail is taken from.
func SeekPosition(duration float64) float64 {
	if duration <= 0 {
		return 0
	}
	return min(maxSeekSeconds, duration/2)
}

var (
	placeholderBackground = color.RGBA{R: 0x1f, G: 0x29, B: 0x37, A: 0xff}
	placeholderForeground = color.RGBA{R: 0xe5, G: 0xe7, B: 0xeb, A: 0xff}
)

// PlaceholderFrame renders a dark frame labelled with the file name, used
// when a real frame cannot be decoded.
func PlaceholderFrame(name string, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		width, height = DefaultFrameWidth, DefaultFrameHeight
	}
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(placeholderBackground), image.Point{}, draw.Src)

	face := basicfont.Face7x13
	lines := []string{"VIDEO", filepath.Base(name)}
	lineHeight := face.Metrics().Height.Ceil() + 6
	y := height/2 - lineHeight*(len(lines)-1)/2
	for _, line := range lines {
		d := &font.Drawer{Dst: canvas, Src: image.NewUniform(placeholderForeground), Face: face}
		maxChars := (width - 20) / 7
		if maxChars > 3 && len(line) > maxChars {
			line = line[:maxChars-3] + "..."
		}
		x := (width - d.MeasureString(line).Ceil()) / 2
		d.Dot = fixed.P(max(x, 10), y)
		d.DrawString(line)
		y += lineHeight
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
