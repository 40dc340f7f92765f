// Package pipeline runs stock media files through normalization, the vision
// model and post-processing, pacing model calls and reconciling every input
// file with exactly one result.
package pipeline

import (
	"fmt"

	"github.com/raine/stock-metadata/internal/media"
)

// Result is the outcome for one input file. A failed file carries only its
// identity fields and Error.
type Result struct {
	Index       int      `json:"index"`
	Filename    string   `json:"filename"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	Prompt      string   `json:"prompt,omitempty"`
	BaseModel   string   `json:"baseModel,omitempty"`
	// Category is the video category, 1-21. Zero for other files.
	Category   int      `json:"category,omitempty"`
	Categories []string `json:"categories,omitempty"`
	IsVideo    bool     `json:"isVideo"`
	IsEps      bool     `json:"isEps"`
	Error      string   `json:"error,omitempty"`
}

// Failed reports whether the file produced an error.
func (r Result) Failed() bool {
	return r.Error != ""
}

// errorResult builds the error-only result for a file.
func errorResult(index int, f media.SourceFile, err error) Result {
	kind := f.Kind()
	return Result{
		Index:    index,
		Filename: f.Name,
		IsVideo:  kind == media.KindVideo,
		IsEps:    kind == media.KindEPS,
		Error:    err.Error(),
	}
}

// ReconciliationError is reported for a dispatched file that no result in
// its batch could be matched to.
type ReconciliationError struct {
	File  string
	Index int
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("no analysis result matched %s (index %d)", e.File, e.Index)
}
