//go:build !cgo || !tesseract

package ocr

import (
	"context"
	"fmt"
	"log/slog"
)

// tesseractEngine stub for builds without the tesseract tag (the libtesseract
// binding needs CGO). It registers as unavailable so engine selection skips it.
type tesseractEngine struct{}

func newTesseractEngine(_ *slog.Logger) Engine {
	return &tesseractEngine{}
}

func (e *tesseractEngine) Name() string { return "tesseract (unavailable)" }

func (e *tesseractEngine) Available() bool { return false }

func (e *tesseractEngine) Run(_ context.Context, _ string) (string, error) {
	return "", fmt.Errorf("tesseract fallback not available: built without the tesseract tag")
}
