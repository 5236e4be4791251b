package ocr

import "context"

// Engine produces document markup from a PDF. Implementations: the Nougat
// subprocess runner (primary) and the Tesseract fallback.
type Engine interface {
	// Name identifies the engine in results and logs.
	Name() string

	// Available reports whether the engine can run on this host.
	Available() bool

	// Run OCRs the PDF and returns the extracted markup.
	Run(ctx context.Context, pdfPath string) (string, error)
}
