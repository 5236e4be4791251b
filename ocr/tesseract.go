//go:build cgo && tesseract

package ocr

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// tesseractEngine is the fallback OCR engine for hosts without Nougat.
// It extracts the PDF's page images with pdfcpu and runs Tesseract on each.
// Output is plain text: no math markup, no layout reconstruction — strictly
// a degraded mode, which the engine name in the result makes visible.
type tesseractEngine struct {
	logger *slog.Logger
}

func newTesseractEngine(logger *slog.Logger) Engine {
	return &tesseractEngine{logger: logger}
}

func (e *tesseractEngine) Name() string { return "tesseract" }

func (e *tesseractEngine) Available() bool {
	client := gosseract.NewClient()
	defer client.Close()
	return client.Version() != ""
}

func (e *tesseractEngine) Run(ctx context.Context, pdfPath string) (string, error) {
	imgDir, err := os.MkdirTemp("", "nougat-mcp-pages-*")
	if err != nil {
		return "", fmt.Errorf("temp dir: %w", err)
	}
	defer os.RemoveAll(imgDir)

	if err := api.ExtractImagesFile(pdfPath, imgDir, nil, nil); err != nil {
		return "", fmt.Errorf("extract page images: %w", err)
	}

	images, err := listImages(imgDir)
	if err != nil {
		return "", err
	}
	if len(images) == 0 {
		return "", fmt.Errorf("no page images found in %s; tesseract fallback needs a scanned PDF", pdfPath)
	}

	client := gosseract.NewClient()
	defer client.Close()

	var sb strings.Builder
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := client.SetImage(img); err != nil {
			return "", fmt.Errorf("set image %s: %w", img, err)
		}
		text, err := client.Text()
		if err != nil {
			return "", fmt.Errorf("ocr %s: %w", img, err)
		}
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(strings.TrimSpace(text))
	}
	e.logger.Debug("tesseract fallback finished", "pdf", pdfPath, "images", len(images))
	return sb.String(), nil
}

func listImages(dir string) ([]string, error) {
	var images []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".png", ".jpg", ".jpeg", ".tif", ".tiff":
			images = append(images, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(images)
	return images, nil
}
