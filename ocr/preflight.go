package ocr

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Preflight validates a PDF and reports page count, image streams, and the
// size of any existing text layer. A scanned paper shows images and next to
// no text; a born-digital one may not need OCR at all.
func (p *Pipeline) Preflight(path string) (*PreflightInfo, error) {
	path, err := p.resolvePath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return nil, fmt.Errorf("not a readable PDF: %w", err)
	}

	totalChars := 0
	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		totalChars += pageTextChars(pdfCtx, pageNr)
	}

	var charsPerPage float64
	if pdfCtx.PageCount > 0 {
		charsPerPage = float64(totalChars) / float64(pdfCtx.PageCount)
	}
	hasImages := hasImageStreams(pdfCtx)

	return &PreflightInfo{
		Path:             path,
		PageCount:        pdfCtx.PageCount,
		HasImageStreams:  hasImages,
		TextCharsPerPage: charsPerPage,
		LikelyScanned:    charsPerPage < 50 && hasImages,
	}, nil
}

// pageTextChars counts characters in the page's text-showing operators
// (Tj, TJ, '). A rough size is enough here; no decoding or layout needed.
func pageTextChars(pdfCtx *model.Context, pageNr int) int {
	r, err := pdfcpu.ExtractPageContent(pdfCtx, pageNr)
	if err != nil {
		return 0
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0
	}

	chars := 0
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if !bytes.HasSuffix(line, []byte("Tj")) &&
			!bytes.HasSuffix(line, []byte("TJ")) &&
			!bytes.HasSuffix(line, []byte("'")) {
			continue
		}
		depth := 0
		for _, b := range line {
			switch b {
			case '(':
				depth++
			case ')':
				if depth > 0 {
					depth--
				}
			default:
				if depth > 0 {
					chars++
				}
			}
		}
	}
	return chars
}

// hasImageStreams checks whether the PDF carries image XObjects.
func hasImageStreams(pdfCtx *model.Context) bool {
	if pdfCtx.Optimize != nil {
		for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
			if len(pdfcpu.ImageObjNrs(pdfCtx, pageNr)) > 0 {
				return true
			}
		}
	}
	for _, entry := range pdfCtx.Table {
		if entry == nil || entry.Free || entry.Compressed {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok {
			continue
		}
		if subtype, found := sd.Find("Subtype"); found {
			if name, isName := subtype.(types.Name); isName && name == "Image" {
				return true
			}
		}
	}
	return false
}
