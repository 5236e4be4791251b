package ocr

import "fmt"

// OutputFormat selects the markup dialect returned by a parse.
type OutputFormat string

const (
	// FormatDefault resolves through settings.
	FormatDefault OutputFormat = "default"
	// FormatMMD is raw Nougat output.
	FormatMMD OutputFormat = "mmd"
	// FormatMD is Nougat output with math delimiters rewritten for broader
	// Markdown renderer compatibility.
	FormatMD OutputFormat = "md"
)

// ParseFormat validates a requested output format. Unknown values are
// rejected before any OCR work happens.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case FormatDefault, "":
		return FormatDefault, nil
	case FormatMMD:
		return FormatMMD, nil
	case FormatMD:
		return FormatMD, nil
	default:
		return "", fmt.Errorf("output_format must be %q, %q, or %q", FormatDefault, FormatMMD, FormatMD)
	}
}

// Result is the outcome of parsing one document.
type Result struct {
	Path     string       `json:"path"`
	Format   OutputFormat `json:"format"`  // effective format after resolving "default"
	Engine   string       `json:"engine"`  // engine that produced the markup
	Markup   string       `json:"markup"`  // document text in the requested dialect
	CacheHit bool         `json:"cache_hit"`
}

// PreflightInfo describes a PDF before OCR runs, so agents can tell scanned
// papers from born-digital ones without burning model minutes.
type PreflightInfo struct {
	Path             string  `json:"path"`
	PageCount        int     `json:"page_count"`
	HasImageStreams  bool    `json:"has_image_streams"`
	TextCharsPerPage float64 `json:"text_chars_per_page"` // chars in existing text layer
	LikelyScanned    bool    `json:"likely_scanned"`
}
