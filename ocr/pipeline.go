// Package ocr exposes Nougat OCR for academic PDFs as an MCP tool set:
// path validation, pdfcpu preflight, engine selection, an optional SQLite
// result cache, and the mmd→md delimiter conversion.
package ocr

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/svretina/nougat-mcp/mmd"
	"github.com/svretina/nougat-mcp/nougat"
)

// Pipeline is the document parse engine behind the MCP tools.
type Pipeline struct {
	cfg      Config
	logger   *slog.Logger
	engine   Engine
	fallback Engine
	cache    *Cache
}

// New creates a Pipeline with the given configuration. Close releases the
// cache when one is configured.
func New(cfg Config) (*Pipeline, error) {
	cfg.defaults()

	engine := cfg.Engine
	if engine == nil {
		engine = nougat.New(nougat.Config{
			Command: cfg.Settings.NougatCommand,
			Timeout: cfg.Settings.Timeout,
			Logger:  cfg.Logger,
		})
	}

	fallback := cfg.Fallback
	if fallback == nil && cfg.Settings.FallbackTesseract {
		fallback = newTesseractEngine(cfg.Logger)
	}

	var cache *Cache
	if cfg.Settings.CachePath != "" {
		var err error
		cache, err = OpenCache(cfg.Settings.CachePath)
		if err != nil {
			return nil, fmt.Errorf("open cache %s: %w", cfg.Settings.CachePath, err)
		}
	}

	return &Pipeline{
		cfg:      cfg,
		logger:   cfg.Logger,
		engine:   engine,
		fallback: fallback,
		cache:    cache,
	}, nil
}

// Close releases pipeline resources.
func (p *Pipeline) Close() error {
	if p.cache != nil {
		return p.cache.Close()
	}
	return nil
}

// Parse OCRs a PDF and returns its text in the requested format.
func (p *Pipeline) Parse(ctx context.Context, path string, format OutputFormat) (*Result, error) {
	path, err := p.resolvePath(path)
	if err != nil {
		return nil, err
	}

	effective := format
	if effective == FormatDefault {
		effective = OutputFormat(p.cfg.Settings.DefaultOutputFormat)
	}

	engine, err := p.selectEngine()
	if err != nil {
		return nil, err
	}

	markup, hit, err := p.rawMarkup(ctx, engine, path)
	if err != nil {
		return nil, err
	}

	if effective == FormatMD {
		markup = mmd.Convert(markup, mmd.Options{
			RewriteTags:        p.cfg.Settings.RewriteTags,
			FixSizedDelimiters: p.cfg.Settings.FixSizedDelimiters,
		})
	}

	return &Result{
		Path:     path,
		Format:   effective,
		Engine:   engine.Name(),
		Markup:   markup,
		CacheHit: hit,
	}, nil
}

// resolvePath expands ~, absolutizes, and validates the input file.
func (p *Pipeline) resolvePath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("file not found at %q", abs)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%q is a directory, not a PDF", abs)
	}
	if info.Size() > p.cfg.MaxFileSize {
		return "", fmt.Errorf("file too large: %d bytes (max %d)", info.Size(), p.cfg.MaxFileSize)
	}
	if !strings.EqualFold(filepath.Ext(abs), ".pdf") {
		return "", fmt.Errorf("%q is not a PDF; only PDF documents are supported", abs)
	}
	return abs, nil
}

// selectEngine prefers the primary engine and falls back when it is not
// installed on this host.
func (p *Pipeline) selectEngine() (Engine, error) {
	if p.engine.Available() {
		return p.engine, nil
	}
	if p.fallback != nil && p.fallback.Available() {
		p.logger.Warn("primary OCR engine unavailable, using fallback",
			"primary", p.engine.Name(), "fallback", p.fallback.Name())
		return p.fallback, nil
	}
	return nil, fmt.Errorf("nougat is not available on this host: install nougat-ocr " +
		"or set nougat_command in the settings file")
}

// rawMarkup returns the engine output, consulting the cache when enabled.
// The cache stores raw markup only; conversion always reruns so that flag
// changes take effect on cached documents.
func (p *Pipeline) rawMarkup(ctx context.Context, engine Engine, path string) (string, bool, error) {
	var key string
	if p.cache != nil {
		sum, err := fileSHA256(path)
		if err != nil {
			return "", false, fmt.Errorf("hash %s: %w", path, err)
		}
		key = engine.Name() + ":" + sum
		if markup, ok, err := p.cache.Get(ctx, key); err != nil {
			p.logger.Warn("cache read failed", "error", err)
		} else if ok {
			p.logger.Debug("cache hit", "path", path)
			return markup, true, nil
		}
	}

	markup, err := engine.Run(ctx, path)
	if err != nil {
		return "", false, err
	}

	if p.cache != nil {
		if err := p.cache.Put(ctx, key, markup); err != nil {
			p.logger.Warn("cache write failed", "error", err)
		}
	}
	return markup, false, nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
