// Package nougat invokes the Nougat OCR predictor as a subprocess.
//
// Nougat writes a .mmd artifact named after the input PDF into the output
// directory, but its naming is not fully predictable (suffixes, odd stems
// when the PDF name contains dots). Run therefore reads the expected
// artifact first and falls back to a recursive scan for any *.mmd file.
package nougat

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Config configures a Runner.
type Config struct {
	// Command is the argv prefix that launches the predictor,
	// e.g. ["python3", "-m", "predict"]. Run appends the PDF path and
	// "--out <dir>".
	Command []string

	// Timeout bounds one run. The first run may also download model
	// weights (~1.4 GB), so keep this generous (default: 30m).
	Timeout time.Duration

	// Logger for debug/warn messages.
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if len(c.Command) == 0 {
		c.Command = []string{"python3", "-m", "predict"}
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Minute
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Runner executes the Nougat predictor.
type Runner struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Runner with the given configuration.
func New(cfg Config) *Runner {
	cfg.defaults()
	return &Runner{cfg: cfg, logger: cfg.Logger}
}

// Name identifies the engine.
func (r *Runner) Name() string { return "nougat" }

// Available reports whether the configured command binary is resolvable.
func (r *Runner) Available() bool {
	_, err := exec.LookPath(r.cfg.Command[0])
	return err == nil
}

// Run OCRs a PDF and returns the raw mmd markup.
func (r *Runner) Run(ctx context.Context, pdfPath string) (string, error) {
	outDir, err := os.MkdirTemp("", "nougat-mcp-*")
	if err != nil {
		return "", fmt.Errorf("temp dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	args := append(append([]string{}, r.cfg.Command[1:]...), pdfPath, "--out", outDir)
	cmd := exec.CommandContext(ctx, r.cfg.Command[0], args...)
	cmd.Stdout = io.Discard
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	// The predictor forks workers that inherit stderr; killing only the
	// parent would leave Wait blocked on the open pipe until they exit.
	// Kill the whole process group and give Wait a hard deadline.
	cmd.WaitDelay = 5 * time.Second
	setProcessGroup(cmd)

	r.logger.Debug("running nougat", "pdf", pdfPath, "out", outDir)
	start := time.Now()
	if err := cmd.Run(); err != nil {
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return "", fmt.Errorf("nougat timed out after %s: %w", r.cfg.Timeout, ctx.Err())
		case ctx.Err() != nil:
			return "", fmt.Errorf("nougat cancelled: %w", ctx.Err())
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("running nougat: %s", msg)
	}
	r.logger.Debug("nougat finished", "pdf", pdfPath, "elapsed", time.Since(start))

	stem := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	expected := filepath.Join(outDir, stem+".mmd")
	if data, err := os.ReadFile(expected); err == nil {
		return string(data), nil
	}

	// Expected name missing: scan for any .mmd artifact.
	found, err := findArtifact(outDir)
	if err != nil {
		return "", fmt.Errorf("nougat succeeded but no .mmd artifact was found in %s", outDir)
	}
	r.logger.Warn("expected artifact missing, using fallback", "expected", expected, "found", found)
	data, err := os.ReadFile(found)
	if err != nil {
		return "", fmt.Errorf("read artifact %s: %w", found, err)
	}
	return string(data), nil
}

// findArtifact returns the first *.mmd file under dir, walking recursively.
func findArtifact(dir string) (string, error) {
	var found string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".mmd") {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", fmt.Errorf("no .mmd file under %s", dir)
	}
	return found, nil
}
