package ocr

import (
	"log/slog"

	"github.com/svretina/nougat-mcp/settings"
)

// Config configures the parse pipeline.
type Config struct {
	// Settings are the resolved server settings (conversion flags, default
	// output format, cache path, engine command).
	Settings *settings.Settings

	// SettingsSource is the file the settings came from ("" if defaults).
	SettingsSource string

	// MaxFileSize is the largest PDF accepted (default: 100 MB).
	MaxFileSize int64

	// Engine overrides the primary engine; nil builds a Nougat runner from
	// Settings. Mainly for tests.
	Engine Engine

	// Fallback overrides the fallback engine; nil builds one from Settings.
	Fallback Engine

	// Logger for debug/error messages.
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Settings == nil {
		c.Settings = settings.Defaults()
	}
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 100 * 1024 * 1024
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
