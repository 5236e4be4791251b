// Package settings resolves server configuration from a settings file.
//
// Resolution order: the path in NOUGAT_MCP_SETTINGS, then ./settings.json,
// then ./settings.yaml. The first existing file wins. A malformed file never
// fails the server: it resolves to defaults, with the source path still
// reported so agents can see where the (ignored) file lives.
package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// EnvVar points at an explicit settings file (JSON or YAML by extension).
	EnvVar = "NOUGAT_MCP_SETTINGS"

	defaultJSONName = "settings.json"
	defaultYAMLName = "settings.yaml"
)

// Output format names recognised by the server.
const (
	FormatMMD = "mmd"
	FormatMD  = "md"
)

// Settings holds the resolved configuration. Every field has a safe default;
// per-key type mismatches in the file fall back to the default for that key.
type Settings struct {
	// DefaultOutputFormat is used when a tool call asks for "default".
	DefaultOutputFormat string

	// RewriteTags and FixSizedDelimiters control the md conversion passes.
	RewriteTags        bool
	FixSizedDelimiters bool

	// NougatCommand is the argv prefix used to invoke the Nougat predictor.
	NougatCommand []string

	// Timeout bounds a single Nougat run.
	Timeout time.Duration

	// CachePath is the SQLite result cache location; empty disables caching.
	CachePath string

	// FallbackTesseract enables the Tesseract engine when Nougat is missing.
	FallbackTesseract bool
}

// Defaults returns the settings used when no file is found.
func Defaults() *Settings {
	return &Settings{
		DefaultOutputFormat: FormatMMD,
		RewriteTags:         true,
		FixSizedDelimiters:  true,
		NougatCommand:       []string{"python3", "-m", "predict"},
		Timeout:             30 * time.Minute,
	}
}

// Load resolves settings from the environment and working directory.
// The returned source is the path of the file that was consulted, or ""
// when none exists.
func Load() (*Settings, string) {
	var candidates []string
	if p := os.Getenv(EnvVar); p != "" {
		candidates = append(candidates, expandHome(p))
	}
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, defaultJSONName), filepath.Join(cwd, defaultYAMLName))
	}
	return load(candidates)
}

func load(candidates []string) (*Settings, string) {
	seen := make(map[string]bool)
	for _, candidate := range candidates {
		key := candidate
		if abs, err := filepath.Abs(candidate); err == nil {
			key = abs
		}
		if seen[key] {
			continue
		}
		seen[key] = true

		data, err := os.ReadFile(candidate)
		if err != nil {
			continue
		}

		raw, err := decode(candidate, data)
		if err != nil {
			// Malformed file: defaults, but still report the source.
			return Defaults(), candidate
		}
		return fromRaw(raw), candidate
	}
	return Defaults(), ""
}

// decode parses the file into a generic map. JSON files may nest everything
// under a "nougat_mcp" key so the settings can live inside a larger file.
func decode(path string, data []byte) (map[string]any, error) {
	var raw map[string]any
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	} else {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	}
	if nested, ok := raw["nougat_mcp"].(map[string]any); ok {
		return nested, nil
	}
	return raw, nil
}

// fromRaw coerces the generic map into Settings, defaulting each key whose
// value is missing or has the wrong type.
func fromRaw(raw map[string]any) *Settings {
	s := Defaults()

	if v, ok := raw["default_output_format"].(string); ok && (v == FormatMMD || v == FormatMD) {
		s.DefaultOutputFormat = v
	}
	if v, ok := raw["md_rewrite_tags"].(bool); ok {
		s.RewriteTags = v
	}
	if v, ok := raw["md_fix_sized_delimiters"].(bool); ok {
		s.FixSizedDelimiters = v
	}
	if v, ok := raw["nougat_command"].([]any); ok {
		var cmd []string
		for _, item := range v {
			str, ok := item.(string)
			if !ok {
				cmd = nil
				break
			}
			cmd = append(cmd, str)
		}
		if len(cmd) > 0 {
			s.NougatCommand = cmd
		}
	}
	if v, ok := raw["timeout"].(string); ok {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			s.Timeout = d
		}
	}
	if v, ok := raw["cache_path"].(string); ok {
		s.CachePath = expandHome(v)
	}
	if v, ok := raw["fallback_tesseract"].(bool); ok {
		s.FallbackTesseract = v
	}

	return s
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
