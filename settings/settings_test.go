package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_NoFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvVar, "")

	s, source := Load()
	if source != "" {
		t.Errorf("source = %q, want empty", source)
	}
	if s.DefaultOutputFormat != FormatMMD {
		t.Errorf("DefaultOutputFormat = %q, want %q", s.DefaultOutputFormat, FormatMMD)
	}
	if !s.RewriteTags || !s.FixSizedDelimiters {
		t.Error("conversion flags should default to true")
	}
	if s.Timeout != 30*time.Minute {
		t.Errorf("Timeout = %v, want 30m", s.Timeout)
	}
}

func TestLoad_EnvVarWins(t *testing.T) {
	// WHAT: NOUGAT_MCP_SETTINGS takes precedence over ./settings.json.
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, dir, "settings.json", `{"default_output_format": "mmd"}`)
	envPath := writeFile(t, t.TempDir(), "other.json", `{"default_output_format": "md"}`)
	t.Setenv(EnvVar, envPath)

	s, source := Load()
	if source != envPath {
		t.Errorf("source = %q, want %q", source, envPath)
	}
	if s.DefaultOutputFormat != FormatMD {
		t.Errorf("DefaultOutputFormat = %q, want md", s.DefaultOutputFormat)
	}
}

func TestLoad_CwdJSON(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(EnvVar, "")
	writeFile(t, dir, "settings.json",
		`{"default_output_format": "md", "md_rewrite_tags": false, "cache_path": "/tmp/nougat.db"}`)

	s, source := Load()
	if filepath.Base(source) != "settings.json" {
		t.Errorf("source = %q, want settings.json", source)
	}
	if s.DefaultOutputFormat != FormatMD {
		t.Errorf("DefaultOutputFormat = %q, want md", s.DefaultOutputFormat)
	}
	if s.RewriteTags {
		t.Error("RewriteTags should be false")
	}
	if !s.FixSizedDelimiters {
		t.Error("FixSizedDelimiters should keep its default true")
	}
	if s.CachePath != "/tmp/nougat.db" {
		t.Errorf("CachePath = %q", s.CachePath)
	}
}

func TestLoad_CwdYAML(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(EnvVar, "")
	writeFile(t, dir, "settings.yaml", "default_output_format: md\ntimeout: 5m\nfallback_tesseract: true\n")

	s, source := Load()
	if filepath.Base(source) != "settings.yaml" {
		t.Errorf("source = %q, want settings.yaml", source)
	}
	if s.DefaultOutputFormat != FormatMD {
		t.Errorf("DefaultOutputFormat = %q, want md", s.DefaultOutputFormat)
	}
	if s.Timeout != 5*time.Minute {
		t.Errorf("Timeout = %v, want 5m", s.Timeout)
	}
	if !s.FallbackTesseract {
		t.Error("FallbackTesseract should be true")
	}
}

func TestLoad_NestedKey(t *testing.T) {
	// WHAT: Settings may live under a "nougat_mcp" key inside a larger file.
	dir := t.TempDir()
	path := writeFile(t, dir, "shared.json",
		`{"other_tool": {"x": 1}, "nougat_mcp": {"default_output_format": "md"}}`)
	t.Setenv(EnvVar, path)

	s, _ := Load()
	if s.DefaultOutputFormat != FormatMD {
		t.Errorf("DefaultOutputFormat = %q, want md", s.DefaultOutputFormat)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	// WHAT: A broken file resolves to defaults with the source still reported.
	// WHY: A typo in settings.json must not take the whole server down.
	dir := t.TempDir()
	path := writeFile(t, dir, "broken.json", `{"default_output_format": `)
	t.Setenv(EnvVar, path)

	s, source := Load()
	if source != path {
		t.Errorf("source = %q, want %q", source, path)
	}
	if s.DefaultOutputFormat != FormatMMD {
		t.Errorf("DefaultOutputFormat = %q, want default mmd", s.DefaultOutputFormat)
	}
}

func TestLoad_WrongTypes(t *testing.T) {
	// WHAT: Per-key type mismatches fall back to that key's default.
	// WHY: The original contract defaults non-boolean flag values to true.
	dir := t.TempDir()
	path := writeFile(t, dir, "types.json",
		`{"md_rewrite_tags": "yes", "md_fix_sized_delimiters": 1, "default_output_format": "docx", "timeout": "soon"}`)
	t.Setenv(EnvVar, path)

	s, _ := Load()
	if !s.RewriteTags || !s.FixSizedDelimiters {
		t.Error("non-boolean flag values should default to true")
	}
	if s.DefaultOutputFormat != FormatMMD {
		t.Errorf("unrecognised format should default to mmd, got %q", s.DefaultOutputFormat)
	}
	if s.Timeout != 30*time.Minute {
		t.Errorf("unparseable timeout should keep default, got %v", s.Timeout)
	}
}

func TestLoad_NougatCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "cmd.json", `{"nougat_command": ["nougat"]}`)
	t.Setenv(EnvVar, path)

	s, _ := Load()
	if len(s.NougatCommand) != 1 || s.NougatCommand[0] != "nougat" {
		t.Errorf("NougatCommand = %v", s.NougatCommand)
	}
}
