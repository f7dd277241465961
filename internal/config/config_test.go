package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	input := `
listen = :8080
upload_dir = /srv/polymark/uploads
public_url = "https://labels.example.com/"
log_level: DEBUG
theme = high_contrast

[notify]
export = true
copy = false
upload = true

[unknown]
export = nonsense
`
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Listen != ":8080" {
		t.Errorf("Expected listen ':8080', got '%s'", cfg.Listen)
	}
	if cfg.UploadDir != "/srv/polymark/uploads" {
		t.Errorf("Expected upload_dir '/srv/polymark/uploads', got '%s'", cfg.UploadDir)
	}
	if cfg.PublicURL != "https://labels.example.com" {
		t.Errorf("Expected trailing slash trimmed from public_url, got '%s'", cfg.PublicURL)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected log_level 'debug', got '%s'", cfg.LogLevel)
	}
	if cfg.Theme != "high_contrast" {
		t.Errorf("Expected theme 'high_contrast', got '%s'", cfg.Theme)
	}
	if cfg.Output != DefaultOutput {
		t.Errorf("Expected default output, got '%s'", cfg.Output)
	}
	if !cfg.Notify.Export || cfg.Notify.Copy || !cfg.Notify.Upload {
		t.Errorf("Unexpected notify settings: %+v", cfg.Notify)
	}
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"bad bool":  "[notify]\nexport = maybe\n",
		"bad level": "log_level = loud\n",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(input)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestCircular(t *testing.T) {
	input := `listen = 127.0.0.1:3001
upload_dir = ./data
public_url = http://localhost:3001
output = out.jpeg
log_level = warn

[notify]
export = true
copy = true
upload = false
`
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Initial parse failed: %v", err)
	}

	cfg2, err := Parse(strings.NewReader(cfg.String()))
	if err != nil {
		t.Fatalf("Circular parse failed: %v", err)
	}
	if *cfg != *cfg2 {
		t.Errorf("Config mismatch: %+v vs %+v", cfg, cfg2)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("POLYMARK_LISTEN", ":9000")
	t.Setenv("POLYMARK_PUBLIC_URL", "http://h/")
	cfg := New()
	cfg.ApplyEnv()
	if cfg.Listen != ":9000" {
		t.Errorf("Expected env listen, got %q", cfg.Listen)
	}
	if cfg.PublicURL != "http://h" {
		t.Errorf("Expected env public_url, got %q", cfg.PublicURL)
	}
	if cfg.UploadDir != DefaultUploadDir {
		t.Errorf("Expected default upload_dir, got %q", cfg.UploadDir)
	}
}

func TestLoaderOverrideAndSave(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	l := NewLoader("1.0.0", filepath.Join(home, "missing.rc"))
	cfg, err := l.Load()
	if err != nil {
		t.Fatalf("Load without a file failed: %v", err)
	}
	if *cfg != *New() {
		t.Errorf("Expected defaults, got %+v", cfg)
	}

	cfg.Output = "saved.jpeg"
	path, err := l.Save(cfg)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	want := filepath.Join(home, ".config", "polymark", "config.rc")
	if path != want {
		t.Errorf("Expected save path %q, got %q", want, path)
	}

	loaded, err := NewLoader("1.0.0", "").Load()
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if loaded.Output != "saved.jpeg" {
		t.Errorf("Expected reloaded output, got %q", loaded.Output)
	}

	override := filepath.Join(home, "override.rc")
	if err := os.WriteFile(override, []byte("output = o.jpeg\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	fromOverride, err := NewLoader("1.0.0", override).Load()
	if err != nil {
		t.Fatalf("Override load failed: %v", err)
	}
	if fromOverride.Output != "o.jpeg" {
		t.Errorf("Expected override output, got %q", fromOverride.Output)
	}
}
