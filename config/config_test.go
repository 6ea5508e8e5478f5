package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
)

func TestLoadDefaultsWhenMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Rescale.Center != 64 || cfg.Rescale.Offset != 64 || cfg.Rescale.Scale != 1 {
		t.Errorf("unexpected rescale defaults %+v", cfg.Rescale)
	}
	if cfg.LogLevel() != log.WarnLevel {
		t.Errorf("expected warn level, got %v", cfg.LogLevel())
	}
}

func TestSaveThenLoad(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := DefaultConfig()
	cfg.Log.Level = "debug"
	cfg.Workers = 4
	cfg.RememberFile("song.mid")
	if err := cfg.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(home, ".config", "midiedit", "config.json")); err != nil {
		t.Fatalf("config file missing: %v", err)
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Workers != 4 || got.LogLevel() != log.DebugLevel {
		t.Errorf("round trip lost fields: %+v", got)
	}
	if !filepath.IsAbs(got.UI.LastFile) {
		t.Errorf("expected absolute last file, got %q", got.UI.LastFile)
	}
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".config", "midiedit")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"workers": 2}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Workers != 2 {
		t.Errorf("expected 2 workers, got %d", cfg.Workers)
	}
	if cfg.Rescale.Center != 64 || cfg.UI.RollWidth != 64 {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadRejectsBadJSON(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".config", "midiedit")
	os.MkdirAll(dir, 0755)
	os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{`), 0644)

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for malformed config")
	}
}
