package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned an error for a missing file: %v", err)
	}
	if *cfg != *Default() {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := []byte("log_level = \"debug\"\nmax_frames_in_flight = 3\n")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("writing fixture config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.MaxFramesInFlight != 3 {
		t.Errorf("MaxFramesInFlight = %d, want 3", cfg.MaxFramesInFlight)
	}
	// Fields absent from the file keep their defaults.
	if cfg.Debug != Default().Debug {
		t.Errorf("Debug = %v, want default %v", cfg.Debug, Default().Debug)
	}
}

func TestWatcherLoadsInitialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("log_level = \"warn\"\n"), 0o644); err != nil {
		t.Fatalf("writing fixture config: %v", err)
	}

	w, err := NewWatcher(path)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	if w.Current().LogLevel != "warn" {
		t.Errorf("Current().LogLevel = %q, want warn", w.Current().LogLevel)
	}
}
