package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Processing.NumCores != runtime.NumCPU() {
		t.Errorf("Expected NumCores %d, got %d", runtime.NumCPU(), cfg.Processing.NumCores)
	}
	if cfg.Processing.Bounds != "wrap" {
		t.Errorf("Expected bounds wrap, got %q", cfg.Processing.Bounds)
	}
	if cfg.Output.Format != "png" {
		t.Errorf("Expected format png, got %q", cfg.Output.Format)
	}
}

func TestLoadMissingConfig(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Montage.LabelPosition != "top" {
		t.Errorf("Expected defaults, got label position %q", cfg.Montage.LabelPosition)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	for _, name := range []string{"config.yaml", "config.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			cfg := DefaultConfig()
			cfg.Processing.NumCores = 3
			cfg.Processing.Bounds = "clamp"
			cfg.Montage.Border = 4
			cfg.Montage.DrawLabels = true
			cfg.Log.File = "run.log"

			if err := SaveConfig(cfg, path); err != nil {
				t.Fatalf("SaveConfig: %v", err)
			}
			loaded, err := LoadConfig(path)
			if err != nil {
				t.Fatalf("LoadConfig: %v", err)
			}
			if loaded.Processing.NumCores != 3 {
				t.Errorf("Expected NumCores 3, got %d", loaded.Processing.NumCores)
			}
			if loaded.Processing.Bounds != "clamp" {
				t.Errorf("Expected bounds clamp, got %q", loaded.Processing.Bounds)
			}
			if loaded.Montage.Border != 4 || !loaded.Montage.DrawLabels {
				t.Errorf("Montage section not preserved: %+v", loaded.Montage)
			}
			if loaded.Log.File != "run.log" {
				t.Errorf("Expected log file run.log, got %q", loaded.Log.File)
			}
		})
	}
}

func TestLoadPartialTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.toml")
	src := `
[processing]
num_cores = 2
skip_empty = true

[log]
file = "/tmp/hyperstack.log"
max_log_size = 10
`
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Processing.NumCores != 2 || !cfg.Processing.SkipEmpty {
		t.Errorf("Processing section not loaded: %+v", cfg.Processing)
	}
	if cfg.Log.MaxSize != 10 {
		t.Errorf("Expected max log size 10, got %d", cfg.Log.MaxSize)
	}
	// untouched keys keep their defaults
	if cfg.Output.Format != "png" {
		t.Errorf("Expected default format png, got %q", cfg.Output.Format)
	}
}

func TestLoadInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("processing: [1, 2"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("Expected error for malformed YAML, got nil")
	}
}

func TestCreateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := CreateDefaultConfigFile(path); err != nil {
		t.Fatalf("CreateDefaultConfigFile: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected config file to exist: %v", err)
	}
}
