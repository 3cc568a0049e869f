package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validTestConfig(t *testing.T) *Config {
	t.Helper()
	base := t.TempDir()
	records := filepath.Join(base, "records")
	images := filepath.Join(base, "images")
	if err := os.MkdirAll(records, 0o750); err != nil {
		t.Fatalf("creating records dir: %v", err)
	}
	if err := os.MkdirAll(images, 0o750); err != nil {
		t.Fatalf("creating images dir: %v", err)
	}

	cfg := DefaultConfig()
	cfg.RecordsDir = records
	cfg.ImagesDir = images
	cfg.CuratedDir = filepath.Join(base, "curated")
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.CanvasMaxWidth != 800 {
		t.Errorf("Expected default canvas width to be 800, got %d", cfg.CanvasMaxWidth)
	}

	if cfg.CanvasMaxHeight != 800 {
		t.Errorf("Expected default canvas height to be 800, got %d", cfg.CanvasMaxHeight)
	}

	if cfg.Schema != "auto" {
		t.Errorf("Expected default schema to be 'auto', got '%s'", cfg.Schema)
	}

	if cfg.Version != "1.0.0" {
		t.Errorf("Expected default version to be '1.0.0', got '%s'", cfg.Version)
	}

	if cfg.ServerName != "invoice-curator" {
		t.Errorf("Expected default server name to be 'invoice-curator', got '%s'", cfg.ServerName)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level to be 'info', got '%s'", cfg.LogLevel)
	}

	if cfg.MaxFileSize != 100*1024*1024 {
		t.Errorf("Expected default max file size to be 100MB, got %d", cfg.MaxFileSize)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "empty records directory",
			mutate:  func(c *Config) { c.RecordsDir = "" },
			wantErr: true,
		},
		{
			name:    "missing records directory",
			mutate:  func(c *Config) { c.RecordsDir = "/nonexistent/records" },
			wantErr: true,
		},
		{
			name:    "missing images directory",
			mutate:  func(c *Config) { c.ImagesDir = "/nonexistent/images" },
			wantErr: true,
		},
		{
			name:    "empty curated directory",
			mutate:  func(c *Config) { c.CuratedDir = "" },
			wantErr: true,
		},
		{
			name:    "zero canvas width",
			mutate:  func(c *Config) { c.CanvasMaxWidth = 0 },
			wantErr: true,
		},
		{
			name:    "negative canvas height",
			mutate:  func(c *Config) { c.CanvasMaxHeight = -1 },
			wantErr: true,
		},
		{
			name:    "invalid schema",
			mutate:  func(c *Config) { c.Schema = "csv" },
			wantErr: true,
		},
		{
			name:    "legacy schema accepted",
			mutate:  func(c *Config) { c.Schema = "legacy" },
			wantErr: false,
		},
		{
			name:    "object schema accepted",
			mutate:  func(c *Config) { c.Schema = "object" },
			wantErr: false,
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: true,
		},
		{
			name:    "zero max file size",
			mutate:  func(c *Config) { c.MaxFileSize = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig(t)
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Errorf("expected error but got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestConfigValidate_CreatesCuratedDir(t *testing.T) {
	cfg := validTestConfig(t)

	if _, err := os.Stat(cfg.CuratedDir); !os.IsNotExist(err) {
		t.Fatalf("curated dir should not exist yet")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(cfg.CuratedDir); err != nil {
		t.Errorf("curated dir was not created: %v", err)
	}
}

func TestConfigString(t *testing.T) {
	cfg := DefaultConfig()
	s := cfg.String()
	if s == "" {
		t.Error("String() returned empty string")
	}
}

func TestIsDebug(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.IsDebug() {
		t.Error("default config should not be in debug mode")
	}
	cfg.LogLevel = "debug"
	if !cfg.IsDebug() {
		t.Error("debug log level should enable debug mode")
	}
}
