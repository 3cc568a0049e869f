package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Helper function to reset pflag.CommandLine for testing
func resetFlags() {
	pflag.CommandLine = pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	viper.Reset()
}

// Helper function to clear environment variables
func clearEnvVars() {
	os.Unsetenv("CURATOR_RECORDS")
	os.Unsetenv("CURATOR_CURATED")
	os.Unsetenv("CURATOR_IMAGES")
	os.Unsetenv("CURATOR_LABEL")
	os.Unsetenv("CURATOR_SCHEMA")
	os.Unsetenv("CURATOR_LOGLEVEL")
	os.Unsetenv("CURATOR_MAXFILESIZE")
}

func TestLoadFromFlags_WithFlags(t *testing.T) {
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
		resetFlags()
		clearEnvVars()
	}()

	base := t.TempDir()
	records := filepath.Join(base, "records")
	images := filepath.Join(base, "images")
	curated := filepath.Join(base, "curated")
	if err := os.MkdirAll(records, 0o750); err != nil {
		t.Fatalf("creating records dir: %v", err)
	}
	if err := os.MkdirAll(images, 0o750); err != nil {
		t.Fatalf("creating images dir: %v", err)
	}

	os.Args = []string{
		"invoice-curator",
		"--records=" + records,
		"--images=" + images,
		"--curated=" + curated,
		"--label=invoice_number",
		"--schema=object",
		"--canvaswidth=1024",
		"--canvasheight=768",
	}
	resetFlags()
	clearEnvVars()

	cfg, err := LoadFromFlags()
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.RecordsDir != records {
		t.Errorf("RecordsDir = %s, want %s", cfg.RecordsDir, records)
	}
	if cfg.Label != "invoice_number" {
		t.Errorf("Label = %s, want invoice_number", cfg.Label)
	}
	if cfg.Schema != "object" {
		t.Errorf("Schema = %s, want object", cfg.Schema)
	}
	if cfg.CanvasMaxWidth != 1024 || cfg.CanvasMaxHeight != 768 {
		t.Errorf("canvas bounds = %dx%d, want 1024x768", cfg.CanvasMaxWidth, cfg.CanvasMaxHeight)
	}
	if _, err := os.Stat(curated); err != nil {
		t.Errorf("curated dir was not created: %v", err)
	}
}

func TestLoadFromFlags_InvalidSchema(t *testing.T) {
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
		resetFlags()
		clearEnvVars()
	}()

	base := t.TempDir()
	records := filepath.Join(base, "records")
	images := filepath.Join(base, "images")
	if err := os.MkdirAll(records, 0o750); err != nil {
		t.Fatalf("creating records dir: %v", err)
	}
	if err := os.MkdirAll(images, 0o750); err != nil {
		t.Fatalf("creating images dir: %v", err)
	}

	os.Args = []string{
		"invoice-curator",
		"--records=" + records,
		"--images=" + images,
		"--schema=yaml",
	}
	resetFlags()
	clearEnvVars()

	if _, err := LoadFromFlags(); err == nil {
		t.Fatal("expected error for invalid schema")
	}
}

func TestLoadFromFlags_VersionRequested(t *testing.T) {
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
		resetFlags()
		clearEnvVars()
	}()

	os.Args = []string{"invoice-curator", "--version"}
	resetFlags()
	clearEnvVars()

	if _, err := LoadFromFlags(); err == nil {
		t.Fatal("expected version-requested error")
	}
}
