package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/curalab/invoice-curator/internal/annotation"
)

const (
	// Default values
	DefaultCanvasWidth  = 800
	DefaultCanvasHeight = 800
	DefaultLogLevel     = "info"
	DefaultMaxFileSize  = 100 * 1024 * 1024 // 100MB
	DefaultSchema       = string(annotation.SchemaAuto)

	// Directory permissions
	DefaultDirPerm = 0o750
)

// Config holds all configuration for the invoice curator.
type Config struct {
	// Store configuration
	RecordsDir string // pending store root, one subdirectory per label
	CuratedDir string // curated store root, mirrors the label layout
	ImagesDir  string // invoice images and PDFs
	Label      string // optional label preselection

	// Canvas configuration
	CanvasMaxWidth  int
	CanvasMaxHeight int

	// Persistence schema: "legacy", "object" or "auto"
	Schema string

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		RecordsDir:      filepath.Join(currentDir, "records"),
		CuratedDir:      filepath.Join(currentDir, "curated"),
		ImagesDir:       filepath.Join(currentDir, "images"),
		CanvasMaxWidth:  DefaultCanvasWidth,
		CanvasMaxHeight: DefaultCanvasHeight,
		Schema:          DefaultSchema,
		Version:         "1.0.0",
		ServerName:      "invoice-curator",
		LogLevel:        DefaultLogLevel,
		MaxFileSize:     DefaultMaxFileSize,
	}
}

// LoadFromFlags parses command line flags and returns a configuration.
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	// Expand paths if needed
	for _, dir := range []*string{&cfg.RecordsDir, &cfg.CuratedDir, &cfg.ImagesDir} {
		if *dir != "" {
			if expandedPath, err := filepath.Abs(*dir); err == nil {
				*dir = expandedPath
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults.
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix("CURATOR")
	viper.AutomaticEnv()

	viper.SetDefault("records", cfg.RecordsDir)
	viper.SetDefault("curated", cfg.CuratedDir)
	viper.SetDefault("images", cfg.ImagesDir)
	viper.SetDefault("label", cfg.Label)
	viper.SetDefault("canvaswidth", cfg.CanvasMaxWidth)
	viper.SetDefault("canvasheight", cfg.CanvasMaxHeight)
	viper.SetDefault("schema", cfg.Schema)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
}

// defineCommandLineFlags sets up all command line flags.
func defineCommandLineFlags(cfg *Config) {
	pflag.String("records", cfg.RecordsDir, "Pending records directory (one subdirectory per label)")
	pflag.String("curated", cfg.CuratedDir, "Curated output directory")
	pflag.String("images", cfg.ImagesDir, "Directory containing invoice images and PDFs")
	pflag.String("label", cfg.Label, "Label to review (empty lets the shell pick one)")
	pflag.Int("canvaswidth", cfg.CanvasMaxWidth, "Maximum canvas width in pixels")
	pflag.Int("canvasheight", cfg.CanvasMaxHeight, "Maximum canvas height in pixels")
	pflag.String("schema", cfg.Schema, "Persistence schema: legacy, object or auto")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum document file size in bytes")
}

// bindFlagsToViper binds command line flags to viper configuration.
func bindFlagsToViper() {
	_ = viper.BindPFlag("records", pflag.Lookup("records"))
	_ = viper.BindPFlag("curated", pflag.Lookup("curated"))
	_ = viper.BindPFlag("images", pflag.Lookup("images"))
	_ = viper.BindPFlag("label", pflag.Lookup("label"))
	_ = viper.BindPFlag("canvaswidth", pflag.Lookup("canvaswidth"))
	_ = viper.BindPFlag("canvasheight", pflag.Lookup("canvasheight"))
	_ = viper.BindPFlag("schema", pflag.Lookup("schema"))
	_ = viper.BindPFlag("loglevel", pflag.Lookup("loglevel"))
	_ = viper.BindPFlag("maxfilesize", pflag.Lookup("maxfilesize"))
}

// setupUsageMessage configures the custom usage message.
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nInvoice Curator - review machine-extracted invoice annotations\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --records=./records --images=./invoices\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --records=./records --images=./invoices --label=invoice_number\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --schema=object --canvaswidth=1024 --canvasheight=768\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  CURATOR_RECORDS      Pending records directory\n")
		fmt.Fprintf(os.Stderr, "  CURATOR_CURATED      Curated output directory\n")
		fmt.Fprintf(os.Stderr, "  CURATOR_IMAGES       Invoice images directory\n")
		fmt.Fprintf(os.Stderr, "  CURATOR_LABEL        Label to review\n")
		fmt.Fprintf(os.Stderr, "  CURATOR_SCHEMA       Persistence schema\n")
		fmt.Fprintf(os.Stderr, "  CURATOR_LOGLEVEL     Log level\n")
		fmt.Fprintf(os.Stderr, "  CURATOR_MAXFILESIZE  Maximum file size\n")
	}
}

// checkVersionFlag checks if version flag was requested.
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper.
func populateConfigFromViper(cfg *Config) {
	cfg.RecordsDir = viper.GetString("records")
	cfg.CuratedDir = viper.GetString("curated")
	cfg.ImagesDir = viper.GetString("images")
	cfg.Label = viper.GetString("label")
	cfg.CanvasMaxWidth = viper.GetInt("canvaswidth")
	cfg.CanvasMaxHeight = viper.GetInt("canvasheight")
	cfg.Schema = viper.GetString("schema")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.RecordsDir == "" {
		return errors.New("records directory cannot be empty")
	}
	if _, err := os.Stat(c.RecordsDir); err != nil {
		return fmt.Errorf("cannot access records directory %s: %w", c.RecordsDir, err)
	}

	if c.ImagesDir == "" {
		return errors.New("images directory cannot be empty")
	}
	if _, err := os.Stat(c.ImagesDir); err != nil {
		return fmt.Errorf("cannot access images directory %s: %w", c.ImagesDir, err)
	}

	// The curated directory is created on demand.
	if c.CuratedDir == "" {
		return errors.New("curated directory cannot be empty")
	}
	if _, err := os.Stat(c.CuratedDir); os.IsNotExist(err) {
		if err := os.MkdirAll(c.CuratedDir, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create curated directory %s: %w", c.CuratedDir, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access curated directory %s: %w", c.CuratedDir, err)
	}

	if c.CanvasMaxWidth <= 0 || c.CanvasMaxHeight <= 0 {
		return errors.New("canvas bounds must be positive")
	}

	switch annotation.Schema(c.Schema) {
	case annotation.SchemaLegacy, annotation.SchemaObject, annotation.SchemaAuto:
	default:
		return fmt.Errorf("invalid schema: %s (must be one of: legacy, object, auto)", c.Schema)
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// IsDebug returns true if debug logging is enabled.
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{RecordsDir: %s, CuratedDir: %s, ImagesDir: %s, Label: %s, Canvas: %dx%d, Schema: %s, LogLevel: %s}",
		c.RecordsDir, c.CuratedDir, c.ImagesDir, c.Label,
		c.CanvasMaxWidth, c.CanvasMaxHeight, c.Schema, c.LogLevel)
}
