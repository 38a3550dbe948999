// Package config loads wodwiki settings from CUE or YAML files with
// WODWIKI_* environment overrides.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Config holds the runner settings.
type Config struct {
	Tick      time.Duration // driver cadence
	Journal   string        // SQLite journal path; empty disables recording
	ExportDir string        // directory for Markdown exports
	LogLevel  string        // debug, info, warn or error
	Format    string        // text or json
}

// fileConfig is the on-disk shape shared by CUE and YAML.
type fileConfig struct {
	Tick      string `json:"tick,omitempty" yaml:"tick"`
	Journal   string `json:"journal,omitempty" yaml:"journal"`
	ExportDir string `json:"export_dir,omitempty" yaml:"export_dir"`
	LogLevel  string `json:"log_level,omitempty" yaml:"log_level"`
	Format    string `json:"format,omitempty" yaml:"format"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Tick:      100 * time.Millisecond,
		Journal:   "",
		ExportDir: ".",
		LogLevel:  "info",
		Format:    "text",
	}
}

// Load reads a config file over the defaults, then applies environment
// variable overrides:
//
//	WODWIKI_TICK, WODWIKI_JOURNAL, WODWIKI_EXPORT_DIR,
//	WODWIKI_LOG_LEVEL, WODWIKI_FORMAT
//
// An empty path skips the file. Files ending in .cue are checked against
// the embedded schema; .yaml and .yml files reject unknown keys.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		fc, err := readFile(path)
		if err != nil {
			return nil, err
		}
		if err := cfg.apply(fc); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func readFile(path string) (fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("reading config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".cue":
		return decodeCUE(path, data)
	case ".yaml", ".yml":
		return decodeYAML(data)
	default:
		return fileConfig{}, fmt.Errorf("unsupported config format %q", ext)
	}
}

// decodeCUE unifies the file with #Config so unknown fields and bad values
// fail with CUE positions.
func decodeCUE(path string, data []byte) (fileConfig, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fileConfig{}, fmt.Errorf("compiling config schema: %w", err)
	}

	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return fileConfig{}, fmt.Errorf("parsing config file: %s", formatCUEError(err))
	}

	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fileConfig{}, fmt.Errorf("config schema: %s", formatCUEError(err))
	}

	var fc fileConfig
	if err := unified.Decode(&fc); err != nil {
		return fileConfig{}, fmt.Errorf("decoding config file: %w", err)
	}
	return fc, nil
}

func decodeYAML(data []byte) (fileConfig, error) {
	var fc fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil {
		// An empty document is a valid, empty config.
		if errors.Is(err, io.EOF) {
			return fileConfig{}, nil
		}
		return fileConfig{}, fmt.Errorf("parsing config file: %w", err)
	}
	return fc, nil
}

func formatCUEError(err error) string {
	return strings.TrimSpace(cueerrors.Details(err, nil))
}

func (c *Config) apply(fc fileConfig) error {
	if fc.Tick != "" {
		d, err := time.ParseDuration(fc.Tick)
		if err != nil {
			return fmt.Errorf("tick: %w", err)
		}
		c.Tick = d
	}
	if fc.Journal != "" {
		c.Journal = fc.Journal
	}
	if fc.ExportDir != "" {
		c.ExportDir = fc.ExportDir
	}
	if fc.LogLevel != "" {
		c.LogLevel = fc.LogLevel
	}
	if fc.Format != "" {
		c.Format = fc.Format
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("WODWIKI_TICK"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("WODWIKI_TICK: %w", err)
		}
		cfg.Tick = d
	}
	if v := os.Getenv("WODWIKI_JOURNAL"); v != "" {
		cfg.Journal = v
	}
	if v := os.Getenv("WODWIKI_EXPORT_DIR"); v != "" {
		cfg.ExportDir = v
	}
	if v := os.Getenv("WODWIKI_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("WODWIKI_FORMAT"); v != "" {
		cfg.Format = v
	}
	return nil
}

func (c *Config) validate() error {
	if c.Tick <= 0 {
		return fmt.Errorf("tick must be positive, got %s", c.Tick)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.Format {
	case "text", "json":
	default:
		return fmt.Errorf("format must be text or json, got %q", c.Format)
	}
	if c.ExportDir == "" {
		return fmt.Errorf("export_dir is required")
	}
	return nil
}

// Level returns LogLevel as a slog level.
func (c *Config) Level() slog.Level {
	l, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return l
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log_level must be debug, info, warn or error, got %q", s)
}
