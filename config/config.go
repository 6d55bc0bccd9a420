// Package config loads heatmap settings from YAML or TOML files.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/heatmap"
	"periph.io/x/devices/v3/heatmap/keyrgb"
	"periph.io/x/devices/v3/heatmap/strip"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultRows           = 4
	DefaultCols           = 16
	DefaultUpdateInterval = time.Second
	DefaultStripHz        = 4_000_000
	DefaultBrightness     = strip.MaxBrightness
)

// Format is a config file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// Config is the heatmap configuration.
type Config struct {
	// Rows and Cols are the key matrix dimensions.
	Rows int `yaml:"rows" toml:"rows"`
	Cols int `yaml:"cols" toml:"cols"`

	// UpdateInterval is the minimum time between two renders.
	UpdateInterval time.Duration `yaml:"update_interval" toml:"update_interval"`

	// Gradient lists the color stops from cold to hot as hex strings.
	Gradient []string `yaml:"gradient" toml:"gradient"`

	Strip StripConfig `yaml:"strip" toml:"strip"`
	Log   LogConfig   `yaml:"log" toml:"log"`
}

// StripConfig holds the SPI LED chain settings.
type StripConfig struct {
	// SPI is the periph.io SPI port name, empty for the first one.
	SPI string `yaml:"spi" toml:"spi"`

	// Hz is the SPI clock in hertz.
	Hz int64 `yaml:"hz" toml:"hz"`

	// Brightness is the APA102 global brightness, 1-31.
	Brightness uint8 `yaml:"brightness" toml:"brightness"`

	// Serpentine reverses every odd row of the chain.
	Serpentine bool `yaml:"serpentine" toml:"serpentine"`
}

// LogConfig selects the log level and handler.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" toml:"level"`

	// Format is text or json.
	Format string `yaml:"format" toml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Rows == 0 {
		c.Rows = DefaultRows
	}
	if c.Cols == 0 {
		c.Cols = DefaultCols
	}
	if c.UpdateInterval == 0 {
		c.UpdateInterval = DefaultUpdateInterval
	}
	if len(c.Gradient) == 0 {
		c.Gradient = keyrgb.DefaultGradient.Hex()
	}
	if c.Strip.Hz == 0 {
		c.Strip.Hz = DefaultStripHz
	}
	if c.Strip.Brightness == 0 {
		c.Strip.Brightness = DefaultBrightness
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// FormatOf returns the format matching the file extension of path.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("config: unsupported file extension %q", filepath.Ext(path))
	}
}

// Load reads, decodes and validates the config file at path.
func Load(path string) (*Config, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data, format)
}

// Parse decodes and validates a config document.
func Parse(data []byte, format Format) (*Config, error) {
	cfg := &Config{}
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	case FormatTOML:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("config: parse toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("config: unknown format %q", format)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the heatmap cannot use.
func (c *Config) Validate() error {
	var errs []error
	if c.Rows <= 0 || c.Cols <= 0 {
		errs = append(errs, fmt.Errorf("rows and cols must be positive, got %dx%d", c.Rows, c.Cols))
	}
	if c.UpdateInterval < time.Millisecond || c.UpdateInterval > heatmap.MaxUpdateInterval {
		errs = append(errs, fmt.Errorf("update_interval must be between 1ms and %v, got %v", heatmap.MaxUpdateInterval, c.UpdateInterval))
	}
	if _, err := keyrgb.ParseGradient(c.Gradient...); err != nil {
		errs = append(errs, fmt.Errorf("gradient: %w", err))
	}
	if c.Strip.Hz < 0 {
		errs = append(errs, fmt.Errorf("strip.hz must not be negative, got %d", c.Strip.Hz))
	}
	if c.Strip.Brightness > strip.MaxBrightness {
		errs = append(errs, fmt.Errorf("strip.brightness must be between 1 and %d, got %d", strip.MaxBrightness, c.Strip.Brightness))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// ParsedGradient returns the gradient as colors.
func (c *Config) ParsedGradient() (keyrgb.Gradient, error) {
	return keyrgb.ParseGradient(c.Gradient...)
}

// EngineOpts returns the heatmap engine options for this configuration.
func (c *Config) EngineOpts(logger *slog.Logger) (*heatmap.Opts, error) {
	g, err := c.ParsedGradient()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &heatmap.Opts{
		Rows:           c.Rows,
		Cols:           c.Cols,
		Gradient:       g,
		UpdateInterval: c.UpdateInterval,
		Logger:         logger,
	}, nil
}

// StripOpts returns the LED chain options for this configuration.
func (c *Config) StripOpts() *strip.Opts {
	return &strip.Opts{
		Rows:       c.Rows,
		Cols:       c.Cols,
		Serpentine: c.Strip.Serpentine,
		Brightness: c.Strip.Brightness,
		Hz:         physic.Frequency(c.Strip.Hz) * physic.Hertz,
	}
}

// NewLogger returns a slog logger writing to w with the configured level
// and format.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if c.Log.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler).With("component", "heatmap")
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log.level must be debug, info, warn or error, got %q", s)
	}
}
