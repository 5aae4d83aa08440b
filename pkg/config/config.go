// Package config loads the optional sdstatus.yaml settings file.
//
// The file lives at $XDG_CONFIG_HOME/sdstatus/config.yaml (or the platform
// equivalent from os.UserConfigDir). Command-line flags override it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	appDir   = "sdstatus"
	fileName = "config.yaml"
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config holds user defaults.
type Config struct {
	Output        string        `yaml:"output"`
	Color         string        `yaml:"color"`
	Bus           string        `yaml:"bus"`
	Timeout       time.Duration `yaml:"timeout"`
	Concurrency   int           `yaml:"concurrency"`
	WatchInterval time.Duration `yaml:"watch_interval"`
}

// Default returns the settings used when no file is present.
func Default() *Config {
	return &Config{
		Color:         ColorAuto,
		Bus:           "system",
		Timeout:       25 * time.Second,
		WatchInterval: 2 * time.Second,
	}
}

// Path returns the default config file location.
func Path() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: unable to determine config directory: %w", err)
	}
	return filepath.Join(base, appDir, fileName), nil
}

// Load reads the file at path on top of Default. A missing file is not an
// error. An empty path means Path().
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = Path()
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings for values the tool cannot use.
func Validate(c *Config) []error {
	var errs []error

	switch strings.ToLower(c.Output) {
	case "", "table", "json", "structured":
	default:
		errs = append(errs, fmt.Errorf("output must be table or json, got %q", c.Output))
	}

	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		errs = append(errs, fmt.Errorf("color must be auto, always, or never; got %q", c.Color))
	}

	switch c.Bus {
	case "system", "user":
	default:
		errs = append(errs, fmt.Errorf("bus must be system or user, got %q", c.Bus))
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %s", c.Timeout))
	}
	if c.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("concurrency must not be negative, got %d", c.Concurrency))
	}
	if c.WatchInterval <= 0 {
		errs = append(errs, fmt.Errorf("watch_interval must be positive, got %s", c.WatchInterval))
	}

	return errs
}
