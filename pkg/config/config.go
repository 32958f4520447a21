// Package config loads ralph-jit settings from a YAML file
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by the CLI and the runner
type Config struct {
	Compiler    string        `yaml:"compiler"`     // compiler name or path; empty means search
	CacheDir    string        `yaml:"cache_dir"`    // empty means the per-user cache dir
	Cache       bool          `yaml:"cache"`        // keep compiled executables
	Redeclare   bool          `yaml:"redeclare"`    // declare on every assignment
	MathModules []string      `yaml:"math_modules"` // module names whose functions map to libm
	Timeout     time.Duration `yaml:"timeout"`      // per compile or run, e.g. "30s"
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		MathModules: []string{"math"},
		Timeout:     60 * time.Second,
	}
}

// DefaultPath returns the per-user config file location
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "ralph-jit", "config.yaml")
}

// Load reads the config file at path over the defaults. An empty path
// means DefaultPath, which need not exist.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := Parse(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML data into cfg, rejecting unknown fields
func Parse(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid config: %w", err)
	}
	return cfg.Validate()
}

// Validate checks field values
func (c Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("invalid config: negative timeout %s", c.Timeout)
	}
	if len(c.MathModules) == 0 {
		return errors.New("invalid config: math_modules must not be empty")
	}
	for _, m := range c.MathModules {
		if m == "" {
			return errors.New("invalid config: empty math module name")
		}
	}
	return nil
}
