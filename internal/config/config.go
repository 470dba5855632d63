// Package config loads the optional sbasic settings file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the settings file looked up in the current directory.
const FileName = ".sbasic.yaml"

// Config holds user settings. Command-line flags override them.
type Config struct {
	Verbose     bool   `yaml:"verbose"`
	Mode        string `yaml:"mode"`
	Breakpoints []int  `yaml:"breakpoints"`
	History     string `yaml:"history"`
	Prompt      string `yaml:"prompt"`
}

// Default returns the settings used when no file is present.
func Default() Config {
	cfg := Config{
		Mode:   "run",
		Prompt: "sb> ",
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		cfg.History = filepath.Join(home, ".sbasic_history")
	}
	return cfg
}

// Load reads path over the defaults. An empty path means FileName in the
// current directory, which may be absent.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = FileName
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML settings over the defaults. Unknown keys are errors.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field values.
func (c Config) Validate() error {
	switch c.Mode {
	case "run", "debug":
	default:
		return fmt.Errorf("mode must be run or debug, got %q", c.Mode)
	}
	for _, line := range c.Breakpoints {
		if line < 1 {
			return fmt.Errorf("breakpoint line %d out of range", line)
		}
	}
	return nil
}
