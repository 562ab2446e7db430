// Package config loads pathfind configuration from a YAML file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file looked up in the working directory
// when --config is not given.
const DefaultFileName = ".pathfind.yaml"

// Config represents pathfind configuration options. CLI flags override
// any value set here.
type Config struct {
	// Exclude lists directory-name globs pruned from every walk
	// (e.g. ".git", "node_modules"). Merged with --exclude flags.
	Exclude []string `yaml:"exclude"`

	// Quiet suppresses warnings for unreadable entries.
	Quiet bool `yaml:"quiet"`

	// NoColor disables colored diagnostics even on a terminal.
	NoColor bool `yaml:"no_color"`

	// LogLevel sets diagnostic verbosity (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	// MaxDepth bounds traversal depth (root = 0). Negative means
	// unbounded.
	MaxDepth int `yaml:"max_depth"`
}

// DefaultConfig returns a Config with sensible default values: no
// excludes, warnings on, color decided by terminal detection, info-level
// diagnostics, unbounded depth.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		MaxDepth: -1,
	}
}

// LoadConfig loads configuration from the specified file path.
// If the file doesn't exist, returns default configuration without error.
// If the file exists but is malformed, returns an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}
