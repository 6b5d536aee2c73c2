// Package config provides configuration loading and management for
// lesionshape. It handles loading configuration from YAML files and provides
// default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"lesionshape/pkg/features"
	"lesionshape/pkg/normalize"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Window normalization parameters
	Normalize struct {
		// Margin is added to the largest centroid-to-border distance
		Margin int `yaml:"margin"`

		// ClampPolicy is "shared" or "perAxis"
		ClampPolicy string `yaml:"clampPolicy"`
	} `yaml:"normalize"`

	// Feature selection
	Features struct {
		// Enabled lists the features computed by default, in output order
		Enabled []string `yaml:"enabled"`
	} `yaml:"features"`

	// Output parameters
	Output struct {
		// LogLevel is one of debug, info, warn, error
		LogLevel string `yaml:"logLevel"`

		// Verbose logs every intermediate array summary
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Normalize.Margin = normalize.DefaultMargin
	cfg.Normalize.ClampPolicy = normalize.ClampShared.String()

	for _, f := range features.All() {
		cfg.Features.Enabled = append(cfg.Features.Enabled, f.String())
	}

	cfg.Output.LogLevel = "info"
	cfg.Output.Verbose = false

	return cfg
}

// Validate checks that every value is usable.
func (c *Config) Validate() error {
	if c.Normalize.Margin < 0 {
		return fmt.Errorf("normalize.margin must be >= 0 (got %d)", c.Normalize.Margin)
	}
	if _, err := normalize.ParseClampPolicy(c.Normalize.ClampPolicy); err != nil {
		return fmt.Errorf("normalize.clampPolicy: %w", err)
	}
	if len(c.Features.Enabled) == 0 {
		return fmt.Errorf("features.enabled must list at least one feature")
	}
	for _, name := range c.Features.Enabled {
		if _, err := features.Parse(name); err != nil {
			return fmt.Errorf("features.enabled: %w", err)
		}
	}
	return nil
}

// NormalizeOptions converts the normalize section into normalizer options.
func (c *Config) NormalizeOptions() (normalize.Options, error) {
	policy, err := normalize.ParseClampPolicy(c.Normalize.ClampPolicy)
	if err != nil {
		return normalize.Options{}, err
	}
	opts := normalize.DefaultOptions().WithClamp(policy)
	opts.Margin = c.Normalize.Margin
	return opts, nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
