// Package config loads coco configuration from .coco/config.yaml.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RegressionConfig tunes the regression detector thresholds.
type RegressionConfig struct {
	// MinDelta is the minimum absolute score drop that counts as a regression
	MinDelta float64 `yaml:"min_delta"`

	// MinPercentChange is the minimum percentage drop that counts as a regression
	MinPercentChange float64 `yaml:"min_percent_change"`

	// ModerateThreshold is the absolute delta at which a regression becomes moderate
	ModerateThreshold float64 `yaml:"moderate_threshold"`

	// SevereThreshold is the absolute delta at which a regression becomes severe
	SevereThreshold float64 `yaml:"severe_threshold"`

	// IgnoreDimensions lists dimensions excluded from comparison
	IgnoreDimensions []string `yaml:"ignore_dimensions"`
}

// MetricsConfig controls phase metrics collection.
type MetricsConfig struct {
	// PersistHistory enables the SQLite metrics history database
	PersistHistory bool `yaml:"persist_history"`

	// DBPath is the path to the metrics database
	DBPath string `yaml:"db_path"`
}

// Config represents coco configuration options.
type Config struct {
	// LogLevel sets logging verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// CheckpointInterval is the auto-checkpoint period
	CheckpointInterval time.Duration `yaml:"checkpoint_interval"`

	// MaxFixAttempts bounds convergence-loop attempts per file
	MaxFixAttempts int `yaml:"max_fix_attempts"`

	// Regression contains regression detector thresholds
	Regression RegressionConfig `yaml:"regression"`

	// Metrics contains metrics collection configuration
	Metrics MetricsConfig `yaml:"metrics"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:           "info",
		CheckpointInterval: 30 * time.Second,
		MaxFixAttempts:     3,
		Regression: RegressionConfig{
			MinDelta:          2.0,
			MinPercentChange:  5.0,
			ModerateThreshold: 5.0,
			SevereThreshold:   10.0,
		},
		Metrics: MetricsConfig{
			PersistHistory: false,
			DBPath:         ".coco/metrics.db",
		},
	}
}

// LoadConfig loads configuration from the specified file path.
// A missing file returns defaults without error; a malformed file
// or invalid threshold ordering returns an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Durations arrive as strings ("30s", "2m") in yaml
	type yamlConfig struct {
		LogLevel           string           `yaml:"log_level"`
		CheckpointInterval string           `yaml:"checkpoint_interval"`
		MaxFixAttempts     int              `yaml:"max_fix_attempts"`
		Regression         RegressionConfig `yaml:"regression"`
		Metrics            MetricsConfig    `yaml:"metrics"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.CheckpointInterval != "" {
		interval, err := time.ParseDuration(yamlCfg.CheckpointInterval)
		if err != nil {
			return nil, fmt.Errorf("invalid checkpoint_interval: %w", err)
		}
		cfg.CheckpointInterval = interval
	}
	if yamlCfg.MaxFixAttempts > 0 {
		cfg.MaxFixAttempts = yamlCfg.MaxFixAttempts
	}
	if yamlCfg.Regression.MinDelta > 0 {
		cfg.Regression.MinDelta = yamlCfg.Regression.MinDelta
	}
	if yamlCfg.Regression.MinPercentChange > 0 {
		cfg.Regression.MinPercentChange = yamlCfg.Regression.MinPercentChange
	}
	if yamlCfg.Regression.ModerateThreshold > 0 {
		cfg.Regression.ModerateThreshold = yamlCfg.Regression.ModerateThreshold
	}
	if yamlCfg.Regression.SevereThreshold > 0 {
		cfg.Regression.SevereThreshold = yamlCfg.Regression.SevereThreshold
	}
	if len(yamlCfg.Regression.IgnoreDimensions) > 0 {
		cfg.Regression.IgnoreDimensions = yamlCfg.Regression.IgnoreDimensions
	}
	if yamlCfg.Metrics.PersistHistory {
		cfg.Metrics.PersistHistory = true
	}
	if yamlCfg.Metrics.DBPath != "" {
		cfg.Metrics.DBPath = yamlCfg.Metrics.DBPath
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks threshold ordering and bounds.
func (c *Config) Validate() error {
	if c.CheckpointInterval <= 0 {
		return fmt.Errorf("checkpoint_interval must be positive, got %v", c.CheckpointInterval)
	}
	if c.MaxFixAttempts < 1 {
		return fmt.Errorf("max_fix_attempts must be at least 1, got %d", c.MaxFixAttempts)
	}
	// Severity thresholds must be monotonic: severe >= moderate
	if c.Regression.SevereThreshold < c.Regression.ModerateThreshold {
		return fmt.Errorf("severe_threshold (%.1f) must be >= moderate_threshold (%.1f)",
			c.Regression.SevereThreshold, c.Regression.ModerateThreshold)
	}
	return nil
}
