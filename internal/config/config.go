package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// WipeConfig holds the defaults applied to wipe runs. CLI flags
// override every field.
type WipeConfig struct {
	Scheme       string  `yaml:"scheme"`
	Verify       string  `yaml:"verify"`
	BlockSize    string  `yaml:"block_size"`
	Retries      int     `yaml:"retries"`
	RetryDelayMs int     `yaml:"retry_delay_ms"`
	MaxSpeedMBps float64 `yaml:"max_speed_mbps"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type ReportingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

type Config struct {
	Wipe      WipeConfig      `yaml:"wipe"`
	Logging   LoggingConfig   `yaml:"logging"`
	Reporting ReportingConfig `yaml:"reporting"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Wipe: WipeConfig{
			Scheme:       "random2",
			Verify:       "last",
			BlockSize:    "64k",
			Retries:      8,
			RetryDelayMs: 100,
			MaxSpeedMBps: 0, // unthrottled
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Reporting: ReportingConfig{
			Enabled: true,
			Dir:     "./reports",
		},
	}
}

// Load reads the configuration from path. An empty path or a missing
// file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks range and enum constraints before anything runs.
func Validate(cfg *Config) error {
	if cfg.Wipe.Retries < 1 || cfg.Wipe.Retries > 100 {
		return fmt.Errorf("retries must be between 1 and 100, got %d", cfg.Wipe.Retries)
	}
	if cfg.Wipe.RetryDelayMs < 0 || cfg.Wipe.RetryDelayMs > 60000 {
		return fmt.Errorf("retry delay must be between 0 and 60000ms, got %d", cfg.Wipe.RetryDelayMs)
	}
	if cfg.Wipe.MaxSpeedMBps < 0 {
		return fmt.Errorf("max speed cannot be negative, got %f", cfg.Wipe.MaxSpeedMBps)
	}

	switch cfg.Wipe.Verify {
	case "no", "none", "last", "all":
	default:
		return fmt.Errorf("invalid verify mode: %s", cfg.Wipe.Verify)
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", cfg.Logging.Level)
	}

	return nil
}

// Save writes the configuration to path, creating directories as
// needed.
func Save(cfg *Config, path string) error {
	if err := Validate(cfg); err != nil {
		return fmt.Errorf("cannot save invalid config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// RetryDelay returns the configured inter-attempt delay.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Wipe.RetryDelayMs) * time.Millisecond
}
