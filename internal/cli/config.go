package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the optional yaml configuration for the binary.
type Config struct {
	Title    string `yaml:"title"`
	LogLevel string `yaml:"log_level"`
	Width    int    `yaml:"width"`
	Listen   string `yaml:"listen"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Listen:   ":8547",
	}
}

// LoadConfig reads path over the defaults. A missing file is not an
// error; an unreadable or malformed one is.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("cli: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("cli: parse config: %w", err)
	}
	return cfg, nil
}
