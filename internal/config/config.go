// Package config provides configuration loading and structs for the classnames tool.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override values from the config file.
const (
	EnvDebug          = "CLASSNAMES_DEBUG"
	EnvServerHost     = "CLASSNAMES_SERVER_HOST"
	EnvServerPort     = "CLASSNAMES_SERVER_PORT"
	EnvGenerateSuffix = "CLASSNAMES_GENERATE_SUFFIX"
	EnvTracing        = "CLASSNAMES_TRACING"
)

// Config holds all configuration for the application.
type Config struct {
	Debug    bool           `yaml:"debug"`
	Server   ServerConfig   `yaml:"server"`
	Generate GenerateConfig `yaml:"generate"`
	Tracing  TracingConfig  `yaml:"tracing"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host                  string `yaml:"host"`
	Port                  int    `yaml:"port"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
}

// TracingConfig controls OpenTelemetry spans for server requests. When
// enabled, finished spans are written as JSON to stderr.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// GenerateConfig holds settings for `classnames generate`.
type GenerateConfig struct {
	Directive    string   `yaml:"directive"`
	OutputSuffix string   `yaml:"output_suffix"`
	Extensions   []string `yaml:"extensions"`
	DebounceMS   int      `yaml:"debounce_ms"`
	Recursive    *bool    `yaml:"recursive"`
	// Directories are package roots the server keeps generated while running.
	Directories  []string `yaml:"directories"`
}

// RecursiveOrDefault returns whether generate and watch descend into subdirectories; defaults to false when unset.
func (g *GenerateConfig) RecursiveOrDefault() bool {
	if g.Recursive != nil {
		return *g.Recursive
	}
	return false
}

// Load reads and parses the config file at path and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	return &cfg, nil
}

// LoadOrDefault loads path when it exists and falls back to an all-defaults
// config otherwise. Environment overrides are applied in both cases.
func LoadOrDefault(path string) (*Config, error) {
	var cfg *Config
	if _, err := os.Stat(path); err == nil {
		cfg, err = Load(path)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = &Config{}
		ApplyDefaults(cfg)
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ApplyEnv loads a .env file from the working directory if present and then
// overrides cfg with any CLASSNAMES_* variables that are set.
func ApplyEnv(cfg *Config) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	if v, ok := lookupEnv(EnvDebug); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvDebug, err)
		}
		cfg.Debug = b
	}
	if v, ok := lookupEnv(EnvServerHost); ok {
		cfg.Server.Host = v
	}
	if v, ok := lookupEnv(EnvServerPort); ok {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("invalid %s: %q", EnvServerPort, v)
		}
		cfg.Server.Port = port
	}
	if v, ok := lookupEnv(EnvGenerateSuffix); ok {
		cfg.Generate.OutputSuffix = v
	}
	if v, ok := lookupEnv(EnvTracing); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvTracing, err)
		}
		cfg.Tracing.Enabled = b
	}
	return nil
}

func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}
