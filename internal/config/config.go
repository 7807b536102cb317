// Package config loads the runtime configuration: log level, HTTP address
// and the storage agent tiers of the saving pipeline.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration.
type Config struct {
	LogLevel string `mapstructure:"log_level"`
	HTTPAddr string `mapstructure:"http_addr"`
	Saving   Saving `mapstructure:"saving"`
}

// Saving wires the persistence tiers. Fallback lists are only consulted when
// an agent of the tier above fails to construct.
type Saving struct {
	Disabled       bool    `mapstructure:"disabled"`
	FailurePath    string  `mapstructure:"failure_path"`
	Agents         []Agent `mapstructure:"agents"`
	Fallback       []Agent `mapstructure:"fallback"`
	SecondFallback []Agent `mapstructure:"second_fallback"`
}

// Agent configures one storage agent.
type Agent struct {
	Kind    string `mapstructure:"kind"` // file, redis, memory
	Assured bool   `mapstructure:"assured"`
	Level   int    `mapstructure:"level"`

	// file
	Path string `mapstructure:"path"`

	// redis
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// Default returns the configuration used when no file is given: one local
// file agent, the failure store next to it.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		HTTPAddr: ":8080",
		Saving: Saving{
			FailurePath: filepath.Join(".alfred", "failure"),
			Agents: []Agent{
				{Kind: "file", Path: filepath.Join(".alfred", "sessions"), Level: 1},
			},
		},
	}
}

// Load reads a YAML configuration file over the defaults. The file is
// decoded into a generic map first and then mapped onto the typed struct, so
// unknown keys fail loudly instead of being dropped.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Decode(data)
}

// Decode parses YAML configuration bytes over the defaults.
func Decode(data []byte) (*Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg := Default()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      cfg,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SlogLevel maps the configured level name onto slog's levels, defaulting to
// Info for unknown names.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
