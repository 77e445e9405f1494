// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Player  PlayerConfig            `yaml:"player"`
	Backend BackendConfig           `yaml:"backend"`
	Filters map[string]FilterConfig `yaml:"filters"`
	Log     LogConfig               `yaml:"log"`
}

// PlayerConfig represents initial playback state.
type PlayerConfig struct {
	InitialVolume float64 `yaml:"initial_volume" default:"1" validate:"gte=0,lte=1"`
	InitialRate   float64 `yaml:"initial_rate" default:"1" validate:"gte=0.25,lte=4"`
	Shuffle       bool    `yaml:"shuffle"`
}

// BackendConfig represents the media backend configuration.
type BackendConfig struct {
	Type     string         `yaml:"type" default:"sim" validate:"required"`
	Settings map[string]any `yaml:"settings"`
}

// FilterConfig represents a filter's configuration.
type FilterConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// LogConfig represents logging configuration.
type LogConfig struct {
	Output string `yaml:"output" default:"stderr" validate:"oneof=stdout stderr file"`
	Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error"`
	File   string `yaml:"file"`
}

// Load loads configuration from a YAML file.
// A missing file is not an error; defaults apply.
// Environment variables take precedence over file values.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse config file")
		}
	case os.IsNotExist(err):
		// defaults only
	default:
		return nil, errors.Wrap(err, "failed to read config file")
	}

	cfg.overrideFromEnv()

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("CUEPLAY_BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("CUEPLAY_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("CUEPLAY_INITIAL_VOLUME"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Player.InitialVolume = f
		}
	}
	if v := os.Getenv("CUEPLAY_SHUFFLE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Player.Shuffle = b
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	if c.Log.Output == "file" && c.Log.File == "" {
		return errors.New("log.file is required when log.output is file")
	}

	return nil
}

// IsFilterEnabled checks if a filter is enabled.
func (c *Config) IsFilterEnabled(filterName string) bool {
	if f, ok := c.Filters[filterName]; ok {
		return f.Enabled
	}
	return false
}

// GetFilterSettings returns the settings for a filter.
func (c *Config) GetFilterSettings(filterName string) map[string]any {
	if f, ok := c.Filters[filterName]; ok {
		return f.Settings
	}
	return nil
}
