package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/psryland/rylogic-code-sub008/pkg/pattern"
)

// Colour modes for rendered output.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config holds all configuration for logpatn
type Config struct {
	// Pattern lists, each an XML file
	FiltersFile    string `yaml:"filters" env:"LOGPATN_FILTERS"`
	HighlightsFile string `yaml:"highlights" env:"LOGPATN_HIGHLIGHTS"`
	TransformsFile string `yaml:"transforms" env:"LOGPATN_TRANSFORMS"`

	// Matching
	MatchTimeout time.Duration `yaml:"match_timeout" env:"LOGPATN_MATCH_TIMEOUT"`
	Prefilter    bool          `yaml:"prefilter" env:"LOGPATN_PREFILTER"`
	StripANSI    bool          `yaml:"strip_ansi" env:"LOGPATN_STRIP_ANSI"`

	// Output
	Color       string `yaml:"color" env:"LOGPATN_COLOR"`
	LineNumbers bool   `yaml:"line_numbers" env:"LOGPATN_LINE_NUMBERS"`
	Summary     bool   `yaml:"summary" env:"LOGPATN_SUMMARY"`
}

// tomlConfig mirrors Config for TOML files, which have no duration type.
type tomlConfig struct {
	Filters      *string `toml:"filters"`
	Highlights   *string `toml:"highlights"`
	Transforms   *string `toml:"transforms"`
	MatchTimeout *string `toml:"match_timeout"`
	Prefilter    *bool   `toml:"prefilter"`
	StripANSI    *bool   `toml:"strip_ansi"`
	Color        *string `toml:"color"`
	LineNumbers  *bool   `toml:"line_numbers"`
	Summary      *bool   `toml:"summary"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		MatchTimeout: pattern.DefaultMatchTimeout,
		Prefilter:    true,
		StripANSI:    true,
		Color:        ColorAuto,
	}
}

// MatchOptions returns the pattern compile options for this configuration.
func (c *Config) MatchOptions() pattern.Options {
	return pattern.Options{MatchTimeout: c.MatchTimeout}
}

// Load loads configuration from file and environment. An empty path uses
// LOGPATN_CONFIG or the default location; a missing default file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = getConfigPath()
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil && (explicit || !os.IsNotExist(err)) {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Override with environment variables
	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	// Validate configuration
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// getConfigPath returns the config file path
func getConfigPath() string {
	// Check for explicit config path
	if path := os.Getenv("LOGPATN_CONFIG"); path != "" {
		return path
	}

	dir := ""
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		dir = filepath.Join(xdgConfig, "logpatn")
	} else if home, err := os.UserHomeDir(); err == nil {
		dir = filepath.Join(home, ".config", "logpatn")
	} else {
		return ""
	}

	// Prefer a TOML file when one exists
	tomlPath := filepath.Join(dir, "config.toml")
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath
	}
	return filepath.Join(dir, "config.yaml")
}

// loadFromFile loads configuration from a YAML or TOML file, chosen by extension
func loadFromFile(cfg *Config, path string) error {
	// #nosec G304 - The config file path comes from trusted sources (flag, env var or standard locations)
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return loadTOML(cfg, data)
	}
	return yaml.Unmarshal(data, cfg)
}

func loadTOML(cfg *Config, data []byte) error {
	var raw tomlConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return err
	}

	setString(&cfg.FiltersFile, raw.Filters)
	setString(&cfg.HighlightsFile, raw.Highlights)
	setString(&cfg.TransformsFile, raw.Transforms)
	setString(&cfg.Color, raw.Color)
	setBool(&cfg.Prefilter, raw.Prefilter)
	setBool(&cfg.StripANSI, raw.StripANSI)
	setBool(&cfg.LineNumbers, raw.LineNumbers)
	setBool(&cfg.Summary, raw.Summary)

	if raw.MatchTimeout != nil {
		d, err := time.ParseDuration(*raw.MatchTimeout)
		if err != nil {
			return fmt.Errorf("invalid match_timeout: %w", err)
		}
		cfg.MatchTimeout = d
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// loadFromEnv loads configuration from environment variables
func loadFromEnv(cfg *Config) error {
	if v := os.Getenv("LOGPATN_FILTERS"); v != "" {
		cfg.FiltersFile = v
	}
	if v := os.Getenv("LOGPATN_HIGHLIGHTS"); v != "" {
		cfg.HighlightsFile = v
	}
	if v := os.Getenv("LOGPATN_TRANSFORMS"); v != "" {
		cfg.TransformsFile = v
	}

	if timeout := os.Getenv("LOGPATN_MATCH_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid LOGPATN_MATCH_TIMEOUT: %w", err)
		}
		cfg.MatchTimeout = d
	}

	if color := os.Getenv("LOGPATN_COLOR"); color != "" {
		cfg.Color = strings.ToLower(color)
	}

	for _, b := range []struct {
		name string
		dst  *bool
	}{
		{"LOGPATN_PREFILTER", &cfg.Prefilter},
		{"LOGPATN_STRIP_ANSI", &cfg.StripANSI},
		{"LOGPATN_LINE_NUMBERS", &cfg.LineNumbers},
		{"LOGPATN_SUMMARY", &cfg.Summary},
	} {
		v := os.Getenv(b.name)
		if v == "" {
			continue
		}
		switch v {
		case "true", "1", "yes":
			*b.dst = true
		case "false", "0", "no":
			*b.dst = false
		default:
			return fmt.Errorf("invalid %s value: %q (use true/false)", b.name, v)
		}
	}

	return nil
}

// validate validates the configuration
func validate(cfg *Config) error {
	if cfg.MatchTimeout < 0 {
		return fmt.Errorf("match_timeout must be non-negative")
	}

	switch cfg.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("color must be one of auto, always, never (got %q)", cfg.Color)
	}

	return nil
}
