// Package config resolves daemon configuration from defaults, an optional
// YAML file, and environment variables, in that order of precedence
// (environment wins).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultHomeDirName is the workspace directory under $HOME.
	DefaultHomeDirName = ".port42-premise"

	// DefaultPollInterval is the gap between evaluation cycles.
	DefaultPollInterval = 10 * time.Second

	configFileName = "config.yaml"
)

// Config holds everything the daemon needs to start.
type Config struct {
	// Home is the workspace root (bin/, data/, memory/ live under it).
	Home string `yaml:"home"`

	// PollInterval is the gap between evaluation cycles.
	PollInterval time.Duration `yaml:"poll_interval"`

	// Watch enables filesystem-triggered early cycles on top of polling.
	Watch bool `yaml:"watch"`

	// Generator configures the optional command-body text generator.
	// Disabled unless APIKey is set.
	Generator GeneratorConfig `yaml:"generator"`
}

// GeneratorConfig holds text-generation client settings.
type GeneratorConfig struct {
	URL    string `yaml:"url"`
	Model  string `yaml:"model"`
	APIKey string `yaml:"-"` // env only, never persisted
}

// UnmarshalYAML decodes the config file shape, where poll_interval is a
// duration string like "10s". Absent fields keep whatever value the
// receiver already holds, so file contents layer over the defaults.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Home         string          `yaml:"home"`
		PollInterval string          `yaml:"poll_interval"`
		Watch        *bool           `yaml:"watch"`
		Generator    GeneratorConfig `yaml:"generator"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	if raw.Home != "" {
		c.Home = raw.Home
	}
	if raw.PollInterval != "" {
		d, err := time.ParseDuration(raw.PollInterval)
		if err != nil {
			return fmt.Errorf("poll_interval: %w", err)
		}
		c.PollInterval = d
	}
	if raw.Watch != nil {
		c.Watch = *raw.Watch
	}
	if raw.Generator.URL != "" {
		c.Generator.URL = raw.Generator.URL
	}
	if raw.Generator.Model != "" {
		c.Generator.Model = raw.Generator.Model
	}
	return nil
}

// Default returns the built-in configuration. The home directory falls
// back to the current directory when $HOME cannot be resolved.
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return Config{
		Home:         filepath.Join(home, DefaultHomeDirName),
		PollInterval: DefaultPollInterval,
		Watch:        true,
	}
}

// Load resolves the effective configuration.
//
// Order: built-in defaults, then $home/config.yaml when present, then
// environment variables. A .env file in the current directory is loaded
// first so the environment layer can come from it; a missing .env is not
// an error. A present but malformed config file is an error rather than
// a silent fallback.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if h := os.Getenv("PORT42_HOME"); h != "" {
		cfg.Home = h
	}

	path := filepath.Join(cfg.Home, configFileName)
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// no file, defaults stand
	case err != nil:
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if h := os.Getenv("PORT42_HOME"); h != "" {
		cfg.Home = h
	}
	if v := os.Getenv("PORT42_POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing PORT42_POLL_INTERVAL %q: %w", v, err)
		}
		cfg.PollInterval = d
	}
	if v := os.Getenv("PORT42_API_KEY"); v != "" {
		cfg.Generator.APIKey = v
	}
	if v := os.Getenv("PORT42_GENERATOR_URL"); v != "" {
		cfg.Generator.URL = v
	}
	if v := os.Getenv("PORT42_GENERATOR_MODEL"); v != "" {
		cfg.Generator.Model = v
	}
	return nil
}
