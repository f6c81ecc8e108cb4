package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds connection settings for the trackerctl CLI. The credential
// secret deliberately does not live here; it comes from the keyring or the
// environment so it never lands in a config file.
type Config struct {
	// BaseURL is the root URL of the tracker instance.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// Username authenticates requests together with the stored secret.
	Username string `mapstructure:"username" yaml:"username"`

	// PageSize bounds each search request.
	PageSize int `mapstructure:"page_size" yaml:"page_size"`

	// TimeoutSec is the per-request HTTP timeout.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// DefaultPath returns the default configuration file location,
// ~/.config/trackerctl/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "trackerctl", "config.yaml")
}

func defaults() *Config {
	return &Config{
		PageSize:   50,
		TimeoutSec: 30,
	}
}

// Load reads configuration from the given YAML file path using Viper,
// with TRACKERCTL_* environment variables taking precedence over file
// values. A missing file yields defaults so env-only CI jobs work.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("page_size", 50)
	v.SetDefault("timeout_sec", 30)

	v.SetEnvPrefix("TRACKERCTL")
	_ = v.BindEnv("base_url")
	_ = v.BindEnv("username")
	_ = v.BindEnv("page_size")
	_ = v.BindEnv("timeout_sec")

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFoundErr) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to a YAML file at path, creating parent
// directories if needed.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("base_url", cfg.BaseURL)
	v.Set("username", cfg.Username)
	v.Set("page_size", cfg.PageSize)
	v.Set("timeout_sec", cfg.TimeoutSec)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}
