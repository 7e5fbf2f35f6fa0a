package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// CurrentVersion is the config file format version written by Save
const CurrentVersion = 1

// EnvPrefix prefixes environment overrides, e.g. ONIX_LOGGING_LEVEL
const EnvPrefix = "ONIX"

// Config represents the application configuration structure
type Config struct {
	Version int           `mapstructure:"version" yaml:"version"`
	DataDir string        `mapstructure:"data_dir" yaml:"data_dir"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// LoggingConfig holds logging-related settings
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	JSON   bool   `mapstructure:"json" yaml:"json"`
	ToFile bool   `mapstructure:"to_file" yaml:"to_file"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Logging: LoggingConfig{Level: "info"},
	}
}

// DefaultPath returns the platform-appropriate config file location
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(dir, "onix", "config.yml"), nil
}

// Load reads the config file at path (DefaultPath when empty), applying
// defaults and ONIX_* environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("version", def.Version)
	v.SetDefault("data_dir", def.DataDir)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.json", def.Logging.JSON)
	v.SetDefault("logging.to_file", def.Logging.ToFile)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Save writes cfg as YAML to path, creating the directory if needed
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
