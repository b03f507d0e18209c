package model

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme         string `mapstructure:"theme" yaml:"theme"`
	ShowCompleted bool   `mapstructure:"show_completed" yaml:"show_completed"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	// DBPath is the location of the SQLite database file.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`

	// Timezone is the IANA zone used to decide which calendar day a due
	// date falls on. Empty means the machine's local zone.
	Timezone string `mapstructure:"timezone" yaml:"timezone"`

	// LogFile receives log output while the terminal UI is running.
	// Empty discards it.
	LogFile string `mapstructure:"log_file" yaml:"log_file"`

	Display DisplayConfig `mapstructure:"display" yaml:"display"`
}

// Location resolves Timezone, falling back to time.Local.
func (c *AppConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/taskflow/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "taskflow", "config.yaml")
}

// DefaultDBPath returns ~/.local/share/taskflow/taskflow.db.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "taskflow.db"
	}
	return filepath.Join(home, ".local", "share", "taskflow", "taskflow.db")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		DBPath: DefaultDBPath(),
		Display: DisplayConfig{
			Theme:         "default",
			ShowCompleted: true,
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
// TASKFLOW_DB overrides db_path either way.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("db_path", DefaultDBPath())
	v.SetDefault("display.theme", "default")
	v.SetDefault("display.show_completed", true)
	if err := v.BindEnv("db_path", "TASKFLOW_DB"); err != nil {
		return nil, fmt.Errorf("binding TASKFLOW_DB: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		_, isPathErr := err.(*os.PathError)
		_, isNotFound := err.(viper.ConfigFileNotFoundError)
		if !isPathErr && !isNotFound {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("db_path", cfg.DBPath)
	v.Set("timezone", cfg.Timezone)
	v.Set("log_file", cfg.LogFile)
	v.Set("display.theme", cfg.Display.Theme)
	v.Set("display.show_completed", cfg.Display.ShowCompleted)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
