// Package config loads user-level avatar settings from an optional config
// file and AVATARCLI_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/avatar-cli/avatar/internal/constants"
)

// AppName names the user config directory.
const AppName = "avatar-cli"

// Settings are user preferences. They never affect what runs, only how
// the wrapper behaves around it.
type Settings struct {
	// LogLevel is a charmbracelet/log level name.
	LogLevel string `mapstructure:"log_level"`
	// Engine is the container engine client binary.
	Engine string `mapstructure:"engine"`
	// EngineTimeout bounds image presence probes.
	EngineTimeout time.Duration `mapstructure:"engine_timeout"`
	// Shell is started by `avatar shell` when SHELL is unset.
	Shell string `mapstructure:"shell"`
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		LogLevel:      "warn",
		Engine:        constants.DefaultEngine,
		EngineTimeout: 30 * time.Second,
		Shell:         constants.DefaultShell,
	}
}

// Dir returns $XDG_CONFIG_HOME/avatar-cli, or ~/.config/avatar-cli.
func Dir() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, AppName), nil
}

// Load reads settings from dir/config.yml (if present) and the
// environment. An empty dir means Dir().
func Load(dir string) (Settings, error) {
	v := viper.New()

	defaults := Defaults()
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("engine", defaults.Engine)
	v.SetDefault("engine_timeout", defaults.EngineTimeout)
	v.SetDefault("shell", defaults.Shell)

	v.SetEnvPrefix(constants.EnvPrefix)
	v.AutomaticEnv()

	if dir == "" {
		var err error
		if dir, err = Dir(); err != nil {
			return Settings{}, err
		}
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("failed to read config in %s: %w", dir, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("invalid settings: %w", err)
	}
	if s.EngineTimeout <= 0 {
		return Settings{}, fmt.Errorf("engine_timeout must be positive, got %v", s.EngineTimeout)
	}
	return s, nil
}
