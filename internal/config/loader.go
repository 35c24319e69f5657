package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader handles configuration loading with Viper.
type Loader struct {
	v          *viper.Viper
	configFile string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		v: viper.New(),
	}
}

// SetConfigFile sets an explicit config file path.
func (l *Loader) SetConfigFile(path string) {
	l.configFile = path
}

// Load loads configuration with proper precedence:
// defaults < config file < env vars
func (l *Loader) Load() (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	// Set up Viper
	l.setupViper(cfg)

	// Load config file
	if err := l.loadConfigFile(); err != nil {
		// Config file is optional, only error if explicitly specified
		if l.configFile != "" {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Unmarshal into config struct
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// setupViper configures Viper with defaults and environment bindings.
func (l *Loader) setupViper(cfg *Config) {
	v := l.v

	// Config file settings
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		v.AddConfigPath(filepath.Join(xdgConfig, "fansync"))
	}

	homeDir, _ := os.UserHomeDir()
	if homeDir != "" {
		v.AddConfigPath(filepath.Join(homeDir, ".config", "fansync"))
	}

	// Current directory
	v.AddConfigPath(".")

	// Environment variables - FANSYNC_ prefix
	v.SetEnvPrefix("FANSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults from config struct
	l.setDefaults(cfg)

	// Explicitly bind environment variables (Viper's Unmarshal has issues without this)
	bindEnvVars(v)

	// AutomaticEnv for any keys not explicitly bound
	v.AutomaticEnv()
}

// setDefaults sets all default values in Viper.
func (l *Loader) setDefaults(cfg *Config) {
	v := l.v

	// Gateway
	v.SetDefault("gateway.base_url", cfg.Gateway.BaseURL)
	v.SetDefault("gateway.token", cfg.Gateway.Token)
	v.SetDefault("gateway.timeout", cfg.Gateway.Timeout)

	// Roster
	v.SetDefault("roster.poll_interval", cfg.Roster.PollInterval)

	// Conversation
	v.SetDefault("conversation.poll_interval", cfg.Conversation.PollInterval)
	v.SetDefault("conversation.page_size", cfg.Conversation.PageSize)

	// Tiers
	v.SetDefault("tiers.whale_threshold", cfg.Tiers.WhaleThreshold)

	// Logging
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.enable_caller", cfg.Logging.EnableCaller)

	// Console
	v.SetDefault("console.theme", cfg.Console.Theme)
	v.SetDefault("console.show_timestamps", cfg.Console.ShowTimestamps)
}

// bindEnvVars explicitly binds environment variables to config keys.
func bindEnvVars(v *viper.Viper) {
	keys := []string{
		"gateway.base_url",
		"gateway.token",
		"gateway.timeout",
		"roster.poll_interval",
		"conversation.poll_interval",
		"conversation.page_size",
		"tiers.whale_threshold",
		"logging.level",
		"logging.format",
		"logging.enable_caller",
		"console.theme",
		"console.show_timestamps",
	}
	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadConfigFile attempts to load the configuration file.
func (l *Loader) loadConfigFile() error {
	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	}

	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// No config file found, defaults apply
			return err
		}
		return err
	}

	return nil
}
