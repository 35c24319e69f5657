// Package config handles fansync configuration loading and validation.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration structure for fansync.
type Config struct {
	// Gateway holds remote messaging platform settings.
	Gateway GatewayConfig `yaml:"gateway" mapstructure:"gateway"`

	// Roster holds thread-roster polling settings.
	Roster RosterConfig `yaml:"roster" mapstructure:"roster"`

	// Conversation holds per-conversation polling settings.
	Conversation ConversationConfig `yaml:"conversation" mapstructure:"conversation"`

	// Tiers holds fan tier classification thresholds.
	Tiers TierConfig `yaml:"tiers" mapstructure:"tiers"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	// Console settings
	Console ConsoleConfig `yaml:"console" mapstructure:"console"`
}

// GatewayConfig contains remote platform connection settings.
type GatewayConfig struct {
	// BaseURL is the platform API base URL.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Token is the bearer credential for the platform API.
	Token string `yaml:"token" mapstructure:"token"`

	// Timeout applies to each individual gateway call.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// RosterConfig contains thread-roster sync settings.
type RosterConfig struct {
	// PollInterval is how often the selected creator's threads are refetched.
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`
}

// ConversationConfig contains per-conversation sync settings.
type ConversationConfig struct {
	// PollInterval is how often the selected conversation is refetched.
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`

	// PageSize is the number of messages requested per page.
	PageSize int `yaml:"page_size" mapstructure:"page_size"`
}

// TierConfig contains LTV thresholds for fan classification.
//
// Thresholds are in integer minor units (cents). They are deliberately
// configuration rather than code constants.
type TierConfig struct {
	// WhaleThreshold is the minimum lifetime spend for the whale tier.
	WhaleThreshold int64 `yaml:"whale_threshold" mapstructure:"whale_threshold"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// EnableCaller adds caller information to logs.
	EnableCaller bool `yaml:"enable_caller" mapstructure:"enable_caller"`
}

// ConsoleConfig contains operator console settings.
type ConsoleConfig struct {
	// Theme is the color theme (default, high-contrast).
	Theme string `yaml:"theme" mapstructure:"theme"`

	// ShowTimestamps shows timestamps next to messages.
	ShowTimestamps bool `yaml:"show_timestamps" mapstructure:"show_timestamps"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Gateway: GatewayConfig{
			BaseURL: "",
			Token:   "",
			Timeout: 10 * time.Second,
		},
		Roster: RosterConfig{
			PollInterval: 30 * time.Second,
		},
		Conversation: ConversationConfig{
			PollInterval: 5 * time.Second,
			PageSize:     50,
		},
		Tiers: TierConfig{
			// $500 lifetime spend, in cents.
			WhaleThreshold: 50_000,
		},
		Logging: LoggingConfig{
			Level:        "info",
			Format:       "console",
			EnableCaller: false,
		},
		Console: ConsoleConfig{
			Theme:          "default",
			ShowTimestamps: true,
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Gateway.Timeout < time.Second {
		return fmt.Errorf("gateway.timeout must be at least 1s")
	}

	if c.Roster.PollInterval < time.Second {
		return fmt.Errorf("roster.poll_interval must be at least 1s")
	}

	if c.Conversation.PollInterval < time.Second {
		return fmt.Errorf("conversation.poll_interval must be at least 1s")
	}

	if c.Conversation.PageSize < 1 {
		return fmt.Errorf("conversation.page_size must be at least 1")
	}

	if c.Tiers.WhaleThreshold <= 0 {
		return fmt.Errorf("tiers.whale_threshold must be positive")
	}

	return nil
}
