package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestValidateRejectsBadIntervals(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"gateway timeout too small", func(c *Config) { c.Gateway.Timeout = 100 * time.Millisecond }},
		{"roster interval too small", func(c *Config) { c.Roster.PollInterval = 0 }},
		{"conversation interval too small", func(c *Config) { c.Conversation.PollInterval = 50 * time.Millisecond }},
		{"page size zero", func(c *Config) { c.Conversation.PageSize = 0 }},
		{"whale threshold zero", func(c *Config) { c.Tiers.WhaleThreshold = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestLoaderReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	payload := []byte(`
gateway:
  base_url: https://platform.example.com/api
  timeout: 15s
roster:
  poll_interval: 45s
tiers:
  whale_threshold: 100000
`)
	require.NoError(t, os.WriteFile(path, payload, 0o644))

	l := NewLoader()
	l.SetConfigFile(path)
	cfg, err := l.Load()
	require.NoError(t, err)

	require.Equal(t, "https://platform.example.com/api", cfg.Gateway.BaseURL)
	require.Equal(t, 15*time.Second, cfg.Gateway.Timeout)
	require.Equal(t, 45*time.Second, cfg.Roster.PollInterval)
	require.Equal(t, int64(100_000), cfg.Tiers.WhaleThreshold)
	// Untouched keys keep defaults.
	require.Equal(t, 5*time.Second, cfg.Conversation.PollInterval)
}

func TestLoaderMissingExplicitFileFails(t *testing.T) {
	l := NewLoader()
	l.SetConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := l.Load()
	require.Error(t, err)
}
