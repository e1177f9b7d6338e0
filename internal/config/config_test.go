package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, int32(8188), cfg.HTTP.Port)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, 800*time.Millisecond, cfg.Search.Debounce)
	assert.Equal(t, 2, cfg.Search.MinQueryLength)
	assert.Equal(t, 250*time.Millisecond, cfg.Progress.SettleDelay)
	assert.Equal(t, "percentage", cfg.Backup.PositionPolicy)
	assert.Equal(t, 6, cfg.Backup.CompressionLevel)
	assert.Equal(t, "0 3 * * *", cfg.Backup.Schedule)
	assert.False(t, cfg.Library.WatchEnabled)
	assert.True(t, cfg.Tasks.Enabled)
	require.NoError(t, cfg.Validate())
}

func TestNewConfig_Environment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("BACKUP_POSITION_POLICY", "exact")
	t.Setenv("SEARCH_DEBOUNCE", "0s")
	t.Setenv("LIBRARY_WATCH_ENABLED", "true")

	cfg := NewConfig()

	assert.Equal(t, int32(9000), cfg.HTTP.Port)
	assert.Equal(t, "exact", cfg.Backup.PositionPolicy)
	assert.Equal(t, time.Duration(0), cfg.Search.Debounce)
	assert.True(t, cfg.Library.WatchEnabled)
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port", func(c *Config) { c.HTTP.Port = 0 }},
		{"database path", func(c *Config) { c.Database.Path = "" }},
		{"position policy", func(c *Config) { c.Backup.PositionPolicy = "nearest" }},
		{"compression level", func(c *Config) { c.Backup.CompressionLevel = 12 }},
		{"backup dir", func(c *Config) { c.Backup.Dir = "" }},
		{"min query length", func(c *Config) { c.Search.MinQueryLength = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
