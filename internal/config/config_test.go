package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Port:                 8080,
		DatabaseURL:          "postgres://localhost/community",
		RedisURL:             "redis://localhost:6379",
		SessionSecret:        strings.Repeat("s", 40),
		SessionTTLMinutes:    1440,
		LockoutThreshold:     5,
		LockoutWindowMinutes: 5,
		LogLevel:             "info",
	}
}

func TestConfigDurations(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL())
	assert.Equal(t, 5*time.Minute, cfg.LockoutWindow())
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid config passes", func(t *testing.T) {
		require.NoError(t, validConfig().Validate(false))
		require.NoError(t, validConfig().Validate(true))
	})

	t.Run("lockout threshold below one fails", func(t *testing.T) {
		cfg := validConfig()
		cfg.LockoutThreshold = 0
		assert.Error(t, cfg.Validate(false))
	})

	t.Run("lockout window below one fails", func(t *testing.T) {
		cfg := validConfig()
		cfg.LockoutWindowMinutes = 0
		assert.Error(t, cfg.Validate(false))
	})

	t.Run("session ttl below one fails", func(t *testing.T) {
		cfg := validConfig()
		cfg.SessionTTLMinutes = 0
		assert.Error(t, cfg.Validate(false))
	})

	t.Run("short secret rejected in production only", func(t *testing.T) {
		cfg := validConfig()
		cfg.SessionSecret = "short"
		assert.NoError(t, cfg.Validate(false))
		assert.Error(t, cfg.Validate(true))
	})

	t.Run("known weak secret rejected in production", func(t *testing.T) {
		cfg := validConfig()
		cfg.SessionSecret = strings.Repeat("x", 32)
		require.NoError(t, cfg.Validate(true))

		cfg.SessionSecret = "change-me"
		assert.Error(t, cfg.Validate(true))
	})
}
