package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password",
}

type Config struct {
	Port                 int    `env:"PORT" envDefault:"8080"`
	DatabaseURL          string `env:"DATABASE_URL,required"`
	RedisURL             string `env:"REDIS_URL,required"`
	SessionSecret        string `env:"SESSION_SECRET,required"`
	SessionTTLMinutes    int    `env:"SESSION_TTL_MINUTES" envDefault:"1440"`
	LockoutThreshold     int    `env:"LOCKOUT_THRESHOLD" envDefault:"5"`
	LockoutWindowMinutes int    `env:"LOCKOUT_WINDOW_MINUTES" envDefault:"5"`
	LogLevel             string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

func (c *Config) LockoutWindow() time.Duration {
	return time.Duration(c.LockoutWindowMinutes) * time.Minute
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Validate(isProduction bool) error {
	if c.LockoutThreshold < 1 {
		return fmt.Errorf("LOCKOUT_THRESHOLD must be at least 1")
	}
	if c.LockoutWindowMinutes < 1 {
		return fmt.Errorf("LOCKOUT_WINDOW_MINUTES must be at least 1")
	}
	if c.SessionTTLMinutes < 1 {
		return fmt.Errorf("SESSION_TTL_MINUTES must be at least 1")
	}

	if isProduction {
		if err := validateSecret("SESSION_SECRET", c.SessionSecret); err != nil {
			return err
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
