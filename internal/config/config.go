// Package config loads process configuration from an optional config file
// and TM_-prefixed environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the proxy process.
type Config struct {
	Request      RequestConfig      `mapstructure:"request"`
	Server       ServerConfig       `mapstructure:"server"`
	RateLimiting RateLimitingConfig `mapstructure:"rate_limiting"`
	Log          LogConfig          `mapstructure:"log"`
}

// RequestConfig holds the outbound fetch settings.
type RequestConfig struct {
	// Timeout is the per-request deadline.
	Timeout time.Duration `mapstructure:"timeout"`

	// RateLimit is the minimum spacing between outbound requests;
	// <= 0 disables pacing.
	RateLimit time.Duration `mapstructure:"rate_limit"`

	// MaxRetries is the retry budget for transient failures.
	MaxRetries int `mapstructure:"max_retries"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// RateLimitingConfig throttles inbound API callers per client address.
// Disabled by default.
type RateLimitingConfig struct {
	Enable   bool          `mapstructure:"enable"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// Load reads configuration from ./config.yaml (if present) and the
// environment (TM_REQUEST_TIMEOUT, TM_SERVER_PORT, ...), environment taking
// precedence. Invalid values fail fast.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("request.timeout", "10s")
	v.SetDefault("request.rate_limit", "500ms")
	v.SetDefault("request.max_retries", 2)
	v.SetDefault("server.port", 8000)
	v.SetDefault("rate_limiting.enable", false)
	v.SetDefault("rate_limiting.requests", 2)
	v.SetDefault("rate_limiting.window", "3s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; everything has defaults.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix("TM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Request.Timeout <= 0 {
		return fmt.Errorf("request.timeout must be positive (got %v)", c.Request.Timeout)
	}
	if c.Request.MaxRetries < 0 {
		return fmt.Errorf("request.max_retries must be >= 0 (got %d)", c.Request.MaxRetries)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1,65535] (got %d)", c.Server.Port)
	}
	if c.RateLimiting.Enable {
		if c.RateLimiting.Requests < 1 {
			return fmt.Errorf("rate_limiting.requests must be >= 1 (got %d)", c.RateLimiting.Requests)
		}
		if c.RateLimiting.Window <= 0 {
			return fmt.Errorf("rate_limiting.window must be positive (got %v)", c.RateLimiting.Window)
		}
	}
	return nil
}
