// Package config loads and validates the application configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	TBA      TBAConfig      `mapstructure:"tba"`
	Output   OutputConfig   `mapstructure:"output"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// TBAConfig holds The Blue Alliance API configuration.
type TBAConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	AuthKey        string        `mapstructure:"auth_key"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
	Concurrency    int           `mapstructure:"concurrency"`
}

// OutputConfig holds artifact output configuration.
type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

// CacheConfig holds the telemetry fetch cache configuration.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	DBPath  string        `mapstructure:"db_path"`
	MaxAge  time.Duration `mapstructure:"max_age"`
}

// TelegramConfig holds the optional run-notification configuration.
type TelegramConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from an optional file plus environment
// variables (ZEBRATRACE_ prefix). An empty path uses defaults and
// environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("ZEBRATRACE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("tba.base_url", "https://www.thebluealliance.com/api/v3")
	v.SetDefault("tba.auth_key", "")
	v.SetDefault("tba.timeout", "30s")
	v.SetDefault("tba.max_retries", 3)
	v.SetDefault("tba.retry_delay_base", "1s")
	v.SetDefault("tba.concurrency", 4)

	v.SetDefault("output.dir", "./out")

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.db_path", "./out/cache.db")
	v.SetDefault("cache.max_age", "720h") // telemetry is immutable once posted; keep a month

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are usable.
func (c *Config) Validate() error {
	if c.TBA.BaseURL == "" {
		return fmt.Errorf("tba.base_url is required")
	}
	if c.TBA.Timeout < time.Second {
		return fmt.Errorf("tba.timeout must be at least 1 second")
	}
	if c.TBA.MaxRetries < 1 || c.TBA.MaxRetries > 10 {
		return fmt.Errorf("tba.max_retries must be between 1 and 10")
	}
	if c.TBA.Concurrency < 1 || c.TBA.Concurrency > 16 {
		return fmt.Errorf("tba.concurrency must be between 1 and 16")
	}

	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir is required")
	}

	if c.Cache.Enabled {
		if c.Cache.DBPath == "" {
			return fmt.Errorf("cache.db_path is required when cache is enabled")
		}
		if c.Cache.MaxAge < time.Minute {
			return fmt.Errorf("cache.max_age must be at least 1 minute")
		}
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}
	return nil
}
