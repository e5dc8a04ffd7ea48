package config

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Database struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"database"`
	} `mapstructure:"database"`
	RabbitMQ struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
	} `mapstructure:"rabbitmq"`
	HTTP struct {
		Port int `mapstructure:"port"`
	} `mapstructure:"http"`
	WebSocket struct {
		// AllowedOrigins is the cross-origin allow-list for session
		// establishment. Empty means allow all.
		AllowedOrigins []string `mapstructure:"allowed_origins"`
	} `mapstructure:"websocket"`
	JWT struct {
		SecretKey string `mapstructure:"secret_key"`
	} `mapstructure:"jwt"`
	Tracking struct {
		SnapshotIntervalSeconds int `mapstructure:"snapshot_interval_seconds"`
		ActiveWindowMinutes     int `mapstructure:"active_window_minutes"`
	} `mapstructure:"tracking"`
}

// LoadFromFile loads config from a YAML file, applies defaults, and
// validates required fields.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// SnapshotInterval is the fleet snapshot broadcast period.
func (c *Config) SnapshotInterval() time.Duration {
	return time.Duration(c.Tracking.SnapshotIntervalSeconds) * time.Second
}

// ActiveWindow is the trailing window deciding which drivers count as active.
func (c *Config) ActiveWindow() time.Duration {
	return time.Duration(c.Tracking.ActiveWindowMinutes) * time.Minute
}

// applyDefaults sets safe defaults for some fields.
func applyDefaults(cfg *Config) {
	// Database
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}

	// RabbitMQ
	if cfg.RabbitMQ.Host == "" {
		cfg.RabbitMQ.Host = "localhost"
	}
	if cfg.RabbitMQ.Port == 0 {
		cfg.RabbitMQ.Port = 5672
	}

	// HTTP (WebSocket sessions share the same listener)
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 3005
	}

	// Tracking
	if cfg.Tracking.SnapshotIntervalSeconds == 0 {
		cfg.Tracking.SnapshotIntervalSeconds = 10
	}
	if cfg.Tracking.ActiveWindowMinutes == 0 {
		cfg.Tracking.ActiveWindowMinutes = 15
	}

	if cfg.JWT.SecretKey == "" {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			// fallback: time-based bytes
			key = []byte(fmt.Sprintf("%d", time.Now().UnixNano()))
		}
		cfg.JWT.SecretKey = base64.StdEncoding.EncodeToString(key)
	}
}

// validate checks required fields and basic ranges.
func (c *Config) validate() error {
	var problems []string

	// DB
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		problems = append(problems, "database.port must be in 1..65535")
	}
	if c.Database.User == "" {
		problems = append(problems, "database.user is required")
	}
	if c.Database.Password == "" {
		problems = append(problems, "database.password is required")
	}
	if c.Database.Name == "" {
		problems = append(problems, "database.database is required")
	}

	// RabbitMQ
	if c.RabbitMQ.Port <= 0 || c.RabbitMQ.Port > 65535 {
		problems = append(problems, "rabbitmq.port must be in 1..65535")
	}
	if c.RabbitMQ.User == "" {
		problems = append(problems, "rabbitmq.user is required")
	}
	if c.RabbitMQ.Password == "" {
		problems = append(problems, "rabbitmq.password is required")
	}

	// HTTP
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		problems = append(problems, "http.port must be in 1..65535")
	}

	// Tracking
	if c.Tracking.SnapshotIntervalSeconds < 1 {
		problems = append(problems, "tracking.snapshot_interval_seconds must be >= 1")
	}
	if c.Tracking.ActiveWindowMinutes < 1 {
		problems = append(problems, "tracking.active_window_minutes must be >= 1")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
