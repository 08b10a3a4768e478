package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full process configuration. Every option is optional with a
// safe fallback; with nothing set the server runs on :8080 with in-memory
// stores and a log-only notification channel.
type Config struct {
	Server       Server
	Database     Database
	Redis        Redis
	Notification Notification
	Admin        Admin
	LogLevel     string
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr string
	// RequestTimeout is the hard wall-clock budget for the synchronous part
	// of intake requests.
	RequestTimeout time.Duration
}

// Database selects the registration/contact store backend. An empty DSN means
// in-memory stores.
type Database struct {
	DSN string
}

// Redis configures the optional dead-letter store. Empty URL disables it.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Notification configures channels and queue policy. With no AWS region and
// no ops recipient the queue degrades to the log-only channel.
type Notification struct {
	AWSRegion     string
	FromName      string
	FromEmail     string
	OpsAlertEmail string
	SNSTopicARN   string

	MaxAttempts    int
	BackoffBase    time.Duration
	AttemptTimeout time.Duration
	PacingDelay    time.Duration
	// TimeoutMultiplier scales every timeout, so slow environments (CI,
	// free-tier hosts) can stretch budgets without touching each knob.
	TimeoutMultiplier float64
}

// Admin holds the env-provided admin credentials and JWT signing key.
type Admin struct {
	Email         string
	Password      string
	JWTSigningKey string
	TokenTTL      time.Duration
}

// Load reads configuration from the environment, with an optional .env file
// for local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.request_timeout", 5*time.Second)
	v.SetDefault("log.level", "info")

	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)

	v.SetDefault("notify.max_attempts", 3)
	v.SetDefault("notify.backoff_base", 5*time.Second)
	v.SetDefault("notify.attempt_timeout", 10*time.Second)
	v.SetDefault("notify.pacing_delay", time.Second)
	v.SetDefault("notify.timeout_multiplier", 1.0)
	v.SetDefault("notify.from_name", "Katsina State National MSME Clinic")

	v.SetDefault("admin.token_ttl", 12*time.Hour)

	cfg := &Config{
		Server: Server{
			Addr:           v.GetString("server.addr"),
			RequestTimeout: v.GetDuration("server.request_timeout"),
		},
		Database: Database{
			DSN: v.GetString("database.dsn"),
		},
		Redis: Redis{
			URL:          v.GetString("redis.url"),
			PoolSize:     v.GetInt("redis.pool_size"),
			MinIdleConns: v.GetInt("redis.min_idle_conns"),
			DialTimeout:  v.GetDuration("redis.dial_timeout"),
			ReadTimeout:  v.GetDuration("redis.read_timeout"),
			WriteTimeout: v.GetDuration("redis.write_timeout"),
		},
		Notification: Notification{
			AWSRegion:         v.GetString("notify.aws_region"),
			FromName:          v.GetString("notify.from_name"),
			FromEmail:         v.GetString("notify.from_email"),
			OpsAlertEmail:     v.GetString("notify.ops_alert_email"),
			SNSTopicARN:       v.GetString("notify.sns_topic_arn"),
			MaxAttempts:       v.GetInt("notify.max_attempts"),
			BackoffBase:       v.GetDuration("notify.backoff_base"),
			AttemptTimeout:    v.GetDuration("notify.attempt_timeout"),
			PacingDelay:       v.GetDuration("notify.pacing_delay"),
			TimeoutMultiplier: v.GetFloat64("notify.timeout_multiplier"),
		},
		Admin: Admin{
			Email:         v.GetString("admin.email"),
			Password:      v.GetString("admin.password"),
			JWTSigningKey: v.GetString("admin.jwt_signing_key"),
			TokenTTL:      v.GetDuration("admin.token_ttl"),
		},
		LogLevel: v.GetString("log.level"),
	}

	if cfg.Admin.JWTSigningKey == "" {
		// Development default; must be overridden in production.
		cfg.Admin.JWTSigningKey = "dev-secret-key-change-in-production"
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	cfg.applyMultiplier()
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Notification.MaxAttempts < 1 {
		return fmt.Errorf("notify.max_attempts must be >= 1, got %d", c.Notification.MaxAttempts)
	}
	if c.Notification.TimeoutMultiplier <= 0 {
		return fmt.Errorf("notify.timeout_multiplier must be > 0, got %v", c.Notification.TimeoutMultiplier)
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server.request_timeout must be > 0, got %v", c.Server.RequestTimeout)
	}
	return nil
}

func (c *Config) applyMultiplier() {
	m := c.Notification.TimeoutMultiplier
	if m == 1.0 {
		return
	}
	scale := func(d time.Duration) time.Duration {
		return time.Duration(float64(d) * m)
	}
	c.Server.RequestTimeout = scale(c.Server.RequestTimeout)
	c.Notification.AttemptTimeout = scale(c.Notification.AttemptTimeout)
	c.Notification.BackoffBase = scale(c.Notification.BackoffBase)
}
