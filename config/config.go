// Package config loads the interview reminder configuration from environment variables.
package config

import (
	"errors"
	"log/slog"
	"strings"

	apperrors "github.com/target/interview-reminder/internal/errors"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - recruiting.go: Greenhouse Harvest client
//   - messaging.go: Slack Web API client
//   - reminder.go: lead time, polling, retries and the delivery ledger
//   - database.go: Postgres and Redis connections
//   - observability.go: metrics and ops notifications
//   - http.go: health and status server
type AppConfig struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	Greenhouse GreenhouseConfig `envPrefix:"GREENHOUSE_"`
	Slack      SlackConfig      `envPrefix:"SLACK_"`
	Reminder   ReminderConfig   `envPrefix:"REMINDER_"`
	Ledger     LedgerConfig     `envPrefix:"LEDGER_"`

	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	Observability ObservabilityConfig
	HTTP          HTTPConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.Greenhouse.Sanitize()
	c.Slack.Sanitize()
	c.Reminder.Sanitize()
	c.Ledger.Sanitize()
	c.Postgres.Sanitize()
	c.Redis.Sanitize()
	c.Observability.Sanitize()
	c.HTTP.Sanitize()
}

// Validate reports missing credentials and invalid settings as configuration errors.
// Call it after Sanitize; a non-nil result is fatal at startup.
func (c *AppConfig) Validate() error {
	var errs []error
	if c.Greenhouse.APIToken == "" {
		errs = append(errs, apperrors.ConfigurationField("GREENHOUSE_API_TOKEN", "GREENHOUSE_API_TOKEN is required"))
	}
	if c.Slack.BotToken == "" {
		errs = append(errs, apperrors.ConfigurationField("SLACK_BOT_TOKEN", "SLACK_BOT_TOKEN is required"))
	}
	if _, err := c.Reminder.Location(); err != nil {
		errs = append(errs, apperrors.Wrap(err, apperrors.ErrCodeConfiguration, "REMINDER_DISPLAY_TIMEZONE is invalid"))
	}
	if err := c.Greenhouse.ValidateParticipantsExpression(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SlogLevel maps LogLevel onto a slog.Level, defaulting to info.
func (c *AppConfig) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NeedsPostgres reports whether the configured ledger requires a database connection.
func (c *AppConfig) NeedsPostgres() bool { return c.Ledger.Backend == LedgerBackendPostgres }

// NeedsRedis reports whether any component requires a Redis connection.
func (c *AppConfig) NeedsRedis() bool {
	return c.Ledger.Backend == LedgerBackendRedis || c.Reminder.ParticipantCacheRedis
}
