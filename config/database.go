package config

import (
	"strings"
	"time"
)

// DBConfig contains PostgreSQL database configuration for the delivery ledger.
type DBConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"reminder"`
	Password string `env:"PASSWORD" envDefault:"reminder"`
	Name     string `env:"NAME"     envDefault:"interview_reminder"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"` // Use 'disable' for local dev, 'require' for production

	// RunMigrationsOnStart controls whether the application automatically applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`

	// MaxOpenConns of 0 sizes the pool from the reminder concurrency.
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"30m"`

	// QueryTimeout bounds each ledger statement; a slow database must not hold up a send.
	QueryTimeout time.Duration `env:"QUERY_TIMEOUT" envDefault:"3s"`
}

// Sanitize applies guardrails to DBConfig.
func (c *DBConfig) Sanitize() {
	c.Host = strings.TrimSpace(c.Host)
	if c.Port <= 0 {
		c.Port = 5432
	}
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}
	if c.MaxOpenConns < 0 {
		c.MaxOpenConns = 0
	}
	if c.QueryTimeout <= 0 {
		c.QueryTimeout = 3 * time.Second
	}
}

// RedisConfig contains the single Redis endpoint shared by the delivery ledger and the
// participant cache. URI is either host:port or a redis:// / rediss:// URL.
type RedisConfig struct {
	URI      string `env:"URI"      envDefault:"localhost:6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB"       envDefault:"0"`

	// PoolSize of 0 sizes the pool from the reminder concurrency and the roles Redis serves.
	PoolSize    int           `env:"POOL_SIZE"`
	DialTimeout time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`

	// CommandTimeout bounds reads and writes. Ledger and cache calls sit on the send path.
	CommandTimeout time.Duration `env:"COMMAND_TIMEOUT" envDefault:"2s"`
}

// Sanitize applies guardrails to RedisConfig.
func (c *RedisConfig) Sanitize() {
	c.URI = strings.TrimSpace(c.URI)
	if c.DB < 0 {
		c.DB = 0
	}
	if c.PoolSize < 0 {
		c.PoolSize = 0
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 5 * time.Second
	}
	if c.CommandTimeout <= 0 {
		c.CommandTimeout = 2 * time.Second
	}
}

// IsURL reports whether URI carries a scheme rather than a bare address.
func (c *RedisConfig) IsURL() bool {
	return strings.HasPrefix(c.URI, "redis://") || strings.HasPrefix(c.URI, "rediss://")
}
