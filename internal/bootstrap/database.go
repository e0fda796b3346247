package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"time"

	// Register the pgx driver for database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"github.com/target/interview-reminder/config"
	"github.com/target/interview-reminder/internal/data"
)

const (
	applicationName = "interview-reminder"
	pingTimeout     = 5 * time.Second
)

// Redis roles. Each one adds connections to the default pool size.
const (
	RedisRoleLedger           = "ledger"
	RedisRoleParticipantCache = "participant_cache"
)

// DatabaseConfig contains configuration for the delivery ledger and cache connections.
type DatabaseConfig struct {
	DBConfig    config.DBConfig
	RedisConfig config.RedisConfig

	// Workers is the reminder concurrency; pools are sized so every worker can hold a connection.
	Workers int

	// RedisRoles lists what Redis backs in this process.
	RedisRoles []string
	Logger     *slog.Logger
}

// RedisRoles reports which components the configuration puts on Redis.
func RedisRoles(cfg *config.AppConfig) []string {
	var roles []string
	if cfg.Ledger.Backend == config.LedgerBackendRedis {
		roles = append(roles, RedisRoleLedger)
	}
	if cfg.Reminder.ParticipantCacheRedis {
		roles = append(roles, RedisRoleParticipantCache)
	}
	return roles
}

// postgresDSN builds the ledger DSN. statement_timeout keeps a stuck query from holding a
// reminder worker past its send window.
func postgresDSN(cfg config.DBConfig) string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   "/" + cfg.Name,
	}
	q := u.Query()
	q.Set("sslmode", cfg.SSLMode)
	q.Set("application_name", applicationName)
	q.Set("connect_timeout", strconv.Itoa(int(pingTimeout/time.Second)))
	if cfg.QueryTimeout > 0 {
		q.Set("statement_timeout", strconv.FormatInt(cfg.QueryTimeout.Milliseconds(), 10))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// postgresPoolSize reserves one connection per reminder worker plus one for the reaper.
func postgresPoolSize(cfg config.DBConfig, workers int) int {
	if cfg.MaxOpenConns > 0 {
		return cfg.MaxOpenConns
	}
	return max(workers, 1) + 1
}

// ConnectDB opens the Postgres pool backing the delivery ledger.
func ConnectDB(cfg DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", postgresDSN(cfg.DBConfig))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	maxOpen := postgresPoolSize(cfg.DBConfig, cfg.Workers)
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen)
	if cfg.DBConfig.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.DBConfig.ConnMaxLifetime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if pingErr := db.PingContext(ctx); pingErr != nil {
		if closeErr := db.Close(); closeErr != nil {
			pingErr = errors.Join(pingErr, fmt.Errorf("close database connection: %w", closeErr))
		}
		return nil, fmt.Errorf("ping database: %w", pingErr)
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("database connected",
			"host", cfg.DBConfig.Host,
			"database", cfg.DBConfig.Name,
			"max_open_conns", maxOpen,
		)
	}
	return db, nil
}

// redisOptions turns RedisConfig into client options. An explicit password or DB wins
// over the values embedded in a URL.
func redisOptions(cfg config.RedisConfig, workers int, roles []string) (*redis.Options, error) {
	if cfg.URI == "" {
		return nil, errors.New("redis connection requires REDIS_URI")
	}

	opts := &redis.Options{Addr: cfg.URI, DB: cfg.DB}
	if cfg.IsURL() {
		parsed, err := redis.ParseURL(cfg.URI)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
		if cfg.DB != 0 {
			opts.DB = cfg.DB
		}
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	opts.ClientName = applicationName
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.CommandTimeout
	opts.WriteTimeout = cfg.CommandTimeout
	opts.PoolSize = cfg.PoolSize
	if opts.PoolSize == 0 {
		opts.PoolSize = max(workers, 1) * max(len(roles), 1)
	}
	return opts, nil
}

// ConnectRedis connects the Redis instance used by the ledger and participant cache.
func ConnectRedis(cfg DatabaseConfig) (*redis.Client, error) {
	opts, err := redisOptions(cfg.RedisConfig, cfg.Workers, cfg.RedisRoles)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if pingErr := client.Ping(ctx).Err(); pingErr != nil {
		if closeErr := client.Close(); closeErr != nil {
			pingErr = errors.Join(pingErr, fmt.Errorf("close redis client: %w", closeErr))
		}
		return nil, fmt.Errorf("ping redis at %s: %w", opts.Addr, pingErr)
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("redis connected",
			"addr", opts.Addr,
			"db", opts.DB,
			"roles", cfg.RedisRoles,
			"pool_size", opts.PoolSize,
		)
	}
	return client, nil
}

// RunMigrations applies the delivery ledger schema.
func RunMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if err := data.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	if logger != nil {
		logger.InfoContext(ctx, "database migrations completed")
	}

	return nil
}
