package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/interview-reminder/config"
	"github.com/target/interview-reminder/internal/adapters/greenhouse"
	"github.com/target/interview-reminder/internal/adapters/httpx"
	"github.com/target/interview-reminder/internal/adapters/reaper"
	"github.com/target/interview-reminder/internal/adapters/slack"
	"github.com/target/interview-reminder/internal/core"
	"github.com/target/interview-reminder/internal/data"
	"github.com/target/interview-reminder/internal/observability/statsd"
)

const (
	userAgent = "interview-reminder/1.0"
	// participantCachePrefix namespaces resolved Slack user ids in Redis.
	participantCachePrefix = "interview-reminder:participant"
)

// buildRecruitingClient wires the Greenhouse Harvest client behind its own rate limiter and breaker.
func buildRecruitingClient(cfg *config.AppConfig, logger *slog.Logger) (*greenhouse.Client, error) {
	httpClient := httpx.New(httpx.Options{
		Name:      "greenhouse",
		Timeout:   cfg.Greenhouse.Timeout,
		RateLimit: cfg.Greenhouse.RateLimit,
		RateBurst: cfg.Greenhouse.RateBurst,
		UserAgent: userAgent,
	})
	client, err := greenhouse.NewClient(greenhouse.Options{
		BaseURL:          cfg.Greenhouse.BaseURL,
		APIToken:         cfg.Greenhouse.APIToken,
		PerPage:          cfg.Greenhouse.PerPage,
		MaxPages:         cfg.Greenhouse.MaxPages,
		ParticipantsExpr: cfg.Greenhouse.ParticipantsExpr,
		AlwaysNotify:     cfg.Reminder.AlwaysNotify,
		HTTP:             httpClient,
		Logger:           logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create greenhouse client: %w", err)
	}
	return client, nil
}

// buildMessagingClient wires the Slack Web API client.
func buildMessagingClient(cfg *config.AppConfig, logger *slog.Logger) (*slack.Client, error) {
	httpClient := httpx.New(httpx.Options{
		Name:      "slack",
		Timeout:   cfg.Slack.Timeout,
		RateLimit: cfg.Slack.RateLimit,
		RateBurst: cfg.Slack.RateBurst,
		UserAgent: userAgent,
	})
	client, err := slack.NewClient(slack.Options{
		BaseURL:    cfg.Slack.BaseURL,
		BotToken:   cfg.Slack.BotToken,
		Unfurl:     cfg.Slack.Unfurl,
		IconEmoji:  cfg.Slack.IconEmoji,
		SenderName: cfg.Slack.SenderName,
		HTTP:       httpClient,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create slack client: %w", err)
	}
	return client, nil
}

// buildLedger selects the delivery ledger backend.
//
//nolint:ireturn // the backend is chosen at runtime.
func buildLedger(cfg config.LedgerConfig, db *sql.DB, rdb redis.UniversalClient, now func() time.Time) (core.DeliveryLedger, error) {
	switch cfg.Backend {
	case config.LedgerBackendPostgres:
		repo, err := data.NewDeliveryRepo(db, now)
		if err != nil {
			return nil, fmt.Errorf("create postgres ledger: %w", err)
		}
		return repo, nil
	case config.LedgerBackendRedis:
		if rdb == nil {
			return nil, errors.New("redis ledger requires a redis connection")
		}
		return data.NewRedisDeliveryLedger(data.RedisLedgerOptions{
			Client: rdb,
			Prefix: cfg.KeyPrefix,
			TTL:    cfg.TTL,
		}), nil
	default:
		return data.NewMemoryDeliveryLedger(cfg.TTL, now), nil
	}
}

// buildParticipantCache keeps resolved ids in Redis when requested, otherwise in memory.
//
//nolint:ireturn // the backend is chosen at runtime.
func buildParticipantCache(cfg config.ReminderConfig, rdb redis.UniversalClient, now func() time.Time) core.ParticipantCache {
	if cfg.ParticipantCacheRedis && rdb != nil {
		return data.NewRedisParticipantCache(rdb, participantCachePrefix, cfg.ParticipantCacheTTL)
	}
	return data.NewMemoryParticipantCache(cfg.ParticipantCacheTTL, now)
}

// ReaperConfig contains configuration for the ledger reaper.
type ReaperConfig struct {
	DB      *sql.DB
	Logger  *slog.Logger
	Config  config.LedgerConfig
	Metrics statsd.Sink
}

// RunReaper starts the ledger reaper.
func RunReaper(ctx context.Context, cfg ReaperConfig) error {
	runner, err := reaper.NewRunner(reaper.RunnerOptions{
		DB:      cfg.DB,
		Config:  cfg.Config,
		Logger:  cfg.Logger,
		Metrics: cfg.Metrics,
	})
	if err != nil {
		return fmt.Errorf("create reaper runner: %w", err)
	}

	return runner.Run(ctx)
}
