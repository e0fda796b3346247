package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/interview-reminder/config"
	schedrunner "github.com/target/interview-reminder/internal/adapters/scheduler"
	"github.com/target/interview-reminder/internal/core"
	"github.com/target/interview-reminder/internal/domain/reminder"
	"github.com/target/interview-reminder/internal/format"
	"github.com/target/interview-reminder/internal/observability/notify/pagerduty"
	"github.com/target/interview-reminder/internal/observability/notify/slack"
	"github.com/target/interview-reminder/internal/observability/statsd"
	"github.com/target/interview-reminder/internal/service"
	"github.com/target/interview-reminder/internal/service/failurenotifier"
	"golang.org/x/sync/errgroup"
)

// ServiceContainer holds the wired reminder engine and its drivers.
type ServiceContainer struct {
	Engine        *service.ReminderService
	Poller        *service.Poller
	PollRunner    *schedrunner.Runner
	Timers        *reminder.TimerQueue
	Ledger        core.DeliveryLedger
	Recruiting    core.RecruitingClient
	Messaging     core.MessagingClient
	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink     *statsd.Client
	MetricsConfig   config.ObservabilityMetricsConfig
	FailureNotifier *failurenotifier.Service
	NotifierConfig  config.ObservabilityNotificationsConfig
}

// Sink returns the metrics sink, or nil when metrics are disabled.
//
//nolint:ireturn // callers accept the Sink port.
func (o ObservabilityContainer) Sink() statsd.Sink {
	if o.MetricsSink == nil {
		return nil
	}
	return o.MetricsSink
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
	// Clock defaults to the system clock.
	Clock core.Clock
}

// buildObservability configures metrics and notification adapters.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	var metricsSink *statsd.Client
	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled:    true,
			Address:    cfg.Metrics.StatsdAddress,
			Prefix:     cfg.Metrics.Prefix,
			GlobalTags: cfg.Metrics.GlobalTags,
			Logger:     obsLogger,
		})
		if err != nil {
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			metricsSink = client
		}
	}

	failureNotifier := buildFailureNotifier(obsLogger, cfg.Notifications)

	return ObservabilityContainer{
		MetricsSink:     metricsSink,
		MetricsConfig:   cfg.Metrics,
		FailureNotifier: failureNotifier,
		NotifierConfig:  cfg.Notifications,
	}
}

func buildFailureNotifier(logger *slog.Logger, cfg config.ObservabilityNotificationsConfig) *failurenotifier.Service {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = slog.Default()
	}

	if !cfg.Enabled {
		return failurenotifier.NewService(failurenotifier.Options{
			Logger: baseLogger.With("component", "failure_notifier"),
		})
	}

	sinks := make([]failurenotifier.SinkRegistration, 0, 2)

	if cfg.Slack.Enabled {
		client, err := slack.NewClient(slack.Config{
			WebhookURL: cfg.Slack.WebhookURL,
			Channel:    cfg.Slack.Channel,
			Username:   cfg.Slack.Username,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			baseLogger.Error("failed to initialise slack notifier", "error", err)
		} else {
			sinks = append(sinks, failurenotifier.SinkRegistration{
				Name: "slack",
				Sink: client,
			})
		}
	}

	if cfg.PagerDuty.Enabled {
		client, err := pagerduty.NewClient(pagerduty.Config{
			RoutingKey: cfg.PagerDuty.RoutingKey,
			Source:     cfg.PagerDuty.Source,
			Component:  cfg.PagerDuty.Component,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			baseLogger.Error("failed to initialise pagerduty notifier", "error", err)
		} else {
			sinks = append(sinks, failurenotifier.SinkRegistration{
				Name: "pagerduty",
				Sink: client,
			})
		}
	}

	return failurenotifier.NewService(failurenotifier.Options{
		Logger:      baseLogger.With("component", "failure_notifier"),
		Sinks:       sinks,
		SinkTimeout: cfg.Timeout,
	})
}

// NewServices builds the platform clients and wires the reminder engine around them.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps with config are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	recruiting, err := buildRecruitingClient(deps.Config, logger)
	if err != nil {
		return ServiceContainer{}, err
	}
	messaging, err := buildMessagingClient(deps.Config, logger)
	if err != nil {
		return ServiceContainer{}, err
	}

	return assembleServices(deps, recruiting, messaging)
}

// assembleServices wires the engine, timer queue, poller and poll runner over the given clients.
func assembleServices(deps *ServiceDeps, recruiting core.RecruitingClient, messaging core.MessagingClient) (ServiceContainer, error) {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := deps.Clock
	if clock == nil {
		clock = core.SystemClock
	}

	loc, err := cfg.Reminder.Location()
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("display timezone: %w", err)
	}

	observability := buildObservability(logger, cfg.Observability)
	sink := observability.Sink()

	ledger, err := buildLedger(cfg.Ledger, deps.DB, deps.RedisClient, clock.Now)
	if err != nil {
		return ServiceContainer{}, err
	}

	timers := reminder.NewTimerQueue(reminder.TimerQueueOptions{
		Logger:  logger,
		Now:     clock.Now,
		Workers: cfg.Reminder.Concurrency,
	})

	resolver := service.NewParticipantResolver(service.ParticipantResolverOptions{
		Messenger:     messaging,
		Cache:         buildParticipantCache(cfg.Reminder, deps.RedisClient, clock.Now),
		LookupTimeout: cfg.Slack.Timeout,
		Logger:        logger,
	})

	engine, err := service.NewReminderService(service.ReminderServiceOptions{
		Policy:       reminder.NewPolicy(cfg.Reminder.LeadMinutes, cfg.Reminder.GraceMinutes),
		Timers:       timers,
		Interviews:   recruiting,
		Details:      recruiting,
		Messenger:    messaging,
		Participants: resolver,
		Formatter:    format.NewFormatter(loc),
		Ledger:       ledger,
		Notifier:     observability.FailureNotifier,
		Metrics:      sink,
		Clock:        clock,
		Retry: service.RetryOptions{
			MaxAttempts: cfg.Reminder.MaxSendAttempts,
			BaseDelay:   cfg.Reminder.RetryBaseDelay,
			MaxDelay:    cfg.Reminder.RetryMaxDelay,
		},
		SendTimeout:  cfg.Reminder.SendTimeout,
		FetchTimeout: cfg.Greenhouse.Timeout,
		Logger:       logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create reminder engine: %w", err)
	}
	timers.SetExpiryFunc(engine.Expire)

	poller, err := service.NewPoller(service.PollerOptions{
		Source:      recruiting,
		Handler:     engine,
		Concurrency: cfg.Reminder.Concurrency,
		Clock:       clock,
		Metrics:     sink,
		Logger:      logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create poller: %w", err)
	}

	runner, err := schedrunner.NewRunner(schedrunner.RunnerOptions{
		Poller:   poller,
		Interval: cfg.Reminder.PollInterval,
		Timeout:  cfg.Reminder.PollTimeout,
		Logger:   logger,
		Metrics:  sink,
		Now:      clock.Now,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create poll runner: %w", err)
	}

	return ServiceContainer{
		Engine:        engine,
		Poller:        poller,
		PollRunner:    runner,
		Timers:        timers,
		Ledger:        ledger,
		Recruiting:    recruiting,
		Messaging:     messaging,
		Observability: observability,
	}, nil
}

// AuthenticateClients verifies both platform credentials concurrently. Any failure is fatal.
func AuthenticateClients(ctx context.Context, services ServiceContainer, timeout time.Duration, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	return authenticateAll(ctx, timeout, logger, map[string]core.Authenticator{
		"greenhouse": services.Recruiting,
		"slack":      services.Messaging,
	})
}

func authenticateAll(ctx context.Context, timeout time.Duration, logger *slog.Logger, clients map[string]core.Authenticator) error {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	authCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for name, client := range clients {
		if client == nil {
			return fmt.Errorf("%s client is not configured", name)
		}
	}

	g, gctx := errgroup.WithContext(authCtx)
	for name, client := range clients {
		g.Go(func() error {
			if err := client.Authenticate(gctx); err != nil {
				return fmt.Errorf("authenticate %s: %w", name, err)
			}
			logger.InfoContext(gctx, "credentials verified", "platform", name)
			return nil
		})
	}
	return g.Wait()
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	DB       *sql.DB
	Logger   *slog.Logger
}

const (
	// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
	shutdownWaitTimeout = 15 * time.Second
)

// serviceStartupDeps groups dependencies for service startup.
type serviceStartupDeps struct {
	ctx    context.Context
	cfg    *ServiceOrchestrationConfig
	logger *slog.Logger
	errCh  chan error
}

// backgroundService describes a startable background component.
type backgroundService struct {
	name    string
	enabled bool
	start   func(context.Context) error
}

// backgroundServiceHandle tracks a running background service.
type backgroundServiceHandle struct {
	name string
	done <-chan struct{}
}

func launchBackground(ctx context.Context, deps *serviceStartupDeps, descriptor backgroundService) <-chan struct{} {
	if deps == nil || !descriptor.enabled {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := descriptor.start(ctx); err != nil {
			errMsg := fmt.Errorf("%s failed: %w", descriptor.name, err)
			select {
			case deps.errCh <- errMsg:
			case <-ctx.Done():
			default:
				deps.logger.WarnContext(ctx, "dropping background service error", "service", descriptor.name, "error", errMsg)
			}
		}
	}()

	deps.logger.InfoContext(ctx, "background service started", "service", descriptor.name)
	return done
}

func startBackgroundServices(deps *serviceStartupDeps, services []backgroundService) []backgroundServiceHandle {
	if deps == nil {
		return nil
	}
	handles := make([]backgroundServiceHandle, 0, len(services))

	for _, svc := range services {
		done := launchBackground(deps.ctx, deps, svc)
		if done == nil {
			continue
		}
		handles = append(handles, backgroundServiceHandle{name: svc.name, done: done})
	}

	return handles
}

func newTimerQueueBackgroundService(deps *serviceStartupDeps) backgroundService {
	timers := deps.cfg.Services.Timers
	return backgroundService{
		name:    "timer queue",
		enabled: timers != nil,
		start:   timers.Start,
	}
}

func newPollRunnerBackgroundService(deps *serviceStartupDeps) backgroundService {
	runner := deps.cfg.Services.PollRunner
	return backgroundService{
		name:    "poll runner",
		enabled: runner != nil,
		start:   runner.Run,
	}
}

func newReaperBackgroundService(deps *serviceStartupDeps) backgroundService {
	enabled := deps.cfg.DB != nil && deps.cfg.Config != nil && deps.cfg.Config.NeedsPostgres()
	return backgroundService{
		name:    "ledger reaper",
		enabled: enabled,
		start: func(ctx context.Context) error {
			return RunReaper(ctx, ReaperConfig{
				DB:      deps.cfg.DB,
				Logger:  deps.logger,
				Config:  deps.cfg.Config.Ledger,
				Metrics: deps.cfg.Services.Observability.Sink(),
			})
		},
	}
}

func buildBackgroundServices(deps *serviceStartupDeps) []backgroundService {
	if deps == nil || deps.cfg == nil {
		return nil
	}
	return []backgroundService{
		newTimerQueueBackgroundService(deps),
		newPollRunnerBackgroundService(deps),
		newReaperBackgroundService(deps),
	}
}

// RunServicesWithShutdown starts the timer queue, the poll runner, the ledger reaper and the
// optional ops HTTP server, then blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}
	serviceCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	deps := &serviceStartupDeps{
		ctx:    serviceCtx,
		cfg:    cfg,
		logger: logger,
	}
	services := buildBackgroundServices(deps)
	deps.errCh = make(chan error, len(services)+1)

	backgrounds := startBackgroundServices(deps, services)

	var httpServer *http.Server
	if cfg.Config.HTTP.Enabled {
		httpServer = StartHTTPServer(&HTTPServerConfig{
			Addr:     cfg.Config.HTTP.Addr,
			Services: cfg.Services,
			Logger:   logger,
		})
	}

	return waitForShutdown(shutdownConfig{
		ctx:         serviceCtx,
		cancel:      cancel,
		errCh:       deps.errCh,
		httpServer:  httpServer,
		logger:      logger,
		backgrounds: backgrounds,
		metrics:     cfg.Services.Observability.MetricsSink,
	})
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	ctx         context.Context
	cancel      context.CancelFunc
	errCh       <-chan error
	httpServer  *http.Server
	logger      *slog.Logger
	backgrounds []backgroundServiceHandle
	metrics     *statsd.Client
	// signals overrides os signal delivery in tests.
	signals <-chan os.Signal
}

// waitForShutdown waits for shutdown signal or service error.
func waitForShutdown(cfg shutdownConfig) error {
	quit := cfg.signals
	if quit == nil {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(ch)
		quit = ch
	}

	select {
	case <-quit:
		cfg.logger.Info("shutting down services...")
		cfg.cancel() // Cancel service context before waiting
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		cfg.cancel() // Cancel service context before waiting
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop stops the HTTP server, waits for background services and flushes the metrics sink.
func gracefulStop(cfg shutdownConfig) error {
	// The service context is already cancelled; shutdown gets a fresh deadline.
	if err := ShutdownHTTPServer(context.WithoutCancel(cfg.ctx), cfg.httpServer, cfg.logger); err != nil {
		return err
	}

	for _, svc := range cfg.backgrounds {
		waitForService(svc.done, svc.name, cfg.logger)
	}

	if cfg.metrics != nil {
		if err := cfg.metrics.Close(); err != nil {
			return fmt.Errorf("close metrics client: %w", err)
		}
	}
	return nil
}

// waitForService waits for a service to finish with timeout.
func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
