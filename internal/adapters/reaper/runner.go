// Package reaper provides adapters for running the delivery ledger reaper.
package reaper

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/interview-reminder/config"
	"github.com/target/interview-reminder/internal/data"
	"github.com/target/interview-reminder/internal/observability/statsd"
	"github.com/target/interview-reminder/internal/service"
)

// Runner provides a simple adapter to run the reaper loop.
// It constructs the reaper service over the Postgres ledger and runs the cleanup loop.
type Runner struct {
	reaper *service.ReaperService
	logger *slog.Logger
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	DB     *sql.DB
	Config config.LedgerConfig
	Logger *slog.Logger

	// Optional dependency injection for testing/decoupling
	Pruner  service.LedgerPruner
	Metrics statsd.Sink
	Now     func() time.Time
}

// NewRunner creates a new reaper runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if err := validateRunnerOptions(&opts); err != nil {
		return nil, err
	}

	pruner := opts.Pruner
	if pruner == nil {
		repo, err := data.NewDeliveryRepo(opts.DB, opts.Now)
		if err != nil {
			return nil, fmt.Errorf("wire delivery repo: %w", err)
		}
		pruner = repo
	}

	reaper, err := service.NewReaperService(service.ReaperServiceOptions{
		Pruner:    pruner,
		Interval:  opts.Config.PruneInterval,
		Retention: opts.Config.Retention,
		Logger:    opts.Logger,
		Metrics:   opts.Metrics,
		Now:       opts.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("wire reaper service: %w", err)
	}

	return &Runner{reaper: reaper, logger: opts.Logger}, nil
}

// validateRunnerOptions validates and sets defaults for RunnerOptions.
func validateRunnerOptions(opts *RunnerOptions) error {
	if opts.DB == nil && opts.Pruner == nil {
		return errors.New("database connection is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return nil
}

// Run starts the reaper loop and runs until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting reaper runner")
	return r.reaper.Run(ctx)
}
