// Package scheduler provides the fixed-interval loop that drives reminder polls.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/target/interview-reminder/internal/observability/statsd"
	"github.com/target/interview-reminder/internal/service"
)

const (
	defaultInterval    = time.Minute
	defaultPollTimeout = 2 * time.Minute
)

// Poller is the work performed on every tick.
type Poller interface {
	PollOnce(ctx context.Context) (service.PollResult, error)
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	Poller   Poller
	Interval time.Duration
	// Timeout bounds a single poll; an overrunning poll is abandoned and logged.
	Timeout time.Duration
	Logger  *slog.Logger
	Metrics statsd.Sink
	// Now is used for the last-success gauge.
	Now func() time.Time
}

// Runner polls immediately and then once per interval until its context is cancelled.
type Runner struct {
	poller   Poller
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
	metrics  statsd.Sink
	now      func() time.Time

	lastSuccess atomic.Int64
}

// NewRunner creates a new poll runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if err := validateRunnerOptions(&opts); err != nil {
		return nil, err
	}
	return &Runner{
		poller:   opts.Poller,
		interval: opts.Interval,
		timeout:  opts.Timeout,
		logger:   opts.Logger.With("component", "poll_runner"),
		metrics:  opts.Metrics,
		now:      opts.Now,
	}, nil
}

// validateRunnerOptions validates and sets defaults for RunnerOptions.
func validateRunnerOptions(opts *RunnerOptions) error {
	if opts.Poller == nil {
		return errors.New("poller is required")
	}
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultPollTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return nil
}

// Run starts the poll loop and runs until the context is cancelled.
// Poll errors are logged; the loop keeps running.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting poll runner", "interval", r.interval, "timeout", r.timeout)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "poll runner stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Runner) tick(ctx context.Context) {
	pollCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.poller.PollOnce(pollCtx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		if errors.Is(pollCtx.Err(), context.DeadlineExceeded) {
			r.logger.ErrorContext(ctx, "poll exceeded timeout", "poll_id", res.PollID, "timeout", r.timeout, "error", err)
			return
		}
		r.logger.ErrorContext(ctx, "poll error", "poll_id", res.PollID, "error", err)
		return
	}
	at := r.now()
	r.lastSuccess.Store(at.UnixNano())
	if r.metrics != nil {
		r.metrics.Gauge("reminder.poll.last_success_epoch", float64(at.Unix()), nil)
	}
}

// LastSuccess returns when the most recent poll completed, or the zero time before the first.
func (r *Runner) LastSuccess() time.Time {
	n := r.lastSuccess.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// Interval returns the configured poll period.
func (r *Runner) Interval() time.Duration { return r.interval }
