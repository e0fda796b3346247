package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"log/slog"
	"time"

	obserrors "github.com/target/interview-reminder/internal/observability/errors"
	"github.com/target/interview-reminder/internal/observability/metrics"
	"github.com/target/interview-reminder/internal/observability/statsd"
)

// LedgerPruner deletes delivery records older than a cutoff.
type LedgerPruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// ReaperServiceOptions groups dependencies for ReaperService.
type ReaperServiceOptions struct {
	Pruner    LedgerPruner  // Required: durable delivery ledger
	Interval  time.Duration // Required: time between sweeps
	Retention time.Duration // Required: records older than this are deleted
	Logger    *slog.Logger
	Metrics   statsd.Sink
	Now       func() time.Time
}

// ReaperService periodically prunes the durable delivery ledger so it only holds
// deliveries that can still be re-polled.
type ReaperService struct {
	pruner    LedgerPruner
	interval  time.Duration
	retention time.Duration
	logger    *slog.Logger
	metrics   statsd.Sink
	now       func() time.Time
}

// NewReaperService constructs a new ReaperService.
func NewReaperService(opts ReaperServiceOptions) (*ReaperService, error) {
	if opts.Pruner == nil {
		return nil, errors.New("ledger pruner is required")
	}
	if opts.Interval <= 0 {
		return nil, errors.New("reaper interval must be positive")
	}
	if opts.Retention <= 0 {
		return nil, errors.New("reaper retention must be positive")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &ReaperService{
		pruner:    opts.Pruner,
		interval:  opts.Interval,
		retention: opts.Retention,
		logger:    logger.With("component", "ledger_reaper"),
		metrics:   opts.Metrics,
		now:       now,
	}, nil
}

// Run sweeps immediately (after jitter) and then once per interval.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (s *ReaperService) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "starting ledger reaper", "interval", s.interval, "retention", s.retention)

	s.waitWithJitter(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "ledger reaper stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// waitWithJitter adds a random delay up to 10% of the interval to prevent thundering herd.
func (s *ReaperService) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		s.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		return
	}

	jitterNanos := binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter)
	jitter := time.Duration(int64(jitterNanos)) // #nosec G115 - bounded by maxJitter which is int64

	timer := time.NewTimer(jitter)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// Sweep prunes once and returns the number of deleted records.
func (s *ReaperService) Sweep(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.retention)
	return s.pruner.Prune(ctx, cutoff)
}

func (s *ReaperService) sweep(ctx context.Context) {
	start := time.Now()
	n, err := s.Sweep(ctx)
	elapsed := time.Since(start)

	result := metrics.ResultSuccess
	tags := map[string]string{}
	switch {
	case err != nil:
		result = metrics.ResultError
		if class := obserrors.Classify(err); class != "" {
			tags["error_class"] = class
		}
	case n == 0:
		result = metrics.ResultNoop
	}
	tags["result"] = result

	if s.metrics != nil {
		s.metrics.Count("reminder.ledger.pruned", n, tags)
		s.metrics.Timing("reminder.ledger.prune_duration", elapsed, metrics.CloneTags(tags))
	}

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.ErrorContext(ctx, "ledger prune failed", "error", err)
		return
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "ledger pruned", "deleted", n, "duration_ms", elapsed.Milliseconds())
	}
}
