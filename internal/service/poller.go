package service

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/target/interview-reminder/internal/core"
	"github.com/target/interview-reminder/internal/domain/model"
	"github.com/target/interview-reminder/internal/observability/metrics"
	"github.com/target/interview-reminder/internal/observability/statsd"
	"golang.org/x/sync/errgroup"
)

const defaultPollConcurrency = 4

// SnapshotHandler consumes poll results. ReminderService implements it.
type SnapshotHandler interface {
	HandleSnapshot(ctx context.Context, snap model.InterviewSnapshot) error
	Reconcile(ctx context.Context, seen []model.InterviewID)
}

// PollerOptions holds the dependencies for creating a Poller.
type PollerOptions struct {
	Source      core.InterviewSource
	Handler     SnapshotHandler
	Concurrency int
	Clock       core.Clock
	Metrics     statsd.Sink
	Logger      *slog.Logger
}

// PollResult summarises one poll cycle. Partial is set when the source could not list
// every upcoming interview.
type PollResult struct {
	PollID     string
	Interviews int
	Failed     int
	Partial    bool
	Duration   time.Duration
}

// Poller fetches upcoming interviews and feeds them to the engine.
type Poller struct {
	source      core.InterviewSource
	handler     SnapshotHandler
	concurrency int
	clock       core.Clock
	metrics     statsd.Sink
	logger      *slog.Logger
}

// NewPoller constructs a Poller.
func NewPoller(opts PollerOptions) (*Poller, error) {
	if opts.Source == nil {
		return nil, errors.New("interview source is required")
	}
	if opts.Handler == nil {
		return nil, errors.New("snapshot handler is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = core.SystemClock
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaultPollConcurrency
	}
	return &Poller{
		source:      opts.Source,
		handler:     opts.Handler,
		concurrency: concurrency,
		clock:       clock,
		metrics:     opts.Metrics,
		logger:      logger.With("component", "poller"),
	}, nil
}

// PollOnce runs one poll cycle. A fetch error is returned without touching existing jobs;
// per-interview failures are counted and logged but never abort the cycle. A partial listing
// is still handled, but nothing is cancelled for being absent from it.
func (p *Poller) PollOnce(ctx context.Context) (PollResult, error) {
	res := PollResult{PollID: uuid.NewString()}
	started := time.Now()
	logger := p.logger.With("poll_id", res.PollID)

	snaps, err := p.source.FetchUpcomingInterviews(ctx, p.clock.Now())
	if errors.Is(err, core.ErrPartialListing) {
		res.Partial = true
		logger.WarnContext(ctx, "partial interview listing, skipping reconcile", "error", err)
		err = nil
	}
	if err != nil {
		res.Duration = time.Since(started)
		metrics.EmitPoll(p.metrics, metrics.PollMetric{Result: metrics.ResultError, Duration: res.Duration, Err: err})
		logger.WarnContext(ctx, "poll failed, keeping existing reminders", "error", err)
		return res, err
	}

	var failed atomic.Int64
	seen := make([]model.InterviewID, 0, len(snaps))
	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for _, snap := range snaps {
		seen = append(seen, snap.ID)
		g.Go(func() error {
			if herr := p.handler.HandleSnapshot(ctx, snap); herr != nil {
				failed.Add(1)
				logger.WarnContext(ctx, "interview handling failed", "interview_id", snap.ID, "error", herr)
			}
			return nil
		})
	}
	_ = g.Wait()

	// A poll cut short by shutdown is not a complete view of the upcoming set.
	if ctx.Err() == nil && !res.Partial {
		p.handler.Reconcile(ctx, seen)
	}

	res.Interviews = len(snaps)
	res.Failed = int(failed.Load())
	res.Duration = time.Since(started)

	metrics.EmitPoll(p.metrics, metrics.PollMetric{Result: metrics.ResultSuccess, Interviews: res.Interviews, Duration: res.Duration})
	logger.InfoContext(ctx, "poll complete",
		"interviews", res.Interviews,
		"failed", res.Failed,
		"partial", res.Partial,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}
