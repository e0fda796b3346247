// Package service implements the interview reminder engine and its poll driver.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/interview-reminder/internal/core"
	"github.com/target/interview-reminder/internal/domain/model"
	"github.com/target/interview-reminder/internal/domain/reminder"
	apperrors "github.com/target/interview-reminder/internal/errors"
	obserrors "github.com/target/interview-reminder/internal/observability/errors"
	"github.com/target/interview-reminder/internal/observability/metrics"
	"github.com/target/interview-reminder/internal/observability/notify"
	"github.com/target/interview-reminder/internal/observability/statsd"
)

const (
	defaultSendTimeout  = 30 * time.Second
	defaultFetchTimeout = 15 * time.Second
)

// RetryOptions bounds send retries for one start time.
type RetryOptions struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryOptions returns the retry bounds used when none are configured.
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{MaxAttempts: 5, BaseDelay: 30 * time.Second, MaxDelay: 5 * time.Minute}
}

// Backoff returns the delay before retry n (1-based): base·2^(n−1), capped at MaxDelay.
func (o RetryOptions) Backoff(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	d := o.BaseDelay
	for i := 1; i < n; i++ {
		d *= 2
		if o.MaxDelay > 0 && d >= o.MaxDelay {
			return o.MaxDelay
		}
	}
	if o.MaxDelay > 0 && d > o.MaxDelay {
		return o.MaxDelay
	}
	return d
}

func (o RetryOptions) withDefaults() RetryOptions {
	def := DefaultRetryOptions()
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = def.MaxAttempts
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = def.BaseDelay
	}
	if o.MaxDelay < o.BaseDelay {
		o.MaxDelay = o.BaseDelay
	}
	return o
}

// ReminderServiceOptions holds the dependencies for creating a ReminderService.
type ReminderServiceOptions struct {
	Policy     reminder.Policy
	Store      *reminder.Store
	Timers     core.Timers
	Interviews core.InterviewSource
	Details    core.InterviewDetailsSource
	Messenger  core.Messenger
	// Participants defaults to an uncached resolver over Messenger.
	Participants *ParticipantResolver
	Formatter    core.MessageFormatter
	// Ledger is optional; without it dedup relies on the in-memory store only.
	Ledger   core.DeliveryLedger
	Notifier core.FailureNotifier
	Metrics  statsd.Sink
	Clock    core.Clock
	Retry    RetryOptions

	SendTimeout  time.Duration
	FetchTimeout time.Duration
	Logger       *slog.Logger
}

// ReminderService is the single scheduling authority for interview reminders.
// State transitions for one interview id are serialised; different ids proceed independently.
type ReminderService struct {
	policy       reminder.Policy
	store        *reminder.Store
	timers       core.Timers
	interviews   core.InterviewSource
	details      core.InterviewDetailsSource
	messenger    core.Messenger
	participants *ParticipantResolver
	formatter    core.MessageFormatter
	ledger       core.DeliveryLedger
	notifier     core.FailureNotifier
	metrics      statsd.Sink
	clock        core.Clock
	retry        RetryOptions
	sendTimeout  time.Duration
	fetchTimeout time.Duration
	logger       *slog.Logger

	locks *keyedMutex
}

// NewReminderService wires a ReminderService. Timers, Interviews, Messenger and Formatter are required.
func NewReminderService(opts ReminderServiceOptions) (*ReminderService, error) {
	if opts.Timers == nil {
		return nil, errors.New("timers are required")
	}
	if opts.Interviews == nil {
		return nil, errors.New("interview source is required")
	}
	if opts.Messenger == nil {
		return nil, errors.New("messenger is required")
	}
	if opts.Formatter == nil {
		return nil, errors.New("message formatter is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "reminder_engine")

	clock := opts.Clock
	if clock == nil {
		clock = core.SystemClock
	}
	store := opts.Store
	if store == nil {
		store = reminder.NewStore(reminder.StoreOptions{Now: clock.Now})
	}
	policy := opts.Policy
	if policy.LeadMinutes == 0 && policy.GraceMinutes == 0 {
		policy = reminder.NewPolicy(10, reminder.DefaultGraceMinutes)
	}
	participants := opts.Participants
	if participants == nil {
		participants = NewParticipantResolver(ParticipantResolverOptions{Messenger: opts.Messenger, Logger: logger})
	}
	sendTimeout := opts.SendTimeout
	if sendTimeout <= 0 {
		sendTimeout = defaultSendTimeout
	}
	fetchTimeout := opts.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = defaultFetchTimeout
	}

	return &ReminderService{
		policy:       policy,
		store:        store,
		timers:       opts.Timers,
		interviews:   opts.Interviews,
		details:      opts.Details,
		messenger:    opts.Messenger,
		participants: participants,
		formatter:    opts.Formatter,
		ledger:       opts.Ledger,
		notifier:     opts.Notifier,
		metrics:      opts.Metrics,
		clock:        clock,
		retry:        opts.Retry.withDefaults(),
		sendTimeout:  sendTimeout,
		fetchTimeout: fetchTimeout,
		logger:       logger,
		locks:        newKeyedMutex(),
	}, nil
}

// Store exposes the job store for housekeeping and tests.
func (s *ReminderService) Store() *reminder.Store { return s.store }

// HandleSnapshot classifies one polled interview and acts on the decision.
// The returned error describes a failed send; job state is already updated for retry.
func (s *ReminderService) HandleSnapshot(ctx context.Context, snap model.InterviewSnapshot) error {
	unlock := s.locks.Lock(snap.ID)
	defer unlock()
	return s.apply(ctx, snap, metrics.TriggerPoll)
}

// Expire handles a timer armed for generation gen. The interview is re-fetched so a
// reschedule since arming is honoured; a vanished interview cancels the job.
func (s *ReminderService) Expire(ctx context.Context, id model.InterviewID, gen uint64) {
	unlock := s.locks.Lock(id)
	defer unlock()

	if !s.store.IsCurrent(id, gen) {
		s.logger.DebugContext(ctx, "ignoring stale reminder timer", "interview_id", id, "generation", gen)
		return
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	snap, err := s.interviews.FetchInterview(fetchCtx, id)
	cancel()
	if err != nil {
		if apperrors.IsNotFound(err) {
			s.cancelLocked(ctx, id, "not_found")
			return
		}
		s.rearmAfterFetchError(ctx, id, err)
		return
	}

	if err := s.apply(ctx, snap, metrics.TriggerTimer); err != nil {
		s.logger.WarnContext(ctx, "timer-triggered reminder failed", "interview_id", id, "error", err)
	}
}

// rearmAfterFetchError keeps the job pending and retries re-resolution after the base delay.
// The next poll may still fire it first.
func (s *ReminderService) rearmAfterFetchError(ctx context.Context, id model.InterviewID, err error) {
	job, ok := s.store.Get(id)
	if !ok || job.State != reminder.JobStatePending {
		return
	}
	at := s.clock.Now().Add(s.retry.BaseDelay)
	s.timers.Arm(id, job.Generation, at)
	s.logger.WarnContext(ctx, "interview re-resolution failed, timer re-armed",
		"interview_id", id,
		"retry_at", at,
		"error_class", obserrors.Classify(err),
		"error", err,
	)
}

// Reconcile cancels PENDING jobs whose interview was missing from a successful poll and
// prunes terminal jobs whose start time has passed.
func (s *ReminderService) Reconcile(ctx context.Context, seen []model.InterviewID) {
	present := make(map[model.InterviewID]struct{}, len(seen))
	for _, id := range seen {
		present[id] = struct{}{}
	}
	for _, id := range s.store.PendingIDs() {
		if _, ok := present[id]; ok {
			continue
		}
		unlock := s.locks.Lock(id)
		s.cancelLocked(ctx, id, "missing_from_poll")
		unlock()
	}

	if n := s.store.Prune(s.clock.Now()); n > 0 {
		s.logger.DebugContext(ctx, "pruned reminder jobs", "count", n)
	}
	s.emitJobGauges()
}

func (s *ReminderService) emitJobGauges() {
	counts := s.store.Counts()
	out := map[string]int{
		string(reminder.JobStatePending):   0,
		string(reminder.JobStateFired):     0,
		string(reminder.JobStateCancelled): 0,
		string(reminder.JobStateFailed):    0,
	}
	for state, n := range counts {
		out[string(state)] = n
	}
	metrics.EmitJobGauges(s.metrics, out)
}

// apply runs the classification logic for snap. Callers hold the id lock.
func (s *ReminderService) apply(ctx context.Context, snap model.InterviewSnapshot, trigger string) error {
	if !snap.IsUpcoming() {
		s.cancelLocked(ctx, snap.ID, "status_"+string(snap.Status))
		return nil
	}

	now := s.clock.Now()
	decision := s.policy.Classify(now, snap.StartTime)
	metrics.EmitDecision(s.metrics, trigger, string(decision.Kind))

	switch decision.Kind {
	case reminder.DecisionPast:
		s.cancelLocked(ctx, snap.ID, "past")
		return nil
	case reminder.DecisionDefer:
		s.deferLocked(ctx, snap, decision, trigger)
		return nil
	case reminder.DecisionFireNow:
		return s.fireNowLocked(ctx, snap, trigger)
	default:
		return apperrors.Internalf("unknown decision %q", decision.Kind)
	}
}

func (s *ReminderService) deferLocked(
	ctx context.Context,
	snap model.InterviewSnapshot,
	decision reminder.Decision,
	trigger string,
) {
	res := s.store.Upsert(snap.ID, snap.StartTime, decision.FireAt)
	job := res.Job
	if job.State != reminder.JobStatePending {
		return
	}
	// A timer that just expired has left the queue, so a timer-driven no-op still re-arms.
	if res.Noop() && trigger != metrics.TriggerTimer {
		return
	}
	at := armTime(job)
	s.timers.Arm(job.InterviewID, job.Generation, at)

	msg := "reminder scheduled"
	if res.Replaced() {
		msg = "reminder rescheduled"
	}
	attrs := []any{
		"interview_id", job.InterviewID,
		"start_time", job.LastKnownStartTime,
		"fire_at", at,
		"generation", job.Generation,
		"trigger", trigger,
	}
	if res.Previous != nil {
		attrs = append(attrs, "previous_start_time", res.Previous.LastKnownStartTime)
	}
	s.logger.InfoContext(ctx, msg, attrs...)
}

func armTime(job reminder.NotificationJob) time.Time {
	if !job.RetryAt.IsZero() && job.RetryAt.After(job.ScheduledFireTime) {
		return job.RetryAt
	}
	return job.ScheduledFireTime
}

func (s *ReminderService) fireNowLocked(ctx context.Context, snap model.InterviewSnapshot, trigger string) error {
	res := s.store.Upsert(snap.ID, snap.StartTime, s.policy.FireAt(snap.StartTime))
	job := res.Job
	if job.State != reminder.JobStatePending {
		// FIRED or FAILED for this start time.
		return nil
	}
	now := s.clock.Now()
	if job.RetryPending(now) {
		if res.Noop() && trigger == metrics.TriggerTimer {
			s.timers.Arm(job.InterviewID, job.Generation, job.RetryAt)
		}
		return nil
	}
	s.timers.Disarm(job.InterviewID)
	return s.deliverLocked(ctx, snap, job, trigger)
}

func (s *ReminderService) cancelLocked(ctx context.Context, id model.InterviewID, reason string) {
	job, ok := s.store.Cancel(id)
	s.timers.Disarm(id)
	if !ok {
		return
	}
	s.logger.InfoContext(ctx, "reminder cancelled",
		"interview_id", id,
		"start_time", job.LastKnownStartTime,
		"reason", reason,
	)
}

func (s *ReminderService) deliverLocked(
	ctx context.Context,
	snap model.InterviewSnapshot,
	job reminder.NotificationJob,
	trigger string,
) error {
	key := job.Key()
	if s.alreadyDelivered(ctx, key) {
		if _, err := s.store.MarkFired(job.InterviewID, job.Generation); err != nil {
			s.logger.WarnContext(ctx, "mark fired after ledger hit failed", "interview_id", job.InterviewID, "error", err)
		}
		metrics.EmitDelivery(s.metrics, metrics.DeliveryMetric{Trigger: trigger, Result: metrics.ResultNoop})
		s.logger.InfoContext(ctx, "reminder already delivered", "interview_id", job.InterviewID, "delivery_key", key.String())
		return nil
	}

	started := time.Now()
	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	ack, recipients, err := s.send(sendCtx, snap)
	cancel()
	elapsed := time.Since(started)
	if err != nil {
		return s.handleSendFailure(ctx, snap, job, trigger, elapsed, err)
	}

	if _, ferr := s.store.MarkFired(job.InterviewID, job.Generation); ferr != nil {
		s.logger.WarnContext(ctx, "reminder sent for superseded job", "interview_id", job.InterviewID, "error", ferr)
	}
	s.recordDelivery(ctx, model.DeliveryRecord{
		Key:            key,
		ConversationID: ack.ConversationID,
		MessageID:      ack.MessageID,
		Recipients:     recipients,
		DeliveredAt:    s.clock.Now().UTC(),
	})
	metrics.EmitDelivery(s.metrics, metrics.DeliveryMetric{
		Trigger:  trigger,
		Result:   metrics.ResultSuccess,
		Attempt:  job.Attempts + 1,
		Duration: elapsed,
	})
	s.logger.InfoContext(ctx, "reminder sent",
		"interview_id", job.InterviewID,
		"start_time", job.LastKnownStartTime,
		"conversation_id", ack.ConversationID,
		"message_id", ack.MessageID,
		"recipients", recipients,
		"attempt", job.Attempts+1,
		"trigger", trigger,
	)
	return nil
}

func (s *ReminderService) alreadyDelivered(ctx context.Context, key model.DeliveryKey) bool {
	if s.ledger == nil {
		return false
	}
	ok, err := s.ledger.Delivered(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "delivery ledger lookup failed", "delivery_key", key.String(), "error", err)
		return false
	}
	return ok
}

func (s *ReminderService) recordDelivery(ctx context.Context, rec model.DeliveryRecord) {
	if s.ledger == nil {
		return
	}
	if err := s.ledger.Record(context.WithoutCancel(ctx), rec); err != nil {
		s.logger.WarnContext(ctx, "delivery ledger record failed", "delivery_key", rec.Key.String(), "error", err)
	}
}

// send performs all I/O for one reminder: payload lookup, participant resolution,
// conversation lookup and the message itself.
func (s *ReminderService) send(ctx context.Context, snap model.InterviewSnapshot) (model.MessageAck, int, error) {
	details, err := s.loadDetails(ctx, snap)
	if err != nil {
		return model.MessageAck{}, 0, err
	}
	ids, err := s.participants.ResolveAll(ctx, snap.Participants)
	if err != nil {
		return model.MessageAck{}, 0, fmt.Errorf("resolve participants: %w", err)
	}
	conv, err := s.messenger.GetOrCreateConversation(ctx, ids)
	if err != nil {
		return model.MessageAck{}, 0, fmt.Errorf("open conversation: %w", err)
	}
	body := s.formatter.Format(details, s.clock.Now())
	ack, err := s.messenger.SendMessage(ctx, conv, body)
	if err != nil {
		return model.MessageAck{}, 0, fmt.Errorf("send message: %w", err)
	}
	if ack.ConversationID == "" {
		ack.ConversationID = conv
	}
	return ack, len(ids), nil
}

// loadDetails fetches the application and candidate. Missing records degrade to an
// emptier message; other failures abort the attempt.
func (s *ReminderService) loadDetails(ctx context.Context, snap model.InterviewSnapshot) (model.ReminderDetails, error) {
	details := model.ReminderDetails{Interview: snap}
	if s.details == nil || snap.ApplicationID == "" {
		return details, nil
	}

	app, err := s.details.FetchApplication(ctx, snap.ApplicationID)
	switch {
	case apperrors.IsNotFound(err):
		s.logger.WarnContext(ctx, "application not found", "interview_id", snap.ID, "application_id", snap.ApplicationID)
		return details, nil
	case err != nil:
		return details, fmt.Errorf("fetch application: %w", err)
	}
	details.Application = app
	if app.CandidateID == "" {
		return details, nil
	}

	cand, err := s.details.FetchCandidate(ctx, app.CandidateID)
	switch {
	case apperrors.IsNotFound(err):
		s.logger.WarnContext(ctx, "candidate not found", "interview_id", snap.ID, "candidate_id", app.CandidateID)
	case err != nil:
		return details, fmt.Errorf("fetch candidate: %w", err)
	default:
		details.Candidate = cand
	}
	return details, nil
}

func (s *ReminderService) handleSendFailure(
	ctx context.Context,
	snap model.InterviewSnapshot,
	job reminder.NotificationJob,
	trigger string,
	elapsed time.Duration,
	sendErr error,
) error {
	metrics.EmitDelivery(s.metrics, metrics.DeliveryMetric{
		Trigger:  trigger,
		Result:   metrics.ResultError,
		Attempt:  job.Attempts + 1,
		Duration: elapsed,
		Err:      sendErr,
	})

	// Shutdown is not a delivery failure; the job stays pending untouched.
	if ctx.Err() != nil {
		return sendErr
	}

	now := s.clock.Now()
	retryAt := now.Add(s.retry.Backoff(job.Attempts + 1))
	maxAttempts := s.retry.MaxAttempts
	if !apperrors.IsRetryable(sendErr) || !retryAt.Before(job.LastKnownStartTime) {
		maxAttempts = job.Attempts + 1
	}

	res, err := s.store.RecordFailure(job.InterviewID, job.Generation, maxAttempts, retryAt)
	if err != nil {
		s.logger.WarnContext(ctx, "record send failure", "interview_id", job.InterviewID, "error", err)
		return sendErr
	}

	attrs := []any{
		"interview_id", job.InterviewID,
		"start_time", job.LastKnownStartTime,
		"attempt", res.Attempts,
		"trigger", trigger,
		"error_class", obserrors.Classify(sendErr),
		"error", sendErr,
	}
	if !res.Exhausted {
		s.timers.Arm(job.InterviewID, res.Job.Generation, res.Job.RetryAt)
		s.logger.WarnContext(ctx, "reminder send failed, retry scheduled", append(attrs, "retry_at", res.Job.RetryAt)...)
		return sendErr
	}

	s.timers.Disarm(job.InterviewID)
	s.logger.ErrorContext(ctx, "reminder send failed permanently", attrs...)
	if s.notifier != nil {
		s.notifier.NotifyDeliveryFailure(context.WithoutCancel(ctx), failurePayload(snap, res, sendErr, now))
	}
	return sendErr
}

func failurePayload(
	snap model.InterviewSnapshot,
	res reminder.FailureResult,
	err error,
	now time.Time,
) notify.DeliveryFailurePayload {
	return notify.DeliveryFailurePayload{
		InterviewID:   snap.ID.String(),
		InterviewName: snap.Name,
		StartTime:     snap.StartTime,
		Attempts:      res.Attempts,
		Recipients:    snap.Participants,
		Error:         err.Error(),
		ErrorClass:    obserrors.Classify(err),
		Severity:      notify.SeverityError,
		OccurredAt:    now.UTC(),
		Metadata: map[string]string{
			"application_id": snap.ApplicationID,
			"location":       snap.Location,
		},
	}
}
