package reminder

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/target/interview-reminder/internal/domain/model"
)

// JobState is the lifecycle state of a NotificationJob.
type JobState string

const (
	// JobStatePending indicates a reminder is armed or awaiting a send.
	JobStatePending JobState = "pending"
	// JobStateFired indicates the reminder was acknowledged by the messaging platform.
	JobStateFired JobState = "fired"
	// JobStateCancelled indicates the interview left the upcoming set before firing.
	JobStateCancelled JobState = "cancelled"
	// JobStateFailed indicates send retries were exhausted for the current start time.
	JobStateFailed JobState = "failed"
)

// Terminal reports whether the state blocks further sends for the same start time.
func (s JobState) Terminal() bool {
	return s == JobStateFired || s == JobStateFailed
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *JobState) UnmarshalText(text []byte) error {
	v := JobState(strings.ToLower(strings.TrimSpace(string(text))))
	switch v {
	case JobStatePending, JobStateFired, JobStateCancelled, JobStateFailed:
		*s = v
		return nil
	default:
		return fmt.Errorf("invalid job state: %q", string(text))
	}
}

var (
	// ErrJobNotFound is returned when no job is tracked for an interview.
	ErrJobNotFound = errors.New("notification job not found")
	// ErrAlreadyFired is returned when a job has already fired.
	ErrAlreadyFired = errors.New("notification job already fired")
	// ErrStaleGeneration is returned when the caller holds a superseded generation.
	ErrStaleGeneration = errors.New("notification job generation is stale")
	// ErrNotPending is returned when a transition requires PENDING and the job is cancelled or failed.
	ErrNotPending = errors.New("notification job is not pending")
)

// NotificationJob is the scheduling record for one interview.
// ScheduledFireTime never exceeds LastKnownStartTime.
type NotificationJob struct {
	InterviewID        model.InterviewID
	ScheduledFireTime  time.Time
	LastKnownStartTime time.Time
	State              JobState
	// Generation changes on every replace or cancel; timers armed for an older value are ignored.
	Generation uint64
	Attempts   int
	// RetryAt is set while a failed send waits for its backoff timer.
	RetryAt   time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Key returns the delivery key for the job's current start time.
func (j NotificationJob) Key() model.DeliveryKey {
	return model.DeliveryKey{InterviewID: j.InterviewID, StartTime: j.LastKnownStartTime}
}

// RetryPending reports whether a backoff timer owns the next attempt at now.
func (j NotificationJob) RetryPending(now time.Time) bool {
	return j.State == JobStatePending && !j.RetryAt.IsZero() && now.Before(j.RetryAt)
}

// UpsertOutcome describes what Upsert did.
type UpsertOutcome string

const (
	// UpsertCreated indicates a new PENDING job was created.
	UpsertCreated UpsertOutcome = "created"
	// UpsertReplaced indicates an existing job was superseded by a new PENDING job.
	UpsertReplaced UpsertOutcome = "replaced"
	// UpsertUnchanged indicates the existing job already matched; nothing changed.
	UpsertUnchanged UpsertOutcome = "unchanged"
)

// UpsertResult reports the outcome of Upsert along with a copy of the resulting job.
type UpsertResult struct {
	Outcome UpsertOutcome
	Job     NotificationJob
	// Previous is the superseded job, populated when Outcome is UpsertReplaced.
	Previous *NotificationJob
}

// IsNew reports whether a job was created for a previously untracked interview.
func (r UpsertResult) IsNew() bool { return r.Outcome == UpsertCreated }

// Replaced reports whether an existing job was superseded.
func (r UpsertResult) Replaced() bool { return r.Outcome == UpsertReplaced }

// Noop reports whether the store was left untouched.
func (r UpsertResult) Noop() bool { return r.Outcome == UpsertUnchanged }

// FailureResult reports the outcome of RecordFailure.
type FailureResult struct {
	Attempts  int
	Exhausted bool
	Job       NotificationJob
}
