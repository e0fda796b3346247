// Package core declares the ports between the reminder services and their adapters.
package core

import (
	"context"
	"errors"
	"time"

	"github.com/target/interview-reminder/internal/domain/model"
	"github.com/target/interview-reminder/internal/observability/notify"
)

// This file contains collaborator interface definitions (ports in hexagonal architecture).
// Services depend on these interfaces; adapters under internal/adapters and internal/data implement them.

// ErrPartialListing marks an upcoming-interview listing that is known to be incomplete.
// The returned snapshots are still valid, but absence from them proves nothing.
var ErrPartialListing = errors.New("interview listing incomplete")

// InterviewSource reads scheduled interviews from the recruiting platform.
type InterviewSource interface {
	// FetchUpcomingInterviews returns booked interviews starting at or after since.
	// Failures are transient errors; the caller keeps existing state. A listing that was
	// truncated or skipped records returns what it read with an error wrapping ErrPartialListing.
	FetchUpcomingInterviews(ctx context.Context, since time.Time) ([]model.InterviewSnapshot, error)
	// FetchInterview re-resolves a single interview. A deleted interview yields a not_found error.
	FetchInterview(ctx context.Context, id model.InterviewID) (model.InterviewSnapshot, error)
}

// InterviewDetailsSource loads the records a reminder message is rendered from.
type InterviewDetailsSource interface {
	FetchApplication(ctx context.Context, id string) (model.Application, error)
	FetchCandidate(ctx context.Context, id string) (model.Candidate, error)
}

// RecruitingClient is the full recruiting platform surface used at runtime.
type RecruitingClient interface {
	InterviewSource
	InterviewDetailsSource
	Authenticator
}

// Messenger delivers reminders over the messaging platform.
type Messenger interface {
	// ResolveParticipant maps a contact address to a platform user; unknown users yield not_found.
	ResolveParticipant(ctx context.Context, address string) (model.ParticipantID, error)
	GetOrCreateConversation(ctx context.Context, ids []model.ParticipantID) (model.ConversationID, error)
	SendMessage(ctx context.Context, conversation model.ConversationID, body string) (model.MessageAck, error)
}

// MessagingClient is the full messaging platform surface used at runtime.
type MessagingClient interface {
	Messenger
	Authenticator
}

// Authenticator verifies credentials once at startup.
type Authenticator interface {
	Authenticate(ctx context.Context) error
}

// MessageFormatter renders a reminder body. Implementations are pure.
type MessageFormatter interface {
	Format(details model.ReminderDetails, now time.Time) string
}

// MessageFormatterFunc adapts a function to MessageFormatter.
type MessageFormatterFunc func(details model.ReminderDetails, now time.Time) string

// Format implements MessageFormatter.
func (f MessageFormatterFunc) Format(details model.ReminderDetails, now time.Time) string {
	return f(details, now)
}

// DeliveryLedger remembers which (interview, start time) pairs were acknowledged.
// It backs up the in-memory job store across restarts; delivery stays at-least-once.
type DeliveryLedger interface {
	Delivered(ctx context.Context, key model.DeliveryKey) (bool, error)
	Record(ctx context.Context, rec model.DeliveryRecord) error
}

// ParticipantCache stores resolved contact address → participant id mappings.
type ParticipantCache interface {
	// Get returns ok=false on a miss.
	Get(ctx context.Context, address string) (model.ParticipantID, bool, error)
	Set(ctx context.Context, address string, id model.ParticipantID) error
}

// Timers arms one-shot reminder timers. At most one timer exists per interview id.
type Timers interface {
	Arm(id model.InterviewID, gen uint64, at time.Time)
	Disarm(id model.InterviewID) bool
}

// FailureNotifier alerts operators when a reminder cannot be delivered.
type FailureNotifier interface {
	NotifyDeliveryFailure(ctx context.Context, payload notify.DeliveryFailurePayload)
}

// Clock abstracts wall-clock reads for deterministic tests.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads time.Now.
var SystemClock Clock = ClockFunc(time.Now)
