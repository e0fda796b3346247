// Package notify defines the ops alert payload emitted when a reminder cannot be delivered.
package notify

import (
	"context"
	"time"
)

// Severity constants recognised by downstream sinks.
const (
	SeverityCritical = "critical"
	SeverityError    = "error"
	SeverityWarning  = "warning"
)

// DeliveryFailurePayload describes a reminder whose send retries were exhausted.
type DeliveryFailurePayload struct {
	InterviewID   string
	InterviewName string
	StartTime     time.Time
	Attempts      int
	Recipients    []string
	Error         string
	ErrorClass    string
	Severity      string
	OccurredAt    time.Time
	Metadata      map[string]string
}

// DedupKey groups repeated alerts for the same interview slot.
func (p DeliveryFailurePayload) DedupKey() string {
	if p.StartTime.IsZero() {
		return "interview-reminder:" + p.InterviewID
	}
	return "interview-reminder:" + p.InterviewID + ":" + p.StartTime.UTC().Format(time.RFC3339)
}

// Sink describes a destination capable of consuming delivery failure notifications.
type Sink interface {
	SendDeliveryFailure(ctx context.Context, payload DeliveryFailurePayload) error
}

// SinkFunc adapts a function to the Sink interface (useful for tests).
type SinkFunc func(ctx context.Context, payload DeliveryFailurePayload) error

// SendDeliveryFailure implements the Sink interface.
func (f SinkFunc) SendDeliveryFailure(ctx context.Context, payload DeliveryFailurePayload) error {
	if f == nil {
		return nil
	}
	return f(ctx, payload)
}
