package failurenotifier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/target/interview-reminder/internal/observability/notify"
)

func TestServiceNotifyDeliveryFailure(t *testing.T) {
	var (
		mu       sync.Mutex
		received []notify.DeliveryFailurePayload
	)
	capture := notify.SinkFunc(func(_ context.Context, payload notify.DeliveryFailurePayload) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, payload)
		return nil
	})
	svc := NewService(Options{
		Sinks: []SinkRegistration{
			{Name: "a", Sink: capture},
			{Name: "b", Sink: capture},
			{Name: "nil", Sink: nil},
		},
	})

	svc.NotifyDeliveryFailure(context.Background(), notify.DeliveryFailurePayload{InterviewID: "123"})

	if len(received) != 2 {
		t.Fatalf("expected 2 payloads, got %d", len(received))
	}
	if received[0].Severity != notify.SeverityCritical {
		t.Fatalf("expected severity to default to critical, got %s", received[0].Severity)
	}
	if received[0].OccurredAt.IsZero() {
		t.Fatal("expected OccurredAt to be stamped")
	}
}

func TestServiceDisabled(t *testing.T) {
	if NewService(Options{}).Enabled() {
		t.Fatal("expected Enabled() to be false when no sinks registered")
	}
	var nilSvc *Service
	nilSvc.NotifyDeliveryFailure(context.Background(), notify.DeliveryFailurePayload{})
}

func TestServiceLogsErrors(t *testing.T) {
	svc := NewService(Options{
		Sinks: []SinkRegistration{{
			Name: "fail",
			Sink: notify.SinkFunc(func(context.Context, notify.DeliveryFailurePayload) error {
				return errors.New("boom")
			}),
		}},
	})
	svc.NotifyDeliveryFailure(context.Background(), notify.DeliveryFailurePayload{InterviewID: "123"})
}

func TestServiceSinkTimeoutSurvivesCanceledParent(t *testing.T) {
	var sinkErr error
	svc := NewService(Options{
		SinkTimeout: 20 * time.Millisecond,
		Sinks: []SinkRegistration{{
			Name: "slow",
			Sink: notify.SinkFunc(func(ctx context.Context, _ notify.DeliveryFailurePayload) error {
				<-ctx.Done()
				sinkErr = ctx.Err()
				return sinkErr
			}),
		}},
	})

	parent, cancel := context.WithCancel(context.Background())
	cancel()
	svc.NotifyDeliveryFailure(parent, notify.DeliveryFailurePayload{})
	if !errors.Is(sinkErr, context.DeadlineExceeded) {
		t.Fatalf("sink ctx err = %v, want deadline exceeded", sinkErr)
	}
}
