package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/target/interview-reminder/internal/observability/notify"
)

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error when webhook url missing")
	}
}

func TestFormatMessageIncludesFields(t *testing.T) {
	client, err := NewClient(Config{
		WebhookURL: "https://hooks.slack.com/services/test",
		Channel:    "#recruiting-ops",
		Username:   "bot",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msg := client.formatMessage(notify.DeliveryFailurePayload{
		InterviewID:   "42",
		InterviewName: "Onsite <Systems>",
		StartTime:     time.Date(2024, 5, 1, 15, 0, 0, 0, time.UTC),
		Attempts:      5,
		Recipients:    []string{"a@example.com", "b@example.com"},
		Error:         "channel_not_found",
		ErrorClass:    "send_failure",
		Metadata:      map[string]string{"trigger": "timer"},
	})

	if msg["username"] != "bot" {
		t.Fatalf("expected username to be preserved, got %v", msg["username"])
	}
	if msg["channel"] != "#recruiting-ops" {
		t.Fatalf("expected channel to be set, got %v", msg["channel"])
	}
	text, ok := msg["text"].(string)
	if !ok {
		t.Fatalf("expected text field")
	}
	for _, want := range []string{
		"Interview reminder not delivered", "`42`", "Onsite &lt;Systems&gt;",
		"2024-05-01T15:00:00Z", "Attempts: 5", "a@example.com, b@example.com",
		"channel_not_found", "send_failure", "trigger: timer", "Severity: critical",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("message text missing %q: %s", want, text)
		}
	}
}

func TestFormatMessageDefaults(t *testing.T) {
	client, err := NewClient(Config{WebhookURL: "https://hooks.slack.com/services/test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	msg := client.formatMessage(notify.DeliveryFailurePayload{})
	if msg["username"] != "interview-reminder" {
		t.Fatalf("default username = %v", msg["username"])
	}
	if _, ok := msg["channel"]; ok {
		t.Fatal("channel should be omitted when unset")
	}
	if strings.Contains(msg["text"].(string), "Attempts") {
		t.Fatal("zero attempts should be omitted")
	}
}

func TestSendDeliveryFailurePosts(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client, err := NewClient(Config{WebhookURL: srv.URL, Client: srv.Client()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := client.SendDeliveryFailure(context.Background(), notify.DeliveryFailurePayload{InterviewID: "7"}); err != nil {
		t.Fatalf("SendDeliveryFailure: %v", err)
	}
	if !strings.Contains(got["text"].(string), "`7`") {
		t.Fatalf("posted text = %v", got["text"])
	}
}

func TestSendDeliveryFailureError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no_service", http.StatusNotFound)
	}))
	defer srv.Close()

	client, err := NewClient(Config{WebhookURL: srv.URL, Client: srv.Client(), RetryLimit: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	client.backoff = func(int) time.Duration { return time.Millisecond }

	err = client.SendDeliveryFailure(context.Background(), notify.DeliveryFailurePayload{})
	if err == nil || !strings.Contains(err.Error(), "slack webhook 404") {
		t.Fatalf("unexpected error: %v", err)
	}
}
