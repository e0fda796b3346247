package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func noBackoff(int) time.Duration { return time.Millisecond }

func TestPostJSONRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("content type = %q", r.Header.Get("Content-Type"))
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"a":1}` {
			t.Errorf("body = %s", body)
		}
		if calls.Add(1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := PostJSON(context.Background(), PostOptions{
		Client:     srv.Client(),
		URL:        srv.URL,
		Body:       []byte(`{"a":1}`),
		RetryLimit: 2,
		Name:       "test sink",
		Backoff:    noBackoff,
	})
	if err != nil {
		t.Fatalf("PostJSON error: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("calls = %d, want 2", calls.Load())
	}
}

func TestPostJSONReturnsLastError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "invalid_token", http.StatusForbidden)
	}))
	defer srv.Close()

	err := PostJSON(context.Background(), PostOptions{
		Client:     srv.Client(),
		URL:        srv.URL,
		RetryLimit: 1,
		Name:       "test sink",
		Backoff:    noBackoff,
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "test sink 403 Forbidden: invalid_token") {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("calls = %d, want 2", calls.Load())
	}
}

func TestPostJSONStopsOnContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	err := PostJSON(ctx, PostOptions{
		Client:     srv.Client(),
		URL:        srv.URL,
		RetryLimit: 5,
		Name:       "test sink",
		Backoff: func(int) time.Duration {
			cancel()
			return time.Hour
		},
	})
	if err != context.Canceled {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestDeliveryFailureDedupKey(t *testing.T) {
	p := DeliveryFailurePayload{InterviewID: "42"}
	if p.DedupKey() != "interview-reminder:42" {
		t.Fatalf("DedupKey = %q", p.DedupKey())
	}
	p.StartTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if p.DedupKey() != "interview-reminder:42:2024-05-01T12:00:00Z" {
		t.Fatalf("DedupKey = %q", p.DedupKey())
	}
}
