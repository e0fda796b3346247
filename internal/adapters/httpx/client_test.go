package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/target/interview-reminder/internal/errors"
)

func newTestClient(opts Options) *Client {
	if opts.Retry == (RetryPolicy{}) {
		opts.Retry = RetryPolicy{MaxRetries: 2, MinWait: time.Millisecond, MaxWait: 5 * time.Millisecond}
	}
	c := New(opts)
	c.sleep = func(context.Context, time.Duration) error { return nil }
	return c
}

func TestGetJSONDecodesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "reminder-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "Basic abc", r.Header.Get("Authorization"))
		w.Header().Set("Link", `<next>; rel="next"`)
		_, _ = w.Write([]byte(`{"id":42}`))
	}))
	defer srv.Close()

	c := newTestClient(Options{Name: "test", UserAgent: "reminder-test"})
	var out struct {
		ID int `json:"id"`
	}
	hdr, err := c.GetJSON(context.Background(), srv.URL, http.Header{"Authorization": {"Basic abc"}}, &out)
	require.NoError(t, err)
	assert.Equal(t, 42, out.ID)
	assert.Equal(t, `<next>; rel="next"`, hdr.Get("Link"))
}

func TestDoRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(Options{Name: "test"})
	_, err := c.PostJSON(context.Background(), srv.URL, nil, map[string]string{"a": "b"}, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDoExhaustedRetriesIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(Options{Name: "test"})
	_, err := c.GetJSON(context.Background(), srv.URL, nil, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsTransient(err))
	assert.True(t, apperrors.IsRetryable(err))
}

func TestStatusErrorMapping(t *testing.T) {
	tests := map[int]apperrors.ErrorCode{
		http.StatusUnauthorized: apperrors.ErrCodeConfiguration,
		http.StatusForbidden:    apperrors.ErrCodeConfiguration,
		http.StatusNotFound:     apperrors.ErrCodeNotFound,
		http.StatusBadRequest:   apperrors.ErrCodeValidation,
	}
	for status, want := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", status)
		}))
		c := newTestClient(Options{Name: "test"})
		_, err := c.GetJSON(context.Background(), srv.URL, nil, nil)
		srv.Close()
		assert.Equal(t, want, apperrors.GetCode(err), "status %d", status)
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(Options{Name: "test", TripAfter: 2, OpenTimeout: time.Minute, Retry: RetryPolicy{MaxRetries: 0, MinWait: time.Millisecond, MaxWait: time.Millisecond}})
	for range 2 {
		_, err := c.GetJSON(context.Background(), srv.URL, nil, nil)
		require.Error(t, err)
	}
	_, err := c.GetJSON(context.Background(), srv.URL, nil, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsTransient(err))
	assert.Contains(t, err.Error(), "circuit breaker open")
	assert.Equal(t, int32(2), calls.Load())
}

func TestDoHonoursContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(Options{Name: "test", Retry: RetryPolicy{MaxRetries: 3, MinWait: time.Second, MaxWait: time.Second}})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.GetJSON(ctx, srv.URL, nil, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsTimeout(err))
}

func TestBackoffRespectsRetryAfterAndBounds(t *testing.T) {
	c := New(Options{Retry: RetryPolicy{MaxRetries: 1, MinWait: 100 * time.Millisecond, MaxWait: 2 * time.Second}})

	resp := &http.Response{Header: http.Header{"Retry-After": {"30"}}}
	assert.Equal(t, 2*time.Second, c.backoff(0, resp))

	for attempt := range 5 {
		d := c.backoff(attempt, nil)
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.LessOrEqual(t, d, 2*time.Second)
	}
}

func TestRateLimiterSpacesRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(Options{Name: "test", RateLimit: 20, RateBurst: 1})
	start := time.Now()
	for range 3 {
		_, err := c.GetJSON(context.Background(), srv.URL, nil, nil)
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}
