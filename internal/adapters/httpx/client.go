// Package httpx is the outbound HTTP layer shared by the recruiting and messaging adapters.
// Every call is rate limited, wrapped in a circuit breaker, retried on 429/5xx and
// mapped onto the application error taxonomy.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"
	apperrors "github.com/target/interview-reminder/internal/errors"
	"golang.org/x/time/rate"
)

const maxErrorBody = 4 << 10

// RetryPolicy configures in-call retries.
type RetryPolicy struct {
	MaxRetries int
	MinWait    time.Duration
	MaxWait    time.Duration
}

// DefaultRetryPolicy returns the retry policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 2, MinWait: 500 * time.Millisecond, MaxWait: 10 * time.Second}
}

// Options configures a Client.
type Options struct {
	// Name labels the circuit breaker and error messages (e.g. "greenhouse").
	Name       string
	HTTPClient *http.Client
	Timeout    time.Duration
	// RateLimit is requests per second; zero disables limiting.
	RateLimit float64
	RateBurst int
	Retry     RetryPolicy
	UserAgent string
	// TripAfter is the number of consecutive failures that opens the breaker.
	TripAfter uint32
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
}

// Client executes requests with rate limiting, circuit breaking and retries.
type Client struct {
	name      string
	client    *http.Client
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker[*http.Response]
	retry     RetryPolicy
	userAgent string
	sleep     func(ctx context.Context, d time.Duration) error
}

// New constructs a Client.
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if opts.Retry == (RetryPolicy{}) {
		opts.Retry = DefaultRetryPolicy()
	}
	tripAfter := opts.TripAfter
	if tripAfter == 0 {
		tripAfter = 5
	}
	openTimeout := opts.OpenTimeout
	if openTimeout <= 0 {
		openTimeout = 30 * time.Second
	}
	name := opts.Name
	if name == "" {
		name = "http"
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := max(opts.RateBurst, 1)
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return &Client{
		name:    name,
		client:  httpClient,
		limiter: limiter,
		breaker: gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Interval:    60 * time.Second,
			Timeout:     openTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= tripAfter
			},
		}),
		retry:     opts.Retry,
		userAgent: opts.UserAgent,
		sleep:     sleepContext,
	}
}

// Name returns the client label.
func (c *Client) Name() string { return c.name }

// Do executes req. Responses other than 429/5xx are returned as-is and the caller
// closes the body. Exhausted retries, an open breaker and network failures return
// a transient error; context expiry returns timeout or canceled.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "read request body")
		}
	}

	var lastResp *http.Response
	var lastErr error
	attempts := 1 + c.retry.MaxRetries
	for attempt := 0; attempt < attempts; attempt++ {
		if body != nil {
			req.Body = io.NopCloser(bytes.NewReader(body))
			req.ContentLength = int64(len(body))
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, c.contextError(ctx, err)
			}
		}

		resp, err := c.breaker.Execute(func() (*http.Response, error) {
			r, doErr := c.client.Do(req)
			if doErr != nil {
				return nil, doErr
			}
			if r.StatusCode >= 500 || r.StatusCode == http.StatusTooManyRequests {
				return r, fmt.Errorf("%s returned %d", c.name, r.StatusCode)
			}
			return r, nil
		})
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			closeBody(resp)
			return nil, c.contextError(ctx, ctx.Err())
		}

		closeBody(lastResp)
		lastResp, lastErr = resp, err
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			break
		}
		if attempt < attempts-1 {
			if serr := c.sleep(ctx, c.backoff(attempt, resp)); serr != nil {
				closeBody(lastResp)
				return nil, c.contextError(ctx, serr)
			}
		}
	}

	defer closeBody(lastResp)
	return nil, c.mapError(lastResp, lastErr)
}

// GetJSON issues a GET and decodes a 2xx JSON body into out. Non-2xx responses are
// mapped by StatusError. The response headers are returned for pagination.
func (c *Client) GetJSON(ctx context.Context, url string, header http.Header, out any) (http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeConfiguration, "build "+c.name+" request")
	}
	return c.doJSON(req, header, out)
}

// PostJSON marshals in, POSTs it and decodes a 2xx JSON body into out (when non-nil).
func (c *Client) PostJSON(ctx context.Context, url string, header http.Header, in, out any) (http.Header, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode "+c.name+" request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeConfiguration, "build "+c.name+" request")
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	return c.doJSON(req, header, out)
}

func (c *Client) doJSON(req *http.Request, header http.Header, out any) (http.Header, error) {
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.Header, StatusError(c.name, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.Header, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.Header, apperrors.Wrapf(err, apperrors.ErrCodeTransient, "decode %s response", c.name)
	}
	return resp.Header, nil
}

// StatusError maps a non-2xx response onto the error taxonomy:
// 401/403 configuration, 404/410 not_found, 408/429/5xx transient, other 4xx validation.
func StatusError(name string, resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := fmt.Sprintf("%s returned %d", name, resp.StatusCode)
	cause := fmt.Errorf("%s: %s", msg, bytes.TrimSpace(snippet))

	switch code := resp.StatusCode; {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return apperrors.Wrap(cause, apperrors.ErrCodeConfiguration, msg)
	case code == http.StatusNotFound || code == http.StatusGone:
		return apperrors.Wrap(cause, apperrors.ErrCodeNotFound, msg)
	case code == http.StatusRequestTimeout || code == http.StatusTooManyRequests || code >= 500:
		return apperrors.Wrap(cause, apperrors.ErrCodeTransient, msg)
	default:
		return apperrors.Wrap(cause, apperrors.ErrCodeValidation, msg)
	}
}

func (c *Client) backoff(attempt int, resp *http.Response) time.Duration {
	if resp != nil {
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if seconds, err := strconv.Atoi(ra); err == nil && seconds > 0 {
				return min(time.Duration(seconds)*time.Second, c.retry.MaxWait)
			}
			if t, err := http.ParseTime(ra); err == nil {
				wait := time.Until(t)
				if wait <= 0 {
					return c.retry.MinWait
				}
				return min(wait, c.retry.MaxWait)
			}
		}
	}

	base := float64(c.retry.MinWait) * math.Pow(2, float64(attempt))
	base = math.Min(base, float64(c.retry.MaxWait))
	floor := float64(c.retry.MinWait)
	if base <= floor {
		return c.retry.MinWait
	}
	return time.Duration(floor + rand.Float64()*(base-floor))
}

func (c *Client) mapError(resp *http.Response, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return apperrors.Wrapf(err, apperrors.ErrCodeTransient, "%s circuit breaker open", c.name)
	}
	if resp != nil {
		return StatusError(c.name, resp)
	}
	return apperrors.Wrapf(err, apperrors.ErrCodeTransient, "%s request failed", c.name)
}

func (c *Client) contextError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperrors.Wrapf(err, apperrors.ErrCodeTimeout, "%s request timed out", c.name)
	}
	return apperrors.Wrapf(err, apperrors.ErrCodeCanceled, "%s request canceled", c.name)
}

func closeBody(resp *http.Response) {
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
