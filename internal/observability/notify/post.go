package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxErrorBody caps how much of a non-2xx response is echoed into the error.
const maxErrorBody = 4 << 10

// PostOptions configures PostJSON.
type PostOptions struct {
	Client     *http.Client
	URL        string
	Body       []byte
	RetryLimit int
	// Name prefixes error messages, e.g. "slack webhook".
	Name string
	// Backoff overrides the linear retry delay for tests.
	Backoff func(attempt int) time.Duration
}

// LinearBackoff waits (attempt+1)*200ms between retries.
func LinearBackoff(attempt int) time.Duration {
	return time.Duration(attempt+1) * 200 * time.Millisecond
}

// PostJSON posts a JSON body, retrying non-2xx and transport failures up to RetryLimit times.
func PostJSON(ctx context.Context, opts PostOptions) error {
	backoff := opts.Backoff
	if backoff == nil {
		backoff = LinearBackoff
	}
	attempts := max(opts.RetryLimit, 0) + 1

	var lastErr error
	for attempt := range attempts {
		lastErr = postOnce(ctx, opts)
		if lastErr == nil {
			return nil
		}
		if attempt == attempts-1 {
			break
		}
		timer := time.NewTimer(backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}

func postOnce(ctx context.Context, opts PostOptions) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, opts.URL, bytes.NewReader(opts.Body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", opts.Name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := opts.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", opts.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if _, err := io.Copy(io.Discard, resp.Body); err != nil {
			return fmt.Errorf("drain %s response body: %w", opts.Name, err)
		}
		return nil
	}

	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if readErr != nil {
		return errors.Join(
			fmt.Errorf("%s %s", opts.Name, resp.Status),
			fmt.Errorf("read error response: %w", readErr),
		)
	}
	return fmt.Errorf("%s %s: %s", opts.Name, resp.Status, strings.TrimSpace(string(respBody)))
}

// FallbackString returns fallback when value is blank.
func FallbackString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
