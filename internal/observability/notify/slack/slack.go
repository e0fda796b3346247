// Package slack posts delivery failure alerts to a Slack incoming webhook.
package slack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/target/interview-reminder/internal/observability/notify"
)

// Config captures the subset of Slack webhook behaviour we need.
type Config struct {
	WebhookURL string
	Channel    string
	Username   string
	Timeout    time.Duration
	RetryLimit int
	Client     *http.Client
}

// Client delivers delivery failure notifications to a Slack webhook.
type Client struct {
	webhookURL string
	channel    string
	username   string
	retryLimit int
	client     *http.Client
	backoff    func(int) time.Duration
}

var _ notify.Sink = (*Client)(nil)

// NewClient builds a Slack webhook client.
func NewClient(cfg Config) (*Client, error) {
	webhookURL := strings.TrimSpace(cfg.WebhookURL)
	if webhookURL == "" {
		return nil, errors.New("slack webhook url is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{
		webhookURL: webhookURL,
		channel:    strings.TrimSpace(cfg.Channel),
		username:   notify.FallbackString(strings.TrimSpace(cfg.Username), "interview-reminder"),
		retryLimit: max(cfg.RetryLimit, 0),
		client:     hc,
	}, nil
}

// SendDeliveryFailure posts a formatted alert to Slack.
func (c *Client) SendDeliveryFailure(ctx context.Context, payload notify.DeliveryFailurePayload) error {
	body, err := json.Marshal(c.formatMessage(payload))
	if err != nil {
		return fmt.Errorf("encode slack payload: %w", err)
	}
	return notify.PostJSON(ctx, notify.PostOptions{
		Client:     c.client,
		URL:        c.webhookURL,
		Body:       body,
		RetryLimit: c.retryLimit,
		Name:       "slack webhook",
		Backoff:    c.backoff,
	})
}

func (c *Client) formatMessage(payload notify.DeliveryFailurePayload) map[string]any {
	occurred := payload.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}

	var text strings.Builder
	text.WriteString("*Interview reminder not delivered*")
	if payload.InterviewID != "" {
		text.WriteString(" `")
		text.WriteString(escapeSlackText(payload.InterviewID))
		text.WriteByte('`')
	}
	text.WriteByte('\n')

	var start string
	if !payload.StartTime.IsZero() {
		start = payload.StartTime.UTC().Format(time.RFC3339)
	}
	var attempts string
	if payload.Attempts > 0 {
		attempts = strconv.Itoa(payload.Attempts)
	}
	for _, f := range []struct{ label, value string }{
		{"Severity", notify.FallbackString(payload.Severity, notify.SeverityCritical)},
		{"Interview", escapeSlackText(payload.InterviewName)},
		{"Starts", start},
		{"Attempts", attempts},
		{"Recipients", escapeSlackText(strings.Join(payload.Recipients, ", "))},
		{"Error class", payload.ErrorClass},
		{"Error", escapeSlackText(payload.Error)},
	} {
		appendField(&text, f.label, f.value)
	}
	if len(payload.Metadata) > 0 {
		text.WriteString("• Metadata:\n")
		for _, k := range slices.Sorted(maps.Keys(payload.Metadata)) {
			text.WriteString("    • ")
			text.WriteString(k)
			text.WriteString(": ")
			text.WriteString(escapeSlackText(payload.Metadata[k]))
			text.WriteByte('\n')
		}
	}
	text.WriteString("• Timestamp: ")
	text.WriteString(occurred.UTC().Format(time.RFC3339))

	msg := map[string]any{
		"text":     text.String(),
		"username": c.username,
	}
	if c.channel != "" {
		msg["channel"] = c.channel
	}
	return msg
}

func appendField(text *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	text.WriteString("• ")
	text.WriteString(label)
	text.WriteString(": ")
	text.WriteString(value)
	text.WriteByte('\n')
}

var slackEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escapeSlackText(value string) string {
	return slackEscaper.Replace(value)
}
