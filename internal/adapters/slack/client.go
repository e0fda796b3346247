// Package slack delivers reminders through the Slack Web API using a bot token.
package slack

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/target/interview-reminder/internal/adapters/httpx"
	"github.com/target/interview-reminder/internal/core"
	"github.com/target/interview-reminder/internal/domain/model"
	apperrors "github.com/target/interview-reminder/internal/errors"
)

const (
	// DefaultBaseURL is the Web API root.
	DefaultBaseURL = "https://slack.com/api"
	// MaxConversationMembers is Slack's cap on users in one multi-person DM.
	MaxConversationMembers = 8
)

// Options configures a Client.
type Options struct {
	BaseURL    string
	BotToken   string
	Unfurl     bool
	IconEmoji  string
	SenderName string
	HTTP       *httpx.Client
	Logger     *slog.Logger
}

// Client implements core.MessagingClient.
type Client struct {
	baseURL    string
	auth       string
	unfurl     bool
	iconEmoji  string
	senderName string
	http       *httpx.Client
	logger     *slog.Logger
}

var _ core.MessagingClient = (*Client)(nil)

// NewClient validates opts and constructs a Client.
func NewClient(opts Options) (*Client, error) {
	if opts.BotToken == "" {
		return nil, apperrors.ConfigurationField("SLACK_BOT_TOKEN", "slack bot token is required")
	}
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	hc := opts.HTTP
	if hc == nil {
		hc = httpx.New(httpx.Options{Name: "slack", RateLimit: 1, RateBurst: 3})
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    base,
		auth:       "Bearer " + opts.BotToken,
		unfurl:     opts.Unfurl,
		iconEmoji:  opts.IconEmoji,
		senderName: opts.SenderName,
		http:       hc,
		logger:     logger.With("component", "slack"),
	}, nil
}

type apiResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Warning string `json:"warning"`
}

// Authenticate calls auth.test.
func (c *Client) Authenticate(ctx context.Context) error {
	var resp struct {
		apiResponse
		Team   string `json:"team"`
		UserID string `json:"user_id"`
	}
	if err := c.call(ctx, http.MethodPost, "auth.test", nil, nil, &resp); err != nil {
		return fmt.Errorf("slack authenticate: %w", err)
	}
	if !resp.OK {
		return apperrors.Configuration("slack auth.test failed: " + resp.Error)
	}
	c.logger.Info("slack authenticated", "team", resp.Team, "bot_user", resp.UserID)
	return nil
}

// ResolveParticipant maps an email address to a Slack user id.
func (c *Client) ResolveParticipant(ctx context.Context, address string) (model.ParticipantID, error) {
	var resp struct {
		apiResponse
		User struct {
			ID      string `json:"id"`
			Deleted bool   `json:"deleted"`
		} `json:"user"`
	}
	q := url.Values{"email": {address}}
	if err := c.call(ctx, http.MethodGet, "users.lookupByEmail", q, nil, &resp); err != nil {
		return "", fmt.Errorf("lookup %s: %w", address, err)
	}
	if !resp.OK {
		if resp.Error == "users_not_found" {
			return "", apperrors.NotFoundf("no slack user for %s", address)
		}
		return "", c.apiError("users.lookupByEmail", resp.Error, apperrors.ErrCodeTransient)
	}
	if resp.User.Deleted || resp.User.ID == "" {
		return "", apperrors.NotFoundf("slack user for %s is deactivated", address)
	}
	return model.ParticipantID(resp.User.ID), nil
}

// GetOrCreateConversation opens (or reopens) a direct or multi-person DM with ids.
func (c *Client) GetOrCreateConversation(ctx context.Context, ids []model.ParticipantID) (model.ConversationID, error) {
	if len(ids) == 0 {
		return "", apperrors.Validation("conversation requires at least one participant")
	}
	if len(ids) > MaxConversationMembers {
		return "", apperrors.Validationf("conversation has %d participants; slack allows at most %d", len(ids), MaxConversationMembers)
	}
	users := make([]string, len(ids))
	for i, id := range ids {
		users[i] = string(id)
	}

	var resp struct {
		apiResponse
		Channel struct {
			ID string `json:"id"`
		} `json:"channel"`
	}
	body := map[string]any{"users": strings.Join(users, ","), "return_im": true}
	if err := c.call(ctx, http.MethodPost, "conversations.open", nil, body, &resp); err != nil {
		return "", fmt.Errorf("open conversation: %w", err)
	}
	if !resp.OK {
		return "", c.apiError("conversations.open", resp.Error, apperrors.ErrCodeSendFailure)
	}
	return model.ConversationID(resp.Channel.ID), nil
}

// SendMessage posts body as mrkdwn. The ack carries the message timestamp.
func (c *Client) SendMessage(ctx context.Context, conversation model.ConversationID, body string) (model.MessageAck, error) {
	var resp struct {
		apiResponse
		Channel string `json:"channel"`
		TS      string `json:"ts"`
	}
	req := map[string]any{
		"channel":      string(conversation),
		"text":         body,
		"mrkdwn":       true,
		"unfurl_links": c.unfurl,
		"unfurl_media": c.unfurl,
	}
	if c.iconEmoji != "" {
		req["icon_emoji"] = c.iconEmoji
	}
	if c.senderName != "" {
		req["username"] = c.senderName
	}
	if err := c.call(ctx, http.MethodPost, "chat.postMessage", nil, req, &resp); err != nil {
		return model.MessageAck{}, fmt.Errorf("post message: %w", err)
	}
	if !resp.OK {
		return model.MessageAck{}, c.apiError("chat.postMessage", resp.Error, apperrors.ErrCodeSendFailure)
	}
	if resp.Warning != "" {
		c.logger.Debug("chat.postMessage warning", "warning", resp.Warning)
	}
	channel := model.ConversationID(resp.Channel)
	if channel == "" {
		channel = conversation
	}
	return model.MessageAck{ConversationID: channel, MessageID: resp.TS}, nil
}

func (c *Client) call(ctx context.Context, method, api string, query url.Values, body, out any) error {
	u := c.baseURL + "/" + api
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	hdr := http.Header{"Authorization": {c.auth}}
	var err error
	if method == http.MethodGet {
		_, err = c.http.GetJSON(ctx, u, hdr, out)
	} else {
		if body == nil {
			body = map[string]any{}
		}
		_, err = c.http.PostJSON(ctx, u, hdr, body, out)
	}
	if err != nil && apperrors.IsValidation(err) {
		return apperrors.Wrap(err, apperrors.ErrCodeSendFailure, "slack rejected "+api)
	}
	return err
}

// apiError maps Slack error strings. Token problems are configuration errors,
// rate limits are transient and everything else uses fallback.
func (c *Client) apiError(api, code string, fallback apperrors.ErrorCode) error {
	msg := fmt.Sprintf("slack %s: %s", api, code)
	switch code {
	case "invalid_auth", "not_authed", "account_inactive", "token_revoked", "token_expired", "missing_scope":
		return apperrors.Configuration(msg)
	case "ratelimited", "internal_error", "fatal_error", "service_unavailable", "request_timeout":
		return apperrors.Transient(msg)
	}
	return &apperrors.AppError{Code: fallback, Message: msg}
}
