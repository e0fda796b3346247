package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/interview-reminder/internal/adapters/httpx"
	"github.com/target/interview-reminder/internal/domain/model"
	apperrors "github.com/target/interview-reminder/internal/errors"
)

type fakeSlack struct {
	t        *testing.T
	handlers map[string]func(body map[string]any, q map[string][]string) any
}

func (f *fakeSlack) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	assert.Equal(f.t, "Bearer xoxb-test", r.Header.Get("Authorization"))
	h, ok := f.handlers[r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}
	body := map[string]any{}
	if r.Method == http.MethodPost {
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
	}
	_ = json.NewEncoder(w).Encode(h(body, r.URL.Query()))
}

func newTestClient(t *testing.T, handlers map[string]func(map[string]any, map[string][]string) any) *Client {
	t.Helper()
	srv := httptest.NewServer(&fakeSlack{t: t, handlers: handlers})
	t.Cleanup(srv.Close)
	c, err := NewClient(Options{
		BaseURL:  srv.URL + "/",
		BotToken: "xoxb-test",
		HTTP:     httpx.New(httpx.Options{Name: "slack", Retry: httpx.RetryPolicy{MinWait: time.Millisecond, MaxWait: time.Millisecond}}),
	})
	require.NoError(t, err)
	return c
}

func TestNewClientRequiresToken(t *testing.T) {
	_, err := NewClient(Options{})
	require.Error(t, err)
	assert.True(t, apperrors.IsConfiguration(err))
}

func TestAuthenticate(t *testing.T) {
	ok := true
	c := newTestClient(t, map[string]func(map[string]any, map[string][]string) any{
		"/auth.test": func(map[string]any, map[string][]string) any {
			if ok {
				return map[string]any{"ok": true, "team": "Acme", "user_id": "UBOT"}
			}
			return map[string]any{"ok": false, "error": "invalid_auth"}
		},
	})
	require.NoError(t, c.Authenticate(context.Background()))

	ok = false
	err := c.Authenticate(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsConfiguration(err))
}

func TestResolveParticipant(t *testing.T) {
	c := newTestClient(t, map[string]func(map[string]any, map[string][]string) any{
		"/users.lookupByEmail": func(_ map[string]any, q map[string][]string) any {
			switch q["email"][0] {
			case "ada@example.com":
				return map[string]any{"ok": true, "user": map[string]any{"id": "U1"}}
			case "gone@example.com":
				return map[string]any{"ok": true, "user": map[string]any{"id": "U2", "deleted": true}}
			case "busy@example.com":
				return map[string]any{"ok": false, "error": "ratelimited"}
			default:
				return map[string]any{"ok": false, "error": "users_not_found"}
			}
		},
	})

	id, err := c.ResolveParticipant(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.ParticipantID("U1"), id)

	_, err = c.ResolveParticipant(context.Background(), "nobody@example.com")
	assert.True(t, apperrors.IsNotFound(err))

	_, err = c.ResolveParticipant(context.Background(), "gone@example.com")
	assert.True(t, apperrors.IsNotFound(err))

	_, err = c.ResolveParticipant(context.Background(), "busy@example.com")
	assert.True(t, apperrors.IsTransient(err))
}

func TestGetOrCreateConversation(t *testing.T) {
	var users string
	c := newTestClient(t, map[string]func(map[string]any, map[string][]string) any{
		"/conversations.open": func(body map[string]any, _ map[string][]string) any {
			users, _ = body["users"].(string)
			return map[string]any{"ok": true, "channel": map[string]any{"id": "G123"}}
		},
	})

	conv, err := c.GetOrCreateConversation(context.Background(), []model.ParticipantID{"U1", "U2"})
	require.NoError(t, err)
	assert.Equal(t, model.ConversationID("G123"), conv)
	assert.Equal(t, "U1,U2", users)

	_, err = c.GetOrCreateConversation(context.Background(), nil)
	assert.True(t, apperrors.IsValidation(err))

	many := make([]model.ParticipantID, MaxConversationMembers+1)
	_, err = c.GetOrCreateConversation(context.Background(), many)
	assert.True(t, apperrors.IsValidation(err))
}

func TestSendMessage(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, map[string]func(map[string]any, map[string][]string) any{
		"/chat.postMessage": func(body map[string]any, _ map[string][]string) any {
			got = body
			if body["channel"] == "CBAD" {
				return map[string]any{"ok": false, "error": "channel_not_found"}
			}
			return map[string]any{"ok": true, "channel": "G123", "ts": "1700000000.000100"}
		},
	})

	ack, err := c.SendMessage(context.Background(), "G123", "hello *there*")
	require.NoError(t, err)
	assert.Equal(t, model.MessageAck{ConversationID: "G123", MessageID: "1700000000.000100"}, ack)
	assert.Equal(t, "hello *there*", got["text"])
	assert.Equal(t, false, got["unfurl_links"])

	_, err = c.SendMessage(context.Background(), "CBAD", "x")
	require.Error(t, err)
	assert.True(t, apperrors.IsSendFailure(err))
	assert.True(t, apperrors.IsRetryable(err))
}
