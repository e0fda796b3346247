// Package greenhouse reads scheduled interviews, applications and candidates from the
// Greenhouse Harvest API.
package greenhouse

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jmespath-community/go-jmespath"
	"github.com/target/interview-reminder/internal/adapters/httpx"
	"github.com/target/interview-reminder/internal/core"
	"github.com/target/interview-reminder/internal/domain/model"
	apperrors "github.com/target/interview-reminder/internal/errors"
)

const (
	// DefaultBaseURL is the Harvest v1 API root.
	DefaultBaseURL = "https://harvest.greenhouse.io/v1"
	// MaxPerPage is the largest page size Harvest accepts.
	MaxPerPage = 500

	defaultParticipantsExpr = "interviewers[].email"
)

// Options configures a Client.
type Options struct {
	BaseURL  string
	APIToken string
	PerPage  int
	MaxPages int
	// ParticipantsExpr is a JMESPath expression selecting contact addresses from a raw interview.
	ParticipantsExpr string
	// AlwaysNotify addresses are added to every interview's participants.
	AlwaysNotify []string
	HTTP         *httpx.Client
	Logger       *slog.Logger
}

// Client implements core.InterviewSource, core.InterviewDetailsSource and core.Authenticator.
type Client struct {
	baseURL      string
	authHeader   string
	perPage      int
	maxPages     int
	expr         string
	alwaysNotify []string
	http         *httpx.Client
	logger       *slog.Logger
}

var _ core.RecruitingClient = (*Client)(nil)

// NewClient validates opts and constructs a Client.
func NewClient(opts Options) (*Client, error) {
	if opts.APIToken == "" {
		return nil, apperrors.ConfigurationField("GREENHOUSE_API_TOKEN", "greenhouse api token is required")
	}
	base := opts.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	if _, err := url.Parse(base); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeConfiguration, "invalid greenhouse base url")
	}
	expr := opts.ParticipantsExpr
	if expr == "" {
		expr = defaultParticipantsExpr
	}
	if _, err := jmespath.Compile(expr); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeConfiguration, "invalid participants expression")
	}
	perPage := opts.PerPage
	if perPage <= 0 || perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = 20
	}
	hc := opts.HTTP
	if hc == nil {
		hc = httpx.New(httpx.Options{Name: "greenhouse", RateLimit: 5, RateBurst: 5})
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	token := base64.StdEncoding.EncodeToString([]byte(opts.APIToken + ":"))
	return &Client{
		baseURL:      base,
		authHeader:   "Basic " + token,
		perPage:      perPage,
		maxPages:     maxPages,
		expr:         expr,
		alwaysNotify: model.NormalizeAddresses(opts.AlwaysNotify),
		http:         hc,
		logger:       logger.With("component", "greenhouse"),
	}, nil
}

// Authenticate issues a minimal applications query to verify the token.
func (c *Client) Authenticate(ctx context.Context) error {
	var apps []json.RawMessage
	if _, err := c.get(ctx, c.baseURL+"/applications?per_page=1", &apps); err != nil {
		return fmt.Errorf("greenhouse authenticate: %w", err)
	}
	return nil
}

// FetchUpcomingInterviews lists scheduled interviews starting after since, following
// Link pagination. Only interviews with a concrete start time and scheduled status are returned.
func (c *Client) FetchUpcomingInterviews(ctx context.Context, since time.Time) ([]model.InterviewSnapshot, error) {
	q := url.Values{}
	q.Set("per_page", strconv.Itoa(c.perPage))
	q.Set("starts_after", since.UTC().Format(time.RFC3339))
	next := c.baseURL + "/scheduled_interviews?" + q.Encode()

	var out []model.InterviewSnapshot
	skipped := 0
	for page := 0; next != "" && page < c.maxPages; page++ {
		var raw []json.RawMessage
		hdr, err := c.get(ctx, next, &raw)
		if err != nil {
			return nil, fmt.Errorf("list scheduled interviews: %w", err)
		}
		for _, item := range raw {
			snap, ok, err := c.decodeInterview(item)
			if err != nil {
				skipped++
				c.logger.WarnContext(ctx, "skipping malformed interview", "error", err)
				continue
			}
			if ok && snap.IsUpcoming() {
				out = append(out, snap)
			}
		}
		next = nextLink(hdr.Get("Link"))
	}
	switch {
	case next != "":
		c.logger.WarnContext(ctx, "interview pagination truncated", "max_pages", c.maxPages)
		return out, fmt.Errorf("%w: stopped after %d pages", core.ErrPartialListing, c.maxPages)
	case skipped > 0:
		return out, fmt.Errorf("%w: %d malformed interviews skipped", core.ErrPartialListing, skipped)
	}
	return out, nil
}

// FetchInterview re-reads a single interview. A deleted interview yields not_found.
func (c *Client) FetchInterview(ctx context.Context, id model.InterviewID) (model.InterviewSnapshot, error) {
	var raw json.RawMessage
	if _, err := c.get(ctx, c.baseURL+"/scheduled_interviews/"+url.PathEscape(id.String()), &raw); err != nil {
		return model.InterviewSnapshot{}, fmt.Errorf("get scheduled interview %s: %w", id, err)
	}
	snap, ok, err := c.decodeInterview(raw)
	if err != nil {
		return model.InterviewSnapshot{}, apperrors.Wrapf(err, apperrors.ErrCodeTransient, "decode interview %s", id)
	}
	if !ok {
		return model.InterviewSnapshot{}, apperrors.NotFoundf("interview %s has no start time", id)
	}
	return snap, nil
}

// FetchApplication loads the application an interview belongs to.
func (c *Client) FetchApplication(ctx context.Context, id string) (model.Application, error) {
	var app application
	if _, err := c.get(ctx, c.baseURL+"/applications/"+url.PathEscape(id), &app); err != nil {
		return model.Application{}, fmt.Errorf("get application %s: %w", id, err)
	}
	return app.toModel(), nil
}

// FetchCandidate loads a candidate profile.
func (c *Client) FetchCandidate(ctx context.Context, id string) (model.Candidate, error) {
	var cand candidate
	if _, err := c.get(ctx, c.baseURL+"/candidates/"+url.PathEscape(id), &cand); err != nil {
		return model.Candidate{}, fmt.Errorf("get candidate %s: %w", id, err)
	}
	return cand.toModel(), nil
}

func (c *Client) get(ctx context.Context, u string, out any) (http.Header, error) {
	return c.http.GetJSON(ctx, u, http.Header{"Authorization": {c.authHeader}}, out)
}

// decodeInterview returns ok=false for interviews without a date_time start (all-day events).
func (c *Client) decodeInterview(raw json.RawMessage) (model.InterviewSnapshot, bool, error) {
	var iv scheduledInterview
	if err := json.Unmarshal(raw, &iv); err != nil {
		return model.InterviewSnapshot{}, false, err
	}
	if iv.ID.String() == "" {
		return model.InterviewSnapshot{}, false, fmt.Errorf("interview without id")
	}
	if iv.Start.DateTime == nil {
		return model.InterviewSnapshot{}, false, nil
	}

	participants, err := c.participants(raw)
	if err != nil {
		return model.InterviewSnapshot{}, false, err
	}
	return iv.toModel(participants), true, nil
}

func (c *Client) participants(raw json.RawMessage) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	res, err := jmespath.Search(c.expr, doc)
	if err != nil {
		return nil, fmt.Errorf("evaluate participants expression: %w", err)
	}

	var out []string
	switch v := res.(type) {
	case string:
		out = append(out, v)
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
	}
	return append(out, c.alwaysNotify...), nil
}
