package config

import (
	"strings"
	"time"

	"github.com/jmespath-community/go-jmespath"
	apperrors "github.com/target/interview-reminder/internal/errors"
)

// DefaultParticipantsExpression selects interviewer emails from a scheduled interview.
const DefaultParticipantsExpression = "interviewers[].email"

// GreenhouseConfig configures the Greenhouse Harvest API client.
type GreenhouseConfig struct {
	BaseURL  string        `env:"BASE_URL"  envDefault:"https://harvest.greenhouse.io/v1"`
	APIToken string        `env:"API_TOKEN"`
	Timeout  time.Duration `env:"TIMEOUT"   envDefault:"15s"`
	PerPage  int           `env:"PER_PAGE"  envDefault:"500"`
	// MaxPages bounds pagination of a single poll.
	MaxPages int `env:"MAX_PAGES" envDefault:"20"`
	// RateLimit is requests per second; Harvest allows 50 per 10 seconds.
	RateLimit float64 `env:"RATE_LIMIT" envDefault:"5"`
	RateBurst int     `env:"RATE_BURST" envDefault:"5"`
	// ParticipantsExpr is a JMESPath expression evaluated against each raw interview.
	ParticipantsExpr string `env:"PARTICIPANTS_EXPR" envDefault:"interviewers[].email"`
}

// Sanitize applies guardrails.
func (c *GreenhouseConfig) Sanitize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = "https://harvest.greenhouse.io/v1"
	}
	c.APIToken = strings.TrimSpace(c.APIToken)
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	if c.PerPage <= 0 || c.PerPage > 500 {
		c.PerPage = 500
	}
	if c.MaxPages <= 0 {
		c.MaxPages = 20
	}
	if c.RateLimit <= 0 {
		c.RateLimit = 5
	}
	if c.RateBurst <= 0 {
		c.RateBurst = 1
	}
	if c.ParticipantsExpr = strings.TrimSpace(c.ParticipantsExpr); c.ParticipantsExpr == "" {
		c.ParticipantsExpr = DefaultParticipantsExpression
	}
}

// ValidateParticipantsExpression checks that ParticipantsExpr compiles.
func (c *GreenhouseConfig) ValidateParticipantsExpression() error {
	if _, err := jmespath.Compile(c.ParticipantsExpr); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeConfiguration, "GREENHOUSE_PARTICIPANTS_EXPR is invalid")
	}
	return nil
}
