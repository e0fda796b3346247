package config

import (
	"strings"
	"time"
)

// SlackConfig configures the Slack Web API client used to deliver reminders.
type SlackConfig struct {
	BaseURL    string        `env:"BASE_URL"    envDefault:"https://slack.com/api"`
	BotToken   string        `env:"BOT_TOKEN"`
	Timeout    time.Duration `env:"TIMEOUT"     envDefault:"10s"`
	RateLimit  float64       `env:"RATE_LIMIT"  envDefault:"1"`
	RateBurst  int           `env:"RATE_BURST"  envDefault:"3"`
	Unfurl     bool          `env:"UNFURL"      envDefault:"false"`
	IconEmoji  string        `env:"ICON_EMOJI"`
	SenderName string        `env:"SENDER_NAME"`
}

// Sanitize applies guardrails.
func (c *SlackConfig) Sanitize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = "https://slack.com/api"
	}
	c.BotToken = strings.TrimSpace(c.BotToken)
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.RateLimit <= 0 {
		c.RateLimit = 1
	}
	if c.RateBurst <= 0 {
		c.RateBurst = 1
	}
	c.IconEmoji = strings.TrimSpace(c.IconEmoji)
	c.SenderName = strings.TrimSpace(c.SenderName)
}
