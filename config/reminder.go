package config

import (
	"fmt"
	"strings"
	"time"
)

// ReminderConfig controls the timing policy, polling cadence and send retries.
type ReminderConfig struct {
	// LeadMinutes is how long before the interview the reminder should arrive.
	LeadMinutes  int `env:"LEAD_MINUTES"  envDefault:"10"`
	GraceMinutes int `env:"GRACE_MINUTES" envDefault:"1"`
	// PollInterval defaults to the lead time when unset.
	PollInterval time.Duration `env:"POLL_INTERVAL"`
	PollTimeout  time.Duration `env:"POLL_TIMEOUT"  envDefault:"2m"`
	// SendTimeout bounds one resolve-format-send sequence.
	SendTimeout time.Duration `env:"SEND_TIMEOUT" envDefault:"30s"`
	Concurrency int           `env:"CONCURRENCY"  envDefault:"4"`

	MaxSendAttempts int           `env:"MAX_SEND_ATTEMPTS" envDefault:"5"`
	RetryBaseDelay  time.Duration `env:"RETRY_BASE_DELAY"  envDefault:"30s"`
	RetryMaxDelay   time.Duration `env:"RETRY_MAX_DELAY"   envDefault:"5m"`

	// AlwaysNotify addresses are added to every reminder conversation.
	AlwaysNotify []string `env:"ALWAYS_NOTIFY" envSeparator:","`
	// DisplayTimezone is an IANA zone name used to render start times.
	DisplayTimezone string `env:"DISPLAY_TIMEZONE" envDefault:"UTC"`

	ParticipantCacheTTL   time.Duration `env:"PARTICIPANT_CACHE_TTL"   envDefault:"24h"`
	ParticipantCacheRedis bool          `env:"PARTICIPANT_CACHE_REDIS" envDefault:"false"`
}

// Sanitize applies guardrails.
func (c *ReminderConfig) Sanitize() {
	if c.LeadMinutes < 0 {
		c.LeadMinutes = 0
	}
	if c.GraceMinutes < 0 {
		c.GraceMinutes = 1
	}
	if c.PollInterval <= 0 {
		c.PollInterval = time.Duration(max(c.LeadMinutes, 1)) * time.Minute
	}
	if c.PollInterval < 10*time.Second {
		c.PollInterval = 10 * time.Second
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = 2 * time.Minute
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = 30 * time.Second
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
	if c.MaxSendAttempts <= 0 {
		c.MaxSendAttempts = 1
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = 30 * time.Second
	}
	if c.RetryMaxDelay < c.RetryBaseDelay {
		c.RetryMaxDelay = c.RetryBaseDelay
	}
	cleaned := c.AlwaysNotify[:0]
	for _, a := range c.AlwaysNotify {
		if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
			cleaned = append(cleaned, a)
		}
	}
	c.AlwaysNotify = cleaned
	if c.DisplayTimezone = strings.TrimSpace(c.DisplayTimezone); c.DisplayTimezone == "" {
		c.DisplayTimezone = "UTC"
	}
	if c.ParticipantCacheTTL <= 0 {
		c.ParticipantCacheTTL = 24 * time.Hour
	}
}

// Location loads DisplayTimezone.
func (c *ReminderConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.DisplayTimezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.DisplayTimezone, err)
	}
	return loc, nil
}

// LedgerBackend selects where acknowledged deliveries are recorded.
type LedgerBackend string

const (
	// LedgerBackendMemory keeps the ledger in process memory.
	LedgerBackendMemory LedgerBackend = "memory"
	// LedgerBackendRedis records deliveries as expiring Redis keys.
	LedgerBackendRedis LedgerBackend = "redis"
	// LedgerBackendPostgres records deliveries in the reminder_deliveries table.
	LedgerBackendPostgres LedgerBackend = "postgres"
)

// UnmarshalText implements encoding.TextUnmarshaler to parse LedgerBackend from env.
func (b *LedgerBackend) UnmarshalText(text []byte) error {
	v := LedgerBackend(strings.ToLower(strings.TrimSpace(string(text))))
	switch v {
	case "":
		*b = LedgerBackendMemory
	case LedgerBackendMemory, LedgerBackendRedis, LedgerBackendPostgres:
		*b = v
	default:
		return fmt.Errorf("invalid ledger backend: %q (valid options: memory, redis, postgres)", string(text))
	}
	return nil
}

// LedgerConfig configures the delivery ledger.
type LedgerConfig struct {
	Backend LedgerBackend `env:"BACKEND" envDefault:"memory"`
	// TTL is how long a delivery is remembered; it must outlive the longest reschedule window.
	TTL       time.Duration `env:"TTL"        envDefault:"168h"`
	KeyPrefix string        `env:"KEY_PREFIX" envDefault:"interview-reminder:delivered"`
	// Retention bounds how long Postgres rows are kept before pruning.
	Retention time.Duration `env:"RETENTION" envDefault:"720h"`
	// PruneInterval is how often expired Postgres rows are deleted.
	PruneInterval time.Duration `env:"PRUNE_INTERVAL" envDefault:"6h"`
}

// Sanitize applies guardrails.
func (c *LedgerConfig) Sanitize() {
	if c.Backend == "" {
		c.Backend = LedgerBackendMemory
	}
	if c.TTL <= 0 {
		c.TTL = 168 * time.Hour
	}
	if c.KeyPrefix = strings.Trim(strings.TrimSpace(c.KeyPrefix), ":"); c.KeyPrefix == "" {
		c.KeyPrefix = "interview-reminder:delivered"
	}
	if c.Retention < c.TTL {
		c.Retention = c.TTL
	}
	if c.PruneInterval <= 0 {
		c.PruneInterval = 6 * time.Hour
	}
}
