// Package format renders reminder messages as Slack mrkdwn.
package format

import (
	"strings"
	"time"

	"github.com/target/interview-reminder/internal/core"
	"github.com/target/interview-reminder/internal/domain/model"
	"github.com/target/interview-reminder/internal/domain/reminder"
)

const (
	clockLayout = "15:04 MST"
	dateLayout  = "Mon Jan 02 at 15:04 MST"
)

// Formatter renders reminders in a fixed display timezone.
type Formatter struct {
	loc *time.Location
}

var _ core.MessageFormatter = (*Formatter)(nil)

// NewFormatter returns a Formatter for loc; nil means UTC.
func NewFormatter(loc *time.Location) *Formatter {
	if loc == nil {
		loc = time.UTC
	}
	return &Formatter{loc: loc}
}

// Format implements core.MessageFormatter.
func (f *Formatter) Format(details model.ReminderDetails, now time.Time) string {
	return Reminder(details, now, f.loc)
}

// Reminder renders, for example:
//
//	Ada Lovelace, you have an interview with _Grace Hopper_ *at 15:04 UTC* for Staff Engineer
//
// Interviews an hour or more away use the date form " on *Mon Jan 02 at 15:04 UTC*".
func Reminder(details model.ReminderDetails, now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	iv := details.Interview

	var b strings.Builder
	if name := iv.PrimaryInterviewerName(); name != "" {
		b.WriteString(escape(name))
		b.WriteString(", you have an interview")
	} else {
		b.WriteString("You have an interview")
	}
	if candidate := details.Candidate.FullName(); candidate != "" {
		b.WriteString(" with _")
		b.WriteString(escape(candidate))
		b.WriteByte('_')
	}
	b.WriteString(When(now, iv.StartTime, loc))
	if jobs := joinNonEmpty(details.Application.Jobs, ", "); jobs != "" {
		b.WriteString(" for ")
		b.WriteString(escape(jobs))
	}
	if name := strings.TrimSpace(iv.Name); name != "" {
		b.WriteString("\n• Interview: ")
		b.WriteString(escape(name))
	}
	if location := strings.TrimSpace(iv.Location); location != "" {
		b.WriteString("\n• Location: ")
		b.WriteString(escape(location))
	}
	return b.String()
}

// When renders the start time relative to now, including its leading space.
func When(now, start time.Time, loc *time.Location) string {
	mins := reminder.MinutesUntil(now, start)
	local := start.In(loc)
	switch {
	case mins == 1:
		return " *in 1 minute*"
	case mins < 60:
		return " *at " + local.Format(clockLayout) + "*"
	default:
		return " on *" + local.Format(dateLayout) + "*"
	}
}

func joinNonEmpty(parts []string, sep string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

var mrkdwnEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escape(s string) string {
	return mrkdwnEscaper.Replace(s)
}
