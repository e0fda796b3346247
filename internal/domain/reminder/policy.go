// Package reminder holds the timing policy and in-memory job bookkeeping for interview reminders.
package reminder

import (
	"fmt"
	"time"
)

// DefaultGraceMinutes absorbs polling jitter around the firing window.
const DefaultGraceMinutes = 1

// DecisionKind enumerates the outcomes of Classify.
type DecisionKind string

const (
	// DecisionPast means the interview has already started; nothing is sent or scheduled.
	DecisionPast DecisionKind = "past"
	// DecisionFireNow means the interview is inside its firing window.
	DecisionFireNow DecisionKind = "fire_now"
	// DecisionDefer means a reminder should be scheduled for FireAt.
	DecisionDefer DecisionKind = "defer"
)

// Decision is the result of classifying an interview start time.
type Decision struct {
	Kind          DecisionKind
	MinutesUntil  int
	FireAt        time.Time
	StartTime     time.Time
	WindowMinutes int
}

// String renders the decision for logs.
func (d Decision) String() string {
	if d.Kind == DecisionDefer {
		return fmt.Sprintf("%s(%s)", d.Kind, d.FireAt.UTC().Format(time.RFC3339))
	}
	return string(d.Kind)
}

// Policy carries the lead and grace configuration used by Classify.
type Policy struct {
	LeadMinutes  int
	GraceMinutes int
}

// NewPolicy returns a Policy; a negative grace falls back to DefaultGraceMinutes.
func NewPolicy(leadMinutes, graceMinutes int) Policy {
	if leadMinutes < 0 {
		leadMinutes = 0
	}
	if graceMinutes < 0 {
		graceMinutes = DefaultGraceMinutes
	}
	return Policy{LeadMinutes: leadMinutes, GraceMinutes: graceMinutes}
}

// Window returns lead + grace in minutes.
func (p Policy) Window() int {
	return p.LeadMinutes + p.GraceMinutes
}

// Classify applies the policy to a start time.
func (p Policy) Classify(now, start time.Time) Decision {
	return Classify(now, start, p.LeadMinutes, p.GraceMinutes)
}

// FireAt applies the policy's window to a start time.
func (p Policy) FireAt(start time.Time) time.Time {
	return FireAt(start, p.LeadMinutes, p.GraceMinutes)
}

// MinutesUntil returns whole minutes from now until start, truncated toward zero.
// The result is negative once start is a full minute or more in the past.
func MinutesUntil(now, start time.Time) int {
	d := start.Sub(now)
	m := int(d / time.Minute)
	// Truncation toward zero maps (-1m, 0) onto 0; a start in the past is still PAST.
	if m == 0 && d < 0 {
		return -1
	}
	return m
}

// FireAt is start minus (lead + grace) minutes.
func FireAt(start time.Time, leadMinutes, graceMinutes int) time.Time {
	return start.Add(-time.Duration(leadMinutes+graceMinutes) * time.Minute)
}

// Classify decides whether a reminder for start is past, due now or deferred.
//
//	PAST      MinutesUntil < 0
//	FIRE_NOW  0 <= MinutesUntil <= lead + grace
//	DEFER     otherwise, FireAt = start - (lead + grace)
func Classify(now, start time.Time, leadMinutes, graceMinutes int) Decision {
	window := leadMinutes + graceMinutes
	mins := MinutesUntil(now, start)
	d := Decision{MinutesUntil: mins, StartTime: start, WindowMinutes: window}
	switch {
	case mins < 0:
		d.Kind = DecisionPast
	case mins <= window:
		d.Kind = DecisionFireNow
	default:
		d.Kind = DecisionDefer
		d.FireAt = FireAt(start, leadMinutes, graceMinutes)
	}
	return d
}
