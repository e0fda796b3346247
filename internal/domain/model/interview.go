// Package model defines the core data types shared by the interview reminder service.
package model

import (
	"slices"
	"strings"
	"time"
)

// InterviewID identifies one scheduled interview instance on the recruiting platform.
type InterviewID string

// String returns the raw identifier.
func (id InterviewID) String() string { return string(id) }

// InterviewStatus mirrors the scheduled interview status reported by the recruiting platform.
type InterviewStatus string

const (
	// InterviewStatusScheduled indicates the interview is booked and upcoming.
	InterviewStatusScheduled InterviewStatus = "scheduled"
	// InterviewStatusAwaitingFeedback indicates the interview happened and scorecards are due.
	InterviewStatusAwaitingFeedback InterviewStatus = "awaiting_feedback"
	// InterviewStatusComplete indicates feedback has been collected.
	InterviewStatusComplete InterviewStatus = "complete"
	// InterviewStatusSkipped indicates the interview was skipped.
	InterviewStatusSkipped InterviewStatus = "skipped"
	// InterviewStatusToBeScheduled indicates the interview has no slot yet.
	InterviewStatusToBeScheduled InterviewStatus = "to_be_scheduled"
	// InterviewStatusOther covers any status this service does not track.
	InterviewStatusOther InterviewStatus = "other"
)

// ParseInterviewStatus normalises a raw status string, mapping unknown values to InterviewStatusOther.
func ParseInterviewStatus(raw string) InterviewStatus {
	switch s := InterviewStatus(strings.ToLower(strings.TrimSpace(raw))); s {
	case InterviewStatusScheduled,
		InterviewStatusAwaitingFeedback,
		InterviewStatusComplete,
		InterviewStatusSkipped,
		InterviewStatusToBeScheduled:
		return s
	default:
		return InterviewStatusOther
	}
}

// Interviewer is a person attending the interview on the hiring side.
type Interviewer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// InterviewSnapshot is an immutable view of one interview as seen during a poll or re-resolution.
// A newer snapshot supersedes an older one; snapshots are never mutated after construction.
type InterviewSnapshot struct {
	ID            InterviewID
	StartTime     time.Time
	EndTime       time.Time
	Status        InterviewStatus
	ApplicationID string
	Name          string
	Location      string
	Interviewers  []Interviewer
	// Participants holds the normalised contact addresses to notify.
	Participants []string
	UpdatedAt    time.Time
}

// NewInterviewSnapshot builds a snapshot, normalising the start time to UTC and
// de-duplicating participant addresses.
func NewInterviewSnapshot(s InterviewSnapshot) InterviewSnapshot {
	out := s
	out.StartTime = s.StartTime.UTC()
	if !s.EndTime.IsZero() {
		out.EndTime = s.EndTime.UTC()
	}
	out.Interviewers = slices.Clone(s.Interviewers)
	out.Participants = NormalizeAddresses(s.Participants)
	if out.Status == "" {
		out.Status = InterviewStatusScheduled
	}
	return out
}

// IsUpcoming reports whether the snapshot is still booked.
func (s InterviewSnapshot) IsUpcoming() bool {
	return s.Status == InterviewStatusScheduled
}

// PrimaryInterviewerName returns the first interviewer's display name, if any.
func (s InterviewSnapshot) PrimaryInterviewerName() string {
	for _, iv := range s.Interviewers {
		if name := strings.TrimSpace(iv.Name); name != "" {
			return name
		}
	}
	return ""
}

// NormalizeAddresses lower-cases, trims and de-duplicates contact addresses, preserving order.
func NormalizeAddresses(addrs []string) []string {
	if len(addrs) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(addrs))
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		v := strings.ToLower(strings.TrimSpace(a))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
