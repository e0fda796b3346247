package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseInterviewStatus(t *testing.T) {
	assert.Equal(t, InterviewStatusScheduled, ParseInterviewStatus(" Scheduled "))
	assert.Equal(t, InterviewStatusSkipped, ParseInterviewStatus("skipped"))
	assert.Equal(t, InterviewStatusOther, ParseInterviewStatus("received"))
	assert.Equal(t, InterviewStatusOther, ParseInterviewStatus(""))
}

func TestNewInterviewSnapshotNormalises(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, loc)

	snap := NewInterviewSnapshot(InterviewSnapshot{
		ID:           "42",
		StartTime:    start,
		Participants: []string{"A@example.com", " a@example.com", "", "b@example.com"},
	})

	assert.Equal(t, time.UTC, snap.StartTime.Location())
	assert.True(t, snap.StartTime.Equal(start))
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, snap.Participants)
	assert.Equal(t, InterviewStatusScheduled, snap.Status)
	assert.True(t, snap.IsUpcoming())
}

func TestPrimaryInterviewerName(t *testing.T) {
	snap := InterviewSnapshot{Interviewers: []Interviewer{{Name: " "}, {Name: "Ada Lovelace"}}}
	assert.Equal(t, "Ada Lovelace", snap.PrimaryInterviewerName())
	assert.Empty(t, InterviewSnapshot{}.PrimaryInterviewerName())
}

func TestDeliveryKeyString(t *testing.T) {
	k := DeliveryKey{InterviewID: "7", StartTime: time.Unix(1700000000, 0)}
	assert.Equal(t, "7:1700000000", k.String())
}

func TestCandidateFullName(t *testing.T) {
	assert.Equal(t, "Grace Hopper", Candidate{FirstName: "Grace", LastName: " Hopper"}.FullName())
	assert.Equal(t, "Grace", Candidate{FirstName: "Grace"}.FullName())
}
