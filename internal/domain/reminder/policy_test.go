package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMinutesUntil(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		start time.Time
		want  int
	}{
		{"exact", now, 0},
		{"sub-minute future", now.Add(59 * time.Second), 0},
		{"one minute", now.Add(time.Minute), 1},
		{"truncates", now.Add(90*time.Minute + 59*time.Second), 90},
		{"sub-minute past", now.Add(-time.Second), -1},
		{"past", now.Add(-5*time.Minute - 30*time.Second), -5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MinutesUntil(now, tt.start))
		})
	}
}

func TestClassify(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	const lead = 30

	tests := []struct {
		name   string
		start  time.Time
		want   DecisionKind
		fireAt time.Time
	}{
		{"already started", now.Add(-time.Minute), DecisionPast, time.Time{}},
		{"started seconds ago", now.Add(-10 * time.Second), DecisionPast, time.Time{}},
		{"starting now", now, DecisionFireNow, time.Time{}},
		{"within lead", now.Add(5 * time.Minute), DecisionFireNow, time.Time{}},
		{"window edge", now.Add(31 * time.Minute), DecisionFireNow, time.Time{}},
		{"window edge plus seconds", now.Add(31*time.Minute + 59*time.Second), DecisionFireNow, time.Time{}},
		{"just outside window", now.Add(32 * time.Minute), DecisionDefer, now.Add(time.Minute)},
		{"ninety minutes", now.Add(90 * time.Minute), DecisionDefer, now.Add(59 * time.Minute)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(now, tt.start, lead, DefaultGraceMinutes)
			assert.Equal(t, tt.want, got.Kind)
			assert.True(t, tt.fireAt.Equal(got.FireAt), "fireAt: want %s got %s", tt.fireAt, got.FireAt)
			if got.Kind == DecisionDefer {
				assert.True(t, got.FireAt.Before(tt.start))
				assert.True(t, got.FireAt.After(now))
			}
		})
	}
}

func TestClassifyPastIffStartBeforeNow(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for offset := -180; offset <= 180; offset += 7 {
		start := now.Add(time.Duration(offset) * time.Second * 13)
		for _, lead := range []int{0, 1, 10, 30} {
			d := Classify(now, start, lead, DefaultGraceMinutes)
			assert.Equal(t, start.Before(now), d.Kind == DecisionPast, "start=%s lead=%d", start, lead)
			mins := MinutesUntil(now, start)
			wantFire := mins >= 0 && mins <= lead+1
			assert.Equal(t, wantFire, d.Kind == DecisionFireNow, "start=%s lead=%d", start, lead)
			if d.Kind == DecisionDefer {
				assert.True(t, start.Add(-time.Duration(lead+1)*time.Minute).Equal(d.FireAt))
			}
		}
	}
}

func TestPolicyDefaults(t *testing.T) {
	p := NewPolicy(-3, -1)
	assert.Equal(t, 0, p.LeadMinutes)
	assert.Equal(t, DefaultGraceMinutes, p.GraceMinutes)
	assert.Equal(t, 1, p.Window())

	start := time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC)
	p = NewPolicy(10, 1)
	assert.True(t, p.FireAt(start).Equal(start.Add(-11*time.Minute)))
}

func TestDecisionString(t *testing.T) {
	fire := time.Date(2024, 5, 1, 12, 59, 0, 0, time.UTC)
	assert.Equal(t, "defer(2024-05-01T12:59:00Z)", Decision{Kind: DecisionDefer, FireAt: fire}.String())
	assert.Equal(t, "past", Decision{Kind: DecisionPast}.String())
}
