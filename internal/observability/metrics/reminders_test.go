package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	apperrors "github.com/target/interview-reminder/internal/errors"
	"github.com/target/interview-reminder/internal/observability/statsd"
)

func TestEmitPoll(t *testing.T) {
	var rec statsd.Recorder
	EmitPoll(&rec, PollMetric{Result: ResultError, Duration: time.Second, Err: apperrors.Transient("503")})
	EmitPoll(&rec, PollMetric{Result: ResultSuccess, Interviews: 3})

	assert.Equal(t, 1.0, rec.Sum("reminder.poll", map[string]string{"result": "error", "error_class": "transient"}))
	assert.Equal(t, 1.0, rec.Sum("reminder.poll", map[string]string{"result": "success"}))
	assert.Equal(t, 3.0, rec.Sum("reminder.poll.interviews", nil))
	assert.Equal(t, 1000.0, rec.Sum("reminder.poll.duration", nil))
}

func TestEmitDelivery(t *testing.T) {
	var rec statsd.Recorder
	EmitDelivery(&rec, DeliveryMetric{Trigger: TriggerTimer, Result: ResultSuccess})
	EmitDelivery(&rec, DeliveryMetric{Trigger: TriggerPoll, Result: ResultError, Err: apperrors.SendFailure("x")})

	assert.Equal(t, 1.0, rec.Sum("reminder.sent", map[string]string{"trigger": "timer"}))
	assert.Equal(t, 1.0, rec.Sum("reminder.send_failed", map[string]string{"error_class": "send_failure"}))
}

func TestEmitNilSink(t *testing.T) {
	assert.NotPanics(t, func() {
		EmitPoll(nil, PollMetric{})
		EmitDecision(nil, TriggerPoll, "defer")
		EmitDelivery(nil, DeliveryMetric{})
		EmitJobGauges(nil, map[string]int{"pending": 1})
	})
}

func TestEmitJobGaugesAndDecision(t *testing.T) {
	var rec statsd.Recorder
	EmitJobGauges(&rec, map[string]int{"pending": 2, "fired": 1})
	EmitDecision(&rec, TriggerPoll, "fire_now")
	assert.Equal(t, 2.0, rec.Sum("reminder.jobs_tracked", map[string]string{"state": "pending"}))
	assert.Equal(t, 1.0, rec.Sum("reminder.decision", map[string]string{"decision": "fire_now"}))
}

func TestCloneTags(t *testing.T) {
	assert.Nil(t, CloneTags(nil))
	src := map[string]string{"a": "b"}
	cp := CloneTags(src)
	cp["a"] = "c"
	assert.Equal(t, "b", src["a"])
}
