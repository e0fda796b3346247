// Package metrics standardises the names and tags of reminder service metrics.
package metrics

import (
	"maps"
	"time"

	obserrors "github.com/target/interview-reminder/internal/observability/errors"
	"github.com/target/interview-reminder/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// Trigger constants describe which event source drove an engine transition.
const (
	TriggerPoll  = "poll"
	TriggerTimer = "timer"
)

// PollMetric captures one poll cycle.
type PollMetric struct {
	Result     string
	Interviews int
	Duration   time.Duration
	Err        error
}

// EmitPoll emits reminder.poll and reminder.poll.duration.
func EmitPoll(sink statsd.Sink, in PollMetric) {
	if sink == nil {
		return
	}
	tags := withErrorClass(map[string]string{"result": in.Result}, in.Result, in.Err)
	sink.Count("reminder.poll", 1, tags)
	if in.Result == ResultSuccess {
		sink.Gauge("reminder.poll.interviews", float64(in.Interviews), nil)
	}
	if in.Duration > 0 {
		sink.Timing("reminder.poll.duration", in.Duration, CloneTags(tags))
	}
}

// EmitDecision counts one time-policy classification.
func EmitDecision(sink statsd.Sink, trigger, decision string) {
	if sink == nil {
		return
	}
	sink.Count("reminder.decision", 1, map[string]string{"trigger": trigger, "decision": decision})
}

// DeliveryMetric captures one send attempt.
type DeliveryMetric struct {
	Trigger  string
	Result   string
	Attempt  int
	Duration time.Duration
	Err      error
}

// EmitDelivery emits reminder.sent or reminder.send_failed along with the send latency.
func EmitDelivery(sink statsd.Sink, in DeliveryMetric) {
	if sink == nil {
		return
	}
	tags := withErrorClass(map[string]string{"trigger": in.Trigger, "result": in.Result}, in.Result, in.Err)
	name := "reminder.sent"
	if in.Result == ResultError {
		name = "reminder.send_failed"
	}
	sink.Count(name, 1, tags)
	if in.Duration > 0 {
		sink.Timing("reminder.send.duration", in.Duration, CloneTags(tags))
	}
}

// EmitJobGauges reports how many jobs are tracked per state.
func EmitJobGauges(sink statsd.Sink, counts map[string]int) {
	if sink == nil {
		return
	}
	for state, n := range counts {
		sink.Gauge("reminder.jobs_tracked", float64(n), map[string]string{"state": state})
	}
}

func withErrorClass(tags map[string]string, result string, err error) map[string]string {
	if err != nil && result == ResultError {
		if class := obserrors.Classify(err); class != "" {
			tags["error_class"] = class
		}
	}
	return tags
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	return maps.Clone(src)
}
