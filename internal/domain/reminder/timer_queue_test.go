package reminder

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/interview-reminder/internal/domain/model"
)

type expiryRecorder struct {
	mu    sync.Mutex
	calls []timerEntry
	ch    chan struct{}
}

func newExpiryRecorder() *expiryRecorder {
	return &expiryRecorder{ch: make(chan struct{}, 16)}
}

func (r *expiryRecorder) fn(_ context.Context, id model.InterviewID, gen uint64) {
	r.mu.Lock()
	r.calls = append(r.calls, timerEntry{id: id, gen: gen})
	r.mu.Unlock()
	r.ch <- struct{}{}
}

func (r *expiryRecorder) snapshot() []timerEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]timerEntry, len(r.calls))
	copy(out, r.calls)
	return out
}

func (r *expiryRecorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestTimerQueueArmReplacesExisting(t *testing.T) {
	q := NewTimerQueue(TimerQueueOptions{})
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	q.Arm("1", 1, base.Add(59*time.Minute))
	q.Arm("1", 2, base.Add(169*time.Minute))

	require.Equal(t, 1, q.Len())
	at, gen, ok := q.Armed("1")
	require.True(t, ok)
	assert.Equal(t, uint64(2), gen)
	assert.True(t, at.Equal(base.Add(169*time.Minute)))
}

func TestTimerQueueDisarm(t *testing.T) {
	q := NewTimerQueue(TimerQueueOptions{})
	q.Arm("1", 1, time.Now().Add(time.Hour))
	q.Arm("2", 1, time.Now().Add(2*time.Hour))

	assert.True(t, q.Disarm("1"))
	assert.False(t, q.Disarm("1"))
	assert.Equal(t, 1, q.Len())
	_, _, ok := q.Armed("1")
	assert.False(t, ok)
}

func TestTimerQueuePopDueOrdersByTime(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	now := base
	q := NewTimerQueue(TimerQueueOptions{Now: func() time.Time { return now }})
	q.Arm("late", 1, base.Add(3*time.Minute))
	q.Arm("early", 1, base.Add(time.Minute))
	q.Arm("mid", 1, base.Add(2*time.Minute))

	due, sleep := q.popDue()
	assert.Empty(t, due)
	assert.Equal(t, time.Minute, sleep)

	now = base.Add(2 * time.Minute)
	due, sleep = q.popDue()
	require.Len(t, due, 2)
	assert.Equal(t, model.InterviewID("early"), due[0].id)
	assert.Equal(t, model.InterviewID("mid"), due[1].id)
	assert.Equal(t, time.Minute, sleep)
	assert.Equal(t, 1, q.Len())
}

func TestTimerQueueFiresAndWakesOnArm(t *testing.T) {
	rec := newExpiryRecorder()
	q := NewTimerQueue(TimerQueueOptions{OnExpire: rec.fn, IdleInterval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- q.Start(ctx) }()

	// The loop is idling for an hour; arming must wake it.
	q.Arm("1", 7, time.Now().Add(20*time.Millisecond))
	rec.wait(t)

	calls := rec.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, model.InterviewID("1"), calls[0].id)
	assert.Equal(t, uint64(7), calls[0].gen)
	assert.Equal(t, 0, q.Len())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("queue did not stop")
	}
}

func TestTimerQueueDisarmedTimerNeverFires(t *testing.T) {
	rec := newExpiryRecorder()
	q := NewTimerQueue(TimerQueueOptions{OnExpire: rec.fn})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = q.Start(ctx) }()

	q.Arm("gone", 1, time.Now().Add(30*time.Millisecond))
	q.Disarm("gone")
	q.Arm("kept", 1, time.Now().Add(60*time.Millisecond))
	rec.wait(t)

	calls := rec.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, model.InterviewID("kept"), calls[0].id)
}

func TestTimerQueueRunsDueHandlersConcurrently(t *testing.T) {
	var started sync.WaitGroup
	started.Add(2)
	release := make(chan struct{})
	finished := make(chan model.InterviewID, 2)

	q := NewTimerQueue(TimerQueueOptions{
		Workers: 2,
		OnExpire: func(_ context.Context, id model.InterviewID, _ uint64) {
			started.Done()
			<-release
			finished <- id
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- q.Start(ctx) }()

	due := time.Now().Add(10 * time.Millisecond)
	q.Arm("a", 1, due)
	q.Arm("b", 1, due)

	// Both handlers must be in flight at once; a serial loop would block here.
	allStarted := make(chan struct{})
	go func() {
		started.Wait()
		close(allStarted)
	}()
	select {
	case <-allStarted:
	case <-time.After(2 * time.Second):
		t.Fatal("expiry handlers did not run concurrently")
	}

	close(release)
	got := []model.InterviewID{<-finished, <-finished}
	assert.ElementsMatch(t, []model.InterviewID{"a", "b"}, got)

	cancel()
	require.NoError(t, <-done)
}

func TestTimerQueueStopWaitsForInFlightHandlers(t *testing.T) {
	entered := make(chan struct{})
	var finished atomic.Bool
	q := NewTimerQueue(TimerQueueOptions{
		OnExpire: func(ctx context.Context, _ model.InterviewID, _ uint64) {
			close(entered)
			<-ctx.Done()
			time.Sleep(20 * time.Millisecond)
			finished.Store(true)
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- q.Start(ctx) }()

	q.Arm("a", 1, time.Now())
	<-entered
	cancel()
	require.NoError(t, <-done)
	assert.True(t, finished.Load())
}
