package reminder

import (
	"container/heap"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/target/interview-reminder/internal/domain/model"
	"golang.org/x/sync/errgroup"
)

const (
	// defaultIdleInterval bounds how long the queue sleeps when nothing is armed.
	defaultIdleInterval = time.Minute
	defaultWorkers      = 4
)

// ExpiryFunc is invoked from a queue worker when a timer comes due.
// It receives only the interview id and the generation the timer was armed for.
type ExpiryFunc func(ctx context.Context, id model.InterviewID, gen uint64)

// TimerQueueOptions configures a TimerQueue.
type TimerQueueOptions struct {
	OnExpire ExpiryFunc
	Logger   *slog.Logger
	Now      func() time.Time
	// IdleInterval caps the sleep when the queue is empty.
	IdleInterval time.Duration

	// Workers bounds how many expiry handlers run at once.
	Workers int
}

type timerEntry struct {
	id    model.InterviewID
	gen   uint64
	at    time.Time
	index int
}

// timerHeap implements heap.Interface ordered by fire time.
type timerHeap []*timerEntry

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].at.Equal(h[j].at) {
		return h[i].id < h[j].id
	}
	return h[i].at.Before(h[j].at)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	e := x.(*timerEntry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// TimerQueue is a min-heap of one-shot timers driven by a single dynamic-sleep goroutine.
// At most one timer is armed per interview id; arming again replaces the previous entry.
type TimerQueue struct {
	mu       sync.Mutex
	entries  timerHeap
	byID     map[model.InterviewID]*timerEntry
	wake     chan struct{}
	onExpire ExpiryFunc
	logger   *slog.Logger
	now      func() time.Time
	idle     time.Duration
	workers  int
}

// NewTimerQueue constructs a TimerQueue. Start must be called to begin dispatching.
func NewTimerQueue(opts TimerQueueOptions) *TimerQueue {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	idle := opts.IdleInterval
	if idle <= 0 {
		idle = defaultIdleInterval
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	q := &TimerQueue{
		byID:     make(map[model.InterviewID]*timerEntry),
		wake:     make(chan struct{}, 1),
		onExpire: opts.OnExpire,
		logger:   logger.With("component", "timer_queue"),
		now:      now,
		idle:     idle,
		workers:  workers,
	}
	heap.Init(&q.entries)
	return q
}

// SetExpiryFunc installs the expiry handler. It must be called before Start.
func (q *TimerQueue) SetExpiryFunc(fn ExpiryFunc) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onExpire = fn
}

// Arm schedules (or reschedules) the timer for id. The previous timer for id, if any, is
// removed before Arm returns.
func (q *TimerQueue) Arm(id model.InterviewID, gen uint64, at time.Time) {
	q.mu.Lock()
	if e, ok := q.byID[id]; ok {
		e.gen = gen
		e.at = at
		heap.Fix(&q.entries, e.index)
	} else {
		e := &timerEntry{id: id, gen: gen, at: at}
		heap.Push(&q.entries, e)
		q.byID[id] = e
	}
	q.mu.Unlock()
	q.signal()
}

// Disarm removes the timer for id. It reports whether a timer was armed.
func (q *TimerQueue) Disarm(id model.InterviewID) bool {
	q.mu.Lock()
	e, ok := q.byID[id]
	if ok {
		heap.Remove(&q.entries, e.index)
		delete(q.byID, id)
	}
	q.mu.Unlock()
	if ok {
		q.signal()
	}
	return ok
}

// Armed returns the fire time and generation of the timer for id.
func (q *TimerQueue) Armed(id model.InterviewID) (time.Time, uint64, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.byID[id]
	if !ok {
		return time.Time{}, 0, false
	}
	return e.at, e.gen, true
}

// Len returns the number of armed timers.
func (q *TimerQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.entries.Len()
}

func (q *TimerQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// popDue removes every entry due at now and returns them with the sleep until the next entry.
func (q *TimerQueue) popDue() ([]timerEntry, time.Duration) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	var due []timerEntry
	for q.entries.Len() > 0 {
		next := q.entries[0]
		if now.Before(next.at) {
			return due, next.at.Sub(now)
		}
		e := heap.Pop(&q.entries).(*timerEntry)
		delete(q.byID, e.id)
		due = append(due, *e)
	}
	return due, q.idle
}

// Start runs the dispatch loop until ctx is cancelled. Due timers are handed to a bounded
// pool of workers so one slow send does not delay the others; the expiry handler is expected
// to bound its own I/O. Start returns after in-flight handlers finish.
func (q *TimerQueue) Start(ctx context.Context) error {
	q.logger.InfoContext(ctx, "timer queue started")
	var g errgroup.Group
	g.SetLimit(q.workers)
	defer func() { _ = g.Wait() }()

	for {
		due, sleep := q.popDue()
		q.mu.Lock()
		fn := q.onExpire
		q.mu.Unlock()
		for _, e := range due {
			if ctx.Err() != nil {
				break
			}
			if fn == nil {
				q.logger.WarnContext(ctx, "timer expired without handler", "interview_id", e.id)
				continue
			}
			g.Go(func() error {
				fn(ctx, e.id, e.gen)
				return nil
			})
		}
		if len(due) > 0 {
			continue
		}

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			q.logger.InfoContext(ctx, "timer queue stopped")
			return nil
		case <-q.wake:
			timer.Stop()
		case <-timer.C:
		}
	}
}
