package reminder

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/interview-reminder/internal/domain/model"
)

var storeBase = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestStore() *Store {
	return NewStore(StoreOptions{Now: func() time.Time { return storeBase }})
}

func TestStoreUpsertCreatesPending(t *testing.T) {
	s := newTestStore()
	start := storeBase.Add(90 * time.Minute)

	res := s.Upsert("1", start, start.Add(-31*time.Minute))
	require.True(t, res.IsNew())
	assert.False(t, res.Replaced())
	assert.Equal(t, JobStatePending, res.Job.State)
	assert.True(t, res.Job.ScheduledFireTime.Equal(storeBase.Add(59*time.Minute)))
	assert.True(t, res.Job.LastKnownStartTime.Equal(start))
	assert.NotZero(t, res.Job.Generation)
	assert.Equal(t, 1, s.Len())
}

func TestStoreUpsertSameScheduleIsNoop(t *testing.T) {
	s := newTestStore()
	start := storeBase.Add(90 * time.Minute)
	first := s.Upsert("1", start, start.Add(-31*time.Minute))

	second := s.Upsert("1", start, start.Add(-31*time.Minute))
	assert.True(t, second.Noop())
	assert.Equal(t, first.Job.Generation, second.Job.Generation)
}

func TestStoreUpsertReplacesPendingOnReschedule(t *testing.T) {
	s := newTestStore()
	start := storeBase.Add(90 * time.Minute)
	first := s.Upsert("1", start, start.Add(-31*time.Minute))

	moved := storeBase.Add(200 * time.Minute)
	second := s.Upsert("1", moved, moved.Add(-31*time.Minute))
	require.True(t, second.Replaced())
	require.NotNil(t, second.Previous)
	assert.Equal(t, first.Job.Generation, second.Previous.Generation)
	assert.Greater(t, second.Job.Generation, first.Job.Generation)
	assert.True(t, second.Job.ScheduledFireTime.Equal(storeBase.Add(169*time.Minute)))

	assert.False(t, s.IsCurrent("1", first.Job.Generation))
	assert.True(t, s.IsCurrent("1", second.Job.Generation))
	assert.Equal(t, 1, s.Len())
}

func TestStoreUpsertClampsFireAtToStart(t *testing.T) {
	s := newTestStore()
	start := storeBase.Add(time.Hour)
	res := s.Upsert("1", start, start.Add(time.Minute))
	assert.True(t, res.Job.ScheduledFireTime.Equal(start))
}

func TestStoreMarkFiredIsIdempotent(t *testing.T) {
	s := newTestStore()
	start := storeBase.Add(5 * time.Minute)
	res := s.Upsert("1", start, start.Add(-31*time.Minute))

	job, err := s.MarkFired("1", res.Job.Generation)
	require.NoError(t, err)
	assert.Equal(t, JobStateFired, job.State)

	before, _ := s.Get("1")
	_, err = s.MarkFired("1", res.Job.Generation)
	require.ErrorIs(t, err, ErrAlreadyFired)
	after, _ := s.Get("1")
	assert.Equal(t, before, after)
}

func TestStoreMarkFiredErrors(t *testing.T) {
	s := newTestStore()
	_, err := s.MarkFired("missing", 1)
	require.ErrorIs(t, err, ErrJobNotFound)

	start := storeBase.Add(time.Hour)
	first := s.Upsert("1", start, start.Add(-31*time.Minute))
	s.Upsert("1", start.Add(time.Hour), start.Add(29*time.Minute))
	_, err = s.MarkFired("1", first.Job.Generation)
	require.ErrorIs(t, err, ErrStaleGeneration)

	cur, _ := s.Get("1")
	_, ok := s.Cancel("1")
	require.True(t, ok)
	_, err = s.MarkFired("1", cur.Generation)
	require.ErrorIs(t, err, ErrStaleGeneration)
}

func TestStoreFiredJobIsNotResurrectedForSameStart(t *testing.T) {
	s := newTestStore()
	start := storeBase.Add(5 * time.Minute)
	res := s.Upsert("1", start, start.Add(-31*time.Minute))
	_, err := s.MarkFired("1", res.Job.Generation)
	require.NoError(t, err)

	again := s.Upsert("1", start, start.Add(-31*time.Minute))
	assert.True(t, again.Noop())
	assert.Equal(t, JobStateFired, again.Job.State)
}

func TestStoreFiredJobRearmsForNewStart(t *testing.T) {
	s := newTestStore()
	start := storeBase.Add(5 * time.Minute)
	res := s.Upsert("1", start, start.Add(-31*time.Minute))
	_, err := s.MarkFired("1", res.Job.Generation)
	require.NoError(t, err)

	moved := storeBase.Add(3 * time.Hour)
	again := s.Upsert("1", moved, moved.Add(-31*time.Minute))
	require.True(t, again.Replaced())
	assert.Equal(t, JobStateFired, again.Previous.State)
	assert.Equal(t, JobStatePending, again.Job.State)
	assert.Zero(t, again.Job.Attempts)
}

func TestStoreCancel(t *testing.T) {
	s := newTestStore()
	_, ok := s.Cancel("missing")
	assert.False(t, ok)

	start := storeBase.Add(time.Hour)
	res := s.Upsert("1", start, start.Add(-31*time.Minute))
	job, ok := s.Cancel("1")
	require.True(t, ok)
	assert.Equal(t, JobStateCancelled, job.State)
	assert.NotEqual(t, res.Job.Generation, job.Generation)
	assert.False(t, s.IsCurrent("1", res.Job.Generation))

	_, ok = s.Cancel("1")
	assert.False(t, ok, "second cancel is a no-op")

	back := s.Upsert("1", start, start.Add(-31*time.Minute))
	assert.True(t, back.Replaced(), "a cancelled interview that reappears is re-armed")
}

func TestStoreRecordFailure(t *testing.T) {
	s := newTestStore()
	start := storeBase.Add(5 * time.Minute)
	res := s.Upsert("1", start, start.Add(-31*time.Minute))
	gen := res.Job.Generation

	retryAt := storeBase.Add(30 * time.Second)
	fr, err := s.RecordFailure("1", gen, 3, retryAt)
	require.NoError(t, err)
	assert.Equal(t, 1, fr.Attempts)
	assert.False(t, fr.Exhausted)
	assert.True(t, fr.Job.RetryPending(storeBase))
	assert.False(t, fr.Job.RetryPending(retryAt))

	_, err = s.RecordFailure("1", gen, 3, retryAt)
	require.NoError(t, err)
	fr, err = s.RecordFailure("1", gen, 3, retryAt)
	require.NoError(t, err)
	assert.True(t, fr.Exhausted)
	assert.Equal(t, JobStateFailed, fr.Job.State)

	_, err = s.RecordFailure("1", gen, 3, retryAt)
	require.ErrorIs(t, err, ErrNotPending)

	again := s.Upsert("1", start, start.Add(-31*time.Minute))
	assert.True(t, again.Noop(), "failed job stays terminal for the same start time")

	_, err = s.RecordFailure("1", gen+100, 3, retryAt)
	require.Error(t, err)
}

func TestStorePendingIDsAndPrune(t *testing.T) {
	s := newTestStore()
	past := storeBase.Add(-time.Hour)
	future := storeBase.Add(time.Hour)

	r1 := s.Upsert("a", past, past.Add(-31*time.Minute))
	_, err := s.MarkFired("a", r1.Job.Generation)
	require.NoError(t, err)
	s.Upsert("b", future, future.Add(-31*time.Minute))
	s.Upsert("c", past, past.Add(-31*time.Minute))
	s.Cancel("c")
	r4 := s.Upsert("d", future, future.Add(-31*time.Minute))
	_, err = s.MarkFired("d", r4.Job.Generation)
	require.NoError(t, err)

	assert.Equal(t, []model.InterviewID{"b"}, s.PendingIDs())
	counts := s.Counts()
	assert.Equal(t, 2, counts[JobStateFired])
	assert.Equal(t, 1, counts[JobStatePending])
	assert.Equal(t, 1, counts[JobStateCancelled])

	assert.Equal(t, 2, s.Prune(storeBase))
	_, ok := s.Get("a")
	assert.False(t, ok)
	_, ok = s.Get("d")
	assert.True(t, ok, "fired job for a future start is kept")
	assert.Equal(t, 2, s.Len())
}

func TestStoreConcurrentMarkFiredSingleWinner(t *testing.T) {
	s := newTestStore()
	start := storeBase.Add(5 * time.Minute)
	res := s.Upsert("1", start, start.Add(-31*time.Minute))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.MarkFired("1", res.Job.Generation); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestJobStateUnmarshalText(t *testing.T) {
	var st JobState
	require.NoError(t, st.UnmarshalText([]byte(" FIRED ")))
	assert.Equal(t, JobStateFired, st)
	require.Error(t, st.UnmarshalText([]byte("armed")))
	assert.True(t, JobStateFailed.Terminal())
	assert.False(t, JobStateCancelled.Terminal())
}

func TestStoreJobsOrderedByFireTime(t *testing.T) {
	s := newTestStore()
	late := storeBase.Add(3 * time.Hour)
	early := storeBase.Add(time.Hour)
	s.Upsert("b", late, late.Add(-10*time.Minute))
	s.Upsert("c", early, early.Add(-10*time.Minute))
	s.Upsert("a", early, early.Add(-10*time.Minute))

	jobs := s.Jobs()
	require.Len(t, jobs, 3)
	assert.Equal(t, []model.InterviewID{"a", "c", "b"}, []model.InterviewID{jobs[0].InterviewID, jobs[1].InterviewID, jobs[2].InterviewID})
}
