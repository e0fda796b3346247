package reminder

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/target/interview-reminder/internal/domain/model"
)

// StoreOptions configures a Store.
type StoreOptions struct {
	// Now overrides the wall clock used for CreatedAt/UpdatedAt.
	Now func() time.Time
}

// Store tracks at most one NotificationJob per interview behind a single mutex.
// Every method copies job state in or out; callers never hold the lock across I/O.
type Store struct {
	mu      sync.Mutex
	jobs    map[model.InterviewID]*NotificationJob
	lastGen uint64
	now     func() time.Time
}

// NewStore constructs an empty Store.
func NewStore(opts StoreOptions) *Store {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		jobs: make(map[model.InterviewID]*NotificationJob),
		now:  now,
	}
}

func (s *Store) nextGeneration() uint64 {
	s.lastGen++
	return s.lastGen
}

// Upsert records that id should fire at fireAt for an interview starting at start.
//
// A PENDING job with the same schedule is left alone. A PENDING job with a different
// schedule is replaced under a new generation, which disarms any timer holding the old one.
// A FIRED or FAILED job for the same start time is never resurrected; a different start
// time is a new notifiable event and replaces it. CANCELLED jobs are always replaced.
func (s *Store) Upsert(id model.InterviewID, start, fireAt time.Time) UpsertResult {
	start = start.UTC()
	fireAt = fireAt.UTC()
	if fireAt.After(start) {
		fireAt = start
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.jobs[id]
	if !ok {
		job := s.newPending(id, start, fireAt)
		return UpsertResult{Outcome: UpsertCreated, Job: *job}
	}

	switch existing.State {
	case JobStatePending:
		if existing.ScheduledFireTime.Equal(fireAt) && existing.LastKnownStartTime.Equal(start) {
			return UpsertResult{Outcome: UpsertUnchanged, Job: *existing}
		}
	case JobStateFired, JobStateFailed:
		if existing.LastKnownStartTime.Equal(start) {
			return UpsertResult{Outcome: UpsertUnchanged, Job: *existing}
		}
	case JobStateCancelled:
	}

	prev := *existing
	job := s.newPending(id, start, fireAt)
	job.CreatedAt = prev.CreatedAt
	return UpsertResult{Outcome: UpsertReplaced, Job: *job, Previous: &prev}
}

func (s *Store) newPending(id model.InterviewID, start, fireAt time.Time) *NotificationJob {
	now := s.now()
	job := &NotificationJob{
		InterviewID:        id,
		ScheduledFireTime:  fireAt,
		LastKnownStartTime: start,
		State:              JobStatePending,
		Generation:         s.nextGeneration(),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	s.jobs[id] = job
	return job
}

// MarkFired transitions the job holding generation gen from PENDING to FIRED.
// On error the job is left untouched.
func (s *Store) MarkFired(id model.InterviewID, gen uint64) (NotificationJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, err := s.pendingLocked(id, gen)
	if err != nil {
		return NotificationJob{}, err
	}
	job.State = JobStateFired
	job.RetryAt = time.Time{}
	job.UpdatedAt = s.now()
	return *job, nil
}

// Cancel transitions a PENDING job to CANCELLED and bumps its generation.
// It reports false when there was nothing pending to cancel.
func (s *Store) Cancel(id model.InterviewID) (NotificationJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.State != JobStatePending {
		return NotificationJob{}, false
	}
	job.State = JobStateCancelled
	job.Generation = s.nextGeneration()
	job.RetryAt = time.Time{}
	job.UpdatedAt = s.now()
	return *job, true
}

// RecordFailure counts a failed send for generation gen. Once maxAttempts is reached the
// job moves to FAILED; otherwise retryAt is stored as the next attempt time.
func (s *Store) RecordFailure(
	id model.InterviewID,
	gen uint64,
	maxAttempts int,
	retryAt time.Time,
) (FailureResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, err := s.pendingLocked(id, gen)
	if err != nil {
		return FailureResult{}, err
	}
	job.Attempts++
	job.UpdatedAt = s.now()
	if maxAttempts > 0 && job.Attempts >= maxAttempts {
		job.State = JobStateFailed
		job.RetryAt = time.Time{}
		return FailureResult{Attempts: job.Attempts, Exhausted: true, Job: *job}, nil
	}
	job.RetryAt = retryAt.UTC()
	return FailureResult{Attempts: job.Attempts, Job: *job}, nil
}

func (s *Store) pendingLocked(id model.InterviewID, gen uint64) (*NotificationJob, error) {
	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	if job.State == JobStateFired {
		return nil, ErrAlreadyFired
	}
	if job.Generation != gen {
		return nil, ErrStaleGeneration
	}
	if job.State != JobStatePending {
		return nil, ErrNotPending
	}
	return job, nil
}

// Get returns a copy of the job tracked for id.
func (s *Store) Get(id model.InterviewID) (NotificationJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return NotificationJob{}, false
	}
	return *job, true
}

// IsCurrent reports whether gen is the live generation of a PENDING job for id.
func (s *Store) IsCurrent(id model.InterviewID, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	return ok && job.State == JobStatePending && job.Generation == gen
}

// PendingIDs returns the ids of all PENDING jobs in sorted order.
func (s *Store) PendingIDs() []model.InterviewID {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]model.InterviewID, 0, len(s.jobs))
	for id, job := range s.jobs {
		if job.State == JobStatePending {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// Jobs returns copies of all tracked jobs ordered by scheduled fire time, then id.
func (s *Store) Jobs() []NotificationJob {
	s.mu.Lock()
	out := make([]NotificationJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, *job)
	}
	s.mu.Unlock()
	slices.SortFunc(out, func(a, b NotificationJob) int {
		if c := a.ScheduledFireTime.Compare(b.ScheduledFireTime); c != 0 {
			return c
		}
		return strings.Compare(string(a.InterviewID), string(b.InterviewID))
	})
	return out
}

// Len returns the number of tracked jobs in any state.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Counts returns the number of tracked jobs per state.
func (s *Store) Counts() map[JobState]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[JobState]int, 4)
	for _, job := range s.jobs {
		out[job.State]++
	}
	return out
}

// Prune drops non-PENDING jobs whose start time is before cutoff and returns how many were removed.
// FIRED and FAILED jobs are kept until then so a repeated poll for the same start time stays a no-op.
func (s *Store) Prune(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, job := range s.jobs {
		if job.State == JobStatePending {
			continue
		}
		if job.LastKnownStartTime.Before(cutoff) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed
}
