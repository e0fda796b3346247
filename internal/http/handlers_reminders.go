package httpx

import (
	"errors"
	"net/http"
	"time"

	"github.com/target/interview-reminder/internal/domain/model"
	"github.com/target/interview-reminder/internal/domain/reminder"
)

// ReminderStatus exposes the tracked notification jobs.
type ReminderStatus interface {
	Jobs() []reminder.NotificationJob
	Get(id model.InterviewID) (reminder.NotificationJob, bool)
}

// ReminderHandlers serves read-only views of the scheduler state.
type ReminderHandlers struct {
	Store ReminderStatus
}

type reminderView struct {
	InterviewID string     `json:"interview_id"`
	State       string     `json:"state"`
	StartTime   time.Time  `json:"start_time"`
	FireAt      time.Time  `json:"fire_at"`
	Generation  uint64     `json:"generation"`
	Attempts    int        `json:"attempts,omitempty"`
	RetryAt     *time.Time `json:"retry_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type reminderListResponse struct {
	Reminders []reminderView `json:"reminders"`
	Counts    map[string]int `json:"counts"`
}

func toView(j reminder.NotificationJob) reminderView {
	v := reminderView{
		InterviewID: string(j.InterviewID),
		State:       string(j.State),
		StartTime:   j.LastKnownStartTime.UTC(),
		FireAt:      j.ScheduledFireTime.UTC(),
		Generation:  j.Generation,
		Attempts:    j.Attempts,
		UpdatedAt:   j.UpdatedAt.UTC(),
	}
	if !j.RetryAt.IsZero() {
		at := j.RetryAt.UTC()
		v.RetryAt = &at
	}
	return v
}

// List returns every tracked job, optionally filtered by ?state=.
func (h *ReminderHandlers) List(w http.ResponseWriter, r *http.Request) {
	var filter reminder.JobState
	if raw := r.URL.Query().Get("state"); raw != "" {
		if err := filter.UnmarshalText([]byte(raw)); err != nil {
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_state", Err: err})
			return
		}
	}

	jobs := h.Store.Jobs()
	resp := reminderListResponse{
		Reminders: make([]reminderView, 0, len(jobs)),
		Counts:    map[string]int{},
	}
	for _, j := range jobs {
		resp.Counts[string(j.State)]++
		if filter != "" && j.State != filter {
			continue
		}
		resp.Reminders = append(resp.Reminders, toView(j))
	}
	WriteJSON(w, http.StatusOK, resp)
}

// Get returns the job for one interview id.
func (h *ReminderHandlers) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	job, ok := h.Store.Get(model.InterviewID(id))
	if !ok {
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: errors.New("no reminder tracked for interview " + id)})
		return
	}
	WriteJSON(w, http.StatusOK, toView(job))
}
