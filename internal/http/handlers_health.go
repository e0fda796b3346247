package httpx

import (
	"io"
	"net/http"
	"time"
)

const healthResponse = `{"status":"ok"}`

// healthHandler returns a simple 200 OK status for liveness checks.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.WriteString(w, healthResponse); err != nil {
		// Nothing more to do if the client connection is gone.
		return
	}
}

// PollStatus reports the outcome of the poll loop.
type PollStatus interface {
	LastSuccess() time.Time
	Interval() time.Duration
}

// ReadyHandlers serves the readiness probe.
type ReadyHandlers struct {
	Polls PollStatus
	Now   func() time.Time
}

type readyResponse struct {
	Status      string     `json:"status"`
	LastSuccess *time.Time `json:"last_success,omitempty"`
}

// Ready returns 200 once a poll has succeeded within three poll intervals, 503 otherwise.
func (h *ReadyHandlers) Ready(w http.ResponseWriter, _ *http.Request) {
	if h.Polls == nil {
		WriteJSON(w, http.StatusOK, readyResponse{Status: "ok"})
		return
	}
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	last := h.Polls.LastSuccess()
	if last.IsZero() {
		WriteJSON(w, http.StatusServiceUnavailable, readyResponse{Status: "waiting_for_first_poll"})
		return
	}
	resp := readyResponse{Status: "ok", LastSuccess: &last}
	if now().Sub(last) > 3*h.Polls.Interval() {
		resp.Status = "stale"
		WriteJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	WriteJSON(w, http.StatusOK, resp)
}
