// Package httpx serves the ops endpoints: liveness, readiness and a read-only view of scheduled reminders.
package httpx

import (
	"log/slog"
	"net/http"
)

// RouterServices holds the dependencies needed by the HTTP router.
type RouterServices struct {
	Reminders ReminderStatus
	Polls     PollStatus
	Logger    *slog.Logger
}

// NewRouter creates the ops router wrapped in recovery and request logging.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	ready := &ReadyHandlers{Polls: services.Polls}
	mux.HandleFunc("GET /readyz", ready.Ready)

	if services.Reminders != nil {
		h := &ReminderHandlers{Store: services.Reminders}
		mux.HandleFunc("GET /api/reminders", h.List)
		mux.HandleFunc("GET /api/reminders/{id}", h.Get)
	}

	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var handler http.Handler = mux
	handler = Logging(logger)(handler)
	handler = Recover(logger)(handler)
	return handler
}
