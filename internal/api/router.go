package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the status surface: health probes (always open) and the
// /api routes (status JSON plus the SSE event stream), the latter behind
// Bearer auth when enabled. events may be nil when no broker is running.
// clientCount reports connected SSE clients for the status payload.
func NewRouter(tracker *Tracker, events http.Handler, clientCount func() int, authEnabled bool, token string) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated). Readiness flips after the
	// first successful cycle.
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		if !tracker.Ready() {
			writeJSON(w, http.StatusServiceUnavailable, errorBody("no completed cycle yet"))
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(AuthMiddleware(authEnabled, token))

		r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
			resp := tracker.Status()
			if clientCount != nil {
				resp.SSEClients = clientCount()
			}
			writeJSON(w, http.StatusOK, resp)
		})

		// SSE endpoint (protected by same auth middleware).
		if events != nil {
			r.Get("/events", events.ServeHTTP)
		}
	})

	return r
}
