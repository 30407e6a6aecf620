package session

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers session status and polling routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/api/sessions/{session_id}", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Get("/logs", h.PollLogs)
	})
}

// RegisterStreamRoutes registers the long-lived log stream
func RegisterStreamRoutes(r chi.Router, h *Handler) {
	r.Get("/api/logs/{session_id}", h.StreamLogs)
}
