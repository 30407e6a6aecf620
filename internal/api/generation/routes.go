package generation

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the long-running generation routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/api/generate", h.GenerateLesson)
	r.Post("/api/batch-generate", h.BatchGenerate)
}

// RegisterHistoryRoutes registers generation history routes
func RegisterHistoryRoutes(r chi.Router, h *Handler) {
	r.Get("/api/generations", h.ListGenerations)
}
