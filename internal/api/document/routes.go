package document

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers reference document routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/api/upload-document", h.UploadDocument)
	r.Route("/api/documents/{lesson_id}", func(r chi.Router) {
		r.Get("/", h.ListDocuments)
		r.Delete("/{filename}", h.DeleteDocument)
	})
}
