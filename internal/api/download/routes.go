package download

import (
	"strings"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the generated file download route
func RegisterRoutes(r chi.Router, route string, h *Handler) {
	r.Get(strings.TrimSuffix(route, "/")+"/{filename}", h.Download)
}
