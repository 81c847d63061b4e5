package settlement

import "github.com/go-chi/chi/v5"

// MountRoutes registers the settlement endpoints on r.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/import", h.Import)
}
