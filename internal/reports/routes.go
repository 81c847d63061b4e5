package reports

import "github.com/go-chi/chi/v5"

// MountRoutes registers the report endpoints on r.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/cases/{id}", h.CaseStatement)
	r.Get("/recoltes/{id}", h.RecolteStatement)
}
