package collections

import "github.com/go-chi/chi/v5"

// MountRoutes attaches collection routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/reattribute", h.Reattribute)
	r.Get("/case/{caseID}", h.ListByCase)
}
