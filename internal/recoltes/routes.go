package recoltes

import "github.com/go-chi/chi/v5"

// MountRoutes attaches recolte routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Get("/{id}/summary", h.Summary)
}
