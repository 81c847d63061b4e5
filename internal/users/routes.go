package users

import "github.com/go-chi/chi/v5"

// MountRoutes registers the account endpoints on r.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}/password", h.SetPassword)
	r.Post("/{id}/deactivate", h.Deactivate)
}
