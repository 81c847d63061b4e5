package cases

import "github.com/go-chi/chi/v5"

// MountRoutes attaches money case routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Delete("/{id}", h.Delete)
	r.Get("/{id}/balance", h.Balance)
	r.Post("/{id}/activate", h.Activate)
	r.Post("/{id}/release", h.Release)
	r.Post("/{id}/status", h.SetStatus)
}
