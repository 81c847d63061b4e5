package parcels

import "github.com/go-chi/chi/v5"

// MountRoutes attaches parcel routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Intake)
	r.Post("/bulk", h.BulkIntake)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/assign", h.Assign)
	r.Post("/{id}/dispatch", h.Dispatch)
	r.Post("/{id}/deliver", h.Deliver)
	r.Post("/{id}/return", h.Return)
}
