package expenses

import "github.com/go-chi/chi/v5"

// MountRoutes registers the expense endpoints on r.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/categories", h.ListCategories)
	r.Post("/categories", h.CreateCategory)

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Post("/{id}/approve", h.Approve)
	r.Post("/{id}/pay", h.Pay)
	r.Post("/{id}/reject", h.Reject)
}
