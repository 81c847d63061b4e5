package payroll

import "github.com/go-chi/chi/v5"

// MountRoutes registers the payroll endpoints on r.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/generate", h.Generate)

	r.Route("/salaries", func(r chi.Router) {
		r.Get("/", h.ListSalaries)
		r.Post("/", h.CreateSalary)
		r.Get("/{id}", h.GetSalary)
		r.Delete("/{id}", h.DeleteSalary)
		r.Post("/{id}/pay", h.PaySalary)
	})

	r.Route("/commissions", func(r chi.Router) {
		r.Get("/", h.ListCommissions)
		r.Post("/", h.CreateCommission)
		r.Get("/{id}", h.GetCommission)
		r.Delete("/{id}", h.DeleteCommission)
		r.Post("/{id}/pay", h.PayCommission)
	})
}
