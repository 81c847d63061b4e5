package transfers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the transfer endpoints on r. verifyLimit throttles
// the code verification route; codes have no lockout, so the rate limit is
// what keeps guessing impractical.
func (h *Handler) MountRoutes(r chi.Router, verifyLimit func(http.Handler) http.Handler) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Get("/{id}/code", h.RevealCode)
	r.Post("/{id}/reject", h.Reject)

	r.Group(func(r chi.Router) {
		if verifyLimit != nil {
			r.Use(verifyLimit)
		}
		r.Post("/{id}/verify", h.Verify)
	})
}
