package forms

import "github.com/go-chi/chi/v5"

// RegisterRoutes mounts the form endpoints on the given router.
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/contact", h.SubmitContact)
	r.Post("/membership", h.SubmitMembership)
	r.Get("/forms/token", h.IssueToken)
}
