package qa

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// RegisterRoutes registers Q&A routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(60 * time.Second))
		r.Post("/query", h.Query)
		r.Get("/info", h.Info)
	})

	// No request timeout on the stream route: a turn streams for as long as
	// the provider generates. Client disconnect or shutdown bounds it.
	r.Post("/stream", h.Stream)
}
