package flow

import (
	"github.com/go-chi/chi/v5"
)

// IngesterName is the callable name of the ingestion pipeline
const IngesterName = "ingester"

// RegisterRoutes registers flow routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/flows", func(r chi.Router) {
		r.Get("/", h.ListFlows)
		r.Post("/"+IngesterName, h.Ingest)
		r.Post("/{name}", h.RunFlow)
	})
}
