package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/futig/joke-flows/internal/api/docs"
	flowapi "github.com/futig/joke-flows/internal/api/flow"
	"github.com/futig/joke-flows/internal/api/middleware"
	"github.com/futig/joke-flows/internal/pkg/metrics"
)

// SetupRouter creates and configures the HTTP router
func SetupRouter(
	flowHandler *flowapi.Handler,
	auth func(http.Handler) http.Handler,
	m *metrics.Metrics,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimiddleware.Recoverer)                  // Recover from panics
	r.Use(chimiddleware.RequestID)                  // Add request ID
	r.Use(middleware.Logger(logger))                // Log requests
	r.Use(middleware.CORS)                          // Handle CORS
	r.Use(chimiddleware.Timeout(120 * time.Second)) // Tool rounds can take a while

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	// Swagger documentation endpoints
	docs.RegisterRoutes(r)

	r.Group(func(r chi.Router) {
		r.Use(auth)
		flowapi.RegisterRoutes(r, flowHandler)
	})

	return r
}
