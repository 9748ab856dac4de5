package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// NewRouter wires the ingestion and reporting routes. The beacon route is
// CORS-open to every origin: tracking calls come from arbitrary embedding
// pages.
func NewRouter(handler *Handler, rateLimiter *RateLimiter, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(LoggerMiddleware(logger))
	r.Use(middleware.Recoverer)

	// Top-level so preflight OPTIONS requests are answered before routing.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodPost, http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", handler.Health)

	// Beacon endpoint: POST only, per-client rate limit, panics downgraded to
	// a 400 problem.
	r.Group(func(r chi.Router) {
		r.Use(rateLimiter.Middleware)
		r.Use(BeaconRecoverer(logger))
		r.Post("/api/event", handler.TrackEvent)
	})

	// Admin and reporting surface. Authentication is an external collaborator
	// and mounts in front of this router in deployments that need it.
	r.Post("/api/sites", handler.CreateSite)
	r.Get("/api/sites/{domain}/summary", handler.GetSummary)

	return r
}
