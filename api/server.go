/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions. This
  is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the capture frontend

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Seed routes
		r.Route("/seeds", func(r chi.Router) {
			r.Post("/", h.CreateSeed)
			r.Get("/{id}", h.GetSeed)
			r.Put("/{id}/content", h.EditSeedContent)
			r.Post("/{id}/tags", h.AttachTag)
			r.Delete("/{id}/tags/{tagID}", h.DetachTag)
			r.Put("/{id}/category", h.SetSeedCategory)
			r.Delete("/{id}/category/{categoryID}", h.RemoveSeedCategory)
			r.Get("/{id}/followups", h.ListSeedFollowups)
			r.Post("/{id}/followups", h.CreateFollowup)
		})

		// Tag routes
		r.Route("/tags", func(r chi.Router) {
			r.Post("/", h.CreateTag)
			r.Get("/{id}", h.GetTag)
			r.Put("/{id}", h.EditTag)
			r.Put("/{id}/color", h.SetTagColor)
		})

		// Follow-up routes
		r.Route("/followups", func(r chi.Router) {
			r.Get("/{id}", h.GetFollowup)
			r.Patch("/{id}", h.EditFollowup)
			r.Post("/{id}/snooze", h.SnoozeFollowup)
			r.Post("/{id}/dismiss", h.DismissFollowup)
		})

		// User routes
		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/seeds", h.ListUserSeeds)
			r.Get("/tags", h.ListUserTags)
			r.Get("/followups/due", h.ListDueFollowups)
		})

		// Audit + scheduler
		r.Get("/entities/{id}/transactions", h.GetTransactions)
		r.Get("/scheduler", h.GetSchedulerStatus)
		r.Post("/scheduler/check", h.TriggerSchedulerCheck)
	})

	return r
}
