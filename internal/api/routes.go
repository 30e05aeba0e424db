package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes builds the route tree.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.HealthCheck)

	// Engagement webhook stays outside /api: delivery providers post here.
	r.Post("/webhooks/engagement", h.EngagementWebhook)

	r.Route("/api", func(r chi.Router) {
		r.Post("/recommendations", h.RecommendAgents)

		r.Route("/agents", func(r chi.Router) {
			r.Get("/", h.ListAgents)
			r.Post("/", h.CreateAgent)
		})

		r.Route("/campaigns", func(r chi.Router) {
			r.Get("/", h.ListCampaigns)
			r.Post("/", h.CreateCampaign)
			r.Get("/{id}", h.GetCampaign)
		})

		r.Route("/contacts", func(r chi.Router) {
			r.Post("/", h.CreateContact)
			r.Get("/{id}/churn", h.ScoreContactChurn)
		})

		r.Route("/enrollments", func(r chi.Router) {
			r.Post("/", h.Enroll)
			r.Post("/batch", h.EnrollBatch)
			r.Get("/{id}", h.GetEnrollment)
			r.Get("/{id}/events", h.ListEnrollmentEvents)
			r.Post("/{id}/advance", h.AdvanceEnrollment)
			r.Post("/{id}/pause", h.PauseEnrollment)
			r.Post("/{id}/resume", h.ResumeEnrollment)
			r.Post("/{id}/unsubscribe", h.UnsubscribeEnrollment)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, "route not found")
	})

	return r
}
