package routes

import (
	"github.com/go-chi/chi/v5"

	"fleetpulse/backend/internal/api"
	"fleetpulse/backend/internal/middleware"
)

// RegisterAPIRoutes registers all API v1 routes and handlers.
// This keeps API route registration separate from the main router setup.
func RegisterAPIRoutes(r chi.Router, handlers *api.Handlers, deps *api.Dependencies) {

	// Public score report, reachable only through a signed single-use link
	r.Group(func(public chi.Router) {
		public.Use(middleware.RateLimitMiddleware)
		public.With(middleware.ScoreLinkMiddleware(deps.Services.LinkSigner)).
			Get("/public/score", handlers.PublicScoreReport())
	})

	// API v1 routes, all behind the shared management token
	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(middleware.AdminTokenMiddleware())

		v1.Get("/drivers/{driver_id}/score", handlers.GetDriverScore())
		v1.Get("/drivers/{driver_id}/alerts", handlers.GetDriverAlerts())
		v1.Patch("/drivers/{driver_id}/contacts", handlers.UpdateDriverContacts())
		v1.Post("/drivers/{driver_id}/score-link", handlers.GenerateScoreLink())

		v1.Post("/scoring/compute", handlers.ComputeScore())

		v1.Post("/alerts/send", handlers.SendAlert())
		v1.Post("/alerts/bulk", handlers.SendBulkAlerts())
		v1.Post("/alerts/{alert_id}/delivered", handlers.MarkAlertDelivered())
		v1.Post("/alerts/process-automatic", handlers.ProcessAutomaticAlerts())

		v1.Post("/admin/jobs/sync-drivers", handlers.TriggerDriverSync())
		v1.Get("/admin/jobs/sync-logs", handlers.ListSyncLogs())
	})
}
