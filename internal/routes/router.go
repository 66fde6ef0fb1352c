package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"fleetpulse/backend/internal/api"
	"fleetpulse/backend/internal/db"
	"fleetpulse/backend/internal/jobs"
	"fleetpulse/backend/internal/logging"
	"fleetpulse/backend/internal/metrics"
	"fleetpulse/backend/internal/middleware"
)

// Reconciliation interval for the background scheduler
const syncInterval = 1 * time.Hour

func RegisterRoutes(ctx context.Context, upSince time.Time) http.Handler {

	r := chi.NewRouter()

	metricsReg := metrics.NewMetricsRegistry()

	// global middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.MetricsMiddleware(metricsReg))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://localhost:8081"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Triggered-By"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	logging.Info("Router initialized with metrics and logging middleware")

	// health check
	r.Get("/healthCheck", api.HealthCheckHandler(db.DB, upSince))

	deps, err := api.InitDependencies(metricsReg)
	if err != nil {
		panic("Failed to initialize dependencies: " + err.Error())
	}

	handlers := api.NewHandlers(deps)

	// Scheduled reconciliation runs for the life of the server
	jobs.InitializeJobs(ctx, deps.Services.SyncJob, syncInterval)

	RegisterAPIRoutes(r, handlers, deps)

	return r
}
