package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zapponejosh/amlich-api/internal/config"
	"github.com/zapponejosh/amlich-api/internal/metrics"
)

// SetupRoutes configures all HTTP routes and returns the router.
//
// Route structure:
//
//	GET  /health
//	GET  /metrics                        (when m is non-nil)
//	GET  /api/v1/lunar/today             ?zone= &calendar= &lat= &lng=
//	GET  /api/v1/lunar/date/{date}       ?zone= &calendar= &lat= &lng=
//	GET  /api/v1/lunar/range             ?start= &end= &zone= &calendar=
//	GET  /api/v1/solar-terms/{year}      ?zone=
//	GET  /api/v1/year-frames/{year}      ?zone=
//	GET  /api/v1/calendars
//	POST /api/v1/admin/warmup            (admin key)
//	GET  /api/v1/admin/coefficients      (admin key)
func SetupRoutes(handlers *Handlers, m *metrics.Metrics, cfg *config.Config, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(
		RecoveryMiddleware(logger),
		RequestIDMiddleware(),
		LoggingMiddleware(logger),
		CORSMiddleware(),
	)
	if m != nil {
		r.Use(MetricsMiddleware(m))
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteNotFound(w, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", "METHOD_NOT_ALLOWED")
	})

	// ==========================================================================
	// Public routes
	// ==========================================================================
	r.Get("/health", handlers.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/lunar/today", handlers.GetToday)
		r.Get("/lunar/date/{date}", handlers.GetDate)
		r.Get("/lunar/range", handlers.GetRange)
		r.Get("/solar-terms/{year}", handlers.GetSolarTerms)
		r.Get("/year-frames/{year}", handlers.GetYearFrame)
		r.Get("/calendars", handlers.ListCalendars)

		// ======================================================================
		// Admin routes (admin key only)
		// ======================================================================
		r.Group(func(r chi.Router) {
			r.Use(AdminOnlyMiddleware(cfg, logger))
			r.Post("/admin/warmup", handlers.RunWarmup)
			r.Get("/admin/coefficients", handlers.ListCoefficientTables)
		})
	})

	return r
}
