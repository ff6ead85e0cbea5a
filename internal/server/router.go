package server

import (
	"net/http"

	"github.com/meridian-labs/claimpilot/internal/api"
	"github.com/meridian-labs/claimpilot/internal/api/handlers"
	"github.com/meridian-labs/claimpilot/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	IngestHandler    *handlers.IngestHandler
	QueryHandler     *handlers.QueryHandler
	AnalyticsHandler *handlers.AnalyticsHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/ingest", cfg.IngestHandler.Ingest)

	r.Route("/query", func(r chi.Router) {
		r.Post("/", cfg.QueryHandler.Query)
		r.Post("/batch", cfg.QueryHandler.Batch)
	})

	r.Get("/status", cfg.AnalyticsHandler.Status)
	r.Get("/history", cfg.AnalyticsHandler.History)

	r.Route("/analytics", func(r chi.Router) {
		r.Get("/", cfg.AnalyticsHandler.Analytics)
		r.Post("/reset", cfg.AnalyticsHandler.Reset)
	})

	return r
}
