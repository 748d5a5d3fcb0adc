// Package http exposes the extraction service over a chi REST API.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/ListSense/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ListSense/internal/interfaces/http/handlers"
	"github.com/turtacn/ListSense/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handler and middleware dependencies of the
// route tree. Nil handlers leave their routes unmounted.
type RouterConfig struct {
	ExtractionHandler *handlers.ExtractionHandler
	EntityHandler     *handlers.EntityHandler
	HealthHandler     *handlers.HealthHandler

	Logger      logging.Logger
	Logging     middleware.LoggingConfig
	HTTPMetrics middleware.HTTPMetrics
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
	MaxBodySize    int64
}

// NewRouter builds the complete HTTP route tree.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestContext)
	r.Use(middleware.RequestLogging(cfg.Logger, cfg.Logging))
	r.Use(chimw.Recoverer)
	if cfg.HTTPMetrics != nil {
		r.Use(middleware.Metrics(cfg.HTTPMetrics))
	}

	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.BodyLimit(cfg.MaxBodySize))
		api.Use(chimw.AllowContentType("application/json"))

		registerExtractionRoutes(api, cfg.ExtractionHandler)
		registerEntityRoutes(api, cfg.EntityHandler)
	})

	return r
}

func registerExtractionRoutes(r chi.Router, h *handlers.ExtractionHandler) {
	if h == nil {
		return
	}
	r.Route("/extract", func(er chi.Router) {
		er.Post("/", h.ExtractSingle)
		er.Post("/multiple", h.ExtractMultiple)
		er.Post("/text", h.ExtractText)
		er.Post("/batch", h.ExtractBatch)
	})
	r.Route("/similarity", func(sr chi.Router) {
		sr.Post("/levenshtein", h.Levenshtein)
		sr.Post("/jaro-winkler", h.JaroWinkler)
	})
}

func registerEntityRoutes(r chi.Router, h *handlers.EntityHandler) {
	if h == nil {
		return
	}
	r.Route("/entities", func(er chi.Router) {
		er.Get("/", h.List)
		er.Put("/lists/{name}", h.PutList)
		er.Put("/patterns/{name}", h.PutPattern)

		er.Route("/{name}", func(item chi.Router) {
			item.Get("/", h.Get)
			item.Delete("/", h.Delete)
		})
	})
}

//Personal.AI order the ending
