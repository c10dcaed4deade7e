// Package httptransport assembles the public HTTP surface: feature routes
// behind identity resolution, the websocket endpoint, and the operational
// endpoints.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"beacon/internal/platform/middleware"
	"beacon/internal/principal"
)

// FeatureHandler registers a feature's routes on the API router.
type FeatureHandler interface {
	Register(r chi.Router)
}

// Config carries everything the router mounts.
type Config struct {
	Logger     *slog.Logger
	CORSOrigin string
	Principal  *principal.Resolver
	Features   []FeatureHandler
	WS         http.Handler
	Health     http.HandlerFunc
}

// NewRouter wires all endpoints. The websocket endpoint sits outside the
// logging middleware: the status-capturing response writer does not implement
// http.Hijacker, which the upgrade needs.
func NewRouter(cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-ID", "X-Request-ID"},
		AllowCredentials: true,
	}))

	r.Group(func(api chi.Router) {
		api.Use(middleware.Logger(cfg.Logger))
		api.Use(cfg.Principal.Middleware)
		for _, h := range cfg.Features {
			h.Register(api)
		}
	})

	if cfg.WS != nil {
		r.Handle("/ws", cfg.WS)
	}
	r.Get("/health", cfg.Health)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
