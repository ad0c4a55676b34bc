package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig wires handlers and cross cutting concerns into the router.
// Nil handlers leave their routes unregistered.
type RouterConfig struct {
	Catalog   *CatalogHandler
	Favorites *FavoriteHandler
	Profiles  *ProfileHandler
	Agenda    *AgendaHandler
	Auth      TokenValidator
	Logger    *slog.Logger

	CORSOrigins []string
	// RateLimit is the number of requests allowed per client IP and
	// RateLimitWindow. Zero disables rate limiting.
	RateLimit       int
	RateLimitWindow time.Duration
	// Metrics serves /metrics. Defaults to the Prometheus default registry.
	Metrics http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := defaultLogger(cfg.Logger)
	r := chi.NewRouter()

	r.Use(RequestLogger(logger))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", RequestIDHeader},
			ExposedHeaders: []string{RequestIDHeader},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		newResponder(logger).writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
	})
	metricsHandler := cfg.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimit > 0 && cfg.RateLimitWindow > 0 {
			r.Use(httprate.LimitByIP(cfg.RateLimit, cfg.RateLimitWindow))
		}

		if cfg.Catalog != nil {
			r.Get("/sessions", cfg.Catalog.ListSessions)
			r.Get("/sessions/{id}", cfg.Catalog.GetSession)
			r.Get("/speakers", cfg.Catalog.ListSpeakers)
			r.Get("/speakers/{id}", cfg.Catalog.GetSpeaker)
		}

		r.Group(func(r chi.Router) {
			if cfg.Auth != nil {
				r.Use(RequireSession(cfg.Auth, logger))
			}

			if cfg.Favorites != nil {
				r.Get("/favorites", cfg.Favorites.List)
				r.Put("/favorites/{sessionID}", cfg.Favorites.Add)
				r.Delete("/favorites/{sessionID}", cfg.Favorites.Remove)
				r.Post("/conflicts/check", cfg.Favorites.CheckConflicts)
			}
			if cfg.Profiles != nil {
				r.Get("/profile", cfg.Profiles.Get)
				r.Put("/profile", cfg.Profiles.Update)
			}
			if cfg.Agenda != nil {
				r.Post("/agenda", cfg.Agenda.Generate)
			}
		})
	})

	return r
}
