package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpmiddleware "github.com/wolfman30/agency-leads/internal/http/middleware"
	"github.com/wolfman30/agency-leads/internal/leads"
	"github.com/wolfman30/agency-leads/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	LeadsHandler       *leads.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	// Throttle guards the API per client before any handler runs. Optional.
	Throttle *httpmiddleware.Throttle
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowedOrigins:  cfg.CORSAllowedOrigins,
			AllowedMethods:  []string{http.MethodPost, http.MethodOptions},
			AllowedHeaders:  []string{"Content-Type"},
			PreflightStatus: http.StatusOK,
		}))
	}

	r.Get("/health", health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.LeadsHandler != nil {
		r.Route("/api", func(api chi.Router) {
			if cfg.Throttle != nil {
				api.Use(cfg.Throttle.Middleware)
			}
			// /api/send is the legacy contact form path; both run the same pipeline.
			for _, path := range []string{"/lead", "/send"} {
				api.Post(path, cfg.LeadsHandler.Submit)
				api.Options(path, cfg.LeadsHandler.Preflight)
			}
		})
	}

	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
