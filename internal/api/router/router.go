package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/wolfman30/dental-clinic-platform/internal/http/middleware"
	"github.com/wolfman30/dental-clinic-platform/internal/reminders"
	"github.com/wolfman30/dental-clinic-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	RemindersHandler   *reminders.Handler
	AdminAuthSecret    string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// ManualRunLimiter throttles POST /admin/reminders/run. Nil disables it.
	ManualRunLimiter *httpmiddleware.RateLimiter

	// HealthChecks are pinged by /health; a failing one turns it into a 503.
	HealthChecks map[string]Pinger
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))

	r.Group(func(public chi.Router) {
		public.Get("/health", healthHandler(cfg.HealthChecks, cfg.Logger))
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Operator routes are only mounted when a signing secret is configured.
	if cfg.AdminAuthSecret != "" && cfg.RemindersHandler != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret, httpmiddleware.RoleAdmin, httpmiddleware.RoleReceptionist))
			admin.Route("/reminders", func(rem chi.Router) {
				if cfg.ManualRunLimiter != nil {
					rem.With(httpmiddleware.RateLimit(cfg.ManualRunLimiter)).Post("/run", cfg.RemindersHandler.Run)
					rem.Get("/status", cfg.RemindersHandler.GetStatus)
					return
				}
				cfg.RemindersHandler.RegisterRoutes(rem)
			})
		})
	}

	return r
}
