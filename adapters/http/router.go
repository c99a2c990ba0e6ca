package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/wellgate/wellgate/adapters/metrics"
	"github.com/wellgate/wellgate/config"
)

// RouterConfig wires the handlers and options into the main router.
type RouterConfig struct {
	Config       *config.Holder
	BackendProxy *Proxy
	AuthProxy    *Proxy
	Orgs         *OrgHandler
	Checkins     *CheckinHandler
	Health       *HealthHandler
	Metrics      *metrics.Collector
}

// NewRouter creates the gateway's HTTP router.
func NewRouter(cfg RouterConfig, logger zerolog.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(logger))
	r.Use(middleware.Recoverer)

	if cfg.Metrics != nil {
		r.Use(NewMetricsMiddleware(cfg.Metrics))
	}

	r.Get("/health", cfg.Health.Liveness)
	r.Get("/health/live", cfg.Health.Liveness)
	r.Get("/health/ready", cfg.Health.Readiness)
	r.Get("/version", VersionHandler)

	if cfg.Metrics != nil {
		r.Handle("/metrics", promhttp.Handler())
	}

	// Reverse proxies. No server timeout middleware here: upstream
	// deadlines come from the per-proxy config so long downloads are not
	// cut mid-stream.
	r.HandleFunc("/proxy/backend/*", cfg.BackendProxy.ServeHTTP)
	r.HandleFunc("/proxy/authprovider/*", cfg.AuthProxy.ServeHTTP)

	// Local API. Mutations on organizations require the admin service
	// token; reads and check-ins are open to authenticated app traffic
	// fronted by the platform.
	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(60 * time.Second))

		api.Route("/organizations", func(orgs chi.Router) {
			orgs.Get("/", cfg.Orgs.List)
			orgs.Get("/slug/{slug}", cfg.Orgs.GetBySlug)
			orgs.Get("/{id}", cfg.Orgs.Get)
			orgs.Get("/{id}/checkins", cfg.Checkins.ListByOrg)
			orgs.Get("/{id}/checkins/summary", cfg.Checkins.Summary)

			orgs.Group(func(admin chi.Router) {
				admin.Use(RequireServiceToken(cfg.Config, logger))
				admin.Post("/", cfg.Orgs.Create)
				admin.Patch("/{id}", cfg.Orgs.Update)
				admin.Delete("/{id}", cfg.Orgs.Delete)
			})
		})

		api.Post("/checkins", cfg.Checkins.Create)
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeFailure(w, req, http.StatusNotFound, "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeFailure(w, req, http.StatusMethodNotAllowed, "method not allowed", nil)
	})

	return r
}
