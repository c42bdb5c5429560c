package storefront

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"Storefront/internal/catalog"
	"Storefront/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string

	// ActionLimit throttles POST /actions per client IP. Nil disables it.
	ActionLimit *kit.IPRateLimiter
}

func NewHandler(s *Server, deps HTTPDeps) http.Handler {
	r := chi.NewRouter()
	setupMiddleware(r, deps)
	setupMetrics(r, deps)

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)

	r.Get("/", s.page)
	r.Get("/state", s.state)
	r.With(deps.ActionLimit.Middleware).Post("/actions", s.action)

	products := &catalog.Server{Index: s.Catalog, Log: deps.Log}
	r.Mount("/products", products.Routes())

	return r
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))
}

func setupMetrics(r *chi.Mux, deps HTTPDeps) {
	if deps.Registry == nil {
		return
	}

	metrics := kit.NewMetrics(deps.Registry, deps.Service, kit.ChiRoutePatternOrPath)
	r.Use(metrics.Middleware)

	if !deps.MetricsEnabled {
		return
	}

	r.With(kit.MetricsAuth(deps.MetricsToken)).
		Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}
