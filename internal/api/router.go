package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pipeline-graph/engine/internal/api/handlers"
	mw "github.com/pipeline-graph/engine/internal/api/middleware"
)

type Dependencies struct {
	GraphHandler  *handlers.GraphHandler
	HealthHandler *handlers.HealthHandler

	ServiceName    string
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()

	// Built-in middleware
	r.Use(mw.RequestID)
	r.Use(mw.Recovery)
	r.Use(mw.Logging)
	r.Use(mw.Metrics)
	r.Use(mw.Tracing(dep.ServiceName))
	r.Use(mw.CORS(dep.CORSOrigins))
	r.Use(chimid.Compress(5))

	// Probes and metrics are not rate limited
	r.Get("/healthz", dep.HealthHandler.Liveness)
	r.Get("/readyz", dep.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(g chi.Router) {
		g.Use(mw.RateLimit(dep.RateLimitRPS, dep.RateLimitBurst))

		g.Post("/upload", dep.GraphHandler.Upload)
		g.Get("/graph", dep.GraphHandler.Graph)
		g.Post("/positions", dep.GraphHandler.Positions)
		g.Get("/positions/{id}", dep.GraphHandler.Position)
		g.Delete("/reset", dep.GraphHandler.Reset)
		g.Get("/stats", dep.GraphHandler.Stats)
	})

	return r
}
