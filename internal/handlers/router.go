package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"conceptgraph-backend/internal/config"
	"conceptgraph-backend/internal/infrastructure/observability"
	"conceptgraph-backend/internal/middleware"
	graphsvc "conceptgraph-backend/internal/service/graph"
	"conceptgraph-backend/pkg/api"
)

// NewRouter assembles the HTTP router with the full middleware stack.
func NewRouter(cfg *config.Config, svc *graphsvc.Service, collector *observability.Collector, logger *zap.Logger) http.Handler {
	h := NewGraphHandler(svc, logger)

	r := chi.NewRouter()

	r.Use(middleware.RequestID(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(chimiddleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.Timeout(cfg.Server.RequestTimeout.Std(), logger))
	if collector != nil {
		r.Use(middleware.Metrics(collector))
	}

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if err := svc.Validate(); err != nil {
			logger.Error("health check failed", zap.Error(err))
			api.Error(w, http.StatusServiceUnavailable, "graph state inconsistent")
			return
		}
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if collector != nil {
		r.Handle("/metrics", promhttp.HandlerFor(collector.Registry(), promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.CircuitBreaker(
			middleware.DefaultCircuitBreakerConfig("api"), logger))

		r.Post("/concepts", h.CreateConcept)
		r.Post("/concepts/from-label", h.CreateConceptFromLabel)
		r.Get("/concepts/{label}", h.GetConcept)
		r.Post("/concepts/{label}/synonyms", h.AddSynonym)
		r.Post("/relations", h.CreateRelation)
		r.Get("/graph", h.GetGraph)
		r.Get("/graph/depths", h.GetDepths)
		r.Get("/graph/layout", h.GetLayout)
	})

	return r
}
