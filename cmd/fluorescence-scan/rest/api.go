// Package rest mounts the subgraph's HTTP surface.
package rest

import (
	"net/http"
	"time"

	"github.com/ispyb/fluorescence-scan/cmd/fluorescence-scan/logger"
	ihttp "github.com/ispyb/fluorescence-scan/internal/http"
	"github.com/ispyb/fluorescence-scan/internal/telemetry"

	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Handlers are the endpoints served by the API.
type Handlers struct {
	// GraphQL serves POST /.
	GraphQL http.Handler
	// Health serves GET /healthz.
	Health http.Handler
	// Metrics serves GET /metrics.
	Metrics http.Handler
}

// NewAPI creates an API instance. Requests taking longer than requestTimeout
// have their context cancelled.
func NewAPI(
	log *zap.Logger,
	handlers Handlers,
	requestTimeout time.Duration,
) *API {
	api := API{
		Mux:    chi.NewRouter(),
		logger: log,
	}

	api.Mux.Use(
		logger.Middleware(),
		cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", logger.RequestIDHeader, "traceparent", "tracestate"},
			ExposedHeaders: []string{logger.RequestIDHeader},
			MaxAge:         300,
		}),
	)

	api.Mux.Method(http.MethodGet, "/healthz", handlers.Health)
	api.Mux.Method(http.MethodGet, "/metrics", handlers.Metrics)

	api.Mux.Group(func(router chi.Router) {
		router.Use(
			middleware.RequestLogger(ihttp.NewZapLogFormatter(log, logger.ContextFields)),
			middleware.Recoverer,
			middleware.Timeout(requestTimeout),
			telemetry.Middleware,
		)

		router.Method(http.MethodGet, "/", playground.Handler("Fluorescence scan subgraph", "/"))
		router.Method(http.MethodPost, "/", handlers.GraphQL)
	})

	return &api
}

// API routes requests to the subgraph's handlers.
type API struct {
	Mux *chi.Mux

	logger *zap.Logger
}
