package server

import (
	"net/http"

	"github.com/cloo-solutions/jobspy-mcp/internal/api/handlers"
	"github.com/cloo-solutions/jobspy-mcp/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type RouterConfig struct {
	Logger logrus.FieldLogger
	// AuthValidator guards the MCP and search routes; nil leaves them open.
	AuthValidator middleware.AuthValidator
	MaxBodyBytes  int64
	MCPHandler    *handlers.MCPHandler
	SearchHandler *handlers.SearchHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	maxBodyBytes := cfg.MaxBodyBytes
	if maxBodyBytes == 0 {
		maxBodyBytes = middleware.DefaultMaxBodyBytes
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog(cfg.Logger))
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", handlers.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(cfg.AuthValidator))

		if cfg.MCPHandler != nil {
			r.Get(middleware.StreamPath, cfg.MCPHandler.Stream)
			r.Post(handlers.MessagesPath, cfg.MCPHandler.Messages)
		}

		r.Post("/api", cfg.SearchHandler.Search)
		r.Get("/api/searches", cfg.SearchHandler.History)
	})

	return r
}
