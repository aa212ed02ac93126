// Package api exposes the document pipeline over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/opensource-finance/tradescan/internal/domain"
	"github.com/opensource-finance/tradescan/internal/metrics"
)

// Server represents the HTTP API server.
type Server struct {
	router  *chi.Mux
	handler *Handler
	server  *http.Server
	config  domain.ServerConfig
}

// NewServer creates a new API server. m may be nil, in which case
// /metrics is not mounted.
func NewServer(cfg domain.ServerConfig, handler *Handler, m *metrics.Metrics) *Server {
	router := chi.NewRouter()

	router.Use(middleware.RealIP)
	router.Use(CORS(cfg.CORSOrigins), Correlate, AccessLog(m), Recover)
	router.Use(middleware.Compress(5))

	router.Get("/health", handler.Health)
	router.Get("/ready", handler.Ready)
	if m != nil {
		router.Method(http.MethodGet, "/metrics", m.Handler())
	}

	// Documents
	router.Group(func(r chi.Router) {
		r.Use(RateLimit(cfg.RateLimit, cfg.RateBurst))
		r.Post("/extract", handler.Extract)
		r.Post("/compare", handler.Compare)
		r.Post("/compare/async", handler.CompareAsync)
	})

	router.Get("/reports/{id}", handler.GetReport)
	router.Get("/history", handler.History)

	// Risk triggers
	router.Get("/rules", handler.ListRules)
	router.Get("/rules/{id}", handler.GetRule)
	router.Post("/rules", handler.CreateRule)

	return &Server{
		router:  router,
		handler: handler,
		config:  cfg,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the Chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
