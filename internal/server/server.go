// Package server provides the HTTP API for embedserve.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/vectorlab/embedserve/internal/config"
	"github.com/vectorlab/embedserve/internal/metrics"
	"github.com/vectorlab/embedserve/internal/modelcache"
	"github.com/vectorlab/embedserve/internal/registry"
	"github.com/vectorlab/embedserve/internal/transform"
)

// Server is the HTTP server for the embedserve API.
type Server struct {
	pipeline *transform.Pipeline
	registry *registry.Registry
	cache    *modelcache.Cache
	config   *config.ServerConfig
	metrics  *metrics.Metrics
	logger   *zap.Logger
	ready    atomic.Bool
	server   *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	pipeline *transform.Pipeline,
	reg *registry.Registry,
	cache *modelcache.Cache,
	cfg *config.ServerConfig,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Server {
	return &Server{
		pipeline: pipeline,
		registry: reg,
		cache:    cache,
		config:   cfg,
		metrics:  m,
		logger:   logger,
	}
}

// MarkReady flips the readiness flag. Called once after startup
// initialization (registry populated, preloads attempted); never reset.
func (s *Server) MarkReady() {
	s.ready.Store(true)
}

// Handler builds the router. Exposed so tests can mount it on httptest.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))
	r.Use(s.measure)

	r.Post("/v1/embeddings", s.handleEmbeddings)
	r.Get("/v1/info", s.handleInfo)
	r.Get("/v1/models", s.handleModels)
	r.Get("/ready", s.handleReady)
	r.Get("/alive", s.handleAlive)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
