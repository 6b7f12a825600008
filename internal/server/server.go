// Package server provides the HTTP API for jobrecall.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/jobrecall/internal/config"
	"github.com/hyperjump/jobrecall/internal/indexer"
	"github.com/hyperjump/jobrecall/internal/search"
	"github.com/hyperjump/jobrecall/internal/storage"
	"github.com/hyperjump/jobrecall/internal/vector"
)

const defaultHandlerTimeout = 60 * time.Second

// Response headers set by the recommend endpoint.
const (
	HeaderRequestID = "X-Request-ID"
	HeaderElapsedMs = "X-Elapsed-Ms"
)

// Server is the HTTP server for the jobrecall API.
type Server struct {
	engine  *search.Engine
	indexer *indexer.Indexer
	backend storage.Backend
	vectors vector.Store
	config  *config.Config
	logger  *zap.Logger
	server  *http.Server
}

// NewServer creates a server with the given dependencies. idx may be nil when
// the graph backend is read-only; the job write routes then answer 501.
func NewServer(
	engine *search.Engine,
	idx *indexer.Indexer,
	backend storage.Backend,
	vectors vector.Store,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		engine:  engine,
		indexer: idx,
		backend: backend,
		vectors: vectors,
		config:  cfg,
		logger:  logger,
	}
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	timeout := defaultHandlerTimeout
	if s.config.RequestTimeout > 0 {
		// the engine deadline fires first
		timeout = s.config.RequestTimeout + 5*time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/recommend/jobs", s.handleRecommend)
	r.Post("/api/v1/jobs", s.handleIndexJob)
	r.Post("/api/v1/jobs/list", s.handleListJobs)
	r.Get("/api/v1/jobs/{id}", s.handleGetJob)
	r.Delete("/api/v1/jobs/{id}", s.handleDeleteJob)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
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
