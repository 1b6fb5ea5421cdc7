// Package server provides the HTTP API for Mizan.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mizanhq/mizan/internal/config"
	"github.com/mizanhq/mizan/internal/session"
	"github.com/mizanhq/mizan/internal/storage"
	"go.uber.org/zap"
)

// Server is the HTTP server for the Mizan API.
type Server struct {
	pipeline *session.Pipeline
	session  *session.Session
	storage  storage.Storage
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies. storage may be nil
// when the session is memory-only; the history and status handlers then serve
// from the in-memory session.
func NewServer(
	pipeline *session.Pipeline,
	sess *session.Session,
	store storage.Storage,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		pipeline: pipeline,
		session:  sess,
		storage:  store,
		config:   cfg,
		logger:   logger,
	}
}

// Start starts the HTTP server and blocks until it stops. The request timeout
// leaves headroom over the generation timeout so a slow model call surfaces as
// the fixed service-error answer rather than a severed connection.
func (s *Server) Start() error {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/ask", s.handleAsk)
	r.Post("/api/v1/ingest", s.handleIngest)
	r.Get("/api/v1/pages", s.handlePages)
	r.Get("/api/v1/history", s.handleHistory)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: r,
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

// Router builds the API routes without binding a listener. Used by tests.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Post("/api/v1/ask", s.handleAsk)
	r.Post("/api/v1/ingest", s.handleIngest)
	r.Get("/api/v1/pages", s.handlePages)
	r.Get("/api/v1/history", s.handleHistory)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}
