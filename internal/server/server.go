// Package server provides the HTTP API for yomu.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/yomu/internal/config"
	"github.com/hyperjump/yomu/internal/pipeline"
	"github.com/hyperjump/yomu/internal/storage"
	"github.com/hyperjump/yomu/pkg/utils"
)

// Analyzer runs one analysis. *pipeline.Pipeline implements it.
type Analyzer interface {
	Run(ctx context.Context, in pipeline.Input) (*pipeline.Result, error)
}

// Server is the HTTP server for the yomu API.
type Server struct {
	analyzer Analyzer
	archive  storage.Archive
	input    config.InputConfig
	config   *config.ServerConfig
	metrics  *Metrics
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server. archive may be nil, in which case the run history
// endpoints answer 501.
func NewServer(
	analyzer Analyzer,
	archive storage.Archive,
	input config.InputConfig,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	return &Server{
		analyzer: analyzer,
		archive:  archive,
		input:    input,
		config:   cfg,
		metrics:  NewMetrics(),
		logger:   utils.OrNop(logger),
	}
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.requestTimeout()))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/analyze", s.metrics.instrument("analyze", s.handleAnalyze))
	r.Get("/api/v1/runs", s.metrics.instrument("runs_list", s.handleListRuns))
	r.Get("/api/v1/runs/{id}", s.metrics.instrument("runs_get", s.handleGetRun))
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	return r
}

func (s *Server) requestTimeout() time.Duration {
	if s.config == nil || s.config.RequestTimeoutSecs <= 0 {
		return 120 * time.Second
	}
	return time.Duration(s.config.RequestTimeoutSecs) * time.Second
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := s.config.Addr()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
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
