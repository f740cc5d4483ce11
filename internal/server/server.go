// Package server implements the productlens HTTP API.
//
// A client uploads a manifest once and then queries the resulting analysis
// by id:
//
//	POST   /api/analyses                                   upload a manifest
//	GET    /api/analyses/{id}                              diagnostics
//	DELETE /api/analyses/{id}                              drop the analysis
//	GET    /api/analyses/{id}/products                     product summaries
//	GET    /api/analyses/{id}/products/{product}           one summary
//	GET    /api/analyses/{id}/products/{product}/graph     drill-down diagram
//	GET    /api/analyses/{id}/nodes?product=               node records
//	GET    /api/analyses/{id}/edges?product=               edge records
//	GET    /api/analyses/{id}/graph                        full product diagram
//	GET    /health
//
// Analyses live in an expiring [session.Store]; the server keeps no other
// state between requests.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/productlens/pkg/pipeline"
	"github.com/matzehuels/productlens/pkg/session"
)

// Config configures a Server.
type Config struct {
	Addr string

	// MaxUploadBytes bounds the manifest body of POST /api/analyses.
	MaxUploadBytes int64

	// Analysis holds the defaults applied to every upload. Query
	// parameters of the upload request override them.
	Analysis pipeline.Options

	// Render holds the default render options (exclusions, styles).
	Render pipeline.RenderOptions

	Sessions session.Config
}

// DefaultMaxUploadBytes is used when Config.MaxUploadBytes is zero.
const DefaultMaxUploadBytes = 64 << 20

const shutdownTimeout = 10 * time.Second

// Server serves the HTTP API.
type Server struct {
	cfg      Config
	runner   *pipeline.Runner
	sessions *session.Store
	logger   *log.Logger
	router   chi.Router
}

// New creates a server that analyzes and renders through runner.
func New(runner *pipeline.Runner, cfg Config, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	s := &Server{
		cfg:      cfg,
		runner:   runner,
		sessions: session.NewStore(cfg.Sessions),
		logger:   logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(observe)
	r.Use(cors)

	r.Get("/health", s.handleHealth)
	r.Route("/api/analyses", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Delete("/", s.handleDelete)
			r.Get("/products", s.handleProducts)
			r.Get("/products/{product}", s.handleProduct)
			r.Get("/products/{product}/graph", s.handleProductGraph)
			r.Get("/nodes", s.handleNodes)
			r.Get("/edges", s.handleEdges)
			r.Get("/graph", s.handleGraph)
		})
	})
	return r
}

// Handler returns the HTTP handler of the API.
func (s *Server) Handler() http.Handler { return s.router }

// Sessions returns the session store.
func (s *Server) Sessions() *session.Store { return s.sessions }

// ListenAndServe serves on cfg.Addr until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.sessions.Purge()
	return nil
}
