// Package server exposes the simplification pipeline over HTTP.
//
// Routes:
//
//	POST /v1/simplify   simplify a QASM program or graph JSON document
//	GET  /v1/rules      list the loaded rule set
//	GET  /healthz       liveness and build information
//	GET  /metrics       Prometheus metrics (when configured)
//
// Every response carries an X-Request-ID header. Errors are JSON objects of
// the form {"error": {"code": "...", "message": "..."}, "request_id": "..."}.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/qsimplify/pkg/pipeline"
	"github.com/matzehuels/qsimplify/pkg/rules"
)

const (
	defaultMaxBodyBytes = 1 << 20
	shutdownTimeout     = 10 * time.Second
)

// Options configures a Server.
type Options struct {
	// Runner executes simplifications. Required.
	Runner *pipeline.Runner
	// Rules is the rule set requests select from. Required.
	Rules *rules.Set
	// Defaults holds the budget applied when a request leaves it unset.
	Defaults pipeline.Options
	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64
	// RequestTimeout caps the simplification time of one request.
	// Zero means no cap.
	RequestTimeout time.Duration
	// Metrics serves GET /metrics when set.
	Metrics http.Handler
	Logger  *log.Logger
}

// Server is the HTTP front end of the pipeline.
type Server struct {
	opts   Options
	logger *log.Logger
	router chi.Router
}

// New builds the router.
func New(opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{opts: opts, logger: logger}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.opts.Metrics)
	}
	r.Route("/v1", func(r chi.Router) {
		r.Get("/rules", s.handleRules)
		r.Post("/simplify", s.handleSimplify)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", r.Method+" not allowed on "+r.URL.Path)
	})
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
