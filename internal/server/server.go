// Package server serves the retail dashboard over HTTP: an HTML page with the three
// screens, a JSON API over the screens and the query catalog, result export, health
// and Prometheus metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/nao1215/retailsql"
	"github.com/nao1215/retailsql/internal/config"
	"github.com/nao1215/retailsql/internal/logging"
	"github.com/nao1215/retailsql/internal/metrics"
	"github.com/rs/zerolog"
)

// Server wires the dashboard into an HTTP handler
type Server struct {
	app     *retailsql.App
	metrics *metrics.Metrics
	cfg     config.ServerConfig
	page    *template.Template
	logger  zerolog.Logger
	handler http.Handler
}

// New creates a server over an initialized app. m may be nil, in which case /metrics
// is not mounted and requests are not measured.
func New(app *retailsql.App, m *metrics.Metrics, cfg config.ServerConfig) (*Server, error) {
	page, err := parsePage()
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}
	s := &Server{
		app:     app,
		metrics: m,
		cfg:     cfg,
		page:    page,
		logger:  logging.WithComponent("server"),
	}
	s.handler = s.routes()
	return s, nil
}

// Handler returns the routed handler with every middleware applied
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(requestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(s.accessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.cors())

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(s.rateLimit())

		r.Get("/", s.handleIndex)

		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/screens/{screen}", s.handleScreen)
			r.Get("/products", s.handleProducts)
			r.Get("/customers", s.handleCustomers)
			r.Get("/queries", s.handleQueries)
			r.Get("/queries/{name}", s.handleQuery)
			r.Get("/queries/{name}/export", s.handleExport)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, "NOT_FOUND", "resource not found", nil)
	})
	return r
}

// Run listens on the configured address until ctx is cancelled, then shuts the HTTP
// server down gracefully and closes the app's store.
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", ln.Addr().String()).Msg("dashboard listening")
		errCh <- srv.Serve(ln)
	}()

	var serveErr error
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
	case <-ctx.Done():
		s.logger.Info().Msg("shutting down dashboard")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			serveErr = fmt.Errorf("failed to shut down http server: %w", err)
		}
	}

	if err := s.app.Close(); err != nil {
		serveErr = errors.Join(serveErr, fmt.Errorf("failed to close dataset store: %w", err))
	}
	return serveErr
}
