// Package httpserver exposes the bookmark list over a small JSON API.
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nikbrunner/bmpop/internal/httpserver/mw"
	"github.com/nikbrunner/bmpop/internal/logger"
	"github.com/nikbrunner/bmpop/internal/popup"
)

// DefaultRequestTimeout bounds each request, store calls included.
const DefaultRequestTimeout = 10 * time.Second

// Params holds parameters for creating a Server.
type Params struct {
	Addr        string
	Coordinator *popup.Coordinator
	Logger      logger.Logger // optional
	Timeout     time.Duration // optional, DefaultRequestTimeout if zero
}

// Server wraps the HTTP server and its dependencies.
type Server struct {
	http   *http.Server
	logger logger.Logger
}

// New builds the HTTP server (router, middlewares, routes).
func New(p Params) *Server {
	log := p.Logger
	if log == nil {
		log = logger.Nop()
	}
	log = log.With(logger.String("component", "http"))

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	s := &http.Server{
		Addr:              p.Addr,
		Handler:           NewRouter(p.Coordinator, log, timeout),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      timeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return &Server{http: s, logger: log}
}

// NewRouter returns the API routes with the standard middleware stack.
func NewRouter(coord *popup.Coordinator, log logger.Logger, timeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	r.Use(mw.Log(log))

	h := &handlers{coord: coord, log: log}

	r.Get("/healthz", h.healthz)
	r.Route("/api/bookmarks", func(r chi.Router) {
		r.Get("/", h.list)
		r.Delete("/{id}", h.delete)
		r.Patch("/{id}", h.rename)
	})

	return r
}

// Start runs the HTTP server (blocks until error or shutdown).
func (s *Server) Start() error {
	s.logger.Infof("HTTP server listening on %s", s.http.Addr)
	err := s.http.ListenAndServe()
	// http.ErrServerClosed is expected on graceful shutdown.
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully shuts down the server with the provided context deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down...")
	return s.http.Shutdown(ctx)
}
