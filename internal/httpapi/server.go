// Package httpapi exposes register of information validation and export
// over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/FedericoTs/dora-comply/internal/params"
	"github.com/FedericoTs/dora-comply/internal/pipeline"
	"github.com/FedericoTs/dora-comply/internal/registry"
)

const shutdownTimeout = 10 * time.Second

// Config holds configuration for the API server.
type Config struct {
	Pipeline *pipeline.Pipeline
	Registry *registry.Registry

	// Organization supplies parameters a request leaves out.
	Organization params.Organization

	// Strict is the default for requests that do not set strict.
	Strict bool

	// TopErrors caps the findings in returned reports.
	TopErrors int

	Addr              string
	ReadHeaderTimeout time.Duration
	RequestTimeout    time.Duration

	Logger *slog.Logger
}

// Server is the API server.
type Server struct {
	pipeline  *pipeline.Pipeline
	registry  *registry.Registry
	org       params.Organization
	strict    bool
	topErrors int

	addr              string
	readHeaderTimeout time.Duration
	requestTimeout    time.Duration

	logger *slog.Logger
}

// NewServer creates a new API server instance.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	readHeaderTimeout := cfg.ReadHeaderTimeout
	if readHeaderTimeout <= 0 {
		readHeaderTimeout = 10 * time.Second
	}
	return &Server{
		pipeline:          cfg.Pipeline,
		registry:          cfg.Registry,
		org:               cfg.Organization,
		strict:            cfg.Strict,
		topErrors:         cfg.TopErrors,
		addr:              cfg.Addr,
		readHeaderTimeout: readHeaderTimeout,
		requestTimeout:    cfg.RequestTimeout,
		logger:            logger,
	}
}

// Handler returns the router with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		s.logRequests,
		middleware.Recoverer,
	)
	if s.requestTimeout > 0 {
		r.Use(middleware.Timeout(s.requestTimeout))
	}

	r.Get("/healthz", s.health)
	r.Route("/api/roi", func(r chi.Router) {
		r.Get("/templates", s.templates)
		r.Post("/validate", s.validate)
		r.Post("/export", s.export)
	})
	return r
}

// Serve starts the server and blocks until the context is cancelled, then
// shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting API server", slog.String("addr", s.addr))

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: s.readHeaderTimeout,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.logger.Info("shutting down API server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// logRequests logs one line per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.logger.Info("request",
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("elapsed", time.Since(start)))
		}()
		next.ServeHTTP(ww, r)
	})
}
