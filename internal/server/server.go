// Package server exposes the audit pipeline over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/storelens/croaudit/internal/audit"
)

// AuditRunner is the surface the handlers need from the pipeline.
type AuditRunner interface {
	Run(ctx context.Context, url string, auditType audit.Type) (*audit.Report, error)
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	runner        AuditRunner
	screenshotDir string
	router        http.Handler
	httpServer    *http.Server
	logger        zerolog.Logger
}

func NewServer(runner AuditRunner, screenshotDir string, logger zerolog.Logger) *Server {
	s := &Server{
		runner:        runner,
		screenshotDir: screenshotDir,
		logger:        logger,
	}
	s.router = s.setupRouter()
	return s
}

func (s *Server) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/health", s.handleHealth)

	// No timeout middleware on the audit route: a single run legitimately
	// takes minutes on a slow storefront.
	r.Route("/api", func(r chi.Router) {
		r.Post("/audit", s.handleAudit)
		r.Get("/audit", s.handleAuditUsage)
	})

	fileServer := http.StripPrefix("/screenshot/", http.FileServer(http.Dir(s.screenshotDir)))
	r.Get("/screenshot/*", fileServer.ServeHTTP)

	return r
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:        addr,
		Handler:     s.router,
		ReadTimeout: 10 * time.Second,
		// Audit responses stream back whenever the run finishes; no write
		// deadline for the same reason the route has no timeout middleware.
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
