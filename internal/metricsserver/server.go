/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package metricsserver serves Prometheus metrics (and optionally pprof) while a migration runs.
package metricsserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/acronis/phrase-migrate/log"
)

const shutdownTimeout = 5 * time.Second

// Server is an HTTP server exposing /metrics.
type Server struct {
	HTTPServer *http.Server
	Logger     log.FieldLogger

	listener net.Listener
	done     chan struct{}
}

// New creates a new Server. Metrics are read from gatherer, prometheus.DefaultGatherer is used if it's nil.
func New(cfg *Config, gatherer prometheus.Gatherer, logger log.FieldLogger) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router := chi.NewRouter()
	router.Use(chimiddleware.Recoverer)
	router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	if cfg.Profiling {
		router.Mount("/debug", chimiddleware.Profiler())
	}
	return &Server{
		HTTPServer: &http.Server{
			Addr:              cfg.Address,
			Handler:           router,
			ReadHeaderTimeout: time.Second * 5,
		},
		Logger: logger.With(log.String("address", cfg.Address)),
		done:   make(chan struct{}),
	}
}

// Listen binds the listening socket, so the address is known (and busy ports are reported) before serving.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.HTTPServer.Addr)
	if err != nil {
		return err
	}
	s.listener = ln
	return nil
}

// Addr returns the address the server listens on. It's valid after Listen.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.HTTPServer.Addr
	}
	return s.listener.Addr().String()
}

// Start serves in a blocking way, it's supposed to be called in a separate goroutine after Listen.
// It returns nil after Stop and the serving error otherwise.
func (s *Server) Start() error {
	defer close(s.done)
	s.Logger.Info("metrics HTTP server started", log.String("listen", s.Addr()))
	if err := s.HTTPServer.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve metrics on %s: %w", s.Addr(), err)
	}
	return nil
}

// Stop shuts the server down and waits for Start to return.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := s.HTTPServer.Shutdown(ctx)
	if err != nil {
		s.Logger.Error("metrics HTTP server closing error", log.Error(err))
	}
	<-s.done
	s.Logger.Info("metrics HTTP server stopped")
	return err
}
