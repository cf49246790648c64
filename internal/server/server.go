package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pulsefeed/pulse/internal/config"
	"log/slog"
)

// Server wraps the feed API's http.Server with lifecycle management:
// timeouts from config, a Start that distinguishes real listener
// failures from a clean close, and a bounded graceful Shutdown.
type Server struct {
	shutdownTimeout time.Duration
	logger          *slog.Logger
	srv             *http.Server
}

// New constructs a Server around the given handler.
func New(cfg config.ServerConfig, logger *slog.Logger, handler http.Handler) *Server {
	return &Server{
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          logger,
		srv: &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.srv.Addr
}

// Start serves HTTP traffic until Shutdown is called or the listener
// fails. A clean close is not an error.
func (s *Server) Start() error {
	s.logger.Info("listening", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http listen: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests, bounded by the configured
// shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()

	s.logger.Info("draining connections")
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
