package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/monitoring/logging"
)

// ServerConfig holds the listener tunables.
type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Server wraps http.Server with logged start and graceful stop.
type Server struct {
	srv    *http.Server
	cfg    ServerConfig
	logger logging.Logger
}

// NewServer creates a Server serving handler.
func NewServer(cfg ServerConfig, handler http.Handler, logger logging.Logger) *Server {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	return &Server{
		cfg:    cfg,
		logger: logger.Named("http_server"),
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Serve accepts connections on l until Stop is called.
func (s *Server) Serve(l net.Listener) error {
	s.logger.Info("HTTP server listening", logging.String("addr", l.Addr().String()))
	if err := s.srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Start listens on the configured port and blocks until Stop is called.
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.srv.Addr, err)
	}
	return s.Serve(l)
}

// Stop drains in-flight requests for at most the shutdown timeout.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

//Personal.AI order the ending
