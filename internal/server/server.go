package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/muurk/lifx-exporter/internal/device"
	"github.com/muurk/lifx-exporter/internal/logging"
)

const (
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 60 * time.Second

	// ShutdownTimeout bounds how long Shutdown waits for in-flight requests
	ShutdownTimeout = 10 * time.Second
)

// Config holds the server configuration
type Config struct {
	Addr         string // host:port, e.g. ":8564"
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Deps are the components the HTTP endpoints read from
type Deps struct {
	Registry *device.Registry
	Gatherer prometheus.Gatherer
	Hub      *Hub // optional; /ws returns 404 without it
}

// BindError reports a listen failure on the HTTP address
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("failed to listen on %s: %v", e.Addr, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// Server serves the metrics endpoint and the small JSON/websocket API
type Server struct {
	cfg  Config
	deps Deps

	mu       sync.Mutex
	http     *http.Server
	listener net.Listener
	done     chan struct{}
}

// New creates a new Server instance
func New(cfg Config, deps Deps) *Server {
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}
	if deps.Registry == nil {
		deps.Registry = device.NewRegistry()
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}
	return &Server{cfg: cfg, deps: deps}
}

// Start binds the listen address and serves in the background.
// A bind failure is returned as *BindError.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.http != nil {
		return errors.New("server already started")
	}

	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return &BindError{Addr: s.cfg.Addr, Err: err}
	}

	s.listener = listener
	s.done = make(chan struct{})
	s.http = &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       s.cfg.IdleTimeout,
	}

	logging.Info("HTTP server listening",
		zap.String("addr", listener.Addr().String()),
	)

	srv, done := s.http, s.done
	go func() {
		defer close(done)
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Addr returns the bound address, or the configured one before Start
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.cfg.Addr
}

// Shutdown gracefully shuts down the server.
// Websocket clients are disconnected first so their handlers return.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv, done := s.http, s.done
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	logging.Info("Shutting down HTTP server...")

	if s.deps.Hub != nil {
		s.deps.Hub.Close()
	}

	ctx, cancel := context.WithTimeout(ctx, ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Shutdown timeout, forcing close", zap.Error(err))
		_ = srv.Close()
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}
	<-done

	logging.Info("HTTP server stopped")
	return nil
}
