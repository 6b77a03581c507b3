package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/netutil"

	"github.com/haukened/sitepulse/internal/pulse/common/log"
)

// Server owns the HTTP listener and its lifecycle.
type Server struct {
	addr     string
	maxConns int
	handler  http.Handler
	logger   log.Logger

	mu       sync.RWMutex
	srv      *http.Server
	listener net.Listener
	running  bool
	done     chan struct{}
}

// NewServer creates a server for handler. maxConns caps concurrently accepted
// connections; zero means unlimited.
func NewServer(addr string, maxConns int, handler http.Handler, logger log.Logger) *Server {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Server{
		addr:     addr,
		maxConns: maxConns,
		handler:  handler,
		logger:   logger,
	}
}

// Start binds the listener and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("HTTP server already running")
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to bind TCP socket on %s: %w", s.addr, err)
	}
	if s.maxConns > 0 {
		ln = netutil.LimitListener(ln, s.maxConns)
	}

	s.listener = ln
	s.srv = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	s.done = make(chan struct{})
	s.running = true

	s.logger.Info(map[string]any{
		"address":   ln.Addr().String(),
		"max_conns": s.maxConns,
	}, "HTTP server started")

	go func(srv *http.Server, ln net.Listener, done chan struct{}) {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(map[string]any{"error": err}, "HTTP server stopped unexpectedly")
		}
	}(s.srv, ln, s.done)

	return nil
}

// Stop gracefully shuts the server down, waiting for in-flight requests
// until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	err := s.srv.Shutdown(ctx)
	if err != nil {
		_ = s.srv.Close()
	}
	<-s.done

	s.logger.Info(map[string]any{"address": s.listener.Addr().String()}, "HTTP server stopped")
	return err
}

// Address returns the bound address while running, otherwise the configured one.
func (s *Server) Address() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.running {
		return s.listener.Addr().String()
	}
	return s.addr
}
