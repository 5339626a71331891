package ws

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"go.uber.org/zap"
)

// Server runs the HTTP listener as a lifecycle service.
type Server struct {
	srv    *http.Server
	ln     net.Listener
	logger *zap.Logger
	ready  chan struct{}
}

// NewServer creates a Server listening on addr.
//
// Precondition: handler and logger must be non-nil.
func NewServer(addr string, handler http.Handler, logger *zap.Logger) *Server {
	return &Server{
		srv:    &http.Server{Addr: addr, Handler: handler},
		logger: logger,
		ready:  make(chan struct{}),
	}
}

// Start listens and serves until Stop is called.
//
// Postcondition: Returns nil after a clean Stop, or the listen/serve error.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.srv.Addr, err)
	}
	s.ln = ln
	close(s.ready)
	s.logger.Info("http listener started", zap.String("addr", ln.Addr().String()))
	if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving http: %w", err)
	}
	return nil
}

// Ready is closed once the listener is bound.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// Addr returns the bound listener address. Valid after Ready is closed.
func (s *Server) Addr() string { return s.ln.Addr().String() }

// Stop stops accepting connections and waits for plain HTTP requests to
// finish. Websocket connections are hijacked and must be closed separately.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
