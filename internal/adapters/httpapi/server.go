package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Server is the HTTP frontend of the gateway
type Server struct {
	server          *http.Server
	listener        net.Listener
	logger          *zap.Logger
	shutdownTimeout time.Duration
	done            chan struct{}
}

// Option configures a Server
type Option func(*Server)

// NewServer creates a server for handler
func NewServer(handler http.Handler, logger *zap.Logger, options ...Option) *Server {
	srv := &Server{
		server: &http.Server{
			Addr:              ":8080",
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger:          logger,
		shutdownTimeout: 15 * time.Second,
	}

	for _, opt := range options {
		opt(srv)
	}

	return srv
}

// WithAddress sets the listen address
func WithAddress(address string) Option {
	return func(srv *Server) {
		srv.server.Addr = address
	}
}

// WithTimeouts sets the read and write timeouts; zero leaves a timeout unset
func WithTimeouts(read, write time.Duration) Option {
	return func(srv *Server) {
		srv.server.ReadTimeout = read
		srv.server.WriteTimeout = write
	}
}

// WithShutdownTimeout bounds how long Stop waits for in-flight requests
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(srv *Server) {
		if timeout > 0 {
			srv.shutdownTimeout = timeout
		}
	}
}

// Start binds the listen address and serves in the background
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}
	s.listener = listener
	s.done = make(chan struct{})

	s.logger.Info("HTTP server starting", zap.String("address", listener.Addr().String()))

	go func() {
		defer close(s.done)
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Addr returns the bound address once started
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.server.Addr
	}
	return s.listener.Addr().String()
}

// Stop drains in-flight requests and stops the server
func (s *Server) Stop() error {
	if s.listener == nil {
		return nil
	}

	s.logger.Info("HTTP server stopping", zap.String("address", s.Addr()))

	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	err := s.server.Shutdown(ctx)
	<-s.done
	return err
}
