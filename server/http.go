// Package server is the HTTP surface of taskdesk: Slack slash commands and
// interactions behind signature verification, plus health endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/deepnoodle-ai/taskdesk/log"
)

// DefaultShutdownTimeout bounds how long in-flight requests may run after
// shutdown starts.
const DefaultShutdownTimeout = 10 * time.Second

// HTTPServer serves a handler on a TCP listener. Serve blocks until the
// context is cancelled and active requests drain.
type HTTPServer struct {
	address         string
	handler         http.Handler
	logger          log.Logger
	shutdownTimeout time.Duration

	// ready is closed once the listener is bound.
	ready chan struct{}
	addr  net.Addr
}

// HTTPServerConfig configures an HTTPServer.
type HTTPServerConfig struct {
	// Address is the TCP listen address, e.g. ":3000". Required.
	Address string

	// Handler serves incoming requests. Required.
	Handler http.Handler

	// ShutdownTimeout defaults to DefaultShutdownTimeout.
	ShutdownTimeout time.Duration

	Logger log.Logger
}

// NewHTTPServer creates a server. Call Serve to start accepting connections.
func NewHTTPServer(config HTTPServerConfig) *HTTPServer {
	if config.Address == "" {
		panic("server.HTTPServer: Address is required")
	}
	if config.Handler == nil {
		panic("server.HTTPServer: Handler is required")
	}
	if config.Logger == nil {
		config.Logger = log.NewNullLogger()
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = DefaultShutdownTimeout
	}
	return &HTTPServer{
		address:         config.Address,
		handler:         config.Handler,
		logger:          config.Logger,
		shutdownTimeout: config.ShutdownTimeout,
		ready:           make(chan struct{}),
	}
}

// Ready is closed once the server is bound and accepting connections.
func (s *HTTPServer) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the resolved listen address. Only valid after Ready is
// closed.
func (s *HTTPServer) Addr() net.Addr {
	return s.addr
}

// Serve accepts connections until ctx is cancelled, then stops accepting
// and waits up to the shutdown timeout for active requests.
func (s *HTTPServer) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.address, err)
	}
	s.addr = listener.Addr()
	close(s.ready)

	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return log.WithLogger(context.Background(), s.logger)
		},
	}

	s.logger.Info("http server listening", "address", s.addr.String())

	serveDone := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveDone <- err
		}
		close(serveDone)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("http server shutting down")
	case err := <-serveDone:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("http server shutdown error", "error", err)
		return fmt.Errorf("http server shutdown: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}
