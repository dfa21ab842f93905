package http

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/autopeer-io/leaf/pkg/log"
	"github.com/autopeer-io/leaf/pkg/options"
)

// Server runs an HTTP handler until its context ends.
type Server struct {
	server  *http.Server
	options *options.HttpOptions
	ready   chan struct{}
	addr    net.Addr
}

// NewServer returns a server for handler on opts.Addr.
func NewServer(opts *options.HttpOptions, handler http.Handler) *Server {
	return &Server{
		server: &http.Server{
			Addr:              opts.Addr,
			Handler:           handler,
			ReadHeaderTimeout: opts.ReadHeaderTimeout,
		},
		options: opts,
		ready:   make(chan struct{}),
	}
}

// Start listens and serves, then shuts down gracefully once ctx ends.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	s.addr = ln.Addr()
	close(s.ready)
	log.Info("Starting HTTP Server", "addr", s.addr.String())

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.options.ShutdownTimeout)
		defer cancel()
		log.Info("Shutting down HTTP Server", "addr", s.addr.String())
		return s.server.Shutdown(shutdownCtx)
	}
}

// Ready is closed once the listener is bound.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound address. Valid after Ready is closed.
func (s *Server) Addr() net.Addr {
	return s.addr
}
