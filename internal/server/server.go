// Package server serves an [http.Handler] until its context ends, then
// drains in-flight requests and runs the registered cleanup funcs.
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//
//	srv := server.New(handler, server.WithAddr("localhost:8080"))
//	if err := srv.Run(ctx); err != nil {
//		log.Fatal(err)
//	}
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Server wraps an [http.Server] with context driven graceful shutdown.
type Server struct {
	srv             *http.Server
	listener        net.Listener
	shutdownTimeout time.Duration
	logger          *slog.Logger
	shutdownFuncs   []func(context.Context) error
}

// New creates a Server for handler listening on "localhost:8080" unless
// WithAddr or WithListener says otherwise.
func New(handler http.Handler, optFns ...Option) *Server {
	opts := options{
		addr:            "localhost:8080",
		readTimeout:     5 * time.Second,
		writeTimeout:    10 * time.Second,
		idleTimeout:     120 * time.Second,
		shutdownTimeout: 20 * time.Second,
		logger:          slog.Default(),
	}
	for _, opt := range optFns {
		opt(&opts)
	}

	return &Server{
		srv: &http.Server{
			Addr:         opts.addr,
			Handler:      handler,
			ReadTimeout:  opts.readTimeout,
			WriteTimeout: opts.writeTimeout,
			IdleTimeout:  opts.idleTimeout,
			ErrorLog:     slog.NewLogLogger(opts.logger.Handler(), slog.LevelError),
		},
		listener:        opts.listener,
		shutdownTimeout: opts.shutdownTimeout,
		logger:          opts.logger,
		shutdownFuncs:   opts.shutdownFuncs,
	}
}

// Run serves until ctx is done, then shuts down within the shutdown
// timeout. It returns nil on clean shutdown.
func (s *Server) Run(ctx context.Context) error {
	ln := s.listener
	if ln == nil {
		var err error
		if ln, err = net.Listen("tcp", s.srv.Addr); err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	}

	serverErrs := make(chan error, 1)
	go func() {
		s.logger.Info("server started", "addr", ln.Addr().String())
		serverErrs <- s.srv.Serve(ln)
	}()

	select {
	case err := <-serverErrs:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

		return nil

	case <-ctx.Done():
		s.logger.Info("shutdown started", "cause", context.Cause(ctx))

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
		defer cancel()

		if err := s.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}

		s.logger.Info("shutdown complete")

		return nil
	}
}

// Shutdown runs the shutdown funcs in registration order, then drains
// in-flight requests. The server is closed forcibly when ctx ends first.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, fn := range s.shutdownFuncs {
		if err := fn(ctx); err != nil {
			s.logger.Error("shutdown func", "error", err)
		}
	}

	if err := s.srv.Shutdown(ctx); err != nil {
		s.srv.Close()
		return fmt.Errorf("server didn't stop gracefully: %w", err)
	}

	return nil
}
