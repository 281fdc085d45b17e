package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/setlist/internal/metrics"
	"github.com/desertthunder/setlist/internal/shared"
	"github.com/desertthunder/setlist/internal/tasks"
)

const shutdownTimeout = 10 * time.Second

// Options contains the dependencies of a [Server].
type Options struct {
	Addr     string
	Engine   *tasks.Engine
	Catalog  Catalog
	Runs     RunStore // optional
	Defaults shared.DefaultsConfig
	Logger   *log.Logger
	Extra    []Handler // additional handlers, e.g. the web page
}

// Server is the local HTTP front over the batch engine.
type Server struct {
	router *BasicRouter
	http   *http.Server
	logger *log.Logger
}

// New wires the router: logging, recovery and metrics middleware, then the batch, health,
// playlist and metrics routes.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	router := NewBasicRouter()
	router.Use(RequestLogger(opts.Logger), Recoverer(opts.Logger), metrics.Middleware())

	router.Handler(NewBatchHandler(opts.Engine, opts.Runs, opts.Defaults, opts.Logger))
	router.Handler(NewHealthHandler(opts.Catalog))
	router.Handler(NewPlaylistsHandler(opts.Catalog))
	for _, h := range opts.Extra {
		router.Handler(h)
	}
	router.Handle(http.MethodGet, "/metrics", metrics.Handler())

	return &Server{
		router: router,
		logger: opts.Logger,
		http: &http.Server{
			Addr:              opts.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
//
// ready, if non-nil, receives the bound address once the listener is open.
func (s *Server) ListenAndServe(ctx context.Context, ready chan<- string) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.http.Addr, err)
	}

	addr := ln.Addr().String()
	s.logger.Info("serving", "addr", addr, "routes", len(s.router.Routes()))
	if ready != nil {
		ready <- addr
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down")
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
