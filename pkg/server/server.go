package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kacperjurak/eisplot/pkg/config"
	"github.com/kacperjurak/eisplot/pkg/handlers"
	"github.com/kacperjurak/eisplot/pkg/logging"
	"github.com/kacperjurak/eisplot/pkg/profiling"
	"github.com/kacperjurak/eisplot/pkg/store"
	"github.com/kacperjurak/eisplot/pkg/stream"
)

const shutdownTimeout = 10 * time.Second

// Server represents the HTTP server with all dependencies
type Server struct {
	config     *config.ServerConfig
	store      *store.Store
	hub        *stream.Hub
	metrics    *profiling.Metrics
	profiler   *profiling.Profiler
	middleware *profiling.Middleware
	logger     *zap.Logger
	httpServer *http.Server
}

// Options holds configuration for creating a new server. Store, Hub and
// Metrics are built from Config when nil.
type Options struct {
	Config  *config.ServerConfig
	Store   *store.Store
	Hub     *stream.Hub
	Metrics *profiling.Metrics
	Logger  *zap.Logger
}

// New creates a new server instance
func New(opts Options) *Server {
	if opts.Config == nil {
		opts.Config = &config.DefaultConfig().Server
	}
	logger := logging.OrNop(opts.Logger)
	if opts.Store == nil {
		opts.Store = store.New(store.Options{MaxHistory: opts.Config.MaxHistory})
	}
	if opts.Hub == nil {
		opts.Hub = stream.NewHub(logger.Named("stream"))
	}
	if opts.Metrics == nil && opts.Config.EnableMetrics {
		opts.Metrics = profiling.NewMetrics(opts.Store.Len, opts.Hub.Count)
	}

	s := &Server{
		config:     opts.Config,
		store:      opts.Store,
		hub:        opts.Hub,
		metrics:    opts.Metrics,
		profiler:   profiling.New(opts.Config.EnableProfiling, opts.Config.ProfilingPort, logger.Named("profiler")),
		middleware: profiling.NewMiddleware(opts.Metrics),
		logger:     logger,
	}

	s.httpServer = &http.Server{
		Addr:         s.config.HTTPAddress(),
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Store returns the record store behind the server.
func (s *Server) Store() *store.Store {
	return s.store
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	webhook := handlers.NewWebhookHandler(handlers.WebhookOptions{
		Store:     s.store,
		Publisher: s.hub,
		Metrics:   s.metrics,
		Logger:    s.logger.Named("webhook"),
		Quiet:     s.config.Quiet,
	})

	mux.Handle("/webhook", s.middleware.Instrument("webhook", webhook))
	mux.Handle("/latest-webhook", s.middleware.Instrument("latest-webhook", handlers.NewLatestHandler(s.store)))
	mux.Handle("/all-webhooks", s.middleware.Instrument("all-webhooks", handlers.NewAllHandler(s.store)))
	mux.Handle("/parameter-evolution", s.middleware.Instrument("parameter-evolution", handlers.NewEvolutionHandler(s.store)))
	mux.Handle("/dashboard", s.middleware.Instrument("dashboard", handlers.NewDashboardHandler(s.store, s.logger.Named("dashboard"))))
	mux.Handle("/health", handlers.NewHealthHandler(s.store))
	// The upgrade hijacks the connection, so the stream is not instrumented.
	mux.Handle("/stream", s.hub)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}
	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if err := s.profiler.Start(); err != nil {
		s.logger.Error("failed to start profiler", zap.Error(err))
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting http server",
			zap.String("addr", ln.Addr().String()),
			zap.Int("max_history", s.config.MaxHistory),
			zap.Bool("metrics", s.metrics != nil))
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		return s.shutdown()
	case err := <-errCh:
		s.hub.Close()
		_ = s.profiler.Stop()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) shutdown() error {
	s.logger.Info("shutting down server", zap.Int("records", s.store.Len()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.hub.Close()
	if err := s.profiler.Stop(); err != nil {
		s.logger.Warn("profiler shutdown error", zap.Error(err))
	}
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("server shutdown complete")
	return nil
}
