// Package server provides the HTTP server implementation.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gourl/idforge/internal/config"
	"github.com/gourl/idforge/internal/handlers"
	"github.com/gourl/idforge/internal/idgen"
	"github.com/gourl/idforge/internal/metrics"
	"github.com/gourl/idforge/internal/middleware"
	"github.com/gourl/idforge/internal/ratelimit"
	"github.com/gourl/idforge/internal/services"
	"github.com/gourl/idforge/pkg/logger"
)

// Option configures a Server.
type Option func(*Server)

// WithIDService replaces the default dispatcher-backed IDService.
func WithIDService(svc services.IDService) Option {
	return func(s *Server) { s.idService = svc }
}

// WithStatsService enables the statistics endpoints.
func WithStatsService(svc services.StatsService) Option {
	return func(s *Server) { s.statsService = svc }
}

// WithRateLimiter supplies the limiter used when rate limiting is enabled.
// The server closes it on shutdown.
func WithRateLimiter(l ratelimit.Limiter) Option {
	return func(s *Server) { s.rateLimiter = l }
}

// WithRequestIDGenerator sets the generator for X-Request-ID values.
func WithRequestIDGenerator(gen idgen.Generator) Option {
	return func(s *Server) { s.requestIDs = gen }
}

// Server represents the HTTP server.
type Server struct {
	cfg           *config.Config
	log           *logger.Logger
	httpServer    *http.Server
	healthHandler *handlers.HealthHandler
	idHandler     *handlers.IDHandler
	statsHandler  *handlers.StatsHandler
	docsHandler   *handlers.DocsHandler
	idService     services.IDService
	statsService  services.StatsService
	rateLimiter   ratelimit.Limiter
	requestIDs    idgen.Generator
	listener      net.Listener
	running       bool
	mu            sync.RWMutex
}

// New creates a new Server instance.
func New(cfg *config.Config, log *logger.Logger, opts ...Option) (*Server, error) {
	if log == nil {
		log = logger.Nop()
	}

	s := &Server{
		cfg:           cfg,
		log:           log,
		healthHandler: handlers.NewHealthHandler(),
		docsHandler:   handlers.NewDocsHandler(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.idService == nil {
		dispatcher, err := idgen.NewDispatcher(idgen.Options{
			NanoIDSize:     cfg.IDGen.NanoIDSize,
			NanoIDAlphabet: cfg.IDGen.NanoIDAlphabet,
			Recorder:       metrics.Recorder{},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create id dispatcher: %w", err)
		}
		s.idService = services.NewIDService(dispatcher, log)
	}
	if s.statsService == nil {
		s.statsService = services.NewStatsService(nil, nil)
	}
	if s.requestIDs == nil {
		s.requestIDs = idgen.NewULIDGenerator(idgen.NewCryptoSource(), idgen.SystemClock{})
	}

	s.idHandler = handlers.NewIDHandler(s.idService)
	s.statsHandler = handlers.NewStatsHandler(s.statsService)

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpServer = &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      s.buildMiddlewareChain(mux),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s, nil
}

// buildMiddlewareChain creates the middleware chain for the server.
func (s *Server) buildMiddlewareChain(handler http.Handler) http.Handler {
	chain := middleware.New(
		middleware.Recover(s.log),
		middleware.Metrics(),
		middleware.RequestID(s.requestIDs),
		middleware.ClientIP(s.cfg.Rate.TrustProxy, nil),
		middleware.Logging(s.log),
	)

	if !s.cfg.Rate.Enabled {
		if s.rateLimiter != nil {
			_ = s.rateLimiter.Close()
			s.rateLimiter = nil
		}
		return chain.Then(handler)
	}

	if s.rateLimiter == nil {
		s.rateLimiter = ratelimit.NewMemoryLimiter(ratelimit.Config{
			Requests: s.cfg.Rate.Requests,
			Window:   s.cfg.Rate.Window,
		})
	}
	if p, ok := s.rateLimiter.(interface{ Ping(context.Context) error }); ok {
		s.healthHandler.AddCheck("rate_limiter", p.Ping)
	}

	chain = chain.Append(middleware.RateLimit(s.rateLimiter, middleware.RateLimitConfig{
		TrustProxy:   s.cfg.Rate.TrustProxy,
		APIKeyHeader: s.cfg.Rate.APIKeyHeader,
		APIKeys:      s.cfg.Rate.APIKeys,
		Logger:       s.log,
	}))

	s.log.Info("rate limiting enabled",
		"backend", s.cfg.Rate.Backend,
		"requests", s.cfg.Rate.Requests,
		"window", s.cfg.Rate.Window.String(),
	)

	return chain.Then(handler)
}

// registerRoutes sets up the HTTP routes.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.healthHandler.Health)
	mux.HandleFunc("GET /ready", s.healthHandler.Ready)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET /docs", s.docsHandler.ScalarUI)
	mux.HandleFunc("GET /docs/openapi.yaml", s.docsHandler.OpenAPISpec)

	mux.HandleFunc("GET /api/v1/formats", s.idHandler.ListFormats)
	mux.HandleFunc("GET /api/v1/ids/{format}", s.idHandler.GenerateGET)
	mux.HandleFunc("POST /api/v1/ids", s.idHandler.GeneratePOST)
	mux.HandleFunc("GET /api/v1/ids/{format}/inspect", s.idHandler.Inspect)

	mux.HandleFunc("GET /api/v1/stats", s.statsHandler.Totals)
	mux.HandleFunc("GET /api/v1/stats/{format}", s.statsHandler.FormatStats)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.cfg.Server.Address())
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	s.mu.Lock()
	s.listener = listener
	s.running = true
	s.mu.Unlock()

	s.log.Info("server starting", "address", listener.Addr().String())

	err = s.httpServer.Serve(listener)
	if err != nil && err != http.ErrServerClosed {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("server shutting down")

	s.healthHandler.SetReady(false)

	err := s.httpServer.Shutdown(ctx)

	s.mu.Lock()
	limiter := s.rateLimiter
	s.rateLimiter = nil
	s.running = false
	s.mu.Unlock()

	if limiter != nil {
		if closeErr := limiter.Close(); closeErr != nil {
			s.log.Error("failed to close rate limiter", "error", closeErr)
		}
	}

	if err != nil {
		s.log.Error("shutdown error", "error", err)
		return err
	}

	s.log.Info("server stopped")
	return nil
}

// Handler returns the root handler including middleware.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// IsRunning returns whether the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the server's address.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// HealthHandler returns the health handler.
func (s *Server) HealthHandler() *handlers.HealthHandler {
	return s.healthHandler
}
