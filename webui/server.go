// Package webui serves the browser front end and the JSON API of the
// text-to-image service.
//
// Routes:
//
//	GET  /               embedded single page (plus /css, /js assets)
//	POST /api/generate   run one generation, respond with a PNG data URL
//	GET  /api/status     {"in_progress": bool}
//	GET  /health         {"status":"ok","pipeline_ready": bool}
//	GET  /metrics        Prometheus exposition, when a handler is configured
//
// Only one generation runs at a time; a concurrent POST /api/generate is
// answered with 400 rather than queued.
package webui

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// WebUIServer wires the router, middleware and API handlers to an
// http.Server.
type WebUIServer struct {
	httpServer *http.Server
	router     *mux.Router
	handler    http.Handler
	config     ServerConfig
	logger     *zap.Logger
	api        *GenerateAPI
}

// ServerConfig configures the WebUIServer.
type ServerConfig struct {
	// Addr to listen on (default: "localhost:5000")
	Addr string

	// ReadHeaderTimeout for request headers (default: 10s)
	ReadHeaderTimeout time.Duration

	// ReadTimeout for the whole request (default: 30s)
	ReadTimeout time.Duration

	// IdleTimeout for keep-alive connections (default: 120s)
	IdleTimeout time.Duration

	// ShutdownTimeout bounds Shutdown when the caller's context has no deadline (default: 30s)
	ShutdownTimeout time.Duration

	// StaticConfig for static asset handler
	StaticConfig StaticAssetConfig

	// LogSkipPaths are logged at debug level only (default: DefaultSkipPaths)
	LogSkipPaths []string

	// API configures the generate endpoint
	API GenerateAPIConfig

	// MetricsHandler is mounted at /metrics when set
	MetricsHandler http.Handler
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
// There is no write timeout: a generate request blocks for the whole
// inference.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:              "localhost:5000",
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
		ShutdownTimeout:   30 * time.Second,
		StaticConfig:      DefaultStaticAssetConfig(),
		LogSkipPaths:      DefaultSkipPaths,
	}
}

// NewServer creates a WebUIServer around gen.
func NewServer(config ServerConfig, gen Generator, logger *zap.Logger) (*WebUIServer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Addr == "" {
		config.Addr = DefaultServerConfig().Addr
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = DefaultServerConfig().ShutdownTimeout
	}
	if config.LogSkipPaths == nil {
		config.LogSkipPaths = DefaultSkipPaths
	}

	api, err := NewGenerateAPI(gen, config.API, logger.Named("api"))
	if err != nil {
		return nil, err
	}

	s := &WebUIServer{
		router: mux.NewRouter(),
		config: config,
		logger: logger,
		api:    api,
	}
	s.setupRoutes()
	s.handler = s.rootHandler()

	s.httpServer = &http.Server{
		Addr:              config.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: config.ReadHeaderTimeout,
		ReadTimeout:       config.ReadTimeout,
		IdleTimeout:       config.IdleTimeout,
		ErrorLog:          zap.NewStdLog(logger.Named("http")),
	}

	logger.Debug("WebUI server created", zap.String("addr", config.Addr))
	return s, nil
}

// setupRoutes configures all the HTTP routes.
func (s *WebUIServer) setupRoutes() {
	s.router.HandleFunc("/api/generate", s.api.HandleGenerate).Methods(http.MethodPost)
	s.router.HandleFunc("/api/status", s.api.HandleStatus).Methods(http.MethodGet)

	s.router.HandleFunc("/health", s.api.HandleHealth).Methods(http.MethodGet)
	if s.config.MetricsHandler != nil {
		s.router.Handle("/metrics", s.config.MetricsHandler).Methods(http.MethodGet)
	}

	static := NewStaticAssetHandler(s.config.StaticConfig)
	s.router.PathPrefix("/").Handler(static).Methods(http.MethodGet, http.MethodHead)
}

// rootHandler wraps the router with middleware. From the outside in:
// request logging, panic recovery, response compression.
func (s *WebUIServer) rootHandler() http.Handler {
	var handler http.Handler = s.router
	handler = handlers.CompressHandler(handler)
	handler = handlers.RecoveryHandler(
		handlers.RecoveryLogger(zap.NewStdLog(s.logger.Named("recovery"))),
		handlers.PrintRecoveryStack(true),
	)(handler)

	loggingMw := NewLoggingMiddleware(s.logger.Named("http"), LoggingMiddlewareConfig{
		SkipPaths: s.config.LogSkipPaths,
	})
	return loggingMw.Handler(handler)
}

// Start listens on the configured address and blocks until the server is
// shut down.
func (s *WebUIServer) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln and blocks until the server is shut down.
func (s *WebUIServer) Serve(ln net.Listener) error {
	s.logger.Info("WebUI server listening", zap.String("addr", ln.Addr().String()))

	err := s.httpServer.Serve(ln)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for active requests,
// including a running generation.
func (s *WebUIServer) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down WebUI server")

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown error: %w", err)
	}

	s.logger.Info("WebUI server stopped")
	return nil
}

// Handler returns the fully wrapped handler, for tests and embedding.
func (s *WebUIServer) Handler() http.Handler {
	return s.handler
}

// HTTPServer returns the underlying server, for shutdown registration.
func (s *WebUIServer) HTTPServer() *http.Server {
	return s.httpServer
}

// Addr returns the configured listen address.
func (s *WebUIServer) Addr() string {
	return s.httpServer.Addr
}
