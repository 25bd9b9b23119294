// Package server provides the HTTP server implementation.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/venuelist/internal/auth"
	"github.com/vyrodovalexey/venuelist/internal/catalog"
	"github.com/vyrodovalexey/venuelist/internal/config"
	"github.com/vyrodovalexey/venuelist/internal/handler"
	"github.com/vyrodovalexey/venuelist/internal/middleware"
	"github.com/vyrodovalexey/venuelist/internal/session"
)

// Server represents the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *mux.Router
	config     *config.Config
	logger     *zap.Logger
	registry   *session.Registry
	wsHandler  *handler.WebSocketHandler
}

// New creates a new Server instance. A nil authenticator serves every
// request as an anonymous viewer.
func New(
	cfg *config.Config,
	logger *zap.Logger,
	c *catalog.Catalog,
	authenticator auth.Authenticator,
) *Server {
	router := mux.NewRouter()

	s := &Server{
		router:   router,
		config:   cfg,
		logger:   logger,
		registry: session.NewRegistry(c, cfg.ItemsPerPage, logger),
	}

	s.setupMiddleware(authenticator)
	s.setupRoutes(c)
	s.setupHTTPServer()

	return s
}

// setupMiddleware configures the middleware chain.
func (s *Server) setupMiddleware(authenticator auth.Authenticator) {
	allowedOrigins := []string{"*"}
	allowedMethods := []string{
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodDelete,
		http.MethodOptions,
	}
	allowedHeaders := []string{
		"Content-Type",
		"Authorization",
		auth.APIKeyHeader,
		middleware.RequestIDHeader,
	}

	if authenticator == nil || s.config.AllowAnonymous {
		authenticator = auth.NewOptionalAuthenticator(authenticator)
	}

	chain := []middleware.Middleware{
		middleware.Recovery(s.logger),
		middleware.RequestID(),
	}
	if s.config.MetricsEnabled {
		chain = append(chain, middleware.Metrics())
	}
	chain = append(chain,
		middleware.Logging(s.logger),
		middleware.CORS(allowedOrigins, allowedMethods, allowedHeaders),
		middleware.Auth(authenticator, s.logger),
	)

	s.router.Use(mux.MiddlewareFunc(middleware.Chain(chain...)))
}

// setupRoutes configures the API routes.
func (s *Server) setupRoutes(c *catalog.Catalog) {
	restHandler := handler.NewRESTHandler(c, s.registry, s.config.ItemsPerPage, s.logger)
	restHandler.RegisterRoutes(s.router)

	s.wsHandler = handler.NewWebSocketHandler(s.registry, s.logger)
	s.wsHandler.RegisterRoutes(s.router)

	if s.config.MetricsEnabled {
		s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	}
}

// setupHTTPServer configures the HTTP server.
func (s *Server) setupHTTPServer() {
	s.httpServer = &http.Server{
		Addr:              s.config.Address(),
		Handler:           s.router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting server",
		zap.String("address", s.config.Address()),
		zap.Bool("metrics_enabled", s.config.MetricsEnabled),
		zap.Int("items_per_page", s.config.ItemsPerPage),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server listen and serve: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	if s.wsHandler != nil {
		s.wsHandler.CloseAllConnections()
	}
	s.registry.Shutdown()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// Router returns the server's router for testing purposes.
func (s *Server) Router() *mux.Router {
	return s.router
}

// Registry returns the view registry of the server.
func (s *Server) Registry() *session.Registry {
	return s.registry
}
