// Package http provides the HTTP server adapter for the application layer.
// This is a thin adapter that translates requests to application service
// calls; it holds no business logic.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nbrain-team/paycile/internal/application/service"
	"github.com/nbrain-team/paycile/internal/export"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Server is the HTTP server adapter
type Server struct {
	config            ServerConfig
	httpServer        *http.Server
	router            *gin.Engine
	reconService      service.ReconciliationService
	allocationService service.AllocationService
	waterfallService  service.WaterfallService
	exporter          *export.Exporter
	logger            Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(
	config ServerConfig,
	reconService service.ReconciliationService,
	allocationService service.AllocationService,
	waterfallService service.WaterfallService,
	exporter *export.Exporter,
	logger Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	server := &Server{
		config:            config,
		router:            router,
		reconService:      reconService,
		allocationService: allocationService,
		waterfallService:  waterfallService,
		exporter:          exporter,
		logger:            logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", status,
			"latency", latency.String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	handlers := NewHandlers(s.reconService, s.allocationService, s.waterfallService, s.exporter, s.logger)

	// Health check
	s.router.GET("/health", handlers.HealthCheck)

	api := s.router.Group("/api")
	{
		api.GET("/reconciliations", handlers.ListReconciliations)
		api.GET("/reconciliations/export", handlers.ExportReconciliations)
		api.GET("/reconciliations/:id", handlers.GetReconciliation)
		api.POST("/reconciliations/ai-suggestions", handlers.RunMatchingPass)
		api.POST("/reconciliations/:id/accept-suggestion", handlers.AcceptSuggestion)
		api.POST("/reconciliations/:id/match", handlers.ManualMatch)
		api.POST("/reconciliations/:id/dispute", handlers.Dispute)
		api.POST("/reconciliations/:id/resolve", handlers.ResolveDispute)

		api.GET("/payments/:id/allocations", handlers.GetAllocations)

		api.GET("/insurers/:id/waterfall", handlers.GetWaterfall)
		api.PUT("/insurers/:id/waterfall", handlers.ReorderWaterfall)
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "addr", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("Shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
