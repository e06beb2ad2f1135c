// Package http provides HTTP server adapter for the application layer.
// This is a thin adapter layer that translates HTTP requests to application service calls.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/expense-approvals/internal/application/port"
	"github.com/garyjia/expense-approvals/internal/application/service"
	"github.com/garyjia/expense-approvals/internal/domain/entity"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Pinger reports whether the backing store is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "0.0.0.0",
		Port:            8080,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Services groups the application services exposed over HTTP
type Services struct {
	Approval service.ApprovalService
	Expense  service.ExpenseService
	Manager  service.ManagerService
	Account  service.AccountService
	Rule     service.RuleService
	Report   service.ReportService
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	services   Services
	tokens     port.TokenIssuer
	db         Pinger
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(
	config ServerConfig,
	services Services,
	tokens port.TokenIssuer,
	db Pinger,
	logger Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	server := &Server{
		config:   config,
		router:   router,
		services: services,
		tokens:   tokens,
		db:       db,
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(requestIDMiddleware())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(corsMiddleware())
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	h := NewHandlers(s.services, s.db, s.logger)

	api := s.router.Group("/api")
	{
		api.GET("/health", h.HealthCheck)
		api.POST("/signup", h.Signup)
		api.POST("/login", h.Login)
	}

	authed := api.Group("")
	authed.Use(authMiddleware(s.tokens))
	{
		authed.GET("/users", h.ListUsers)
		authed.POST("/users/add", requireRole(entity.RoleAdmin), h.AddUser)

		authed.POST("/admin/approval-rules", requireRole(entity.RoleAdmin), h.CreateRule)
		authed.GET("/admin/approval-rules", requireRole(entity.RoleAdmin), h.ListRules)

		authed.POST("/expenses", h.SubmitExpense)
		authed.GET("/expenses", h.ListExpenses)
		authed.GET("/expenses/:id", h.GetExpense)
		authed.GET("/employee/kpis", h.EmployeeKPIs)
	}

	manager := authed.Group("/manager")
	{
		manager.GET("/pending-expenses", requireRole(entity.RoleManager), h.PendingExpenses)
		manager.GET("/kpis", requireRole(entity.RoleManager), h.ManagerKPIs)
		manager.GET("/top-spenders", requireRole(entity.RoleManager), h.TopSpenders)
		manager.GET("/recently-processed", requireRole(entity.RoleManager), h.RecentlyProcessed)
		manager.POST("/action-expense/:expenseId", requireRole(entity.RoleManager), h.ActionExpense)
		manager.GET("/reports/approved.xlsx", requireRole(entity.RoleManager, entity.RoleAdmin), h.ApprovedReport)
	}
}

// Start starts the HTTP server and blocks until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
