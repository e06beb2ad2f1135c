package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/expense-approvals/internal/application/service"
	"github.com/garyjia/expense-approvals/internal/domain/entity"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	approvalService service.ApprovalService
	expenseService  service.ExpenseService
	managerService  service.ManagerService
	accountService  service.AccountService
	ruleService     service.RuleService
	reportService   service.ReportService
	db              Pinger
	logger          Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, db Pinger, logger Logger) *Handlers {
	return &Handlers{
		approvalService: services.Approval,
		expenseService:  services.Expense,
		managerService:  services.Manager,
		accountService:  services.Account,
		ruleService:     services.Rule,
		reportService:   services.Report,
		db:              db,
		logger:          logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Timestamp string `json:"timestamp"`
}

// SignupRequest is the body of POST /api/signup
type SignupRequest struct {
	CompanyName     string `json:"companyName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	DefaultCurrency string `json:"default_currency"`
}

// LoginRequest is the body of POST /api/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AddUserRequest is the body of POST /api/users/add
type AddUserRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	ManagerID *int64 `json:"manager_id"`
}

// RuleStepRequest is one step of a new approval rule
type RuleStepRequest struct {
	StepSequence int `json:"step_sequence"`
}

// CreateRuleRequest is the body of POST /api/admin/approval-rules
type CreateRuleRequest struct {
	Name  string            `json:"name"`
	Steps []RuleStepRequest `json:"steps"`
}

// HealthCheck handles GET /api/health
func (h *Handlers) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:    "healthy",
		Database:  "connected",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Error("Health check failed", "error", err)
		response.Status = "unhealthy"
		response.Database = "unreachable"
		c.JSON(http.StatusServiceUnavailable, Response{
			Success: false,
			Data:    response,
			Error:   "database connection failed",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// Signup handles POST /api/signup
func (h *Handlers) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	admin, err := h.accountService.Signup(c.Request.Context(), service.SignupRequest{
		CompanyName:     req.CompanyName,
		Email:           req.Email,
		Password:        req.Password,
		DefaultCurrency: req.DefaultCurrency,
	})
	if err != nil {
		h.respondError(c, "sign up", err)
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    admin,
	})
}

// Login handles POST /api/login
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	result, err := h.accountService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, "log in", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    result,
	})
}

// ListUsers handles GET /api/users
func (h *Handlers) ListUsers(c *gin.Context) {
	caller := callerIdentity(c)

	users, err := h.accountService.ListUsers(c.Request.Context(), caller.CompanyID)
	if err != nil {
		h.respondError(c, "list users", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    users,
	})
}

// AddUser handles POST /api/users/add
func (h *Handlers) AddUser(c *gin.Context) {
	var req AddUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	user, err := h.accountService.AddUser(c.Request.Context(), *callerIdentity(c), service.AddUserRequest{
		Name:      req.Name,
		Email:     req.Email,
		Role:      entity.Role(req.Role),
		ManagerID: req.ManagerID,
	})
	if err != nil {
		h.respondError(c, "add user", err)
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    user,
	})
}

// CreateRule handles POST /api/admin/approval-rules
func (h *Handlers) CreateRule(c *gin.Context) {
	var req CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	sequences := make([]int, 0, len(req.Steps))
	for _, step := range req.Steps {
		sequences = append(sequences, step.StepSequence)
	}

	rule, err := h.ruleService.Create(c.Request.Context(), *callerIdentity(c), service.CreateRuleRequest{
		Name:          req.Name,
		StepSequences: sequences,
	})
	if err != nil {
		h.respondError(c, "create approval rule", err)
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    rule,
	})
}

// ListRules handles GET /api/admin/approval-rules
func (h *Handlers) ListRules(c *gin.Context) {
	rules, err := h.ruleService.List(c.Request.Context(), callerIdentity(c).CompanyID)
	if err != nil {
		h.respondError(c, "list approval rules", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    rules,
	})
}
