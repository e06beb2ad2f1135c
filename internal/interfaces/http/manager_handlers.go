package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/garyjia/expense-approvals/internal/application/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ActionExpenseRequest is the body of POST /api/manager/action-expense/:expenseId
type ActionExpenseRequest struct {
	Action         string           `json:"action"`
	Comments       *string          `json:"comments"`
	ApprovedAmount *decimal.Decimal `json:"approved_amount"`
}

// PendingExpenses handles GET /api/manager/pending-expenses
func (h *Handlers) PendingExpenses(c *gin.Context) {
	pending, err := h.managerService.PendingExpenses(c.Request.Context(), callerIdentity(c).CompanyID)
	if err != nil {
		h.respondError(c, "list pending expenses", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    pending,
	})
}

// ManagerKPIs handles GET /api/manager/kpis
func (h *Handlers) ManagerKPIs(c *gin.Context) {
	kpis, err := h.managerService.KPIs(c.Request.Context(), callerIdentity(c).UserID)
	if err != nil {
		h.respondError(c, "load manager kpis", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    kpis,
	})
}

// TopSpenders handles GET /api/manager/top-spenders
func (h *Handlers) TopSpenders(c *gin.Context) {
	spenders, err := h.managerService.TopSpenders(c.Request.Context(), callerIdentity(c).UserID)
	if err != nil {
		h.respondError(c, "load top spenders", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    spenders,
	})
}

// RecentlyProcessed handles GET /api/manager/recently-processed
func (h *Handlers) RecentlyProcessed(c *gin.Context) {
	processed, err := h.managerService.RecentlyProcessed(c.Request.Context(), callerIdentity(c).UserID)
	if err != nil {
		h.respondError(c, "load recently processed expenses", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    processed,
	})
}

// ActionExpense handles POST /api/manager/action-expense/:expenseId
func (h *Handlers) ActionExpense(c *gin.Context) {
	expenseID, err := strconv.ParseInt(c.Param("expenseId"), 10, 64)
	if err != nil {
		badRequest(c, "invalid expense id")
		return
	}

	var req ActionExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	result, err := h.approvalService.ActionExpense(c.Request.Context(), service.ActionRequest{
		ExpenseID:      expenseID,
		ApproverID:     callerIdentity(c).UserID,
		Action:         req.Action,
		Comments:       req.Comments,
		ApprovedAmount: req.ApprovedAmount,
	})
	if err != nil {
		h.respondError(c, "action expense", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    result,
	})
}

// ApprovedReport handles GET /api/manager/reports/approved.xlsx
func (h *Handlers) ApprovedReport(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.reportService.WriteApprovedExpenses(c.Request.Context(), callerIdentity(c).CompanyID, &buf); err != nil {
		h.respondError(c, "build approved expense report", err)
		return
	}

	filename := fmt.Sprintf("approved-expenses-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
