package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/garyjia/expense-approvals/internal/application/service"
)

// SubmitExpenseRequest is the body of POST /api/expenses
type SubmitExpenseRequest struct {
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	ExpenseDate string          `json:"expense_date"`
}

// SubmitExpense handles POST /api/expenses
func (h *Handlers) SubmitExpense(c *gin.Context) {
	var req SubmitExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	expense, err := h.expenseService.Submit(c.Request.Context(), *callerIdentity(c), service.SubmitExpenseRequest{
		Category:    req.Category,
		Description: req.Description,
		Amount:      req.Amount,
		Currency:    req.Currency,
		ExpenseDate: req.ExpenseDate,
	})
	if err != nil {
		h.respondError(c, "submit expense", err)
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    expense,
	})
}

// ListExpenses handles GET /api/expenses
func (h *Handlers) ListExpenses(c *gin.Context) {
	expenses, err := h.expenseService.ListMine(c.Request.Context(), callerIdentity(c).UserID)
	if err != nil {
		h.respondError(c, "list expenses", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    expenses,
	})
}

// GetExpense handles GET /api/expenses/:id
func (h *Handlers) GetExpense(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "invalid expense id")
		return
	}

	detail, err := h.expenseService.GetDetail(c.Request.Context(), id, callerIdentity(c).UserID)
	if err != nil {
		h.respondError(c, "get expense", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    detail,
	})
}

// EmployeeKPIs handles GET /api/employee/kpis
func (h *Handlers) EmployeeKPIs(c *gin.Context) {
	kpis, err := h.expenseService.KPIs(c.Request.Context(), callerIdentity(c).UserID)
	if err != nil {
		h.respondError(c, "load employee kpis", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    kpis,
	})
}
