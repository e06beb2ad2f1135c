package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PendingExpense is a row of the manager's pending list
type PendingExpense struct {
	ID              int64            `json:"id"`
	Description     string           `json:"description"`
	Amount          decimal.Decimal  `json:"amount"`
	Currency        string           `json:"currency"`
	ExpenseDate     time.Time        `json:"expense_date"`
	Category        string           `json:"category"`
	EmployeeName    string           `json:"employee_name"`
	Approvers       string           `json:"approvers,omitempty"`
	ConvertedAmount *decimal.Decimal `json:"converted_amount,omitempty"`
}

// ExpenseDetail is an expense with its approval history
type ExpenseDetail struct {
	Expense
	History []*ApprovalHistory `json:"history"`
}

// EmployeeKPIs are the totals shown on an employee dashboard
type EmployeeKPIs struct {
	TotalApproved decimal.Decimal `json:"total_approved"`
	TotalPending  decimal.Decimal `json:"total_pending"`
	TotalRejected decimal.Decimal `json:"total_rejected"`
}

// ManagerKPIs are the team totals shown on a manager dashboard
type ManagerKPIs struct {
	TotalPending       decimal.Decimal `json:"total_pending"`
	TotalApprovedMonth decimal.Decimal `json:"total_approved_month"`
	AvgApprovalTime    string          `json:"avg_approval_time"`
}

// TopSpender is a direct report ranked by approved spend
type TopSpender struct {
	EmployeeName string          `json:"employee_name"`
	TotalSpent   decimal.Decimal `json:"total_spent"`
}

// ProcessedExpense is a history row enriched for the recently-processed view
type ProcessedExpense struct {
	ID           int64     `json:"id"`
	Description  string    `json:"description"`
	EmployeeName string    `json:"employee_name"`
	Action       string    `json:"action"`
	ActionDate   time.Time `json:"action_date"`
}

// ExpenseReportRow is one line of the approved-expense export
type ExpenseReportRow struct {
	ID             int64           `json:"id"`
	EmployeeName   string          `json:"employee_name"`
	Category       string          `json:"category"`
	Description    string          `json:"description"`
	Currency       string          `json:"currency"`
	Amount         decimal.Decimal `json:"amount"`
	ApprovedAmount decimal.Decimal `json:"approved_amount"`
	ExpenseDate    time.Time       `json:"expense_date"`
}
