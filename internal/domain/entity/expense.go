package entity

import (
	"time"

	"github.com/garyjia/expense-approvals/internal/domain/workflow"
	"github.com/shopspring/decimal"
)

// Expense is a reimbursement claim and its position in the approval workflow
type Expense struct {
	ID             int64               `json:"id"`
	EmployeeID     int64               `json:"employee_id"`
	CompanyID      int64               `json:"company_id"`
	Category       string              `json:"category"`
	Description    string              `json:"description"`
	Amount         decimal.Decimal     `json:"amount"`
	Currency       string              `json:"currency"`
	ExpenseDate    time.Time           `json:"expense_date"`
	Status         workflow.Status     `json:"status"`
	ApprovedAmount decimal.NullDecimal `json:"approved_amount"`
	PolicyKind     workflow.PolicyKind `json:"policy"`
	RuleID         *int64              `json:"rule_id,omitempty"`
	CurrentStepID  *int64              `json:"current_step_id,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// Policy rebuilds the workflow policy from the persisted discriminant
func (e *Expense) Policy() workflow.Policy {
	return workflow.NewPolicy(e.PolicyKind, e.RuleID, e.CurrentStepID)
}

// ApplyPolicy stores p's discriminant and position on the expense
func (e *Expense) ApplyPolicy(p workflow.Policy) {
	e.PolicyKind = p.Kind()
	e.RuleID = nil
	e.CurrentStepID = nil
	if seq, ok := p.(workflow.Sequential); ok {
		ruleID := seq.RuleID
		e.RuleID = &ruleID
		e.CurrentStepID = seq.CurrentStepID
	}
}
