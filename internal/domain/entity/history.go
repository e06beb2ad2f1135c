package entity

import (
	"time"

	"github.com/garyjia/expense-approvals/internal/domain/workflow"
	"github.com/shopspring/decimal"
)

// ApprovalRule is a company's ordered approval configuration
type ApprovalRule struct {
	ID        int64          `json:"id"`
	CompanyID int64          `json:"company_id"`
	Name      string         `json:"name"`
	RuleType  string         `json:"rule_type"`
	Steps     []ApprovalStep `json:"steps"`
	CreatedAt time.Time      `json:"created_at"`
}

// ApprovalStep is one stage of a sequential rule
type ApprovalStep struct {
	ID           int64 `json:"id"`
	RuleID       int64 `json:"rule_id"`
	StepSequence int   `json:"step_sequence"`
}

// ApprovalHistory is one append-only ledger row
type ApprovalHistory struct {
	ID                 int64               `json:"id"`
	ExpenseID          int64               `json:"expense_id"`
	ApproverID         int64               `json:"approver_id"`
	ApproverName       string              `json:"approver_name,omitempty"`
	Action             workflow.Action     `json:"action"`
	StepApprovedAmount decimal.NullDecimal `json:"step_approved_amount"`
	Comments           *string             `json:"comments,omitempty"`
	ActionDate         time.Time           `json:"action_date"`
}
