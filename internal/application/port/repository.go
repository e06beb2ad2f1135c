package port

import (
	"context"
	"time"

	"github.com/garyjia/expense-approvals/internal/domain/entity"
	"github.com/garyjia/expense-approvals/internal/domain/workflow"
	"github.com/shopspring/decimal"
)

// Lookups return (nil, nil) when the row does not exist.

// CompanyRepository defines persistence operations for Company
type CompanyRepository interface {
	Create(ctx context.Context, company *entity.Company) error
	GetByID(ctx context.Context, id int64) (*entity.Company, error)
}

// UserRepository defines persistence operations for User
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	ListByCompany(ctx context.Context, companyID int64) ([]*entity.User, error)

	// CountByRole counts users of a company holding role
	CountByRole(ctx context.Context, companyID int64, role entity.Role) (int, error)
}

// ExpenseRepository defines persistence operations for Expense
type ExpenseRepository interface {
	Create(ctx context.Context, expense *entity.Expense) error
	GetByID(ctx context.Context, id int64) (*entity.Expense, error)

	// GetAmount reads the persisted original amount
	GetAmount(ctx context.Context, id int64) (decimal.Decimal, error)

	// AdvanceStep moves a sequential expense to stepID
	AdvanceStep(ctx context.Context, id, stepID int64) error

	// Resolve writes a final status and approved amount, optionally clearing the step
	Resolve(ctx context.Context, id int64, status workflow.Status, approvedAmount decimal.Decimal, clearStep bool) error

	ListByEmployee(ctx context.Context, employeeID int64) ([]*entity.Expense, error)
	GetForEmployee(ctx context.Context, id, employeeID int64) (*entity.Expense, error)
	ListPendingByCompany(ctx context.Context, companyID int64) ([]*entity.PendingExpense, error)
	ListApprovedReport(ctx context.Context, companyID int64) ([]*entity.ExpenseReportRow, error)

	// SumByEmployee totals an employee's expenses per status
	SumByEmployee(ctx context.Context, employeeID int64) (*entity.EmployeeKPIs, error)

	// SumTeamPending totals pending amounts of a manager's direct reports
	SumTeamPending(ctx context.Context, managerID int64) (decimal.Decimal, error)

	// SumTeamApproved totals approved amounts of direct reports created in [from, to)
	SumTeamApproved(ctx context.Context, managerID int64, from, to time.Time) (decimal.Decimal, error)

	// TopSpenders ranks direct reports by approved amount created in [from, to)
	TopSpenders(ctx context.Context, managerID int64, from, to time.Time, limit int) ([]*entity.TopSpender, error)
}

// ApprovalRuleRepository defines persistence operations for rules and their steps
type ApprovalRuleRepository interface {
	// Create inserts the rule and all of its steps
	Create(ctx context.Context, rule *entity.ApprovalRule) error
	ListByCompany(ctx context.Context, companyID int64) ([]*entity.ApprovalRule, error)

	// FirstSequentialRule returns the company's first SEQUENTIAL rule
	FirstSequentialRule(ctx context.Context, companyID int64) (*entity.ApprovalRule, error)

	// FirstStep returns the step with the lowest step_sequence of a rule
	FirstStep(ctx context.Context, ruleID int64) (*entity.ApprovalStep, error)
	GetStep(ctx context.Context, stepID int64) (*entity.ApprovalStep, error)

	// NextStep returns the step of ruleID with the smallest step_sequence greater than after
	NextStep(ctx context.Context, ruleID int64, after int) (*entity.ApprovalStep, error)
}

// ApprovalHistoryRepository defines operations on the append-only approval ledger
type ApprovalHistoryRepository interface {
	Append(ctx context.Context, entry *entity.ApprovalHistory) error
	CountByApprover(ctx context.Context, expenseID, approverID int64) (int, error)
	CountByAction(ctx context.Context, expenseID int64, action workflow.Action) (int, error)
	ListByExpense(ctx context.Context, expenseID int64) ([]*entity.ApprovalHistory, error)

	// ApproverNames returns the names of approvers per expense, in action order
	ApproverNames(ctx context.Context, expenseIDs []int64) (map[int64][]string, error)

	// RecentByApprover returns the latest actions of an approver
	RecentByApprover(ctx context.Context, approverID int64, limit int) ([]*entity.ProcessedExpense, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
