package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/expense-approvals/internal/application/port"
	"github.com/garyjia/expense-approvals/internal/domain/entity"
	"github.com/garyjia/expense-approvals/internal/domain/event"
	"github.com/garyjia/expense-approvals/internal/domain/workflow"
	"github.com/garyjia/expense-approvals/pkg/utils"
	"github.com/shopspring/decimal"
)

// ExpenseDateLayout is the wire format of expense dates
const ExpenseDateLayout = "2006-01-02"

// SubmitExpenseRequest is an employee's new claim
type SubmitExpenseRequest struct {
	Category    string
	Description string
	Amount      decimal.Decimal
	Currency    string
	ExpenseDate string
}

// ExpenseService manages an employee's own expenses
type ExpenseService interface {
	// Submit stores a pending expense and assigns its approval policy
	Submit(ctx context.Context, caller entity.Identity, req SubmitExpenseRequest) (*entity.Expense, error)
	ListMine(ctx context.Context, employeeID int64) ([]*entity.Expense, error)
	GetDetail(ctx context.Context, id, employeeID int64) (*entity.ExpenseDetail, error)
	KPIs(ctx context.Context, employeeID int64) (*entity.EmployeeKPIs, error)
}

type expenseServiceImpl struct {
	expenseRepo port.ExpenseRepository
	ruleRepo    port.ApprovalRuleRepository
	historyRepo port.ApprovalHistoryRepository
	txManager   port.TransactionManager
	events      port.EventPublisher
	logger      Logger
}

// NewExpenseService creates a new ExpenseService
func NewExpenseService(
	expenseRepo port.ExpenseRepository,
	ruleRepo port.ApprovalRuleRepository,
	historyRepo port.ApprovalHistoryRepository,
	txManager port.TransactionManager,
	events port.EventPublisher,
	logger Logger,
) ExpenseService {
	return &expenseServiceImpl{
		expenseRepo: expenseRepo,
		ruleRepo:    ruleRepo,
		historyRepo: historyRepo,
		txManager:   txManager,
		events:      events,
		logger:      logger,
	}
}

// Submit validates the claim and stores it. The company's first sequential
// rule with at least one step makes the expense Sequential, otherwise it
// is approved by quorum.
func (s *expenseServiceImpl) Submit(ctx context.Context, caller entity.Identity, req SubmitExpenseRequest) (*entity.Expense, error) {
	expense, err := newExpense(caller, req)
	if err != nil {
		return nil, err
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		policy, err := s.assignPolicy(txCtx, caller.CompanyID)
		if err != nil {
			return err
		}
		expense.ApplyPolicy(policy)

		return s.expenseRepo.Create(txCtx, expense)
	})
	if err != nil {
		s.logger.Error("Failed to submit expense", "employee_id", caller.UserID, "error", err)
		return nil, fmt.Errorf("failed to submit expense: %w", err)
	}

	s.logger.Info("Expense submitted",
		"expense_id", expense.ID,
		"employee_id", caller.UserID,
		"policy", expense.PolicyKind)

	s.events.DispatchAsync(ctx, event.NewEvent(event.TypeExpenseSubmitted,
		expense.CompanyID, expense.ID, caller.UserID,
		map[string]interface{}{
			"amount":   expense.Amount.StringFixed(2),
			"currency": expense.Currency,
			"policy":   string(expense.PolicyKind),
		}))

	return expense, nil
}

func newExpense(caller entity.Identity, req SubmitExpenseRequest) (*entity.Expense, error) {
	if err := utils.ValidateAmount(req.Amount); err != nil {
		return nil, validationError("%v", err)
	}

	currency := utils.NormalizeCurrencyCode(req.Currency)
	if err := utils.ValidateCurrencyCode(currency); err != nil {
		return nil, validationError("%v", err)
	}

	date, err := time.Parse(ExpenseDateLayout, strings.TrimSpace(req.ExpenseDate))
	if err != nil {
		return nil, validationError("expense_date must be YYYY-MM-DD")
	}

	return &entity.Expense{
		EmployeeID:  caller.UserID,
		CompanyID:   caller.CompanyID,
		Category:    utils.SanitizeString(req.Category),
		Description: utils.SanitizeString(req.Description),
		Amount:      req.Amount,
		Currency:    currency,
		ExpenseDate: date,
		Status:      workflow.StatusPending,
	}, nil
}

func (s *expenseServiceImpl) assignPolicy(ctx context.Context, companyID int64) (workflow.Policy, error) {
	rule, err := s.ruleRepo.FirstSequentialRule(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return workflow.Quorum{}, nil
	}

	step, err := s.ruleRepo.FirstStep(ctx, rule.ID)
	if err != nil {
		return nil, err
	}
	if step == nil {
		return workflow.Quorum{}, nil
	}

	stepID := step.ID
	return workflow.Sequential{RuleID: rule.ID, CurrentStepID: &stepID}, nil
}

// ListMine returns the caller's expenses
func (s *expenseServiceImpl) ListMine(ctx context.Context, employeeID int64) ([]*entity.Expense, error) {
	expenses, err := s.expenseRepo.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	return expenses, nil
}

// GetDetail returns one of the caller's expenses with its approval history
func (s *expenseServiceImpl) GetDetail(ctx context.Context, id, employeeID int64) (*entity.ExpenseDetail, error) {
	expense, err := s.expenseRepo.GetForEmployee(ctx, id, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	if expense == nil {
		return nil, fmt.Errorf("%w: id %d", workflow.ErrNotFound, id)
	}

	history, err := s.historyRepo.ListByExpense(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense history: %w", err)
	}

	return &entity.ExpenseDetail{Expense: *expense, History: history}, nil
}

// KPIs returns the caller's totals per status
func (s *expenseServiceImpl) KPIs(ctx context.Context, employeeID int64) (*entity.EmployeeKPIs, error) {
	kpis, err := s.expenseRepo.SumByEmployee(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get employee KPIs: %w", err)
	}
	return kpis, nil
}
