package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/expense-approvals/internal/application/port"
	"github.com/garyjia/expense-approvals/internal/domain/entity"
	"github.com/garyjia/expense-approvals/internal/domain/event"
	"github.com/garyjia/expense-approvals/internal/domain/workflow"
	"github.com/shopspring/decimal"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ActionRequest is one manager decision on one expense
type ActionRequest struct {
	ExpenseID      int64
	ApproverID     int64
	Action         string
	Comments       *string
	ApprovedAmount *decimal.Decimal
}

// ActionResult reports the state the expense was left in
type ActionResult struct {
	ExpenseID      int64            `json:"expense_id"`
	Status         workflow.Status  `json:"status"`
	Outcome        workflow.Outcome `json:"outcome"`
	CurrentStepID  *int64           `json:"current_step_id,omitempty"`
	ApprovedAmount *decimal.Decimal `json:"approved_amount,omitempty"`
}

// ApprovalService runs the approval workflow for expenses
type ApprovalService interface {
	// ActionExpense records an Approved or Rejected action and applies the
	// resulting transition in a single transaction.
	ActionExpense(ctx context.Context, req ActionRequest) (*ActionResult, error)
}

type approvalServiceImpl struct {
	expenseRepo port.ExpenseRepository
	ruleRepo    port.ApprovalRuleRepository
	historyRepo port.ApprovalHistoryRepository
	userRepo    port.UserRepository
	txManager   port.TransactionManager
	events      port.EventPublisher
	logger      Logger
	now         func() time.Time
}

// NewApprovalService creates a new ApprovalService
func NewApprovalService(
	expenseRepo port.ExpenseRepository,
	ruleRepo port.ApprovalRuleRepository,
	historyRepo port.ApprovalHistoryRepository,
	userRepo port.UserRepository,
	txManager port.TransactionManager,
	events port.EventPublisher,
	logger Logger,
) ApprovalService {
	return &approvalServiceImpl{
		expenseRepo: expenseRepo,
		ruleRepo:    ruleRepo,
		historyRepo: historyRepo,
		userRepo:    userRepo,
		txManager:   txManager,
		events:      events,
		logger:      logger,
		now:         time.Now,
	}
}

// ActionExpense appends the history entry, then decides and persists the
// transition. Any failure rolls back the history entry as well.
func (s *approvalServiceImpl) ActionExpense(ctx context.Context, req ActionRequest) (*ActionResult, error) {
	action, err := workflow.ParseAction(req.Action)
	if err != nil {
		return nil, err
	}

	var result *ActionResult
	var companyID int64
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		expense, err := s.expenseRepo.GetByID(txCtx, req.ExpenseID)
		if err != nil {
			return workflow.TransactionFailure("load expense", err)
		}
		if expense == nil {
			return fmt.Errorf("%w: id %d", workflow.ErrNotFound, req.ExpenseID)
		}
		companyID = expense.CompanyID

		entry := &entity.ApprovalHistory{
			ExpenseID:  expense.ID,
			ApproverID: req.ApproverID,
			Action:     action,
			Comments:   req.Comments,
			ActionDate: s.now().UTC(),
		}
		if action == workflow.ActionApproved && req.ApprovedAmount != nil {
			entry.StepApprovedAmount = decimal.NewNullDecimal(*req.ApprovedAmount)
		}
		if err := s.historyRepo.Append(txCtx, entry); err != nil {
			return workflow.TransactionFailure("append history", err)
		}

		decision, err := s.decide(txCtx, expense, action, req)
		if err != nil {
			return err
		}

		result, err = s.apply(txCtx, expense, decision)
		return err
	})
	if err != nil && !workflow.IsTransitionError(err) {
		// begin and commit faults from the transaction manager
		err = workflow.TransactionFailure("commit", err)
	}
	if err != nil {
		if !errors.Is(err, workflow.ErrDuplicateAction) && !errors.Is(err, workflow.ErrNotFound) {
			s.logger.Error("Failed to action expense",
				"expense_id", req.ExpenseID,
				"approver_id", req.ApproverID,
				"action", action,
				"error", err)
		}
		return nil, err
	}

	s.logger.Info("Expense actioned",
		"expense_id", req.ExpenseID,
		"approver_id", req.ApproverID,
		"action", action,
		"outcome", result.Outcome,
		"status", result.Status)

	s.events.DispatchAsync(ctx, actionEvent(companyID, req.ApproverID, action, result))

	return result, nil
}

var outcomeEvents = map[workflow.Outcome]event.Type{
	workflow.OutcomeAdvanced: event.TypeExpenseAdvanced,
	workflow.OutcomeAwaiting: event.TypeExpenseAwaiting,
	workflow.OutcomeApproved: event.TypeExpenseApproved,
	workflow.OutcomeRejected: event.TypeExpenseRejected,
}

func actionEvent(companyID, approverID int64, action workflow.Action, result *ActionResult) *event.Event {
	payload := map[string]interface{}{
		"action": string(action),
		"status": string(result.Status),
	}
	if result.ApprovedAmount != nil {
		payload["approved_amount"] = result.ApprovedAmount.StringFixed(2)
	}
	return event.NewEvent(outcomeEvents[result.Outcome], companyID, result.ExpenseID, approverID, payload)
}

// decide runs the transition for the expense's policy
func (s *approvalServiceImpl) decide(ctx context.Context, expense *entity.Expense, action workflow.Action, req ActionRequest) (workflow.Decision, error) {
	if action == workflow.ActionRejected {
		return workflow.DecideRejection(), nil
	}

	switch policy := expense.Policy().(type) {
	case workflow.Sequential:
		// Off the step graph (resolved, or rejected earlier) the company's
		// managers decide as a quorum.
		if policy.CurrentStepID == nil {
			return s.decideQuorum(ctx, expense, req)
		}
		return s.decideSequential(ctx, policy, req.ApprovedAmount)
	case workflow.Quorum:
		return s.decideQuorum(ctx, expense, req)
	default:
		return workflow.Decision{}, workflow.TransactionFailure("select policy",
			fmt.Errorf("unknown policy %T", policy))
	}
}

func (s *approvalServiceImpl) decideSequential(ctx context.Context, policy workflow.Sequential, requested *decimal.Decimal) (workflow.Decision, error) {
	current, err := s.ruleRepo.GetStep(ctx, *policy.CurrentStepID)
	if err != nil {
		return workflow.Decision{}, workflow.TransactionFailure("load current step", err)
	}
	if current == nil {
		return workflow.Decision{}, workflow.TransactionFailure("load current step",
			fmt.Errorf("step %d does not exist", *policy.CurrentStepID))
	}

	next, err := s.ruleRepo.NextStep(ctx, policy.RuleID, current.StepSequence)
	if err != nil {
		return workflow.Decision{}, workflow.TransactionFailure("find next step", err)
	}

	var nextID *int64
	if next != nil {
		nextID = &next.ID
	}
	return workflow.DecideSequential(nextID, requested), nil
}

func (s *approvalServiceImpl) decideQuorum(ctx context.Context, expense *entity.Expense, req ActionRequest) (workflow.Decision, error) {
	actorEntries, err := s.historyRepo.CountByApprover(ctx, expense.ID, req.ApproverID)
	if err != nil {
		return workflow.Decision{}, workflow.TransactionFailure("count approver entries", err)
	}
	// Checked before the tallies so a repeat never reaches the counts below.
	if actorEntries > 1 {
		return workflow.DecideQuorum(workflow.QuorumTally{ActorEntries: actorEntries}, req.ApprovedAmount)
	}

	required, err := s.userRepo.CountByRole(ctx, expense.CompanyID, entity.RoleManager)
	if err != nil {
		return workflow.Decision{}, workflow.TransactionFailure("count managers", err)
	}

	approvals, err := s.historyRepo.CountByAction(ctx, expense.ID, workflow.ActionApproved)
	if err != nil {
		return workflow.Decision{}, workflow.TransactionFailure("count approvals", err)
	}

	return workflow.DecideQuorum(workflow.QuorumTally{
		ActorEntries: actorEntries,
		Approvals:    approvals,
		Required:     required,
	}, req.ApprovedAmount)
}

// apply persists the decision inside the caller's transaction
func (s *approvalServiceImpl) apply(ctx context.Context, expense *entity.Expense, d workflow.Decision) (*ActionResult, error) {
	result := &ActionResult{
		ExpenseID: expense.ID,
		Status:    d.Status,
		Outcome:   d.Outcome,
	}

	switch {
	case d.NextStepID != nil:
		if err := s.expenseRepo.AdvanceStep(ctx, expense.ID, *d.NextStepID); err != nil {
			return nil, workflow.TransactionFailure("advance step", err)
		}
		result.Status = expense.Status
		result.CurrentStepID = d.NextStepID

	case d.Resolves():
		amount := d.ApprovedAmount
		if d.UseOriginalAmount {
			fresh, err := s.expenseRepo.GetAmount(ctx, expense.ID)
			if err != nil {
				return nil, workflow.TransactionFailure("read original amount", err)
			}
			amount = fresh
		}
		if err := s.expenseRepo.Resolve(ctx, expense.ID, d.Status, amount, d.ClearStep); err != nil {
			return nil, workflow.TransactionFailure("resolve expense", err)
		}
		result.ApprovedAmount = &amount

	default:
		// Awaiting quorum leaves the stored status untouched.
		result.Status = expense.Status
		result.CurrentStepID = expense.CurrentStepID
	}

	return result, nil
}
