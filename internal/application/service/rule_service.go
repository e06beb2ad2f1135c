package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/garyjia/expense-approvals/internal/application/port"
	"github.com/garyjia/expense-approvals/internal/domain/entity"
	"github.com/garyjia/expense-approvals/pkg/utils"
)

// CreateRuleRequest defines a sequential rule by its step positions
type CreateRuleRequest struct {
	Name          string
	StepSequences []int
}

// RuleService manages a company's approval rules
type RuleService interface {
	Create(ctx context.Context, caller entity.Identity, req CreateRuleRequest) (*entity.ApprovalRule, error)
	List(ctx context.Context, companyID int64) ([]*entity.ApprovalRule, error)
}

type ruleServiceImpl struct {
	ruleRepo  port.ApprovalRuleRepository
	txManager port.TransactionManager
	logger    Logger
}

// NewRuleService creates a new RuleService
func NewRuleService(ruleRepo port.ApprovalRuleRepository, txManager port.TransactionManager, logger Logger) RuleService {
	return &ruleServiceImpl{
		ruleRepo:  ruleRepo,
		txManager: txManager,
		logger:    logger,
	}
}

// Create stores a SEQUENTIAL rule for the caller's company. Step positions
// must be positive and distinct; they are stored in ascending order.
func (s *ruleServiceImpl) Create(ctx context.Context, caller entity.Identity, req CreateRuleRequest) (*entity.ApprovalRule, error) {
	if caller.Role != entity.RoleAdmin {
		return nil, fmt.Errorf("%w: only admins can manage approval rules", ErrForbidden)
	}

	steps, err := orderedSteps(req.StepSequences)
	if err != nil {
		return nil, err
	}

	rule := &entity.ApprovalRule{
		CompanyID: caller.CompanyID,
		Name:      utils.SanitizeString(req.Name),
		RuleType:  entity.RuleTypeSequential,
		Steps:     steps,
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.ruleRepo.Create(txCtx, rule)
	})
	if err != nil {
		s.logger.Error("Failed to create approval rule", "company_id", caller.CompanyID, "error", err)
		return nil, fmt.Errorf("failed to create approval rule: %w", err)
	}

	s.logger.Info("Approval rule created", "rule_id", rule.ID, "steps", len(rule.Steps))
	return rule, nil
}

func orderedSteps(sequences []int) ([]entity.ApprovalStep, error) {
	if len(sequences) == 0 {
		return nil, validationError("a rule needs at least one step")
	}

	sorted := append([]int(nil), sequences...)
	sort.Ints(sorted)

	steps := make([]entity.ApprovalStep, 0, len(sorted))
	for i, seq := range sorted {
		if seq <= 0 {
			return nil, validationError("step_sequence must be positive, got %d", seq)
		}
		if i > 0 && seq == sorted[i-1] {
			return nil, validationError("duplicate step_sequence %d", seq)
		}
		steps = append(steps, entity.ApprovalStep{StepSequence: seq})
	}
	return steps, nil
}

// List returns the company's rules with their steps
func (s *ruleServiceImpl) List(ctx context.Context, companyID int64) ([]*entity.ApprovalRule, error) {
	rules, err := s.ruleRepo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list approval rules: %w", err)
	}
	return rules, nil
}
