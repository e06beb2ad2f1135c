package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/expense-approvals/internal/application/port"
	"github.com/garyjia/expense-approvals/internal/domain/entity"
	"github.com/garyjia/expense-approvals/internal/infrastructure/persistence/sqldb"
	"go.uber.org/zap"
)

// ApprovalRuleRepository implements port.ApprovalRuleRepository
type ApprovalRuleRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewApprovalRuleRepository creates a new approval rule repository
func NewApprovalRuleRepository(db *sql.DB, logger *zap.Logger) port.ApprovalRuleRepository {
	return &ApprovalRuleRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts the rule and its steps. Callers wrap it in a transaction
// when the rule and steps must land together.
func (r *ApprovalRuleRepository) Create(ctx context.Context, rule *entity.ApprovalRule) error {
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = time.Now().UTC()
	}
	if rule.RuleType == "" {
		rule.RuleType = entity.RuleTypeSequential
	}

	exec := r.getExecutor(ctx)
	result, err := exec.ExecContext(ctx,
		`INSERT INTO approval_rules (company_id, name, rule_type, created_at) VALUES (?, ?, ?, ?)`,
		rule.CompanyID, rule.Name, rule.RuleType, rule.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create approval rule", zap.Int64("company_id", rule.CompanyID), zap.Error(err))
		return fmt.Errorf("failed to create approval rule: %w", err)
	}

	ruleID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	rule.ID = ruleID

	for i := range rule.Steps {
		step := &rule.Steps[i]
		step.RuleID = ruleID

		result, err := exec.ExecContext(ctx,
			`INSERT INTO approval_steps (rule_id, step_sequence) VALUES (?, ?)`,
			ruleID, step.StepSequence,
		)
		if err != nil {
			r.logger.Error("Failed to create approval step",
				zap.Int64("rule_id", ruleID),
				zap.Int("step_sequence", step.StepSequence),
				zap.Error(err))
			return fmt.Errorf("failed to create approval step: %w", err)
		}
		if step.ID, err = result.LastInsertId(); err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
	}

	return nil
}

// ListByCompany returns the company's rules with their steps in sequence order
func (r *ApprovalRuleRepository) ListByCompany(ctx context.Context, companyID int64) ([]*entity.ApprovalRule, error) {
	rows, err := r.getExecutor(ctx).QueryContext(ctx, `
		SELECT id, company_id, name, rule_type, created_at
		FROM approval_rules
		WHERE company_id = ?
		ORDER BY id ASC
	`, companyID)
	if err != nil {
		r.logger.Error("Failed to list approval rules", zap.Int64("company_id", companyID), zap.Error(err))
		return nil, fmt.Errorf("failed to list approval rules: %w", err)
	}
	defer rows.Close()

	rules := []*entity.ApprovalRule{}
	byID := make(map[int64]*entity.ApprovalRule)
	for rows.Next() {
		var rule entity.ApprovalRule
		if err := rows.Scan(&rule.ID, &rule.CompanyID, &rule.Name, &rule.RuleType, &rule.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan approval rule: %w", err)
		}
		rule.Steps = []entity.ApprovalStep{}
		rules = append(rules, &rule)
		byID[rule.ID] = &rule
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return rules, nil
	}

	stepRows, err := r.getExecutor(ctx).QueryContext(ctx, `
		SELECT s.id, s.rule_id, s.step_sequence
		FROM approval_steps s
		JOIN approval_rules ar ON ar.id = s.rule_id
		WHERE ar.company_id = ?
		ORDER BY s.rule_id ASC, s.step_sequence ASC
	`, companyID)
	if err != nil {
		r.logger.Error("Failed to list approval steps", zap.Int64("company_id", companyID), zap.Error(err))
		return nil, fmt.Errorf("failed to list approval steps: %w", err)
	}
	defer stepRows.Close()

	for stepRows.Next() {
		var step entity.ApprovalStep
		if err := stepRows.Scan(&step.ID, &step.RuleID, &step.StepSequence); err != nil {
			return nil, fmt.Errorf("failed to scan approval step: %w", err)
		}
		if rule, ok := byID[step.RuleID]; ok {
			rule.Steps = append(rule.Steps, step)
		}
	}

	return rules, stepRows.Err()
}

// FirstSequentialRule returns the company's earliest SEQUENTIAL rule
func (r *ApprovalRuleRepository) FirstSequentialRule(ctx context.Context, companyID int64) (*entity.ApprovalRule, error) {
	var rule entity.ApprovalRule
	err := r.getExecutor(ctx).QueryRowContext(ctx, `
		SELECT id, company_id, name, rule_type, created_at
		FROM approval_rules
		WHERE company_id = ? AND rule_type = ?
		ORDER BY id ASC
		LIMIT 1
	`, companyID, entity.RuleTypeSequential).Scan(&rule.ID, &rule.CompanyID, &rule.Name, &rule.RuleType, &rule.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get sequential rule", zap.Int64("company_id", companyID), zap.Error(err))
		return nil, fmt.Errorf("failed to get sequential rule: %w", err)
	}

	return &rule, nil
}

// FirstStep returns the lowest step_sequence step of a rule
func (r *ApprovalRuleRepository) FirstStep(ctx context.Context, ruleID int64) (*entity.ApprovalStep, error) {
	return r.queryStep(ctx, `
		SELECT id, rule_id, step_sequence
		FROM approval_steps
		WHERE rule_id = ?
		ORDER BY step_sequence ASC
		LIMIT 1
	`, ruleID)
}

// GetStep retrieves a step by ID
func (r *ApprovalRuleRepository) GetStep(ctx context.Context, stepID int64) (*entity.ApprovalStep, error) {
	return r.queryStep(ctx, `SELECT id, rule_id, step_sequence FROM approval_steps WHERE id = ?`, stepID)
}

// NextStep returns the step following sequence position after, or nil on the last step
func (r *ApprovalRuleRepository) NextStep(ctx context.Context, ruleID int64, after int) (*entity.ApprovalStep, error) {
	return r.queryStep(ctx, `
		SELECT id, rule_id, step_sequence
		FROM approval_steps
		WHERE rule_id = ? AND step_sequence > ?
		ORDER BY step_sequence ASC
		LIMIT 1
	`, ruleID, after)
}

func (r *ApprovalRuleRepository) queryStep(ctx context.Context, query string, args ...interface{}) (*entity.ApprovalStep, error) {
	var step entity.ApprovalStep
	err := r.getExecutor(ctx).QueryRowContext(ctx, query, args...).Scan(&step.ID, &step.RuleID, &step.StepSequence)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get approval step", zap.Any("args", args), zap.Error(err))
		return nil, fmt.Errorf("failed to get approval step: %w", err)
	}
	return &step, nil
}

func (r *ApprovalRuleRepository) getExecutor(ctx context.Context) sqldb.Executor {
	return sqldb.Conn(ctx, r.db)
}

// Verify interface compliance
var _ port.ApprovalRuleRepository = (*ApprovalRuleRepository)(nil)
