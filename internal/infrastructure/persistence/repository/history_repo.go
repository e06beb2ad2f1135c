package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/expense-approvals/internal/application/port"
	"github.com/garyjia/expense-approvals/internal/domain/entity"
	"github.com/garyjia/expense-approvals/internal/domain/workflow"
	"github.com/garyjia/expense-approvals/internal/infrastructure/persistence/sqldb"
	"go.uber.org/zap"
)

// HistoryRepository implements port.ApprovalHistoryRepository
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sql.DB, logger *zap.Logger) port.ApprovalHistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Append inserts a ledger row. Rows are never updated or deleted.
func (r *HistoryRepository) Append(ctx context.Context, entry *entity.ApprovalHistory) error {
	if entry.ActionDate.IsZero() {
		entry.ActionDate = time.Now().UTC()
	}

	query := `
		INSERT INTO approval_history (
			expense_id, approver_id, action, step_approved_amount, comments, action_date
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.getExecutor(ctx).ExecContext(ctx, query,
		entry.ExpenseID,
		entry.ApproverID,
		string(entry.Action),
		entry.StepApprovedAmount,
		entry.Comments,
		entry.ActionDate,
	)
	if err != nil {
		r.logger.Error("Failed to append approval history",
			zap.Int64("expense_id", entry.ExpenseID),
			zap.Int64("approver_id", entry.ApproverID),
			zap.Error(err))
		return fmt.Errorf("failed to append history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	entry.ID = id
	return nil
}

// CountByApprover counts the rows an approver has on an expense
func (r *HistoryRepository) CountByApprover(ctx context.Context, expenseID, approverID int64) (int, error) {
	var count int
	err := r.getExecutor(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM approval_history WHERE expense_id = ? AND approver_id = ?`,
		expenseID, approverID,
	).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count history by approver", zap.Int64("expense_id", expenseID), zap.Error(err))
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return count, nil
}

// CountByAction counts the rows of an expense carrying action
func (r *HistoryRepository) CountByAction(ctx context.Context, expenseID int64, action workflow.Action) (int, error) {
	var count int
	err := r.getExecutor(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM approval_history WHERE expense_id = ? AND action = ?`,
		expenseID, string(action),
	).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count history by action", zap.Int64("expense_id", expenseID), zap.Error(err))
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return count, nil
}

// ListByExpense returns the ledger of an expense, oldest first
func (r *HistoryRepository) ListByExpense(ctx context.Context, expenseID int64) ([]*entity.ApprovalHistory, error) {
	query := `
		SELECT ah.id, ah.expense_id, ah.approver_id, u.name, ah.action,
			ah.step_approved_amount, ah.comments, ah.action_date
		FROM approval_history ah
		JOIN users u ON u.id = ah.approver_id
		WHERE ah.expense_id = ?
		ORDER BY ah.action_date ASC, ah.id ASC
	`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, expenseID)
	if err != nil {
		r.logger.Error("Failed to get history by expense ID", zap.Int64("expense_id", expenseID), zap.Error(err))
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	records := []*entity.ApprovalHistory{}
	for rows.Next() {
		var (
			record   entity.ApprovalHistory
			action   string
			comments sql.NullString
		)
		err := rows.Scan(
			&record.ID,
			&record.ExpenseID,
			&record.ApproverID,
			&record.ApproverName,
			&action,
			&record.StepApprovedAmount,
			&comments,
			&record.ActionDate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		record.Action = workflow.Action(action)
		if comments.Valid {
			c := comments.String
			record.Comments = &c
		}
		records = append(records, &record)
	}

	return records, rows.Err()
}

// ApproverNames returns, per expense, the names of the users who approved it
func (r *HistoryRepository) ApproverNames(ctx context.Context, expenseIDs []int64) (map[int64][]string, error) {
	names := make(map[int64][]string)
	if len(expenseIDs) == 0 {
		return names, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(expenseIDs)), ",")
	args := make([]interface{}, 0, len(expenseIDs)+1)
	args = append(args, string(workflow.ActionApproved))
	for _, id := range expenseIDs {
		args = append(args, id)
	}

	query := `
		SELECT ah.expense_id, u.name
		FROM approval_history ah
		JOIN users u ON u.id = ah.approver_id
		WHERE ah.action = ? AND ah.expense_id IN (` + placeholders + `)
		ORDER BY ah.expense_id ASC, ah.action_date ASC, ah.id ASC
	`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to get approver names", zap.Int("expenses", len(expenseIDs)), zap.Error(err))
		return nil, fmt.Errorf("failed to get approver names: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			expenseID int64
			name      string
		)
		if err := rows.Scan(&expenseID, &name); err != nil {
			return nil, fmt.Errorf("failed to scan approver name: %w", err)
		}
		names[expenseID] = append(names[expenseID], name)
	}

	return names, rows.Err()
}

// RecentByApprover returns the latest actions taken by an approver
func (r *HistoryRepository) RecentByApprover(ctx context.Context, approverID int64, limit int) ([]*entity.ProcessedExpense, error) {
	query := `
		SELECT e.id, e.description, u.name, ah.action, ah.action_date
		FROM approval_history ah
		JOIN expenses e ON e.id = ah.expense_id
		JOIN users u ON u.id = e.employee_id
		WHERE ah.approver_id = ?
		ORDER BY ah.action_date DESC, ah.id DESC
		LIMIT ?
	`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, approverID, limit)
	if err != nil {
		r.logger.Error("Failed to get recent actions", zap.Int64("approver_id", approverID), zap.Error(err))
		return nil, fmt.Errorf("failed to get recent actions: %w", err)
	}
	defer rows.Close()

	processed := []*entity.ProcessedExpense{}
	for rows.Next() {
		var p entity.ProcessedExpense
		if err := rows.Scan(&p.ID, &p.Description, &p.EmployeeName, &p.Action, &p.ActionDate); err != nil {
			return nil, fmt.Errorf("failed to scan processed expense: %w", err)
		}
		processed = append(processed, &p)
	}

	return processed, rows.Err()
}

func (r *HistoryRepository) getExecutor(ctx context.Context) sqldb.Executor {
	return sqldb.Conn(ctx, r.db)
}

// Verify interface compliance
var _ port.ApprovalHistoryRepository = (*HistoryRepository)(nil)
