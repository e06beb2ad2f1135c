package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/expense-approvals/internal/application/port"
	"github.com/garyjia/expense-approvals/internal/domain/entity"
	"github.com/garyjia/expense-approvals/internal/domain/workflow"
	"github.com/garyjia/expense-approvals/internal/infrastructure/persistence/sqldb"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const expenseColumns = `
	id, employee_id, company_id, category, description, amount, currency,
	expense_date, status, approved_amount, policy, rule_id, current_step_id,
	created_at, updated_at`

// ExpenseRepository implements port.ExpenseRepository
type ExpenseRepository struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *sql.DB, logger *zap.Logger) port.ExpenseRepository {
	return &ExpenseRepository{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create creates a new expense with its workflow policy
func (r *ExpenseRepository) Create(ctx context.Context, expense *entity.Expense) error {
	now := r.now()
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = now
	}
	expense.UpdatedAt = expense.CreatedAt
	if expense.Status == "" {
		expense.Status = workflow.StatusPending
	}

	query := `
		INSERT INTO expenses (
			employee_id, company_id, category, description, amount, currency,
			expense_date, status, policy, rule_id, current_step_id,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.getExecutor(ctx).ExecContext(ctx, query,
		expense.EmployeeID,
		expense.CompanyID,
		expense.Category,
		expense.Description,
		expense.Amount,
		expense.Currency,
		expense.ExpenseDate,
		string(expense.Status),
		string(expense.PolicyKind),
		expense.RuleID,
		expense.CurrentStepID,
		expense.CreatedAt,
		expense.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create expense", zap.Int64("employee_id", expense.EmployeeID), zap.Error(err))
		return fmt.Errorf("failed to create expense: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	expense.ID = id
	return nil
}

// GetByID retrieves an expense by ID
func (r *ExpenseRepository) GetByID(ctx context.Context, id int64) (*entity.Expense, error) {
	row := r.getExecutor(ctx).QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)

	expense, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get expense", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return expense, nil
}

// GetForEmployee retrieves an expense only if employeeID submitted it
func (r *ExpenseRepository) GetForEmployee(ctx context.Context, id, employeeID int64) (*entity.Expense, error) {
	row := r.getExecutor(ctx).QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ? AND employee_id = ?`, id, employeeID)

	expense, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get employee expense",
			zap.Int64("id", id),
			zap.Int64("employee_id", employeeID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return expense, nil
}

// GetAmount reads the persisted original amount
func (r *ExpenseRepository) GetAmount(ctx context.Context, id int64) (decimal.Decimal, error) {
	var amount decimal.Decimal
	err := r.getExecutor(ctx).QueryRowContext(ctx,
		`SELECT amount FROM expenses WHERE id = ?`, id,
	).Scan(&amount)
	if err != nil {
		r.logger.Error("Failed to read expense amount", zap.Int64("id", id), zap.Error(err))
		return decimal.Zero, fmt.Errorf("failed to read expense amount: %w", err)
	}
	return amount, nil
}

// AdvanceStep moves a sequential expense to stepID
func (r *ExpenseRepository) AdvanceStep(ctx context.Context, id, stepID int64) error {
	return r.update(ctx, id,
		`UPDATE expenses SET current_step_id = ?, updated_at = ? WHERE id = ?`,
		stepID, r.now(), id)
}

// Resolve writes a final status and approved amount
func (r *ExpenseRepository) Resolve(ctx context.Context, id int64, status workflow.Status, approvedAmount decimal.Decimal, clearStep bool) error {
	if clearStep {
		return r.update(ctx, id,
			`UPDATE expenses SET status = ?, approved_amount = ?, current_step_id = NULL, updated_at = ? WHERE id = ?`,
			string(status), approvedAmount, r.now(), id)
	}
	return r.update(ctx, id,
		`UPDATE expenses SET status = ?, approved_amount = ?, updated_at = ? WHERE id = ?`,
		string(status), approvedAmount, r.now(), id)
}

func (r *ExpenseRepository) update(ctx context.Context, id int64, query string, args ...interface{}) error {
	result, err := r.getExecutor(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to update expense", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to update expense: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("expense not found: %d", id)
	}
	return nil
}

// ListByEmployee returns an employee's expenses, newest expense date first
func (r *ExpenseRepository) ListByEmployee(ctx context.Context, employeeID int64) ([]*entity.Expense, error) {
	rows, err := r.getExecutor(ctx).QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE employee_id = ? ORDER BY expense_date DESC, id DESC`,
		employeeID)
	if err != nil {
		r.logger.Error("Failed to list expenses", zap.Int64("employee_id", employeeID), zap.Error(err))
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	expenses := []*entity.Expense{}
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}

	return expenses, rows.Err()
}

// ListPendingByCompany returns the company's pending expenses with employee names
func (r *ExpenseRepository) ListPendingByCompany(ctx context.Context, companyID int64) ([]*entity.PendingExpense, error) {
	query := `
		SELECT e.id, e.description, e.amount, e.currency, e.expense_date, e.category, u.name
		FROM expenses e
		JOIN users u ON u.id = e.employee_id
		WHERE e.company_id = ? AND e.status = ?
		ORDER BY e.id ASC
	`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, companyID, string(workflow.StatusPending))
	if err != nil {
		r.logger.Error("Failed to list pending expenses", zap.Int64("company_id", companyID), zap.Error(err))
		return nil, fmt.Errorf("failed to list pending expenses: %w", err)
	}
	defer rows.Close()

	pending := []*entity.PendingExpense{}
	for rows.Next() {
		var p entity.PendingExpense
		if err := rows.Scan(&p.ID, &p.Description, &p.Amount, &p.Currency, &p.ExpenseDate, &p.Category, &p.EmployeeName); err != nil {
			return nil, fmt.Errorf("failed to scan pending expense: %w", err)
		}
		pending = append(pending, &p)
	}

	return pending, rows.Err()
}

// ListApprovedReport returns the company's approved expenses for export
func (r *ExpenseRepository) ListApprovedReport(ctx context.Context, companyID int64) ([]*entity.ExpenseReportRow, error) {
	query := `
		SELECT e.id, u.name, e.category, e.description, e.currency, e.amount,
			e.approved_amount, e.expense_date
		FROM expenses e
		JOIN users u ON u.id = e.employee_id
		WHERE e.company_id = ? AND e.status = ?
		ORDER BY e.expense_date ASC, e.id ASC
	`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, companyID, string(workflow.StatusApproved))
	if err != nil {
		r.logger.Error("Failed to list approved expenses", zap.Int64("company_id", companyID), zap.Error(err))
		return nil, fmt.Errorf("failed to list approved expenses: %w", err)
	}
	defer rows.Close()

	report := []*entity.ExpenseReportRow{}
	for rows.Next() {
		var (
			row      entity.ExpenseReportRow
			approved decimal.NullDecimal
		)
		if err := rows.Scan(
			&row.ID,
			&row.EmployeeName,
			&row.Category,
			&row.Description,
			&row.Currency,
			&row.Amount,
			&approved,
			&row.ExpenseDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		row.ApprovedAmount = approved.Decimal
		report = append(report, &row)
	}

	return report, rows.Err()
}

// SumByEmployee totals an employee's expenses per status. Approved expenses
// count their approved amount, the others their original amount.
func (r *ExpenseRepository) SumByEmployee(ctx context.Context, employeeID int64) (*entity.EmployeeKPIs, error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN status = 'Approved' THEN approved_amount END), 0),
			COALESCE(SUM(CASE WHEN status = 'Pending' THEN amount END), 0),
			COALESCE(SUM(CASE WHEN status = 'Rejected' THEN amount END), 0)
		FROM expenses
		WHERE employee_id = ?
	`

	var kpis entity.EmployeeKPIs
	err := r.getExecutor(ctx).QueryRowContext(ctx, query, employeeID).Scan(
		&kpis.TotalApproved,
		&kpis.TotalPending,
		&kpis.TotalRejected,
	)
	if err != nil {
		r.logger.Error("Failed to sum employee expenses", zap.Int64("employee_id", employeeID), zap.Error(err))
		return nil, fmt.Errorf("failed to sum employee expenses: %w", err)
	}
	return &kpis, nil
}

// SumTeamPending totals the pending amounts of a manager's direct reports
func (r *ExpenseRepository) SumTeamPending(ctx context.Context, managerID int64) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(e.amount), 0)
		FROM expenses e
		JOIN users u ON u.id = e.employee_id
		WHERE u.manager_id = ? AND e.status = ?
	`
	return r.sum(ctx, "pending", query, managerID, string(workflow.StatusPending))
}

// SumTeamApproved totals the amounts of approved direct-report expenses
// created in [from, to)
func (r *ExpenseRepository) SumTeamApproved(ctx context.Context, managerID int64, from, to time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(e.amount), 0)
		FROM expenses e
		JOIN users u ON u.id = e.employee_id
		WHERE u.manager_id = ? AND e.status = ? AND e.created_at >= ? AND e.created_at < ?
	`
	return r.sum(ctx, "approved", query, managerID, string(workflow.StatusApproved), from.UTC(), to.UTC())
}

func (r *ExpenseRepository) sum(ctx context.Context, label, query string, args ...interface{}) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := r.getExecutor(ctx).QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		r.logger.Error("Failed to sum team expenses", zap.String("kind", label), zap.Error(err))
		return decimal.Zero, fmt.Errorf("failed to sum %s expenses: %w", label, err)
	}
	return total, nil
}

// TopSpenders ranks a manager's direct reports by approved amount over
// expenses created in [from, to)
func (r *ExpenseRepository) TopSpenders(ctx context.Context, managerID int64, from, to time.Time, limit int) ([]*entity.TopSpender, error) {
	query := `
		SELECT u.name, COALESCE(SUM(e.approved_amount), 0) AS total_spent
		FROM expenses e
		JOIN users u ON u.id = e.employee_id
		WHERE u.manager_id = ? AND e.status = ? AND e.created_at >= ? AND e.created_at < ?
		GROUP BY e.employee_id, u.name
		ORDER BY total_spent DESC
		LIMIT ?
	`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query,
		managerID, string(workflow.StatusApproved), from.UTC(), to.UTC(), limit)
	if err != nil {
		r.logger.Error("Failed to get top spenders", zap.Int64("manager_id", managerID), zap.Error(err))
		return nil, fmt.Errorf("failed to get top spenders: %w", err)
	}
	defer rows.Close()

	spenders := []*entity.TopSpender{}
	for rows.Next() {
		var s entity.TopSpender
		if err := rows.Scan(&s.EmployeeName, &s.TotalSpent); err != nil {
			return nil, fmt.Errorf("failed to scan top spender: %w", err)
		}
		spenders = append(spenders, &s)
	}

	return spenders, rows.Err()
}

func scanExpense(s rowScanner) (*entity.Expense, error) {
	var (
		e             entity.Expense
		status        string
		policy        string
		ruleID        sql.NullInt64
		currentStepID sql.NullInt64
	)
	if err := s.Scan(
		&e.ID,
		&e.EmployeeID,
		&e.CompanyID,
		&e.Category,
		&e.Description,
		&e.Amount,
		&e.Currency,
		&e.ExpenseDate,
		&status,
		&e.ApprovedAmount,
		&policy,
		&ruleID,
		&currentStepID,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		return nil, err
	}

	e.Status = workflow.Status(status)
	e.PolicyKind = workflow.PolicyKind(policy)
	e.RuleID = nullInt64Ptr(ruleID)
	e.CurrentStepID = nullInt64Ptr(currentStepID)
	return &e, nil
}

func (r *ExpenseRepository) getExecutor(ctx context.Context) sqldb.Executor {
	return sqldb.Conn(ctx, r.db)
}

// Verify interface compliance
var _ port.ExpenseRepository = (*ExpenseRepository)(nil)
