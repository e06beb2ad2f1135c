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

// CompanyRepository implements port.CompanyRepository
type CompanyRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCompanyRepository creates a new company repository
func NewCompanyRepository(db *sql.DB, logger *zap.Logger) port.CompanyRepository {
	return &CompanyRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new company
func (r *CompanyRepository) Create(ctx context.Context, company *entity.Company) error {
	if company.CreatedAt.IsZero() {
		company.CreatedAt = time.Now().UTC()
	}
	if company.DefaultCurrency == "" {
		company.DefaultCurrency = entity.DefaultCurrency
	}

	result, err := r.getExecutor(ctx).ExecContext(ctx,
		`INSERT INTO companies (name, default_currency, created_at) VALUES (?, ?, ?)`,
		company.Name,
		company.DefaultCurrency,
		company.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create company", zap.String("name", company.Name), zap.Error(err))
		return fmt.Errorf("failed to create company: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	company.ID = id
	return nil
}

// GetByID retrieves a company by ID
func (r *CompanyRepository) GetByID(ctx context.Context, id int64) (*entity.Company, error) {
	var company entity.Company
	err := r.getExecutor(ctx).QueryRowContext(ctx,
		`SELECT id, name, default_currency, created_at FROM companies WHERE id = ?`, id,
	).Scan(&company.ID, &company.Name, &company.DefaultCurrency, &company.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get company", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	return &company, nil
}

func (r *CompanyRepository) getExecutor(ctx context.Context) sqldb.Executor {
	return sqldb.Conn(ctx, r.db)
}

// Verify interface compliance
var _ port.CompanyRepository = (*CompanyRepository)(nil)
