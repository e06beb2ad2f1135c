package service

import (
	"context"
	"fmt"
	"io"

	"github.com/garyjia/expense-approvals/internal/application/port"
)

// ReportService exports expense reports
type ReportService interface {
	// WriteApprovedExpenses renders the company's approved expenses to w
	WriteApprovedExpenses(ctx context.Context, companyID int64, w io.Writer) error
}

type reportServiceImpl struct {
	expenseRepo port.ExpenseRepository
	companyRepo port.CompanyRepository
	writer      port.ReportWriter
	logger      Logger
}

// NewReportService creates a new ReportService
func NewReportService(
	expenseRepo port.ExpenseRepository,
	companyRepo port.CompanyRepository,
	writer port.ReportWriter,
	logger Logger,
) ReportService {
	return &reportServiceImpl{
		expenseRepo: expenseRepo,
		companyRepo: companyRepo,
		writer:      writer,
		logger:      logger,
	}
}

func (s *reportServiceImpl) WriteApprovedExpenses(ctx context.Context, companyID int64, w io.Writer) error {
	company, err := s.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		return fmt.Errorf("failed to get company: %w", err)
	}
	name := ""
	if company != nil {
		name = company.Name
	}

	rows, err := s.expenseRepo.ListApprovedReport(ctx, companyID)
	if err != nil {
		return fmt.Errorf("failed to load approved expenses: %w", err)
	}

	if err := s.writer.WriteApprovedExpenses(w, name, rows); err != nil {
		s.logger.Error("Failed to write expense report", "company_id", companyID, "error", err)
		return fmt.Errorf("failed to write report: %w", err)
	}

	s.logger.Info("Expense report exported", "company_id", companyID, "rows", len(rows))
	return nil
}
