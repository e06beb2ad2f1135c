package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/garyjia/expense-approvals/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportService_WriteApprovedExpenses(t *testing.T) {
	expenses := &mockExpenseRepo{listApprovedReportFunc: func(ctx context.Context, companyID int64) ([]*entity.ExpenseReportRow, error) {
		return []*entity.ExpenseReportRow{{ID: 1}, {ID: 2}}, nil
	}}
	writer := &mockReportWriter{}
	svc := NewReportService(expenses, &mockCompanyRepo{}, writer, &mockLogger{})

	var buf bytes.Buffer
	require.NoError(t, svc.WriteApprovedExpenses(context.Background(), 1, &buf))

	assert.Equal(t, "Acme", writer.company)
	assert.Len(t, writer.rows, 2)
	assert.Equal(t, "report", buf.String())

	writer.err = errors.New("encode failed")
	assert.Error(t, svc.WriteApprovedExpenses(context.Background(), 1, &buf))
}
