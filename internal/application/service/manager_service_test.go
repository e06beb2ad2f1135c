package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/garyjia/expense-approvals/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingFixture() []*entity.PendingExpense {
	return []*entity.PendingExpense{
		{ID: 1, Amount: decimal.RequireFromString("10.00"), Currency: "EUR", EmployeeName: "Eve"},
		{ID: 2, Amount: decimal.RequireFromString("3.333"), Currency: "EUR", EmployeeName: "Eve"},
		{ID: 3, Amount: decimal.RequireFromString("1000"), Currency: "JPY", EmployeeName: "Bob"},
		{ID: 4, Amount: decimal.RequireFromString("50"), Currency: "USD", EmployeeName: "Bob"},
		{ID: 5, Amount: decimal.RequireFromString("20"), Currency: "GBP", EmployeeName: "Ann"},
	}
}

func TestManagerService_PendingExpenses(t *testing.T) {
	expenses := &mockExpenseRepo{listPendingByCompanyFunc: func(ctx context.Context, companyID int64) ([]*entity.PendingExpense, error) {
		return pendingFixture(), nil
	}}
	history := &mockHistoryRepo{approverNamesFunc: func(ctx context.Context, ids []int64) (map[int64][]string, error) {
		assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids)
		return map[int64][]string{1: {"Max", "Mia"}}, nil
	}}
	rates := &mockRateProvider{
		rates: map[string]map[string]decimal.Decimal{
			"EUR": {"USD": decimal.RequireFromString("1.1")},
			"GBP": {"EUR": decimal.RequireFromString("1.2")},
		},
		errFor: map[string]error{"JPY": errors.New("rate service down")},
	}
	logger := &mockLogger{}
	svc := NewManagerService(expenses, history, &mockCompanyRepo{}, rates, logger)

	result, err := svc.PendingExpenses(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, "USD", result.DefaultCurrency)
	require.Len(t, result.Expenses, 5)

	byID := make(map[int64]*entity.PendingExpense)
	for _, e := range result.Expenses {
		byID[e.ID] = e
	}

	assert.Equal(t, "Max, Mia", byID[1].Approvers)
	assert.Equal(t, "", byID[2].Approvers)

	require.NotNil(t, byID[1].ConvertedAmount)
	assert.Equal(t, "11.00", byID[1].ConvertedAmount.StringFixed(2))
	require.NotNil(t, byID[2].ConvertedAmount)
	assert.True(t, byID[2].ConvertedAmount.Equal(decimal.RequireFromString("3.67")), byID[2].ConvertedAmount.String())

	assert.Nil(t, byID[3].ConvertedAmount, "failed lookup degrades to no conversion")
	assert.Nil(t, byID[4].ConvertedAmount, "default currency is not converted")
	assert.Nil(t, byID[5].ConvertedAmount, "missing target rate")

	assert.Equal(t, 1, rates.calls["EUR"], "one lookup per currency per request")
	assert.Equal(t, 1, rates.calls["JPY"])
	assert.Zero(t, rates.calls["USD"])
	assert.Equal(t, 1, logger.warnings)
}

func TestManagerService_PendingExpensesCompanyCurrency(t *testing.T) {
	expenses := &mockExpenseRepo{listPendingByCompanyFunc: func(ctx context.Context, companyID int64) ([]*entity.PendingExpense, error) {
		return pendingFixture(), nil
	}}
	companies := &mockCompanyRepo{getByIDFunc: func(ctx context.Context, id int64) (*entity.Company, error) {
		return &entity.Company{ID: id, DefaultCurrency: "EUR"}, nil
	}}
	rates := &mockRateProvider{rates: map[string]map[string]decimal.Decimal{
		"GBP": {"EUR": decimal.RequireFromString("1.2")},
		"USD": {"EUR": decimal.RequireFromString("0.9")},
	}}
	svc := NewManagerService(expenses, &mockHistoryRepo{}, companies, rates, &mockLogger{})

	result, err := svc.PendingExpenses(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, "EUR", result.DefaultCurrency)
	assert.Nil(t, result.Expenses[0].ConvertedAmount)
	assert.Equal(t, "45.00", result.Expenses[3].ConvertedAmount.StringFixed(2))
	assert.Equal(t, "24.00", result.Expenses[4].ConvertedAmount.StringFixed(2))
}

func TestManagerService_KPIsUseCurrentMonth(t *testing.T) {
	var gotFrom, gotTo time.Time
	expenses := &mockExpenseRepo{
		sumTeamPendingFunc: func(ctx context.Context, managerID int64) (decimal.Decimal, error) {
			return decimal.NewFromInt(70), nil
		},
		sumTeamApprovedFunc: func(ctx context.Context, managerID int64, from, to time.Time) (decimal.Decimal, error) {
			gotFrom, gotTo = from, to
			return decimal.NewFromInt(300), nil
		},
	}
	svc := NewManagerService(expenses, &mockHistoryRepo{}, &mockCompanyRepo{}, nil, &mockLogger{}).(*managerServiceImpl)
	svc.now = func() time.Time { return time.Date(2026, 12, 15, 18, 30, 0, 0, time.UTC) }

	kpis, err := svc.KPIs(context.Background(), 2)
	require.NoError(t, err)

	assert.True(t, kpis.TotalPending.Equal(decimal.NewFromInt(70)))
	assert.True(t, kpis.TotalApprovedMonth.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, "N/A", kpis.AvgApprovalTime)
	assert.Equal(t, time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC), gotFrom)
	assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), gotTo)
}

func TestManagerService_Limits(t *testing.T) {
	var spendersLimit, recentLimit int
	expenses := &mockExpenseRepo{topSpendersFunc: func(ctx context.Context, managerID int64, from, to time.Time, limit int) ([]*entity.TopSpender, error) {
		spendersLimit = limit
		return []*entity.TopSpender{{EmployeeName: "Eve"}}, nil
	}}
	history := &mockHistoryRepo{recentByApproverFunc: func(ctx context.Context, approverID int64, limit int) ([]*entity.ProcessedExpense, error) {
		recentLimit = limit
		return []*entity.ProcessedExpense{}, nil
	}}
	svc := NewManagerService(expenses, history, &mockCompanyRepo{}, nil, &mockLogger{})

	top, err := svc.TopSpenders(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, top, 1)

	_, err = svc.RecentlyProcessed(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, 5, spendersLimit)
	assert.Equal(t, 10, recentLimit)
}
