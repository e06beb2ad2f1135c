package service

import (
	"context"
	"errors"
	"testing"

	"github.com/garyjia/expense-approvals/internal/domain/entity"
	"github.com/garyjia/expense-approvals/internal/domain/workflow"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var employee = entity.Identity{UserID: 5, Email: "eve@acme.test", Role: entity.RoleEmployee, CompanyID: 1}

func validSubmit() SubmitExpenseRequest {
	return SubmitExpenseRequest{
		Category:    "Travel",
		Description: " Airport taxi ",
		Amount:      decimal.RequireFromString("35.40"),
		Currency:    "eur",
		ExpenseDate: "2026-09-30",
	}
}

func TestExpenseService_SubmitAssignsPolicy(t *testing.T) {
	tests := []struct {
		name      string
		rule      *entity.ApprovalRule
		firstStep *entity.ApprovalStep
		want      workflow.PolicyKind
	}{
		{name: "no rule", want: workflow.PolicyQuorum},
		{name: "rule without steps", rule: &entity.ApprovalRule{ID: 3}, want: workflow.PolicyQuorum},
		{
			name:      "rule with steps",
			rule:      &entity.ApprovalRule{ID: 3},
			firstStep: &entity.ApprovalStep{ID: 30, RuleID: 3, StepSequence: 1},
			want:      workflow.PolicySequential,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var created *entity.Expense
			expenses := &mockExpenseRepo{createFunc: func(ctx context.Context, e *entity.Expense) error {
				e.ID = 42
				created = e
				return nil
			}}
			rules := &mockRuleRepo{
				firstSequentialRuleFunc: func(ctx context.Context, companyID int64) (*entity.ApprovalRule, error) {
					assert.Equal(t, int64(1), companyID)
					return tt.rule, nil
				},
				firstStepFunc: func(ctx context.Context, ruleID int64) (*entity.ApprovalStep, error) {
					return tt.firstStep, nil
				},
			}
			tx := &mockTxManager{}
			events := &mockPublisher{}
			svc := NewExpenseService(expenses, rules, &mockHistoryRepo{}, tx, events, &mockLogger{})

			e, err := svc.Submit(context.Background(), employee, validSubmit())
			require.NoError(t, err)

			assert.Equal(t, 1, tx.calls)
			assert.Same(t, created, e)
			assert.Equal(t, tt.want, e.PolicyKind)
			assert.Equal(t, workflow.StatusPending, e.Status)
			assert.Equal(t, "EUR", e.Currency)
			assert.Equal(t, "Airport taxi", e.Description)
			assert.Equal(t, 2026, e.ExpenseDate.Year())
			require.Len(t, events.events, 1)
			assert.Equal(t, int64(42), events.events[0].ExpenseID)
			assert.Equal(t, string(tt.want), events.events[0].GetPayloadString("policy"))
			if tt.firstStep != nil {
				require.NotNil(t, e.CurrentStepID)
				assert.Equal(t, int64(30), *e.CurrentStepID)
				assert.Equal(t, int64(3), *e.RuleID)
			} else {
				assert.Nil(t, e.CurrentStepID)
				assert.Nil(t, e.RuleID)
			}
		})
	}
}

func TestExpenseService_SubmitValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *SubmitExpenseRequest)
	}{
		{"zero amount", func(r *SubmitExpenseRequest) { r.Amount = decimal.Zero }},
		{"negative amount", func(r *SubmitExpenseRequest) { r.Amount = decimal.NewFromInt(-3) }},
		{"bad currency", func(r *SubmitExpenseRequest) { r.Currency = "EURO" }},
		{"bad date", func(r *SubmitExpenseRequest) { r.ExpenseDate = "30/09/2026" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := &mockTxManager{}
			svc := NewExpenseService(&mockExpenseRepo{}, &mockRuleRepo{}, &mockHistoryRepo{}, tx, &mockPublisher{}, &mockLogger{})

			req := validSubmit()
			tt.mutate(&req)
			_, err := svc.Submit(context.Background(), employee, req)

			assert.ErrorIs(t, err, ErrValidation)
			assert.Equal(t, 0, tx.calls)
		})
	}
}

func TestExpenseService_SubmitStoreFailure(t *testing.T) {
	boom := errors.New("disk full")
	expenses := &mockExpenseRepo{createFunc: func(ctx context.Context, e *entity.Expense) error { return boom }}
	svc := NewExpenseService(expenses, &mockRuleRepo{}, &mockHistoryRepo{}, &mockTxManager{}, &mockPublisher{}, &mockLogger{})

	_, err := svc.Submit(context.Background(), employee, validSubmit())

	assert.ErrorIs(t, err, boom)
}

func TestExpenseService_GetDetail(t *testing.T) {
	expenses := &mockExpenseRepo{getForEmployeeFunc: func(ctx context.Context, id, employeeID int64) (*entity.Expense, error) {
		if id == 9 && employeeID == employee.UserID {
			return &entity.Expense{ID: 9, EmployeeID: employeeID}, nil
		}
		return nil, nil
	}}
	history := &mockHistoryRepo{listByExpenseFunc: func(ctx context.Context, expenseID int64) ([]*entity.ApprovalHistory, error) {
		return []*entity.ApprovalHistory{{ID: 1, ExpenseID: expenseID, ApproverName: "Max", Action: workflow.ActionApproved}}, nil
	}}
	svc := NewExpenseService(expenses, &mockRuleRepo{}, history, &mockTxManager{}, &mockPublisher{}, &mockLogger{})

	detail, err := svc.GetDetail(context.Background(), 9, employee.UserID)
	require.NoError(t, err)
	assert.Equal(t, int64(9), detail.ID)
	require.Len(t, detail.History, 1)
	assert.Equal(t, "Max", detail.History[0].ApproverName)

	_, err = svc.GetDetail(context.Background(), 9, 77)
	assert.ErrorIs(t, err, workflow.ErrNotFound)
}

func TestExpenseService_KPIs(t *testing.T) {
	expenses := &mockExpenseRepo{sumByEmployeeFunc: func(ctx context.Context, employeeID int64) (*entity.EmployeeKPIs, error) {
		return &entity.EmployeeKPIs{TotalApproved: decimal.NewFromInt(10)}, nil
	}}
	svc := NewExpenseService(expenses, &mockRuleRepo{}, &mockHistoryRepo{}, &mockTxManager{}, &mockPublisher{}, &mockLogger{})

	kpis, err := svc.KPIs(context.Background(), employee.UserID)
	require.NoError(t, err)
	assert.True(t, kpis.TotalApproved.Equal(decimal.NewFromInt(10)))
}
