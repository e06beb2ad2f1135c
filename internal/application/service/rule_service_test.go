package service

import (
	"context"
	"testing"

	"github.com/garyjia/expense-approvals/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleService_Create(t *testing.T) {
	var stored *entity.ApprovalRule
	rules := &mockRuleRepo{createFunc: func(ctx context.Context, r *entity.ApprovalRule) error {
		r.ID = 3
		stored = r
		return nil
	}}
	tx := &mockTxManager{}
	svc := NewRuleService(rules, tx, &mockLogger{})

	rule, err := svc.Create(context.Background(), admin, CreateRuleRequest{Name: "Chain", StepSequences: []int{30, 10, 20}})
	require.NoError(t, err)

	assert.Same(t, stored, rule)
	assert.Equal(t, 1, tx.calls)
	assert.Equal(t, entity.RuleTypeSequential, rule.RuleType)
	assert.Equal(t, admin.CompanyID, rule.CompanyID)
	require.Len(t, rule.Steps, 3)
	assert.Equal(t, []int{10, 20, 30}, []int{rule.Steps[0].StepSequence, rule.Steps[1].StepSequence, rule.Steps[2].StepSequence})
}

func TestRuleService_CreateValidation(t *testing.T) {
	svc := NewRuleService(&mockRuleRepo{}, &mockTxManager{}, &mockLogger{})

	tests := []struct {
		name  string
		steps []int
	}{
		{"empty", nil},
		{"zero", []int{0, 1}},
		{"negative", []int{-1}},
		{"duplicate", []int{2, 1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), admin, CreateRuleRequest{StepSequences: tt.steps})
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	manager := admin
	manager.Role = entity.RoleManager
	_, err := svc.Create(context.Background(), manager, CreateRuleRequest{StepSequences: []int{1}})
	assert.ErrorIs(t, err, ErrForbidden)
}
