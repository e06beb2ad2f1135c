package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewEvent(t *testing.T) {
	evt := NewEvent(TypeExpenseApproved, 3, 11, 7, map[string]interface{}{"status": "Approved"})

	assert.NotEmpty(t, evt.ID)
	assert.Equal(t, TypeExpenseApproved, evt.Type)
	assert.Equal(t, int64(3), evt.CompanyID)
	assert.Equal(t, int64(11), evt.ExpenseID)
	assert.Equal(t, int64(7), evt.ActorID)
	assert.Equal(t, "Approved", evt.GetPayloadString("status"))
	assert.Empty(t, evt.GetPayloadString("missing"))
	assert.False(t, evt.Timestamp.IsZero())

	other := NewEvent(TypeExpenseApproved, 3, 11, 7, nil)
	assert.NotEqual(t, evt.ID, other.ID)
}

func TestType_IsValid(t *testing.T) {
	for _, typ := range []Type{
		TypeExpenseSubmitted,
		TypeExpenseAdvanced,
		TypeExpenseAwaiting,
		TypeExpenseApproved,
		TypeExpenseRejected,
	} {
		assert.True(t, typ.IsValid(), typ.String())
	}
	assert.False(t, Type("instance.created").IsValid())
}
