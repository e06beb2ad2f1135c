package event

import (
	"time"

	"github.com/google/uuid"
)

// Event is a change in an expense's lifecycle, published after the
// transaction that caused it has committed.
type Event struct {
	ID        string                 `json:"id"`
	Type      Type                   `json:"type"`
	CompanyID int64                  `json:"company_id"`
	ExpenseID int64                  `json:"expense_id"`
	ActorID   int64                  `json:"actor_id"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// NewEvent creates a new domain event with a generated ID and timestamp
func NewEvent(eventType Type, companyID, expenseID, actorID int64, payload map[string]interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		CompanyID: companyID,
		ExpenseID: expenseID,
		ActorID:   actorID,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// GetPayloadString retrieves a string value from the payload
func (e *Event) GetPayloadString(key string) string {
	if val, ok := e.Payload[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}
