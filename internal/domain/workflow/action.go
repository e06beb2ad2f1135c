package workflow

import "fmt"

// Action is what a manager does to a pending expense
type Action string

const (
	ActionApproved Action = "Approved"
	ActionRejected Action = "Rejected"
)

// ParseAction validates a raw action value
func ParseAction(raw string) (Action, error) {
	switch a := Action(raw); a {
	case ActionApproved, ActionRejected:
		return a, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAction, raw)
	}
}

// String returns the string representation of the action
func (a Action) String() string {
	return string(a)
}
