package workflow

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Outcome classifies what a single action did to an expense
type Outcome string

const (
	// OutcomeAdvanced means a sequential expense moved to its next step
	OutcomeAdvanced Outcome = "ADVANCED"
	// OutcomeAwaiting means a quorum expense is still collecting approvals
	OutcomeAwaiting Outcome = "AWAITING"
	// OutcomeApproved means the expense was fully approved
	OutcomeApproved Outcome = "APPROVED"
	// OutcomeRejected means the expense was vetoed
	OutcomeRejected Outcome = "REJECTED"
)

// Decision is the state change a transition asks the caller to persist
type Decision struct {
	Outcome Outcome
	Status  Status

	// NextStepID is set when a sequential expense advances
	NextStepID *int64

	// ClearStep drops the current step reference
	ClearStep bool

	// ApprovedAmount is the resolved amount. When UseOriginalAmount is set
	// the caller must read the persisted amount inside the same transaction.
	ApprovedAmount    decimal.Decimal
	UseOriginalAmount bool
}

// Resolves reports whether the decision writes a final status
func (d Decision) Resolves() bool {
	return d.Status.IsTerminal()
}

// QuorumTally is the ledger state a quorum decision is made on. Counts
// already include the entry appended for the current action.
type QuorumTally struct {
	// ActorEntries is the number of history rows for (expense, approver)
	ActorEntries int
	// Approvals is the number of Approved rows for the expense
	Approvals int
	// Required is the number of managers in the company
	Required int
}

// DecideRejection vetoes the expense regardless of policy or prior approvals
func DecideRejection() Decision {
	return Decision{
		Outcome:        OutcomeRejected,
		Status:         StatusRejected,
		ClearStep:      true,
		ApprovedAmount: decimal.Zero,
	}
}

// DecideSequential advances to nextStepID, or resolves the expense when the
// current step was the last one.
func DecideSequential(nextStepID *int64, requested *decimal.Decimal) Decision {
	if nextStepID != nil {
		next := *nextStepID
		return Decision{
			Outcome:    OutcomeAdvanced,
			Status:     StatusPending,
			NextStepID: &next,
		}
	}

	d := resolveApproved(requested)
	d.ClearStep = true
	return d
}

// DecideQuorum resolves the expense once approvals reach the manager count.
// A second entry by the same approver is refused.
func DecideQuorum(t QuorumTally, requested *decimal.Decimal) (Decision, error) {
	if t.ActorEntries > 1 {
		return Decision{}, fmt.Errorf("%w: %d entries", ErrDuplicateAction, t.ActorEntries)
	}

	if t.Approvals >= t.Required {
		return resolveApproved(requested), nil
	}

	return Decision{
		Outcome: OutcomeAwaiting,
		Status:  StatusPending,
	}, nil
}

func resolveApproved(requested *decimal.Decimal) Decision {
	d := Decision{
		Outcome: OutcomeApproved,
		Status:  StatusApproved,
	}
	if requested != nil {
		d.ApprovedAmount = *requested
	} else {
		d.UseOriginalAmount = true
	}
	return d
}
