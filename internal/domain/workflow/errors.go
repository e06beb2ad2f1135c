package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the expense being actioned does not exist
	ErrNotFound = errors.New("expense not found")

	// ErrInvalidAction is returned for actions other than Approved or Rejected
	ErrInvalidAction = errors.New("invalid action")

	// ErrDuplicateAction is returned when a manager actions the same quorum expense twice
	ErrDuplicateAction = errors.New("expense already actioned by this approver")

	// ErrTransactionFailure wraps any lookup or write fault during a transition
	ErrTransactionFailure = errors.New("transaction failure")
)

// TransactionFailure wraps err so that errors.Is matches both
// ErrTransactionFailure and the underlying cause.
func TransactionFailure(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrTransactionFailure, op, err)
}

// IsTransitionError reports whether err already belongs to the transition
// error set above
func IsTransitionError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidAction) ||
		errors.Is(err, ErrDuplicateAction) ||
		errors.Is(err, ErrTransactionFailure)
}
