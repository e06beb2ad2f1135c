package service

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned when a request is missing or has malformed fields
	ErrValidation = errors.New("validation failed")

	// ErrForbidden is returned when the caller's role does not allow the operation
	ErrForbidden = errors.New("forbidden")

	// ErrEmailTaken is returned when signing up or adding a user with a known email
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is returned on a failed login
	ErrInvalidCredentials = errors.New("invalid credentials")
)

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
