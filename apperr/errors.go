// Package apperr defines the error taxonomy shared by services and the HTTP boundary.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrAuthRequired    = errors.New("authentication required")
	ErrForbidden       = errors.New("insufficient permissions")
	ErrNotFound        = errors.New("not found")
	ErrAlreadyResolved = errors.New("already resolved")
	ErrConflict        = errors.New("conflict")
	ErrUpstream        = errors.New("upstream provider failure")
)

// ErrInsufficientBalance is a validation failure raised by conditional debits
var ErrInsufficientBalance = fmt.Errorf("%w: insufficient balance", ErrValidation)

// Validation returns an ErrValidation carrying a human readable message
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound reports an unknown entity id
func NotFound(entity, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, entity, id)
}

// AlreadyResolved reports a transition attempted on a record that is no longer pending
func AlreadyResolved(entity, id string) error {
	return fmt.Errorf("%w: %s %s is no longer pending", ErrAlreadyResolved, entity, id)
}

// Conflict reports a duplicate value for a unique field
func Conflict(field string) error {
	return fmt.Errorf("%w: %s already in use", ErrConflict, field)
}

// Upstream wraps a failure of an external provider
func Upstream(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUpstream, op, err)
}

// Message strips the sentinel prefix so the detail can be shown to a client
func Message(err error) string {
	for _, sentinel := range []error{ErrValidation, ErrAuthRequired, ErrForbidden, ErrNotFound, ErrAlreadyResolved, ErrConflict} {
		if errors.Is(err, sentinel) {
			msg := err.Error()
			prefix := sentinel.Error() + ": "
			if i := strings.Index(msg, prefix); i >= 0 {
				return msg[i+len(prefix):]
			}
			return sentinel.Error()
		}
	}
	return err.Error()
}
