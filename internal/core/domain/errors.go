package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrVersionConflict    = errors.New("record was changed by another user")
	ErrEmailTaken         = errors.New("email already registered")
	ErrAdminDeletion      = errors.New("admin accounts cannot be deleted")
	ErrAdminExists        = errors.New("an admin account already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Violation is a single failed field constraint.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError enumerates every violated constraint of an input.
type ValidationError struct {
	Violations []Violation `json:"violations"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	e.Violations = append(e.Violations, Violation{Field: field, Message: msg})
}

// orNil keeps the "no violations" case a plain nil error.
func (e *ValidationError) orNil() error {
	if len(e.Violations) == 0 {
		return nil
	}
	return e
}

// TransitionError reports a status change that the lifecycle does not allow.
type TransitionError struct {
	From    Status
	To      Status
	Missing []string
}

func (e *TransitionError) Error() string {
	if len(e.Missing) == 0 {
		return fmt.Sprintf("cannot move patient from %q to %q", e.From, e.To)
	}
	return fmt.Sprintf("cannot move patient from %q to %q: missing %s",
		e.From, e.To, strings.Join(e.Missing, ", "))
}

// StoreError wraps a failure of the document store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// ExternalServiceError wraps a failure of the advisory text service.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }
