package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated signals a request without a verified principal.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrAuthorization signals a role that may not search the resource.
	ErrAuthorization = errors.New("authorization denied")
	// ErrScope signals a principal missing the scope the resource is partitioned by.
	ErrScope = errors.New("scope unavailable")
	// ErrValidation signals a structurally invalid request value.
	ErrValidation = errors.New("validation failed")
	// ErrStorage signals a failed or timed out storage call.
	ErrStorage = errors.New("storage failure")
	// ErrUnknownResource signals a resource name absent from the catalog.
	ErrUnknownResource = errors.New("unknown resource")
	// ErrInvalidSchema signals an inconsistent resource definition.
	ErrInvalidSchema = errors.New("invalid schema")
)

// ValidationError wraps ErrValidation with the offending request field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrValidation.Error(), e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a validation error for field.
func NewValidationError(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ScopeError wraps ErrScope with the resource and the column that could not be bound.
type ScopeError struct {
	Resource string
	Column   string
}

func (e *ScopeError) Error() string {
	return fmt.Sprintf("%s: %s requires %s", ErrScope.Error(), e.Resource, e.Column)
}

func (e *ScopeError) Unwrap() error { return ErrScope }

// NewScopeError creates a scope error.
func NewScopeError(resource, column string) error {
	return &ScopeError{Resource: resource, Column: column}
}
