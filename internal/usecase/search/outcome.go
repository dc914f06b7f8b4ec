package search

import (
	"errors"

	"github.com/kailas-cloud/scopeq/internal/domain"
)

// Stage names a step of a search. A failed search reports the stage it failed in.
type Stage string

const (
	StageLookup    Stage = "lookup"
	StageAuthorize Stage = "authorize"
	StageScope     Stage = "resolve scope"
	StageFilter    Stage = "build filter"
	StagePaginate  Stage = "paginate"
	StageQuery     Stage = "build query"
	StageExecute   Stage = "execute"
	StageProject   Stage = "project"
)

// StageError wraps the error a search stopped with.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return string(e.Stage) + ": " + e.Err.Error() }
func (e *StageError) Unwrap() error { return e.Err }

// Outcome labels how a search ended.
type Outcome string

const (
	OutcomeOK           Outcome = "ok"
	OutcomeEmpty        Outcome = "empty"
	OutcomeUnauthorized Outcome = "unauthenticated"
	OutcomeDenied       Outcome = "denied"
	OutcomeScopeMissing Outcome = "scope_missing"
	OutcomeInvalid      Outcome = "invalid"
	OutcomeNotFound     Outcome = "not_found"
	OutcomeStorage      Outcome = "storage_error"
	OutcomeError        Outcome = "error"
)

// OutcomeOf classifies err.
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, domain.ErrUnauthenticated):
		return OutcomeUnauthorized
	case errors.Is(err, domain.ErrAuthorization):
		return OutcomeDenied
	case errors.Is(err, domain.ErrScope):
		return OutcomeScopeMissing
	case errors.Is(err, domain.ErrValidation):
		return OutcomeInvalid
	case errors.Is(err, domain.ErrUnknownResource):
		return OutcomeNotFound
	case errors.Is(err, domain.ErrStorage):
		return OutcomeStorage
	default:
		return OutcomeError
	}
}
