package scopeq

import "github.com/kailas-cloud/scopeq/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrUnauthenticated = domain.ErrUnauthenticated
	ErrAuthorization   = domain.ErrAuthorization
	ErrScope           = domain.ErrScope
	ErrValidation      = domain.ErrValidation
	ErrStorage         = domain.ErrStorage
	ErrUnknownResource = domain.ErrUnknownResource
)

// ValidationError names the request parameter that failed validation.
// Use errors.As() to extract it.
type ValidationError = domain.ValidationError

// ScopeError names the principal attribute a resource's scope rule needed.
type ScopeError = domain.ScopeError
