package principal

import (
	"context"
	"fmt"
)

// Role names a principal's access class.
type Role string

// Built-in roles.
const (
	SuperAdmin Role = "super_admin"
	Admin      Role = "admin"
	Doctor     Role = "doctor"
	Staff      Role = "staff"
	User       Role = "user"
)

// Principal is the immutable identity a search runs on behalf of.
type Principal struct {
	id             string
	role           Role
	organizationID string
	tenantID       string
}

// New validates and creates a Principal. Organization and tenant are optional.
func New(id string, role Role, organizationID, tenantID string) (Principal, error) {
	if id == "" {
		return Principal{}, fmt.Errorf("principal id is required")
	}
	if role == "" {
		return Principal{}, fmt.Errorf("principal role is required")
	}
	return Principal{
		id:             id,
		role:           role,
		organizationID: organizationID,
		tenantID:       tenantID,
	}, nil
}

// ID returns the principal's user id.
func (p Principal) ID() string { return p.id }

// Role returns the principal's role.
func (p Principal) Role() Role { return p.role }

// OrganizationID returns the organization the principal belongs to, or "".
func (p Principal) OrganizationID() string { return p.organizationID }

// TenantID returns the tenant the principal belongs to, or "".
func (p Principal) TenantID() string { return p.tenantID }

// IsZero reports whether p was never constructed.
func (p Principal) IsZero() bool { return p.id == "" }

type ctxKey struct{}

// WithContext stores p in ctx.
func WithContext(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext extracts the principal stored by WithContext.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok && !p.IsZero()
}
