package scopeq

import (
	"github.com/kailas-cloud/scopeq/internal/audit"
	"github.com/kailas-cloud/scopeq/internal/catalog"
	"github.com/kailas-cloud/scopeq/internal/domain/principal"
	"github.com/kailas-cloud/scopeq/internal/domain/resource"
	"github.com/kailas-cloud/scopeq/internal/domain/search/page"
	"github.com/kailas-cloud/scopeq/internal/domain/search/result"
)

// Principal is the identity a search runs on behalf of.
type Principal = principal.Principal

// Role names a principal's access class.
type Role = principal.Role

// Built-in roles.
const (
	RoleSuperAdmin = principal.SuperAdmin
	RoleAdmin      = principal.Admin
	RoleDoctor     = principal.Doctor
	RoleStaff      = principal.Staff
	RoleUser       = principal.User
)

// NewPrincipal validates and creates a Principal. Organization and tenant are optional.
func NewPrincipal(id string, role Role, organizationID, tenantID string) (Principal, error) {
	p, err := principal.New(id, role, organizationID, tenantID)
	if err != nil {
		return Principal{}, err
	}
	return p, nil
}

// Response is a page of summaries plus pagination metadata.
type Response = result.Response

// Summary is one projected record. Keys follow the resource's declared order.
type Summary = result.Summary

// Pagination is the pagination block of a Response.
type Pagination = page.Meta

// PagePolicy holds default and maximum page sizes of a resource.
type PagePolicy = page.Policy

// Overflow decides what happens to a limit above the maximum.
type Overflow = page.Overflow

// Overflow policies.
const (
	OverflowClamp  = page.Clamp
	OverflowReject = page.Reject
)

// NewPagePolicy validates and creates a PagePolicy. Zero values take engine defaults.
func NewPagePolicy(defaultLimit, maxLimit int, overflow Overflow) (PagePolicy, error) {
	p, err := page.NewPolicy(defaultLimit, maxLimit, overflow)
	if err != nil {
		return PagePolicy{}, err
	}
	return p, nil
}

// Resource declares one searchable entity.
type Resource = resource.Definition

// Catalog is an immutable set of resources keyed by name.
type Catalog = catalog.Registry

// NewCatalog builds a catalog from resource definitions.
func NewCatalog(defs ...Resource) (*Catalog, error) {
	c, err := catalog.New(defs...)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// BuiltinCatalog returns the catalog of built-in resources.
func BuiltinCatalog() *Catalog { return catalog.Default() }

// AuditEvent describes one finished search.
type AuditEvent = audit.Event

// AuditPublisher receives audit events.
type AuditPublisher = audit.Publisher
