// Package dbtest builds query descriptors for storage backend tests.
package dbtest

import (
	"testing"

	"github.com/kailas-cloud/scopeq/internal/domain/principal"
	"github.com/kailas-cloud/scopeq/internal/domain/resource"
	"github.com/kailas-cloud/scopeq/internal/domain/search/filter"
	"github.com/kailas-cloud/scopeq/internal/domain/search/page"
	"github.com/kailas-cloud/scopeq/internal/domain/search/query"
	"github.com/kailas-cloud/scopeq/internal/domain/search/scope"
	"github.com/kailas-cloud/scopeq/internal/domain/search/sort"
)

// TenantID is the tenant of Member.
const TenantID = "tenant-1"

// Tasks returns a small tenant-scoped resource exercising every filter kind.
func Tasks() *resource.Definition {
	return &resource.Definition{
		Name:       "tasks",
		Source:     "tasks",
		PrimaryKey: "id",
		Columns: []resource.Column{
			{Name: "id", Type: resource.UUID},
			{Name: "tenant_id", Type: resource.UUID},
			{Name: "title", Type: resource.String},
			{Name: "description", Type: resource.String},
			{Name: "status", Type: resource.String},
			{Name: "priority", Type: resource.Int},
			{Name: "assignee_id", Type: resource.UUID},
			{Name: "created_at", Type: resource.Time},
		},
		Roles: []principal.Role{principal.User, principal.SuperAdmin},
		Scopes: []resource.ScopeRule{{
			Kind: resource.Tenant, Column: "tenant_id", Param: "tenantId",
			ExemptRoles: []principal.Role{principal.SuperAdmin},
		}},
		Filters: []resource.FieldSpec{
			{Param: "tenantId", Column: "tenant_id", Kind: resource.Equals},
			{Param: "title", Column: "title", Kind: resource.Contains},
			{Param: "status", Column: "status", Kind: resource.Enum, Values: []string{"todo", "done"}},
			{Param: "priority", Column: "priority", Kind: resource.In},
			{Param: "assigneeId", Column: "assignee_id", Kind: resource.Equals, Nullable: true},
		},
		Ranges: []resource.RangeSpec{
			{FromParam: "createdAt_from", ToParam: "createdAt_to", Column: "created_at"},
		},
		Keywords: []resource.KeywordSpec{{Param: "search", Columns: []string{"title", "description"}}},
		Sort: sort.MustAllowlist([]sort.Field{
			{Name: "createdAt", Column: "created_at"},
			{Name: "id", Column: "id"},
		}, "createdAt", sort.Desc),
		Page: page.DefaultPolicy(),
		Projection: []resource.ProjectedField{
			{Name: "title", Column: "title"},
			{Name: "status", Column: "status"},
			{Name: "createdAt", Column: "created_at"},
		},
	}
}

// Member returns a user principal of TenantID.
func Member(t *testing.T) principal.Principal {
	t.Helper()
	p, err := principal.New("user-1", principal.User, "", TenantID)
	if err != nil {
		t.Fatalf("principal.New: %v", err)
	}
	return p
}

// Admin returns a super admin without tenant.
func Admin(t *testing.T) principal.Principal {
	t.Helper()
	p, err := principal.New("root", principal.SuperAdmin, "", "")
	if err != nil {
		t.Fatalf("principal.New: %v", err)
	}
	return p
}

// Descriptor runs the request pipeline for def and fails the test on any error.
func Descriptor(
	t *testing.T,
	def *resource.Definition,
	p principal.Principal,
	params map[string]any,
	sortField, direction string,
	pg, limit int,
) *query.Descriptor {
	t.Helper()
	sc, err := scope.Resolve(p, def)
	if err != nil {
		t.Fatalf("scope.Resolve: %v", err)
	}
	expr, err := filter.Build(def, params)
	if err != nil {
		t.Fatalf("filter.Build: %v", err)
	}
	win, err := page.Normalize(def.Page, pg, limit)
	if err != nil {
		t.Fatalf("page.Normalize: %v", err)
	}
	d, _, err := query.Build(def, p.Role(), sc, expr, sort.Resolve(def.Sort, sortField, direction), win)
	if err != nil {
		t.Fatalf("query.Build: %v", err)
	}
	return d
}
