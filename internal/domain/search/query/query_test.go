package query

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/scopeq/internal/domain"
	"github.com/kailas-cloud/scopeq/internal/domain/principal"
	"github.com/kailas-cloud/scopeq/internal/domain/resource"
	"github.com/kailas-cloud/scopeq/internal/domain/search/filter"
	"github.com/kailas-cloud/scopeq/internal/domain/search/page"
	"github.com/kailas-cloud/scopeq/internal/domain/search/scope"
	"github.com/kailas-cloud/scopeq/internal/domain/search/sort"
)

func tasks() *resource.Definition {
	return &resource.Definition{
		Name:       "tasks",
		Source:     "tasks",
		PrimaryKey: "id",
		Columns: []resource.Column{
			{Name: "id", Type: resource.UUID},
			{Name: "tenant_id", Type: resource.UUID},
			{Name: "title", Type: resource.String},
			{Name: "description", Type: resource.String},
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
		},
		Keywords: []resource.KeywordSpec{{Param: "search", Columns: []string{"title", "tenant_id"}}},
		Sort: sort.MustAllowlist([]sort.Field{
			{Name: "createdAt", Column: "created_at"},
			{Name: "id", Column: "id"},
		}, "createdAt", sort.Desc),
		Page: page.DefaultPolicy(),
		Projection: []resource.ProjectedField{
			{Name: "title", Column: "title"},
			{Name: "createdAt", Column: "created_at"},
		},
	}
}

func build(t *testing.T, p principal.Principal, params map[string]any, pg, limit int) (*Descriptor, []filter.Condition, error) {
	t.Helper()
	def := tasks()
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
	return Build(def, p.Role(), sc, expr, sort.Resolve(def.Sort, "", ""), win)
}

func TestBuild_ScopeFirstAndCollisionsDropped(t *testing.T) {
	p, _ := principal.New("u", principal.User, "", "tenant-a")
	d, dropped, err := build(t, p, map[string]any{
		"tenantId": "6f9619ff-8b86-d011-b42d-00cf4fc964ff",
		"title":    "Q3",
		"search":   "x",
	}, 2, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	conds := d.Conditions()
	if len(conds) != 2 {
		t.Fatalf("conditions = %v", conds)
	}
	if conds[0].Column() != "tenant_id" || conds[0].Value() != "tenant-a" {
		t.Errorf("first condition = %v, want scope", conds[0])
	}
	if conds[1].Column() != "title" {
		t.Errorf("second condition = %v", conds[1])
	}
	for _, g := range d.AnyOf() {
		for _, c := range g {
			if c.Column() == "tenant_id" {
				t.Errorf("scope column leaked into OR group: %v", c)
			}
		}
	}
	if len(dropped) != 2 {
		t.Errorf("dropped = %v, want tenantId filter and keyword arm", dropped)
	}
	if d.Skip() != 10 || d.Take() != 10 {
		t.Errorf("skip/take = %d/%d", d.Skip(), d.Take())
	}
}

func TestBuild_RefusesMissingScope(t *testing.T) {
	def := tasks()
	p, _ := principal.New("u", principal.User, "", "")
	expr, _ := filter.NewExpression(nil, nil)
	win, _ := page.Normalize(def.Page, 1, 10)

	_, _, err := Build(def, p.Role(), scope.Predicate{}, expr, def.Sort.Default(), win)
	if !errors.Is(err, domain.ErrScope) {
		t.Fatalf("expected ErrScope, got %v", err)
	}
}

func TestBuild_ExemptRoleMayBeUnscoped(t *testing.T) {
	p, _ := principal.New("root", principal.SuperAdmin, "", "")
	d, _, err := build(t, p, nil, 1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Scope().IsEmpty() {
		t.Errorf("scope = %s", d.Scope())
	}
}

func TestDescriptor_Shape(t *testing.T) {
	p, _ := principal.New("u", principal.User, "", "t")
	d, _, err := build(t, p, nil, 1, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Resource() != "tasks" || d.Source() != "tasks" || d.PrimaryKey() != "id" {
		t.Errorf("identity = %s/%s/%s", d.Resource(), d.Source(), d.PrimaryKey())
	}
	if strings.Join(d.Columns(), ",") != "id,title,created_at" {
		t.Errorf("columns = %v", d.Columns())
	}
	if d.ColumnType("created_at") != resource.Time {
		t.Errorf("type = %s", d.ColumnType("created_at"))
	}
	if d.TieBreaker() != "id" {
		t.Errorf("tie breaker = %q", d.TieBreaker())
	}
	want := "tasks where tenant_id eq t order by createdAt desc skip 0 take 5"
	if d.String() != want {
		t.Errorf("String() = %q, want %q", d.String(), want)
	}
}

func TestDescriptor_NoTieBreakerOnPrimaryKey(t *testing.T) {
	def := tasks()
	p, _ := principal.New("u", principal.User, "", "t")
	sc, _ := scope.Resolve(p, def)
	expr, _ := filter.NewExpression(nil, nil)
	win, _ := page.Normalize(def.Page, 1, 5)

	d, _, err := Build(def, p.Role(), sc, expr, sort.Resolve(def.Sort, "id", "asc"), win)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.TieBreaker() != "" {
		t.Errorf("tie breaker = %q, want none", d.TieBreaker())
	}
}

func TestDescriptor_Deterministic(t *testing.T) {
	p, _ := principal.New("u", principal.User, "", "t")
	params := map[string]any{"title": "a", "search": "b"}
	d1, _, _ := build(t, p, params, 3, 7)
	d2, _, _ := build(t, p, params, 3, 7)
	if d1.String() != d2.String() {
		t.Errorf("descriptors differ:\n%s\n%s", d1, d2)
	}
}
