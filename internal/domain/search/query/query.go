package query

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kailas-cloud/scopeq/internal/domain"
	"github.com/kailas-cloud/scopeq/internal/domain/principal"
	"github.com/kailas-cloud/scopeq/internal/domain/resource"
	"github.com/kailas-cloud/scopeq/internal/domain/search/filter"
	"github.com/kailas-cloud/scopeq/internal/domain/search/page"
	"github.com/kailas-cloud/scopeq/internal/domain/search/scope"
	"github.com/kailas-cloud/scopeq/internal/domain/search/sort"
)

// Descriptor is the immutable, storage-neutral description of one search.
// The count and the page fetch of a search are both derived from the same
// Descriptor, so they always see the same predicate.
type Descriptor struct {
	resource   string
	source     string
	primaryKey string
	columns    []string
	types      map[string]resource.ValueType
	scope      scope.Predicate
	must       []filter.Condition
	anyOf      [][]filter.Condition
	sort       sort.Spec
	skip       int
	take       int
}

// Build assembles a Descriptor for role from the resolved pieces of a request.
// User conditions on scope columns are removed and returned as dropped.
// Building fails with a ScopeError when a rule that applies to role is unbound.
func Build(
	def *resource.Definition,
	role principal.Role,
	sc scope.Predicate,
	expr filter.Expression,
	srt sort.Spec,
	win page.Window,
) (*Descriptor, []filter.Condition, error) {
	for _, rule := range def.Scopes {
		if rule.Exempts(role) {
			continue
		}
		if !sc.Binds(rule.Column) {
			return nil, nil, domain.NewScopeError(def.Name, rule.Column)
		}
	}
	if def.RequiresScope(role) && sc.IsEmpty() {
		return nil, nil, domain.NewScopeError(def.Name, "scope")
	}
	for _, b := range sc.Bindings() {
		if _, ok := def.Column(b.Column); !ok {
			return nil, nil, fmt.Errorf("%w: %s: scope column %q not declared", domain.ErrInvalidSchema, def.Name, b.Column)
		}
	}
	if _, ok := def.Column(srt.Column()); !ok {
		return nil, nil, fmt.Errorf("%w: %s: sort column %q not declared", domain.ErrInvalidSchema, def.Name, srt.Column())
	}

	clean, dropped := expr.Without(def.IsScopeColumn)

	types := make(map[string]resource.ValueType, len(def.Columns))
	for _, c := range def.Columns {
		types[c.Name] = c.Type
	}

	return &Descriptor{
		resource:   def.Name,
		source:     def.Source,
		primaryKey: def.PrimaryKey,
		columns:    def.SelectColumns(),
		types:      types,
		scope:      sc,
		must:       clean.Must(),
		anyOf:      clean.AnyOf(),
		sort:       srt,
		skip:       win.Skip(),
		take:       win.Limit(),
	}, dropped, nil
}

// Resource returns the resource name.
func (d *Descriptor) Resource() string { return d.resource }

// Source returns the table or index the resource lives in.
func (d *Descriptor) Source() string { return d.source }

// PrimaryKey returns the primary key column.
func (d *Descriptor) PrimaryKey() string { return d.primaryKey }

// Columns returns the columns a page fetch selects.
func (d *Descriptor) Columns() []string { return slices.Clone(d.columns) }

// ColumnType returns the declared type of column.
func (d *Descriptor) ColumnType(column string) resource.ValueType { return d.types[column] }

// Scope returns the mandatory scope predicate.
func (d *Descriptor) Scope() scope.Predicate { return d.scope }

// Conditions returns the AND-ed conditions: scope equalities first, then user filters.
func (d *Descriptor) Conditions() []filter.Condition {
	bindings := d.scope.Bindings()
	out := make([]filter.Condition, 0, len(bindings)+len(d.must))
	for _, b := range bindings {
		out = append(out, filter.Eq(b.Column, b.Value))
	}
	return append(out, d.must...)
}

// AnyOf returns the OR groups.
func (d *Descriptor) AnyOf() [][]filter.Condition {
	out := make([][]filter.Condition, len(d.anyOf))
	for i, g := range d.anyOf {
		out[i] = slices.Clone(g)
	}
	return out
}

// Sort returns the primary ordering.
func (d *Descriptor) Sort() sort.Spec { return d.sort }

// TieBreaker returns the column appended to the ordering for a stable page
// order, or "" when the sort already is on the primary key.
func (d *Descriptor) TieBreaker() string {
	if d.sort.Column() == d.primaryKey {
		return ""
	}
	return d.primaryKey
}

// Skip returns the number of matching records before the page.
func (d *Descriptor) Skip() int { return d.skip }

// Take returns the page size.
func (d *Descriptor) Take() int { return d.take }

func (d *Descriptor) String() string {
	var parts []string
	for _, c := range d.Conditions() {
		parts = append(parts, c.String())
	}
	for _, g := range d.anyOf {
		var or []string
		for _, c := range g {
			or = append(or, c.String())
		}
		parts = append(parts, "("+strings.Join(or, " or ")+")")
	}
	return fmt.Sprintf("%s where %s order by %s skip %d take %d",
		d.source, strings.Join(parts, " and "), d.sort, d.skip, d.take)
}
