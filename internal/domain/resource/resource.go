package resource

import (
	"fmt"
	"regexp"
	"slices"

	"github.com/kailas-cloud/scopeq/internal/domain"
	"github.com/kailas-cloud/scopeq/internal/domain/principal"
	"github.com/kailas-cloud/scopeq/internal/domain/search/page"
	"github.com/kailas-cloud/scopeq/internal/domain/search/sort"
)

var identRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// ValueType is the storage type of a column.
type ValueType string

// Column value types.
const (
	String ValueType = "string"
	Int    ValueType = "int"
	Float  ValueType = "float"
	Bool   ValueType = "bool"
	Time   ValueType = "time"
	UUID   ValueType = "uuid"
)

// IsNumeric reports whether values of t compare numerically.
func (t ValueType) IsNumeric() bool { return t == Int || t == Float || t == Time }

// Column is a declared storage column.
type Column struct {
	Name      string
	Type      ValueType
	Sensitive bool
}

// ScopeKind is the partitioning model of a scope rule.
type ScopeKind string

// Scope kinds.
const (
	Tenant       ScopeKind = "tenant"
	Organization ScopeKind = "organization"
	Owner        ScopeKind = "owner"
)

// ScopeRule binds a column to a principal attribute.
// Param names the request filter addressing the same column, if any.
// ExemptRoles may search across the partition; owner rules ignore it.
type ScopeRule struct {
	Kind        ScopeKind
	Column      string
	Param       string
	ExemptRoles []principal.Role
}

// Exempts reports whether role bypasses the rule.
func (r ScopeRule) Exempts(role principal.Role) bool {
	if r.Kind == Owner {
		return false
	}
	return slices.Contains(r.ExemptRoles, role)
}

// MatchKind is how a filter value is compared to its column.
type MatchKind string

// Match kinds.
const (
	Equals   MatchKind = "equals"
	Contains MatchKind = "contains"
	Enum     MatchKind = "enum"
	In       MatchKind = "in"
)

// FieldSpec declares one filterable request parameter.
type FieldSpec struct {
	Param    string
	Column   string
	Kind     MatchKind
	Values   []string // enum members
	Nullable bool     // explicit null filters on IS NULL
}

// RangeSpec declares a pair of inclusive bound parameters on one column.
type RangeSpec struct {
	FromParam string
	ToParam   string
	Column    string
}

// KeywordSpec declares a free-text parameter fanned out as OR of substring matches.
type KeywordSpec struct {
	Param   string
	Columns []string
}

// ProjectedField maps a storage column to a response field.
type ProjectedField struct {
	Name   string
	Column string
}

// Definition is the declared search schema of one resource.
type Definition struct {
	Name       string
	Source     string
	PrimaryKey string
	Columns    []Column
	Roles      []principal.Role
	Scopes     []ScopeRule
	Filters    []FieldSpec
	Ranges     []RangeSpec
	Keywords   []KeywordSpec
	Sort       sort.Allowlist
	Page       page.Policy
	Projection []ProjectedField
}

// Column returns the declared column by name.
func (d *Definition) Column(name string) (Column, bool) {
	for _, c := range d.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Allows reports whether role may search the resource.
func (d *Definition) Allows(role principal.Role) bool {
	return slices.Contains(d.Roles, role)
}

// RequiresScope reports whether any scope rule applies to role.
func (d *Definition) RequiresScope(role principal.Role) bool {
	for _, r := range d.Scopes {
		if !r.Exempts(role) {
			return true
		}
	}
	return false
}

// IsScopeColumn reports whether column is bound by a scope rule.
func (d *Definition) IsScopeColumn(column string) bool {
	for _, r := range d.Scopes {
		if r.Column == column {
			return true
		}
	}
	return false
}

// SelectColumns returns the columns a page query reads: the primary key
// followed by the projected columns, without duplicates.
func (d *Definition) SelectColumns() []string {
	cols := make([]string, 0, len(d.Projection)+1)
	cols = append(cols, d.PrimaryKey)
	for _, p := range d.Projection {
		if !slices.Contains(cols, p.Column) {
			cols = append(cols, p.Column)
		}
	}
	return cols
}

// Params returns every request parameter the resource recognizes.
func (d *Definition) Params() []string {
	var out []string
	for _, f := range d.Filters {
		out = append(out, f.Param)
	}
	for _, r := range d.Ranges {
		if r.FromParam != "" {
			out = append(out, r.FromParam)
		}
		if r.ToParam != "" {
			out = append(out, r.ToParam)
		}
	}
	for _, k := range d.Keywords {
		out = append(out, k.Param)
	}
	return out
}

// Validate checks that every reference in the definition resolves.
func (d *Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: resource name is required", domain.ErrInvalidSchema)
	}
	if !identRegex.MatchString(d.Source) {
		return fmt.Errorf("%w: %s: invalid source %q", domain.ErrInvalidSchema, d.Name, d.Source)
	}
	seen := make(map[string]bool, len(d.Columns))
	for _, c := range d.Columns {
		if !identRegex.MatchString(c.Name) {
			return fmt.Errorf("%w: %s: invalid column name %q", domain.ErrInvalidSchema, d.Name, c.Name)
		}
		if seen[c.Name] {
			return fmt.Errorf("%w: %s: duplicate column %s", domain.ErrInvalidSchema, d.Name, c.Name)
		}
		seen[c.Name] = true
	}
	check := func(what, col string) error {
		if !seen[col] {
			return fmt.Errorf("%w: %s: %s references undeclared column %q", domain.ErrInvalidSchema, d.Name, what, col)
		}
		return nil
	}
	if err := check("primary key", d.PrimaryKey); err != nil {
		return err
	}
	if len(d.Roles) == 0 {
		return fmt.Errorf("%w: %s: no roles may search", domain.ErrInvalidSchema, d.Name)
	}
	for _, r := range d.Scopes {
		if err := check("scope", r.Column); err != nil {
			return err
		}
		switch r.Kind {
		case Tenant, Organization, Owner:
		default:
			return fmt.Errorf("%w: %s: invalid scope kind %q", domain.ErrInvalidSchema, d.Name, r.Kind)
		}
	}
	params := make(map[string]bool)
	addParam := func(p string) error {
		if p == "" {
			return nil
		}
		if params[p] {
			return fmt.Errorf("%w: %s: duplicate parameter %q", domain.ErrInvalidSchema, d.Name, p)
		}
		params[p] = true
		return nil
	}
	for _, f := range d.Filters {
		if err := check("filter "+f.Param, f.Column); err != nil {
			return err
		}
		if f.Param == "" {
			return fmt.Errorf("%w: %s: filter on %s has no parameter", domain.ErrInvalidSchema, d.Name, f.Column)
		}
		if f.Kind == Enum && len(f.Values) == 0 {
			return fmt.Errorf("%w: %s: enum %s has no values", domain.ErrInvalidSchema, d.Name, f.Param)
		}
		if err := addParam(f.Param); err != nil {
			return err
		}
	}
	for _, r := range d.Ranges {
		if err := check("range", r.Column); err != nil {
			return err
		}
		if r.FromParam == "" && r.ToParam == "" {
			return fmt.Errorf("%w: %s: range on %s has no parameters", domain.ErrInvalidSchema, d.Name, r.Column)
		}
		if err := addParam(r.FromParam); err != nil {
			return err
		}
		if err := addParam(r.ToParam); err != nil {
			return err
		}
	}
	for _, k := range d.Keywords {
		if len(k.Columns) == 0 {
			return fmt.Errorf("%w: %s: keyword %s has no columns", domain.ErrInvalidSchema, d.Name, k.Param)
		}
		for _, c := range k.Columns {
			if err := check("keyword "+k.Param, c); err != nil {
				return err
			}
		}
		if err := addParam(k.Param); err != nil {
			return err
		}
	}
	if len(d.Sort.Fields()) == 0 {
		return fmt.Errorf("%w: %s: sort allowlist is empty", domain.ErrInvalidSchema, d.Name)
	}
	for _, f := range d.Sort.Fields() {
		if err := check("sort "+f.Name, f.Column); err != nil {
			return err
		}
	}
	if len(d.Projection) == 0 {
		return fmt.Errorf("%w: %s: projection is empty", domain.ErrInvalidSchema, d.Name)
	}
	for _, p := range d.Projection {
		if err := check("projection "+p.Name, p.Column); err != nil {
			return err
		}
		if c, _ := d.Column(p.Column); c.Sensitive {
			return fmt.Errorf("%w: %s: sensitive column %s is projected", domain.ErrInvalidSchema, d.Name, p.Column)
		}
	}
	if c, _ := d.Column(d.PrimaryKey); c.Sensitive {
		return fmt.Errorf("%w: %s: primary key is sensitive", domain.ErrInvalidSchema, d.Name)
	}
	return nil
}

// WithPage returns a copy of d using policy p.
func (d Definition) WithPage(p page.Policy) Definition {
	d.Page = p
	return d
}
