package scope

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/kailas-cloud/scopeq/internal/domain"
	"github.com/kailas-cloud/scopeq/internal/domain/principal"
	"github.com/kailas-cloud/scopeq/internal/domain/resource"
)

// Binding is one mandatory column equality.
type Binding struct {
	Column string
	Value  string
}

// Predicate is the ordered set of equalities every query on a resource must carry.
type Predicate struct {
	bindings []Binding
}

// Bindings returns a copy of the mandatory equalities in rule order.
func (p Predicate) Bindings() []Binding {
	out := make([]Binding, len(p.bindings))
	copy(out, p.bindings)
	return out
}

// IsEmpty reports whether the predicate binds nothing.
func (p Predicate) IsEmpty() bool { return len(p.bindings) == 0 }

// Binds reports whether column is bound.
func (p Predicate) Binds(column string) bool {
	for _, b := range p.bindings {
		if b.Column == column {
			return true
		}
	}
	return false
}

// Value returns the bound value of column.
func (p Predicate) Value(column string) (string, bool) {
	for _, b := range p.bindings {
		if b.Column == column {
			return b.Value, true
		}
	}
	return "", false
}

func (p Predicate) String() string {
	parts := make([]string, 0, len(p.bindings))
	for _, b := range p.bindings {
		parts = append(parts, fmt.Sprintf("%s=%s", b.Column, b.Value))
	}
	return strings.Join(parts, ",")
}

// Resolve derives the mandatory predicate for searching def as p.
// A rule whose principal attribute is empty fails with a ScopeError unless
// the principal's role is exempt from it.
func Resolve(p principal.Principal, def *resource.Definition) (Predicate, error) {
	var bindings []Binding
	for _, rule := range def.Scopes {
		if rule.Exempts(p.Role()) {
			continue
		}
		var value string
		switch rule.Kind {
		case resource.Tenant:
			value = p.TenantID()
		case resource.Organization:
			value = p.OrganizationID()
		case resource.Owner:
			value = p.ID()
		default:
			return Predicate{}, fmt.Errorf("unsupported scope kind %q", rule.Kind)
		}
		if value == "" {
			return Predicate{}, domain.NewScopeError(def.Name, rule.Column)
		}
		bindings = append(bindings, Binding{Column: rule.Column, Value: value})
	}
	return Predicate{bindings: bindings}, nil
}

// OwnerMismatch reports whether params address an owner other than p
// through an owner rule's parameter. Such requests must yield an empty page.
func OwnerMismatch(p principal.Principal, def *resource.Definition, params map[string]any) bool {
	for _, rule := range def.Scopes {
		if rule.Kind != resource.Owner || rule.Param == "" {
			continue
		}
		raw, ok := params[rule.Param]
		if !ok {
			continue
		}
		requested, ok := ownerValue(raw)
		if !ok {
			continue
		}
		if !sameID(requested, p.ID()) {
			return true
		}
	}
	return false
}

func ownerValue(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		s := strings.TrimSpace(v)
		return s, s != ""
	case []string:
		if len(v) == 1 {
			return ownerValue(v[0])
		}
		return "", len(v) > 1
	case []any:
		if len(v) == 1 {
			return ownerValue(v[0])
		}
		return "", len(v) > 1
	default:
		return "", false
	}
}

func sameID(a, b string) bool {
	if a == b {
		return true
	}
	ua, errA := uuid.Parse(a)
	ub, errB := uuid.Parse(b)
	return errA == nil && errB == nil && ua == ub
}

// Shadowed splits params into those a filter may still apply and the names of
// declared filters addressing a column the predicate already binds. Shadowed
// values are never coerced.
func Shadowed(def *resource.Definition, sc Predicate, params map[string]any) (map[string]any, []string) {
	var names []string
	for _, f := range def.Filters {
		if _, ok := params[f.Param]; ok && sc.Binds(f.Column) {
			names = append(names, f.Param)
		}
	}
	if len(names) == 0 {
		return params, nil
	}
	kept := make(map[string]any, len(params)-len(names))
	for k, v := range params {
		if !slices.Contains(names, k) {
			kept[k] = v
		}
	}
	slices.Sort(names)
	return kept, names
}

// OwnerUnmatchable reports whether an owner rule binds p's id to a UUID
// column the id cannot be stored in. No row can match such a predicate.
func OwnerUnmatchable(p principal.Principal, def *resource.Definition) bool {
	for _, rule := range def.Scopes {
		if rule.Kind != resource.Owner || rule.Exempts(p.Role()) {
			continue
		}
		col, ok := def.Column(rule.Column)
		if !ok || col.Type != resource.UUID {
			continue
		}
		if _, err := uuid.Parse(p.ID()); err != nil {
			return true
		}
	}
	return false
}
