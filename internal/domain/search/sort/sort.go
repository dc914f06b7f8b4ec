package sort

import (
	"fmt"
	"strings"
)

// Direction is the ordering direction.
type Direction string

// Directions.
const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection parses asc/desc case-insensitively. ok is false for anything else.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc":
		return Asc, true
	case "desc":
		return Desc, true
	default:
		return "", false
	}
}

// Field maps a public sort key to a storage column.
type Field struct {
	Name   string
	Column string
}

// Allowlist is the fixed set of sortable fields of a resource.
type Allowlist struct {
	fields  []Field
	byName  map[string]Field
	defName string
	defDir  Direction
}

// NewAllowlist validates and creates an Allowlist.
// The default field must be one of fields; an empty default direction means Desc.
func NewAllowlist(fields []Field, defaultField string, defaultDir Direction) (Allowlist, error) {
	if len(fields) == 0 {
		return Allowlist{}, fmt.Errorf("sort allowlist is empty")
	}
	byName := make(map[string]Field, len(fields))
	for _, f := range fields {
		if f.Name == "" || f.Column == "" {
			return Allowlist{}, fmt.Errorf("sort field requires name and column")
		}
		if _, dup := byName[f.Name]; dup {
			return Allowlist{}, fmt.Errorf("duplicate sort field: %s", f.Name)
		}
		byName[f.Name] = f
	}
	if _, ok := byName[defaultField]; !ok {
		return Allowlist{}, fmt.Errorf("default sort field %q not in allowlist", defaultField)
	}
	if defaultDir == "" {
		defaultDir = Desc
	}
	if defaultDir != Asc && defaultDir != Desc {
		return Allowlist{}, fmt.Errorf("invalid default sort direction: %q", defaultDir)
	}
	return Allowlist{fields: fields, byName: byName, defName: defaultField, defDir: defaultDir}, nil
}

// MustAllowlist is NewAllowlist that panics on error. For static catalogs.
func MustAllowlist(fields []Field, defaultField string, defaultDir Direction) Allowlist {
	a, err := NewAllowlist(fields, defaultField, defaultDir)
	if err != nil {
		panic(err)
	}
	return a
}

// Fields returns the allowed fields in declaration order.
func (a Allowlist) Fields() []Field { return a.fields }

// Default returns the default sort.
func (a Allowlist) Default() Spec {
	return Spec{field: a.byName[a.defName], direction: a.defDir}
}

// Lookup returns the allowed field for name.
func (a Allowlist) Lookup(name string) (Field, bool) {
	f, ok := a.byName[name]
	return f, ok
}

// Spec is a resolved, allowlisted sort.
type Spec struct {
	field     Field
	direction Direction
}

// Field returns the sort field.
func (s Spec) Field() Field { return s.field }

// Column returns the storage column to order by.
func (s Spec) Column() string { return s.field.Column }

// Direction returns the sort direction.
func (s Spec) Direction() Direction { return s.direction }

// Descending reports whether the sort is descending.
func (s Spec) Descending() bool { return s.direction == Desc }

func (s Spec) String() string { return s.field.Name + " " + string(s.direction) }

// Resolve maps a requested field and direction onto the allowlist.
// Unknown or empty fields fall back to the default field, unknown directions
// to the default direction. Never fails.
func Resolve(a Allowlist, field, direction string) Spec {
	spec := a.Default()
	if f, ok := a.Lookup(strings.TrimSpace(field)); ok {
		spec.field = f
	}
	if d, ok := ParseDirection(direction); ok {
		spec.direction = d
	}
	return spec
}
