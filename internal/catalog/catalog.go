package catalog

import (
	"fmt"
	"slices"

	"github.com/kailas-cloud/scopeq/internal/domain"
	"github.com/kailas-cloud/scopeq/internal/domain/principal"
	"github.com/kailas-cloud/scopeq/internal/domain/resource"
	"github.com/kailas-cloud/scopeq/internal/domain/search/page"
)

// Registry is an immutable set of validated resource definitions.
type Registry struct {
	defs  map[string]resource.Definition
	names []string
}

// New validates defs and creates a Registry.
func New(defs ...resource.Definition) (*Registry, error) {
	r := &Registry{defs: make(map[string]resource.Definition, len(defs))}
	for _, d := range defs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.defs[d.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate resource %s", domain.ErrInvalidSchema, d.Name)
		}
		r.defs[d.Name] = d
		r.names = append(r.names, d.Name)
	}
	slices.Sort(r.names)
	return r, nil
}

// Default returns the built-in catalog.
func Default() *Registry {
	r, err := New(Builtin()...)
	if err != nil {
		panic(fmt.Sprintf("catalog: invalid builtin definitions: %v", err))
	}
	return r
}

// Get returns a copy of the definition of name.
func (r *Registry) Get(name string) (*resource.Definition, error) {
	d, ok := r.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownResource, name)
	}
	return &d, nil
}

// Names returns the resource names, sorted.
func (r *Registry) Names() []string { return slices.Clone(r.names) }

// All returns copies of every definition, sorted by name.
func (r *Registry) All() []resource.Definition {
	out := make([]resource.Definition, 0, len(r.names))
	for _, n := range r.names {
		out = append(out, r.defs[n])
	}
	return out
}

// Visible returns the definitions role may search, sorted by name.
func (r *Registry) Visible(role principal.Role) []resource.Definition {
	var out []resource.Definition
	for _, n := range r.names {
		if d := r.defs[n]; d.Allows(role) {
			out = append(out, d)
		}
	}
	return out
}

// WithPagePolicy returns a copy of r where resource name uses policy p.
func (r *Registry) WithPagePolicy(name string, p page.Policy) (*Registry, error) {
	d, ok := r.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownResource, name)
	}
	defs := make([]resource.Definition, 0, len(r.names))
	for _, n := range r.names {
		if n == name {
			defs = append(defs, d.WithPage(p))
			continue
		}
		defs = append(defs, r.defs[n])
	}
	return New(defs...)
}
