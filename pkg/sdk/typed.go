package scopeq

import (
	"context"
	"fmt"
)

// TypedResource is a generic, schema-first handle for one catalog resource.
// Summaries are decoded into T using its `scopeq:"name"` struct tags.
type TypedResource[T any] struct {
	name   string
	client *Client
	meta   *schemaMeta
}

// NewTypedResource creates a typed handle for the named resource.
// Every tagged field of T must name a projected field of the resource.
func NewTypedResource[T any](client *Client, name string) (*TypedResource[T], error) {
	def, err := client.catalog.Get(name)
	if err != nil {
		return nil, fmt.Errorf("typed resource %q: %w", name, err)
	}
	meta, err := parseSchema[T]()
	if err != nil {
		return nil, fmt.Errorf("typed resource %q: %w", name, err)
	}
	if err := meta.validate(def); err != nil {
		return nil, fmt.Errorf("typed resource %q: %w", name, err)
	}
	return &TypedResource[T]{name: name, client: client, meta: meta}, nil
}

// Search returns a fluent search builder running on behalf of p.
func (r *TypedResource[T]) Search(p Principal) *SearchBuilder[T] {
	return &SearchBuilder[T]{res: r, principal: p, params: make(map[string]any)}
}

// Page is a typed page of search results.
type Page[T any] struct {
	Items      []T
	Pagination Pagination
}

// SearchBuilder is a fluent builder for typed searches.
type SearchBuilder[T any] struct {
	res       *TypedResource[T]
	principal Principal
	params    map[string]any
}

// Where sets a filter parameter. Repeated calls for the same param overwrite.
func (b *SearchBuilder[T]) Where(param string, value any) *SearchBuilder[T] {
	b.params[param] = value
	return b
}

// In sets a set-membership filter parameter.
func (b *SearchBuilder[T]) In(param string, values ...any) *SearchBuilder[T] {
	b.params[param] = values
	return b
}

// Between sets the bounds of a range filter. A nil bound is left open.
func (b *SearchBuilder[T]) Between(fromParam, toParam string, from, to any) *SearchBuilder[T] {
	if from != nil {
		b.params[fromParam] = from
	}
	if to != nil {
		b.params[toParam] = to
	}
	return b
}

// SortBy orders results by an allowlisted sort key, ascending.
func (b *SearchBuilder[T]) SortBy(key string) *SearchBuilder[T] {
	b.params["sort"] = key
	b.params["sortDirection"] = "asc"
	return b
}

// SortByDesc orders results by an allowlisted sort key, descending.
func (b *SearchBuilder[T]) SortByDesc(key string) *SearchBuilder[T] {
	b.params["sort"] = key
	b.params["sortDirection"] = "desc"
	return b
}

// Page selects the 1-based page.
func (b *SearchBuilder[T]) Page(n int) *SearchBuilder[T] {
	b.params["page"] = n
	return b
}

// Limit sets the page size. The resource's page policy applies.
func (b *SearchBuilder[T]) Limit(n int) *SearchBuilder[T] {
	b.params["limit"] = n
	return b
}

// Do executes the search and decodes the page.
func (b *SearchBuilder[T]) Do(ctx context.Context) (Page[T], error) {
	resp, err := b.res.client.Search(ctx, b.principal, b.res.name, b.params)
	if err != nil {
		return Page[T]{}, err
	}

	items := make([]T, 0, len(resp.Data))
	for i, s := range resp.Data {
		v, err := b.res.meta.fromSummary(s)
		if err != nil {
			return Page[T]{}, fmt.Errorf("decode %s item %d: %w", b.res.name, i, err)
		}
		item, ok := v.Interface().(T)
		if !ok {
			return Page[T]{}, fmt.Errorf("decode %s item %d: type assertion failed", b.res.name, i)
		}
		items = append(items, item)
	}
	return Page[T]{Items: items, Pagination: resp.Pagination}, nil
}
