package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/kailas-cloud/scopeq/internal/db"
	"github.com/kailas-cloud/scopeq/internal/domain/search/filter"
	"github.com/kailas-cloud/scopeq/internal/domain/search/query"
	"github.com/kailas-cloud/scopeq/internal/domain/search/result"
)

// Find returns the page of documents q describes via _search.
func (s *Store) Find(ctx context.Context, q *query.Descriptor) ([]result.Row, error) {
	body, err := buildSearchBody(q)
	if err != nil {
		return nil, err
	}

	res, err := esapi.SearchRequest{
		Index: []string{IndexName(q.Source())},
		Body:  bytes.NewReader(body),
	}.Do(ctx, s.client)
	if err != nil {
		return nil, &db.Error{Op: db.OpESSearch, Err: err}
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, responseError(db.OpESSearch, res)
	}

	var resp struct {
		Hits struct {
			Hits []struct {
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	dec := json.NewDecoder(res.Body)
	dec.UseNumber()
	if err := dec.Decode(&resp); err != nil {
		return nil, &db.Error{Op: db.OpESSearch, Err: fmt.Errorf("decode response: %w", err)}
	}

	rows := make([]result.Row, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		rows = append(rows, result.Row(hit.Source))
	}
	return rows, nil
}

// Count returns the number of documents matching q via _count.
func (s *Store) Count(ctx context.Context, q *query.Descriptor) (int, error) {
	body, err := buildCountBody(q)
	if err != nil {
		return 0, err
	}

	res, err := esapi.CountRequest{
		Index: []string{IndexName(q.Source())},
		Body:  bytes.NewReader(body),
	}.Do(ctx, s.client)
	if err != nil {
		return 0, &db.Error{Op: db.OpESCount, Err: err}
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, responseError(db.OpESCount, res)
	}

	var resp struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return 0, &db.Error{Op: db.OpESCount, Err: fmt.Errorf("decode response: %w", err)}
	}
	return int(resp.Count), nil
}

func buildSearchBody(q *query.Descriptor) ([]byte, error) {
	qry, err := buildQuery(q)
	if err != nil {
		return nil, err
	}

	order := "asc"
	if q.Sort().Descending() {
		order = "desc"
	}
	sorts := []any{
		map[string]any{q.Sort().Column(): map[string]any{"order": order, "missing": "_last"}},
	}
	if tb := q.TieBreaker(); tb != "" {
		sorts = append(sorts, map[string]any{tb: map[string]any{"order": "asc"}})
	}

	return json.Marshal(map[string]any{
		"query":   qry,
		"from":    q.Skip(),
		"size":    q.Take(),
		"sort":    sorts,
		"_source": q.Columns(),
	})
}

func buildCountBody(q *query.Descriptor) ([]byte, error) {
	qry, err := buildQuery(q)
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]any{"query": qry})
}

// buildQuery renders the predicate of q as a bool query in filter context.
func buildQuery(q *query.Descriptor) (map[string]any, error) {
	var clauses []any
	for _, c := range q.Conditions() {
		clause, err := buildCondition(c)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, clause)
	}
	for _, group := range q.AnyOf() {
		should := make([]any, 0, len(group))
		for _, c := range group {
			clause, err := buildCondition(c)
			if err != nil {
				return nil, err
			}
			should = append(should, clause)
		}
		clauses = append(clauses, map[string]any{
			"bool": map[string]any{"should": should, "minimum_should_match": 1},
		})
	}
	if len(clauses) == 0 {
		return map[string]any{"match_all": map[string]any{}}, nil
	}
	return map[string]any{"bool": map[string]any{"filter": clauses}}, nil
}

func buildCondition(c filter.Condition) (map[string]any, error) {
	col := c.Column()
	switch c.Op() {
	case filter.OpEq:
		return map[string]any{"term": map[string]any{col: value(c.Value())}}, nil
	case filter.OpIn:
		vals := c.Values()
		if len(vals) == 0 {
			return nil, unsupported(c)
		}
		out := make([]any, len(vals))
		for i, v := range vals {
			out[i] = value(v)
		}
		return map[string]any{"terms": map[string]any{col: out}}, nil
	case filter.OpGte:
		return map[string]any{"range": map[string]any{col: map[string]any{"gte": value(c.Value())}}}, nil
	case filter.OpLte:
		return map[string]any{"range": map[string]any{col: map[string]any{"lte": value(c.Value())}}}, nil
	case filter.OpContains:
		pattern := "*" + wildcardEscaper.Replace(fmt.Sprint(c.Value())) + "*"
		return map[string]any{"wildcard": map[string]any{col: map[string]any{"value": pattern}}}, nil
	case filter.OpIsNull:
		return map[string]any{"bool": map[string]any{
			"must_not": []any{map[string]any{"exists": map[string]any{"field": col}}},
		}}, nil
	default:
		return nil, unsupported(c)
	}
}

// value converts times to epoch milliseconds, matching the date mapping.
func value(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.UnixMilli()
	}
	return v
}

func unsupported(c filter.Condition) error {
	return &db.Error{Op: db.OpESSearch, Err: fmt.Errorf("%w: %s", db.ErrUnsupported, c)}
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)
