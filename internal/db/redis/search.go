package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/scopeq/internal/db"
	"github.com/kailas-cloud/scopeq/internal/domain/search/filter"
	"github.com/kailas-cloud/scopeq/internal/domain/search/query"
	"github.com/kailas-cloud/scopeq/internal/domain/search/result"
)

// Find returns the page of records q describes via FT.SEARCH.
// RediSearch sorts by a single attribute, so no primary-key tie-breaker is applied.
func (s *Store) Find(ctx context.Context, q *query.Descriptor) ([]result.Row, error) {
	args, err := buildFindArgs(q)
	if err != nil {
		return nil, err
	}

	raw, err := s.ft(ctx, "FT.SEARCH", args...).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return parseListResult(raw)
}

// Count returns the number of records matching q via FT.SEARCH with LIMIT 0 0.
func (s *Store) Count(ctx context.Context, q *query.Descriptor) (int, error) {
	args, err := buildCountArgs(q)
	if err != nil {
		return 0, err
	}

	raw, err := s.ft(ctx, "FT.SEARCH", args...).ToArray()
	if err != nil {
		return 0, &db.Error{Op: db.OpSearch, Err: err}
	}
	if len(raw) == 0 {
		return 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("parse count: %w", err)}
	}
	return int(total), nil
}

func buildFindArgs(q *query.Descriptor) ([]string, error) {
	qs, err := buildQuery(q)
	if err != nil {
		return nil, err
	}

	cols := q.Columns()
	args := []string{IndexName(q.Source()), qs, "RETURN", strconv.Itoa(len(cols))}
	args = append(args, cols...)

	dir := "ASC"
	if q.Sort().Descending() {
		dir = "DESC"
	}
	args = append(args,
		"SORTBY", q.Sort().Column(), dir,
		"LIMIT", strconv.Itoa(q.Skip()), strconv.Itoa(q.Take()),
		"DIALECT", "2",
	)
	return args, nil
}

func buildCountArgs(q *query.Descriptor) ([]string, error) {
	qs, err := buildQuery(q)
	if err != nil {
		return nil, err
	}
	return []string{IndexName(q.Source()), qs, "LIMIT", "0", "0", "DIALECT", "2"}, nil
}

// --- Result parsing ---

func parseListResult(raw []rueidis.RedisMessage) ([]result.Row, error) {
	rows := make([]result.Row, 0)
	if len(raw) == 0 {
		return rows, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("parse total: %w", err)}
	}
	if total == 0 {
		return rows, nil
	}

	// 2-stride: [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(raw); i += 2 {
		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}
		rows = append(rows, parseFieldPairs(fields))
	}

	return rows, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) result.Row {
	row := make(result.Row, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		row[name] = value
	}
	return row
}

// --- Query building ---

// buildQuery renders the predicate of q as an FT.SEARCH query string.
// Clauses are AND-ed by juxtaposition; OR groups use "|".
func buildQuery(q *query.Descriptor) (string, error) {
	var parts []string
	for _, c := range q.Conditions() {
		part, err := buildCondition(q, c)
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}
	for _, group := range q.AnyOf() {
		or := make([]string, 0, len(group))
		for _, c := range group {
			part, err := buildCondition(q, c)
			if err != nil {
				return "", err
			}
			or = append(or, part)
		}
		parts = append(parts, "("+strings.Join(or, " | ")+")")
	}
	if len(parts) == 0 {
		return "*", nil
	}
	return strings.Join(parts, " "), nil
}

func buildCondition(q *query.Descriptor, c filter.Condition) (string, error) {
	col := c.Column()
	tag := isTag(q.ColumnType(col))

	switch c.Op() {
	case filter.OpIsNull:
		return fmt.Sprintf("ismissing(@%s)", col), nil

	case filter.OpContains:
		if !tag {
			return "", unsupported(c)
		}
		return fmt.Sprintf("@%s:{*%s*}", col, tagEscaper.Replace(fmt.Sprint(c.Value()))), nil

	case filter.OpEq:
		if tag {
			return buildTagFilter(col, c.Value()), nil
		}
		n, err := numeric(c.Value())
		if err != nil {
			return "", err
		}
		return buildNumericFilter(col, n, n), nil

	case filter.OpGte, filter.OpLte:
		if tag {
			return "", unsupported(c)
		}
		n, err := numeric(c.Value())
		if err != nil {
			return "", err
		}
		if c.Op() == filter.OpGte {
			return buildNumericFilter(col, n, "+inf"), nil
		}
		return buildNumericFilter(col, "-inf", n), nil

	case filter.OpIn:
		vals := c.Values()
		if len(vals) == 0 {
			return "", unsupported(c)
		}
		if tag {
			escaped := make([]string, len(vals))
			for i, v := range vals {
				escaped[i] = tagEscaper.Replace(fmt.Sprint(v))
			}
			return fmt.Sprintf("@%s:{%s}", col, strings.Join(escaped, " | ")), nil
		}
		or := make([]string, len(vals))
		for i, v := range vals {
			n, err := numeric(v)
			if err != nil {
				return "", err
			}
			or[i] = buildNumericFilter(col, n, n)
		}
		return "(" + strings.Join(or, " | ") + ")", nil

	default:
		return "", unsupported(c)
	}
}

func unsupported(c filter.Condition) error {
	return &db.Error{Op: db.OpSearch, Err: fmt.Errorf("%w: %s", db.ErrUnsupported, c)}
}

func buildTagFilter(key string, value any) string {
	return fmt.Sprintf("@%s:{%s}", key, tagEscaper.Replace(fmt.Sprint(value)))
}

func buildNumericFilter(key, lo, hi string) string {
	return fmt.Sprintf("@%s:[%s %s]", key, lo, hi)
}

// numeric renders v the way NUMERIC attributes are stored: times as Unix
// milliseconds and booleans as 0/1.
func numeric(v any) (string, error) {
	switch t := v.(type) {
	case int64:
		return strconv.FormatInt(t, 10), nil
	case int:
		return strconv.Itoa(t), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case bool:
		if t {
			return "1", nil
		}
		return "0", nil
	case time.Time:
		return strconv.FormatInt(t.UnixMilli(), 10), nil
	case string:
		if _, err := strconv.ParseFloat(t, 64); err == nil {
			return t, nil
		}
	}
	return "", &db.Error{Op: db.OpSearch, Err: fmt.Errorf("%w: non-numeric value %v", db.ErrUnsupported, v)}
}

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"[", "\\[",
	"]", "\\]",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"|", "\\|",
	"/", "\\/",
	"\\", "\\\\",
	" ", "\\ ",
)
