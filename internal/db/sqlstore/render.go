package sqlstore

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/scopeq/internal/db"
	"github.com/kailas-cloud/scopeq/internal/domain/search/filter"
	"github.com/kailas-cloud/scopeq/internal/domain/search/query"
)

// statement accumulates SQL text and its bound arguments.
type statement struct {
	dialect Dialect
	q       *query.Descriptor
	args    []any
}

func (s *statement) nextArg(v any, column string) string {
	s.args = append(s.args, s.dialect.bind(v, s.q.ColumnType(column)))
	return s.dialect.placeholder(len(s.args))
}

// renderFind renders the page query of q.
func renderFind(d Dialect, q *query.Descriptor) (string, []any, error) {
	st := &statement{dialect: d, q: q}

	cols := q.Columns()
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = d.quote(c)
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(quoted, ", "))
	b.WriteString(" FROM ")
	b.WriteString(d.quote(q.Source()))

	where, err := st.where()
	if err != nil {
		return "", nil, err
	}
	b.WriteString(where)

	b.WriteString(" ORDER BY ")
	b.WriteString(d.quote(q.Sort().Column()))
	if q.Sort().Descending() {
		b.WriteString(" DESC")
	} else {
		b.WriteString(" ASC")
	}
	b.WriteString(" NULLS LAST")
	if tb := q.TieBreaker(); tb != "" {
		b.WriteString(", ")
		b.WriteString(d.quote(tb))
		b.WriteString(" ASC")
	}

	st.args = append(st.args, q.Take(), q.Skip())
	b.WriteString(" LIMIT ")
	b.WriteString(d.placeholder(len(st.args) - 1))
	b.WriteString(" OFFSET ")
	b.WriteString(d.placeholder(len(st.args)))

	return b.String(), st.args, nil
}

// renderCount renders the total-count query of q.
func renderCount(d Dialect, q *query.Descriptor) (string, []any, error) {
	st := &statement{dialect: d, q: q}
	where, err := st.where()
	if err != nil {
		return "", nil, err
	}
	return "SELECT COUNT(*) FROM " + d.quote(q.Source()) + where, st.args, nil
}

func (s *statement) where() (string, error) {
	var clauses []string
	for _, c := range s.q.Conditions() {
		clause, err := s.condition(c)
		if err != nil {
			return "", err
		}
		clauses = append(clauses, clause)
	}
	for _, group := range s.q.AnyOf() {
		or := make([]string, 0, len(group))
		for _, c := range group {
			clause, err := s.condition(c)
			if err != nil {
				return "", err
			}
			or = append(or, clause)
		}
		clauses = append(clauses, "("+strings.Join(or, " OR ")+")")
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), nil
}

func (s *statement) condition(c filter.Condition) (string, error) {
	col := s.dialect.quote(c.Column())
	switch c.Op() {
	case filter.OpEq:
		return col + " = " + s.nextArg(c.Value(), c.Column()), nil
	case filter.OpGte:
		return col + " >= " + s.nextArg(c.Value(), c.Column()), nil
	case filter.OpLte:
		return col + " <= " + s.nextArg(c.Value(), c.Column()), nil
	case filter.OpContains:
		return s.dialect.contains(col, s.nextArg(c.Value(), c.Column())), nil
	case filter.OpIsNull:
		return col + " IS NULL", nil
	case filter.OpIn:
		vals := c.Values()
		if len(vals) == 0 {
			return "", &db.Error{Op: db.OpFind, Err: fmt.Errorf("%w: empty IN on %s", db.ErrUnsupported, c.Column())}
		}
		ph := make([]string, len(vals))
		for i, v := range vals {
			ph[i] = s.nextArg(v, c.Column())
		}
		return col + " IN (" + strings.Join(ph, ", ") + ")", nil
	default:
		return "", &db.Error{Op: db.OpFind, Err: fmt.Errorf("%w: %s", db.ErrUnsupported, strconv.Quote(string(c.Op())))}
	}
}
