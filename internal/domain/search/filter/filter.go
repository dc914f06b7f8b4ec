package filter

import (
	"fmt"
	"slices"
)

// MaxConditionsPerGroup is the maximum number of conditions per filter group.
const MaxConditionsPerGroup = 32

// Op is a comparison operator.
type Op string

// Operators.
const (
	OpEq       Op = "eq"
	OpContains Op = "contains"
	OpGte      Op = "gte"
	OpLte      Op = "lte"
	OpIn       Op = "in"
	OpIsNull   Op = "is_null"
)

// Expression is an AND of must conditions and of OR groups.
type Expression struct {
	must  []Condition
	anyOf [][]Condition
}

// NewExpression validates and creates an Expression.
func NewExpression(must []Condition, anyOf [][]Condition) (Expression, error) {
	if len(must) > MaxConditionsPerGroup {
		return Expression{}, fmt.Errorf("too many must conditions (max %d)", MaxConditionsPerGroup)
	}
	for _, g := range anyOf {
		if len(g) > MaxConditionsPerGroup {
			return Expression{}, fmt.Errorf("too many conditions in OR group (max %d)", MaxConditionsPerGroup)
		}
	}
	return Expression{must: slices.Clone(must), anyOf: cloneGroups(anyOf)}, nil
}

// Must returns the conditions that all have to hold.
func (e Expression) Must() []Condition { return slices.Clone(e.must) }

// AnyOf returns the OR groups; at least one condition of every group has to hold.
func (e Expression) AnyOf() [][]Condition { return cloneGroups(e.anyOf) }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool { return len(e.must) == 0 && len(e.anyOf) == 0 }

// Without returns a copy of e without conditions on the given columns,
// together with the removed conditions. Groups left empty are dropped.
func (e Expression) Without(columns func(string) bool) (Expression, []Condition) {
	var dropped []Condition
	keep := func(cs []Condition) []Condition {
		out := make([]Condition, 0, len(cs))
		for _, c := range cs {
			if columns(c.column) {
				dropped = append(dropped, c)
				continue
			}
			out = append(out, c)
		}
		return out
	}
	out := Expression{must: keep(e.must)}
	for _, g := range e.anyOf {
		if kept := keep(g); len(kept) > 0 {
			out.anyOf = append(out.anyOf, kept)
		}
	}
	return out, dropped
}

func cloneGroups(groups [][]Condition) [][]Condition {
	if groups == nil {
		return nil
	}
	out := make([][]Condition, len(groups))
	for i, g := range groups {
		out[i] = slices.Clone(g)
	}
	return out
}

// Condition is a single predicate on one column.
type Condition struct {
	param  string
	column string
	op     Op
	value  any
	values []any
}

// Eq creates an equality condition.
func Eq(column string, v any) Condition { return Condition{column: column, op: OpEq, value: v} }

// Contain creates a case-sensitive substring condition.
func Contain(column, s string) Condition {
	return Condition{column: column, op: OpContains, value: s}
}

// Gte creates an inclusive lower bound.
func Gte(column string, v any) Condition { return Condition{column: column, op: OpGte, value: v} }

// Lte creates an inclusive upper bound.
func Lte(column string, v any) Condition { return Condition{column: column, op: OpLte, value: v} }

// In creates a set membership condition.
func In(column string, vs []any) Condition {
	return Condition{column: column, op: OpIn, values: slices.Clone(vs)}
}

// Null creates an IS NULL condition.
func Null(column string) Condition { return Condition{column: column, op: OpIsNull} }

// From returns a copy of c attributed to the request parameter param.
func (c Condition) From(param string) Condition {
	c.param = param
	return c
}

// Param returns the request parameter the condition came from, if any.
func (c Condition) Param() string { return c.param }

// Column returns the storage column.
func (c Condition) Column() string { return c.column }

// Op returns the operator.
func (c Condition) Op() Op { return c.op }

// Value returns the operand of single-value operators.
func (c Condition) Value() any { return c.value }

// Values returns the operands of OpIn.
func (c Condition) Values() []any { return slices.Clone(c.values) }

func (c Condition) String() string {
	switch c.op {
	case OpIn:
		return fmt.Sprintf("%s in %v", c.column, c.values)
	case OpIsNull:
		return c.column + " is null"
	default:
		return fmt.Sprintf("%s %s %v", c.column, c.op, c.value)
	}
}
