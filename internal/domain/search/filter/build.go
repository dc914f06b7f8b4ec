package filter

import (
	"slices"

	"github.com/kailas-cloud/scopeq/internal/domain"
	"github.com/kailas-cloud/scopeq/internal/domain/resource"
)

// Build turns request parameters into an Expression using the declared filter
// table of def. Parameters the resource does not declare are ignored.
func Build(def *resource.Definition, params map[string]any) (Expression, error) {
	var must []Condition
	var anyOf [][]Condition

	for _, f := range def.Filters {
		raw, present := params[f.Param]
		if !present {
			continue
		}
		if raw == nil && f.Nullable {
			must = append(must, Null(f.Column).From(f.Param))
			continue
		}
		if isAbsent(raw) {
			continue
		}
		c, err := buildField(def, f, raw)
		if err != nil {
			return Expression{}, err
		}
		must = append(must, c.From(f.Param))
	}

	for _, r := range def.Ranges {
		typ := columnType(def, r.Column)
		for _, bound := range []struct {
			param string
			mk    func(string, any) Condition
		}{
			{r.FromParam, Gte},
			{r.ToParam, Lte},
		} {
			if bound.param == "" {
				continue
			}
			raw := params[bound.param]
			if isAbsent(raw) {
				continue
			}
			v, err := single(bound.param, raw)
			if err != nil {
				return Expression{}, err
			}
			val, err := Coerce(bound.param, v, typ)
			if err != nil {
				return Expression{}, err
			}
			must = append(must, bound.mk(r.Column, val).From(bound.param))
		}
	}

	for _, k := range def.Keywords {
		raw := params[k.Param]
		if isAbsent(raw) {
			continue
		}
		v, err := single(k.Param, raw)
		if err != nil {
			return Expression{}, err
		}
		s, err := coerceString(k.Param, v)
		if err != nil {
			return Expression{}, err
		}
		group := make([]Condition, 0, len(k.Columns))
		for _, col := range k.Columns {
			group = append(group, Contain(col, s.(string)).From(k.Param))
		}
		anyOf = append(anyOf, group)
	}

	expr, err := NewExpression(must, anyOf)
	if err != nil {
		return Expression{}, domain.NewValidationError("filters", "%s", err.Error())
	}
	return expr, nil
}

// Ignored returns the request parameters def does not declare, sorted.
func Ignored(def *resource.Definition, params map[string]any) []string {
	known := def.Params()
	var out []string
	for p := range params {
		if !slices.Contains(known, p) {
			out = append(out, p)
		}
	}
	slices.Sort(out)
	return out
}

func buildField(def *resource.Definition, f resource.FieldSpec, raw any) (Condition, error) {
	typ := columnType(def, f.Column)
	switch f.Kind {
	case resource.Contains:
		v, err := single(f.Param, raw)
		if err != nil {
			return Condition{}, err
		}
		s, err := coerceString(f.Param, v)
		if err != nil {
			return Condition{}, err
		}
		return Contain(f.Column, s.(string)), nil

	case resource.Enum:
		items := list(raw)
		vals := make([]any, 0, len(items))
		for _, item := range items {
			s, err := coerceString(f.Param, item)
			if err != nil {
				return Condition{}, err
			}
			if !slices.Contains(f.Values, s.(string)) {
				return Condition{}, domain.NewValidationError(f.Param, "unknown value %q", s)
			}
			vals = append(vals, s)
		}
		return oneOrMany(f.Param, f.Column, vals)

	case resource.In:
		items := list(raw)
		vals := make([]any, 0, len(items))
		for _, item := range items {
			v, err := Coerce(f.Param, item, typ)
			if err != nil {
				return Condition{}, err
			}
			vals = append(vals, v)
		}
		return oneOrMany(f.Param, f.Column, vals)

	default:
		v, err := single(f.Param, raw)
		if err != nil {
			return Condition{}, err
		}
		val, err := Coerce(f.Param, v, typ)
		if err != nil {
			return Condition{}, err
		}
		return Eq(f.Column, val), nil
	}
}

func oneOrMany(param, column string, vals []any) (Condition, error) {
	switch len(vals) {
	case 0:
		return Condition{}, domain.NewValidationError(param, "expects at least one value")
	case 1:
		return Eq(column, vals[0]), nil
	default:
		return In(column, vals), nil
	}
}

func columnType(def *resource.Definition, column string) resource.ValueType {
	c, _ := def.Column(column)
	return c.Type
}
