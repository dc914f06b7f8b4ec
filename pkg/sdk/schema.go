package scopeq

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"
)

const tagKey = "scopeq"

var timeType = reflect.TypeFor[time.Time]()

// schemaMeta holds parsed struct tag metadata, cached per TypedResource.
type schemaMeta struct {
	typ    reflect.Type
	fields []fieldMapping
}

type fieldMapping struct {
	structIdx int
	name      string
}

// parseSchema reflects on T and maps `scopeq:"name"` tags to summary keys.
// Untagged fields and fields tagged "-" are left alone.
func parseSchema[T any]() (*schemaMeta, error) {
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("scopeq: type %s is not a struct", t)
	}

	meta := &schemaMeta{typ: t}
	seen := make(map[string]string)
	for i := range t.NumField() {
		f := t.Field(i)
		name := f.Tag.Get(tagKey)
		if name == "" || name == "-" {
			continue
		}
		if !f.IsExported() {
			return nil, fmt.Errorf("scopeq: tagged field %s is not exported", f.Name)
		}
		if prev, ok := seen[name]; ok {
			return nil, fmt.Errorf("scopeq: fields %s and %s both map %q", prev, f.Name, name)
		}
		if !assignable(f.Type) {
			return nil, fmt.Errorf("scopeq: field %s has unsupported type %s", f.Name, f.Type)
		}
		seen[name] = f.Name
		meta.fields = append(meta.fields, fieldMapping{structIdx: i, name: name})
	}
	if len(meta.fields) == 0 {
		return nil, fmt.Errorf("scopeq: no field with `scopeq:\"...\"` tag in %s", t)
	}
	return meta, nil
}

// validate checks that every tagged name is in the resource's projection.
func (m *schemaMeta) validate(def *Resource) error {
	projected := make(map[string]bool, len(def.Projection))
	for _, p := range def.Projection {
		projected[p.Name] = true
	}
	for _, f := range m.fields {
		if !projected[f.name] {
			return fmt.Errorf("scopeq: %s does not project %q", def.Name, f.name)
		}
	}
	return nil
}

// fromSummary converts a summary into a new T value. Absent keys keep zero values.
func (m *schemaMeta) fromSummary(s Summary) (reflect.Value, error) {
	v := reflect.New(m.typ).Elem()
	for _, f := range m.fields {
		raw, ok := s.Get(f.name)
		if !ok || raw == nil {
			continue
		}
		if err := assign(v.Field(f.structIdx), raw); err != nil {
			return reflect.Value{}, fmt.Errorf("field %q: %w", f.name, err)
		}
	}
	return v, nil
}

func assignable(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == timeType {
		return true
	}
	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func assign(dst reflect.Value, raw any) error {
	if dst.Kind() == reflect.Pointer {
		elem := reflect.New(dst.Type().Elem())
		if err := assign(elem.Elem(), raw); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	}

	if dst.Type() == timeType {
		s, ok := raw.(string)
		if !ok {
			return fmt.Errorf("cannot decode %T into time.Time", raw)
		}
		ts, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("parse time: %w", err)
		}
		dst.Set(reflect.ValueOf(ts))
		return nil
	}

	switch dst.Kind() {
	case reflect.String:
		if s, ok := raw.(string); ok {
			dst.SetString(s)
		} else {
			dst.SetString(fmt.Sprint(raw))
		}
	case reflect.Bool:
		b, ok := raw.(bool)
		if !ok {
			return fmt.Errorf("cannot decode %T into bool", raw)
		}
		dst.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := toInt64(raw)
		if err != nil {
			return err
		}
		if dst.OverflowInt(n) {
			return fmt.Errorf("%d overflows %s", n, dst.Type())
		}
		dst.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := toInt64(raw)
		if err != nil {
			return err
		}
		if n < 0 || dst.OverflowUint(uint64(n)) {
			return fmt.Errorf("%d overflows %s", n, dst.Type())
		}
		dst.SetUint(uint64(n))
	case reflect.Float32, reflect.Float64:
		f, err := toFloat64(raw)
		if err != nil {
			return err
		}
		dst.SetFloat(f)
	default:
		return fmt.Errorf("unsupported kind %s", dst.Kind())
	}
	return nil
}

func toInt64(raw any) (int64, error) {
	switch n := raw.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		if n != float64(int64(n)) {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		return int64(n), nil
	case json.Number:
		return n.Int64()
	default:
		return 0, fmt.Errorf("cannot decode %T into an integer", raw)
	}
}

func toFloat64(raw any) (float64, error) {
	switch n := raw.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	default:
		return 0, fmt.Errorf("cannot decode %T into a number", raw)
	}
}
