package filter

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/scopeq/internal/domain"
	"github.com/kailas-cloud/scopeq/internal/domain/resource"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// isAbsent reports whether a raw request value means "not provided".
func isAbsent(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	default:
		return false
	}
}

// single unwraps one-element lists, which is how query strings deliver scalars.
func single(param string, v any) (any, error) {
	switch t := v.(type) {
	case []string:
		if len(t) != 1 {
			return nil, domain.NewValidationError(param, "expects a single value")
		}
		return t[0], nil
	case []any:
		if len(t) != 1 {
			return nil, domain.NewValidationError(param, "expects a single value")
		}
		return t[0], nil
	case map[string]any:
		return nil, domain.NewValidationError(param, "expects a scalar value")
	default:
		return v, nil
	}
}

// list flattens arrays and comma separated strings.
func list(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case []string:
		out := make([]any, 0, len(t))
		for _, s := range t {
			out = append(out, s)
		}
		return out
	case string:
		parts := strings.Split(t, ",")
		out := make([]any, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	default:
		return []any{v}
	}
}

// Coerce converts a raw request value into the Go type stored for t.
// Strings become string, ints int64, floats float64, times UTC time.Time
// and uuids their canonical string form.
func Coerce(param string, v any, t resource.ValueType) (any, error) {
	switch t {
	case resource.String, "":
		return coerceString(param, v)
	case resource.Int:
		return coerceInt(param, v)
	case resource.Float:
		return coerceFloat(param, v)
	case resource.Bool:
		return coerceBool(param, v)
	case resource.Time:
		return coerceTime(param, v)
	case resource.UUID:
		s, err := coerceString(param, v)
		if err != nil {
			return nil, err
		}
		id, err := uuid.Parse(s.(string))
		if err != nil {
			return nil, domain.NewValidationError(param, "invalid uuid %q", s)
		}
		return id.String(), nil
	default:
		return nil, fmt.Errorf("unsupported value type %q", t)
	}
}

func coerceString(param string, v any) (any, error) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), nil
	case json.Number:
		return t.String(), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(t), nil
	default:
		return nil, domain.NewValidationError(param, "expects a string")
	}
}

func coerceInt(param string, v any) (any, error) {
	switch t := v.(type) {
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	case float64:
		if t != math.Trunc(t) || math.IsInf(t, 0) || math.IsNaN(t) {
			return nil, domain.NewValidationError(param, "expects an integer")
		}
		return int64(t), nil
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return nil, domain.NewValidationError(param, "expects an integer")
		}
		return n, nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return nil, domain.NewValidationError(param, "expects an integer")
		}
		return n, nil
	default:
		return nil, domain.NewValidationError(param, "expects an integer")
	}
}

func coerceFloat(param string, v any) (any, error) {
	var f float64
	var err error
	switch t := v.(type) {
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case float64:
		f = t
	case json.Number:
		f, err = t.Float64()
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(t), 64)
	default:
		err = fmt.Errorf("unsupported")
	}
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return nil, domain.NewValidationError(param, "expects a number")
	}
	return f, nil
}

func coerceBool(param string, v any) (any, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return nil, domain.NewValidationError(param, "expects a boolean")
		}
		return b, nil
	default:
		return nil, domain.NewValidationError(param, "expects a boolean")
	}
}

func coerceTime(param string, v any) (any, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case float64:
		return time.UnixMilli(int64(t)).UTC(), nil
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return nil, domain.NewValidationError(param, "expects a date")
		}
		return time.UnixMilli(n).UTC(), nil
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range dateLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts.UTC(), nil
			}
		}
		return nil, domain.NewValidationError(param, "invalid date %q", s)
	default:
		return nil, domain.NewValidationError(param, "expects a date")
	}
}
