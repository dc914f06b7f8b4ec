package result

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/scopeq/internal/domain/resource"
)

// TimeLayout is the one timestamp format responses use: RFC 3339, UTC, milliseconds.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

var storedTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// FormatTime renders a stored timestamp in TimeLayout.
// It accepts time.Time, date strings in common storage layouts and Unix
// milliseconds. ok is false for null, zero and unparseable values.
func FormatTime(v any) (string, bool) {
	t, ok := parseTime(v)
	if !ok || t.IsZero() {
		return "", false
	}
	return t.UTC().Format(TimeLayout), true
}

func parseTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	case []byte:
		return parseTime(string(t))
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.UnixMilli(ms), true
		}
		for _, layout := range storedTimeLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts, true
			}
		}
		return time.Time{}, false
	case int64:
		return time.UnixMilli(t), true
	case int:
		return time.UnixMilli(int64(t)), true
	case float64:
		return time.UnixMilli(int64(t)), true
	case json.Number:
		ms, err := t.Int64()
		if err != nil {
			return time.Time{}, false
		}
		return time.UnixMilli(ms), true
	default:
		return time.Time{}, false
	}
}

// normalize converts a stored value into the JSON-ready form of its column type.
func normalize(v any, typ resource.ValueType) (any, bool) {
	if v == nil {
		return nil, false
	}
	switch typ {
	case resource.Time:
		return FormatTime(v)
	case resource.Int:
		return toInt(v)
	case resource.Float:
		return toFloat(v)
	case resource.Bool:
		return toBool(v)
	default:
		switch t := v.(type) {
		case []byte:
			return string(t), true
		case *string:
			if t == nil {
				return nil, false
			}
			return *t, true
		default:
			return v, true
		}
	}
}

func toInt(v any) (any, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case float64:
		if t != math.Trunc(t) {
			return t, true
		}
		return int64(t), true
	case []byte:
		return toInt(string(t))
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return nil, false
		}
		return n, true
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return nil, false
		}
		return n, true
	default:
		return nil, false
	}
}

func toFloat(v any) (any, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	case []byte:
		return toFloat(string(t))
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return nil, false
		}
		return f, true
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, false
		}
		return f, true
	default:
		return nil, false
	}
}

func toBool(v any) (any, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case int64:
		return t != 0, true
	case []byte:
		return toBool(string(t))
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return nil, false
		}
		return b, true
	default:
		return nil, false
	}
}
