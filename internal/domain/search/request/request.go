package request

import (
	"encoding/json"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/kailas-cloud/scopeq/internal/domain"
)

// Reserved parameter names.
const (
	ParamPage          = "page"
	ParamLimit         = "limit"
	ParamSort          = "sort"
	ParamSortDirection = "sortDirection"
	ParamOrder         = "order"
	ParamFilters       = "filters"
)

// MaxFilterParams bounds the number of filter parameters per request.
const MaxFilterParams = 64

// Request is a parsed, not yet normalized search request.
type Request struct {
	page      int
	limit     int
	sort      string
	direction string
	filters   map[string]any
}

// New creates a Request. Zero page or limit means "not provided".
func New(page, limit int, sort, direction string, filters map[string]any) Request {
	cp := make(map[string]any, len(filters))
	for k, v := range filters {
		cp[k] = v
	}
	return Request{page: page, limit: limit, sort: sort, direction: direction, filters: cp}
}

// Page returns the requested page, 0 when absent.
func (r Request) Page() int { return r.page }

// Limit returns the requested page size, 0 when absent.
func (r Request) Limit() int { return r.limit }

// Sort returns the requested sort key.
func (r Request) Sort() string { return r.sort }

// Direction returns the requested sort direction.
func (r Request) Direction() string { return r.direction }

// Filters returns a copy of the filter parameters.
func (r Request) Filters() map[string]any {
	cp := make(map[string]any, len(r.filters))
	for k, v := range r.filters {
		cp[k] = v
	}
	return cp
}

// Parse reads a decoded JSON body. Reserved keys configure paging and
// sorting; every other key, and every key of a nested "filters" object,
// is a filter parameter. Top-level keys win over nested ones.
func Parse(body map[string]any) (Request, error) {
	var r Request
	var err error
	if r.page, err = intParam(ParamPage, body[ParamPage]); err != nil {
		return Request{}, err
	}
	if r.limit, err = intParam(ParamLimit, body[ParamLimit]); err != nil {
		return Request{}, err
	}
	if r.sort, err = stringParam(ParamSort, body[ParamSort]); err != nil {
		return Request{}, err
	}
	dir := body[ParamSortDirection]
	if dir == nil {
		dir = body[ParamOrder]
	}
	if r.direction, err = stringParam(ParamSortDirection, dir); err != nil {
		return Request{}, err
	}

	r.filters = make(map[string]any)
	if nested, ok := body[ParamFilters]; ok && nested != nil {
		m, ok := nested.(map[string]any)
		if !ok {
			return Request{}, domain.NewValidationError(ParamFilters, "expects an object")
		}
		for k, v := range m {
			r.filters[k] = v
		}
	}
	for k, v := range body {
		switch k {
		case ParamPage, ParamLimit, ParamSort, ParamSortDirection, ParamOrder, ParamFilters:
			continue
		}
		r.filters[k] = v
	}
	if len(r.filters) > MaxFilterParams {
		return Request{}, domain.NewValidationError(ParamFilters, "too many parameters (max %d)", MaxFilterParams)
	}
	return r, nil
}

// FromQuery reads URL query parameters. Single values become strings,
// repeated keys become string lists.
func FromQuery(q url.Values) (Request, error) {
	body := make(map[string]any, len(q))
	for k, vs := range q {
		switch {
		case len(vs) == 0:
			continue
		case len(vs) == 1:
			body[k] = vs[0]
		default:
			body[k] = vs
		}
	}
	delete(body, ParamFilters)
	return Parse(body)
}

func intParam(name string, v any) (int, error) {
	switch t := v.(type) {
	case nil:
		return 0, nil
	case int:
		return clampInt(float64(t)), nil
	case int64:
		return clampInt(float64(t)), nil
	case float64:
		if t != math.Trunc(t) || math.IsInf(t, 0) || math.IsNaN(t) {
			return 0, domain.NewValidationError(name, "expects an integer")
		}
		return clampInt(t), nil
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0, domain.NewValidationError(name, "expects an integer")
		}
		return clampInt(float64(n)), nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, domain.NewValidationError(name, "expects an integer")
		}
		return clampInt(float64(n)), nil
	default:
		return 0, domain.NewValidationError(name, "expects an integer")
	}
}

// clampInt keeps absurd values inside int range; normalization decides the rest.
func clampInt(f float64) int {
	const limit = 1 << 30
	switch {
	case f > limit:
		return limit
	case f < -limit:
		return -limit
	default:
		return int(f)
	}
}

func stringParam(name string, v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(t), nil
	default:
		return "", domain.NewValidationError(name, "expects a string")
	}
}
