package page

import (
	"fmt"

	"github.com/kailas-cloud/scopeq/internal/domain"
)

// Engine-wide page size bounds.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Overflow decides what happens to a limit above the maximum.
type Overflow string

const (
	// Clamp silently lowers the limit to the maximum.
	Clamp Overflow = "clamp"
	// Reject fails the request with a validation error.
	Reject Overflow = "reject"
)

// IsValid reports whether o is a known overflow policy.
func (o Overflow) IsValid() bool { return o == Clamp || o == Reject }

// Policy holds the page size rules of one resource.
type Policy struct {
	defaultLimit int
	maxLimit     int
	overflow     Overflow
}

// NewPolicy validates and creates a Policy. Zero values take engine defaults.
func NewPolicy(defaultLimit, maxLimit int, overflow Overflow) (Policy, error) {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	if maxLimit <= 0 {
		maxLimit = MaxLimit
	}
	if overflow == "" {
		overflow = Clamp
	}
	if !overflow.IsValid() {
		return Policy{}, fmt.Errorf("invalid overflow policy: %q", overflow)
	}
	if defaultLimit > maxLimit {
		return Policy{}, fmt.Errorf("default limit %d exceeds max limit %d", defaultLimit, maxLimit)
	}
	return Policy{defaultLimit: defaultLimit, maxLimit: maxLimit, overflow: overflow}, nil
}

// DefaultPolicy returns the engine default: 20 per page, at most 100, clamped.
func DefaultPolicy() Policy {
	return Policy{defaultLimit: DefaultLimit, maxLimit: MaxLimit, overflow: Clamp}
}

// DefaultLimit returns the limit used when none is requested.
func (p Policy) DefaultLimit() int { return p.defaultLimit }

// MaxLimit returns the largest permitted limit.
func (p Policy) MaxLimit() int { return p.maxLimit }

// Overflow returns the over-max behaviour.
func (p Policy) Overflow() Overflow { return p.overflow }

// Window is a normalized page request.
type Window struct {
	page  int
	limit int
}

// Page returns the 1-based page number.
func (w Window) Page() int { return w.page }

// Limit returns the page size.
func (w Window) Limit() int { return w.limit }

// Skip returns the number of records before the page.
func (w Window) Skip() int { return (w.page - 1) * w.limit }

// Normalize applies the policy to a requested page and limit.
// Values below 1 mean "not provided".
func Normalize(p Policy, page, limit int) (Window, error) {
	if p.defaultLimit <= 0 {
		p = DefaultPolicy()
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = p.defaultLimit
	}
	if limit > p.maxLimit {
		if p.overflow == Reject {
			return Window{}, domain.NewValidationError("limit", "must be at most %d", p.maxLimit)
		}
		limit = p.maxLimit
	}
	return Window{page: page, limit: limit}, nil
}

// Meta is the pagination block of a search response.
type Meta struct {
	Current int `json:"current"`
	Limit   int `json:"limit"`
	Records int `json:"records"`
	Pages   int `json:"pages"`
}

// NewMeta computes the pagination block for a window and a total record count.
func NewMeta(w Window, records int) Meta {
	if records < 0 {
		records = 0
	}
	return Meta{
		Current: w.page,
		Limit:   w.limit,
		Records: records,
		Pages:   Pages(records, w.limit),
	}
}

// Pages returns ceil(records/limit), or 0 when either is not positive.
func Pages(records, limit int) int {
	if records <= 0 || limit <= 0 {
		return 0
	}
	return (records + limit - 1) / limit
}
