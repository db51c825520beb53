package pagination

import (
	"fmt"
	"net/http"
	"strconv"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Params holds pagination parameters extracted from query strings.
type Params struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// DefaultParams returns the defaults applied when a parameter is absent.
func DefaultParams() Params {
	return Params{Page: DefaultPage, PageSize: DefaultPageSize}
}

// Offset is the number of rows skipped before the page starts.
func (p Params) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// Validate checks page >= 1 and 1 <= page_size <= MaxPageSize.
func (p Params) Validate() error {
	if p.Page < 1 {
		return fmt.Errorf("page must be >= 1, got %d", p.Page)
	}
	if p.PageSize < 1 || p.PageSize > MaxPageSize {
		return fmt.Errorf("page_size must be between 1 and %d, got %d", MaxPageSize, p.PageSize)
	}
	return nil
}

// FromRequest extracts page and page_size from the query string. Absent
// parameters take their defaults. Present values must be integers; range
// checks are left to Validate so callers decide where bounds are enforced.
func FromRequest(r *http.Request) (Params, error) {
	p := DefaultParams()
	q := r.URL.Query()

	if raw := q.Get("page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return p, fmt.Errorf("page must be an integer, got %q", raw)
		}
		p.Page = v
	}

	if raw := q.Get("page_size"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return p, fmt.Errorf("page_size must be an integer, got %q", raw)
		}
		p.PageSize = v
	}

	return p, nil
}
