// Package paging implements the filter and pagination contract shared by
// every list query.
package paging

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/Tomlord1122/todo-api/internal/apperr"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Request is the shape every list query accepts.
type Request struct {
	Search      string `json:"search,omitempty"`
	PageIndex   int    `json:"pageIndex"`
	PageSize    int    `json:"pageSize"`
	OrderBy     string `json:"orderBy,omitempty"`
	IsAscending bool   `json:"isAscending"`
}

// Result is one page of a filtered, ordered set plus the size of the whole
// filtered set.
type Result[T any] struct {
	Items      []T
	TotalCount int64
}

// Offset is the number of rows skipped before the page starts.
func (r Request) Offset() int {
	return r.PageIndex * r.PageSize
}

// SortFields maps the public field names a caller may order by to the
// column expression used in the query.
type SortFields map[string]string

// Validate rejects out-of-range paging and unknown sort fields. Values are
// never clamped.
func (r Request) Validate(fields SortFields) error {
	if r.PageIndex < 0 {
		return apperr.Validation("pageIndex must be >= 0, got %d", r.PageIndex)
	}
	if r.PageSize <= 0 {
		return apperr.Validation("pageSize must be > 0, got %d", r.PageSize)
	}
	if r.PageSize > MaxPageSize {
		return apperr.Validation("pageSize must be <= %d, got %d", MaxPageSize, r.PageSize)
	}
	if r.PageIndex > math.MaxInt/r.PageSize {
		return apperr.Validation("pageIndex %d is out of range for pageSize %d", r.PageIndex, r.PageSize)
	}
	if r.OrderBy != "" {
		if _, ok := fields[r.OrderBy]; !ok {
			return apperr.Validation("cannot order by unknown field %q", r.OrderBy)
		}
	}
	return nil
}

// Column resolves OrderBy to its column, falling back to fallback when the
// caller did not choose one. Call Validate first.
func (r Request) Column(fields SortFields, fallback string) string {
	if col, ok := fields[r.OrderBy]; ok {
		return col
	}
	return fallback
}

// FromQuery parses paging parameters from a URL query. Missing parameters
// take defaults; malformed ones are validation errors.
func FromQuery(q url.Values) (Request, error) {
	req := Request{
		Search:    strings.TrimSpace(q.Get("search")),
		PageIndex: 0,
		PageSize:  DefaultPageSize,
		OrderBy:   strings.TrimSpace(q.Get("orderBy")),
	}

	if raw := q.Get("pageIndex"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return Request{}, apperr.Validation("pageIndex must be an integer, got %q", raw)
		}
		req.PageIndex = v
	}
	if raw := q.Get("pageSize"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return Request{}, apperr.Validation("pageSize must be an integer, got %q", raw)
		}
		req.PageSize = v
	}
	if raw := q.Get("isAscending"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return Request{}, apperr.Validation("isAscending must be a boolean, got %q", raw)
		}
		req.IsAscending = v
	}
	return req, nil
}

// LikePattern turns a search term into a case-insensitive substring
// pattern, escaping LIKE wildcards with a backslash.
func LikePattern(search string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + strings.ToLower(r.Replace(search)) + "%"
}
