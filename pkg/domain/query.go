package domain

import (
	"net/url"
	"strconv"
	"strings"
)

// SortOrder is the direction of a sort.
type SortOrder string

const (
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
)

// Sort orders a list by one field.
type Sort struct {
	Field string    `json:"field"`
	Order SortOrder `json:"order"`
}

// String renders the sort the way the API expects it: "<field>,<ORDER>".
func (s Sort) String() string {
	return s.Field + "," + string(s.Order)
}

// DefaultSort applies to list queries that carry no explicit sort.
var DefaultSort = Sort{Field: "updatedAt", Order: SortDesc}

// DefaultLimit is used when a query string carries a page but no valid limit.
const DefaultLimit = 10

// Query holds the pagination, search and sort parameters of a list operation.
// Zero Page and Limit are omitted from the request.
type Query struct {
	Page         int      `json:"page,omitempty"`
	Limit        int      `json:"limit,omitempty"`
	Search       string   `json:"search,omitempty"`
	SearchFields []string `json:"search_fields,omitempty"`
	Sort         *Sort    `json:"sort,omitempty"`
}

// EffectiveSort returns the explicit sort, or DefaultSort when there is none.
// An explicit sort without an order is ascending.
func (q Query) EffectiveSort() Sort {
	if q.Sort == nil || q.Sort.Field == "" {
		return DefaultSort
	}
	s := *q.Sort
	if s.Order == "" {
		s.Order = SortAsc
	}
	return s
}

// ParseOrder normalises a sort order. It reports false for anything but ASC or DESC.
func ParseOrder(raw string) (SortOrder, bool) {
	switch SortOrder(strings.ToUpper(strings.TrimSpace(raw))) {
	case SortAsc:
		return SortAsc, true
	case SortDesc:
		return SortDesc, true
	}
	return "", false
}

// ParseQuery reads page, limit, search and sort from URL values.
// The sort value is an order (ASC or DESC) applied to sortField. Invalid page
// and limit values fall back to 1 and DefaultLimit, an invalid order is ignored.
func ParseQuery(v url.Values, sortField string, searchFields ...string) Query {
	q := Query{SearchFields: searchFields}
	if v.Has("page") {
		q.Page = positiveOr(v.Get("page"), 1)
	}
	if v.Has("limit") {
		q.Limit = positiveOr(v.Get("limit"), DefaultLimit)
	}
	q.Search = strings.TrimSpace(v.Get("search"))
	if order, ok := ParseOrder(v.Get("sort")); ok && sortField != "" {
		q.Sort = &Sort{Field: sortField, Order: order}
	}
	return q
}

// Values is the inverse of ParseQuery. The default sort is not written.
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Sort != nil && q.Sort.Field != "" {
		v.Set("sort", string(q.EffectiveSort().Order))
	}
	return v
}

func positiveOr(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
