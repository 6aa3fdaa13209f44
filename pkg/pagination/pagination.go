// Package pagination implements the page/limit/orderBy handling shared by
// the list query routes in spec.md §4.5.
package pagination

import (
	"fmt"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 50
	MaxLimit     = 200
)

// Params is the parsed, validated page/limit/order input for a list query.
type Params struct {
	Page    int
	Limit   int
	OrderBy string
	Desc    bool
}

// SetDefaults fills Page/Limit with spec defaults when unset (zero value).
func (p *Params) SetDefaults() {
	if p.Page <= 0 {
		p.Page = DefaultPage
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
}

// Validate enforces spec.md §4.5: limit must not exceed 200.
func (p *Params) Validate() error {
	if p.Page < 1 {
		return fmt.Errorf("page must be >= 1")
	}
	if p.Limit < 1 || p.Limit > MaxLimit {
		return fmt.Errorf("limit must be between 1 and %d", MaxLimit)
	}
	return nil
}

// Offset returns the zero-based row offset for Page/Limit.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// TotalPages computes the page count for totalItems rows at this limit.
func (p Params) TotalPages(totalItems int64) int {
	if totalItems <= 0 {
		return 0
	}
	limit := int64(p.Limit)
	pages := totalItems / limit
	if totalItems%limit != 0 {
		pages++
	}
	return int(pages)
}

// ParseOrderBy validates "field" or "field:dir" against an allowed field
// whitelist (spec.md §4.5: {timestamp,latency,totalCost}), returning the
// normalized field and whether direction is descending. An empty orderBy
// falls back to defaultField/defaultDesc. An unknown field or direction is
// an error, which callers surface as 400 BAD_REQUEST.
func ParseOrderBy(orderBy string, allowed []string, defaultField string, defaultDesc bool) (string, bool, error) {
	if strings.TrimSpace(orderBy) == "" {
		return defaultField, defaultDesc, nil
	}

	field := orderBy
	dir := ""
	if idx := strings.IndexByte(orderBy, ':'); idx >= 0 {
		field = orderBy[:idx]
		dir = orderBy[idx+1:]
	}

	if !contains(allowed, field) {
		return "", false, fmt.Errorf("orderBy field %q is not one of %v", field, allowed)
	}

	switch strings.ToLower(dir) {
	case "", "asc":
		return field, false, nil
	case "desc":
		return field, true, nil
	default:
		return "", false, fmt.Errorf("orderBy direction %q must be asc or desc", dir)
	}
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}
