package dynamic

import (
	"sort"
	"strings"

	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/core/query"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/types"
)

// DefaultPerPage is the page size used when page is given without per_page.
const DefaultPerPage = 20

// Options is the validated form of an option-map.
type Options struct {
	// OrderBy is FieldUnknown when no (valid) ordering was requested.
	OrderBy   types.Field     `json:"-"`
	Direction query.Direction `json:"-"`
	// Limit is nil for unbounded.
	Limit  *int `json:"limit,omitempty"`
	Offset int  `json:"offset,omitempty"`
	// Page takes precedence over Limit and Offset.
	Page    *int `json:"page,omitempty"`
	PerPage *int `json:"per_page,omitempty"`

	Skipped []string `json:"skipped,omitempty"`
}

var optionKeys = map[string]bool{
	"order_by": true, "sort": true, "sort_by": true,
	"direction": true, "dir": true,
	"limit": true, "offset": true,
	"page": true, "per_page": true, "page_size": true,
}

// IsOptionKey reports whether key belongs in an option-map rather than a
// filter-map.
func IsOptionKey(key string) bool {
	return optionKeys[strings.ToLower(strings.TrimSpace(key))]
}

// Split separates a flat parameter map, such as a URL query, into a
// filter-map and an option-map.
func Split(params map[string]any) (filters, options map[string]any) {
	filters = make(map[string]any, len(params))
	options = make(map[string]any)
	for k, v := range params {
		if IsOptionKey(k) {
			options[k] = v
		} else {
			filters[k] = v
		}
	}
	return filters, options
}

// ParseOptions coerces an option-map. It never fails.
func ParseOptions(m map[string]any) Options {
	var o Options
	for raw, v := range m {
		key := strings.ToLower(strings.TrimSpace(raw))
		ok := true
		switch key {
		case "order_by", "sort", "sort_by":
			var name string
			if name, ok = toString(v); ok {
				o.OrderBy, ok = types.ParseField(name)
			}
		case "direction", "dir":
			var s string
			if s, ok = toString(v); ok {
				o.Direction, ok = query.ParseDirection(s)
			}
		case "limit":
			var n int
			if n, ok = toInt(v); ok {
				o.Limit = &n
			}
		case "offset":
			var n int
			if n, ok = toInt(v); ok && n >= 0 {
				o.Offset = n
			} else {
				ok = false
			}
		case "page":
			var n int
			if n, ok = toInt(v); ok {
				o.Page = &n
			}
		case "per_page", "page_size":
			var n int
			if n, ok = toInt(v); ok {
				o.PerPage = &n
			}
		default:
			continue
		}
		if !ok {
			o.Skipped = append(o.Skipped, key)
		}
	}
	sort.Strings(o.Skipped)
	return o
}

// Paginated reports whether the options bound the result size.
func (o Options) Paginated() bool {
	return o.Limit != nil || o.Offset > 0 || o.Page != nil
}

// Clamp caps Limit and PerPage at ceiling. A ceiling <= 0 leaves them
// untouched.
func (o Options) Clamp(ceiling int) Options {
	if ceiling <= 0 {
		return o
	}
	if o.Limit != nil && *o.Limit > ceiling {
		n := ceiling
		o.Limit = &n
	}
	if o.PerPage != nil && *o.PerPage > ceiling {
		n := ceiling
		o.PerPage = &n
	}
	return o
}

// Apply adds ordering and pagination to q.
func (o Options) Apply(q query.Query) query.Query {
	if o.OrderBy != types.FieldUnknown {
		q = q.OrderBy(o.OrderBy, o.Direction)
	}
	if o.Page != nil {
		size := DefaultPerPage
		if o.PerPage != nil {
			size = *o.PerPage
		}
		return q.Page(*o.Page, size)
	}
	if o.Offset > 0 {
		q = q.Offset(o.Offset)
	}
	if o.Limit != nil {
		q = q.Limit(*o.Limit)
	}
	return q
}

// Build applies a filter-map and then an option-map onto q.
func Build(q query.Query, filters, options map[string]any) query.Query {
	return ParseOptions(options).Apply(ParseFilters(filters).Apply(q))
}
