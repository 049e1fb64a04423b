// Package dynamic turns untyped filter and option maps into query plans.
//
// Both parsers are total: unknown keys are ignored and a recognized key
// whose value cannot be coerced is skipped and reported in Skipped. No
// caller-supplied text ever reaches the store as a query fragment; values
// only become operands of typed conditions.
package dynamic

import (
	"sort"
	"strings"

	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/core/predicate"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/core/query"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/models"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/types"
)

// Filters is the validated form of a filter-map. nil fields were absent or
// skipped.
type Filters struct {
	MinRating *float64 `json:"min_rating,omitempty"`
	MaxRating *float64 `json:"max_rating,omitempty"`
	MinYear   *int     `json:"min_year,omitempty"`
	MaxYear   *int     `json:"max_year,omitempty"`
	MinBudget *float64 `json:"min_budget,omitempty"`
	MaxBudget *float64 `json:"max_budget,omitempty"`

	MinBoxOffice    *float64 `json:"min_box_office,omitempty"`
	MaxBoxOffice    *float64 `json:"max_box_office,omitempty"`
	MinRuntime      *int     `json:"min_runtime,omitempty"`
	MaxRuntime      *int     `json:"max_runtime,omitempty"`
	MinProfitMargin *float64 `json:"min_profit_margin,omitempty"`
	MarginAbove     *float64 `json:"margin_above,omitempty"`
	ROIAbove        *float64 `json:"roi_above,omitempty"`
	Decade          *int     `json:"decade,omitempty"`

	// Year lists exact release years; more than one means any of them.
	Year []int `json:"year,omitempty"`

	// Exact matches; more than one value means any of them.
	Genre    []string `json:"genre,omitempty"`
	Director []string `json:"director,omitempty"`
	Country  []string `json:"country,omitempty"`
	Language []string `json:"language,omitempty"`
	Studio   []string `json:"studio,omitempty"`

	// Title is a case-insensitive substring.
	Title *string `json:"title,omitempty"`

	// Skipped lists recognized keys whose values could not be coerced.
	Skipped []string `json:"skipped,omitempty"`
}

type setter func(f *Filters, v any) bool

func floatInto(dst func(*Filters) **float64) setter {
	return func(f *Filters, v any) bool {
		n, ok := toFloat(v)
		if ok {
			*dst(f) = &n
		}
		return ok
	}
}

func intInto(dst func(*Filters) **int) setter {
	return func(f *Filters, v any) bool {
		n, ok := toInt(v)
		if ok {
			*dst(f) = &n
		}
		return ok
	}
}

func stringsInto(dst func(*Filters) *[]string) setter {
	return func(f *Filters, v any) bool {
		s, ok := toStrings(v)
		if ok {
			*dst(f) = s
		}
		return ok
	}
}

var filterKeys = map[string]setter{
	"min_rating":        floatInto(func(f *Filters) **float64 { return &f.MinRating }),
	"max_rating":        floatInto(func(f *Filters) **float64 { return &f.MaxRating }),
	"min_year":          intInto(func(f *Filters) **int { return &f.MinYear }),
	"max_year":          intInto(func(f *Filters) **int { return &f.MaxYear }),
	"min_budget":        floatInto(func(f *Filters) **float64 { return &f.MinBudget }),
	"max_budget":        floatInto(func(f *Filters) **float64 { return &f.MaxBudget }),
	"min_box_office":    floatInto(func(f *Filters) **float64 { return &f.MinBoxOffice }),
	"max_box_office":    floatInto(func(f *Filters) **float64 { return &f.MaxBoxOffice }),
	"min_runtime":       intInto(func(f *Filters) **int { return &f.MinRuntime }),
	"max_runtime":       intInto(func(f *Filters) **int { return &f.MaxRuntime }),
	"min_profit_margin": floatInto(func(f *Filters) **float64 { return &f.MinProfitMargin }),
	"margin_above":      floatInto(func(f *Filters) **float64 { return &f.MarginAbove }),
	"roi_above":         floatInto(func(f *Filters) **float64 { return &f.ROIAbove }),
	"decade":            intInto(func(f *Filters) **int { return &f.Decade }),
	"genre":             stringsInto(func(f *Filters) *[]string { return &f.Genre }),
	"director":          stringsInto(func(f *Filters) *[]string { return &f.Director }),
	"country":           stringsInto(func(f *Filters) *[]string { return &f.Country }),
	"language":          stringsInto(func(f *Filters) *[]string { return &f.Language }),
	"studio":            stringsInto(func(f *Filters) *[]string { return &f.Studio }),
	"title": func(f *Filters, v any) bool {
		s, ok := toString(v)
		if ok {
			f.Title = &s
		}
		return ok
	},
	"year": func(f *Filters, v any) bool {
		years, ok := toInts(v)
		if ok {
			f.Year = years
		}
		return ok
	},
}

// FilterKeys lists the recognized filter-map keys in sorted order.
func FilterKeys() []string {
	keys := make([]string, 0, len(filterKeys))
	for k := range filterKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParseFilters coerces a filter-map. It never fails.
func ParseFilters(m map[string]any) Filters {
	var f Filters
	for raw, v := range m {
		key := strings.ToLower(strings.TrimSpace(raw))
		set, known := filterKeys[key]
		if !known {
			continue
		}
		if v == nil || !set(&f, v) {
			f.Skipped = append(f.Skipped, key)
		}
	}
	sort.Strings(f.Skipped)
	return f
}

// Empty reports whether no constraint survived parsing.
func (f Filters) Empty() bool {
	return len(f.Predicates()) == 0
}

// Predicates returns one predicate per present constraint, in a fixed order.
func (f Filters) Predicates() []predicate.Predicate {
	var preds []predicate.Predicate
	num := func(p *float64, field types.Field, op predicate.Op) {
		if p != nil {
			preds = append(preds, predicate.Cmp(field, op, *p))
		}
	}
	whole := func(p *int, field types.Field, op predicate.Op) {
		if p != nil {
			preds = append(preds, predicate.Cmp(field, op, float64(*p)))
		}
	}
	exact := func(values []string, field types.Field) {
		switch len(values) {
		case 0:
		case 1:
			preds = append(preds, predicate.Is(field, values[0]))
		default:
			preds = append(preds, predicate.In(field, values...))
		}
	}

	num(f.MinRating, types.FieldRating, predicate.OpGte)
	num(f.MaxRating, types.FieldRating, predicate.OpLte)
	exact(f.Genre, types.FieldGenre)
	switch len(f.Year) {
	case 0:
	case 1:
		preds = append(preds, predicate.Equals(types.FieldReleaseYear, float64(f.Year[0])))
	default:
		years := make([]float64, len(f.Year))
		for i, y := range f.Year {
			years[i] = float64(y)
		}
		preds = append(preds, predicate.InNumbers(types.FieldReleaseYear, years...))
	}
	whole(f.MinYear, types.FieldReleaseYear, predicate.OpGte)
	whole(f.MaxYear, types.FieldReleaseYear, predicate.OpLte)
	num(f.MinBudget, types.FieldBudget, predicate.OpGte)
	num(f.MaxBudget, types.FieldBudget, predicate.OpLte)
	exact(f.Director, types.FieldDirector)
	if f.Title != nil {
		preds = append(preds, predicate.Contains(types.FieldTitle, *f.Title))
	}
	if f.Decade != nil {
		preds = append(preds, predicate.InDecade(models.DecadeOf(*f.Decade)))
	}
	exact(f.Country, types.FieldCountry)
	exact(f.Language, types.FieldLanguage)
	exact(f.Studio, types.FieldStudio)
	num(f.MinBoxOffice, types.FieldBoxOffice, predicate.OpGte)
	num(f.MaxBoxOffice, types.FieldBoxOffice, predicate.OpLte)
	whole(f.MinRuntime, types.FieldRuntime, predicate.OpGte)
	whole(f.MaxRuntime, types.FieldRuntime, predicate.OpLte)
	num(f.MinProfitMargin, types.FieldProfitMargin, predicate.OpGte)
	if f.MarginAbove != nil {
		preds = append(preds, predicate.MarginAbove(*f.MarginAbove))
	}
	if f.ROIAbove != nil {
		preds = append(preds, predicate.ROIAbove(*f.ROIAbove))
	}
	return preds
}

// Apply ANDs every constraint onto q.
func (f Filters) Apply(q query.Query) query.Query {
	return q.Where(f.Predicates()...)
}
