// Package types - Field identifiers and accessors
package types

import (
	"strconv"
	"strings"

	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/models"
)

// Field identifies a stored or derived movie attribute.
// Field names are resolved once when a query is built; evaluation goes
// through the accessor functions below and never through reflection.
type Field int

const (
	FieldUnknown Field = iota
	FieldID
	FieldTitle
	FieldDirector
	FieldGenre
	FieldReleaseYear
	FieldRating
	FieldBudget
	FieldBoxOffice
	FieldRuntime
	FieldCountry
	FieldLanguage
	FieldStudio

	// Derived
	FieldProfit
	FieldProfitMargin
	FieldROI
	FieldDecade
)

// Kind is the value kind a field produces.
type Kind int

const (
	KindText Kind = iota
	KindNumber
)

type fieldInfo struct {
	name    string
	column  string // empty for derived fields
	kind    Kind
	aliases []string
}

var fieldTable = map[Field]fieldInfo{
	FieldID:           {name: "id", column: "id", kind: KindText},
	FieldTitle:        {name: "title", column: "title", kind: KindText},
	FieldDirector:     {name: "director", column: "director", kind: KindText},
	FieldGenre:        {name: "genre", column: "genre", kind: KindText},
	FieldReleaseYear:  {name: "release_year", column: "release_year", kind: KindNumber, aliases: []string{"year"}},
	FieldRating:       {name: "rating", column: "rating", kind: KindNumber},
	FieldBudget:       {name: "budget", column: "budget", kind: KindNumber},
	FieldBoxOffice:    {name: "box_office", column: "box_office", kind: KindNumber, aliases: []string{"revenue", "gross"}},
	FieldRuntime:      {name: "runtime", column: "runtime", kind: KindNumber},
	FieldCountry:      {name: "country", column: "country", kind: KindText},
	FieldLanguage:     {name: "language", column: "language", kind: KindText},
	FieldStudio:       {name: "studio", column: "studio", kind: KindText},
	FieldProfit:       {name: "profit", kind: KindNumber},
	FieldProfitMargin: {name: "profit_margin", kind: KindNumber, aliases: []string{"margin"}},
	FieldROI:          {name: "roi", kind: KindNumber},
	FieldDecade:       {name: "decade", kind: KindNumber},
}

var fieldsByName = func() map[string]Field {
	m := make(map[string]Field, len(fieldTable)*2)
	for f, info := range fieldTable {
		m[info.name] = f
		for _, a := range info.aliases {
			m[a] = f
		}
	}
	return m
}()

// ParseField resolves a field name (case-insensitive, '-' or '_' separated).
func ParseField(name string) (Field, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.ReplaceAll(key, "-", "_")
	f, ok := fieldsByName[key]
	return f, ok
}

// AllFields returns every known field in declaration order.
func AllFields() []Field {
	fields := make([]Field, 0, len(fieldTable))
	for f := FieldID; f <= FieldDecade; f++ {
		fields = append(fields, f)
	}
	return fields
}

func (f Field) String() string {
	if info, ok := fieldTable[f]; ok {
		return info.name
	}
	return "unknown"
}

// Kind reports whether the field is textual or numeric.
func (f Field) Kind() Kind {
	return fieldTable[f].kind
}

// Column returns the SQL column backing the field, or "" for derived fields.
func (f Field) Column() string {
	return fieldTable[f].column
}

// Derived reports whether the field is computed at query time.
func (f Field) Derived() bool {
	_, known := fieldTable[f]
	return known && fieldTable[f].column == ""
}

// Nullable reports whether the stored field may be absent.
func (f Field) Nullable() bool {
	switch f {
	case FieldRating, FieldBudget, FieldBoxOffice, FieldRuntime,
		FieldCountry, FieldLanguage, FieldStudio:
		return true
	}
	return false
}

// Number returns the numeric value of f for m. ok is false when the value
// is absent or the field is not numeric.
func Number(m *models.Movie, f Field) (float64, bool) {
	switch f {
	case FieldReleaseYear:
		return float64(m.ReleaseYear), true
	case FieldRating:
		return derefFloat(m.Rating)
	case FieldBudget:
		return derefFloat(m.Budget)
	case FieldBoxOffice:
		return derefFloat(m.BoxOffice)
	case FieldRuntime:
		if m.Runtime == nil {
			return 0, false
		}
		return float64(*m.Runtime), true
	case FieldProfit:
		return m.Profit()
	case FieldProfitMargin:
		return m.ProfitMargin()
	case FieldROI:
		return m.ROI()
	case FieldDecade:
		return float64(m.Decade()), true
	}
	return 0, false
}

// Text returns the textual value of f for m. Numeric fields are formatted;
// ok is false when the value is absent.
func Text(m *models.Movie, f Field) (string, bool) {
	switch f {
	case FieldID:
		return m.ID, true
	case FieldTitle:
		return m.Title, true
	case FieldDirector:
		return m.Director, true
	case FieldGenre:
		return m.Genre, true
	case FieldCountry:
		return derefString(m.Country)
	case FieldLanguage:
		return derefString(m.Language)
	case FieldStudio:
		return derefString(m.Studio)
	}
	if f.Kind() == KindNumber {
		v, ok := Number(m, f)
		if !ok {
			return "", false
		}
		return strconv.FormatFloat(v, 'f', -1, 64), true
	}
	return "", false
}

// Present reports whether f has a value for m.
func Present(m *models.Movie, f Field) bool {
	if f.Kind() == KindNumber {
		_, ok := Number(m, f)
		return ok
	}
	_, ok := Text(m, f)
	return ok
}

func derefFloat(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

func derefString(p *string) (string, bool) {
	if p == nil {
		return "", false
	}
	return *p, true
}
