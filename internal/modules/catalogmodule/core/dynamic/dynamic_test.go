package dynamic

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/catalogtest"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/core/query"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/core/repository"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, filters, options map[string]any) []string {
	t.Helper()
	store := repository.NewMemoryStore(append(catalogtest.Scenario(), catalogtest.Sparse("S"))...)
	movies, err := Build(query.From(store), filters, options).All(context.Background())
	require.NoError(t, err)
	return catalogtest.IDs(movies)
}

func TestDynamicQueryOrderByRatingDescLimit(t *testing.T) {
	got := run(t, nil, map[string]any{"order_by": "rating", "direction": "desc", "limit": 2})
	assert.Equal(t, []string{"A", "C"}, got)
}

func TestEmptyFilterMapReturnsEverything(t *testing.T) {
	assert.Equal(t, []string{"A", "B", "C", "D", "S"}, run(t, map[string]any{}, nil))
	assert.Equal(t, []string{"A", "B", "C", "D", "S"}, run(t, nil, nil))
}

func TestFilterKeys(t *testing.T) {
	tests := []struct {
		name    string
		filters map[string]any
		want    []string
	}{
		{"min rating", map[string]any{"min_rating": 8}, []string{"A", "C"}},
		{"rating range", map[string]any{"min_rating": "7", "max_rating": 9}, []string{"C", "D"}},
		{"genre", map[string]any{"genre": "Drama"}, []string{"B"}},
		{"genre list", map[string]any{"genre": []any{"Drama", "Comedy"}}, []string{"B", "D"}},
		{"genre csv", map[string]any{"genre": "Action, Thriller"}, []string{"A", "C"}},
		{"year range", map[string]any{"min_year": 2000, "max_year": 2020.0}, []string{"A", "B", "S"}},
		{"budget range", map[string]any{"min_budget": json.Number("10000000"), "max_budget": "60000000"}, []string{"B", "D"}},
		{"director", map[string]any{"director": "Ava Reyes"}, []string{"A", "C"}},
		{"title substring", map[string]any{"title": "PARTY"}, []string{"D"}},
		{"decade floors", map[string]any{"decade": 1997}, []string{"C"}},
		{"country", map[string]any{"country": "USA"}, []string{"A", "C"}},
		{"language", map[string]any{"language": "French"}, []string{"D"}},
		{"studio", map[string]any{"studio": "Northlight"}, []string{"A", "C"}},
		{"box office", map[string]any{"min_box_office": 100_000_000, "max_box_office": 200_000_000}, []string{"C", "D"}},
		{"runtime", map[string]any{"min_runtime": 100, "max_runtime": 120}, []string{"B", "D"}},
		{"profit margin", map[string]any{"min_profit_margin": 400}, []string{"C", "D"}},
		{"margin above is strict", map[string]any{"margin_above": 400}, []string{"C"}},
		{"roi above is strict", map[string]any{"roi_above": "400"}, []string{"C", "D"}},
		{"single year", map[string]any{"year": 1995}, []string{"C"}},
		{"year list", map[string]any{"year": []any{2019, "2023"}}, []string{"B", "D"}},
		{"year csv", map[string]any{"year": "2001, 2020"}, []string{"A", "S"}},
		{"keys are case-insensitive", map[string]any{"Min_Rating": 9}, []string{"A"}},
		{"combined", map[string]any{"min_rating": 7, "country": "USA", "max_year": 2000}, []string{"C"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, run(t, tt.filters, nil))
		})
	}
}

func TestUncoercibleValuesSkipOnlyTheirKey(t *testing.T) {
	filters := map[string]any{
		"min_rating": "high",
		"min_year":   2019.5,
		"genre":      42,
		"max_budget": nil,
		"country":    "USA",
		"unknown":    "ignored",
		"; DROP":     "TABLE movies",
	}
	parsed := ParseFilters(filters)
	assert.Equal(t, []string{"genre", "max_budget", "min_rating", "min_year"}, parsed.Skipped)
	assert.Len(t, parsed.Predicates(), 1)

	assert.Equal(t, []string{"A", "C"}, run(t, filters, nil))
}

func TestYearListRejectsNonIntegralMembers(t *testing.T) {
	parsed := ParseFilters(map[string]any{"year": []any{2019, 2020.5}, "roi_above": "lots"})
	assert.Equal(t, []string{"roi_above", "year"}, parsed.Skipped)
	assert.Empty(t, parsed.Year)
	assert.True(t, parsed.Empty())
}

func TestFilterMapIsIdempotent(t *testing.T) {
	filters := map[string]any{"min_rating": 5, "max_year": 2021}
	first := run(t, filters, nil)
	second := run(t, filters, nil)
	assert.ElementsMatch(t, first, second)
	assert.Equal(t, []string{"A", "C"}, first)
}

func TestParseOptions(t *testing.T) {
	o := ParseOptions(map[string]any{
		"order_by":  "box-office",
		"direction": "DESC",
		"limit":     "3",
		"offset":    json.Number("1"),
		"cursor":    "ignored",
	})
	assert.Equal(t, types.FieldBoxOffice, o.OrderBy)
	assert.Equal(t, query.Desc, o.Direction)
	require.NotNil(t, o.Limit)
	assert.Equal(t, 3, *o.Limit)
	assert.Equal(t, 1, o.Offset)
	assert.Empty(t, o.Skipped)
	assert.True(t, o.Paginated())

	bad := ParseOptions(map[string]any{
		"order_by":  "popularity",
		"direction": "up",
		"limit":     "ten",
		"offset":    -4,
	})
	assert.Equal(t, types.FieldUnknown, bad.OrderBy)
	assert.Equal(t, query.Asc, bad.Direction)
	assert.Nil(t, bad.Limit)
	assert.Zero(t, bad.Offset)
	assert.Equal(t, []string{"direction", "limit", "offset", "order_by"}, bad.Skipped)
	assert.False(t, bad.Paginated())
}

func TestOptionDefaults(t *testing.T) {
	// ascending by default, unbounded, no offset
	assert.Equal(t, []string{"C", "S", "B", "A", "D"}, run(t, nil, map[string]any{"order_by": "release_year"}))
	assert.Equal(t, []string{"B", "D", "C", "A", "S"}, run(t, nil, map[string]any{"order_by": "rating", "direction": "sideways"}))
}

func TestOptionPagination(t *testing.T) {
	opts := map[string]any{"order_by": "rating", "direction": "desc", "offset": 1, "limit": 2}
	assert.Equal(t, []string{"C", "D"}, run(t, nil, opts))

	paged := map[string]any{"order_by": "rating", "direction": "desc", "page": 2, "per_page": 2, "limit": 1}
	assert.Equal(t, []string{"D", "B"}, run(t, nil, paged))

	assert.Empty(t, run(t, nil, map[string]any{"page": 9, "per_page": 2}))
	assert.Empty(t, run(t, nil, map[string]any{"limit": 0}))
}

func TestClamp(t *testing.T) {
	o := ParseOptions(map[string]any{"limit": 500, "per_page": 1000}).Clamp(100)
	assert.Equal(t, 100, *o.Limit)
	assert.Equal(t, 100, *o.PerPage)

	o = ParseOptions(map[string]any{"limit": 5}).Clamp(0)
	assert.Equal(t, 5, *o.Limit)
}

func TestFilterKeysListed(t *testing.T) {
	keys := FilterKeys()
	for _, k := range []string{"min_rating", "max_rating", "genre", "min_year", "max_year", "min_budget", "max_budget"} {
		assert.Contains(t, keys, k)
	}
}

func TestSplit(t *testing.T) {
	filters, options := Split(map[string]any{
		"min_rating": 8,
		"Order_By":   "rating",
		"per_page":   5,
		"genre":      "Drama",
	})
	assert.Equal(t, map[string]any{"min_rating": 8, "genre": "Drama"}, filters)
	assert.Equal(t, map[string]any{"Order_By": "rating", "per_page": 5}, options)
}
