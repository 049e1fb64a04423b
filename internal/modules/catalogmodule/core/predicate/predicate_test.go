package predicate

import (
	"testing"

	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/catalogtest"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/models"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func matching(p Predicate, movies []models.Movie) []string {
	var ids []string
	for i := range movies {
		if p.Match(&movies[i]) {
			ids = append(ids, movies[i].ID)
		}
	}
	return ids
}

func TestNamedCompositesScenario(t *testing.T) {
	movies := catalogtest.Scenario()

	assert.Equal(t, []string{"A", "C"}, matching(HighlyRated(), movies))
	assert.Equal(t, []string{"A", "C", "D"}, matching(Profitable(), movies))
	assert.Equal(t, []string{"B"}, matching(ExpensiveFlop(), movies))
	assert.Equal(t, []string{"C"}, matching(SurpriseHit(), movies))
	assert.Equal(t, []string{"A"}, matching(AcclaimedBlockbuster(), movies))
	assert.Equal(t, []string{"C"}, matching(InDecade(1990), movies))
	assert.Equal(t, []string{"B"}, matching(Unprofitable(), movies))
}

func TestCatalogComposites(t *testing.T) {
	movies := catalogtest.Scenario()

	assert.Equal(t, []string{"A"}, matching(Blockbuster(), movies))
	assert.Equal(t, []string{"B"}, matching(BoxOfficeFlop(), movies))
	assert.Equal(t, []string{"B"}, matching(PoorlyRated(), movies))
	assert.Equal(t, []string{"A"}, matching(BigBudget(), movies))
	assert.Equal(t, []string{"A"}, matching(LongHighlyRated(), movies))
	assert.Equal(t, []string{"A", "B", "D"}, matching(TwentyFirstCentury(), movies))
	assert.Equal(t, []string{"A"}, matching(RecentBigBudget(2024, 5), movies))
	assert.Empty(t, matching(RecentBigBudget(2030, 5), movies))
}

func TestCompositeBoundariesAreStrict(t *testing.T) {
	movies := catalogtest.Scenario()

	// C has exactly 5M budget, D returned exactly five times its budget.
	assert.Empty(t, matching(LowBudget(), movies))
	assert.Empty(t, matching(ForeignLanguageHit(), movies))

	exact := models.Movie{ID: "E", BoxOffice: models.Float(BlockbusterBoxOffice), Rating: models.Float(9)}
	assert.False(t, Blockbuster().Match(&exact))
	assert.False(t, AcclaimedBlockbuster().Match(&exact))

	hit := models.Movie{
		ID: "F", Language: models.String("Spanish"),
		Budget: models.Float(10_000_000), BoxOffice: models.Float(60_000_000),
	}
	unknownLanguage := hit
	unknownLanguage.Language = nil
	assert.True(t, ForeignLanguageHit().Match(&hit))
	assert.False(t, ForeignLanguageHit().Match(&unknownLanguage))

	cheap := models.Movie{ID: "G", Budget: models.Float(4_999_999)}
	assert.True(t, LowBudget().Match(&cheap))
}

func TestNullFieldsFailClosed(t *testing.T) {
	sparse := catalogtest.Sparse("S")

	preds := map[string]Predicate{
		"highly rated":  HighlyRated(),
		"profitable":    Profitable(),
		"unprofitable":  Unprofitable(),
		"expensive":     ExpensiveFlop(),
		"surprise":      SurpriseHit(),
		"rating below":  Lt(types.FieldRating, 5),
		"rating eq":     Equals(types.FieldRating, 0),
		"profit":        Gt(types.FieldProfit, -1e12),
		"studio match":  Contains(types.FieldStudio, ""),
		"country in":    In(types.FieldCountry, "USA"),
		"country isnot": IsNot(types.FieldCountry, "USA"),
	}
	for name, p := range preds {
		t.Run(name, func(t *testing.T) {
			assert.False(t, p.Match(&sparse))
		})
	}

	assert.True(t, IsNull(types.FieldRating).Match(&sparse))
	assert.False(t, NotNull(types.FieldRating).Match(&sparse))
}

func TestRatingAboveNeverReturnsLowerOrNull(t *testing.T) {
	movies := append(catalogtest.Scenario(), catalogtest.Sparse("S"))
	for _, threshold := range []float64{0, 3.1, 7.8, 8.0, 9.2, 10} {
		p := Gt(types.FieldRating, threshold)
		for i := range movies {
			m := &movies[i]
			if p.Match(m) {
				require.NotNil(t, m.Rating)
				assert.Greater(t, *m.Rating, threshold)
			} else if m.Rating != nil {
				assert.LessOrEqual(t, *m.Rating, threshold)
			}
		}
	}
}

func TestDerivedValueComparisons(t *testing.T) {
	zeroBudget := models.Movie{ID: "Z", Budget: models.Float(0), BoxOffice: models.Float(10)}
	noBudget := models.Movie{ID: "N", BoxOffice: models.Float(10)}

	// margin and ROI resolve to 0 when budget is zero or null
	assert.True(t, Equals(types.FieldProfitMargin, 0).Match(&zeroBudget))
	assert.True(t, Equals(types.FieldROI, 0).Match(&noBudget))
	assert.False(t, MarginAbove(0).Match(&zeroBudget))

	// profit needs both operands
	assert.False(t, Gt(types.FieldProfit, 0).Match(&noBudget))
	assert.True(t, Gt(types.FieldProfit, 0).Match(&zeroBudget))

	movies := catalogtest.Scenario()
	// C: (100M-5M)/5M*100 = 1900%
	assert.Equal(t, []string{"A", "C", "D"}, matching(MarginAbove(200), movies))
	assert.Equal(t, []string{"C"}, matching(ROIAbove(1000), movies))
}

func TestTextMatchingIsCaseInsensitive(t *testing.T) {
	movies := catalogtest.Scenario()

	assert.Equal(t, []string{"A"}, matching(Contains(types.FieldTitle, "STRIKE"), movies))
	assert.Equal(t, []string{"B"}, matching(HasPrefix(types.FieldTitle, "broken"), movies))
	assert.Equal(t, []string{"D"}, matching(HasSuffix(types.FieldTitle, "PARTY"), movies))
	assert.Equal(t, []string{"A", "C"}, matching(Is(types.FieldDirector, "Ava Reyes"), movies))
	assert.Empty(t, matching(Is(types.FieldDirector, "ava reyes"), movies))
}

func TestSetMembership(t *testing.T) {
	movies := catalogtest.Scenario()

	assert.Equal(t, []string{"A", "D"}, matching(In(types.FieldGenre, "Action", "Comedy"), movies))
	assert.Equal(t, []string{"B", "D"}, matching(InNumbers(types.FieldReleaseYear, 2019, 2023), movies))
	assert.Empty(t, matching(In(types.FieldGenre), movies))
}

func TestCompleteness(t *testing.T) {
	movies := append(catalogtest.Scenario(), catalogtest.Sparse("S"))
	zeroRuntime := catalogtest.Scenario()[0]
	zeroRuntime.ID = "Z"
	zeroRuntime.Runtime = models.Int(0)
	movies = append(movies, zeroRuntime)

	strict := Completeness{}
	assert.Equal(t, []string{"A", "B", "C", "D", "Z"}, matching(strict.Complete(), movies))
	assert.Equal(t, []string{"S"}, matching(strict.Missing(), movies))

	zero := Completeness{ZeroIsMissing: true}
	assert.Equal(t, []string{"A", "B", "C", "D"}, matching(zero.Complete(), movies))
	assert.Equal(t, []string{"S", "Z"}, matching(zero.Missing(), movies))
}

func TestRecentWindow(t *testing.T) {
	movies := catalogtest.Scenario()
	assert.Equal(t, []string{"A", "B", "D"}, matching(Recent(2024, 5), movies))
	assert.Equal(t, []string{"A", "D"}, matching(Recent(2025, 5), movies))
	assert.Equal(t, []string{"A", "D"}, matching(Recent(2025, 0), movies))
}

func TestRelations(t *testing.T) {
	movies := catalogtest.Scenario()
	ref := movies[0]

	sameDirector := RelativeTo(ref, SameValue(types.FieldDirector), Distinct())
	assert.Equal(t, []string{"C"}, matching(sameDirector, movies))

	betterThanD := RelativeTo(movies[3], Exceeds(types.FieldRating))
	assert.Equal(t, []string{"A", "C"}, matching(betterThanD, movies))

	closeRuntime := RelativeTo(movies[2], Within(types.FieldRuntime, 5), Distinct())
	assert.Equal(t, []string{"D"}, matching(closeRuntime, movies))
}

func TestNamedLookup(t *testing.T) {
	env := Environment{CurrentYear: 2024, RecentWindow: 5}
	p, ok := Named("surprise-hits", env)
	require.True(t, ok)
	assert.Equal(t, []string{"C"}, matching(p, catalogtest.Scenario()))

	_, ok = Named("nope", env)
	assert.False(t, ok)

	for name, want := range map[string][]string{
		"blockbusters":          {"A"},
		"box_office_flops":      {"B"},
		"poorly-rated":          {"B"},
		"critical-failures":     {"B"},
		"big-budget":            {"A"},
		"long_highly_rated":     {"A"},
		"twenty-first-century":  {"A", "B", "D"},
		"recent-big-budget":     {"A"},
		"foreign-language-hits": nil,
		"low-budget":            nil,
	} {
		p, ok := Named(name, env)
		require.True(t, ok, name)
		assert.Equal(t, want, matching(p, catalogtest.Scenario()), name)
	}

	for _, gone := range []string{"long", "short"} {
		_, ok := Named(gone, env)
		assert.False(t, ok, gone)
	}
}

func TestConditionsFlatten(t *testing.T) {
	leaves, ok := Conditions(ExpensiveFlop())
	assert.True(t, ok)
	assert.Len(t, leaves, 2)

	leaves, ok = Conditions(All{HighlyRated(), Completeness{ZeroIsMissing: true}.Missing()})
	assert.False(t, ok)
	assert.Len(t, leaves, 1)
}

func TestConditionSQL(t *testing.T) {
	tests := []struct {
		name   string
		cond   Condition
		clause string
		args   []any
		ok     bool
	}{
		{"gte", Gte(types.FieldRating, 8), "rating >= ?", []any{8.0}, true},
		{"between", Between(types.FieldReleaseYear, 1990, 1999), "release_year BETWEEN ? AND ?", []any{1990.0, 1999.0}, true},
		{"cross field", CmpField(types.FieldBoxOffice, OpLt, 0.5, types.FieldBudget), "box_office < ? * budget", []any{0.5}, true},
		{"contains escapes", Contains(types.FieldTitle, "100%_A"), `LOWER(title) LIKE ? ESCAPE '\'`, []any{`%100\%\_a%`}, true},
		{"prefix", HasPrefix(types.FieldTitle, "Co"), `LOWER(title) LIKE ? ESCAPE '\'`, []any{"co%"}, true},
		{"in", In(types.FieldGenre, "Drama"), "genre IN ?", []any{[]string{"Drama"}}, true},
		{"null", IsNull(types.FieldStudio), "studio IS NULL", nil, true},
		{"profit", Gt(types.FieldProfit, 0), "(box_office - budget) > ?", []any{0.0}, true},
		{"eq text", Is(types.FieldGenre, "Drama"), "genre = ?", []any{"Drama"}, true},
		{"margin not pushable", Gt(types.FieldProfitMargin, 10), "", nil, false},
		{"non ascii not pushable", Contains(types.FieldTitle, "Émile"), "", nil, false},
		{"text ordering not pushable", Condition{Field: types.FieldTitle, Op: OpGt, Text: "M"}, "", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clause, args, ok := tt.cond.SQL()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.clause, clause)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestParseOp(t *testing.T) {
	op, ok := ParseOp(">=")
	assert.True(t, ok)
	assert.Equal(t, OpGte, op)

	op, ok = ParseOp("LT")
	assert.True(t, ok)
	assert.Equal(t, OpLt, op)

	_, ok = ParseOp("~")
	assert.False(t, ok)
}
