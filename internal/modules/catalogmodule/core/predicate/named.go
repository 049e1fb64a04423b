package predicate

import (
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/models"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/types"
)

// Thresholds used by the named composites.
const (
	HighRatingThreshold     = 8.0
	PoorRatingThreshold     = 4.0
	BlockbusterBoxOffice    = 500_000_000.0
	BoxOfficeFlopCeiling    = 10_000_000.0
	BigBudgetFloor          = 100_000_000.0
	LowBudgetCeiling        = 5_000_000.0
	FlopMinBudget           = 50_000_000.0
	FlopRecoveryRatio       = 0.5
	SurpriseMaxBudget       = 20_000_000.0
	SurpriseReturnFactor    = 10.0
	ForeignHitReturnFactor  = 5.0
	ClassicBeforeYear       = 1980
	ModernEraStartYear      = 2000
	DefaultRecentWindow     = 5
	LongFeatureMinutes      = 120
	DefaultOriginalLanguage = "English"
)

// HighlyRated matches rating >= 8.0.
func HighlyRated() Predicate {
	return Gte(types.FieldRating, HighRatingThreshold)
}

// Profitable matches box_office > budget. Either missing fails.
func Profitable() Predicate {
	return CmpField(types.FieldBoxOffice, OpGt, 1, types.FieldBudget)
}

// Unprofitable matches box_office <= budget. Either missing fails.
func Unprofitable() Predicate {
	return CmpField(types.FieldBoxOffice, OpLte, 1, types.FieldBudget)
}

// ExpensiveFlop matches budget >= 50M and box_office < budget × 0.5.
func ExpensiveFlop() Predicate {
	return All{
		Gte(types.FieldBudget, FlopMinBudget),
		CmpField(types.FieldBoxOffice, OpLt, FlopRecoveryRatio, types.FieldBudget),
	}
}

// SurpriseHit matches budget < 20M and box_office > budget × 10.
func SurpriseHit() Predicate {
	return All{
		Lt(types.FieldBudget, SurpriseMaxBudget),
		CmpField(types.FieldBoxOffice, OpGt, SurpriseReturnFactor, types.FieldBudget),
	}
}

// Blockbuster matches box_office > 500M.
func Blockbuster() Predicate {
	return Gt(types.FieldBoxOffice, BlockbusterBoxOffice)
}

// BoxOfficeFlop matches box_office < 10M.
func BoxOfficeFlop() Predicate {
	return Lt(types.FieldBoxOffice, BoxOfficeFlopCeiling)
}

// AcclaimedBlockbuster is a blockbuster that is also highly rated.
func AcclaimedBlockbuster() Predicate {
	return All{HighlyRated(), Blockbuster()}
}

// PoorlyRated matches rating < 4.0.
func PoorlyRated() Predicate {
	return Lt(types.FieldRating, PoorRatingThreshold)
}

// LowBudget matches budget < 5M.
func LowBudget() Predicate {
	return Lt(types.FieldBudget, LowBudgetCeiling)
}

// BigBudget matches budget > 100M.
func BigBudget() Predicate {
	return Gt(types.FieldBudget, BigBudgetFloor)
}

// LongHighlyRated matches runtime > 120 minutes and rating >= 8.0.
func LongHighlyRated() Predicate {
	return All{Gt(types.FieldRuntime, LongFeatureMinutes), HighlyRated()}
}

// ForeignLanguageHit matches a known language other than English with
// box_office > budget × 5.
func ForeignLanguageHit() Predicate {
	return All{
		IsNot(types.FieldLanguage, DefaultOriginalLanguage),
		CmpField(types.FieldBoxOffice, OpGt, ForeignHitReturnFactor, types.FieldBudget),
	}
}

// Classic matches films released before 1980.
func Classic() Predicate {
	return Lt(types.FieldReleaseYear, ClassicBeforeYear)
}

// Recent matches release_year >= currentYear - window. A window <= 0 uses
// DefaultRecentWindow.
func Recent(currentYear, window int) Predicate {
	if window <= 0 {
		window = DefaultRecentWindow
	}
	return Gte(types.FieldReleaseYear, float64(currentYear-window))
}

// RecentBigBudget is a recent release with a big budget.
func RecentBigBudget(currentYear, window int) Predicate {
	return All{Recent(currentYear, window), BigBudget()}
}

// TwentyFirstCentury matches release_year >= 2000.
func TwentyFirstCentury() Predicate {
	return Gte(types.FieldReleaseYear, ModernEraStartYear)
}

// InDecade matches release_year in [decade, decade+9].
func InDecade(decade int) Predicate {
	return Between(types.FieldReleaseYear, float64(decade), float64(decade+9))
}

// ReleasedBetween matches from <= release_year <= to.
func ReleasedBetween(from, to int) Predicate {
	return Between(types.FieldReleaseYear, float64(from), float64(to))
}

// MarginAbove matches profit_margin > pct. Zero-budget records have a
// margin of 0; a missing box office fails.
func MarginAbove(pct float64) Predicate {
	return Gt(types.FieldProfitMargin, pct)
}

// ROIAbove matches roi > pct under the same rules as MarginAbove.
func ROIAbove(pct float64) Predicate {
	return Gt(types.FieldROI, pct)
}

// completenessFields are the nullable fields checked for data completeness.
var completenessFields = []types.Field{
	types.FieldRating,
	types.FieldBudget,
	types.FieldBoxOffice,
	types.FieldRuntime,
}

// Completeness decides which records count as having complete data.
// When ZeroIsMissing is set a stored zero is treated like null.
type Completeness struct {
	ZeroIsMissing bool
}

func (c Completeness) missing(f types.Field) Predicate {
	if !c.ZeroIsMissing {
		return IsNull(f)
	}
	return anyOf{IsNull(f), Equals(f, 0)}
}

// Complete matches records where rating, budget, box_office and runtime are
// all present.
func (c Completeness) Complete() Predicate {
	if !c.ZeroIsMissing {
		all := make(All, 0, len(completenessFields))
		for _, f := range completenessFields {
			all = append(all, NotNull(f))
		}
		return all
	}
	return Func(func(m *models.Movie) bool {
		return !c.Missing().Match(m)
	})
}

// Missing matches records where any of the completeness fields is absent.
func (c Completeness) Missing() Predicate {
	preds := make(anyOf, 0, len(completenessFields))
	for _, f := range completenessFields {
		preds = append(preds, c.missing(f))
	}
	return preds
}

// Environment carries the settings some named composites depend on.
type Environment struct {
	CurrentYear  int
	RecentWindow int
	Completeness Completeness
}

// Named returns a named composite by its kebab or snake case name.
func Named(name string, env Environment) (Predicate, bool) {
	switch name {
	case "highly-rated", "highly_rated":
		return HighlyRated(), true
	case "profitable":
		return Profitable(), true
	case "unprofitable":
		return Unprofitable(), true
	case "expensive-flops", "expensive_flops":
		return ExpensiveFlop(), true
	case "surprise-hits", "surprise_hits":
		return SurpriseHit(), true
	case "blockbusters":
		return Blockbuster(), true
	case "acclaimed-blockbusters", "acclaimed_blockbusters":
		return AcclaimedBlockbuster(), true
	case "box-office-flops", "box_office_flops":
		return BoxOfficeFlop(), true
	case "poorly-rated", "poorly_rated", "critical-failures", "critical_failures":
		return PoorlyRated(), true
	case "low-budget", "low_budget":
		return LowBudget(), true
	case "big-budget", "big_budget":
		return BigBudget(), true
	case "long-highly-rated", "long_highly_rated":
		return LongHighlyRated(), true
	case "foreign-language-hits", "foreign_language_hits":
		return ForeignLanguageHit(), true
	case "classics":
		return Classic(), true
	case "twenty-first-century", "twenty_first_century":
		return TwentyFirstCentury(), true
	case "recent":
		return Recent(env.CurrentYear, env.RecentWindow), true
	case "recent-big-budget", "recent_big_budget":
		return RecentBigBudget(env.CurrentYear, env.RecentWindow), true
	case "complete-data", "complete_data":
		return env.Completeness.Complete(), true
	case "missing-data", "missing_data":
		return env.Completeness.Missing(), true
	}
	return nil, false
}
