package service

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/mantonx/moviecatalog/internal/metrics"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/core/aggregate"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/core/dynamic"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/core/predicate"
	catalogerrors "github.com/mantonx/moviecatalog/internal/modules/catalogmodule/errors"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/models"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/types"
)

// Statistics summarizes the whole catalog. Averages and totals are nil when
// no movie has the underlying value.
type Statistics struct {
	TotalMovies      int      `json:"total_movies"`
	AverageRating    *float64 `json:"average_rating"`
	AverageRuntime   *float64 `json:"average_runtime"`
	AverageBudget    *float64 `json:"average_budget"`
	AverageBoxOffice *float64 `json:"average_box_office"`
	TotalBudget      *float64 `json:"total_budget"`
	TotalBoxOffice   *float64 `json:"total_box_office"`
	EarliestYear     *float64 `json:"earliest_year"`
	LatestYear       *float64 `json:"latest_year"`
	// MostCommonGenre is the genre with the most movies; ties go to the
	// genre seen first. Empty for an empty catalog.
	MostCommonGenre string `json:"most_common_genre"`
	Genres          int    `json:"genres"`
	Directors       int    `json:"directors"`
	CompleteData    int    `json:"complete_data"`
	MissingData     int    `json:"missing_data"`
}

// DecadeStatistics summarizes one decade.
type DecadeStatistics struct {
	Decade         int      `json:"decade"`
	Movies         int      `json:"movies"`
	AverageRating  *float64 `json:"average_rating"`
	TotalBoxOffice *float64 `json:"total_box_office"`
}

// DirectorCount is a director with their number of movies.
type DirectorCount struct {
	Director string `json:"director"`
	Movies   int    `json:"movies"`
}

func optional(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}

// Statistics computes overall catalog statistics from a single scan.
func (s *CatalogService) Statistics(ctx context.Context) (Statistics, error) {
	movies, err := s.list(ctx, "statistics", s.Query())
	if err != nil {
		return Statistics{}, err
	}

	genres := aggregate.RunWithKey(movies, aggregate.ByField(types.FieldGenre), aggregate.Spec{
		Reducer: aggregate.Count,
		Order:   aggregate.ValueDesc,
	})
	stats := Statistics{
		TotalMovies:      len(movies),
		AverageRating:    optional(aggregate.ReduceAll(movies, aggregate.Avg, types.FieldRating)),
		AverageRuntime:   optional(aggregate.ReduceAll(movies, aggregate.Avg, types.FieldRuntime)),
		AverageBudget:    optional(aggregate.ReduceAll(movies, aggregate.Avg, types.FieldBudget)),
		AverageBoxOffice: optional(aggregate.ReduceAll(movies, aggregate.Avg, types.FieldBoxOffice)),
		TotalBudget:      optional(aggregate.ReduceAll(movies, aggregate.Sum, types.FieldBudget)),
		TotalBoxOffice:   optional(aggregate.ReduceAll(movies, aggregate.Sum, types.FieldBoxOffice)),
		EarliestYear:     optional(aggregate.ReduceAll(movies, aggregate.Min, types.FieldReleaseYear)),
		LatestYear:       optional(aggregate.ReduceAll(movies, aggregate.Max, types.FieldReleaseYear)),
		Genres:           len(genres),
		Directors:        len(aggregate.GroupBy(movies, aggregate.ByField(types.FieldDirector))),
	}
	if len(genres) > 0 {
		stats.MostCommonGenre = genres[0].Key
	}

	complete := s.Environment().Completeness.Complete()
	for i := range movies {
		if complete.Match(&movies[i]) {
			stats.CompleteData++
		}
	}
	stats.MissingData = stats.TotalMovies - stats.CompleteData
	return stats, nil
}

// Groups runs an aggregation over the movies matching a filter-map.
func (s *CatalogService) Groups(ctx context.Context, filters map[string]any, spec aggregate.Spec) (aggregate.Results, error) {
	if err := spec.Validate(); err != nil {
		return nil, catalogerrors.Validation("groups", err)
	}
	results, err := dynamic.ParseFilters(filters).Apply(s.Query()).Aggregate(ctx, spec)
	metrics.ObserveQuery("groups", len(results), err)
	if err != nil {
		return nil, catalogerrors.Store("groups", err)
	}
	return results, nil
}

// TopDirectors ranks directors by number of movies.
func (s *CatalogService) TopDirectors(ctx context.Context, n int) ([]DirectorCount, error) {
	if n <= 0 {
		return []DirectorCount{}, nil
	}
	results, err := s.Groups(ctx, nil, aggregate.Spec{
		By:      types.FieldDirector,
		Reducer: aggregate.Count,
		Order:   aggregate.ValueDesc,
		Top:     s.clamp(n),
	})
	if err != nil {
		return nil, err
	}
	directors := make([]DirectorCount, len(results))
	for i, r := range results {
		directors[i] = DirectorCount{Director: r.Key, Movies: r.Size}
	}
	return directors, nil
}

// GenresWithAtLeast returns genre counts for genres having at least n movies.
func (s *CatalogService) GenresWithAtLeast(ctx context.Context, n int) (aggregate.Results, error) {
	return s.Groups(ctx, nil, aggregate.Spec{
		By:      types.FieldGenre,
		Reducer: aggregate.Count,
		Having:  &aggregate.Threshold{Op: predicate.OpGte, Value: float64(n)},
		Order:   aggregate.ValueDesc,
	})
}

// AverageRatingByGenre ranks genres by mean rating. Genres without any rated
// movie are reported last with no value.
func (s *CatalogService) AverageRatingByGenre(ctx context.Context) (aggregate.Results, error) {
	return s.Groups(ctx, nil, aggregate.Spec{
		By:      types.FieldGenre,
		Reducer: aggregate.Avg,
		Measure: types.FieldRating,
		Order:   aggregate.ValueDesc,
	})
}

// BoxOfficeByStudio ranks studios by total gross. Movies without a studio
// form their own group.
func (s *CatalogService) BoxOfficeByStudio(ctx context.Context) (aggregate.Results, error) {
	return s.Groups(ctx, nil, aggregate.Spec{
		By:      types.FieldStudio,
		Reducer: aggregate.Sum,
		Measure: types.FieldBoxOffice,
		Order:   aggregate.ValueDesc,
	})
}

// DecadeStatistics summarizes each decade, oldest first.
func (s *CatalogService) DecadeStatistics(ctx context.Context) ([]DecadeStatistics, error) {
	movies, err := s.list(ctx, "decade_statistics", s.Query())
	if err != nil {
		return nil, err
	}

	groups := aggregate.GroupBy(movies, aggregate.ByField(types.FieldDecade))
	decades := make([]DecadeStatistics, 0, len(groups))
	for _, g := range groups {
		decade, err := strconv.Atoi(g.Key)
		if err != nil {
			continue
		}
		decades = append(decades, DecadeStatistics{
			Decade:         decade,
			Movies:         len(g.Members),
			AverageRating:  optional(aggregate.Reduce(g.Members, aggregate.Avg, types.FieldRating)),
			TotalBoxOffice: optional(aggregate.Reduce(g.Members, aggregate.Sum, types.FieldBoxOffice)),
		})
	}
	slices.SortFunc(decades, func(a, b DecadeStatistics) int {
		return a.Decade - b.Decade
	})
	return decades, nil
}

// AverageBudgetByDecade reports the mean budget of each decade, oldest
// first. Decades without a known budget have no value.
func (s *CatalogService) AverageBudgetByDecade(ctx context.Context) (aggregate.Results, error) {
	results, err := s.Groups(ctx, nil, aggregate.Spec{
		By:      types.FieldDecade,
		Reducer: aggregate.Avg,
		Measure: types.FieldBudget,
	})
	if err != nil {
		return nil, err
	}
	sortByNumericKey(results)
	return results, nil
}

// roundedRating keys a movie by its rating rounded half away from zero.
func roundedRating(m *models.Movie) (string, bool) {
	if m.Rating == nil {
		return "", false
	}
	return strconv.Itoa(int(math.Round(*m.Rating))), true
}

// RatingDistribution counts movies per whole-number rating, lowest first.
// Unrated movies form a trailing null group.
func (s *CatalogService) RatingDistribution(ctx context.Context) (aggregate.Results, error) {
	movies, err := s.list(ctx, "rating_distribution", s.Query())
	if err != nil {
		return nil, err
	}
	results := aggregate.RunWithKey(movies, roundedRating, aggregate.Spec{Reducer: aggregate.Count})
	sortByNumericKey(results)
	return results, nil
}

// sortByNumericKey orders results by their integer keys with the null group
// last.
func sortByNumericKey(results aggregate.Results) {
	slices.SortStableFunc(results, func(a, b aggregate.Result) int {
		if a.Null != b.Null {
			if a.Null {
				return 1
			}
			return -1
		}
		x, _ := strconv.Atoi(a.Key)
		y, _ := strconv.Atoi(b.Key)
		return cmp.Compare(x, y)
	})
}

// Reduce reduces a measure over the movies matching a filter-map, e.g. the
// total or average runtime. The value is nil when no movie has the measure.
func (s *CatalogService) Reduce(ctx context.Context, filters map[string]any, reducer aggregate.Reducer, measure types.Field) (*float64, error) {
	if reducer != aggregate.Count && measure.Kind() != types.KindNumber {
		return nil, catalogerrors.Validation("reduce", fmt.Errorf("%s requires a numeric measure, got %s", reducer, measure))
	}
	value, ok, err := dynamic.ParseFilters(filters).Apply(s.Query()).Reduce(ctx, reducer, measure)
	metrics.ObserveQuery("reduce", boolToInt(ok), err)
	if err != nil {
		return nil, catalogerrors.Store("reduce", err)
	}
	return optional(value, ok), nil
}

// Values lists the present values of a numeric field over the movies
// matching a filter-map, in store order.
func (s *CatalogService) Values(ctx context.Context, field string, filters map[string]any) ([]float64, error) {
	f, ok := types.ParseField(field)
	if !ok || f.Kind() != types.KindNumber {
		return nil, catalogerrors.UnknownField("values", field)
	}
	values, err := dynamic.ParseFilters(filters).Apply(s.Query()).Values(ctx, f)
	metrics.ObserveQuery("values", len(values), err)
	if err != nil {
		return nil, catalogerrors.Store("values", err)
	}
	return values, nil
}
