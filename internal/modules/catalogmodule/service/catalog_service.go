// Package service exposes the catalog finders built on the query engine.
package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/moviecatalog/internal/config"
	"github.com/mantonx/moviecatalog/internal/metrics"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/core/dynamic"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/core/predicate"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/core/query"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/core/repository"
	catalogerrors "github.com/mantonx/moviecatalog/internal/modules/catalogmodule/errors"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/models"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/types"
)

// SimilarRatingTolerance is how far apart two ratings may be for the movies
// to count as similar.
const SimilarRatingTolerance = 1.0

// Settings tunes how the service evaluates queries.
type Settings struct {
	RecentWindow    int
	ZeroIsMissing   bool
	DefaultPageSize int
	MaxPageSize     int
	SampleSeed      int64
}

// DefaultSettings mirrors the configuration defaults.
func DefaultSettings() Settings {
	return SettingsFromConfig(config.DefaultConfig().Catalog)
}

// SettingsFromConfig converts the catalog configuration section.
func SettingsFromConfig(cfg config.CatalogConfig) Settings {
	return Settings{
		RecentWindow:    cfg.RecentWindow,
		ZeroIsMissing:   cfg.ZeroIsMissing,
		DefaultPageSize: cfg.DefaultPageSize,
		MaxPageSize:     cfg.MaxPageSize,
		SampleSeed:      cfg.SampleSeed,
	}
}

// CatalogService answers catalog questions against a record store.
type CatalogService struct {
	store  repository.Store
	logger hclog.Logger
	now    func() time.Time

	mu       sync.RWMutex
	settings Settings

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store repository.Store, logger hclog.Logger, settings Settings) *CatalogService {
	s := &CatalogService{
		store:  store,
		logger: logger.Named("catalog-service"),
		now:    time.Now,
	}
	s.UpdateSettings(settings)
	return s
}

// UpdateSettings swaps the settings in place, e.g. after a config reload.
func (s *CatalogService) UpdateSettings(settings Settings) {
	if settings.DefaultPageSize <= 0 {
		settings.DefaultPageSize = dynamic.DefaultPerPage
	}
	var rng *rand.Rand
	if settings.SampleSeed != 0 {
		seed := uint64(settings.SampleSeed)
		rng = rand.New(rand.NewPCG(seed, seed))
	}

	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()

	s.rngMu.Lock()
	s.rng = rng
	s.rngMu.Unlock()
}

// Settings returns the active settings.
func (s *CatalogService) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Environment returns the inputs of the time- and config-dependent named
// composites.
func (s *CatalogService) Environment() predicate.Environment {
	settings := s.Settings()
	return predicate.Environment{
		CurrentYear:  s.now().Year(),
		RecentWindow: settings.RecentWindow,
		Completeness: predicate.Completeness{ZeroIsMissing: settings.ZeroIsMissing},
	}
}

// Query starts a plan over the whole catalog.
func (s *CatalogService) Query() query.Query {
	return query.From(s.store)
}

// clamp caps a caller supplied limit at the configured maximum.
func (s *CatalogService) clamp(n int) int {
	if ceiling := s.Settings().MaxPageSize; ceiling > 0 && n > ceiling {
		return ceiling
	}
	return n
}

// list evaluates q and records the outcome.
func (s *CatalogService) list(ctx context.Context, op string, q query.Query) ([]models.Movie, error) {
	start := time.Now()
	movies, err := q.All(ctx)
	metrics.ObserveQuery(op, len(movies), err)
	if err != nil {
		s.logger.Error("query failed", "op", op, "plan", q.Explain(), "error", err)
		return nil, catalogerrors.Store(op, err)
	}
	s.logger.Debug("query evaluated", "op", op, "plan", q.Explain(), "results", len(movies), "duration", time.Since(start))
	return movies, nil
}

func (s *CatalogService) first(ctx context.Context, op string, q query.Query) (models.Movie, bool, error) {
	movie, ok, err := q.First(ctx)
	metrics.ObserveQuery(op, boolToInt(ok), err)
	if err != nil {
		return models.Movie{}, false, catalogerrors.Store(op, err)
	}
	return movie, ok, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// FindByID returns the movie with id. ok is false when there is none.
func (s *CatalogService) FindByID(ctx context.Context, id string) (models.Movie, bool, error) {
	movie, ok, err := s.store.Get(ctx, id)
	metrics.ObserveQuery("find_by_id", boolToInt(ok), err)
	if err != nil {
		return models.Movie{}, false, catalogerrors.Store("find_by_id", err).WithMovie(id)
	}
	return movie, ok, nil
}

// FindByTitle returns the first movie whose title equals title exactly.
func (s *CatalogService) FindByTitle(ctx context.Context, title string) (models.Movie, bool, error) {
	return s.first(ctx, "find_by_title", s.Query().Where(predicate.Is(types.FieldTitle, title)))
}

// SearchTitle finds titles containing term, case-insensitively.
func (s *CatalogService) SearchTitle(ctx context.Context, term string) ([]models.Movie, error) {
	q := s.Query().Where(predicate.Contains(types.FieldTitle, term)).OrderBy(types.FieldTitle, query.Asc)
	return s.list(ctx, "search_title", q)
}

// TitleStartsWith lists titles beginning with prefix, case-insensitively.
func (s *CatalogService) TitleStartsWith(ctx context.Context, prefix string) ([]models.Movie, error) {
	q := s.Query().Where(predicate.HasPrefix(types.FieldTitle, prefix)).OrderBy(types.FieldTitle, query.Asc)
	return s.list(ctx, "title_starts_with", q)
}

// TitleEndsWith lists titles ending with suffix, case-insensitively.
func (s *CatalogService) TitleEndsWith(ctx context.Context, suffix string) ([]models.Movie, error) {
	q := s.Query().Where(predicate.HasSuffix(types.FieldTitle, suffix)).OrderBy(types.FieldTitle, query.Asc)
	return s.list(ctx, "title_ends_with", q)
}

// ByDirector lists a director's movies, oldest first.
func (s *CatalogService) ByDirector(ctx context.Context, director string) ([]models.Movie, error) {
	q := s.Query().Where(predicate.Is(types.FieldDirector, director)).OrderBy(types.FieldReleaseYear, query.Asc)
	return s.list(ctx, "by_director", q)
}

// ByGenre lists a genre's movies, best rated first.
func (s *CatalogService) ByGenre(ctx context.Context, genre string) ([]models.Movie, error) {
	q := s.Query().Where(predicate.Is(types.FieldGenre, genre)).OrderBy(types.FieldRating, query.Desc)
	return s.list(ctx, "by_genre", q)
}

// ByDecade lists movies released in the decade containing year.
func (s *CatalogService) ByDecade(ctx context.Context, year int) ([]models.Movie, error) {
	q := s.Query().Where(predicate.InDecade(models.DecadeOf(year))).OrderBy(types.FieldReleaseYear, query.Asc)
	return s.list(ctx, "by_decade", q)
}

// ByYearRange lists movies released in [from, to].
func (s *CatalogService) ByYearRange(ctx context.Context, from, to int) ([]models.Movie, error) {
	if from > to {
		return nil, catalogerrors.Validation("by_year_range", fmt.Errorf("from %d is after to %d", from, to))
	}
	q := s.Query().Where(predicate.ReleasedBetween(from, to)).OrderBy(types.FieldReleaseYear, query.Asc)
	return s.list(ctx, "by_year_range", q)
}

// HighlyRated lists movies rated 8.0 or better, best first.
func (s *CatalogService) HighlyRated(ctx context.Context) ([]models.Movie, error) {
	return s.list(ctx, "highly_rated", s.Query().Where(predicate.HighlyRated()).OrderBy(types.FieldRating, query.Desc))
}

// Profitable lists movies that out-earned their budget, most profitable first.
func (s *CatalogService) Profitable(ctx context.Context) ([]models.Movie, error) {
	return s.list(ctx, "profitable", s.Query().Where(predicate.Profitable()).OrderBy(types.FieldProfit, query.Desc))
}

// ExpensiveFlops lists big-budget movies that recovered less than half their budget.
func (s *CatalogService) ExpensiveFlops(ctx context.Context) ([]models.Movie, error) {
	return s.list(ctx, "expensive_flops", s.Query().Where(predicate.ExpensiveFlop()).OrderBy(types.FieldBudget, query.Desc))
}

// SurpriseHits lists low-budget movies that returned ten times their budget.
func (s *CatalogService) SurpriseHits(ctx context.Context) ([]models.Movie, error) {
	return s.list(ctx, "surprise_hits", s.Query().Where(predicate.SurpriseHit()).OrderBy(types.FieldROI, query.Desc))
}

// AcclaimedBlockbusters lists highly rated movies that grossed 500M or more.
func (s *CatalogService) AcclaimedBlockbusters(ctx context.Context) ([]models.Movie, error) {
	q := s.Query().Where(predicate.AcclaimedBlockbuster()).OrderBy(types.FieldBoxOffice, query.Desc)
	return s.list(ctx, "acclaimed_blockbusters", q)
}

// Recent lists movies released within the configured window, newest first.
func (s *CatalogService) Recent(ctx context.Context) ([]models.Movie, error) {
	env := s.Environment()
	q := s.Query().Where(predicate.Recent(env.CurrentYear, env.RecentWindow)).OrderBy(types.FieldReleaseYear, query.Desc)
	return s.list(ctx, "recent", q)
}

// Classics lists movies released before 1980, oldest first.
func (s *CatalogService) Classics(ctx context.Context) ([]models.Movie, error) {
	return s.list(ctx, "classics", s.Query().Where(predicate.Classic()).OrderBy(types.FieldReleaseYear, query.Asc))
}

// CompleteData lists movies with rating, budget, box office and runtime all known.
func (s *CatalogService) CompleteData(ctx context.Context) ([]models.Movie, error) {
	return s.list(ctx, "complete_data", s.Query().Where(s.Environment().Completeness.Complete()))
}

// MissingData lists movies lacking any of rating, budget, box office or runtime.
func (s *CatalogService) MissingData(ctx context.Context) ([]models.Movie, error) {
	return s.list(ctx, "missing_data", s.Query().Where(s.Environment().Completeness.Missing()))
}

// Named evaluates a named composite such as "highly-rated" or "recent".
func (s *CatalogService) Named(ctx context.Context, name string) ([]models.Movie, error) {
	p, ok := predicate.Named(name, s.Environment())
	if !ok {
		return nil, catalogerrors.UnknownNamedQuery("named", name)
	}
	return s.list(ctx, "named", s.Query().Where(p))
}

// Metric is a ranking the top-n finders know about.
type Metric struct {
	Field     types.Field
	Direction query.Direction
}

var rankings = map[string]Metric{
	"rating":           {types.FieldRating, query.Desc},
	"box-office":       {types.FieldBoxOffice, query.Desc},
	"grossing":         {types.FieldBoxOffice, query.Desc},
	"budget":           {types.FieldBudget, query.Desc},
	"runtime-longest":  {types.FieldRuntime, query.Desc},
	"longest":          {types.FieldRuntime, query.Desc},
	"runtime-shortest": {types.FieldRuntime, query.Asc},
	"shortest":         {types.FieldRuntime, query.Asc},
	"profit":           {types.FieldProfit, query.Desc},
	"roi":              {types.FieldROI, query.Desc},
}

// ParseMetric resolves a ranking name.
func ParseMetric(name string) (Metric, bool) {
	m, ok := rankings[strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")]
	return m, ok
}

// Top returns the n best movies by metric. Movies without a value for the
// metric are never included.
func (s *CatalogService) Top(ctx context.Context, metric string, n int) ([]models.Movie, error) {
	m, ok := ParseMetric(metric)
	if !ok {
		return nil, catalogerrors.UnknownField("top", metric)
	}
	q := s.Query().Where(predicate.NotNull(m.Field)).OrderBy(m.Field, m.Direction).Limit(s.clamp(n))
	return s.list(ctx, "top_"+m.Field.String(), q)
}

// TopRated returns the n highest rated movies.
func (s *CatalogService) TopRated(ctx context.Context, n int) ([]models.Movie, error) {
	return s.Top(ctx, "rating", n)
}

// TopGrossing returns the n highest grossing movies.
func (s *CatalogService) TopGrossing(ctx context.Context, n int) ([]models.Movie, error) {
	return s.Top(ctx, "box-office", n)
}

// Longest returns the n longest movies.
func (s *CatalogService) Longest(ctx context.Context, n int) ([]models.Movie, error) {
	return s.Top(ctx, "runtime-longest", n)
}

// Shortest returns the n shortest movies.
func (s *CatalogService) Shortest(ctx context.Context, n int) ([]models.Movie, error) {
	return s.Top(ctx, "runtime-shortest", n)
}

// Page is one page of the catalog in store order.
type Page struct {
	Movies     []models.Movie `json:"movies"`
	Page       int            `json:"page"`
	PerPage    int            `json:"per_page"`
	Total      int            `json:"total"`
	TotalPages int            `json:"total_pages"`
}

// Paginated returns page (1-based) of the catalog. A non-positive perPage
// uses the configured default.
func (s *CatalogService) Paginated(ctx context.Context, page, perPage int) (Page, error) {
	if perPage <= 0 {
		perPage = s.Settings().DefaultPageSize
	}
	perPage = s.clamp(perPage)
	page = max(page, 1)

	total, err := s.Query().Count(ctx)
	if err != nil {
		return Page{}, catalogerrors.Store("paginated", err)
	}
	movies, err := s.list(ctx, "paginated", s.Query().Page(page, perPage))
	if err != nil {
		return Page{}, err
	}
	return Page{
		Movies:     movies,
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: (total + perPage - 1) / perPage,
	}, nil
}

// Random returns up to n distinct movies chosen uniformly.
func (s *CatalogService) Random(ctx context.Context, n int) ([]models.Movie, error) {
	s.rngMu.Lock()
	movies, err := s.Query().Sample(ctx, s.clamp(n), s.rng)
	s.rngMu.Unlock()

	metrics.ObserveQuery("random", len(movies), err)
	if err != nil {
		return nil, catalogerrors.Store("random", err)
	}
	return movies, nil
}

// DistinctValues lists the distinct present values of a field, sorted by
// first appearance in store order.
func (s *CatalogService) DistinctValues(ctx context.Context, field string) ([]string, error) {
	f, ok := types.ParseField(field)
	if !ok {
		return nil, catalogerrors.UnknownField("distinct", field)
	}
	values, err := s.Query().Distinct(ctx, f)
	metrics.ObserveQuery("distinct", len(values), err)
	if err != nil {
		return nil, catalogerrors.Store("distinct", err)
	}
	return values, nil
}

// Similar finds up to n other movies of the same genre whose rating is
// within SimilarRatingTolerance of the movie with id.
func (s *CatalogService) Similar(ctx context.Context, id string, n int) ([]models.Movie, error) {
	ref, ok, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, catalogerrors.NotFound("similar", id)
	}
	p := predicate.RelativeTo(ref,
		predicate.SameValue(types.FieldGenre),
		predicate.Within(types.FieldRating, SimilarRatingTolerance),
		predicate.Distinct(),
	)
	return s.list(ctx, "similar", s.Query().Where(p).OrderBy(types.FieldRating, query.Desc).Limit(s.clamp(n)))
}

// relation is how a related-movies lookup compares candidates with the
// reference movie and how it orders them.
type relation struct {
	relations []predicate.Relation
	order     types.Field
	direction query.Direction
}

var relatedBy = map[string]relation{
	"same-director":   {[]predicate.Relation{predicate.SameValue(types.FieldDirector), predicate.Distinct()}, types.FieldReleaseYear, query.Asc},
	"same-genre":      {[]predicate.Relation{predicate.SameValue(types.FieldGenre), predicate.Distinct()}, types.FieldRating, query.Desc},
	"same-year":       {[]predicate.Relation{predicate.SameValue(types.FieldReleaseYear), predicate.Distinct()}, types.FieldTitle, query.Asc},
	"same-studio":     {[]predicate.Relation{predicate.SameValue(types.FieldStudio), predicate.Distinct()}, types.FieldReleaseYear, query.Asc},
	"better-rated":    {[]predicate.Relation{predicate.Exceeds(types.FieldRating)}, types.FieldRating, query.Desc},
	"more-successful": {[]predicate.Relation{predicate.Exceeds(types.FieldBoxOffice)}, types.FieldBoxOffice, query.Desc},
}

// RelationNames lists the relations Related understands, sorted.
func RelationNames() []string {
	names := make([]string, 0, len(relatedBy))
	for name := range relatedBy {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Related lists up to n other movies standing in relation to the movie
// with id, e.g. "same-director" or "better-rated". A reference whose
// compared field is missing relates to nothing.
func (s *CatalogService) Related(ctx context.Context, id, name string, n int) ([]models.Movie, error) {
	rel, ok := relatedBy[strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")]
	if !ok {
		return nil, catalogerrors.Validation("related", fmt.Errorf("unknown relation %q", name)).WithField(name)
	}
	ref, ok, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, catalogerrors.NotFound("related", id)
	}
	q := s.Query().Where(predicate.RelativeTo(ref, rel.relations...)).OrderBy(rel.order, rel.direction).Limit(s.clamp(n))
	return s.list(ctx, "related", q)
}

// DynamicResult is the answer to a filter-map and option-map request.
type DynamicResult struct {
	Movies []models.Movie `json:"movies"`
	// Total counts every match before pagination.
	Total   int      `json:"total"`
	Skipped []string `json:"skipped,omitempty"`
	Plan    string   `json:"plan"`
}

// Dynamic evaluates an untyped filter-map and option-map. Keys whose values
// cannot be interpreted are skipped and reported back.
func (s *CatalogService) Dynamic(ctx context.Context, filters, options map[string]any) (DynamicResult, error) {
	settings := s.Settings()
	f := dynamic.ParseFilters(filters)
	o := dynamic.ParseOptions(options).Clamp(settings.MaxPageSize)
	if o.Page != nil && o.PerPage == nil {
		size := settings.DefaultPageSize
		o.PerPage = &size
	}

	filtered := f.Apply(s.Query())
	total, err := filtered.Count(ctx)
	if err != nil {
		metrics.ObserveQuery("dynamic", 0, err)
		return DynamicResult{}, catalogerrors.Store("dynamic", err)
	}

	q := o.Apply(filtered)
	movies, err := s.list(ctx, "dynamic", q)
	if err != nil {
		return DynamicResult{}, err
	}

	skipped := append(append([]string{}, f.Skipped...), o.Skipped...)
	if len(skipped) > 0 {
		s.logger.Debug("dynamic query skipped keys", "keys", skipped)
	}
	return DynamicResult{Movies: movies, Total: total, Skipped: skipped, Plan: q.Explain()}, nil
}

// Count counts the movies matching a filter-map.
func (s *CatalogService) Count(ctx context.Context, filters map[string]any) (int, error) {
	n, err := dynamic.ParseFilters(filters).Apply(s.Query()).Count(ctx)
	metrics.ObserveQuery("count", n, err)
	if err != nil {
		return 0, catalogerrors.Store("count", err)
	}
	return n, nil
}
