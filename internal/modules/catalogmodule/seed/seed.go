// Package seed generates plausible synthetic movies for demos and load tests.
package seed

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/moviecatalog/internal/metrics"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/core/repository"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/models"
)

var (
	genres = []string{
		"Action", "Adventure", "Animation", "Comedy", "Crime", "Documentary",
		"Drama", "Fantasy", "Horror", "Romance", "Sci-Fi", "Thriller",
	}
	firstNames = []string{
		"Ava", "Ben", "Chloe", "Dmitri", "Elena", "Farid", "Greta", "Hiro",
		"Ines", "Jonas", "Kemi", "Luca", "Maya", "Nils", "Omar", "Priya",
	}
	lastNames = []string{
		"Reyes", "Okafor", "Martin", "Volkov", "Santos", "Haddad", "Lind",
		"Tanaka", "Moreau", "Berg", "Adeyemi", "Rossi", "Patel", "Novak",
	}
	adjectives = []string{
		"Silent", "Broken", "Golden", "Last", "Hidden", "Crimson", "Endless",
		"Distant", "Frozen", "Wild", "Quiet", "Burning", "Lost", "Hollow",
	}
	nouns = []string{
		"Harbor", "Horizon", "Trail", "Empire", "Garden", "Signal", "River",
		"Kingdom", "Echo", "Frontier", "Mirror", "Storm", "Orchard", "Station",
	}
	countries = []struct{ country, language string }{
		{"USA", "English"}, {"UK", "English"}, {"France", "French"},
		{"Japan", "Japanese"}, {"South Korea", "Korean"}, {"India", "Hindi"},
		{"Germany", "German"}, {"Spain", "Spanish"}, {"Nigeria", "English"},
	}
	studios = []string{
		"Northlight", "Greyfield", "Lumen", "Paper Crane", "Ironwood",
		"Bluebell Pictures", "Meridian", "Sable Films",
	}
)

// Options controls generation.
type Options struct {
	Count int
	// Seed makes generation reproducible. Zero picks a time-based seed.
	Seed int64
	// FirstYear and LastYear bound release years, inclusive.
	FirstYear, LastYear int
	// SparseRatio is the probability that each nullable field is left empty.
	SparseRatio float64
}

// DefaultOptions returns options for a mid-sized catalog.
func DefaultOptions() Options {
	return Options{
		Count:       500,
		FirstYear:   1950,
		LastYear:    time.Now().Year(),
		SparseRatio: 0.05,
	}
}

// Generator produces movies from a deterministic random source.
type Generator struct {
	rng  *rand.Rand
	opts Options
}

// NewGenerator creates a generator. The same options always yield the same
// movies when Seed is non-zero.
func NewGenerator(opts Options) *Generator {
	seed := uint64(opts.Seed)
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	if opts.LastYear < opts.FirstYear {
		opts.FirstYear, opts.LastYear = opts.LastYear, opts.FirstYear
	}
	return &Generator{
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		opts: opts,
	}
}

func pick[T any](rng *rand.Rand, items []T) T {
	return items[rng.IntN(len(items))]
}

func (g *Generator) sparse() bool {
	return g.rng.Float64() < g.opts.SparseRatio
}

// round keeps n significant figures, like reported budgets.
func round(v float64, figures int) float64 {
	if v == 0 {
		return 0
	}
	scale := math.Pow(10, float64(figures)-math.Ceil(math.Log10(math.Abs(v))))
	return math.Round(v*scale) / scale
}

// Movie generates one movie. IDs are left empty for the store to assign.
func (g *Generator) Movie() models.Movie {
	rng := g.rng
	place := pick(rng, countries)

	m := models.Movie{
		Title:       fmt.Sprintf("The %s %s", pick(rng, adjectives), pick(rng, nouns)),
		Director:    pick(rng, firstNames) + " " + pick(rng, lastNames),
		Genre:       pick(rng, genres),
		ReleaseYear: g.opts.FirstYear + rng.IntN(g.opts.LastYear-g.opts.FirstYear+1),
	}

	if !g.sparse() {
		// ratings cluster around 6.5
		rating := math.Round(math.Max(1, math.Min(10, rng.NormFloat64()*1.4+6.5))*10) / 10
		m.Rating = &rating
	}
	// budgets are log-normal between roughly 1M and 300M
	budget := round(math.Exp(rng.Float64()*math.Log(300)+math.Log(1_000_000)), 2)
	if !g.sparse() {
		m.Budget = &budget
	}
	if !g.sparse() {
		multiple := math.Exp(rng.NormFloat64()*0.9 + 0.7)
		boxOffice := round(budget*multiple, 3)
		m.BoxOffice = &boxOffice
	}
	if !g.sparse() {
		m.Runtime = models.Int(80 + rng.IntN(90))
	}
	if !g.sparse() {
		m.Country = models.String(place.country)
	}
	if !g.sparse() {
		m.Language = models.String(place.language)
	}
	if !g.sparse() {
		m.Studio = models.String(pick(rng, studios))
	}
	return m
}

// Movies generates opts.Count movies.
func (g *Generator) Movies() []models.Movie {
	movies := make([]models.Movie, max(g.opts.Count, 0))
	for i := range movies {
		movies[i] = g.Movie()
	}
	return movies
}

// Seed generates movies and ingests them in batches of batchSize.
func Seed(ctx context.Context, ingester repository.Ingester, opts Options, batchSize int, logger hclog.Logger) (int, error) {
	if batchSize <= 0 {
		batchSize = repository.DefaultBatchSize
	}
	movies := NewGenerator(opts).Movies()

	written := 0
	for start := 0; start < len(movies); start += batchSize {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		end := min(start+batchSize, len(movies))
		if err := ingester.Ingest(ctx, movies[start:end]); err != nil {
			return written, fmt.Errorf("failed to ingest movies %d-%d: %w", start, end, err)
		}
		written += end - start
		metrics.MoviesIngested.Add(float64(end - start))
		logger.Debug("seeded batch", "written", written, "total", len(movies))
	}

	logger.Info("catalog seeded", "movies", written, "seed", opts.Seed)
	return written, nil
}
