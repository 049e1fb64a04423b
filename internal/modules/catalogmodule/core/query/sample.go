package query

import (
	"context"
	"math/rand/v2"

	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/models"
)

// Sample draws n results without replacement. When n is at least the
// number of results every result is returned, shuffled. n <= 0 returns an
// empty slice. A nil rng uses the global source.
func (q Query) Sample(ctx context.Context, n int, rng *rand.Rand) ([]models.Movie, error) {
	if n <= 0 {
		return []models.Movie{}, nil
	}
	movies, err := q.evaluate(ctx)
	if err != nil {
		return nil, err
	}

	intN := rand.IntN
	if rng != nil {
		intN = rng.IntN
	}

	// partial Fisher-Yates over the first n slots
	n = min(n, len(movies))
	for i := 0; i < n; i++ {
		j := i + intN(len(movies)-i)
		movies[i], movies[j] = movies[j], movies[i]
	}
	out := make([]models.Movie, n)
	copy(out, movies[:n])
	return out, nil
}
