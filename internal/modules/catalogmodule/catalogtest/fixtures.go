// Package catalogtest holds shared fixtures for catalog tests.
package catalogtest

import (
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/models"
)

// Scenario returns the four reference movies A, B, C, D used across tests.
//
//	A rating 9.2 budget 200M box office 800M 2020 Action
//	B rating 3.1 budget  50M box office   2M 2019 Drama
//	C rating 8.5 budget   5M box office 100M 1995 Thriller
//	D rating 7.8 budget  30M box office 150M 2023 Comedy
func Scenario() []models.Movie {
	return []models.Movie{
		{
			ID: "A", Title: "Alpha Strike", Director: "Ava Reyes", Genre: "Action", ReleaseYear: 2020,
			Rating: models.Float(9.2), Budget: models.Float(200_000_000), BoxOffice: models.Float(800_000_000),
			Runtime: models.Int(142), Country: models.String("USA"), Language: models.String("English"),
			Studio: models.String("Northlight"),
		},
		{
			ID: "B", Title: "Broken Harbor", Director: "Ben Okafor", Genre: "Drama", ReleaseYear: 2019,
			Rating: models.Float(3.1), Budget: models.Float(50_000_000), BoxOffice: models.Float(2_000_000),
			Runtime: models.Int(118), Country: models.String("UK"), Language: models.String("English"),
			Studio: models.String("Greyfield"),
		},
		{
			ID: "C", Title: "Cold Trail", Director: "Ava Reyes", Genre: "Thriller", ReleaseYear: 1995,
			Rating: models.Float(8.5), Budget: models.Float(5_000_000), BoxOffice: models.Float(100_000_000),
			Runtime: models.Int(97), Country: models.String("USA"), Language: models.String("English"),
			Studio: models.String("Northlight"),
		},
		{
			ID: "D", Title: "Dinner Party", Director: "Chloe Martin", Genre: "Comedy", ReleaseYear: 2023,
			Rating: models.Float(7.8), Budget: models.Float(30_000_000), BoxOffice: models.Float(150_000_000),
			Runtime: models.Int(101), Country: models.String("France"), Language: models.String("French"),
			Studio: models.String("Lumen"),
		},
	}
}

// Sparse is a movie with every nullable field absent.
func Sparse(id string) models.Movie {
	return models.Movie{ID: id, Title: "Untitled " + id, Director: "Unknown", Genre: "Documentary", ReleaseYear: 2001}
}

// IDs extracts identifiers in order.
func IDs(movies []models.Movie) []string {
	ids := make([]string, len(movies))
	for i, m := range movies {
		ids[i] = m.ID
	}
	return ids
}
