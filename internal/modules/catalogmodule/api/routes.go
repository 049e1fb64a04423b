package api

import (
	"github.com/gin-gonic/gin"
	"github.com/mantonx/moviecatalog/internal/apiroutes"
)

// RegisterRoutes registers all catalog module routes and documents them in
// the /api discovery listing.
func RegisterRoutes(router *gin.Engine, handler *Handler) {
	movies := router.Group("/api/movies")
	{
		get(movies, "", handler.ListMovies, "List movies using filter and option keys from the query string.")
		post(movies, "/query", handler.QueryMovies, `Run a dynamic query: {"filters": {...}, "options": {...}}.`)
		get(movies, "/browse", handler.BrowseMovies, "Browse movies a page at a time (?page=&per_page=).")
		get(movies, "/count", handler.CountMovies, "Count movies matching the filter keys.")
		get(movies, "/lookup", handler.LookupTitle, "Find a movie by exact title (?title=).")
		get(movies, "/search", handler.SearchMovies, "Search titles by substring (?q=).")
		get(movies, "/title/prefix", handler.TitlePrefix, "Titles starting with a prefix (?q=).")
		get(movies, "/title/suffix", handler.TitleSuffix, "Titles ending with a suffix (?q=).")
		get(movies, "/years", handler.MoviesByYears, "Movies released within a year range (?from=&to=).")
		get(movies, "/director/:name", handler.MoviesByDirector, "Movies by a director, oldest first.")
		get(movies, "/genre/:genre", handler.MoviesByGenre, "Movies in a genre, best rated first.")
		get(movies, "/decade/:year", handler.MoviesByDecade, "Movies released in the decade containing year.")
		get(movies, "/named/:name", handler.NamedMovies, "Run a named query such as highly-rated or surprise-hits.")
		get(movies, "/top/:metric", handler.TopMovies, "Top movies by rating, box-office, budget, runtime, profit or roi (?limit=).")
		get(movies, "/distinct/:field", handler.DistinctValues, "Distinct values of a field.")
		get(movies, "/random", handler.RandomMovies, "A random sample of movies (?count=).")
		get(movies, "/values/:field", handler.FieldValues, "Values of a numeric field over the movies matching the filter keys.")
		get(movies, "/reduce", handler.ReduceMovies, "Reduce a measure over the movies matching the filter keys (?reducer=&measure=).")
		get(movies, "/groups", handler.GroupMovies, "Group and reduce movies (?by=&reducer=&measure=&having_op=&having=&order=&top=&empty=zero|null).")
		get(movies, "/genres", handler.GenreCounts, "Genres with at least min movies (?min=).")
		get(movies, "/directors/top", handler.TopDirectors, "Directors with the most movies (?limit=).")
		get(movies, "/:id", handler.GetMovie, "Get a movie by id.")
		get(movies, "/:id/similar", handler.SimilarMovies, "Movies similar to the given one (?limit=).")
		get(movies, "/:id/related/:relation", handler.RelatedMovies, "Movies related to the given one: same-director, same-genre, same-year, same-studio, better-rated or more-successful (?limit=).")
	}

	stats := movies.Group("/stats")
	{
		get(stats, "", handler.Statistics, "Catalog-wide statistics.")
		get(stats, "/decades", handler.DecadeStatistics, "Per-decade statistics.")
		get(stats, "/budget-by-decade", handler.BudgetByDecade, "Average budget by decade.")
		get(stats, "/ratings", handler.RatingDistribution, "Movie counts by rounded rating.")
		get(stats, "/genres", handler.RatingByGenre, "Average rating by genre.")
		get(stats, "/studios", handler.BoxOfficeByStudio, "Total box office by studio.")
	}
}

func get(group *gin.RouterGroup, path string, h gin.HandlerFunc, description string) {
	group.GET(path, h)
	apiroutes.Register(group.BasePath()+path, "GET", description)
}

func post(group *gin.RouterGroup, path string, h gin.HandlerFunc, description string) {
	group.POST(path, h)
	apiroutes.Register(group.BasePath()+path, "POST", description)
}
