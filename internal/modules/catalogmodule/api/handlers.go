// Package api exposes the catalog over HTTP.
package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
	apierrors "github.com/mantonx/moviecatalog/internal/errors"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/core/aggregate"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/core/dynamic"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/core/predicate"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/models"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/service"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/types"
)

const defaultListLimit = 10

// Handler provides HTTP handlers for catalog operations
type Handler struct {
	catalog *service.CatalogService
	logger  hclog.Logger
}

// NewHandler creates a new API handler
func NewHandler(catalog *service.CatalogService, logger hclog.Logger) *Handler {
	return &Handler{
		catalog: catalog,
		logger:  logger.Named("catalog-api"),
	}
}

// QueryRequest is the body of POST /api/movies/query.
type QueryRequest struct {
	Filters map[string]any `json:"filters"`
	Options map[string]any `json:"options"`
}

// queryParams flattens the URL query. Repeated keys stay lists so that
// genre=Drama&genre=Comedy becomes a membership filter.
func queryParams(c *gin.Context) map[string]any {
	values := c.Request.URL.Query()
	params := make(map[string]any, len(values))
	for k, v := range values {
		if len(v) == 1 {
			params[k] = v[0]
		} else {
			params[k] = v
		}
	}
	return params
}

// intQuery reads an integer query parameter, falling back to def when absent.
func intQuery(c *gin.Context, name string, def int) (int, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		apierrors.HandleValidationError(c, fmt.Sprintf("%s must be an integer", name), name)
		return 0, false
	}
	return n, true
}

func (h *Handler) respondMovies(c *gin.Context, movies []models.Movie, err error) {
	if err != nil {
		apierrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"movies": movies,
		"count":  len(movies),
	})
}

// ListMovies handles GET /api/movies
func (h *Handler) ListMovies(c *gin.Context) {
	filters, options := dynamic.Split(queryParams(c))
	h.dynamic(c, filters, options)
}

// QueryMovies handles POST /api/movies/query
func (h *Handler) QueryMovies(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.HandleValidationError(c, "invalid request body: "+err.Error(), "body")
		return
	}
	h.dynamic(c, req.Filters, req.Options)
}

func (h *Handler) dynamic(c *gin.Context, filters, options map[string]any) {
	result, err := h.catalog.Dynamic(c.Request.Context(), filters, options)
	if err != nil {
		apierrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"movies":  result.Movies,
		"count":   len(result.Movies),
		"total":   result.Total,
		"skipped": result.Skipped,
		"plan":    result.Plan,
	})
}

// BrowseMovies handles GET /api/movies/browse
func (h *Handler) BrowseMovies(c *gin.Context) {
	page, ok := intQuery(c, "page", 1)
	if !ok {
		return
	}
	perPage, ok := intQuery(c, "per_page", 0)
	if !ok {
		return
	}
	result, err := h.catalog.Paginated(c.Request.Context(), page, perPage)
	if err != nil {
		apierrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CountMovies handles GET /api/movies/count
func (h *Handler) CountMovies(c *gin.Context) {
	filters, _ := dynamic.Split(queryParams(c))
	n, err := h.catalog.Count(c.Request.Context(), filters)
	if err != nil {
		apierrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

// GetMovie handles GET /api/movies/:id
func (h *Handler) GetMovie(c *gin.Context) {
	id := c.Param("id")
	movie, ok, err := h.catalog.FindByID(c.Request.Context(), id)
	if err != nil {
		apierrors.HandleError(c, err)
		return
	}
	if !ok {
		apierrors.HandleNotFound(c, "movie", id)
		return
	}
	c.JSON(http.StatusOK, movie)
}

// LookupTitle handles GET /api/movies/lookup?title=
func (h *Handler) LookupTitle(c *gin.Context) {
	title := c.Query("title")
	if title == "" {
		apierrors.HandleValidationError(c, "title is required", "title")
		return
	}
	movie, ok, err := h.catalog.FindByTitle(c.Request.Context(), title)
	if err != nil {
		apierrors.HandleError(c, err)
		return
	}
	if !ok {
		apierrors.HandleNotFound(c, "movie", title)
		return
	}
	c.JSON(http.StatusOK, movie)
}

// SearchMovies handles GET /api/movies/search?q=
func (h *Handler) SearchMovies(c *gin.Context) {
	term := strings.TrimSpace(c.Query("q"))
	if term == "" {
		apierrors.HandleValidationError(c, "q is required", "q")
		return
	}
	movies, err := h.catalog.SearchTitle(c.Request.Context(), term)
	h.respondMovies(c, movies, err)
}

// TitlePrefix handles GET /api/movies/title/prefix?q=
func (h *Handler) TitlePrefix(c *gin.Context) {
	prefix := strings.TrimSpace(c.Query("q"))
	if prefix == "" {
		apierrors.HandleValidationError(c, "q is required", "q")
		return
	}
	movies, err := h.catalog.TitleStartsWith(c.Request.Context(), prefix)
	h.respondMovies(c, movies, err)
}

// TitleSuffix handles GET /api/movies/title/suffix?q=
func (h *Handler) TitleSuffix(c *gin.Context) {
	suffix := strings.TrimSpace(c.Query("q"))
	if suffix == "" {
		apierrors.HandleValidationError(c, "q is required", "q")
		return
	}
	movies, err := h.catalog.TitleEndsWith(c.Request.Context(), suffix)
	h.respondMovies(c, movies, err)
}

// MoviesByYears handles GET /api/movies/years?from=&to=
func (h *Handler) MoviesByYears(c *gin.Context) {
	from, ok := intQuery(c, "from", 0)
	if !ok {
		return
	}
	to, ok := intQuery(c, "to", 9999)
	if !ok {
		return
	}
	movies, err := h.catalog.ByYearRange(c.Request.Context(), from, to)
	h.respondMovies(c, movies, err)
}

// MoviesByDirector handles GET /api/movies/director/:name
func (h *Handler) MoviesByDirector(c *gin.Context) {
	movies, err := h.catalog.ByDirector(c.Request.Context(), c.Param("name"))
	h.respondMovies(c, movies, err)
}

// MoviesByGenre handles GET /api/movies/genre/:genre
func (h *Handler) MoviesByGenre(c *gin.Context) {
	movies, err := h.catalog.ByGenre(c.Request.Context(), c.Param("genre"))
	h.respondMovies(c, movies, err)
}

// MoviesByDecade handles GET /api/movies/decade/:year
func (h *Handler) MoviesByDecade(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		apierrors.HandleValidationError(c, "year must be an integer", "year")
		return
	}
	movies, err := h.catalog.ByDecade(c.Request.Context(), year)
	h.respondMovies(c, movies, err)
}

// NamedMovies handles GET /api/movies/named/:name
func (h *Handler) NamedMovies(c *gin.Context) {
	movies, err := h.catalog.Named(c.Request.Context(), c.Param("name"))
	h.respondMovies(c, movies, err)
}

// TopMovies handles GET /api/movies/top/:metric
func (h *Handler) TopMovies(c *gin.Context) {
	limit, ok := intQuery(c, "limit", defaultListLimit)
	if !ok {
		return
	}
	movies, err := h.catalog.Top(c.Request.Context(), c.Param("metric"), limit)
	h.respondMovies(c, movies, err)
}

// DistinctValues handles GET /api/movies/distinct/:field
func (h *Handler) DistinctValues(c *gin.Context) {
	field := c.Param("field")
	values, err := h.catalog.DistinctValues(c.Request.Context(), field)
	if err != nil {
		apierrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"field":  field,
		"values": values,
		"count":  len(values),
	})
}

// RandomMovies handles GET /api/movies/random?count=
func (h *Handler) RandomMovies(c *gin.Context) {
	count, ok := intQuery(c, "count", 1)
	if !ok {
		return
	}
	movies, err := h.catalog.Random(c.Request.Context(), count)
	h.respondMovies(c, movies, err)
}

// SimilarMovies handles GET /api/movies/:id/similar
func (h *Handler) SimilarMovies(c *gin.Context) {
	limit, ok := intQuery(c, "limit", defaultListLimit)
	if !ok {
		return
	}
	movies, err := h.catalog.Similar(c.Request.Context(), c.Param("id"), limit)
	h.respondMovies(c, movies, err)
}

// RelatedMovies handles GET /api/movies/:id/related/:relation
func (h *Handler) RelatedMovies(c *gin.Context) {
	limit, ok := intQuery(c, "limit", defaultListLimit)
	if !ok {
		return
	}
	movies, err := h.catalog.Related(c.Request.Context(), c.Param("id"), c.Param("relation"), limit)
	h.respondMovies(c, movies, err)
}

// FieldValues handles GET /api/movies/values/:field
func (h *Handler) FieldValues(c *gin.Context) {
	field := c.Param("field")
	filters, _ := dynamic.Split(queryParams(c))
	values, err := h.catalog.Values(c.Request.Context(), field, filters)
	if err != nil {
		apierrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"field":  field,
		"values": values,
		"count":  len(values),
	})
}

// ReduceMovies handles GET /api/movies/reduce?reducer=&measure=
func (h *Handler) ReduceMovies(c *gin.Context) {
	reducer, ok := aggregate.ParseReducer(c.DefaultQuery("reducer", "count"))
	if !ok {
		apierrors.HandleValidationError(c, fmt.Sprintf("reducer: unknown reducer %q", c.Query("reducer")), "reducer")
		return
	}
	var measure types.Field
	if m := c.Query("measure"); m != "" {
		if measure, ok = types.ParseField(m); !ok {
			apierrors.HandleValidationError(c, fmt.Sprintf("measure: unknown field %q", m), "measure")
			return
		}
	}

	params := queryParams(c)
	delete(params, "reducer")
	delete(params, "measure")
	filters, _ := dynamic.Split(params)

	value, err := h.catalog.Reduce(c.Request.Context(), filters, reducer, measure)
	if err != nil {
		apierrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reducer": reducer.String(),
		"measure": measure.String(),
		"value":   value,
	})
}

// groupParams are the group endpoint's own query keys; everything else is
// a filter.
var groupParams = map[string]bool{
	"by": true, "reducer": true, "measure": true,
	"having_op": true, "having": true, "order": true, "top": true,
	"empty": true,
}

// parseGroupSpec builds an aggregation from query parameters.
func parseGroupSpec(c *gin.Context) (aggregate.Spec, error) {
	var spec aggregate.Spec
	var ok bool

	if spec.By, ok = types.ParseField(c.Query("by")); !ok {
		return spec, fmt.Errorf("by: unknown field %q", c.Query("by"))
	}
	if spec.Reducer, ok = aggregate.ParseReducer(c.DefaultQuery("reducer", "count")); !ok {
		return spec, fmt.Errorf("reducer: unknown reducer %q", c.Query("reducer"))
	}
	if m := c.Query("measure"); m != "" {
		if spec.Measure, ok = types.ParseField(m); !ok {
			return spec, fmt.Errorf("measure: unknown field %q", m)
		}
	}
	if raw := c.Query("having"); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return spec, fmt.Errorf("having: %q is not a number", raw)
		}
		op, ok := predicate.ParseOp(c.DefaultQuery("having_op", ">="))
		if !ok {
			return spec, fmt.Errorf("having_op: unknown operator %q", c.Query("having_op"))
		}
		spec.Having = &aggregate.Threshold{Op: op, Value: value}
	}
	switch strings.ToLower(c.Query("order")) {
	case "", "desc":
		spec.Order = aggregate.ValueDesc
	case "asc":
		spec.Order = aggregate.ValueAsc
	case "none":
		spec.Order = aggregate.Unordered
	default:
		return spec, fmt.Errorf("order: must be asc, desc or none")
	}
	if raw := c.Query("top"); raw != "" {
		top, err := strconv.Atoi(raw)
		if err != nil || top < 0 {
			return spec, fmt.Errorf("top: %q is not a non-negative integer", raw)
		}
		spec.Top = top
	}
	switch strings.ToLower(c.Query("empty")) {
	case "", "null":
	case "zero":
		spec.EmptyAsZero = true
	default:
		return spec, fmt.Errorf("empty: must be zero or null")
	}
	return spec, spec.Validate()
}

// GroupMovies handles GET /api/movies/groups
func (h *Handler) GroupMovies(c *gin.Context) {
	spec, err := parseGroupSpec(c)
	if err != nil {
		apierrors.HandleValidationError(c, err.Error(), "group")
		return
	}

	params := queryParams(c)
	for k := range params {
		if groupParams[k] {
			delete(params, k)
		}
	}
	filters, _ := dynamic.Split(params)

	results, err := h.catalog.Groups(c.Request.Context(), filters, spec)
	if err != nil {
		apierrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"by":      spec.By.String(),
		"reducer": spec.Reducer.String(),
		"groups":  results,
		"count":   len(results),
	})
}

// GenreCounts handles GET /api/movies/genres?min=
func (h *Handler) GenreCounts(c *gin.Context) {
	minimum, ok := intQuery(c, "min", 1)
	if !ok {
		return
	}
	results, err := h.catalog.GenresWithAtLeast(c.Request.Context(), minimum)
	h.respondGroups(c, results, err)
}

// TopDirectors handles GET /api/movies/directors/top
func (h *Handler) TopDirectors(c *gin.Context) {
	limit, ok := intQuery(c, "limit", defaultListLimit)
	if !ok {
		return
	}
	directors, err := h.catalog.TopDirectors(c.Request.Context(), limit)
	if err != nil {
		apierrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"directors": directors, "count": len(directors)})
}

// Statistics handles GET /api/movies/stats
func (h *Handler) Statistics(c *gin.Context) {
	stats, err := h.catalog.Statistics(c.Request.Context())
	if err != nil {
		apierrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// DecadeStatistics handles GET /api/movies/stats/decades
func (h *Handler) DecadeStatistics(c *gin.Context) {
	decades, err := h.catalog.DecadeStatistics(c.Request.Context())
	if err != nil {
		apierrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"decades": decades, "count": len(decades)})
}

// BudgetByDecade handles GET /api/movies/stats/budget-by-decade
func (h *Handler) BudgetByDecade(c *gin.Context) {
	results, err := h.catalog.AverageBudgetByDecade(c.Request.Context())
	h.respondGroups(c, results, err)
}

// RatingDistribution handles GET /api/movies/stats/ratings
func (h *Handler) RatingDistribution(c *gin.Context) {
	results, err := h.catalog.RatingDistribution(c.Request.Context())
	h.respondGroups(c, results, err)
}

// RatingByGenre handles GET /api/movies/stats/genres
func (h *Handler) RatingByGenre(c *gin.Context) {
	results, err := h.catalog.AverageRatingByGenre(c.Request.Context())
	h.respondGroups(c, results, err)
}

// BoxOfficeByStudio handles GET /api/movies/stats/studios
func (h *Handler) BoxOfficeByStudio(c *gin.Context) {
	results, err := h.catalog.BoxOfficeByStudio(c.Request.Context())
	h.respondGroups(c, results, err)
}

func (h *Handler) respondGroups(c *gin.Context, results aggregate.Results, err error) {
	if err != nil {
		apierrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": results, "count": len(results)})
}
