package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/moviecatalog/internal/apiroutes"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/catalogtest"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/core/repository"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type movieList struct {
	Movies []struct {
		ID string `json:"id"`
	} `json:"movies"`
	Count   int      `json:"count"`
	Total   int      `json:"total"`
	Skipped []string `json:"skipped"`
}

func (l movieList) ids() []string {
	ids := make([]string, len(l.Movies))
	for i, m := range l.Movies {
		ids[i] = m.ID
	}
	return ids
}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repository.NewMemoryStore(append(catalogtest.Scenario(), catalogtest.Sparse("S"))...)
	catalog := service.NewCatalogService(store, hclog.NewNullLogger(), service.DefaultSettings())

	router := gin.New()
	RegisterRoutes(router, NewHandler(catalog, hclog.NewNullLogger()))
	return router
}

func do(t *testing.T, router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestListMoviesFromQueryString(t *testing.T) {
	router := setupRouter(t)

	w := do(t, router, http.MethodGet, "/api/movies?min_rating=7&order_by=rating&direction=desc&limit=2&min_year=later", "")
	require.Equal(t, http.StatusOK, w.Code)

	list := decode[movieList](t, w)
	assert.Equal(t, []string{"A", "C"}, list.ids())
	assert.Equal(t, 3, list.Total)
	assert.Equal(t, []string{"min_year"}, list.Skipped)
}

func TestListMoviesRepeatedKeys(t *testing.T) {
	w := do(t, setupRouter(t), http.MethodGet, "/api/movies?genre=Drama&genre=Comedy", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"B", "D"}, decode[movieList](t, w).ids())
}

func TestQueryMovies(t *testing.T) {
	router := setupRouter(t)

	w := do(t, router, http.MethodPost, "/api/movies/query",
		`{"filters": {"country": "USA"}, "options": {"order_by": "release_year"}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"C", "A"}, decode[movieList](t, w).ids())

	w = do(t, router, http.MethodPost, "/api/movies/query", `{"filters": [}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetMovie(t *testing.T) {
	router := setupRouter(t)

	w := do(t, router, http.MethodGet, "/api/movies/C", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Cold Trail", decode[map[string]any](t, w)["title"])

	w = do(t, router, http.MethodGet, "/api/movies/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decode[map[string]any](t, w)["code"])
}

func TestLookupAndSearch(t *testing.T) {
	router := setupRouter(t)

	w := do(t, router, http.MethodGet, "/api/movies/lookup?title=Dinner+Party", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "D", decode[map[string]any](t, w)["id"])

	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/api/movies/lookup?title=dinner+party", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/api/movies/lookup", "").Code)

	w = do(t, router, http.MethodGet, "/api/movies/search?q=ar", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"B", "D"}, decode[movieList](t, w).ids())
}

func TestFinderRoutes(t *testing.T) {
	router := setupRouter(t)

	tests := []struct {
		target string
		want   []string
	}{
		{"/api/movies/named/highly-rated", []string{"A", "C"}},
		{"/api/movies/named/missing-data", []string{"S"}},
		{"/api/movies/top/rating?limit=1", []string{"A"}},
		{"/api/movies/top/runtime-shortest?limit=2", []string{"C", "D"}},
		{"/api/movies/director/Ava%20Reyes", []string{"C", "A"}},
		{"/api/movies/genre/Thriller", []string{"C"}},
		{"/api/movies/decade/1999", []string{"C"}},
		{"/api/movies/years?from=2019&to=2020", []string{"B", "A"}},
		{"/api/movies/A/similar", []string{}},
		{"/api/movies/named/blockbusters", []string{"A"}},
		{"/api/movies/named/poorly_rated", []string{"B"}},
		{"/api/movies/title/prefix?q=cold", []string{"C"}},
		{"/api/movies/title/suffix?q=party", []string{"D"}},
		{"/api/movies/A/related/same-director", []string{"C"}},
		{"/api/movies/D/related/better-rated?limit=1", []string{"A"}},
		{"/api/movies/C/related/more_successful", []string{"A", "D"}},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			w := do(t, router, http.MethodGet, tt.target, "")
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Equal(t, tt.want, decode[movieList](t, w).ids())
		})
	}
}

func TestBadRequests(t *testing.T) {
	router := setupRouter(t)

	for _, target := range []string{
		"/api/movies/named/cult",
		"/api/movies/top/popularity",
		"/api/movies/top/rating?limit=many",
		"/api/movies/distinct/popularity",
		"/api/movies/decade/nineties",
		"/api/movies/years?from=2020&to=2000",
		"/api/movies/groups?by=genre&reducer=median",
		"/api/movies/groups?by=genre&reducer=avg",
		"/api/movies/groups?by=genre&having=lots",
		"/api/movies/groups?by=genre&reducer=avg&measure=rating&empty=blank",
		"/api/movies/title/prefix",
		"/api/movies/title/suffix?q=%20",
		"/api/movies/A/related/same-budget",
		"/api/movies/values/title",
		"/api/movies/reduce?reducer=median&measure=runtime",
		"/api/movies/reduce?reducer=sum&measure=popularity",
		"/api/movies/reduce?reducer=sum&measure=title",
	} {
		t.Run(target, func(t *testing.T) {
			w := do(t, router, http.MethodGet, target, "")
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}

	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/api/movies/nope/similar", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/api/movies/nope/related/same-genre", "").Code)
}

func TestDistinctAndRandom(t *testing.T) {
	router := setupRouter(t)

	w := do(t, router, http.MethodGet, "/api/movies/distinct/studio", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[struct {
		Values []string `json:"values"`
	}](t, w)
	assert.Equal(t, []string{"Northlight", "Greyfield", "Lumen"}, body.Values)

	w = do(t, router, http.MethodGet, "/api/movies/random?count=3", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, decode[movieList](t, w).Count)
}

func TestGroups(t *testing.T) {
	w := do(t, setupRouter(t), http.MethodGet,
		"/api/movies/groups?by=director&reducer=sum&measure=box_office&having_op=gt&having=100000000&country=USA", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode[struct {
		Groups []struct {
			Key   string  `json:"key"`
			Value float64 `json:"value"`
			Size  int     `json:"size"`
		} `json:"groups"`
	}](t, w)
	require.Len(t, body.Groups, 1)
	assert.Equal(t, "Ava Reyes", body.Groups[0].Key)
	assert.Equal(t, 900_000_000.0, body.Groups[0].Value)
	assert.Equal(t, 2, body.Groups[0].Size)
}

type groupList struct {
	Groups []struct {
		Key   string  `json:"key"`
		Null  bool    `json:"null"`
		Value float64 `json:"value"`
		Valid bool    `json:"valid"`
		Size  int     `json:"size"`
	} `json:"groups"`
}

func TestGroupsEmptyGroupValue(t *testing.T) {
	router := setupRouter(t)
	base := "/api/movies/groups?by=genre&reducer=avg&measure=rating&genre=Documentary"

	for _, target := range []string{base, base + "&empty=null"} {
		w := do(t, router, http.MethodGet, target, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		body := decode[groupList](t, w)
		require.Len(t, body.Groups, 1)
		assert.Equal(t, "Documentary", body.Groups[0].Key)
		assert.False(t, body.Groups[0].Valid)
	}

	w := do(t, router, http.MethodGet, base+"&empty=ZERO", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[groupList](t, w)
	require.Len(t, body.Groups, 1)
	assert.True(t, body.Groups[0].Valid)
	assert.Equal(t, 0.0, body.Groups[0].Value)
}

func TestValuesAndReduce(t *testing.T) {
	router := setupRouter(t)

	w := do(t, router, http.MethodGet, "/api/movies/values/year?country=USA", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	values := decode[struct {
		Values []float64 `json:"values"`
	}](t, w)
	assert.Equal(t, []float64{2020, 1995}, values.Values)

	w = do(t, router, http.MethodGet, "/api/movies/reduce?reducer=avg&measure=runtime&director=Ava+Reyes", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 119.5, decode[map[string]any](t, w)["value"])

	w = do(t, router, http.MethodGet, "/api/movies/reduce?reducer=avg&measure=rating&genre=Documentary", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	reduced := decode[map[string]any](t, w)
	assert.Contains(t, reduced, "value")
	assert.Nil(t, reduced["value"])

	w = do(t, router, http.MethodGet, "/api/movies/reduce", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 5.0, decode[map[string]any](t, w)["value"])
}

func TestStatisticsBreakdowns(t *testing.T) {
	router := setupRouter(t)

	w := do(t, router, http.MethodGet, "/api/movies/stats/ratings", "")
	require.Equal(t, http.StatusOK, w.Code)
	ratings := decode[groupList](t, w)
	require.Len(t, ratings.Groups, 4)
	assert.Equal(t, "3", ratings.Groups[0].Key)
	assert.Equal(t, "9", ratings.Groups[2].Key)
	assert.Equal(t, 2.0, ratings.Groups[2].Value)
	assert.True(t, ratings.Groups[3].Null)

	w = do(t, router, http.MethodGet, "/api/movies/stats/budget-by-decade", "")
	require.Equal(t, http.StatusOK, w.Code)
	budgets := decode[groupList](t, w)
	require.Len(t, budgets.Groups, 4)
	assert.Equal(t, "2020", budgets.Groups[3].Key)
	assert.Equal(t, 115_000_000.0, budgets.Groups[3].Value)

	w = do(t, router, http.MethodGet, "/api/movies/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[map[string]any](t, w)
	assert.Equal(t, "Action", stats["most_common_genre"])
	assert.Equal(t, 71_250_000.0, stats["average_budget"])
}

func TestStatisticsRoutes(t *testing.T) {
	router := setupRouter(t)

	w := do(t, router, http.MethodGet, "/api/movies/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5.0, decode[map[string]any](t, w)["total_movies"])

	for _, target := range []string{
		"/api/movies/stats/decades",
		"/api/movies/stats/genres",
		"/api/movies/stats/studios",
		"/api/movies/genres?min=1",
		"/api/movies/directors/top?limit=2",
		"/api/movies/browse?page=2&per_page=2",
		"/api/movies/count?genre=Action",
	} {
		t.Run(target, func(t *testing.T) {
			assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, target, "").Code)
		})
	}

	w = do(t, router, http.MethodGet, "/api/movies/directors/top?limit=1", "")
	body := decode[struct {
		Directors []service.DirectorCount `json:"directors"`
	}](t, w)
	assert.Equal(t, []service.DirectorCount{{Director: "Ava Reyes", Movies: 2}}, body.Directors)

	w = do(t, router, http.MethodGet, "/api/movies/count?genre=Action", "")
	assert.Equal(t, 1.0, decode[map[string]any](t, w)["count"])
}

func TestRoutesAreDocumented(t *testing.T) {
	apiroutes.ClearForTesting()
	t.Cleanup(apiroutes.ClearForTesting)
	router := setupRouter(t)

	documented := make(map[string]bool)
	for _, r := range apiroutes.Get() {
		documented[r.Method+" "+r.Path] = true
	}
	for _, r := range router.Routes() {
		assert.True(t, documented[r.Method+" "+r.Path], "%s %s is not documented", r.Method, r.Path)
	}
	assert.Len(t, documented, len(router.Routes()))
}
