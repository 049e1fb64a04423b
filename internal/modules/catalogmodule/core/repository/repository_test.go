package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/catalogtest"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/core/predicate"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/models"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]Store {
	movies := append(catalogtest.Scenario(), catalogtest.Sparse("S"))
	return map[string]Store{
		"memory": NewMemoryStore(movies...),
		"gorm":   NewGormStore(catalogtest.NewSQLiteDB(t, movies...)),
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			all, err := store.Scan(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"A", "B", "C", "D", "S"}, catalogtest.IDs(all))

			m, ok, err := store.Get(ctx, "C")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "Cold Trail", m.Title)
			require.NotNil(t, m.Rating)
			assert.Equal(t, 8.5, *m.Rating)

			_, ok, err = store.Get(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)

			n, err := store.Count(ctx, nil)
			require.NoError(t, err)
			assert.Equal(t, int64(5), n)

			n, err = store.Count(ctx, predicate.HighlyRated())
			require.NoError(t, err)
			assert.Equal(t, int64(2), n)

			// not expressible in SQL, evaluated after the scan
			n, err = store.Count(ctx, predicate.MarginAbove(200))
			require.NoError(t, err)
			assert.Equal(t, int64(3), n)

			ok, err = store.Exists(ctx, predicate.Is(types.FieldGenre, "Documentary"))
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = store.Exists(ctx, predicate.Gt(types.FieldRating, 9.5))
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestScanHintsNeverDropMatches(t *testing.T) {
	ctx := context.Background()
	hints := [][]predicate.Condition{
		{predicate.Gte(types.FieldRating, 8)},
		{predicate.Contains(types.FieldTitle, "TRAIL")},
		{predicate.In(types.FieldGenre, "Drama", "Comedy")},
		{predicate.Gt(types.FieldProfit, 0)},
		{predicate.IsNull(types.FieldStudio)},
		{predicate.IsNot(types.FieldCountry, "USA")},
		{predicate.CmpField(types.FieldBoxOffice, predicate.OpLt, 0.5, types.FieldBudget)},
		{predicate.Between(types.FieldReleaseYear, 1990, 2019), predicate.Lt(types.FieldRuntime, 120)},
		{predicate.Gt(types.FieldProfitMargin, 300)},
	}

	for name, store := range stores(t) {
		all, err := store.Scan(ctx)
		require.NoError(t, err)

		for _, h := range hints {
			t.Run(name+"/"+h[0].String(), func(t *testing.T) {
				got, err := store.Scan(ctx, h...)
				require.NoError(t, err)

				p := make(predicate.All, 0, len(h))
				for _, c := range h {
					p = append(p, c)
				}
				var want []string
				for i := range all {
					if p.Match(&all[i]) {
						want = append(want, all[i].ID)
					}
				}
				assert.Subset(t, catalogtest.IDs(got), want)
			})
		}
	}
}

func TestGormStorePushesDown(t *testing.T) {
	ctx := context.Background()
	store := NewGormStore(catalogtest.NewSQLiteDB(t, append(catalogtest.Scenario(), catalogtest.Sparse("S"))...))

	got, err := store.Scan(ctx, predicate.Gte(types.FieldRating, 8))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, catalogtest.IDs(got))

	got, err = store.Scan(ctx, predicate.Contains(types.FieldTitle, "trail"))
	require.NoError(t, err)
	assert.Equal(t, []string{"C"}, catalogtest.IDs(got))

	got, err = store.Scan(ctx, predicate.IsNull(types.FieldStudio))
	require.NoError(t, err)
	assert.Equal(t, []string{"S"}, catalogtest.IDs(got))

	got, err = store.Scan(ctx, predicate.CmpField(types.FieldBoxOffice, predicate.OpLt, 0.5, types.FieldBudget))
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, catalogtest.IDs(got))

	// margin is derived in Go only; the hint is skipped, not applied wrongly
	got, err = store.Scan(ctx, predicate.Gt(types.FieldProfitMargin, 300))
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func TestGormStoreIngest(t *testing.T) {
	ctx := context.Background()
	store := NewGormStore(catalogtest.NewSQLiteDB(t))

	movies := []models.Movie{
		{Title: "First", Director: "X", Genre: "Drama", ReleaseYear: 2000},
		{Title: "Second", Director: "Y", Genre: "Drama", ReleaseYear: 2001},
	}
	require.NoError(t, store.Ingest(ctx, movies))
	require.NoError(t, store.Ingest(ctx, nil))

	all, err := store.Scan(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, m := range all {
		assert.Len(t, m.ID, 36)
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(catalogtest.Scenario()...)

	replacement := catalogtest.Scenario()[1]
	replacement.Title = "Broken Harbor (Director's Cut)"
	require.NoError(t, store.Ingest(ctx, []models.Movie{replacement, {Title: "New"}}))

	all, err := store.Scan(ctx)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "Broken Harbor (Director's Cut)", all[1].Title)
	assert.NotEmpty(t, all[4].ID)

	// scans are snapshots
	all[0].Title = "mutated"
	m, _, err := store.Get(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, "Alpha Strike", m.Title)

	assert.Equal(t, int64(1), store.Scans())

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = store.Scan(cancelled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGormStoreSQL(t *testing.T) {
	ctx := context.Background()

	t.Run("scan pushes hints into where", func(t *testing.T) {
		db, mock := catalogtest.NewMockDB(t)
		store := NewGormStore(db)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "movies" WHERE rating >= $1 ORDER BY created_at, id`)).
			WithArgs(8.0).
			WillReturnRows(sqlmock.NewRows([]string{"id", "title", "rating"}).AddRow("A", "Alpha Strike", 9.2))

		got, err := store.Scan(ctx, predicate.Gte(types.FieldRating, 8))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "A", got[0].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("count is pushed down", func(t *testing.T) {
		db, mock := catalogtest.NewMockDB(t)
		store := NewGormStore(db)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "movies" WHERE genre IN ($1,$2)`)).
			WithArgs("Drama", "Comedy").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

		n, err := store.Count(ctx, predicate.In(types.FieldGenre, "Drama", "Comedy"))
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("store errors are wrapped", func(t *testing.T) {
		db, mock := catalogtest.NewMockDB(t)
		store := NewGormStore(db)
		boom := errors.New("connection reset")

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "movies"`)).WillReturnError(boom)

		_, err := store.Scan(ctx)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "failed to scan movies")
	})
}
