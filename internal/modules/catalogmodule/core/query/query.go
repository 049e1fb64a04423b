// Package query composes predicates, ordering and pagination into a lazy
// plan that is evaluated against a repository.Store only when consumed.
package query

import (
	"cmp"
	"context"
	"fmt"
	"iter"
	"math"
	"slices"
	"strings"

	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/core/aggregate"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/core/predicate"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/core/repository"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/models"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/types"
)

// Direction is a sort direction.
type Direction int

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "desc"
	}
	return "asc"
}

// ParseDirection accepts asc/ascending and desc/descending in any case.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending":
		return Asc, true
	case "desc", "descending":
		return Desc, true
	}
	return Asc, false
}

// Query is an immutable query plan. Every builder method returns a new
// value; the receiver is never modified, so a Query can be shared and
// extended freely.
type Query struct {
	store   repository.Store
	filters []predicate.Predicate

	order types.Field
	dir   Direction

	offset   int
	limit    int
	hasLimit bool
}

// From starts an unfiltered, unordered query over store.
func From(store repository.Store) Query {
	return Query{store: store}
}

// Where ANDs preds onto the plan. nil predicates are ignored.
func (q Query) Where(preds ...predicate.Predicate) Query {
	filters := make([]predicate.Predicate, 0, len(q.filters)+len(preds))
	filters = append(filters, q.filters...)
	for _, p := range preds {
		if p != nil {
			filters = append(filters, p)
		}
	}
	q.filters = filters
	return q
}

// OrderBy sets the single sort key. Records missing the key sort last in
// either direction; ties keep the store's natural order.
func (q Query) OrderBy(f types.Field, dir Direction) Query {
	q.order = f
	q.dir = dir
	return q
}

// Limit caps the result size. n <= 0 yields an empty result.
func (q Query) Limit(n int) Query {
	q.limit = n
	q.hasLimit = true
	return q
}

// Offset skips the first n results. Negative offsets count as zero.
func (q Query) Offset(n int) Query {
	q.offset = max(n, 0)
	return q
}

// Page selects a 1-indexed page of size records. Pages before the first
// are clamped to page 1; pages past the end are empty, including pages whose
// offset does not fit in an int.
func (q Query) Page(page, size int) Query {
	page = max(page, 1)
	if size > 0 && page-1 > math.MaxInt/size {
		return q.Limit(0)
	}
	return q.Offset((page - 1) * size).Limit(size)
}

// Top orders by f descending and keeps n records.
func (q Query) Top(f types.Field, n int) Query {
	return q.OrderBy(f, Desc).Limit(n)
}

// Bottom orders by f ascending and keeps n records.
func (q Query) Bottom(f types.Field, n int) Query {
	return q.OrderBy(f, Asc).Limit(n)
}

// Predicate returns the conjunction of the plan's filters.
func (q Query) Predicate() predicate.All {
	return slices.Clone(predicate.All(q.filters))
}

func (q Query) paginated() bool {
	return q.hasLimit || q.offset > 0
}

// hints collects the pushable leaves of every filter.
func (q Query) hints() []predicate.Condition {
	var hints []predicate.Condition
	for _, p := range q.filters {
		leaves, _ := predicate.Conditions(p)
		hints = append(hints, leaves...)
	}
	return hints
}

// evaluate runs the plan against the store.
func (q Query) evaluate(ctx context.Context) ([]models.Movie, error) {
	if q.store == nil {
		return nil, fmt.Errorf("query has no store")
	}
	if q.hasLimit && q.limit <= 0 {
		return nil, nil
	}

	scanned, err := q.store.Scan(ctx, q.hints()...)
	if err != nil {
		return nil, err
	}

	match := predicate.All(q.filters)
	movies := scanned[:0]
	for i := range scanned {
		if match.Match(&scanned[i]) {
			movies = append(movies, scanned[i])
		}
	}

	if q.order != types.FieldUnknown {
		slices.SortStableFunc(movies, func(a, b models.Movie) int {
			return compareBy(&a, &b, q.order, q.dir)
		})
	}

	if q.offset >= len(movies) {
		return nil, nil
	}
	movies = movies[q.offset:]
	if q.hasLimit && q.limit < len(movies) {
		movies = movies[:q.limit]
	}
	return movies, nil
}

// compareBy orders two records on f, putting missing values last.
func compareBy(a, b *models.Movie, f types.Field, dir Direction) int {
	var (
		c        int
		okA, okB bool
	)
	if f.Kind() == types.KindNumber {
		var va, vb float64
		va, okA = types.Number(a, f)
		vb, okB = types.Number(b, f)
		c = cmp.Compare(va, vb)
	} else {
		var va, vb string
		va, okA = types.Text(a, f)
		vb, okB = types.Text(b, f)
		c = strings.Compare(va, vb)
	}
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return 1
	case !okB:
		return -1
	}
	if dir == Desc {
		return -c
	}
	return c
}

// Seq returns a lazy, restartable sequence of the results. The store is
// read each time the sequence is ranged over. A store fault is yielded
// once as the error of a zero Movie and ends the sequence.
func (q Query) Seq(ctx context.Context) iter.Seq2[models.Movie, error] {
	return func(yield func(models.Movie, error) bool) {
		movies, err := q.evaluate(ctx)
		if err != nil {
			yield(models.Movie{}, err)
			return
		}
		for _, m := range movies {
			if !yield(m, nil) {
				return
			}
		}
	}
}

// All materializes the results.
func (q Query) All(ctx context.Context) ([]models.Movie, error) {
	movies, err := q.evaluate(ctx)
	if err != nil {
		return nil, err
	}
	if movies == nil {
		movies = []models.Movie{}
	}
	return movies, nil
}

// First returns the first result. ok is false when there is none.
func (q Query) First(ctx context.Context) (movie models.Movie, ok bool, err error) {
	movies, err := q.Limit(1).evaluate(ctx)
	if err != nil || len(movies) == 0 {
		return models.Movie{}, false, err
	}
	return movies[0], true, nil
}

// Count counts the results. Unpaginated plans are delegated to the store.
func (q Query) Count(ctx context.Context) (int, error) {
	if !q.paginated() {
		if q.store == nil {
			return 0, fmt.Errorf("query has no store")
		}
		n, err := q.store.Count(ctx, q.countPredicate())
		return int(n), err
	}
	movies, err := q.evaluate(ctx)
	return len(movies), err
}

// Exists reports whether the plan has at least one result.
func (q Query) Exists(ctx context.Context) (bool, error) {
	if !q.paginated() {
		if q.store == nil {
			return false, fmt.Errorf("query has no store")
		}
		return q.store.Exists(ctx, q.countPredicate())
	}
	_, ok, err := q.First(ctx)
	return ok, err
}

func (q Query) countPredicate() predicate.Predicate {
	if len(q.filters) == 0 {
		return nil
	}
	return q.Predicate()
}

// Distinct returns the distinct present values of f in result order.
func (q Query) Distinct(ctx context.Context, f types.Field) ([]string, error) {
	values := []string{}
	seen := make(map[string]struct{})
	for m, err := range q.Seq(ctx) {
		if err != nil {
			return nil, err
		}
		v, ok := types.Text(&m, f)
		if !ok {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	return values, nil
}

// Values projects the present numeric values of f in result order.
func (q Query) Values(ctx context.Context, f types.Field) ([]float64, error) {
	values := []float64{}
	for m, err := range q.Seq(ctx) {
		if err != nil {
			return nil, err
		}
		if v, ok := types.Number(&m, f); ok {
			values = append(values, v)
		}
	}
	return values, nil
}

// Aggregate groups and reduces the results.
func (q Query) Aggregate(ctx context.Context, spec aggregate.Spec) (aggregate.Results, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	movies, err := q.evaluate(ctx)
	if err != nil {
		return nil, err
	}
	return aggregate.Run(movies, spec)
}

// Reduce reduces the results to one scalar. ok is false when no record had
// a value for measure.
func (q Query) Reduce(ctx context.Context, reducer aggregate.Reducer, measure types.Field) (value float64, ok bool, err error) {
	movies, err := q.evaluate(ctx)
	if err != nil {
		return 0, false, err
	}
	value, ok = aggregate.ReduceAll(movies, reducer, measure)
	return value, ok, nil
}

// Explain renders the plan, one stage per segment.
func (q Query) Explain() string {
	stages := []string{"scan movies"}
	if hints := q.hints(); len(hints) > 0 {
		pushed := make([]string, 0, len(hints))
		for _, h := range hints {
			if _, _, ok := h.SQL(); ok {
				pushed = append(pushed, h.String())
			}
		}
		if len(pushed) > 0 {
			stages[0] += " [pushdown: " + strings.Join(pushed, " and ") + "]"
		}
	}
	for _, p := range q.filters {
		stages = append(stages, "where "+describe(p))
	}
	if q.order != types.FieldUnknown {
		stages = append(stages, fmt.Sprintf("order by %s %s", q.order, q.dir))
	}
	if q.offset > 0 {
		stages = append(stages, fmt.Sprintf("offset %d", q.offset))
	}
	if q.hasLimit {
		stages = append(stages, fmt.Sprintf("limit %d", q.limit))
	}
	return strings.Join(stages, " | ")
}

func describe(p predicate.Predicate) string {
	switch v := p.(type) {
	case predicate.Condition:
		return v.String()
	case predicate.All:
		parts := make([]string, len(v))
		for i, member := range v {
			parts[i] = describe(member)
		}
		return "(" + strings.Join(parts, " and ") + ")"
	case fmt.Stringer:
		return v.String()
	}
	return "custom"
}
