// Package aggregate groups movie records and reduces each group to a scalar.
//
// Pipeline: group -> reduce -> having -> order -> top.
// Group keys keep first-seen order, which is also the tie-break when groups
// are ordered by their reduced value.
package aggregate

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/core/predicate"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/models"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/types"
)

// Reducer is an aggregate function.
type Reducer int

const (
	Count Reducer = iota + 1
	Sum
	Avg
	Min
	Max
)

var reducerNames = map[Reducer]string{
	Count: "count",
	Sum:   "sum",
	Avg:   "avg",
	Min:   "min",
	Max:   "max",
}

func (r Reducer) String() string {
	if s, ok := reducerNames[r]; ok {
		return s
	}
	return "unknown"
}

// ParseReducer resolves a reducer name; "average", "mean", "minimum" and
// "maximum" are accepted as well.
func ParseReducer(s string) (Reducer, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "count":
		return Count, true
	case "sum", "total":
		return Sum, true
	case "avg", "average", "mean":
		return Avg, true
	case "min", "minimum":
		return Min, true
	case "max", "maximum":
		return Max, true
	}
	return 0, false
}

// Order controls the ordering of group results.
type Order int

const (
	// Unordered keeps first-seen key order.
	Unordered Order = iota
	ValueDesc
	ValueAsc
)

// Threshold is a having clause on the reduced value.
type Threshold struct {
	Op    predicate.Op
	Value float64
}

// KeyFunc extracts a group key. ok is false when the key is absent; absent
// keys are collected into a single null group.
type KeyFunc func(m *models.Movie) (key string, ok bool)

// ByField groups by the text form of any field. Decade keys render as the
// decade floor, e.g. "1990".
func ByField(f types.Field) KeyFunc {
	return func(m *models.Movie) (string, bool) {
		return types.Text(m, f)
	}
}

// Spec is a data-only description of one aggregation.
type Spec struct {
	By      types.Field
	Reducer Reducer
	// Measure is the numeric field being reduced. Count without a measure
	// counts records; with a measure it counts non-null values.
	Measure types.Field
	Having  *Threshold
	Order   Order
	// Top keeps the first n groups after ordering. Zero keeps everything.
	Top int
	// EmptyAsZero reports groups with no qualifying values as 0 instead of null.
	EmptyAsZero bool
}

// Validate reports specs the engine cannot evaluate.
func (s Spec) Validate() error {
	if _, ok := reducerNames[s.Reducer]; !ok {
		return fmt.Errorf("unknown reducer %d", s.Reducer)
	}
	if s.By == types.FieldUnknown {
		return fmt.Errorf("group key is required")
	}
	if s.Reducer != Count && s.Measure == types.FieldUnknown {
		return fmt.Errorf("%s requires a measure", s.Reducer)
	}
	if s.Reducer != Count && s.Measure.Kind() != types.KindNumber {
		return fmt.Errorf("%s requires a numeric measure, got %s", s.Reducer, s.Measure)
	}
	return nil
}

// Result is one reduced group.
type Result struct {
	Key string `json:"key"`
	// Null marks the group of records whose key was absent.
	Null bool `json:"null,omitempty"`
	// Value is meaningful only when Valid is true.
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
	// Size is the number of records in the group.
	Size int `json:"size"`
}

// Results is an ordered list of group results.
type Results []Result

// Map returns key -> value for the valid results. The null group is left
// out so it cannot collide with a present empty key; read it from the slice.
func (rs Results) Map() map[string]float64 {
	m := make(map[string]float64, len(rs))
	for _, r := range rs {
		if r.Valid && !r.Null {
			m[r.Key] = r.Value
		}
	}
	return m
}

// Keys returns the group keys in result order.
func (rs Results) Keys() []string {
	keys := make([]string, len(rs))
	for i, r := range rs {
		keys[i] = r.Key
	}
	return keys
}

// Group is a partition of the input.
type Group struct {
	Key     string
	Null    bool
	Members []*models.Movie
}

// GroupBy partitions movies by key, preserving first-seen key order.
// Members point into the input slice.
func GroupBy(movies []models.Movie, key KeyFunc) []Group {
	index := make(map[string]int)
	nullIndex := -1
	groups := make([]Group, 0)

	for i := range movies {
		m := &movies[i]
		k, ok := key(m)
		if !ok {
			if nullIndex < 0 {
				nullIndex = len(groups)
				groups = append(groups, Group{Null: true})
			}
			groups[nullIndex].Members = append(groups[nullIndex].Members, m)
			continue
		}
		pos, exists := index[k]
		if !exists {
			pos = len(groups)
			index[k] = pos
			groups = append(groups, Group{Key: k})
		}
		groups[pos].Members = append(groups[pos].Members, m)
	}
	return groups
}

// Reduce applies reducer to measure over members. ok is false when no
// member had a value (count always succeeds).
func Reduce(members []*models.Movie, reducer Reducer, measure types.Field) (float64, bool) {
	if reducer == Count {
		if measure == types.FieldUnknown {
			return float64(len(members)), true
		}
		n := 0
		for _, m := range members {
			if types.Present(m, measure) {
				n++
			}
		}
		return float64(n), true
	}

	var (
		n   int
		sum float64
		lo  = math.Inf(1)
		hi  = math.Inf(-1)
	)
	for _, m := range members {
		v, ok := types.Number(m, measure)
		if !ok {
			continue
		}
		n++
		sum += v
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if n == 0 {
		return 0, false
	}
	switch reducer {
	case Sum:
		return sum, true
	case Avg:
		return sum / float64(n), true
	case Min:
		return lo, true
	case Max:
		return hi, true
	}
	return 0, false
}

// ReduceAll reduces a whole slice without grouping.
func ReduceAll(movies []models.Movie, reducer Reducer, measure types.Field) (float64, bool) {
	members := make([]*models.Movie, len(movies))
	for i := range movies {
		members[i] = &movies[i]
	}
	return Reduce(members, reducer, measure)
}

// Run evaluates spec over movies.
func Run(movies []models.Movie, spec Spec) (Results, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return RunWithKey(movies, ByField(spec.By), spec), nil
}

// RunWithKey evaluates spec using a custom key function; spec.By is ignored.
func RunWithKey(movies []models.Movie, key KeyFunc, spec Spec) Results {
	groups := GroupBy(movies, key)
	results := make(Results, 0, len(groups))

	for _, g := range groups {
		v, ok := Reduce(g.Members, spec.Reducer, spec.Measure)
		if !ok && spec.EmptyAsZero {
			v, ok = 0, true
		}
		r := Result{Key: g.Key, Null: g.Null, Value: v, Valid: ok, Size: len(g.Members)}
		if spec.Having != nil && !(r.Valid && predicate.Compare(spec.Having.Op, r.Value, spec.Having.Value)) {
			continue
		}
		results = append(results, r)
	}

	switch spec.Order {
	case ValueDesc:
		sort.SliceStable(results, func(i, j int) bool {
			return before(results[i], results[j], true)
		})
	case ValueAsc:
		sort.SliceStable(results, func(i, j int) bool {
			return before(results[i], results[j], false)
		})
	}

	if spec.Top > 0 && len(results) > spec.Top {
		results = results[:spec.Top]
	}
	return results
}

// before orders valid values by direction and puts null values last.
func before(a, b Result, desc bool) bool {
	if a.Valid != b.Valid {
		return a.Valid
	}
	if !a.Valid {
		return false
	}
	if desc {
		return a.Value > b.Value
	}
	return a.Value < b.Value
}
