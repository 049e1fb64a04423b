package predicate

import (
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/models"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/types"
)

// Relation is a comparative predicate over a (candidate, reference) pair.
type Relation func(candidate, reference *models.Movie) bool

// SameValue holds when both records have f and the values are equal.
func SameValue(f types.Field) Relation {
	return func(c, r *models.Movie) bool {
		if f.Kind() == types.KindNumber {
			a, okA := types.Number(c, f)
			b, okB := types.Number(r, f)
			return okA && okB && a == b
		}
		a, okA := types.Text(c, f)
		b, okB := types.Text(r, f)
		return okA && okB && a == b
	}
}

// Exceeds holds when the candidate's numeric f is strictly greater.
func Exceeds(f types.Field) Relation {
	return func(c, r *models.Movie) bool {
		a, okA := types.Number(c, f)
		b, okB := types.Number(r, f)
		return okA && okB && a > b
	}
}

// Within holds when |candidate.f - reference.f| <= tolerance.
func Within(f types.Field, tolerance float64) Relation {
	return func(c, r *models.Movie) bool {
		a, okA := types.Number(c, f)
		b, okB := types.Number(r, f)
		if !okA || !okB {
			return false
		}
		d := a - b
		if d < 0 {
			d = -d
		}
		return d <= tolerance
	}
}

// Distinct holds when the two records are different entities.
func Distinct() Relation {
	return func(c, r *models.Movie) bool {
		return c.ID != r.ID
	}
}

// RelativeTo binds a reference record so the relations become an ordinary
// Predicate. All relations must hold. The reference is copied.
func RelativeTo(reference models.Movie, relations ...Relation) Predicate {
	ref := reference
	return Func(func(m *models.Movie) bool {
		for _, rel := range relations {
			if !rel(m, &ref) {
				return false
			}
		}
		return true
	})
}
