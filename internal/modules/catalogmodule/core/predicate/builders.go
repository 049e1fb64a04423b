package predicate

import (
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/types"
)

// Is matches a text field exactly (case-sensitive).
func Is(f types.Field, v string) Condition {
	return Condition{Field: f, Op: OpEq, Text: v}
}

// IsNot matches a present text field that differs from v.
func IsNot(f types.Field, v string) Condition {
	return Condition{Field: f, Op: OpNe, Text: v}
}

// Equals matches a numeric field exactly.
func Equals(f types.Field, v float64) Condition {
	return Condition{Field: f, Op: OpEq, Number: v}
}

// Gt matches f > v.
func Gt(f types.Field, v float64) Condition {
	return Condition{Field: f, Op: OpGt, Number: v}
}

// Gte matches f >= v.
func Gte(f types.Field, v float64) Condition {
	return Condition{Field: f, Op: OpGte, Number: v}
}

// Lt matches f < v.
func Lt(f types.Field, v float64) Condition {
	return Condition{Field: f, Op: OpLt, Number: v}
}

// Lte matches f <= v.
func Lte(f types.Field, v float64) Condition {
	return Condition{Field: f, Op: OpLte, Number: v}
}

// Between matches lo <= f <= hi.
func Between(f types.Field, lo, hi float64) Condition {
	return Condition{Field: f, Op: OpBetween, Number: lo, Upper: hi}
}

// Cmp builds a numeric comparison from an operator.
func Cmp(f types.Field, op Op, v float64) Condition {
	return Condition{Field: f, Op: op, Number: v}
}

// CmpField compares f against factor × ref on the same record,
// e.g. CmpField(FieldBoxOffice, OpLt, 0.5, FieldBudget).
func CmpField(f types.Field, op Op, factor float64, ref types.Field) Condition {
	return Condition{Field: f, Op: op, Ref: ref, Factor: factor}
}

// Contains is a case-insensitive substring match.
func Contains(f types.Field, s string) Condition {
	return Condition{Field: f, Op: OpContains, Text: s}
}

// HasPrefix is a case-insensitive prefix match.
func HasPrefix(f types.Field, s string) Condition {
	return Condition{Field: f, Op: OpPrefix, Text: s}
}

// HasSuffix is a case-insensitive suffix match.
func HasSuffix(f types.Field, s string) Condition {
	return Condition{Field: f, Op: OpSuffix, Text: s}
}

// In matches a text field against a set of values.
func In(f types.Field, values ...string) Condition {
	return Condition{Field: f, Op: OpIn, Set: append([]string(nil), values...)}
}

// InNumbers matches a numeric field against a set of values.
func InNumbers(f types.Field, values ...float64) Condition {
	return Condition{Field: f, Op: OpIn, Numbers: append([]float64(nil), values...)}
}

// IsNull matches records where f is absent.
func IsNull(f types.Field) Condition {
	return Condition{Field: f, Op: OpIsNull}
}

// NotNull matches records where f is present.
func NotNull(f types.Field) Condition {
	return Condition{Field: f, Op: OpNotNull}
}

// Conditions flattens p into its Condition leaves when p is a pure
// conjunction of conditions. ok is false when p contains anything else;
// the returned leaves are still valid as a looser pre-filter.
func Conditions(p Predicate) (leaves []Condition, ok bool) {
	ok = true
	var walk func(Predicate)
	walk = func(p Predicate) {
		switch v := p.(type) {
		case Condition:
			leaves = append(leaves, v)
		case All:
			for _, member := range v {
				walk(member)
			}
		default:
			ok = false
		}
	}
	walk(p)
	return leaves, ok
}
