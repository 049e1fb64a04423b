// Package predicate evaluates boolean conditions against movie records.
//
// Every predicate is total: a missing (null) field never faults, it resolves
// to the documented default for the operator, which is almost always false.
package predicate

import (
	"fmt"
	"strings"

	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/models"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/types"
)

// Predicate is a boolean function of one record.
type Predicate interface {
	Match(m *models.Movie) bool
}

// Func adapts an ordinary function to Predicate.
type Func func(m *models.Movie) bool

// Match implements Predicate.
func (f Func) Match(m *models.Movie) bool { return f(m) }

// All is the conjunction of its members. An empty All matches everything.
type All []Predicate

// Match implements Predicate.
func (a All) Match(m *models.Movie) bool {
	for _, p := range a {
		if !p.Match(m) {
			return false
		}
	}
	return true
}

// anyOf is the disjunction of its members. It is only used inside named
// composites; callers compose with AND.
type anyOf []Predicate

func (a anyOf) Match(m *models.Movie) bool {
	for _, p := range a {
		if p.Match(m) {
			return true
		}
	}
	return false
}

// Op is a comparison operator.
type Op int

const (
	OpEq Op = iota + 1
	OpNe
	OpGt
	OpGte
	OpLt
	OpLte
	OpBetween
	OpContains
	OpPrefix
	OpSuffix
	OpIn
	OpIsNull
	OpNotNull
)

var opNames = map[Op]string{
	OpEq:       "=",
	OpNe:       "!=",
	OpGt:       ">",
	OpGte:      ">=",
	OpLt:       "<",
	OpLte:      "<=",
	OpBetween:  "between",
	OpContains: "contains",
	OpPrefix:   "prefix",
	OpSuffix:   "suffix",
	OpIn:       "in",
	OpIsNull:   "is null",
	OpNotNull:  "is not null",
}

func (o Op) String() string {
	if s, ok := opNames[o]; ok {
		return s
	}
	return "?"
}

// ParseOp accepts symbolic (">=") and word ("gte") operator names.
func ParseOp(s string) (Op, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "=", "==", "eq":
		return OpEq, true
	case "!=", "<>", "ne":
		return OpNe, true
	case ">", "gt":
		return OpGt, true
	case ">=", "gte", "ge":
		return OpGte, true
	case "<", "lt":
		return OpLt, true
	case "<=", "lte", "le":
		return OpLte, true
	}
	return 0, false
}

// Compare applies a binary comparison operator to two numbers.
// Operators other than the six comparisons report false.
func Compare(op Op, v, operand float64) bool {
	switch op {
	case OpEq:
		return v == operand
	case OpNe:
		return v != operand
	case OpGt:
		return v > operand
	case OpGte:
		return v >= operand
	case OpLt:
		return v < operand
	case OpLte:
		return v <= operand
	}
	return false
}

// Condition is a data-only description of a single-field test.
//
// Numeric operands live in Number (and Upper for between); text operands in
// Text; set membership uses Set or Numbers depending on the field kind.
// When Ref is set the operand is Factor × Ref evaluated on the same record.
// Between is numeric only.
type Condition struct {
	Field   types.Field
	Op      Op
	Number  float64
	Upper   float64
	Text    string
	Set     []string
	Numbers []float64
	Ref     types.Field
	Factor  float64
}

// Match implements Predicate.
func (c Condition) Match(m *models.Movie) bool {
	switch c.Op {
	case OpIsNull:
		return !types.Present(m, c.Field)
	case OpNotNull:
		return types.Present(m, c.Field)
	case OpContains, OpPrefix, OpSuffix:
		return c.matchText(m)
	case OpIn:
		return c.matchSet(m)
	}

	if c.Field.Kind() == types.KindText {
		return c.compareText(m)
	}

	v, ok := types.Number(m, c.Field)
	if !ok {
		return false
	}
	if c.Op == OpBetween {
		return v >= c.Number && v <= c.Upper
	}
	operand, ok := c.operand(m)
	if !ok {
		return false
	}
	return Compare(c.Op, v, operand)
}

func (c Condition) operand(m *models.Movie) (float64, bool) {
	if c.Ref == types.FieldUnknown {
		return c.Number, true
	}
	ref, ok := types.Number(m, c.Ref)
	if !ok {
		return 0, false
	}
	return c.Factor * ref, true
}

func (c Condition) matchText(m *models.Movie) bool {
	v, ok := types.Text(m, c.Field)
	if !ok {
		return false
	}
	v = strings.ToLower(v)
	needle := strings.ToLower(c.Text)
	switch c.Op {
	case OpContains:
		return strings.Contains(v, needle)
	case OpPrefix:
		return strings.HasPrefix(v, needle)
	default:
		return strings.HasSuffix(v, needle)
	}
}

func (c Condition) matchSet(m *models.Movie) bool {
	if c.Field.Kind() == types.KindNumber {
		v, ok := types.Number(m, c.Field)
		if !ok {
			return false
		}
		for _, n := range c.Numbers {
			if v == n {
				return true
			}
		}
		return false
	}
	v, ok := types.Text(m, c.Field)
	if !ok {
		return false
	}
	for _, s := range c.Set {
		if v == s {
			return true
		}
	}
	return false
}

func (c Condition) compareText(m *models.Movie) bool {
	v, ok := types.Text(m, c.Field)
	if !ok {
		return false
	}
	cmp := strings.Compare(v, c.Text)
	switch c.Op {
	case OpEq:
		return cmp == 0
	case OpNe:
		return cmp != 0
	case OpGt:
		return cmp > 0
	case OpGte:
		return cmp >= 0
	case OpLt:
		return cmp < 0
	case OpLte:
		return cmp <= 0
	}
	return false
}

func (c Condition) String() string {
	switch c.Op {
	case OpIsNull, OpNotNull:
		return fmt.Sprintf("%s %s", c.Field, c.Op)
	case OpBetween:
		return fmt.Sprintf("%s between %g and %g", c.Field, c.Number, c.Upper)
	case OpContains, OpPrefix, OpSuffix:
		return fmt.Sprintf("%s %s %q", c.Field, c.Op, c.Text)
	case OpIn:
		if c.Field.Kind() == types.KindNumber {
			return fmt.Sprintf("%s in %v", c.Field, c.Numbers)
		}
		return fmt.Sprintf("%s in %q", c.Field, c.Set)
	}
	if c.Ref != types.FieldUnknown {
		return fmt.Sprintf("%s %s %g*%s", c.Field, c.Op, c.Factor, c.Ref)
	}
	if c.Field.Kind() == types.KindText {
		return fmt.Sprintf("%s %s %q", c.Field, c.Op, c.Text)
	}
	return fmt.Sprintf("%s %s %g", c.Field, c.Op, c.Number)
}
