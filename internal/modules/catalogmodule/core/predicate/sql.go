package predicate

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/types"
)

// SQL renders the condition as a WHERE fragment with positional args.
//
// ok is false when the condition cannot be expressed with identical
// semantics in SQL (margin and ROI division rules, non-ASCII case folding).
// Callers only use the fragment as a pre-filter; the in-memory Match is
// always applied afterwards.
func (c Condition) SQL() (clause string, args []any, ok bool) {
	col, ok := sqlExpr(c.Field)
	if !ok {
		return "", nil, false
	}

	switch c.Op {
	case OpIsNull:
		return col + " IS NULL", nil, true
	case OpNotNull:
		return col + " IS NOT NULL", nil, true
	case OpBetween:
		if c.Field.Kind() != types.KindNumber {
			return "", nil, false
		}
		return col + " BETWEEN ? AND ?", []any{c.Number, c.Upper}, true
	case OpContains, OpPrefix, OpSuffix:
		if !isASCII(c.Text) {
			return "", nil, false
		}
		pattern := escapeLike(strings.ToLower(c.Text))
		switch c.Op {
		case OpContains:
			pattern = "%" + pattern + "%"
		case OpPrefix:
			pattern = pattern + "%"
		default:
			pattern = "%" + pattern
		}
		return "LOWER(" + col + `) LIKE ? ESCAPE '\'`, []any{pattern}, true
	case OpIn:
		if c.Field.Kind() == types.KindNumber {
			if len(c.Numbers) == 0 {
				return "1 = 0", nil, true
			}
			return col + " IN ?", []any{c.Numbers}, true
		}
		if len(c.Set) == 0 {
			return "1 = 0", nil, true
		}
		return col + " IN ?", []any{c.Set}, true
	}

	sym, ok := sqlOps[c.Op]
	if !ok {
		return "", nil, false
	}
	if c.Field.Kind() == types.KindText {
		// Ordering depends on the database collation; only equality is safe.
		if c.Op != OpEq && c.Op != OpNe {
			return "", nil, false
		}
		return fmt.Sprintf("%s %s ?", col, sym), []any{c.Text}, true
	}
	if c.Ref != types.FieldUnknown {
		ref, ok := sqlExpr(c.Ref)
		if !ok {
			return "", nil, false
		}
		return fmt.Sprintf("%s %s ? * %s", col, sym, ref), []any{c.Factor}, true
	}
	return fmt.Sprintf("%s %s ?", col, sym), []any{c.Number}, true
}

var sqlOps = map[Op]string{
	OpEq:  "=",
	OpNe:  "<>",
	OpGt:  ">",
	OpGte: ">=",
	OpLt:  "<",
	OpLte: "<=",
}

// sqlExpr maps a field to a column expression. Profit is expressible since
// NULL arithmetic fails closed the same way; margin, ROI and decade are not.
func sqlExpr(f types.Field) (string, bool) {
	if col := f.Column(); col != "" {
		return col, true
	}
	if f == types.FieldProfit {
		return "(box_office - budget)", true
	}
	return "", false
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}
