package dynamic

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// toFloat coerces numbers, numeric strings and json.Number. NaN and
// infinities are rejected.
func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case []string:
		if len(n) != 1 {
			return 0, false
		}
		return toFloat(n[0])
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// toInt coerces like toFloat but only accepts integral values.
func toInt(v any) (int, bool) {
	f, ok := toFloat(v)
	if !ok || f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

// toString accepts non-blank strings.
func toString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		s = strings.TrimSpace(s)
		return s, s != ""
	case json.Number:
		return s.String(), true
	case []string:
		if len(s) != 1 {
			return "", false
		}
		return toString(s[0])
	}
	return "", false
}

// toStrings accepts a single string, a comma separated string, or a list
// of strings. Any non-string member rejects the whole value.
func toStrings(v any) ([]string, bool) {
	var raw []string
	switch s := v.(type) {
	case string:
		raw = strings.Split(s, ",")
	case []string:
		raw = s
	case []any:
		for _, item := range s {
			str, ok := item.(string)
			if !ok {
				return nil, false
			}
			raw = append(raw, str)
		}
	default:
		return nil, false
	}

	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out, len(out) > 0
}

// toInts accepts one integral value, a comma separated string, or a list.
// Any member that is not integral rejects the whole value.
func toInts(v any) ([]int, bool) {
	var raw []any
	switch s := v.(type) {
	case string:
		for _, part := range strings.Split(s, ",") {
			raw = append(raw, part)
		}
	case []string:
		for _, part := range s {
			raw = append(raw, part)
		}
	case []any:
		raw = s
	default:
		raw = []any{v}
	}

	out := make([]int, 0, len(raw))
	for _, r := range raw {
		if str, ok := r.(string); ok && strings.TrimSpace(str) == "" {
			continue
		}
		n, ok := toInt(r)
		if !ok {
			return nil, false
		}
		out = append(out, n)
	}
	return out, len(out) > 0
}
