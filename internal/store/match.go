package store

import (
	"log/slog"
	"reflect"
	"strings"

	"docstore/internal/globalconst"
)

// Matches evaluates a document against a predicate filter. Every field
// clause must hold for the document to match. A clause whose value is an
// operator map is evaluated operator by operator; any other value is an
// equality match.
func Matches(doc map[string]any, filter map[string]any) bool {
	for field, cond := range filter {
		val, exists := doc[field]
		if ops, ok := operatorMap(cond); ok {
			if !matchOperators(val, exists, ops) {
				return false
			}
			continue
		}
		if !exists || !equal(val, cond) {
			return false
		}
	}
	return true
}

// operatorMap reports whether a clause value is an operator map, i.e. a
// map whose keys all carry the "$" operator prefix. A map without the
// prefix is a literal nested value to compare against.
func operatorMap(cond any) (map[string]any, bool) {
	m, ok := cond.(map[string]any)
	if !ok || len(m) == 0 {
		return nil, false
	}
	for key := range m {
		if !strings.HasPrefix(key, "$") {
			return nil, false
		}
	}
	return m, true
}

func matchOperators(val any, exists bool, ops map[string]any) bool {
	for op, want := range ops {
		switch op {
		case globalconst.OpEq:
			if !exists || !equal(val, want) {
				return false
			}
		case globalconst.OpNe:
			if exists && equal(val, want) {
				return false
			}
		case globalconst.OpGt:
			cmp, ok := compare(val, want)
			if !exists || !ok || cmp <= 0 {
				return false
			}
		case globalconst.OpGte:
			cmp, ok := compare(val, want)
			if !exists || !ok || cmp < 0 {
				return false
			}
		case globalconst.OpLt:
			cmp, ok := compare(val, want)
			if !exists || !ok || cmp >= 0 {
				return false
			}
		case globalconst.OpLte:
			cmp, ok := compare(val, want)
			if !exists || !ok || cmp > 0 {
				return false
			}
		case globalconst.OpIn:
			if !exists || !valueInSet(val, want) {
				return false
			}
		case globalconst.OpNin:
			if exists && valueInSet(val, want) {
				return false
			}
		default:
			slog.Warn("Unsupported predicate operator", "op", op)
			return false
		}
	}
	return true
}

func valueInSet(val, want any) bool {
	set, ok := want.([]any)
	if !ok {
		return false
	}
	for _, candidate := range set {
		if equal(val, candidate) {
			return true
		}
	}
	return false
}

// equal compares two values, treating all numeric representations of the
// same quantity as equal. Non-scalar values fall back to deep equality.
func equal(a, b any) bool {
	if numA, okA := toFloat64(a); okA {
		if numB, okB := toFloat64(b); okB {
			return numA == numB
		}
		return false
	}
	if strA, ok := a.(string); ok {
		strB, okB := b.(string)
		return okB && strA == strB
	}
	if boolA, ok := a.(bool); ok {
		boolB, okB := b.(bool)
		return okB && boolA == boolB
	}
	return reflect.DeepEqual(a, b)
}

// compare orders two values of the same kind: numbers numerically, strings
// lexicographically, booleans false before true. Returns -1, 0 or 1; the
// second return is false when the operands have no common ordering, which
// fails the range clause.
func compare(a, b any) (int, bool) {
	if numA, okA := toFloat64(a); okA {
		numB, okB := toFloat64(b)
		if !okB {
			return 0, false
		}
		switch {
		case numA < numB:
			return -1, true
		case numA > numB:
			return 1, true
		default:
			return 0, true
		}
	}

	if strA, ok := a.(string); ok {
		strB, okB := b.(string)
		if !okB {
			return 0, false
		}
		return strings.Compare(strA, strB), true
	}

	if boolA, ok := a.(bool); ok {
		boolB, okB := b.(bool)
		if !okB {
			return 0, false
		}
		switch {
		case boolA == boolB:
			return 0, true
		case boolB:
			return -1, true
		default:
			return 1, true
		}
	}

	return 0, false
}

// toFloat64 attempts to convert a value to float64, returns false if not a number.
func toFloat64(val any) (float64, bool) {
	switch v := val.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}
