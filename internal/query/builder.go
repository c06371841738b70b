package query

import "docstore/internal/globalconst"

// Builder composes a predicate incrementally from (field, operator, value)
// clauses. Clauses on the same field accumulate independent operator keys,
// so combining ">" and "<" on one field produces a range.
type Builder struct {
	filter map[string]any
}

// NewBuilder returns a Builder with an empty predicate.
func NewBuilder() *Builder {
	return &Builder{filter: make(map[string]any)}
}

// Where adds an operator clause to the predicate and returns the Builder
// for chaining. Unknown operators are a no-op; callers composing queries
// programmatically get the same permissive behavior the wire API has.
func (b *Builder) Where(field, op string, value any) *Builder {
	var key string
	switch op {
	case "<":
		key = globalconst.OpLt
	case "<=":
		key = globalconst.OpLte
	case ">":
		key = globalconst.OpGt
	case ">=":
		key = globalconst.OpGte
	case "!=":
		key = globalconst.OpNe
	case "=", "==":
		key = globalconst.OpEq
	case "in-array":
		key = globalconst.OpIn
	case "not-in-array":
		key = globalconst.OpNin
	default:
		return b
	}

	clause, ok := b.filter[field].(map[string]any)
	if !ok {
		clause = make(map[string]any)
		b.filter[field] = clause
	}
	clause[key] = value
	return b
}

// Filter returns the predicate built so far.
func (b *Builder) Filter() map[string]any {
	return b.filter
}

// Build wraps the accumulated predicate into a Query.
func (b *Builder) Build() Query {
	return ByFilter(b.filter)
}
