package query

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"docstore/internal/globalconst"
)

var (
	// ErrInvalidID reports an identifier string that cannot be parsed into
	// the store's identifier type.
	ErrInvalidID = errors.New("invalid document identifier")
	// ErrInvalidQuery reports a query input that is neither an identifier
	// string nor a filter map.
	ErrInvalidQuery = errors.New("query must be an identifier string or a filter map")
)

// Query is the internal representation shared by the rules layer and the
// store. An identifier lookup is expressed as an equality match on the
// identifier field so that both addressing modes evaluate the same way.
type Query struct {
	// ByID is true for single-identifier lookups; such a query matches at
	// most one document.
	ByID   bool
	Filter map[string]any
}

// ByID builds an identifier query from an external identifier string.
func ByID(id string) (Query, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Query{}, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return Query{
		ByID: true,
		Filter: map[string]any{
			globalconst.ID: map[string]any{globalconst.OpEq: id},
		},
	}, nil
}

// ByFilter builds a predicate query from a filter map.
func ByFilter(filter map[string]any) Query {
	if filter == nil {
		filter = map[string]any{}
	}
	return Query{Filter: filter}
}

// Normalize converts a request's identifier-or-filter input into a Query.
// A string is treated as a target identifier, a map as a predicate.
func Normalize(q any) (Query, error) {
	switch v := q.(type) {
	case string:
		return ByID(v)
	case map[string]any:
		return ByFilter(v), nil
	default:
		return Query{}, fmt.Errorf("%w: got %T", ErrInvalidQuery, q)
	}
}

// TargetID returns the identifier an identifier query addresses.
func (q Query) TargetID() string {
	clause, ok := q.Filter[globalconst.ID].(map[string]any)
	if !ok {
		return ""
	}
	id, _ := clause[globalconst.OpEq].(string)
	return id
}
