package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchesBareEquality(t *testing.T) {
	doc := map[string]any{"name": "ada", "age": float64(36)}

	tests := []struct {
		name   string
		filter map[string]any
		want   bool
	}{
		{"string equal", map[string]any{"name": "ada"}, true},
		{"string unequal", map[string]any{"name": "bob"}, false},
		{"numeric cross type", map[string]any{"age": 36}, true},
		{"missing field", map[string]any{"city": "london"}, false},
		{"empty filter matches all", map[string]any{}, true},
		{"multiple clauses all hold", map[string]any{"name": "ada", "age": 36}, true},
		{"one clause fails", map[string]any{"name": "ada", "age": 35}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(doc, tt.filter))
		})
	}
}

func TestMatchesOperators(t *testing.T) {
	doc := map[string]any{"age": float64(30), "name": "ada", "active": true}

	tests := []struct {
		name   string
		filter map[string]any
		want   bool
	}{
		{"$eq hit", map[string]any{"age": map[string]any{"$eq": 30}}, true},
		{"$eq miss", map[string]any{"age": map[string]any{"$eq": 31}}, false},
		{"$ne hit", map[string]any{"age": map[string]any{"$ne": 31}}, true},
		{"$ne miss", map[string]any{"age": map[string]any{"$ne": 30}}, false},
		{"$ne on missing field passes", map[string]any{"city": map[string]any{"$ne": "x"}}, true},
		{"$gt hit", map[string]any{"age": map[string]any{"$gt": 29}}, true},
		{"$gt equal fails", map[string]any{"age": map[string]any{"$gt": 30}}, false},
		{"$gte equal passes", map[string]any{"age": map[string]any{"$gte": 30}}, true},
		{"$lt hit", map[string]any{"age": map[string]any{"$lt": 31}}, true},
		{"$lte equal passes", map[string]any{"age": map[string]any{"$lte": 30}}, true},
		{"$lt on missing field fails", map[string]any{"city": map[string]any{"$lt": "x"}}, false},
		{"$in hit", map[string]any{"age": map[string]any{"$in": []any{10, 30}}}, true},
		{"$in miss", map[string]any{"age": map[string]any{"$in": []any{10, 20}}}, false},
		{"$nin hit", map[string]any{"age": map[string]any{"$nin": []any{10, 20}}}, true},
		{"$nin miss", map[string]any{"age": map[string]any{"$nin": []any{30}}}, false},
		{"range on one field", map[string]any{"age": map[string]any{"$gt": 20, "$lt": 40}}, true},
		{"range excluded", map[string]any{"age": map[string]any{"$gt": 20, "$lt": 25}}, false},
		{"string comparison", map[string]any{"name": map[string]any{"$gt": "abc"}}, true},
		{"bool comparison", map[string]any{"active": map[string]any{"$gt": false}}, true},
		{"number range against bool fails closed", map[string]any{"age": map[string]any{"$gt": true}}, false},
		{"number range against string fails closed", map[string]any{"age": map[string]any{"$lt": "zzz"}}, false},
		{"string range against number fails closed", map[string]any{"name": map[string]any{"$gte": 1}}, false},
		{"unknown operator fails closed", map[string]any{"age": map[string]any{"$regex": ".*"}}, false},
		{"non operator map is literal", map[string]any{"age": map[string]any{"value": 30}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(doc, tt.filter))
		})
	}
}

func TestMatchesNestedLiteral(t *testing.T) {
	doc := map[string]any{"meta": map[string]any{"kind": "a"}}

	assert.True(t, Matches(doc, map[string]any{"meta": map[string]any{"kind": "a"}}))
	assert.False(t, Matches(doc, map[string]any{"meta": map[string]any{"kind": "b"}}))
}
