package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDataUpdated(t *testing.T) {
	sharedSlice := []any{map[string]any{"deep": 1}}

	tests := []struct {
		name   string
		before map[string]any
		after  map[string]any
		want   bool
	}{
		{
			"identical scalars",
			map[string]any{"x": float64(1), "y": "a"},
			map[string]any{"x": float64(1), "y": "a"},
			false,
		},
		{
			"scalar changed",
			map[string]any{"x": float64(1)},
			map[string]any{"x": float64(2)},
			true,
		},
		{
			"new key is a change",
			map[string]any{"x": float64(1)},
			map[string]any{"y": float64(1)},
			true,
		},
		{
			"dropped key is not a change",
			map[string]any{"x": float64(1), "y": float64(2)},
			map[string]any{"x": float64(1)},
			false,
		},
		{
			"identifier excluded at top level",
			map[string]any{"_id": "a", "x": float64(1)},
			map[string]any{"_id": "b", "x": float64(1)},
			false,
		},
		{
			"identifier compared in nested maps",
			map[string]any{"ref": map[string]any{"_id": "a"}},
			map[string]any{"ref": map[string]any{"_id": "b"}},
			true,
		},
		{
			"sequence length mismatch",
			map[string]any{"xs": []any{float64(1)}},
			map[string]any{"xs": []any{float64(1), float64(2)}},
			true,
		},
		{
			"sequence element changed",
			map[string]any{"xs": []any{float64(1), float64(2)}},
			map[string]any{"xs": []any{float64(1), float64(3)}},
			true,
		},
		{
			"sequence identical scalars",
			map[string]any{"xs": []any{float64(1), "a", true}},
			map[string]any{"xs": []any{float64(1), "a", true}},
			false,
		},
		{
			"sequence compares nested elements by identity",
			map[string]any{"xs": []any{map[string]any{"deep": 1}}},
			map[string]any{"xs": []any{map[string]any{"deep": 1}}},
			true,
		},
		{
			"sequence same element reference is unchanged",
			map[string]any{"xs": sharedSlice},
			map[string]any{"xs": sharedSlice},
			false,
		},
		{
			"nested map changed",
			map[string]any{"m": map[string]any{"a": float64(1)}},
			map[string]any{"m": map[string]any{"a": float64(2)}},
			true,
		},
		{
			"nested map identical",
			map[string]any{"m": map[string]any{"a": float64(1)}},
			map[string]any{"m": map[string]any{"a": float64(1)}},
			false,
		},
		{
			"map replaced by scalar",
			map[string]any{"m": map[string]any{"a": float64(1)}},
			map[string]any{"m": "flat"},
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DataUpdated(tt.before, tt.after))
		})
	}
}
