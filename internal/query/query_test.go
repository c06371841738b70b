package query

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docstore/internal/globalconst"
)

func TestByIDWrapsIdentifierAsEquality(t *testing.T) {
	id := uuid.NewString()

	q, err := ByID(id)
	require.NoError(t, err)

	assert.True(t, q.ByID)
	assert.Equal(t, id, q.TargetID())
	assert.Equal(t, map[string]any{
		globalconst.ID: map[string]any{globalconst.OpEq: id},
	}, q.Filter)
}

func TestByIDRejectsMalformedIdentifier(t *testing.T) {
	for _, bad := range []string{"", "not-a-uuid", "1234", "xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx"} {
		_, err := ByID(bad)
		assert.ErrorIs(t, err, ErrInvalidID, "input %q", bad)
	}
}

func TestNormalize(t *testing.T) {
	id := uuid.NewString()

	tests := []struct {
		name    string
		input   any
		wantID  bool
		wantErr error
	}{
		{"identifier string", id, true, nil},
		{"filter map", map[string]any{"x": 1}, false, nil},
		{"malformed identifier", "nope", false, ErrInvalidID},
		{"unsupported type", 42, false, ErrInvalidQuery},
		{"nil input", nil, false, ErrInvalidQuery},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Normalize(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, q.ByID)
		})
	}
}

func TestByFilterNilBecomesEmpty(t *testing.T) {
	q := ByFilter(nil)
	assert.NotNil(t, q.Filter)
	assert.False(t, q.ByID)
}

func TestBuilderMapsOperators(t *testing.T) {
	tests := []struct {
		op   string
		want string
	}{
		{"<", globalconst.OpLt},
		{"<=", globalconst.OpLte},
		{">", globalconst.OpGt},
		{">=", globalconst.OpGte},
		{"!=", globalconst.OpNe},
		{"=", globalconst.OpEq},
		{"==", globalconst.OpEq},
		{"in-array", globalconst.OpIn},
		{"not-in-array", globalconst.OpNin},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			filter := NewBuilder().Where("field", tt.op, 7).Filter()
			assert.Equal(t, map[string]any{
				"field": map[string]any{tt.want: 7},
			}, filter)
		})
	}
}

func TestBuilderAccumulatesRangeOnOneField(t *testing.T) {
	q := NewBuilder().
		Where("age", ">", 18).
		Where("age", "<", 65).
		Where("name", "=", "ada").
		Build()

	assert.False(t, q.ByID)
	assert.Equal(t, map[string]any{
		"age":  map[string]any{globalconst.OpGt: 18, globalconst.OpLt: 65},
		"name": map[string]any{globalconst.OpEq: "ada"},
	}, q.Filter)
}

func TestBuilderIgnoresUnknownOperator(t *testing.T) {
	filter := NewBuilder().
		Where("age", ">", 18).
		Where("age", "~=", 99).
		Filter()

	assert.Equal(t, map[string]any{
		"age": map[string]any{globalconst.OpGt: 18},
	}, filter)
}
