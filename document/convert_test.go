package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromAnyRoundTripsThroughToAny(t *testing.T) {
	in := map[string]any{
		"name":   "widget",
		"qty":    float64(3),
		"active": true,
		"tags":   []any{"a", "b"},
		"nested": map[string]any{"x": float64(1)},
		"empty":  nil,
	}

	v, err := FromAny(in)
	assert.NoError(t, err)
	assert.Equal(t, KindMap, v.Kind())

	out := ToAny(v)
	assert.Equal(t, in, out)
}

func TestFromAnyRejectsNonJSONValues(t *testing.T) {
	_, err := FromAny(make(chan int))
	assert.Error(t, err)
}

func TestFromAnyAcceptsIntAndInt64(t *testing.T) {
	v, err := FromAny(int(7))
	assert.NoError(t, err)
	n, ok := v.Number()
	assert.True(t, ok)
	assert.Equal(t, float64(7), n)

	v, err = FromAny(int64(9))
	assert.NoError(t, err)
	n, ok = v.Number()
	assert.True(t, ok)
	assert.Equal(t, float64(9), n)
}

func TestMapOrEmptyFallsBackOnNonMap(t *testing.T) {
	m := MapOrEmpty(Number(1))
	assert.NotNil(t, m)
	assert.Empty(t, m)

	m2 := MapOrEmpty(Map(map[string]Value{"a": Null}))
	assert.Len(t, m2, 1)
}

func TestToAnyUndefinedAndNullBothRenderNil(t *testing.T) {
	assert.Nil(t, ToAny(Undefined))
	assert.Nil(t, ToAny(Null))
}
