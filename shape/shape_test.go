package shape

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShapeString(t *testing.T) {
	assert.Equal(t, "(3, 32, 32)", New(3, 32, 32).String())
	assert.Equal(t, "(2,)", New(2).String())
	assert.Equal(t, "(None, 10)", New(Unknown, 10).String())
	assert.Equal(t, "()", Shape{}.String())
}

func TestShapeEqual(t *testing.T) {
	assert.True(t, New(1, 2).Equal(Tuple2{1, 2}.Shape()))
	assert.False(t, New(1, 2).Equal(New(1, 2, 3)))
	assert.False(t, New(1, 2).Equal(New(2, 1)))
	assert.True(t, Square(3).Equal(New(3, 3)))
}

func TestNewCopiesInput(t *testing.T) {
	dims := []int{4, 5}
	s := New(dims...)
	dims[0] = 99
	assert.Equal(t, 4, s.At(0))

	out := s.Ints()
	out[1] = 0
	assert.Equal(t, 5, s.At(1))
}

func TestConvOutputSize(t *testing.T) {
	assert.Equal(t, 26, ConvOutputSize(28, 3, 1, 0))
	assert.Equal(t, 28, ConvOutputSize(28, 3, 1, 1))
	assert.Equal(t, 13, ConvOutputSize(28, 3, 2, 0))
	assert.Equal(t, 0, ConvOutputSize(28, 3, 0, 0))
}
