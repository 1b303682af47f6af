package shape

import (
	"fmt"
	"strings"
)

// Unknown marks a dimension whose size is not known until runtime (None in Keras).
const Unknown = -1

// Shape is an external tensor shape. It is passed to the runtime as a tuple.
type Shape struct {
	Dims []int
}

// New creates a shape from the given dimensions
func New(dims ...int) Shape {
	d := make([]int, len(dims))
	copy(d, dims)
	return Shape{Dims: d}
}

// Rank returns the number of dimensions
func (s Shape) Rank() int {
	return len(s.Dims)
}

// At returns dimension n
func (s Shape) At(n int) int {
	return s.Dims[n]
}

// IsZero reports whether the shape carries no dimensions
func (s Shape) IsZero() bool {
	return len(s.Dims) == 0
}

// Equal compares two shapes dimension by dimension
func (s Shape) Equal(other Shape) bool {
	if len(s.Dims) != len(other.Dims) {
		return false
	}
	for i, d := range s.Dims {
		if other.Dims[i] != d {
			return false
		}
	}
	return true
}

// Ints returns a copy of the dimensions
func (s Shape) Ints() []int {
	d := make([]int, len(s.Dims))
	copy(d, s.Dims)
	return d
}

// String renders the shape the way Python prints a tuple
func (s Shape) String() string {
	parts := make([]string, len(s.Dims))
	for i, d := range s.Dims {
		if d == Unknown {
			parts[i] = "None"
			continue
		}
		parts[i] = fmt.Sprintf("%d", d)
	}
	if len(parts) == 1 {
		return "(" + parts[0] + ",)"
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Tuple1 is a one element integer tuple
type Tuple1 struct {
	Item1 int
}

// Tuple2 is a two element integer tuple, used for kernel sizes and strides
type Tuple2 struct {
	Item1, Item2 int
}

// Tuple3 is a three element integer tuple
type Tuple3 struct {
	Item1, Item2, Item3 int
}

// Shape converts the tuple to a Shape
func (t Tuple1) Shape() Shape { return New(t.Item1) }

// Shape converts the tuple to a Shape
func (t Tuple2) Shape() Shape { return New(t.Item1, t.Item2) }

// Shape converts the tuple to a Shape
func (t Tuple3) Shape() Shape { return New(t.Item1, t.Item2, t.Item3) }

// Square returns a 2D shape with both dimensions set to n
func Square(n int) Shape {
	return New(n, n)
}

// ConvOutputSize returns the output length of a convolution over length with
// the given kernel, stride and symmetric padding. It returns 0 for a
// non-positive stride.
func ConvOutputSize(length, kernel, stride, padding int) int {
	if stride <= 0 {
		return 0
	}
	return (length+2*padding-kernel)/stride + 1
}
