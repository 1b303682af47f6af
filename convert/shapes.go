package convert

import (
	"github.com/tsawler/go-keras/deeplearning"
	"github.com/tsawler/go-keras/shape"
)

// ToKerasShape converts a descriptor shape. A nil shape is the empty shape.
func ToKerasShape(s deeplearning.Shape) shape.Shape {
	if s == nil {
		return shape.New()
	}
	return shape.New(s.Dims()...)
}

// FromKerasShape converts a rank 2 or rank 3 shape, and returns nil for any
// other rank
func FromKerasShape(s shape.Shape) deeplearning.Shape {
	switch s.Rank() {
	case 2:
		return deeplearning.Shape2d{Dim1: s.At(0), Dim2: s.At(1)}
	case 3:
		return deeplearning.Shape3d{Dim1: s.At(0), Dim2: s.At(1), Dim3: s.At(2)}
	}
	return nil
}

// ToBHoMShape is FromKerasShape
func ToBHoMShape(s shape.Shape) deeplearning.Shape {
	return FromKerasShape(s)
}

// ToTuple returns a shape.Tuple2 for a Shape2d and a shape.Tuple3 for a
// Shape3d, nil otherwise
func ToTuple(s deeplearning.Shape) interface{} {
	switch x := s.(type) {
	case deeplearning.Shape2d:
		return ToTuple2(x)
	case deeplearning.Shape3d:
		return ToTuple3(x)
	}
	return nil
}

// ToTuple2 converts a two dimensional shape to its keyword tuple form
func ToTuple2(s deeplearning.Shape2d) shape.Tuple2 {
	return shape.Tuple2{Item1: s.Dim1, Item2: s.Dim2}
}

// ToTuple3 converts a three dimensional shape to its keyword tuple form
func ToTuple3(s deeplearning.Shape3d) shape.Tuple3 {
	return shape.Tuple3{Item1: s.Dim1, Item2: s.Dim2, Item3: s.Dim3}
}
