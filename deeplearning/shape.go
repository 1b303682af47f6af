// Package deeplearning holds library independent descriptors of neural
// network models: shapes, modules, losses, optimizers and the Sequential and
// Graph containers. Image shapes are channels first and carry no batch
// dimension.
package deeplearning

// Shape is a Shape2d or a Shape3d
type Shape interface {
	Dims() []int
	shape()
}

// Shape2d is a two dimensional shape, such as a kernel size or a stride
type Shape2d struct {
	Dim1 int
	Dim2 int
}

// Shape3d is a three dimensional shape, such as (channels, height, width)
type Shape3d struct {
	Dim1 int
	Dim2 int
	Dim3 int
}

func (s Shape2d) Dims() []int { return []int{s.Dim1, s.Dim2} }
func (s Shape3d) Dims() []int { return []int{s.Dim1, s.Dim2, s.Dim3} }

func (Shape2d) shape() {}
func (Shape3d) shape() {}

// Square returns a Shape2d with both dimensions set to n
func Square(n int) Shape2d {
	return Shape2d{Dim1: n, Dim2: n}
}

// IsZero reports whether both dimensions are zero
func (s Shape2d) IsZero() bool {
	return s.Dim1 == 0 && s.Dim2 == 0
}
