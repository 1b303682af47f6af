// Package query derives quantities from layer records that Keras does not
// store explicitly, such as the padding implied by a padding mode.
package query

import (
	"github.com/tsawler/go-keras/deeplearning"
	"github.com/tsawler/go-keras/layers"
	"github.com/tsawler/go-keras/shape"
)

// Padding returns the padding for one axis of a "same" convolution, as
// length - (kernel*2)/stride + 1 with truncating division. Descriptors
// written by earlier tools depend on this exact value, which is not the
// usual same-padding arithmetic. stride must be positive.
func Padding(length, kernel, stride int) int {
	return length - (kernel*2)/stride + 1
}

// ConvOutputSize returns the output length of a convolution over length
// with the given kernel, stride and symmetric padding. Shape inference for
// "valid" convolutions uses the same arithmetic.
func ConvOutputSize(length, kernel, stride, padding int) int {
	return shape.ConvOutputSize(length, kernel, stride, padding)
}

// SpatialDims returns the height and width of a rank 3 image shape. Shapes
// are read as (channels, height, width) unless dataFormat is channels_last.
func SpatialDims(dims []int, dataFormat string) (h, w int, ok bool) {
	if len(dims) != 3 {
		return 0, 0, false
	}
	if dataFormat == layers.ChannelsLast {
		return dims[0], dims[1], true
	}
	return dims[1], dims[2], true
}

// PaddingConv2D returns the explicit padding of a Conv2D layer: 0/0 for
// "valid", the Padding formula over the declared input shape for "same".
// It returns nil when the layer has another mode or no usable input shape.
func PaddingConv2D(l *layers.Conv2D) *deeplearning.Shape2d {
	if l == nil {
		return nil
	}
	return paddingFor(l.Padding, l.InputShape, l.DataFormat, l.KernelSize, l.Strides)
}

// PaddingConv2DTranspose is PaddingConv2D for transposed convolutions
func PaddingConv2DTranspose(l *layers.Conv2DTranspose) *deeplearning.Shape2d {
	if l == nil {
		return nil
	}
	return paddingFor(l.Padding, l.InputShape, l.DataFormat, l.KernelSize, l.Strides)
}

// PaddingPooling is PaddingConv2D for pooling windows over an input of the
// given shape
func PaddingPooling(mode string, input []int, dataFormat string, pool, strides shape.Tuple2) *deeplearning.Shape2d {
	return paddingFor(mode, input, dataFormat, pool, strides)
}

func paddingFor(mode string, input []int, dataFormat string, kernel, strides shape.Tuple2) *deeplearning.Shape2d {
	switch mode {
	case layers.PaddingValid:
		return &deeplearning.Shape2d{}
	case layers.PaddingSame:
	default:
		return nil
	}

	h, w, ok := SpatialDims(input, dataFormat)
	if !ok {
		return nil
	}
	stride := strides.Item1
	if stride <= 0 {
		return nil
	}
	return &deeplearning.Shape2d{
		Dim1: Padding(h, kernel.Item1, stride),
		Dim2: Padding(w, kernel.Item2, stride),
	}
}
