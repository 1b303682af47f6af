package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/go-keras/deeplearning"
	"github.com/tsawler/go-keras/layers"
	"github.com/tsawler/go-keras/shape"
)

func TestPaddingFormula(t *testing.T) {
	for length := -3; length <= 40; length++ {
		for kernel := 0; kernel <= 7; kernel++ {
			for stride := 1; stride <= 4; stride++ {
				want := length - (kernel*2)/stride + 1
				require.Equal(t, want, Padding(length, kernel, stride), "length %d kernel %d stride %d", length, kernel, stride)
			}
		}
	}

	// truncating division, not the usual (kernel-1)/2
	assert.Equal(t, 30, Padding(32, 3, 2))
	assert.Equal(t, 27, Padding(32, 3, 1))
	assert.Equal(t, 30, Padding(32, 5, 3))
}

func TestConvOutputSize(t *testing.T) {
	tests := []struct {
		length, kernel, stride, padding, want int
	}{
		{28, 3, 1, 0, 26},
		{28, 3, 1, 1, 28},
		{32, 5, 2, 2, 16},
		{7, 2, 2, 0, 3},
		{7, 2, 0, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ConvOutputSize(tt.length, tt.kernel, tt.stride, tt.padding))
	}
}

func TestConvOutputSizeMatchesShapeInference(t *testing.T) {
	conv := layers.NewConv2D(8, shape.Tuple2{Item1: 3, Item2: 5})
	conv.Strides = shape.Tuple2{Item1: 2, Item2: 1}

	out, err := layers.InferShape(conv, []int{28, 20, 3})
	require.NoError(t, err)
	assert.Equal(t, []int{ConvOutputSize(28, 3, 2, 0), ConvOutputSize(20, 5, 1, 0), 8}, out)
	assert.Equal(t, []int{13, 16, 8}, out)
}

func TestPaddingConv2D(t *testing.T) {
	conv := layers.NewConv2D(8, shape.Tuple2{Item1: 3, Item2: 5})
	assert.Equal(t, &deeplearning.Shape2d{}, PaddingConv2D(conv))

	conv.Padding = layers.PaddingSame
	assert.Nil(t, PaddingConv2D(conv), "same padding needs an input shape")

	conv.InputShape = []int{3, 32, 20}
	conv.Strides = shape.Tuple2{Item1: 2, Item2: 1}
	assert.Equal(t, &deeplearning.Shape2d{Dim1: 30, Dim2: 16}, PaddingConv2D(conv))

	conv.DataFormat = layers.ChannelsLast
	conv.InputShape = []int{32, 20, 3}
	assert.Equal(t, &deeplearning.Shape2d{Dim1: 30, Dim2: 16}, PaddingConv2D(conv))

	conv.Padding = "causal"
	assert.Nil(t, PaddingConv2D(conv))
	assert.Nil(t, PaddingConv2D(nil))
}

func TestPaddingConv2DTranspose(t *testing.T) {
	deconv := &layers.Conv2DTranspose{
		Filters:    4,
		KernelSize: shape.Tuple2{Item1: 2, Item2: 2},
		Strides:    shape.Tuple2{Item1: 2, Item2: 2},
		Padding:    layers.PaddingSame,
	}
	deconv.InputShape = []int{16, 8, 8}
	assert.Equal(t, &deeplearning.Shape2d{Dim1: 7, Dim2: 7}, PaddingConv2DTranspose(deconv))

	deconv.Strides = shape.Tuple2{}
	assert.Nil(t, PaddingConv2DTranspose(deconv))

	deconv.Padding = layers.PaddingValid
	assert.Equal(t, &deeplearning.Shape2d{}, PaddingConv2DTranspose(deconv))
}

func TestSpatialDims(t *testing.T) {
	h, w, ok := SpatialDims([]int{3, 10, 12}, layers.ChannelsFirst)
	require.True(t, ok)
	assert.Equal(t, []int{10, 12}, []int{h, w})

	h, w, ok = SpatialDims([]int{3, 10, 12}, "")
	require.True(t, ok)
	assert.Equal(t, []int{10, 12}, []int{h, w})

	h, w, ok = SpatialDims([]int{10, 12, 3}, layers.ChannelsLast)
	require.True(t, ok)
	assert.Equal(t, []int{10, 12}, []int{h, w})

	_, _, ok = SpatialDims([]int{10, 12}, "")
	assert.False(t, ok)
}
