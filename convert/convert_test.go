package convert

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/go-keras/deeplearning"
	"github.com/tsawler/go-keras/diag"
	"github.com/tsawler/go-keras/layers"
	"github.com/tsawler/go-keras/shape"
)

func roundTrip(t *testing.T, m deeplearning.Module, in Input) deeplearning.Module {
	t.Helper()
	l, err := ToKeras(m)
	require.NoError(t, err)
	rec := diag.Discard()
	got := New(rec).FromKeras(l, in)
	assert.Zero(t, rec.Len(), "unexpected diagnostics: %v", rec.Messages(diag.Error))
	return got
}

func TestConvolutionRoundTrip(t *testing.T) {
	conv := &deeplearning.Convolution2d{
		FeaturesIn:  3,
		FeaturesOut: 16,
		KernelSize:  deeplearning.Square(3),
		Stride:      deeplearning.Square(1),
		Padding:     deeplearning.Shape2d{},
		Dilation:    deeplearning.Square(1),
	}

	l, err := ToKeras(conv)
	require.NoError(t, err)
	kc := l.(*layers.Conv2D)
	assert.Equal(t, layers.PaddingValid, kc.Padding)
	assert.Equal(t, layers.ChannelsFirst, kc.DataFormat)
	assert.Equal(t, shape.Tuple2{Item1: 3, Item2: 3}, kc.KernelSize)

	assert.Equal(t, conv, roundTrip(t, conv, Input{Shape: []int{3, 32, 32}}))

	same := *conv
	same.Padding = deeplearning.Square(1)
	same.Dilation = deeplearning.Shape2d{Dim1: 2, Dim2: 1}
	assert.Equal(t, &same, roundTrip(t, &same, Input{Shape: []int{3, 32, 32}}))
}

func TestTransposedConvolutionRoundTrip(t *testing.T) {
	deconv := &deeplearning.TransposedConvolution2d{
		FeaturesIn:  8,
		FeaturesOut: 4,
		KernelSize:  deeplearning.Square(2),
		Stride:      deeplearning.Square(2),
		Dilation:    deeplearning.Square(1),
		OutputSize:  &deeplearning.Shape2d{Dim1: 16, Dim2: 16},
	}
	got := roundTrip(t, deconv, Input{Shape: []int{8, 8, 8}, OutputShape: []int{4, 16, 16}})
	assert.Equal(t, deconv, got)

	got = roundTrip(t, deconv, Input{Shape: []int{8, 8, 8}})
	assert.Nil(t, got.(*deeplearning.TransposedConvolution2d).OutputSize)
}

func TestPoolingRoundTrip(t *testing.T) {
	in := Input{Shape: []int{3, 32, 32}}

	maxPool := &deeplearning.MaxPooling2d{KernelSize: deeplearning.Square(2), Stride: deeplearning.Square(2)}
	assert.Equal(t, maxPool, roundTrip(t, maxPool, in))

	maxSame := &deeplearning.MaxPooling2d{KernelSize: deeplearning.Square(3), Stride: deeplearning.Square(1), Padding: deeplearning.Square(1)}
	assert.Equal(t, maxSame, roundTrip(t, maxSame, in))

	avgPool := &deeplearning.AvgPooling2d{KernelSize: deeplearning.Square(2), Stride: deeplearning.Square(2)}
	assert.Equal(t, avgPool, roundTrip(t, avgPool, in))
}

func TestAvgPoolingSamePadding(t *testing.T) {
	pool := &layers.AveragePooling2D{
		PoolSize:   shape.Tuple2{Item1: 3, Item2: 3},
		Strides:    shape.Tuple2{Item1: 1, Item2: 1},
		Padding:    layers.PaddingSame,
		DataFormat: layers.ChannelsFirst,
	}

	rec := diag.Discard()
	c := New(rec)
	got := c.FromKeras(pool, Input{Shape: []int{3, 32, 20}}).(*deeplearning.AvgPooling2d)
	assert.Equal(t, deeplearning.Shape2d{Dim1: 27, Dim2: 15}, got.Padding)
	assert.Zero(t, rec.Len())

	pool.DataFormat = layers.ChannelsLast
	got = c.FromKeras(pool, Input{Shape: []int{32, 20, 3}}).(*deeplearning.AvgPooling2d)
	assert.Equal(t, deeplearning.Shape2d{Dim1: 27, Dim2: 15}, got.Padding)

	got = c.FromKeras(pool, Input{}).(*deeplearning.AvgPooling2d)
	assert.True(t, got.Padding.IsZero())
	assert.Len(t, rec.Messages(diag.Warning), 1)
}

func TestPoolingStridesDefaultToPoolSize(t *testing.T) {
	pool := &layers.MaxPooling2D{PoolSize: shape.Tuple2{Item1: 2, Item2: 3}}
	got := New(diag.Discard()).FromKeras(pool, Input{}).(*deeplearning.MaxPooling2d)
	assert.Equal(t, deeplearning.Shape2d{Dim1: 2, Dim2: 3}, got.Stride)
}

func TestRecurrentRoundTrip(t *testing.T) {
	in := Input{Shape: []int{5, 10}}

	gru := &deeplearning.GRU{InputSize: 10, HiddenSize: 20, NumberOfLayers: 1, BatchFirst: true, Dropout: 0.25}
	assert.Equal(t, gru, roundTrip(t, gru, in))

	lstm := &deeplearning.LSTM{InputSize: 10, HiddenSize: 8, NumberOfLayers: 1, BatchFirst: true, Dropout: 0.1, Bidirectional: true}
	l, err := ToKeras(lstm)
	require.NoError(t, err)
	wrapper, ok := l.(*layers.Bidirectional)
	require.True(t, ok)
	inner := wrapper.Layer.(*layers.LSTM)
	assert.Equal(t, 8, inner.Units)
	assert.Equal(t, 0.1, inner.Dropout)
	assert.Zero(t, inner.RecurrentDropout)
	assert.Equal(t, lstm, roundTrip(t, lstm, in))
}

func TestGoBackwardsReadsAsBidirectional(t *testing.T) {
	gru := layers.NewGRU(4)
	gru.GoBackwards = true
	got := New(diag.Discard()).FromKeras(gru, Input{Shape: []int{3, 2}}).(*deeplearning.GRU)
	assert.True(t, got.Bidirectional)
	assert.Equal(t, 2, got.InputSize)
}

func TestModuleRoundTrips(t *testing.T) {
	tests := []struct {
		name   string
		module deeplearning.Module
		in     []int
	}{
		{"linear", &deeplearning.Linear{FeaturesIn: 8, FeaturesOut: 4, Bias: true}, []int{8}},
		{"linear without bias", &deeplearning.Linear{FeaturesIn: 6, FeaturesOut: 2}, []int{3, 6}},
		{"dropout", &deeplearning.Dropout{Probability: 0.5}, []int{8}},
		{"flatten", &deeplearning.Flatten{}, []int{2, 3, 4}},
		{"batch norm", &deeplearning.BatchNormalization{NumFeatures: 16, Epsilon: 0.001, Momentum: 0.99}, []int{16, 8, 8}},
		{"embedding", &deeplearning.Embedding{NumEmbeddings: 1000, EmbeddingDim: 64}, []int{10}},
		{"concatenate", &deeplearning.Concatenate{Dimension: -1}, []int{4}},
		{"add", &deeplearning.Add{}, []int{4}},
		{"relu", &deeplearning.ReLU{}, []int{4}},
		{"leaky relu", &deeplearning.LeakyReLU{NegativeSlope: 0.2}, []int{4}},
		{"softmax", &deeplearning.Softmax{Dimension: 1}, []int{4}},
		{"sigmoid", &deeplearning.Sigmoid{}, []int{4}},
		{"tanh", &deeplearning.Tanh{}, []int{4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.module, roundTrip(t, tt.module, Input{Shape: tt.in}))
		})
	}
}

func TestToKerasErrors(t *testing.T) {
	_, err := ToKeras(nil)
	assert.True(t, errors.Is(err, ErrNoConversion))

	_, err = ToKeras(&deeplearning.GRU{HiddenSize: 4, NumberOfLayers: 2})
	assert.True(t, errors.Is(err, ErrNoConversion))
}

func TestFromKerasUnmapped(t *testing.T) {
	tests := []struct {
		name  string
		layer layers.Layer
		want  string
	}{
		{"unknown class", &layers.Unknown{Class: "GaussianNoise"}, "No Convert method found for GaussianNoise"},
		{"elu", &layers.ELU{Alpha: 1}, "No Convert method found for ELU"},
		{"activation", &layers.Activation{Activation: "gelu"}, "No Convert method found for Activation(gelu)"},
		{"time distributed", &layers.TimeDistributed{Layer: layers.NewDense(2, "")}, "No Convert method found for TimeDistributed"},
		{"wrapped dense", &layers.Bidirectional{Layer: layers.NewDense(2, "")}, "No Convert method found for Bidirectional(Dense)"},
		{"nil", nil, "No Convert method found for <nil>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := diag.Discard()
			assert.Nil(t, New(rec).FromKeras(tt.layer, Input{}))
			assert.Equal(t, []string{tt.want}, rec.Messages(diag.Error))
		})
	}
}

func TestToBHoMMatchesFromKeras(t *testing.T) {
	dense := layers.NewDense(3, "relu")
	in := Input{Shape: []int{5}}
	assert.Equal(t, FromKeras(dense, in), ToBHoM(dense, in))
	assert.Equal(t, New(nil).FromKeras(dense, in), New(nil).ToBHoM(dense, in))
}

func TestShapeAdapters(t *testing.T) {
	s2 := deeplearning.Shape2d{Dim1: 3, Dim2: 4}
	s3 := deeplearning.Shape3d{Dim1: 1, Dim2: 28, Dim3: 28}

	assert.Equal(t, s2, FromKerasShape(ToKerasShape(s2)))
	assert.Equal(t, s3, FromKerasShape(ToKerasShape(s3)))
	assert.Equal(t, s3, ToBHoMShape(shape.New(1, 28, 28)))
	assert.Nil(t, FromKerasShape(shape.New(4)))
	assert.Nil(t, FromKerasShape(shape.New(1, 2, 3, 4)))
	assert.True(t, ToKerasShape(nil).IsZero())

	assert.Equal(t, shape.Tuple2{Item1: 3, Item2: 4}, ToTuple(s2))
	assert.Equal(t, shape.Tuple3{Item1: 1, Item2: 28, Item3: 28}, ToTuple(s3))
	assert.Nil(t, ToTuple(nil))
}

func TestImageMappers(t *testing.T) {
	tests := []struct {
		format     deeplearning.ImageFormat
		dataFormat string
		colorMode  string
	}{
		{deeplearning.ChannelFirst, layers.ChannelsFirst, ColorModeRGB},
		{deeplearning.ChannelLast, layers.ChannelsLast, ColorModeRGB},
		{deeplearning.GreyScale, layers.ChannelsLast, ColorModeGrayscale},
	}
	for _, tt := range tests {
		df, cm := ImageFormatToKeras(tt.format)
		assert.Equal(t, tt.dataFormat, df, tt.format.String())
		assert.Equal(t, tt.colorMode, cm, tt.format.String())
	}

	assert.Equal(t, "nearest", InterpolationToKeras(deeplearning.Nearest))
	assert.Equal(t, "bicubic", InterpolationToKeras(deeplearning.Bicubic))
	assert.Equal(t, "hamming", InterpolationToKeras(deeplearning.Hamming))
	assert.Equal(t, "nearest", InterpolationToKeras(deeplearning.InterpolationMethod(42)))
}
