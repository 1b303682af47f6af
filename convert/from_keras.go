package convert

import (
	"github.com/tsawler/go-keras/deeplearning"
	"github.com/tsawler/go-keras/layers"
	"github.com/tsawler/go-keras/query"
	"github.com/tsawler/go-keras/shape"
)

// FromKeras converts a layer record to its descriptor. in is the shape the
// layer is applied to, from which input sizes are read. Records without a
// descriptor counterpart are reported and give nil.
func (c *Converter) FromKeras(l layers.Layer, in Input) deeplearning.Module {
	switch x := l.(type) {
	case *layers.Conv2D:
		return &deeplearning.Convolution2d{
			FeaturesIn:  channels(in.Shape, x.DataFormat),
			FeaturesOut: x.Filters,
			KernelSize:  fromTuple2(x.KernelSize),
			Stride:      fromTuple2(x.Strides),
			Padding:     modePadding(x.Padding),
			Dilation:    fromTuple2(x.DilationRate),
		}
	case *layers.Conv2DTranspose:
		m := &deeplearning.TransposedConvolution2d{
			FeaturesIn:  channels(in.Shape, x.DataFormat),
			FeaturesOut: x.Filters,
			KernelSize:  fromTuple2(x.KernelSize),
			Stride:      fromTuple2(x.Strides),
			Padding:     modePadding(x.Padding),
			Dilation:    fromTuple2(x.DilationRate),
		}
		if h, w, ok := query.SpatialDims(in.OutputShape, x.DataFormat); ok {
			m.OutputSize = &deeplearning.Shape2d{Dim1: h, Dim2: w}
		}
		return m
	case *layers.MaxPooling2D:
		return &deeplearning.MaxPooling2d{
			KernelSize: fromTuple2(x.PoolSize),
			Stride:     fromTuple2(poolStrides(x.PoolSize, x.Strides)),
			Padding:    modePadding(x.Padding),
		}
	case *layers.AveragePooling2D:
		return c.avgPooling(x, in)
	case *layers.GRU:
		return &deeplearning.GRU{
			InputSize:      last(in.Shape),
			HiddenSize:     x.Units,
			NumberOfLayers: 1,
			BatchFirst:     true,
			Dropout:        x.Dropout,
			Bidirectional:  x.GoBackwards,
		}
	case *layers.LSTM:
		return &deeplearning.LSTM{
			InputSize:      last(in.Shape),
			HiddenSize:     x.Units,
			NumberOfLayers: 1,
			BatchFirst:     true,
			Dropout:        x.Dropout,
			Bidirectional:  x.GoBackwards,
		}
	case *layers.Bidirectional:
		switch inner := c.FromKeras(x.Layer, in).(type) {
		case *deeplearning.GRU:
			inner.Bidirectional = true
			return inner
		case *deeplearning.LSTM:
			inner.Bidirectional = true
			return inner
		case nil:
			return nil
		}
		c.noConvert("Bidirectional(" + label(x.Layer) + ")")
		return nil
	case *layers.Dense:
		return &deeplearning.Linear{FeaturesIn: last(in.Shape), FeaturesOut: x.Units, Bias: x.UseBias}
	case *layers.Dropout:
		return &deeplearning.Dropout{Probability: x.Rate}
	case *layers.Flatten:
		return &deeplearning.Flatten{}
	case *layers.BatchNormalization:
		return &deeplearning.BatchNormalization{
			NumFeatures: featureAxis(in.Shape, x.Axis),
			Epsilon:     x.Epsilon,
			Momentum:    x.Momentum,
		}
	case *layers.Embedding:
		return &deeplearning.Embedding{NumEmbeddings: x.InputDim, EmbeddingDim: x.OutputDim}
	case *layers.Concatenate:
		return &deeplearning.Concatenate{Dimension: x.Axis}
	case *layers.Add:
		return &deeplearning.Add{}
	case *layers.ReLU:
		return &deeplearning.ReLU{}
	case *layers.LeakyReLU:
		return &deeplearning.LeakyReLU{NegativeSlope: x.Alpha}
	case *layers.Softmax:
		return &deeplearning.Softmax{Dimension: x.Axis}
	case *layers.Activation:
		switch x.Activation {
		case "relu":
			return &deeplearning.ReLU{}
		case "sigmoid":
			return &deeplearning.Sigmoid{}
		case "tanh":
			return &deeplearning.Tanh{}
		case "softmax":
			return &deeplearning.Softmax{Dimension: -1}
		}
		c.noConvert("Activation(" + x.Activation + ")")
		return nil
	case *layers.InputLayer, *layers.ELU, *layers.Reshape, *layers.TimeDistributed, *layers.Unknown:
	}
	c.noConvert(label(l))
	return nil
}

func (c *Converter) avgPooling(x *layers.AveragePooling2D, in Input) *deeplearning.AvgPooling2d {
	strides := poolStrides(x.PoolSize, x.Strides)
	m := &deeplearning.AvgPooling2d{
		KernelSize: fromTuple2(x.PoolSize),
		Stride:     fromTuple2(strides),
	}
	if p := query.PaddingPooling(x.Padding, in.Shape, x.DataFormat, x.PoolSize, strides); p != nil {
		m.Padding = *p
	} else if x.Padding == layers.PaddingSame {
		c.Recorder.Warningf("%s: same padding without a known input shape, padding left at 0/0", label(x))
	}
	return m
}

// modePadding is the explicit padding recorded for a padding mode. "same"
// has no single explicit padding; 1/1 marks it.
func modePadding(mode string) deeplearning.Shape2d {
	if mode == layers.PaddingSame {
		return deeplearning.Square(1)
	}
	return deeplearning.Shape2d{}
}

// poolStrides applies the Keras rule that pooling strides default to the pool size
func poolStrides(pool, strides shape.Tuple2) shape.Tuple2 {
	if strides.Item1 == 0 && strides.Item2 == 0 {
		return pool
	}
	return strides
}

func fromTuple2(t shape.Tuple2) deeplearning.Shape2d {
	return deeplearning.Shape2d{Dim1: t.Item1, Dim2: t.Item2}
}

func channels(dims []int, dataFormat string) int {
	if len(dims) != 3 {
		return 0
	}
	if dataFormat == layers.ChannelsLast {
		return dims[2]
	}
	return dims[0]
}

func last(dims []int) int {
	if len(dims) == 0 {
		return 0
	}
	return dims[len(dims)-1]
}

// featureAxis reads the size of a Keras axis, which counts the batch dimension
func featureAxis(dims []int, axis int) int {
	if axis < 0 {
		axis += len(dims) + 1
	}
	if axis < 1 || axis > len(dims) {
		return 0
	}
	return dims[axis-1]
}
