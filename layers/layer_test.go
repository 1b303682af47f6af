package layers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/go-keras/marshal"
	"github.com/tsawler/go-keras/regularizers"
	"github.com/tsawler/go-keras/shape"
)

func TestLayerTypeString(t *testing.T) {
	assert.Equal(t, "Conv2DTranspose", TypeConv2DTranspose.String())
	assert.Equal(t, "BatchNormalization", TypeBatchNormalization.String())
	assert.Equal(t, "Unknown", LayerType(999).String())
	assert.Equal(t, "Dense", (&Dense{}).ClassName())
	assert.Equal(t, "GaussianNoise", (&Unknown{Class: "GaussianNoise"}).ClassName())
}

func TestDenseParamsOrder(t *testing.T) {
	d := NewDense(16, "relu")
	d.Name = "hidden"
	d.InputShape = []int{8}

	p := d.Params()
	assert.Equal(t, "units", p.Keys()[0])

	args, kwargs, err := marshal.Args(p)
	require.NoError(t, err)
	require.Len(t, args, 1)
	assert.Equal(t, 16.0, args[0].GetNumberValue())
	assert.Equal(t, "relu", kwargs["activation"].GetStringValue())
	assert.Equal(t, "hidden", kwargs["name"].GetStringValue())
	assert.Contains(t, kwargs, "input_shape")
	assert.NotContains(t, kwargs, "kernel_initializer")
	assert.NotContains(t, kwargs, "kernel_regularizer")
}

func TestConvParamsSkipUnsetTuples(t *testing.T) {
	c := &Conv2D{Filters: 8, KernelSize: shape.Tuple2{Item1: 3, Item2: 3}}

	_, kwargs, err := marshal.Args(c.Params())
	require.NoError(t, err)
	assert.Contains(t, kwargs, "kernel_size")
	assert.NotContains(t, kwargs, "strides")
	assert.NotContains(t, kwargs, "dilation_rate")
	assert.NotContains(t, kwargs, "padding")
}

func TestAddHasNoPositionalArgument(t *testing.T) {
	args, kwargs, err := marshal.Args((&Add{Common: Common{Name: "sum"}}).Params())
	require.NoError(t, err)
	assert.Empty(t, args)
	assert.Equal(t, "sum", kwargs["name"].GetStringValue())
}

func TestReLUMaxValue(t *testing.T) {
	args, _, err := marshal.Args((&ReLU{}).Params())
	require.NoError(t, err)
	assert.Nil(t, marshal.FromForeign(args[0]))

	six := 6.0
	args, _, err = marshal.Args((&ReLU{MaxValue: &six}).Params())
	require.NoError(t, err)
	assert.Equal(t, 6.0, args[0].GetNumberValue())
}

// entryConfig serializes a record the way it appears in topology JSON
func entryConfig(t *testing.T, l Layer) map[string]interface{} {
	t.Helper()
	entry, err := Entry(l)
	require.NoError(t, err)
	cfg, ok := entry.AsMap()["config"].(map[string]interface{})
	require.True(t, ok)
	return cfg
}

func TestDecodeRoundTrip(t *testing.T) {
	six := 6.0
	records := []Layer{
		&Dense{Common: Common{Name: "d", InputShape: []int{4}}, Units: 3, Activation: "relu", UseBias: true,
			KernelRegularizer: regularizers.L2{L2: 0.1}, KernelConstraint: regularizers.DefaultMaxNorm()},
		&Conv2D{Common: Common{Name: "c"}, Filters: 8, KernelSize: shape.Tuple2{Item1: 3, Item2: 5},
			Strides: shape.Tuple2{Item1: 1, Item2: 2}, Padding: PaddingSame, DataFormat: ChannelsFirst,
			DilationRate: shape.Tuple2{Item1: 1, Item2: 1}, Activation: "linear", UseBias: false},
		&Conv2DTranspose{Common: Common{Name: "ct"}, Filters: 4, KernelSize: shape.Tuple2{Item1: 2, Item2: 2},
			Strides: shape.Tuple2{Item1: 2, Item2: 2}, Padding: PaddingValid, DataFormat: ChannelsLast,
			DilationRate: shape.Tuple2{Item1: 1, Item2: 1}, Activation: "relu", UseBias: true},
		&MaxPooling2D{Common: Common{Name: "mp"}, PoolSize: shape.Tuple2{Item1: 2, Item2: 2},
			Strides: shape.Tuple2{Item1: 2, Item2: 2}, Padding: PaddingValid, DataFormat: ChannelsLast},
		&AveragePooling2D{Common: Common{Name: "ap"}, PoolSize: shape.Tuple2{Item1: 3, Item2: 3},
			Strides: shape.Tuple2{Item1: 1, Item2: 1}, Padding: PaddingSame, DataFormat: ChannelsFirst},
		&GRU{Common: Common{Name: "g"}, Units: 5, Activation: "tanh", RecurrentActivation: "sigmoid",
			Dropout: 0.2, RecurrentDropout: 0.1, ReturnSequences: true, GoBackwards: true},
		&LSTM{Common: Common{Name: "l"}, Units: 7, Activation: "tanh", RecurrentActivation: "hard_sigmoid", Dropout: 0.5},
		&ReLU{Common: Common{Name: "r"}, MaxValue: &six, NegativeSlope: 0.1, Threshold: 0.5},
		&LeakyReLU{Common: Common{Name: "lr"}, Alpha: 0.2},
		&Softmax{Common: Common{Name: "s"}, Axis: 1},
		&ELU{Common: Common{Name: "e"}, Alpha: 0.7},
		&Activation{Common: Common{Name: "a"}, Activation: "sigmoid"},
		&Dropout{Common: Common{Name: "dr"}, Rate: 0.25},
		&Flatten{Common: Common{Name: "f"}, DataFormat: ChannelsLast},
		&Reshape{Common: Common{Name: "rs"}, TargetShape: []int{2, 8}},
		&BatchNormalization{Common: Common{Name: "bn"}, Axis: 1, Momentum: 0.9, Epsilon: 0.01, Center: true, Scale: false},
		&Embedding{Common: Common{Name: "emb"}, InputDim: 100, OutputDim: 8, InputLength: 10},
		&Bidirectional{Common: Common{Name: "bi"}, Layer: &GRU{Common: Common{Name: "inner"}, Units: 2,
			Activation: "tanh", RecurrentActivation: "sigmoid"}, MergeMode: "sum"},
		&TimeDistributed{Common: Common{Name: "td"}, Layer: &Dense{Common: Common{Name: "tdd"}, Units: 1, Activation: "linear", UseBias: true}},
		&Add{Common: Common{Name: "add"}},
		&Concatenate{Common: Common{Name: "cat"}, Axis: -1},
	}

	for _, l := range records {
		t.Run(l.ClassName(), func(t *testing.T) {
			got, err := Decode(l.ClassName(), entryConfig(t, l))
			require.NoError(t, err)
			assert.Equal(t, l, got)
		})
	}
}

func TestDecodeUnknownClass(t *testing.T) {
	cfg := map[string]interface{}{"name": "noise", "stddev": 0.1, "batch_input_shape": []interface{}{nil, 3.0}}
	l, err := Decode("GaussianNoise", cfg)
	require.NoError(t, err)

	u, ok := l.(*Unknown)
	require.True(t, ok)
	assert.Equal(t, TypeUnknown, u.Kind())
	assert.Equal(t, "noise", u.LayerName())
	assert.Equal(t, []int{3}, u.DeclaredInputShape())

	back := entryConfig(t, u)
	assert.Equal(t, 0.1, back["stddev"])
	assert.Equal(t, "noise", back["name"])

	_, err = Decode("", nil)
	require.Error(t, err)
}

func TestDecodeScalarTuplesAndInputShape(t *testing.T) {
	l, err := Decode("Conv2D", map[string]interface{}{
		"filters":     4.0,
		"kernel_size": 3.0,
		"input_shape": []interface{}{28.0, 28.0, 1.0},
	})
	require.NoError(t, err)

	c := l.(*Conv2D)
	assert.Equal(t, shape.Tuple2{Item1: 3, Item2: 3}, c.KernelSize)
	assert.Equal(t, shape.Tuple2{Item1: 1, Item2: 1}, c.Strides)
	assert.Equal(t, PaddingValid, c.Padding)
	assert.Equal(t, []int{28, 28, 1}, c.InputShape)
}

func TestDecodeBidirectionalWithoutLayer(t *testing.T) {
	_, err := Decode("Bidirectional", map[string]interface{}{"name": "bi"})
	require.Error(t, err)
}
