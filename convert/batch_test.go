package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/go-keras/deeplearning"
	"github.com/tsawler/go-keras/diag"
	"github.com/tsawler/go-keras/layers"
)

func TestFromKerasModelSkipsUnrecognized(t *testing.T) {
	spec := layers.NewModelBuilder([]int{8}).
		AddDense(4, "relu", "hidden").
		AddLayer(&layers.Unknown{Class: "GaussianNoise", Config: map[string]interface{}{"stddev": 0.1}}).
		AddDense(2, "", "out").
		Spec()

	rec := diag.Discard()
	var got []deeplearning.Module
	require.NotPanics(t, func() { got = FromKerasModel(spec, rec) })

	require.Len(t, got, 3)
	assert.Equal(t, &deeplearning.Linear{FeaturesIn: 8, FeaturesOut: 4, Bias: true}, got[0])
	assert.Nil(t, got[1])
	assert.Equal(t, &deeplearning.Linear{FeaturesIn: 4, FeaturesOut: 2, Bias: true}, got[2])

	assert.Equal(t, []string{"No Convert method found for GaussianNoise"}, rec.Messages(diag.Error))
	assert.Len(t, rec.Messages(diag.Warning), 1)
}

func TestFromKerasModelWithoutInputShape(t *testing.T) {
	spec := &layers.ModelSpec{Layers: []layers.Layer{layers.NewDense(3, "")}}
	rec := diag.Discard()
	got := FromKerasModel(spec, rec)
	require.Len(t, got, 1)
	assert.Equal(t, &deeplearning.Linear{FeaturesOut: 3, Bias: true}, got[0])
	assert.Len(t, rec.Messages(diag.Warning), 1)

	assert.Nil(t, FromKerasModel(nil, rec))
	assert.Empty(t, FromKerasModel(&layers.ModelSpec{}, rec))
}

func convnet() *deeplearning.Sequential {
	return &deeplearning.Sequential{
		Name:       "convnet",
		InputShape: []int{1, 28, 28},
		Modules: []deeplearning.Module{
			&deeplearning.Convolution2d{
				FeaturesIn:  1,
				FeaturesOut: 32,
				KernelSize:  deeplearning.Square(3),
				Stride:      deeplearning.Square(1),
				Dilation:    deeplearning.Square(1),
			},
			&deeplearning.ReLU{},
			&deeplearning.MaxPooling2d{KernelSize: deeplearning.Square(2), Stride: deeplearning.Square(2)},
			&deeplearning.Flatten{},
			&deeplearning.Linear{FeaturesIn: 5408, FeaturesOut: 10, Bias: true},
			&deeplearning.Softmax{Dimension: -1},
		},
	}
}

func TestSequentialRoundTrip(t *testing.T) {
	seq := convnet()
	spec, err := ToKerasSequential(seq)
	require.NoError(t, err)

	compiled, err := spec.Compile()
	require.NoError(t, err)
	assert.Equal(t, []int{10}, compiled.OutputShape)
	assert.Equal(t, int64(320+54090), compiled.TotalParameters)

	rec := diag.Discard()
	assert.Equal(t, seq, New(rec).FromKerasSequential(spec))
	assert.Zero(t, rec.Len())
}

func TestSequentialThroughJSON(t *testing.T) {
	spec, err := ToKerasSequential(convnet())
	require.NoError(t, err)
	data, err := spec.ToJSON()
	require.NoError(t, err)

	topo, err := layers.DecodeTopology(data)
	require.NoError(t, err)
	require.NotNil(t, topo.Sequential)

	got := New(diag.Discard()).FromKerasSequential(topo.Sequential)
	assert.Equal(t, convnet().Modules, got.Modules)
	assert.Equal(t, []int{1, 28, 28}, got.InputShape)
}

func TestSequentialStacksRecurrentLayers(t *testing.T) {
	seq := &deeplearning.Sequential{
		InputShape: []int{12, 6},
		Modules: []deeplearning.Module{
			&deeplearning.LSTM{InputSize: 6, HiddenSize: 8, NumberOfLayers: 3, BatchFirst: true},
			&deeplearning.Linear{FeaturesIn: 8, FeaturesOut: 1, Bias: true},
		},
	}
	spec, err := ToKerasSequential(seq)
	require.NoError(t, err)
	require.Len(t, spec.Layers, 4)
	assert.True(t, spec.Layers[0].(*layers.LSTM).ReturnSequences)
	assert.True(t, spec.Layers[1].(*layers.LSTM).ReturnSequences)
	assert.False(t, spec.Layers[2].(*layers.LSTM).ReturnSequences)

	compiled, err := spec.Compile()
	require.NoError(t, err)
	assert.Equal(t, []int{1}, compiled.OutputShape)

	_, err = ToKerasSequential(&deeplearning.Sequential{Modules: []deeplearning.Module{nil}})
	assert.Error(t, err)
	_, err = ToKerasSequential(nil)
	assert.Error(t, err)
}

func branches() *deeplearning.Graph {
	return &deeplearning.Graph{
		Name:   "branches",
		Inputs: []deeplearning.GraphInput{{Name: "x", Shape: []int{8}}},
		Nodes: []deeplearning.Node{
			{Name: "left", Module: &deeplearning.Linear{FeaturesIn: 8, FeaturesOut: 4, Bias: true}},
			{Name: "right", Module: &deeplearning.Linear{FeaturesIn: 8, FeaturesOut: 4, Bias: true}},
			{Name: "sum", Module: &deeplearning.Add{}},
		},
		Edges: []deeplearning.Edge{
			{From: "x", To: "left"},
			{From: "x", To: "right"},
			{From: "left", To: "sum"},
			{From: "right", To: "sum"},
		},
		Outputs: []string{"sum"},
	}
}

func TestGraphRoundTrip(t *testing.T) {
	g := branches()
	spec, err := ToKerasGraph(g)
	require.NoError(t, err)

	sum, ok := spec.Find("sum")
	require.True(t, ok)
	assert.Equal(t, [][]layers.NodeRef{{{Layer: "left"}, {Layer: "right"}}}, sum.Inbound)
	assert.Equal(t, []layers.NodeRef{{Layer: "x"}}, spec.Inputs)

	rec := diag.Discard()
	assert.Equal(t, g, New(rec).FromKerasGraph(spec))
	assert.Zero(t, rec.Len())

	data, err := spec.ToJSON()
	require.NoError(t, err)
	topo, err := layers.DecodeTopology(data)
	require.NoError(t, err)
	require.NotNil(t, topo.Graph)
	assert.Equal(t, g, New(rec).FromKerasGraph(topo.Graph))
}

func TestGraphChainsStackedNodes(t *testing.T) {
	g := &deeplearning.Graph{
		Inputs:  []deeplearning.GraphInput{{Name: "seq", Shape: []int{10, 3}}},
		Nodes:   []deeplearning.Node{{Name: "rnn", Module: &deeplearning.GRU{InputSize: 3, HiddenSize: 5, NumberOfLayers: 2}}},
		Edges:   []deeplearning.Edge{{From: "seq", To: "rnn"}},
		Outputs: []string{"rnn"},
	}
	spec, err := ToKerasGraph(g)
	require.NoError(t, err)
	require.Len(t, spec.Layers, 3)

	first, ok := spec.Find("rnn_1")
	require.True(t, ok)
	assert.Equal(t, [][]layers.NodeRef{{{Layer: "seq"}}}, first.Inbound)
	last, ok := spec.Find("rnn")
	require.True(t, ok)
	assert.Equal(t, [][]layers.NodeRef{{{Layer: "rnn_1"}}}, last.Inbound)

	_, err = ToKerasGraph(&deeplearning.Graph{})
	assert.Error(t, err)
}

func TestFromKerasGraphBypassesUnknownLayers(t *testing.T) {
	in := &layers.InputLayer{}
	in.Name = "in"
	in.InputShape = []int{6}
	noise := &layers.Unknown{Class: "GaussianNoise"}
	noise.Name = "noise"
	dense := layers.NewDense(2, "")
	dense.Name = "dense"

	spec := &layers.GraphSpec{
		Name: "noisy",
		Layers: []layers.GraphLayer{
			{Layer: in},
			{Layer: noise, Inbound: [][]layers.NodeRef{{{Layer: "in"}}}},
			{Layer: dense, Inbound: [][]layers.NodeRef{{{Layer: "noise"}}}},
		},
		Inputs:  []layers.NodeRef{{Layer: "in"}},
		Outputs: []layers.NodeRef{{Layer: "dense"}},
	}

	rec := diag.Discard()
	g := New(rec).FromKerasGraph(spec)
	require.NotNil(t, g)
	assert.Equal(t, []deeplearning.Edge{{From: "in", To: "dense"}}, g.Edges)
	assert.Equal(t, &deeplearning.Linear{FeaturesIn: 6, FeaturesOut: 2, Bias: true}, g.Nodes[0].Module)
	assert.Equal(t, []string{"No Convert method found for GaussianNoise"}, rec.Messages(diag.Error))
	require.NoError(t, g.Validate())

	spec.Outputs = []layers.NodeRef{{Layer: "missing"}}
	assert.Nil(t, New(rec).FromKerasGraph(spec))
}
