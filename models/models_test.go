package models

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/go-keras/bridge"
	"github.com/tsawler/go-keras/keras"
	"github.com/tsawler/go-keras/layers"
	"github.com/tsawler/go-keras/losses"
	"github.com/tsawler/go-keras/marshal"
	"github.com/tsawler/go-keras/optimizer"
)

func newRuntime(t *testing.T) *keras.Runtime {
	t.Helper()
	cfg := keras.DefaultConfig()
	cfg.Logger = log.New(io.Discard, "", 0)
	rt, err := keras.Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { rt.Close() })
	return rt
}

func xorLayers() []layers.Layer {
	hidden := layers.NewDense(8, "relu")
	hidden.InputShape = []int{2}
	return []layers.Layer{hidden, layers.NewDense(1, "sigmoid")}
}

func TestSequentialLifecycle(t *testing.T) {
	rt := newRuntime(t)
	ctx := context.Background()

	model, err := NewSequential(ctx, rt, xorLayers()...)
	require.NoError(t, err)
	assert.Equal(t, "Sequential", model.ClassName())
	assert.Len(t, model.Layers(), 2)

	err = model.Compile(ctx, optimizer.NewAdam(optimizer.DefaultAdamConfig()), losses.NewBinaryCrossentropy(false), []string{"accuracy"})
	require.NoError(t, err)

	spec, err := model.Config(ctx)
	require.NoError(t, err)
	require.Len(t, spec.Layers, 2)
	assert.Equal(t, []int{2}, spec.ResolvedInputShape())
	compiled, err := spec.Compile()
	require.NoError(t, err)
	assert.Equal(t, int64(2*8+8+8+1), compiled.TotalParameters)

	summary, err := model.Summary(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, summary)

	x := []interface{}{[]float64{0, 0}, []float64{1, 1}}
	_, err = model.Fit(ctx, x, []float64{0, 0}, marshal.NewParams().Set("epochs", 10))
	assert.True(t, errors.Is(err, bridge.ErrNotSupported))
	_, err = model.Predict(ctx, x, nil)
	assert.True(t, errors.Is(err, bridge.ErrNotSupported))

	_, err = model.Predict(ctx, [][]float64{{0, 1}}, nil)
	assert.True(t, errors.Is(err, marshal.ErrUnsupportedType), "nested slices need []interface{}")
}

func TestSequentialWeights(t *testing.T) {
	rt := newRuntime(t)
	ctx := context.Background()

	model, err := NewSequential(ctx, rt, xorLayers()...)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "xor.weights")
	require.NoError(t, model.SaveWeights(ctx, path))
	saved, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotEmpty(t, saved)

	other, err := NewSequential(ctx, rt, xorLayers()...)
	require.NoError(t, err)
	require.NoError(t, other.LoadWeights(ctx, path))

	copyPath := filepath.Join(t.TempDir(), "copy.weights")
	require.NoError(t, other.SaveWeights(ctx, copyPath))
	copied, err := os.ReadFile(copyPath)
	require.NoError(t, err)
	assert.Equal(t, saved, copied)

	err = model.LoadWeights(ctx, filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestModelFromJSON(t *testing.T) {
	rt := newRuntime(t)
	ctx := context.Background()

	model, err := NewSequential(ctx, rt, xorLayers()...)
	require.NoError(t, err)
	text, err := model.ToJSON(ctx)
	require.NoError(t, err)

	rebuilt, err := ModelFromJSON(ctx, rt, text)
	require.NoError(t, err)
	assert.Equal(t, "Sequential", rebuilt.ClassName())
	assert.NotEqual(t, model.Handle(), rebuilt.Handle())

	topo, err := rebuilt.Topology(ctx)
	require.NoError(t, err)
	require.NotNil(t, topo.Sequential)
	assert.Len(t, topo.Sequential.Layers, 2)

	_, err = ModelFromJSON(ctx, rt, "{")
	assert.Error(t, err)
}

func TestFromSpecDeclaresInputShape(t *testing.T) {
	rt := newRuntime(t)
	ctx := context.Background()

	spec := layers.NewModelBuilder([]int{3}).
		AddDense(4, "tanh", "hidden").
		AddDense(1, "", "out").
		Spec()

	model, err := FromSpec(ctx, rt, spec)
	require.NoError(t, err)

	back, err := model.Config(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{3}, back.ResolvedInputShape())
	assert.Equal(t, "hidden", back.Layers[0].LayerName())
}

func branchGraph() *layers.GraphSpec {
	input := &layers.InputLayer{Common: layers.Common{Name: "features", InputShape: []int{8}}, Dtype: "float32"}
	left := layers.NewDense(4, "relu")
	left.Name = "left"
	right := layers.NewDense(4, "tanh")
	right.Name = "right"
	merge := &layers.Concatenate{Common: layers.Common{Name: "merge"}, Axis: -1}
	out := layers.NewDense(1, "sigmoid")
	out.Name = "out"

	in := []layers.NodeRef{{Layer: "features"}}
	return &layers.GraphSpec{
		Name: "branches",
		Layers: []layers.GraphLayer{
			{Layer: input},
			{Layer: left, Inbound: [][]layers.NodeRef{in}},
			{Layer: right, Inbound: [][]layers.NodeRef{in}},
			{Layer: merge, Inbound: [][]layers.NodeRef{{{Layer: "left"}, {Layer: "right"}}}},
			{Layer: out, Inbound: [][]layers.NodeRef{{{Layer: "merge"}}}},
		},
		Inputs:  []layers.NodeRef{{Layer: "features"}},
		Outputs: []layers.NodeRef{{Layer: "out"}},
	}
}

func TestFunctionalModel(t *testing.T) {
	rt := newRuntime(t)
	ctx := context.Background()

	model, err := NewModel(ctx, rt, branchGraph())
	require.NoError(t, err)
	assert.Equal(t, "Functional", model.ClassName())

	g, err := model.Graph(ctx)
	require.NoError(t, err)
	assert.Equal(t, "branches", g.Name)
	assert.Len(t, g.Layers, 5)
	assert.Equal(t, []layers.NodeRef{{Layer: "features"}}, g.Inputs)
	assert.Equal(t, []layers.NodeRef{{Layer: "out"}}, g.Outputs)

	merge, ok := g.Find("merge")
	require.True(t, ok)
	assert.Equal(t, [][]layers.NodeRef{{{Layer: "left"}, {Layer: "right"}}}, merge.Inbound)

	features, ok := g.Find("features")
	require.True(t, ok)
	assert.Equal(t, []int{8}, features.Layer.DeclaredInputShape())

	seq, err := NewSequential(ctx, rt)
	require.NoError(t, err)
	_, err = seq.Graph(ctx)
	assert.Error(t, err, "an empty Sequential model is not a graph")
}

func TestNewModelRejectsInvalidGraph(t *testing.T) {
	rt := newRuntime(t)
	g := branchGraph()
	g.Outputs = []layers.NodeRef{{Layer: "missing"}}

	_, err := NewModel(context.Background(), rt, g)
	assert.Error(t, err)

	g = branchGraph()
	g.Layers[4].Inbound = [][]layers.NodeRef{{{Layer: "merge", Node: 3}}}
	_, err = NewModel(context.Background(), rt, g)
	assert.Error(t, err)
}
