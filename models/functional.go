package models

import (
	"context"

	"github.com/pkg/errors"

	"github.com/tsawler/go-keras/bridge"
	"github.com/tsawler/go-keras/keras"
	"github.com/tsawler/go-keras/layers"
	"github.com/tsawler/go-keras/marshal"
	"github.com/tsawler/go-keras/shape"
)

// NewModel builds a functional model from a graph. Every InputLayer becomes
// a keras Input; every other layer is created once and called on its
// inbound tensors, once per inbound node.
func NewModel(ctx context.Context, rt *keras.Runtime, g *layers.GraphSpec) (*Model, error) {
	if err := g.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid graph")
	}
	layersModule, err := rt.Layers(ctx)
	if err != nil {
		return nil, err
	}

	// output tensor of each call, by layer name and node index
	tensors := make(map[string][]bridge.Handle, len(g.Layers))
	resolve := func(ref layers.NodeRef) (bridge.Handle, error) {
		nodes := tensors[ref.Layer]
		if ref.Node < 0 || ref.Node >= len(nodes) {
			return bridge.Handle{}, errors.Errorf("layer %s has no node %d", ref.Layer, ref.Node)
		}
		if ref.Tensor != 0 {
			return bridge.Handle{}, errors.Errorf("layer %s: multiple output tensors are not supported", ref.Layer)
		}
		return nodes[ref.Node], nil
	}
	resolveAll := func(refs []layers.NodeRef) ([]interface{}, error) {
		out := make([]interface{}, len(refs))
		for i, ref := range refs {
			h, err := resolve(ref)
			if err != nil {
				return nil, err
			}
			out[i] = h
		}
		return out, nil
	}

	for _, gl := range g.Layers {
		name := gl.Layer.LayerName()

		if in, ok := gl.Layer.(*layers.InputLayer); ok {
			p := marshal.NewParams().
				Set("shape", shape.New(in.InputShape...)).
				Set("dtype", in.Dtype).
				Set("name", name)
			v, err := marshal.InvokeStaticMethod(ctx, rt.Session(), layersModule, "Input", p)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to create input %s", name)
			}
			h, ok := bridge.AsHandle(v)
			if !ok {
				return nil, errors.Errorf("Input %s did not return a tensor", name)
			}
			tensors[name] = []bridge.Handle{h}
			continue
		}

		layer, err := rt.CreateLayer(ctx, gl.Layer)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create layer %s", name)
		}
		for i, node := range gl.Inbound {
			inputs, err := resolveAll(node)
			if err != nil {
				return nil, err
			}
			var arg interface{} = inputs
			if len(inputs) == 1 {
				arg = inputs[0]
			}
			v, err := rt.Call(ctx, layer, "__call__", marshal.NewParams().Set("inputs", arg))
			if err != nil {
				return nil, errors.Wrapf(err, "failed to call layer %s (node %d)", name, i)
			}
			out, ok := bridge.AsHandle(v)
			if !ok {
				return nil, errors.Errorf("calling layer %s did not return a tensor", name)
			}
			tensors[name] = append(tensors[name], out)
		}
	}

	inputs, err := resolveAll(g.Inputs)
	if err != nil {
		return nil, errors.Wrap(err, "model inputs")
	}
	outputs, err := resolveAll(g.Outputs)
	if err != nil {
		return nil, errors.Wrap(err, "model outputs")
	}

	modelsModule, err := rt.Models(ctx)
	if err != nil {
		return nil, err
	}
	p := marshal.NewParams().
		Set("inputs", inputs).
		Set("outputs", outputs).
		Set("name", g.Name)
	h, err := marshal.Instantiate(ctx, rt.Session(), modelsModule, "Model", p)
	if err != nil {
		return nil, err
	}
	return &Model{rt: rt, handle: h}, nil
}

// Graph reads a functional model back as a graph
func (m *Model) Graph(ctx context.Context) (*layers.GraphSpec, error) {
	topo, err := m.Topology(ctx)
	if err != nil {
		return nil, err
	}
	if topo.Graph == nil {
		return nil, errors.Errorf("model is a %s, not functional", topo.ClassName)
	}
	return topo.Graph, nil
}
