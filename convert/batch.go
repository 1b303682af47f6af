package convert

import (
	"github.com/tsawler/go-keras/deeplearning"
	"github.com/tsawler/go-keras/diag"
	"github.com/tsawler/go-keras/layers"
)

// FromKerasModel converts every layer of spec using a converter reporting on rec
func FromKerasModel(spec *layers.ModelSpec, rec *diag.Recorder) []deeplearning.Module {
	return New(rec).FromKerasModel(spec)
}

// FromKerasModel converts every layer of spec. The result has one entry per
// layer, nil where the layer has no descriptor. Input shapes are inferred
// from the model input shape; past a layer whose output shape cannot be
// inferred, the last known shape is used and a warning recorded.
func (c *Converter) FromKerasModel(spec *layers.ModelSpec) []deeplearning.Module {
	if spec == nil {
		return nil
	}
	out := make([]deeplearning.Module, len(spec.Layers))
	if len(spec.Layers) == 0 {
		return out
	}

	var shapes []layers.LayerShape
	if len(spec.ResolvedInputShape()) > 0 {
		shapes = spec.Trace()
	} else {
		c.Recorder.Warningf("model %q declares no input shape, input sizes are left at 0", spec.Name)
		shapes = make([]layers.LayerShape, len(spec.Layers))
	}

	for i, l := range spec.Layers {
		if i > 0 && shapes[i-1].Err != nil {
			c.Recorder.Warningf("layer %d (%s): output shape of the previous layer is unknown, using %v",
				i, label(l), shapes[i].InputShape)
		}
		out[i] = c.FromKeras(l, Input{Shape: shapes[i].InputShape, OutputShape: shapes[i].OutputShape})
	}
	return out
}

// FromKerasSequential converts spec to a Sequential descriptor, leaving out
// the layers that have no descriptor
func (c *Converter) FromKerasSequential(spec *layers.ModelSpec) *deeplearning.Sequential {
	if spec == nil {
		return nil
	}
	seq := &deeplearning.Sequential{Name: spec.Name}
	if in := spec.ResolvedInputShape(); len(in) > 0 {
		seq.InputShape = append([]int(nil), in...)
	}
	for _, m := range c.FromKerasModel(spec) {
		if m != nil {
			seq.Modules = append(seq.Modules, m)
		}
	}
	return seq
}

// FromKerasGraph converts a functional model to a Graph descriptor.
// InputLayers become graph inputs. A layer with no descriptor is reported and
// bypassed: its consumers are fed by its own inbound layers. Only the first
// call of a shared layer is converted.
func (c *Converter) FromKerasGraph(g *layers.GraphSpec) *deeplearning.Graph {
	if g == nil {
		return nil
	}
	if err := g.Validate(); err != nil {
		c.Recorder.Errorf("functional model %q: %v", g.Name, err)
		return nil
	}

	out := &deeplearning.Graph{Name: g.Name}
	shapes := make(map[string][]int, len(g.Layers))
	bypass := make(map[string][]string)

	var resolve func(name string) []string
	resolve = func(name string) []string {
		from, ok := bypass[name]
		if !ok {
			return []string{name}
		}
		var names []string
		for _, f := range from {
			names = append(names, resolve(f)...)
		}
		return names
	}

	for _, gl := range g.Layers {
		name := gl.Layer.LayerName()

		if il, ok := gl.Layer.(*layers.InputLayer); ok && len(gl.Inbound) == 0 {
			dims := append([]int(nil), il.InputShape...)
			out.Inputs = append(out.Inputs, deeplearning.GraphInput{Name: name, Shape: dims})
			shapes[name] = dims
			continue
		}
		if len(gl.Inbound) == 0 {
			c.Recorder.Errorf("layer %s is never called", name)
			continue
		}
		if len(gl.Inbound) > 1 {
			c.Recorder.Warningf("layer %s is called %d times, only the first call is converted", name, len(gl.Inbound))
		}

		refs := gl.Inbound[0]
		var in []int
		if len(refs) > 0 {
			in = shapes[refs[0].Layer]
		}
		outShape, err := layers.InferShape(gl.Layer, in)
		if err != nil {
			outShape = in
		}
		shapes[name] = outShape

		var sources []string
		for _, ref := range refs {
			sources = append(sources, resolve(ref.Layer)...)
		}

		m := c.FromKeras(gl.Layer, Input{Shape: in, OutputShape: outShape})
		if m == nil {
			bypass[name] = sources
			continue
		}
		out.Nodes = append(out.Nodes, deeplearning.Node{Name: name, Module: m})
		for _, from := range sources {
			out.Edges = append(out.Edges, deeplearning.Edge{From: from, To: name})
		}
	}

	for _, ref := range g.Outputs {
		out.Outputs = append(out.Outputs, resolve(ref.Layer)...)
	}
	return out
}
