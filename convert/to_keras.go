package convert

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/tsawler/go-keras/deeplearning"
	"github.com/tsawler/go-keras/layers"
	"github.com/tsawler/go-keras/shape"
)

// ToKeras converts a descriptor to a layer record. Image layers are emitted
// channels first, which is the descriptor layout. Recurrent descriptors with
// more than one layer are rejected; ToKerasSequential and ToKerasGraph stack
// them instead.
func ToKeras(m deeplearning.Module) (layers.Layer, error) {
	switch x := m.(type) {
	case *deeplearning.GRU:
		if x.NumberOfLayers > 1 {
			return nil, errors.Wrapf(ErrNoConversion, "GRU with %d layers", x.NumberOfLayers)
		}
	case *deeplearning.LSTM:
		if x.NumberOfLayers > 1 {
			return nil, errors.Wrapf(ErrNoConversion, "LSTM with %d layers", x.NumberOfLayers)
		}
	}
	ls, err := toKerasLayers(m)
	if err != nil {
		return nil, err
	}
	return ls[0], nil
}

func toKerasLayers(m deeplearning.Module) ([]layers.Layer, error) {
	switch x := m.(type) {
	case *deeplearning.Convolution2d:
		return one(&layers.Conv2D{
			Filters:      x.FeaturesOut,
			KernelSize:   toTuple2(x.KernelSize),
			Strides:      toTuple2(x.Stride),
			Padding:      paddingMode(x.Padding),
			DataFormat:   layers.ChannelsFirst,
			DilationRate: toTuple2(orOne(x.Dilation)),
			UseBias:      true,
		})
	case *deeplearning.TransposedConvolution2d:
		return one(&layers.Conv2DTranspose{
			Filters:      x.FeaturesOut,
			KernelSize:   toTuple2(x.KernelSize),
			Strides:      toTuple2(x.Stride),
			Padding:      paddingMode(x.Padding),
			DataFormat:   layers.ChannelsFirst,
			DilationRate: toTuple2(orOne(x.Dilation)),
			UseBias:      true,
		})
	case *deeplearning.MaxPooling2d:
		return one(&layers.MaxPooling2D{
			PoolSize:   toTuple2(x.KernelSize),
			Strides:    toTuple2(x.Stride),
			Padding:    paddingMode(x.Padding),
			DataFormat: layers.ChannelsFirst,
		})
	case *deeplearning.AvgPooling2d:
		return one(&layers.AveragePooling2D{
			PoolSize:   toTuple2(x.KernelSize),
			Strides:    toTuple2(x.Stride),
			Padding:    paddingMode(x.Padding),
			DataFormat: layers.ChannelsFirst,
		})
	case *deeplearning.GRU:
		return recurrentStack(x.NumberOfLayers, x.Bidirectional, func() layers.Layer {
			l := layers.NewGRU(x.HiddenSize)
			l.Dropout = x.Dropout
			return l
		}), nil
	case *deeplearning.LSTM:
		return recurrentStack(x.NumberOfLayers, x.Bidirectional, func() layers.Layer {
			l := layers.NewLSTM(x.HiddenSize)
			l.Dropout = x.Dropout
			return l
		}), nil
	case *deeplearning.Linear:
		return one(&layers.Dense{Units: x.FeaturesOut, UseBias: x.Bias})
	case *deeplearning.Dropout:
		return one(&layers.Dropout{Rate: x.Probability})
	case *deeplearning.Flatten:
		return one(&layers.Flatten{DataFormat: layers.ChannelsFirst})
	case *deeplearning.BatchNormalization:
		bn := layers.NewBatchNormalization()
		// feature axis of both (batch, features) and (batch, channels, h, w)
		bn.Axis = 1
		bn.Epsilon = x.Epsilon
		bn.Momentum = x.Momentum
		return one(bn)
	case *deeplearning.Embedding:
		return one(&layers.Embedding{InputDim: x.NumEmbeddings, OutputDim: x.EmbeddingDim})
	case *deeplearning.Concatenate:
		return one(&layers.Concatenate{Axis: x.Dimension})
	case *deeplearning.Add:
		return one(&layers.Add{})
	case *deeplearning.ReLU:
		return one(&layers.ReLU{})
	case *deeplearning.LeakyReLU:
		return one(&layers.LeakyReLU{Alpha: x.NegativeSlope})
	case *deeplearning.Softmax:
		return one(&layers.Softmax{Axis: x.Dimension})
	case *deeplearning.Sigmoid:
		return one(&layers.Activation{Activation: "sigmoid"})
	case *deeplearning.Tanh:
		return one(&layers.Activation{Activation: "tanh"})
	case nil:
		return nil, errors.Wrap(ErrNoConversion, "nil module")
	}
	return nil, errors.Wrapf(ErrNoConversion, "%T", m)
}

func one(l layers.Layer) ([]layers.Layer, error) {
	return []layers.Layer{l}, nil
}

// recurrentStack builds n recurrent layers, every layer but the last
// returning full sequences for the next one
func recurrentStack(n int, bidirectional bool, build func() layers.Layer) []layers.Layer {
	if n < 1 {
		n = 1
	}
	out := make([]layers.Layer, n)
	for i := range out {
		l := build()
		if i < n-1 {
			switch r := l.(type) {
			case *layers.GRU:
				r.ReturnSequences = true
			case *layers.LSTM:
				r.ReturnSequences = true
			}
		}
		if bidirectional {
			l = &layers.Bidirectional{Layer: l}
		}
		out[i] = l
	}
	return out
}

// paddingMode is the Keras padding mode of an explicit padding
func paddingMode(p deeplearning.Shape2d) string {
	if p.IsZero() {
		return layers.PaddingValid
	}
	return layers.PaddingSame
}

func toTuple2(s deeplearning.Shape2d) shape.Tuple2 {
	return shape.Tuple2{Item1: s.Dim1, Item2: s.Dim2}
}

func orOne(s deeplearning.Shape2d) deeplearning.Shape2d {
	if s.IsZero() {
		return deeplearning.Square(1)
	}
	return s
}

// ToKerasSequential converts a Sequential descriptor to a model record
func ToKerasSequential(seq *deeplearning.Sequential) (*layers.ModelSpec, error) {
	if seq == nil {
		return nil, errors.New("nil sequential")
	}
	spec := &layers.ModelSpec{Name: seq.Name}
	if len(seq.InputShape) > 0 {
		spec.InputShape = append([]int(nil), seq.InputShape...)
	}
	for i, m := range seq.Modules {
		ls, err := toKerasLayers(m)
		if err != nil {
			return nil, errors.Wrapf(err, "module %d", i)
		}
		spec.Layers = append(spec.Layers, ls...)
	}
	return spec, nil
}

// ToKerasGraph converts a Graph descriptor to a functional model record.
// Inputs become InputLayers, and every node becomes a layer of the same name
// called on its inbound edges in edge order. A node expanding to several
// layers is chained, its last layer carrying the node name.
func ToKerasGraph(g *deeplearning.Graph) (*layers.GraphSpec, error) {
	if g == nil {
		return nil, errors.New("nil graph")
	}
	order, err := g.Order()
	if err != nil {
		return nil, errors.Wrap(err, "invalid graph")
	}

	spec := &layers.GraphSpec{Name: g.Name}
	for _, in := range g.Inputs {
		il := &layers.InputLayer{}
		il.Name = in.Name
		il.InputShape = append([]int(nil), in.Shape...)
		spec.Layers = append(spec.Layers, layers.GraphLayer{Layer: il})
		spec.Inputs = append(spec.Inputs, layers.NodeRef{Layer: in.Name})
	}

	for _, name := range order {
		node, _ := g.Node(name)
		ls, err := toKerasLayers(node.Module)
		if err != nil {
			return nil, errors.Wrapf(err, "node %s", name)
		}

		var refs []layers.NodeRef
		for _, from := range g.Inbound(name) {
			refs = append(refs, layers.NodeRef{Layer: from})
		}
		for i, l := range ls {
			layerName := name
			if i < len(ls)-1 {
				layerName = fmt.Sprintf("%s_%d", name, i+1)
			}
			layers.SetName(l, layerName)
			spec.Layers = append(spec.Layers, layers.GraphLayer{Layer: l, Inbound: [][]layers.NodeRef{refs}})
			refs = []layers.NodeRef{{Layer: layerName}}
		}
	}

	for _, name := range g.Outputs {
		spec.Outputs = append(spec.Outputs, layers.NodeRef{Layer: name})
	}
	if err := spec.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid functional model")
	}
	return spec, nil
}
