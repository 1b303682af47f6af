package layers

import (
	"sort"

	"github.com/tsawler/go-keras/marshal"
	"github.com/tsawler/go-keras/shape"
)

// tuple returns nil for an unset (zero) tuple so it is left out of the call
func tuple(t shape.Tuple2) interface{} {
	if t.Item1 == 0 && t.Item2 == 0 {
		return nil
	}
	return t
}

func optionalInt(n int) interface{} {
	if n == 0 {
		return nil
	}
	return n
}

func optionalLayer(l Layer) interface{} {
	if l == nil {
		return nil
	}
	return l
}

// Params returns the InputLayer constructor arguments
func (l *InputLayer) Params() *marshal.Params {
	p := marshal.NewParams()
	if len(l.InputShape) > 0 {
		p.Set("input_shape", shape.New(l.InputShape...))
	} else {
		p.Set("input_shape", nil)
	}
	return p.Set("dtype", l.Dtype).Set("sparse", l.Sparse).Set("name", l.Name)
}

// Params returns the Dense constructor arguments
func (l *Dense) Params() *marshal.Params {
	p := marshal.NewParams().
		Set("units", l.Units).
		Set("activation", l.Activation).
		Set("use_bias", l.UseBias).
		Set("kernel_initializer", l.KernelInitializer).
		Set("bias_initializer", l.BiasInitializer)
	if l.KernelRegularizer != nil {
		p.Set("kernel_regularizer", l.KernelRegularizer)
	}
	if l.BiasRegularizer != nil {
		p.Set("bias_regularizer", l.BiasRegularizer)
	}
	if l.KernelConstraint != nil {
		p.Set("kernel_constraint", l.KernelConstraint)
	}
	return l.appendTo(p)
}

// Params returns the Conv2D constructor arguments
func (l *Conv2D) Params() *marshal.Params {
	return l.appendTo(marshal.NewParams().
		Set("filters", l.Filters).
		Set("kernel_size", tuple(l.KernelSize)).
		Set("strides", tuple(l.Strides)).
		Set("padding", l.Padding).
		Set("data_format", l.DataFormat).
		Set("dilation_rate", tuple(l.DilationRate)).
		Set("activation", l.Activation).
		Set("use_bias", l.UseBias))
}

// Params returns the Conv2DTranspose constructor arguments
func (l *Conv2DTranspose) Params() *marshal.Params {
	return l.appendTo(marshal.NewParams().
		Set("filters", l.Filters).
		Set("kernel_size", tuple(l.KernelSize)).
		Set("strides", tuple(l.Strides)).
		Set("padding", l.Padding).
		Set("data_format", l.DataFormat).
		Set("dilation_rate", tuple(l.DilationRate)).
		Set("activation", l.Activation).
		Set("use_bias", l.UseBias))
}

// Params returns the MaxPooling2D constructor arguments
func (l *MaxPooling2D) Params() *marshal.Params {
	return l.appendTo(marshal.NewParams().
		Set("pool_size", tuple(l.PoolSize)).
		Set("strides", tuple(l.Strides)).
		Set("padding", l.Padding).
		Set("data_format", l.DataFormat))
}

// Params returns the AveragePooling2D constructor arguments
func (l *AveragePooling2D) Params() *marshal.Params {
	return l.appendTo(marshal.NewParams().
		Set("pool_size", tuple(l.PoolSize)).
		Set("strides", tuple(l.Strides)).
		Set("padding", l.Padding).
		Set("data_format", l.DataFormat))
}

// Params returns the GRU constructor arguments
func (l *GRU) Params() *marshal.Params {
	return l.appendTo(marshal.NewParams().
		Set("units", l.Units).
		Set("activation", l.Activation).
		Set("recurrent_activation", l.RecurrentActivation).
		Set("dropout", l.Dropout).
		Set("recurrent_dropout", l.RecurrentDropout).
		Set("return_sequences", l.ReturnSequences).
		Set("go_backwards", l.GoBackwards))
}

// Params returns the LSTM constructor arguments
func (l *LSTM) Params() *marshal.Params {
	return l.appendTo(marshal.NewParams().
		Set("units", l.Units).
		Set("activation", l.Activation).
		Set("recurrent_activation", l.RecurrentActivation).
		Set("dropout", l.Dropout).
		Set("recurrent_dropout", l.RecurrentDropout).
		Set("return_sequences", l.ReturnSequences).
		Set("go_backwards", l.GoBackwards))
}

// Params returns the ReLU constructor arguments
func (l *ReLU) Params() *marshal.Params {
	var maxValue interface{}
	if l.MaxValue != nil {
		maxValue = *l.MaxValue
	}
	return l.appendTo(marshal.NewParams().
		Set("max_value", maxValue).
		Set("negative_slope", l.NegativeSlope).
		Set("threshold", l.Threshold))
}

// Params returns the LeakyReLU constructor arguments
func (l *LeakyReLU) Params() *marshal.Params {
	return l.appendTo(marshal.NewParams().Set("alpha", l.Alpha))
}

// Params returns the Softmax constructor arguments
func (l *Softmax) Params() *marshal.Params {
	return l.appendTo(marshal.NewParams().Set("axis", l.Axis))
}

// Params returns the ELU constructor arguments
func (l *ELU) Params() *marshal.Params {
	return l.appendTo(marshal.NewParams().Set("alpha", l.Alpha))
}

// Params returns the Activation constructor arguments
func (l *Activation) Params() *marshal.Params {
	return l.appendTo(marshal.NewParams().Set("activation", l.Activation))
}

// Params returns the Dropout constructor arguments
func (l *Dropout) Params() *marshal.Params {
	return l.appendTo(marshal.NewParams().Set("rate", l.Rate))
}

// Params returns the Flatten constructor arguments
func (l *Flatten) Params() *marshal.Params {
	return l.appendTo(marshal.NewParams().Set("data_format", l.DataFormat))
}

// Params returns the Reshape constructor arguments
func (l *Reshape) Params() *marshal.Params {
	return l.appendTo(marshal.NewParams().Set("target_shape", shape.New(l.TargetShape...)))
}

// Params returns the BatchNormalization constructor arguments
func (l *BatchNormalization) Params() *marshal.Params {
	return l.appendTo(marshal.NewParams().
		Set("axis", l.Axis).
		Set("momentum", l.Momentum).
		Set("epsilon", l.Epsilon).
		Set("center", l.Center).
		Set("scale", l.Scale))
}

// Params returns the Embedding constructor arguments
func (l *Embedding) Params() *marshal.Params {
	return l.appendTo(marshal.NewParams().
		Set("input_dim", l.InputDim).
		Set("output_dim", l.OutputDim).
		Set("input_length", optionalInt(l.InputLength)))
}

// Params returns the Bidirectional constructor arguments. The wrapped layer
// is serialized as a config; the runtime replaces it with a live layer.
func (l *Bidirectional) Params() *marshal.Params {
	return l.appendTo(marshal.NewParams().
		Set("layer", optionalLayer(l.Layer)).
		Set("merge_mode", l.MergeMode))
}

// Params returns the TimeDistributed constructor arguments
func (l *TimeDistributed) Params() *marshal.Params {
	return l.appendTo(marshal.NewParams().Set("layer", optionalLayer(l.Layer)))
}

// Params returns the Add constructor arguments. Add takes no positional arguments.
func (l *Add) Params() *marshal.Params {
	return l.appendTo(marshal.NewKeywordParams())
}

// Params returns the Concatenate constructor arguments
func (l *Concatenate) Params() *marshal.Params {
	return l.appendTo(marshal.NewParams().Set("axis", l.Axis))
}

// Params returns the stored config as keyword arguments in key order
func (l *Unknown) Params() *marshal.Params {
	p := marshal.NewKeywordParams()
	keys := make([]string, 0, len(l.Config))
	for k := range l.Config {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k == "name" || k == "input_shape" || k == "batch_input_shape" {
			continue
		}
		p.Set(k, l.Config[k])
	}
	return l.appendTo(p)
}
