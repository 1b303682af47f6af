package layers

import (
	"github.com/pkg/errors"

	"github.com/tsawler/go-keras/regularizers"
	"github.com/tsawler/go-keras/shape"
)

// ErrUnknownLayer is returned where a layer class has no record and the
// operation cannot continue without one, such as shape inference.
var ErrUnknownLayer = errors.New("unknown layer class")

// Decode builds a layer record from a Keras class name and its config, as
// found in topology JSON or returned by get_config. Classes without a record
// decode to *Unknown; an error is only returned for malformed configs.
func Decode(className string, config map[string]interface{}) (Layer, error) {
	if config == nil {
		config = map[string]interface{}{}
	}
	common := Common{
		Name:       getStringParam(config, "name", ""),
		InputShape: inputShapeOf(config),
	}

	switch className {
	case "InputLayer":
		return &InputLayer{
			Common: common,
			Dtype:  getStringParam(config, "dtype", "float32"),
			Sparse: getBoolParam(config, "sparse", false),
		}, nil
	case "Dense":
		l := &Dense{
			Common:            common,
			Units:             getIntParam(config, "units", 0),
			Activation:        getStringParam(config, "activation", "linear"),
			UseBias:           getBoolParam(config, "use_bias", true),
			KernelInitializer: getStringParam(config, "kernel_initializer", ""),
			BiasInitializer:   getStringParam(config, "bias_initializer", ""),
		}
		if r, ok := getConfigParam(config, "kernel_regularizer").(regularizers.Regularizer); ok {
			l.KernelRegularizer = r
		}
		if r, ok := getConfigParam(config, "bias_regularizer").(regularizers.Regularizer); ok {
			l.BiasRegularizer = r
		}
		if c, ok := getConfigParam(config, "kernel_constraint").(regularizers.Constraint); ok {
			l.KernelConstraint = c
		}
		return l, nil
	case "Conv2D":
		return &Conv2D{
			Common:       common,
			Filters:      getIntParam(config, "filters", 0),
			KernelSize:   getTupleParam(config, "kernel_size", shape.Tuple2{}),
			Strides:      getTupleParam(config, "strides", shape.Tuple2{Item1: 1, Item2: 1}),
			Padding:      getStringParam(config, "padding", PaddingValid),
			DataFormat:   getStringParam(config, "data_format", ""),
			DilationRate: getTupleParam(config, "dilation_rate", shape.Tuple2{Item1: 1, Item2: 1}),
			Activation:   getStringParam(config, "activation", "linear"),
			UseBias:      getBoolParam(config, "use_bias", true),
		}, nil
	case "Conv2DTranspose":
		return &Conv2DTranspose{
			Common:       common,
			Filters:      getIntParam(config, "filters", 0),
			KernelSize:   getTupleParam(config, "kernel_size", shape.Tuple2{}),
			Strides:      getTupleParam(config, "strides", shape.Tuple2{Item1: 1, Item2: 1}),
			Padding:      getStringParam(config, "padding", PaddingValid),
			DataFormat:   getStringParam(config, "data_format", ""),
			DilationRate: getTupleParam(config, "dilation_rate", shape.Tuple2{Item1: 1, Item2: 1}),
			Activation:   getStringParam(config, "activation", "linear"),
			UseBias:      getBoolParam(config, "use_bias", true),
		}, nil
	case "MaxPooling2D", "MaxPool2D":
		pool := getTupleParam(config, "pool_size", shape.Tuple2{Item1: 2, Item2: 2})
		return &MaxPooling2D{
			Common:     common,
			PoolSize:   pool,
			Strides:    getTupleParam(config, "strides", pool),
			Padding:    getStringParam(config, "padding", PaddingValid),
			DataFormat: getStringParam(config, "data_format", ""),
		}, nil
	case "AveragePooling2D", "AvgPool2D":
		pool := getTupleParam(config, "pool_size", shape.Tuple2{Item1: 2, Item2: 2})
		return &AveragePooling2D{
			Common:     common,
			PoolSize:   pool,
			Strides:    getTupleParam(config, "strides", pool),
			Padding:    getStringParam(config, "padding", PaddingValid),
			DataFormat: getStringParam(config, "data_format", ""),
		}, nil
	case "GRU":
		return &GRU{
			Common:              common,
			Units:               getIntParam(config, "units", 0),
			Activation:          getStringParam(config, "activation", "tanh"),
			RecurrentActivation: getStringParam(config, "recurrent_activation", "sigmoid"),
			Dropout:             getFloatParam(config, "dropout", 0),
			RecurrentDropout:    getFloatParam(config, "recurrent_dropout", 0),
			ReturnSequences:     getBoolParam(config, "return_sequences", false),
			GoBackwards:         getBoolParam(config, "go_backwards", false),
		}, nil
	case "LSTM":
		return &LSTM{
			Common:              common,
			Units:               getIntParam(config, "units", 0),
			Activation:          getStringParam(config, "activation", "tanh"),
			RecurrentActivation: getStringParam(config, "recurrent_activation", "sigmoid"),
			Dropout:             getFloatParam(config, "dropout", 0),
			RecurrentDropout:    getFloatParam(config, "recurrent_dropout", 0),
			ReturnSequences:     getBoolParam(config, "return_sequences", false),
			GoBackwards:         getBoolParam(config, "go_backwards", false),
		}, nil
	case "ReLU":
		l := &ReLU{
			Common:        common,
			NegativeSlope: getFloatParam(config, "negative_slope", 0),
			Threshold:     getFloatParam(config, "threshold", 0),
		}
		if v, ok := config["max_value"].(float64); ok {
			l.MaxValue = &v
		}
		return l, nil
	case "LeakyReLU":
		alpha := getFloatParam(config, "alpha", 0.3)
		alpha = getFloatParam(config, "negative_slope", alpha)
		return &LeakyReLU{Common: common, Alpha: alpha}, nil
	case "Softmax":
		return &Softmax{Common: common, Axis: getIntParam(config, "axis", -1)}, nil
	case "ELU":
		return &ELU{Common: common, Alpha: getFloatParam(config, "alpha", 1.0)}, nil
	case "Activation":
		return &Activation{Common: common, Activation: getStringParam(config, "activation", "linear")}, nil
	case "Dropout":
		return &Dropout{Common: common, Rate: getFloatParam(config, "rate", 0)}, nil
	case "Flatten":
		return &Flatten{Common: common, DataFormat: getStringParam(config, "data_format", "")}, nil
	case "Reshape":
		return &Reshape{Common: common, TargetShape: getShapeParam(config, "target_shape")}, nil
	case "BatchNormalization":
		return &BatchNormalization{
			Common:   common,
			Axis:     getIntParam(config, "axis", -1),
			Momentum: getFloatParam(config, "momentum", 0.99),
			Epsilon:  getFloatParam(config, "epsilon", 0.001),
			Center:   getBoolParam(config, "center", true),
			Scale:    getBoolParam(config, "scale", true),
		}, nil
	case "Embedding":
		return &Embedding{
			Common:      common,
			InputDim:    getIntParam(config, "input_dim", 0),
			OutputDim:   getIntParam(config, "output_dim", 0),
			InputLength: getIntParam(config, "input_length", 0),
		}, nil
	case "Bidirectional":
		inner, err := decodeNested(config, "layer")
		if err != nil {
			return nil, errors.Wrapf(err, "Bidirectional %s", common.Name)
		}
		return &Bidirectional{
			Common:    common,
			Layer:     inner,
			MergeMode: getStringParam(config, "merge_mode", "concat"),
		}, nil
	case "TimeDistributed":
		inner, err := decodeNested(config, "layer")
		if err != nil {
			return nil, errors.Wrapf(err, "TimeDistributed %s", common.Name)
		}
		return &TimeDistributed{Common: common, Layer: inner}, nil
	case "Add":
		return &Add{Common: common}, nil
	case "Concatenate":
		return &Concatenate{Common: common, Axis: getIntParam(config, "axis", -1)}, nil
	}

	if className == "" {
		return nil, errors.New("layer config has no class name")
	}
	return &Unknown{Common: common, Class: className, Config: config}, nil
}

// decodeNested decodes a {"class_name", "config"} object stored under key
func decodeNested(config map[string]interface{}, key string) (Layer, error) {
	nested, ok := config[key].(map[string]interface{})
	if !ok {
		return nil, errors.Errorf("missing wrapped %s", key)
	}
	class, _ := nested["class_name"].(string)
	cfg, _ := nested["config"].(map[string]interface{})
	return Decode(class, cfg)
}

// inputShapeOf reads input_shape, or batch_input_shape without its batch dimension
func inputShapeOf(config map[string]interface{}) []int {
	if batch := getShapeParam(config, "batch_input_shape"); len(batch) > 1 {
		return batch[1:]
	}
	if batch := getShapeParam(config, "batch_shape"); len(batch) > 1 {
		return batch[1:]
	}
	return getShapeParam(config, "input_shape")
}

// Helper functions for parameter extraction. Values decoded from JSON arrive
// as float64, values set from Go keep their own type.

func getIntParam(params map[string]interface{}, key string, defaultValue int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case []interface{}:
		if len(v) == 1 {
			return getIntParam(map[string]interface{}{key: v[0]}, key, defaultValue)
		}
	}
	return defaultValue
}

func getFloatParam(params map[string]interface{}, key string, defaultValue float64) float64 {
	switch v := params[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	}
	return defaultValue
}

func getBoolParam(params map[string]interface{}, key string, defaultValue bool) bool {
	if v, ok := params[key].(bool); ok {
		return v
	}
	return defaultValue
}

func getStringParam(params map[string]interface{}, key string, defaultValue string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return defaultValue
}

// getTupleParam reads a 2-tuple written as a list, a tuple or a single integer
func getTupleParam(params map[string]interface{}, key string, defaultValue shape.Tuple2) shape.Tuple2 {
	switch v := params[key].(type) {
	case shape.Tuple2:
		return v
	case shape.Shape:
		return tupleFromDims(v.Dims, defaultValue)
	case []int:
		return tupleFromDims(v, defaultValue)
	case []interface{}:
		dims := make([]int, 0, len(v))
		for _, item := range v {
			n, ok := item.(float64)
			if !ok {
				return defaultValue
			}
			dims = append(dims, int(n))
		}
		return tupleFromDims(dims, defaultValue)
	case float64:
		return shape.Tuple2{Item1: int(v), Item2: int(v)}
	case int:
		return shape.Tuple2{Item1: v, Item2: v}
	}
	return defaultValue
}

func tupleFromDims(dims []int, defaultValue shape.Tuple2) shape.Tuple2 {
	switch len(dims) {
	case 1:
		return shape.Tuple2{Item1: dims[0], Item2: dims[0]}
	case 2:
		return shape.Tuple2{Item1: dims[0], Item2: dims[1]}
	}
	return defaultValue
}

// getShapeParam reads a shape; None dimensions become shape.Unknown
func getShapeParam(params map[string]interface{}, key string) []int {
	switch v := params[key].(type) {
	case shape.Shape:
		return v.Ints()
	case []int:
		out := make([]int, len(v))
		copy(out, v)
		return out
	case []interface{}:
		out := make([]int, len(v))
		for i, item := range v {
			n, ok := item.(float64)
			if !ok {
				out[i] = shape.Unknown
				continue
			}
			out[i] = int(n)
		}
		return out
	case float64:
		return []int{int(v)}
	}
	return nil
}

// getConfigParam decodes a serialized regularizer or constraint
func getConfigParam(params map[string]interface{}, key string) interface{} {
	nested, ok := params[key].(map[string]interface{})
	if !ok {
		return nil
	}
	class, _ := nested["class_name"].(string)
	cfg, _ := nested["config"].(map[string]interface{})
	if r, ok := regularizers.Decode(class, cfg); ok {
		return r
	}
	return nil
}
