// Package layers holds typed configuration records for Keras layers.
//
// Each record is pure configuration. Params returns the ordered constructor
// arguments, with the leading Keras positional argument first, so a record can
// be sent to the runtime with marshal.Instantiate or written into topology JSON.
// The set of records is closed: Layer has an unexported method, and classes
// this package does not model decode to *Unknown.
package layers

import (
	"github.com/tsawler/go-keras/marshal"
	"github.com/tsawler/go-keras/regularizers"
	"github.com/tsawler/go-keras/shape"
)

// LayerType identifies the kind of a layer record
type LayerType int

const (
	TypeUnknown LayerType = iota
	TypeInputLayer
	TypeDense
	TypeConv2D
	TypeConv2DTranspose
	TypeMaxPooling2D
	TypeAveragePooling2D
	TypeGRU
	TypeLSTM
	TypeReLU
	TypeLeakyReLU
	TypeSoftmax
	TypeELU
	TypeActivation
	TypeDropout
	TypeFlatten
	TypeReshape
	TypeBatchNormalization
	TypeEmbedding
	TypeBidirectional
	TypeTimeDistributed
	TypeAdd
	TypeConcatenate
)

// String returns the Keras class name of the layer type
func (lt LayerType) String() string {
	switch lt {
	case TypeInputLayer:
		return "InputLayer"
	case TypeDense:
		return "Dense"
	case TypeConv2D:
		return "Conv2D"
	case TypeConv2DTranspose:
		return "Conv2DTranspose"
	case TypeMaxPooling2D:
		return "MaxPooling2D"
	case TypeAveragePooling2D:
		return "AveragePooling2D"
	case TypeGRU:
		return "GRU"
	case TypeLSTM:
		return "LSTM"
	case TypeReLU:
		return "ReLU"
	case TypeLeakyReLU:
		return "LeakyReLU"
	case TypeSoftmax:
		return "Softmax"
	case TypeELU:
		return "ELU"
	case TypeActivation:
		return "Activation"
	case TypeDropout:
		return "Dropout"
	case TypeFlatten:
		return "Flatten"
	case TypeReshape:
		return "Reshape"
	case TypeBatchNormalization:
		return "BatchNormalization"
	case TypeEmbedding:
		return "Embedding"
	case TypeBidirectional:
		return "Bidirectional"
	case TypeTimeDistributed:
		return "TimeDistributed"
	case TypeAdd:
		return "Add"
	case TypeConcatenate:
		return "Concatenate"
	default:
		return "Unknown"
	}
}

// Padding modes and data formats understood by Keras
const (
	PaddingValid = "valid"
	PaddingSame  = "same"

	ChannelsFirst = "channels_first"
	ChannelsLast  = "channels_last"
)

// Layer is implemented by every layer record in this package
type Layer interface {
	marshal.Config
	Kind() LayerType
	LayerName() string
	DeclaredInputShape() []int
	layer()
}

// Wrapper is a layer that wraps another layer, such as Bidirectional.
// The wrapped layer must be created in the runtime before the wrapper.
type Wrapper interface {
	Layer
	Inner() Layer
}

// Common holds the arguments shared by all layers. InputShape excludes the
// batch dimension and is only set on the first layer of a model.
type Common struct {
	Name       string
	InputShape []int
}

// LayerName returns the layer name, empty when Keras should choose one
func (c Common) LayerName() string { return c.Name }

// DeclaredInputShape returns the input shape declared on the layer
func (c Common) DeclaredInputShape() []int { return c.InputShape }

func (c Common) appendTo(p *marshal.Params) *marshal.Params {
	p.Set("name", c.Name)
	if len(c.InputShape) > 0 {
		p.Set("input_shape", shape.New(c.InputShape...))
	}
	return p
}

// InputLayer is the entry point of a functional model
type InputLayer struct {
	Common
	Dtype  string
	Sparse bool
}

// Dense is a fully connected layer
type Dense struct {
	Common
	Units             int
	Activation        string
	UseBias           bool
	KernelInitializer string
	BiasInitializer   string
	KernelRegularizer regularizers.Regularizer
	BiasRegularizer   regularizers.Regularizer
	KernelConstraint  regularizers.Constraint
}

// Conv2D is a 2D convolution
type Conv2D struct {
	Common
	Filters      int
	KernelSize   shape.Tuple2
	Strides      shape.Tuple2
	Padding      string
	DataFormat   string
	DilationRate shape.Tuple2
	Activation   string
	UseBias      bool
}

// Conv2DTranspose is a transposed 2D convolution
type Conv2DTranspose struct {
	Common
	Filters      int
	KernelSize   shape.Tuple2
	Strides      shape.Tuple2
	Padding      string
	DataFormat   string
	DilationRate shape.Tuple2
	Activation   string
	UseBias      bool
}

// MaxPooling2D is 2D max pooling
type MaxPooling2D struct {
	Common
	PoolSize   shape.Tuple2
	Strides    shape.Tuple2
	Padding    string
	DataFormat string
}

// AveragePooling2D is 2D average pooling
type AveragePooling2D struct {
	Common
	PoolSize   shape.Tuple2
	Strides    shape.Tuple2
	Padding    string
	DataFormat string
}

// GRU is a gated recurrent unit layer
type GRU struct {
	Common
	Units               int
	Activation          string
	RecurrentActivation string
	Dropout             float64
	RecurrentDropout    float64
	ReturnSequences     bool
	GoBackwards         bool
}

// LSTM is a long short-term memory layer
type LSTM struct {
	Common
	Units               int
	Activation          string
	RecurrentActivation string
	Dropout             float64
	RecurrentDropout    float64
	ReturnSequences     bool
	GoBackwards         bool
}

// ReLU is the rectified linear activation layer. A nil MaxValue means unbounded.
type ReLU struct {
	Common
	MaxValue      *float64
	NegativeSlope float64
	Threshold     float64
}

// LeakyReLU is the leaky rectified linear activation layer
type LeakyReLU struct {
	Common
	Alpha float64
}

// Softmax is the softmax activation layer
type Softmax struct {
	Common
	Axis int
}

// ELU is the exponential linear unit activation layer
type ELU struct {
	Common
	Alpha float64
}

// Activation applies a named activation function such as "sigmoid" or "tanh"
type Activation struct {
	Common
	Activation string
}

// Dropout randomly zeroes inputs at the given rate during training
type Dropout struct {
	Common
	Rate float64
}

// Flatten flattens the input without affecting the batch size
type Flatten struct {
	Common
	DataFormat string
}

// Reshape reshapes the input to TargetShape
type Reshape struct {
	Common
	TargetShape []int
}

// BatchNormalization normalizes its input along Axis
type BatchNormalization struct {
	Common
	Axis     int
	Momentum float64
	Epsilon  float64
	Center   bool
	Scale    bool
}

// Embedding maps integer indices to dense vectors
type Embedding struct {
	Common
	InputDim    int
	OutputDim   int
	InputLength int
}

// Bidirectional runs a recurrent layer in both directions
type Bidirectional struct {
	Common
	Layer     Layer
	MergeMode string
}

// TimeDistributed applies a layer to every temporal slice of its input
type TimeDistributed struct {
	Common
	Layer Layer
}

// Add sums a list of inputs of the same shape
type Add struct {
	Common
}

// Concatenate joins a list of inputs along Axis
type Concatenate struct {
	Common
	Axis int
}

// Unknown carries a layer class that has no record in this package
type Unknown struct {
	Common
	Class  string
	Config map[string]interface{}
}

// NewDense creates a Dense record with the Keras defaults
func NewDense(units int, activation string) *Dense {
	return &Dense{Units: units, Activation: activation, UseBias: true}
}

// NewConv2D creates a Conv2D record with stride 1, no dilation and "valid" padding
func NewConv2D(filters int, kernel shape.Tuple2) *Conv2D {
	return &Conv2D{
		Filters:      filters,
		KernelSize:   kernel,
		Strides:      shape.Tuple2{Item1: 1, Item2: 1},
		Padding:      PaddingValid,
		DilationRate: shape.Tuple2{Item1: 1, Item2: 1},
		UseBias:      true,
	}
}

// NewMaxPooling2D creates a MaxPooling2D record whose strides default to the pool size
func NewMaxPooling2D(pool shape.Tuple2) *MaxPooling2D {
	return &MaxPooling2D{PoolSize: pool, Strides: pool, Padding: PaddingValid}
}

// NewGRU creates a GRU record with the Keras default activations
func NewGRU(units int) *GRU {
	return &GRU{Units: units, Activation: "tanh", RecurrentActivation: "sigmoid"}
}

// NewLSTM creates an LSTM record with the Keras default activations
func NewLSTM(units int) *LSTM {
	return &LSTM{Units: units, Activation: "tanh", RecurrentActivation: "sigmoid"}
}

// NewLeakyReLU creates a LeakyReLU record with the Keras default slope of 0.3
func NewLeakyReLU() *LeakyReLU {
	return &LeakyReLU{Alpha: 0.3}
}

// NewSoftmax creates a Softmax record over the last axis
func NewSoftmax() *Softmax {
	return &Softmax{Axis: -1}
}

// NewBatchNormalization creates a BatchNormalization record with the Keras defaults
func NewBatchNormalization() *BatchNormalization {
	return &BatchNormalization{Axis: -1, Momentum: 0.99, Epsilon: 0.001, Center: true, Scale: true}
}

func (l *InputLayer) Kind() LayerType         { return TypeInputLayer }
func (l *Dense) Kind() LayerType              { return TypeDense }
func (l *Conv2D) Kind() LayerType             { return TypeConv2D }
func (l *Conv2DTranspose) Kind() LayerType    { return TypeConv2DTranspose }
func (l *MaxPooling2D) Kind() LayerType       { return TypeMaxPooling2D }
func (l *AveragePooling2D) Kind() LayerType   { return TypeAveragePooling2D }
func (l *GRU) Kind() LayerType                { return TypeGRU }
func (l *LSTM) Kind() LayerType               { return TypeLSTM }
func (l *ReLU) Kind() LayerType               { return TypeReLU }
func (l *LeakyReLU) Kind() LayerType          { return TypeLeakyReLU }
func (l *Softmax) Kind() LayerType            { return TypeSoftmax }
func (l *ELU) Kind() LayerType                { return TypeELU }
func (l *Activation) Kind() LayerType         { return TypeActivation }
func (l *Dropout) Kind() LayerType            { return TypeDropout }
func (l *Flatten) Kind() LayerType            { return TypeFlatten }
func (l *Reshape) Kind() LayerType            { return TypeReshape }
func (l *BatchNormalization) Kind() LayerType { return TypeBatchNormalization }
func (l *Embedding) Kind() LayerType          { return TypeEmbedding }
func (l *Bidirectional) Kind() LayerType      { return TypeBidirectional }
func (l *TimeDistributed) Kind() LayerType    { return TypeTimeDistributed }
func (l *Add) Kind() LayerType                { return TypeAdd }
func (l *Concatenate) Kind() LayerType        { return TypeConcatenate }
func (l *Unknown) Kind() LayerType            { return TypeUnknown }

func (l *InputLayer) ClassName() string         { return TypeInputLayer.String() }
func (l *Dense) ClassName() string              { return TypeDense.String() }
func (l *Conv2D) ClassName() string             { return TypeConv2D.String() }
func (l *Conv2DTranspose) ClassName() string    { return TypeConv2DTranspose.String() }
func (l *MaxPooling2D) ClassName() string       { return TypeMaxPooling2D.String() }
func (l *AveragePooling2D) ClassName() string   { return TypeAveragePooling2D.String() }
func (l *GRU) ClassName() string                { return TypeGRU.String() }
func (l *LSTM) ClassName() string               { return TypeLSTM.String() }
func (l *ReLU) ClassName() string               { return TypeReLU.String() }
func (l *LeakyReLU) ClassName() string          { return TypeLeakyReLU.String() }
func (l *Softmax) ClassName() string            { return TypeSoftmax.String() }
func (l *ELU) ClassName() string                { return TypeELU.String() }
func (l *Activation) ClassName() string         { return TypeActivation.String() }
func (l *Dropout) ClassName() string            { return TypeDropout.String() }
func (l *Flatten) ClassName() string            { return TypeFlatten.String() }
func (l *Reshape) ClassName() string            { return TypeReshape.String() }
func (l *BatchNormalization) ClassName() string { return TypeBatchNormalization.String() }
func (l *Embedding) ClassName() string          { return TypeEmbedding.String() }
func (l *Bidirectional) ClassName() string      { return TypeBidirectional.String() }
func (l *TimeDistributed) ClassName() string    { return TypeTimeDistributed.String() }
func (l *Add) ClassName() string                { return TypeAdd.String() }
func (l *Concatenate) ClassName() string        { return TypeConcatenate.String() }

// ClassName returns the original Keras class name
func (l *Unknown) ClassName() string { return l.Class }

func (*InputLayer) layer()         {}
func (*Dense) layer()              {}
func (*Conv2D) layer()             {}
func (*Conv2DTranspose) layer()    {}
func (*MaxPooling2D) layer()       {}
func (*AveragePooling2D) layer()   {}
func (*GRU) layer()                {}
func (*LSTM) layer()               {}
func (*ReLU) layer()               {}
func (*LeakyReLU) layer()          {}
func (*Softmax) layer()            {}
func (*ELU) layer()                {}
func (*Activation) layer()         {}
func (*Dropout) layer()            {}
func (*Flatten) layer()            {}
func (*Reshape) layer()            {}
func (*BatchNormalization) layer() {}
func (*Embedding) layer()          {}
func (*Bidirectional) layer()      {}
func (*TimeDistributed) layer()    {}
func (*Add) layer()                {}
func (*Concatenate) layer()        {}
func (*Unknown) layer()            {}

// Inner returns the wrapped layer
func (l *Bidirectional) Inner() Layer { return l.Layer }

// Inner returns the wrapped layer
func (l *TimeDistributed) Inner() Layer { return l.Layer }
