package layers

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/tsawler/go-keras/shape"
)

// ModelSpec is a Sequential model as an ordered list of layer records
type ModelSpec struct {
	Name   string
	Layers []Layer

	// InputShape excludes the batch dimension. When empty the shape declared
	// on the first layer is used.
	InputShape []int

	// Compiled model information
	Shapes          []LayerShape
	OutputShape     []int
	TotalParameters int64
	Compiled        bool
}

// LayerShape is the shape information computed for one layer
type LayerShape struct {
	InputShape      []int
	OutputShape     []int
	ParameterShapes [][]int
	ParameterCount  int64

	// Err is set by Trace when the output shape could not be inferred. The
	// output shape then repeats the input shape.
	Err error
}

// ModelBuilder helps construct Sequential models
type ModelBuilder struct {
	name       string
	layers     []Layer
	inputShape []int
}

// NewModelBuilder creates a new model builder. inputShape excludes the batch
// dimension and may be nil when the first layer declares its input shape.
func NewModelBuilder(inputShape []int) *ModelBuilder {
	return &ModelBuilder{
		layers:     make([]Layer, 0),
		inputShape: inputShape,
	}
}

// Named sets the model name
func (mb *ModelBuilder) Named(name string) *ModelBuilder {
	mb.name = name
	return mb
}

// AddLayer adds a layer to the model
func (mb *ModelBuilder) AddLayer(layers ...Layer) *ModelBuilder {
	mb.layers = append(mb.layers, layers...)
	return mb
}

// AddDense adds a dense layer to the model
func (mb *ModelBuilder) AddDense(units int, activation, name string) *ModelBuilder {
	l := NewDense(units, activation)
	l.Name = name
	return mb.AddLayer(l)
}

// AddConv2D adds a square kernel Conv2D layer to the model
func (mb *ModelBuilder) AddConv2D(filters, kernelSize, stride int, padding, name string) *ModelBuilder {
	l := NewConv2D(filters, shape.Tuple2{Item1: kernelSize, Item2: kernelSize})
	l.Strides = shape.Tuple2{Item1: stride, Item2: stride}
	l.Padding = padding
	l.Name = name
	return mb.AddLayer(l)
}

// AddMaxPooling2D adds a square MaxPooling2D layer to the model
func (mb *ModelBuilder) AddMaxPooling2D(poolSize int, name string) *ModelBuilder {
	l := NewMaxPooling2D(shape.Tuple2{Item1: poolSize, Item2: poolSize})
	l.Name = name
	return mb.AddLayer(l)
}

// AddFlatten adds a Flatten layer to the model
func (mb *ModelBuilder) AddFlatten(name string) *ModelBuilder {
	return mb.AddLayer(&Flatten{Common: Common{Name: name}})
}

// AddDropout adds a Dropout layer to the model
// rate: fraction of the inputs to drop (0.0 = no dropout)
func (mb *ModelBuilder) AddDropout(rate float64, name string) *ModelBuilder {
	return mb.AddLayer(&Dropout{Common: Common{Name: name}, Rate: rate})
}

// AddActivation adds an Activation layer such as "sigmoid" or "tanh"
func (mb *ModelBuilder) AddActivation(activation, name string) *ModelBuilder {
	return mb.AddLayer(&Activation{Common: Common{Name: name}, Activation: activation})
}

// AddReLU adds a ReLU activation to the model
func (mb *ModelBuilder) AddReLU(name string) *ModelBuilder {
	return mb.AddLayer(&ReLU{Common: Common{Name: name}})
}

// AddLeakyReLU adds a Leaky ReLU activation to the model
// alpha: slope for negative input values (Keras default: 0.3)
func (mb *ModelBuilder) AddLeakyReLU(alpha float64, name string) *ModelBuilder {
	return mb.AddLayer(&LeakyReLU{Common: Common{Name: name}, Alpha: alpha})
}

// AddSoftmax adds a Softmax activation over the last axis
func (mb *ModelBuilder) AddSoftmax(name string) *ModelBuilder {
	l := NewSoftmax()
	l.Name = name
	return mb.AddLayer(l)
}

// AddBatchNormalization adds a BatchNormalization layer with the Keras defaults
func (mb *ModelBuilder) AddBatchNormalization(name string) *ModelBuilder {
	l := NewBatchNormalization()
	l.Name = name
	return mb.AddLayer(l)
}

// AddGRU adds a GRU layer to the model
func (mb *ModelBuilder) AddGRU(units int, returnSequences bool, name string) *ModelBuilder {
	l := NewGRU(units)
	l.ReturnSequences = returnSequences
	l.Name = name
	return mb.AddLayer(l)
}

// AddLSTM adds an LSTM layer to the model
func (mb *ModelBuilder) AddLSTM(units int, returnSequences bool, name string) *ModelBuilder {
	l := NewLSTM(units)
	l.ReturnSequences = returnSequences
	l.Name = name
	return mb.AddLayer(l)
}

// Spec returns the uncompiled model
func (mb *ModelBuilder) Spec() *ModelSpec {
	spec := &ModelSpec{
		Name:       mb.name,
		Layers:     make([]Layer, len(mb.layers)),
		InputShape: mb.inputShape,
	}
	copy(spec.Layers, mb.layers)
	return spec
}

// Compile computes the shapes and parameter counts of every layer
func (mb *ModelBuilder) Compile() (*ModelSpec, error) {
	return mb.Spec().Compile()
}

// ResolvedInputShape returns the model input shape: InputShape, else the
// shape declared by the first layer.
func (ms *ModelSpec) ResolvedInputShape() []int {
	if len(ms.InputShape) > 0 {
		return ms.InputShape
	}
	if len(ms.Layers) > 0 {
		return ms.Layers[0].DeclaredInputShape()
	}
	return nil
}

// Compile computes the shapes and parameter counts of every layer. It fails
// on the first layer whose output shape cannot be computed.
func (ms *ModelSpec) Compile() (*ModelSpec, error) {
	if len(ms.Layers) == 0 {
		return nil, errors.New("cannot compile empty model")
	}
	input := ms.ResolvedInputShape()
	if len(input) == 0 {
		return nil, errors.New("model has no input shape")
	}

	shapes := ms.trace(input)
	total := int64(0)
	for i, s := range shapes {
		if s.Err != nil {
			return nil, errors.Wrapf(s.Err, "failed to compute layer %d (%s) info", i, layerLabel(ms.Layers[i]))
		}
		total += s.ParameterCount
	}

	compiled := *ms
	compiled.InputShape = input
	compiled.Shapes = shapes
	compiled.OutputShape = shapes[len(shapes)-1].OutputShape
	compiled.TotalParameters = total
	compiled.Compiled = true
	return &compiled, nil
}

// Trace computes per layer shapes without stopping at layers whose shape
// cannot be inferred. Those layers carry Err and pass their input through.
func (ms *ModelSpec) Trace() []LayerShape {
	return ms.trace(ms.ResolvedInputShape())
}

// InferShape returns the output shape of l applied to an input of shape in
func InferShape(l Layer, in []int) ([]int, error) {
	out, _, _, err := computeLayerInfo(l, in)
	return out, err
}

func (ms *ModelSpec) trace(input []int) []LayerShape {
	shapes := make([]LayerShape, len(ms.Layers))
	current := input

	for i, l := range ms.Layers {
		s := LayerShape{InputShape: copyDims(current)}
		out, params, count, err := computeLayerInfo(l, current)
		if err != nil {
			s.Err = err
			out = copyDims(current)
		}
		s.OutputShape = out
		s.ParameterShapes = params
		s.ParameterCount = count
		shapes[i] = s
		current = out
	}
	return shapes
}

func layerLabel(l Layer) string {
	if l.LayerName() != "" {
		return l.LayerName()
	}
	return l.ClassName()
}

func copyDims(dims []int) []int {
	if dims == nil {
		return nil
	}
	out := make([]int, len(dims))
	copy(out, dims)
	return out
}

// computeLayerInfo computes output shape and parameter information for a layer
func computeLayerInfo(l Layer, in []int) ([]int, [][]int, int64, error) {
	switch x := l.(type) {
	case *InputLayer:
		if len(x.InputShape) > 0 {
			return copyDims(x.InputShape), nil, 0, nil
		}
		return copyDims(in), nil, 0, nil
	case *Dense:
		return computeDenseInfo(x, in)
	case *Conv2D:
		return computeConvInfo(in, x.Filters, x.KernelSize, x.Strides, x.DilationRate, x.Padding, x.DataFormat, x.UseBias, false)
	case *Conv2DTranspose:
		return computeConvInfo(in, x.Filters, x.KernelSize, x.Strides, x.DilationRate, x.Padding, x.DataFormat, x.UseBias, true)
	case *MaxPooling2D:
		return computePoolingInfo(in, x.PoolSize, x.Strides, x.Padding, x.DataFormat)
	case *AveragePooling2D:
		return computePoolingInfo(in, x.PoolSize, x.Strides, x.Padding, x.DataFormat)
	case *GRU:
		return computeRecurrentInfo(in, x.Units, 3, 2, x.ReturnSequences)
	case *LSTM:
		return computeRecurrentInfo(in, x.Units, 4, 1, x.ReturnSequences)
	case *Bidirectional:
		return computeBidirectionalInfo(x, in)
	case *TimeDistributed:
		return computeTimeDistributedInfo(x, in)
	case *Flatten:
		return []int{product(in)}, nil, 0, nil
	case *Reshape:
		return computeReshapeInfo(x, in)
	case *Embedding:
		return computeEmbeddingInfo(x, in)
	case *BatchNormalization:
		return computeBatchNormInfo(x, in)
	case *ReLU, *LeakyReLU, *Softmax, *ELU, *Activation, *Dropout, *Add, *Concatenate:
		return copyDims(in), [][]int{}, 0, nil
	case *Unknown:
		return nil, nil, 0, errors.Wrapf(ErrUnknownLayer, "%s", x.Class)
	}
	return nil, nil, 0, errors.Errorf("unsupported layer type: %s", l.Kind().String())
}

// computeDenseInfo computes dense layer information. Dense applies to the
// last axis only.
func computeDenseInfo(l *Dense, in []int) ([]int, [][]int, int64, error) {
	if len(in) < 1 {
		return nil, nil, 0, errors.New("dense layer requires at least 1D input")
	}
	if l.Units <= 0 {
		return nil, nil, 0, errors.Errorf("invalid units: %d", l.Units)
	}

	inputSize := in[len(in)-1]
	out := append(copyDims(in[:len(in)-1]), l.Units)

	params := [][]int{{inputSize, l.Units}}
	count := int64(inputSize * l.Units)
	if l.UseBias {
		params = append(params, []int{l.Units})
		count += int64(l.Units)
	}
	return out, params, count, nil
}

// spatialAxes returns the height, width and channel indices of a rank 3
// image shape for the given data format
func spatialAxes(dataFormat string) (h, w, c int) {
	if dataFormat == ChannelsFirst {
		return 1, 2, 0
	}
	return 0, 1, 2
}

// computeConvInfo computes Conv2D and Conv2DTranspose layer information
func computeConvInfo(in []int, filters int, kernel, strides, dilation shape.Tuple2, padding, dataFormat string, useBias, transpose bool) ([]int, [][]int, int64, error) {
	if len(in) != 3 {
		return nil, nil, 0, errors.Errorf("convolution requires 3D input, got %v", in)
	}
	if filters <= 0 || kernel.Item1 <= 0 || kernel.Item2 <= 0 {
		return nil, nil, 0, errors.Errorf("invalid convolution: filters %d kernel %v", filters, kernel)
	}
	strides = orOnes(strides)
	dilation = orOnes(dilation)

	h, w, c := spatialAxes(dataFormat)
	var outH, outW int
	var err error
	if transpose {
		outH = deconvLength(in[h], kernel.Item1, strides.Item1, padding)
		outW = deconvLength(in[w], kernel.Item2, strides.Item2, padding)
	} else {
		if outH, err = convLength(in[h], kernel.Item1, strides.Item1, dilation.Item1, padding); err != nil {
			return nil, nil, 0, err
		}
		if outW, err = convLength(in[w], kernel.Item2, strides.Item2, dilation.Item2, padding); err != nil {
			return nil, nil, 0, err
		}
	}

	out := make([]int, 3)
	out[h], out[w], out[c] = outH, outW, filters

	inputChannels := in[c]
	weight := []int{kernel.Item1, kernel.Item2, inputChannels, filters}
	if transpose {
		weight = []int{kernel.Item1, kernel.Item2, filters, inputChannels}
	}
	params := [][]int{weight}
	count := int64(kernel.Item1 * kernel.Item2 * inputChannels * filters)
	if useBias {
		params = append(params, []int{filters})
		count += int64(filters)
	}
	return out, params, count, nil
}

func orOnes(t shape.Tuple2) shape.Tuple2 {
	if t.Item1 <= 0 {
		t.Item1 = 1
	}
	if t.Item2 <= 0 {
		t.Item2 = 1
	}
	return t
}

func convLength(length, kernel, stride, dilation int, padding string) (int, error) {
	if length == shape.Unknown {
		return shape.Unknown, nil
	}
	effective := (kernel-1)*dilation + 1
	switch padding {
	case PaddingSame:
		return (length + stride - 1) / stride, nil
	case PaddingValid, "":
		if length < effective {
			return 0, errors.Errorf("kernel %d larger than input %d", effective, length)
		}
		return shape.ConvOutputSize(length, effective, stride, 0), nil
	}
	return 0, errors.Errorf("unsupported padding %q", padding)
}

func deconvLength(length, kernel, stride int, padding string) int {
	if length == shape.Unknown {
		return shape.Unknown
	}
	if padding == PaddingSame {
		return length * stride
	}
	extra := kernel - stride
	if extra < 0 {
		extra = 0
	}
	return length*stride + extra
}

// computePoolingInfo computes pooling layer information (no parameters)
func computePoolingInfo(in []int, pool, strides shape.Tuple2, padding, dataFormat string) ([]int, [][]int, int64, error) {
	if len(in) != 3 {
		return nil, nil, 0, errors.Errorf("pooling requires 3D input, got %v", in)
	}
	if strides.Item1 <= 0 || strides.Item2 <= 0 {
		strides = pool
	}

	h, w, c := spatialAxes(dataFormat)
	outH, err := convLength(in[h], pool.Item1, strides.Item1, 1, padding)
	if err != nil {
		return nil, nil, 0, err
	}
	outW, err := convLength(in[w], pool.Item2, strides.Item2, 1, padding)
	if err != nil {
		return nil, nil, 0, err
	}

	out := make([]int, 3)
	out[h], out[w], out[c] = outH, outW, in[c]
	return out, [][]int{}, 0, nil
}

// computeRecurrentInfo computes GRU and LSTM information. gates is 3 for GRU
// and 4 for LSTM; biasRows is 2 for a GRU with reset_after.
func computeRecurrentInfo(in []int, units, gates, biasRows int, returnSequences bool) ([]int, [][]int, int64, error) {
	if len(in) != 2 {
		return nil, nil, 0, errors.Errorf("recurrent layer requires 2D input [timesteps, features], got %v", in)
	}
	if units <= 0 {
		return nil, nil, 0, errors.Errorf("invalid units: %d", units)
	}

	features := in[1]
	out := []int{units}
	if returnSequences {
		out = []int{in[0], units}
	}

	params := [][]int{
		{features, gates * units},
		{units, gates * units},
		{biasRows, gates * units},
	}
	if biasRows == 1 {
		params[2] = []int{gates * units}
	}
	count := int64(gates * units * (features + units + biasRows))
	return out, params, count, nil
}

func computeBidirectionalInfo(l *Bidirectional, in []int) ([]int, [][]int, int64, error) {
	if l.Layer == nil {
		return nil, nil, 0, errors.New("bidirectional layer has no wrapped layer")
	}
	out, params, count, err := computeLayerInfo(l.Layer, in)
	if err != nil {
		return nil, nil, 0, err
	}
	if l.MergeMode == "" || l.MergeMode == "concat" {
		out[len(out)-1] *= 2
	}
	return out, append(params, params...), 2 * count, nil
}

func computeTimeDistributedInfo(l *TimeDistributed, in []int) ([]int, [][]int, int64, error) {
	if l.Layer == nil {
		return nil, nil, 0, errors.New("time distributed layer has no wrapped layer")
	}
	if len(in) < 2 {
		return nil, nil, 0, errors.Errorf("time distributed layer requires at least 2D input, got %v", in)
	}
	out, params, count, err := computeLayerInfo(l.Layer, in[1:])
	if err != nil {
		return nil, nil, 0, err
	}
	return append([]int{in[0]}, out...), params, count, nil
}

func computeReshapeInfo(l *Reshape, in []int) ([]int, [][]int, int64, error) {
	out := copyDims(l.TargetShape)
	total := product(in)
	infer := -1
	known := 1
	for i, d := range out {
		if d == shape.Unknown {
			if infer >= 0 {
				return nil, nil, 0, errors.New("reshape can infer at most one dimension")
			}
			infer = i
			continue
		}
		known *= d
	}
	if infer >= 0 {
		if total == shape.Unknown || known == 0 {
			out[infer] = shape.Unknown
		} else {
			out[infer] = total / known
		}
	} else if total != shape.Unknown && known != total {
		return nil, nil, 0, errors.Errorf("cannot reshape %v to %v", in, l.TargetShape)
	}
	return out, [][]int{}, 0, nil
}

func computeEmbeddingInfo(l *Embedding, in []int) ([]int, [][]int, int64, error) {
	if l.InputDim <= 0 || l.OutputDim <= 0 {
		return nil, nil, 0, errors.Errorf("invalid embedding %dx%d", l.InputDim, l.OutputDim)
	}
	if len(in) == 0 && l.InputLength > 0 {
		in = []int{l.InputLength}
	}
	out := append(copyDims(in), l.OutputDim)
	return out, [][]int{{l.InputDim, l.OutputDim}}, int64(l.InputDim * l.OutputDim), nil
}

// computeBatchNormInfo computes batch normalization layer information. The
// moving mean and variance are counted the way Keras reports them.
func computeBatchNormInfo(l *BatchNormalization, in []int) ([]int, [][]int, int64, error) {
	if len(in) < 1 {
		return nil, nil, 0, errors.New("batch norm layer requires at least 1D input")
	}
	axis := l.Axis
	if axis < 0 {
		axis += len(in) + 1
	}
	// axis counts the batch dimension
	axis--
	if axis < 0 || axis >= len(in) {
		return nil, nil, 0, errors.Errorf("axis %d out of range for input %v", l.Axis, in)
	}

	features := in[axis]
	var params [][]int
	if l.Center {
		params = append(params, []int{features})
	}
	if l.Scale {
		params = append(params, []int{features})
	}
	params = append(params, []int{features}, []int{features})
	return copyDims(in), params, int64(len(params) * features), nil
}

func product(dims []int) int {
	p := 1
	for _, d := range dims {
		if d == shape.Unknown {
			return shape.Unknown
		}
		p *= d
	}
	return p
}

// Summary returns a human-readable model summary
func (ms *ModelSpec) Summary() string {
	if !ms.Compiled {
		return "Model not compiled"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Model: %q\n", ms.Name)
	fmt.Fprintf(&b, "Input Shape: %v\n", shape.New(ms.InputShape...))
	fmt.Fprintf(&b, "Output Shape: %v\n", shape.New(ms.OutputShape...))
	fmt.Fprintf(&b, "Total Parameters: %d\n", ms.TotalParameters)
	fmt.Fprintf(&b, "Layers: %d\n\n", len(ms.Layers))

	for i, l := range ms.Layers {
		s := ms.Shapes[i]
		fmt.Fprintf(&b, "Layer %d: %s (%s)\n", i+1, l.LayerName(), l.ClassName())
		fmt.Fprintf(&b, "  Input:  %v\n", shape.New(s.InputShape...))
		fmt.Fprintf(&b, "  Output: %v\n", shape.New(s.OutputShape...))
		fmt.Fprintf(&b, "  Params: %d\n\n", s.ParameterCount)
	}
	return b.String()
}
