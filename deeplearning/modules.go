package deeplearning

// Module is any layer or activation descriptor
type Module interface {
	module()
}

// Convolution2d is a 2D convolution
type Convolution2d struct {
	FeaturesIn  int
	FeaturesOut int
	KernelSize  Shape2d
	Stride      Shape2d
	Padding     Shape2d
	Dilation    Shape2d
}

// TransposedConvolution2d is a 2D transposed convolution. OutputSize is nil
// when the spatial output size is not known.
type TransposedConvolution2d struct {
	FeaturesIn  int
	FeaturesOut int
	KernelSize  Shape2d
	Stride      Shape2d
	Padding     Shape2d
	Dilation    Shape2d
	OutputSize  *Shape2d
}

// MaxPooling2d is 2D max pooling
type MaxPooling2d struct {
	KernelSize Shape2d
	Stride     Shape2d
	Padding    Shape2d
}

// AvgPooling2d is 2D average pooling
type AvgPooling2d struct {
	KernelSize Shape2d
	Stride     Shape2d
	Padding    Shape2d
}

// GRU is a gated recurrent unit layer
type GRU struct {
	InputSize      int
	HiddenSize     int
	NumberOfLayers int
	BatchFirst     bool
	Dropout        float64
	Bidirectional  bool
}

// LSTM is a long short-term memory layer
type LSTM struct {
	InputSize      int
	HiddenSize     int
	NumberOfLayers int
	BatchFirst     bool
	Dropout        float64
	Bidirectional  bool
}

// Linear is a fully connected layer
type Linear struct {
	FeaturesIn  int
	FeaturesOut int
	Bias        bool
}

// Dropout zeroes inputs with the given probability during training
type Dropout struct {
	Probability float64
}

// Flatten flattens everything but the batch dimension
type Flatten struct{}

// BatchNormalization normalizes over the feature dimension
type BatchNormalization struct {
	NumFeatures int
	Epsilon     float64
	Momentum    float64
}

// Embedding maps integer indices to dense vectors
type Embedding struct {
	NumEmbeddings int
	EmbeddingDim  int
}

// Concatenate joins its inputs along Dimension
type Concatenate struct {
	Dimension int
}

// Add sums its inputs
type Add struct{}

// ReLU activation
type ReLU struct{}

// LeakyReLU activation
type LeakyReLU struct {
	NegativeSlope float64
}

// Softmax activation over Dimension
type Softmax struct {
	Dimension int
}

// Sigmoid activation
type Sigmoid struct{}

// Tanh activation
type Tanh struct{}

func (*Convolution2d) module()           {}
func (*TransposedConvolution2d) module() {}
func (*MaxPooling2d) module()            {}
func (*AvgPooling2d) module()            {}
func (*GRU) module()                     {}
func (*LSTM) module()                    {}
func (*Linear) module()                  {}
func (*Dropout) module()                 {}
func (*Flatten) module()                 {}
func (*BatchNormalization) module()      {}
func (*Embedding) module()               {}
func (*Concatenate) module()             {}
func (*Add) module()                     {}
func (*ReLU) module()                    {}
func (*LeakyReLU) module()               {}
func (*Softmax) module()                 {}
func (*Sigmoid) module()                 {}
func (*Tanh) module()                    {}
