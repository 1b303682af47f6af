package deeplearning

// Optimizer is any optimizer descriptor
type Optimizer interface {
	optimizer()
}

// SGD is stochastic gradient descent
type SGD struct {
	LearningRate float64
	Momentum     float64
	WeightDecay  float64
	Nesterov     bool
}

// Adam optimizer
type Adam struct {
	LearningRate float64
	Beta1        float64
	Beta2        float64
	Epsilon      float64
	WeightDecay  float64
	AMSGrad      bool
}

// RMSProp optimizer. Alpha is the smoothing constant.
type RMSProp struct {
	LearningRate float64
	Alpha        float64
	Epsilon      float64
	WeightDecay  float64
	Momentum     float64
	Centered     bool
}

func (*SGD) optimizer()     {}
func (*Adam) optimizer()    {}
func (*RMSProp) optimizer() {}
