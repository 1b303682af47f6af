package optimizer

import (
	"github.com/tsawler/go-keras/marshal"
)

// AdamConfig holds configuration for Adam optimizer
type AdamConfig struct {
	LearningRate float32
	Beta1        float32
	Beta2        float32
	Epsilon      float32
	AMSGrad      bool
}

// DefaultAdamConfig returns default Adam optimizer configuration. Epsilon
// follows Keras (1e-7), not the 1e-8 of the paper.
func DefaultAdamConfig() AdamConfig {
	return AdamConfig{
		LearningRate: 0.001,
		Beta1:        0.9,
		Beta2:        0.999,
		Epsilon:      1e-7,
	}
}

// Adam is keras.optimizers.Adam
type Adam struct {
	AdamConfig
	Options
}

// NewAdam creates an Adam record from config
func NewAdam(config AdamConfig) *Adam {
	return &Adam{AdamConfig: config}
}

func (o *Adam) ClassName() string { return "Adam" }
func (o *Adam) LR() float32       { return o.LearningRate }
func (o *Adam) optimizer()        {}

// Params returns the keyword arguments of the Keras constructor
func (o *Adam) Params() *marshal.Params {
	p := marshal.NewParams().
		Set("learning_rate", o.LearningRate).
		Set("beta_1", o.Beta1).
		Set("beta_2", o.Beta2).
		Set("epsilon", o.Epsilon).
		Set("amsgrad", o.AMSGrad)
	return o.appendTo(p)
}
