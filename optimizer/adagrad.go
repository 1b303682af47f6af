package optimizer

import (
	"github.com/tsawler/go-keras/marshal"
)

// AdaGradConfig holds configuration for AdaGrad optimizer
type AdaGradConfig struct {
	LearningRate            float32 // Learning rate
	InitialAccumulatorValue float32 // Starting value of the per parameter accumulators
	Epsilon                 float32 // Small constant for numerical stability
}

// DefaultAdaGradConfig returns default AdaGrad optimizer configuration
func DefaultAdaGradConfig() AdaGradConfig {
	return AdaGradConfig{
		LearningRate:            0.001,
		InitialAccumulatorValue: 0.1,
		Epsilon:                 1e-7,
	}
}

// AdaGrad is keras.optimizers.Adagrad
type AdaGrad struct {
	AdaGradConfig
	Options
}

// NewAdaGrad creates an Adagrad record from config
func NewAdaGrad(config AdaGradConfig) *AdaGrad {
	return &AdaGrad{AdaGradConfig: config}
}

func (o *AdaGrad) ClassName() string { return "Adagrad" }
func (o *AdaGrad) LR() float32       { return o.LearningRate }
func (o *AdaGrad) optimizer()        {}

// Params returns the keyword arguments of the Keras constructor
func (o *AdaGrad) Params() *marshal.Params {
	p := marshal.NewParams().
		Set("learning_rate", o.LearningRate).
		Set("initial_accumulator_value", o.InitialAccumulatorValue).
		Set("epsilon", o.Epsilon)
	return o.appendTo(p)
}
