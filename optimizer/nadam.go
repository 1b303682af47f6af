package optimizer

import (
	"github.com/tsawler/go-keras/marshal"
)

// NadamConfig holds configuration for Nadam optimizer
type NadamConfig struct {
	LearningRate float32 // Base learning rate
	Beta1        float32 // Exponential decay rate for first moment estimates (typically 0.9)
	Beta2        float32 // Exponential decay rate for second moment estimates (typically 0.999)
	Epsilon      float32 // Small constant for numerical stability
}

// DefaultNadamConfig returns default Nadam optimizer configuration
func DefaultNadamConfig() NadamConfig {
	return NadamConfig{
		LearningRate: 0.001,
		Beta1:        0.9,
		Beta2:        0.999,
		Epsilon:      1e-7,
	}
}

// Nadam is keras.optimizers.Nadam
type Nadam struct {
	NadamConfig
	Options
}

// NewNadam creates a Nadam record from config
func NewNadam(config NadamConfig) *Nadam {
	return &Nadam{NadamConfig: config}
}

func (o *Nadam) ClassName() string { return "Nadam" }
func (o *Nadam) LR() float32       { return o.LearningRate }
func (o *Nadam) optimizer()        {}

// Params returns the keyword arguments of the Keras constructor
func (o *Nadam) Params() *marshal.Params {
	p := marshal.NewParams().
		Set("learning_rate", o.LearningRate).
		Set("beta_1", o.Beta1).
		Set("beta_2", o.Beta2).
		Set("epsilon", o.Epsilon)
	return o.appendTo(p)
}
