package optimizer

import (
	"github.com/tsawler/go-keras/marshal"
)

// AdaDeltaConfig holds configuration for AdaDelta optimizer
type AdaDeltaConfig struct {
	LearningRate float32 // Keras scales the update by a learning rate, unlike the paper
	Rho          float32 // Decay rate for moving averages (typically 0.95)
	Epsilon      float32 // Small constant for numerical stability
}

// DefaultAdaDeltaConfig returns default AdaDelta optimizer configuration
func DefaultAdaDeltaConfig() AdaDeltaConfig {
	return AdaDeltaConfig{
		LearningRate: 0.001,
		Rho:          0.95,
		Epsilon:      1e-7,
	}
}

// AdaDelta is keras.optimizers.Adadelta
type AdaDelta struct {
	AdaDeltaConfig
	Options
}

// NewAdaDelta creates an Adadelta record from config
func NewAdaDelta(config AdaDeltaConfig) *AdaDelta {
	return &AdaDelta{AdaDeltaConfig: config}
}

func (o *AdaDelta) ClassName() string { return "Adadelta" }
func (o *AdaDelta) LR() float32       { return o.LearningRate }
func (o *AdaDelta) optimizer()        {}

// Params returns the keyword arguments of the Keras constructor
func (o *AdaDelta) Params() *marshal.Params {
	p := marshal.NewParams().
		Set("learning_rate", o.LearningRate).
		Set("rho", o.Rho).
		Set("epsilon", o.Epsilon)
	return o.appendTo(p)
}
