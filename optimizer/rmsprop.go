package optimizer

import (
	"github.com/tsawler/go-keras/marshal"
)

// RMSPropConfig holds configuration for RMSProp optimizer
type RMSPropConfig struct {
	LearningRate float32
	Rho          float32 // Discounting factor for the gradient history
	Momentum     float32
	Epsilon      float32
	Centered     bool // Normalize by the estimated variance of the gradient
}

// DefaultRMSPropConfig returns default RMSProp optimizer configuration
func DefaultRMSPropConfig() RMSPropConfig {
	return RMSPropConfig{
		LearningRate: 0.001,
		Rho:          0.9,
		Momentum:     0.0,
		Epsilon:      1e-7,
		Centered:     false,
	}
}

// RMSProp is keras.optimizers.RMSprop
type RMSProp struct {
	RMSPropConfig
	Options
}

// NewRMSProp creates an RMSprop record from config
func NewRMSProp(config RMSPropConfig) *RMSProp {
	return &RMSProp{RMSPropConfig: config}
}

func (o *RMSProp) ClassName() string { return "RMSprop" }
func (o *RMSProp) LR() float32       { return o.LearningRate }
func (o *RMSProp) optimizer()        {}

// Params returns the keyword arguments of the Keras constructor
func (o *RMSProp) Params() *marshal.Params {
	p := marshal.NewParams().
		Set("learning_rate", o.LearningRate).
		Set("rho", o.Rho).
		Set("momentum", o.Momentum).
		Set("epsilon", o.Epsilon).
		Set("centered", o.Centered)
	return o.appendTo(p)
}
