package optimizer

import (
	"github.com/tsawler/go-keras/marshal"
)

// SGDConfig holds configuration for SGD optimizer
type SGDConfig struct {
	LearningRate float32
	Momentum     float32 // Momentum coefficient (0 for vanilla SGD)
	Nesterov     bool    // Whether to use Nesterov momentum
}

// DefaultSGDConfig returns default SGD optimizer configuration
func DefaultSGDConfig() SGDConfig {
	return SGDConfig{
		LearningRate: 0.01,
		Momentum:     0.0,
		Nesterov:     false,
	}
}

// SGD is keras.optimizers.SGD
type SGD struct {
	SGDConfig
	Options
}

// NewSGD creates an SGD record from config
func NewSGD(config SGDConfig) *SGD {
	return &SGD{SGDConfig: config}
}

func (o *SGD) ClassName() string { return "SGD" }
func (o *SGD) LR() float32       { return o.LearningRate }
func (o *SGD) optimizer()        {}

// Params returns the keyword arguments of the Keras constructor
func (o *SGD) Params() *marshal.Params {
	p := marshal.NewParams().
		Set("learning_rate", o.LearningRate).
		Set("momentum", o.Momentum).
		Set("nesterov", o.Nesterov)
	return o.appendTo(p)
}
