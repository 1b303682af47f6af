// Package optimizer holds typed records for the Keras optimizers. A record
// only describes the optimizer; the update rule runs in the foreign runtime.
package optimizer

import (
	"context"
	"fmt"

	"github.com/tsawler/go-keras/bridge"
	"github.com/tsawler/go-keras/marshal"
)

// Optimizer is one of the optimizer records of this package
type Optimizer interface {
	marshal.Config

	// LR returns the learning rate
	LR() float32

	optimizer()
}

// OptimizerState is the serializable form of an optimizer record, as stored
// alongside a checkpoint
type OptimizerState struct {
	Type       string                 `json:"type"`       // "Adam", "SGD", etc.
	Parameters map[string]interface{} `json:"parameters"` // Hyperparameters
}

// GetState extracts the hyperparameters of an optimizer. Numbers are stored
// as float64 the way encoding/json decodes them.
func GetState(o Optimizer) *OptimizerState {
	state := &OptimizerState{
		Type:       o.ClassName(),
		Parameters: make(map[string]interface{}),
	}
	p := o.Params()
	for _, k := range p.Keys() {
		v, _ := p.Get(k)
		switch x := v.(type) {
		case float32:
			state.Parameters[k] = float64(x)
		case *float32:
			if x != nil {
				state.Parameters[k] = float64(*x)
			}
		default:
			state.Parameters[k] = v
		}
	}
	return state
}

// LoadState rebuilds an optimizer record from its state
func LoadState(state *OptimizerState) (Optimizer, error) {
	if state == nil {
		return nil, fmt.Errorf("optimizer state is nil")
	}
	return Decode(state.Type, state.Parameters)
}

// Create instantiates the optimizer in the runtime through module, which is
// normally the keras optimizers module
func Create(ctx context.Context, sess bridge.Session, module bridge.Handle, o Optimizer) (bridge.Handle, error) {
	return marshal.Instantiate(ctx, sess, module, o.ClassName(), o.Params())
}

// Options holds the settings every Keras optimizer accepts. Unset values are
// not sent, leaving the Keras defaults in place.
type Options struct {
	WeightDecay *float32
	ClipNorm    *float32
	ClipValue   *float32
}

func (o Options) appendTo(p *marshal.Params) *marshal.Params {
	return p.Set("weight_decay", o.WeightDecay).
		Set("clipnorm", o.ClipNorm).
		Set("clipvalue", o.ClipValue)
}

func (o *Options) decode(params map[string]interface{}) {
	o.WeightDecay = extractOptionalFloat32Param(params, "weight_decay")
	o.ClipNorm = extractOptionalFloat32Param(params, "clipnorm")
	o.ClipValue = extractOptionalFloat32Param(params, "clipvalue")
}
