// Package regularizers describes Keras weight regularizers and constraints.
// Records serialize as {"class_name", "config"} when used as layer arguments
// and can also be constructed in the runtime with Create.
package regularizers

import (
	"context"

	"github.com/tsawler/go-keras/bridge"
	"github.com/tsawler/go-keras/marshal"
)

// Regularizer is a Keras weight regularizer
type Regularizer interface {
	marshal.Config
	regularizer()
}

// L1L2 applies both L1 and L2 penalties
type L1L2 struct {
	L1 float64
	L2 float64
}

// L1 applies an L1 penalty
type L1 struct {
	L1 float64
}

// L2 applies an L2 penalty
type L2 struct {
	L2 float64
}

// DefaultL1L2 returns the Keras defaults, 0.01 for both factors
func DefaultL1L2() L1L2 {
	return L1L2{L1: 0.01, L2: 0.01}
}

// DefaultL1 returns an L1 regularizer with factor 0.01
func DefaultL1() L1 {
	return L1{L1: 0.01}
}

// DefaultL2 returns an L2 regularizer with factor 0.01
func DefaultL2() L2 {
	return L2{L2: 0.01}
}

func (r L1L2) ClassName() string { return "L1L2" }
func (r L1) ClassName() string   { return "L1" }
func (r L2) ClassName() string   { return "L2" }

func (r L1L2) Params() *marshal.Params {
	return marshal.NewParams().Set("l1", r.L1).Set("l2", r.L2)
}

func (r L1) Params() *marshal.Params {
	return marshal.NewParams().Set("l1", r.L1)
}

func (r L2) Params() *marshal.Params {
	return marshal.NewParams().Set("l2", r.L2)
}

func (L1L2) regularizer() {}
func (L1) regularizer()   {}
func (L2) regularizer()   {}

// Constraint is a Keras weight constraint
type Constraint interface {
	marshal.Config
	constraint()
}

// MaxNorm constrains the norm of incoming weights to at most MaxValue
type MaxNorm struct {
	MaxValue float64
	Axis     int
}

// NonNeg constrains weights to be non-negative
type NonNeg struct{}

// UnitNorm constrains weights to unit norm along Axis
type UnitNorm struct {
	Axis int
}

// MinMaxNorm constrains weight norms between MinValue and MaxValue
type MinMaxNorm struct {
	MinValue float64
	MaxValue float64
	Rate     float64
	Axis     int
}

// DefaultMaxNorm returns MaxNorm(max_value=2, axis=0)
func DefaultMaxNorm() MaxNorm {
	return MaxNorm{MaxValue: 2, Axis: 0}
}

// DefaultMinMaxNorm returns MinMaxNorm(min_value=0, max_value=1, rate=1, axis=0)
func DefaultMinMaxNorm() MinMaxNorm {
	return MinMaxNorm{MinValue: 0, MaxValue: 1, Rate: 1, Axis: 0}
}

func (c MaxNorm) ClassName() string    { return "MaxNorm" }
func (c NonNeg) ClassName() string     { return "NonNeg" }
func (c UnitNorm) ClassName() string   { return "UnitNorm" }
func (c MinMaxNorm) ClassName() string { return "MinMaxNorm" }

func (c MaxNorm) Params() *marshal.Params {
	return marshal.NewParams().Set("max_value", c.MaxValue).Set("axis", c.Axis)
}

func (c NonNeg) Params() *marshal.Params {
	return marshal.NewParams()
}

func (c UnitNorm) Params() *marshal.Params {
	return marshal.NewParams().Set("axis", c.Axis)
}

func (c MinMaxNorm) Params() *marshal.Params {
	return marshal.NewParams().
		Set("min_value", c.MinValue).
		Set("max_value", c.MaxValue).
		Set("rate", c.Rate).
		Set("axis", c.Axis)
}

func (MaxNorm) constraint()    {}
func (NonNeg) constraint()     {}
func (UnitNorm) constraint()   {}
func (MinMaxNorm) constraint() {}

// Create constructs a regularizer or constraint inside the runtime. module is
// the handle of the matching regularizers or constraints module.
func Create(ctx context.Context, sess bridge.Session, module bridge.Handle, c marshal.Config) (bridge.Handle, error) {
	return marshal.Instantiate(ctx, sess, module, c.ClassName(), c.Params())
}

// Decode rebuilds a record from its serialized class name and config.
// ok is false for classes this package does not describe.
func Decode(className string, config map[string]interface{}) (marshal.Config, bool) {
	f := func(key string, def float64) float64 {
		if v, ok := config[key].(float64); ok {
			return v
		}
		return def
	}
	switch className {
	case "L1L2":
		return L1L2{L1: f("l1", 0), L2: f("l2", 0)}, true
	case "L1":
		return L1{L1: f("l1", 0.01)}, true
	case "L2":
		return L2{L2: f("l2", 0.01)}, true
	case "MaxNorm":
		return MaxNorm{MaxValue: f("max_value", 2), Axis: int(f("axis", 0))}, true
	case "NonNeg":
		return NonNeg{}, true
	case "UnitNorm":
		return UnitNorm{Axis: int(f("axis", 0))}, true
	case "MinMaxNorm":
		return MinMaxNorm{
			MinValue: f("min_value", 0),
			MaxValue: f("max_value", 1),
			Rate:     f("rate", 1),
			Axis:     int(f("axis", 0)),
		}, true
	}
	return nil, false
}
