package convert

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/tsawler/go-keras/deeplearning"
	"github.com/tsawler/go-keras/optimizer"
)

// ToKerasOptimizer converts an optimizer descriptor to a Keras optimizer record.
// A zero weight decay is left unset.
func ToKerasOptimizer(o deeplearning.Optimizer) (optimizer.Optimizer, error) {
	switch x := o.(type) {
	case *deeplearning.SGD:
		sgd := optimizer.NewSGD(optimizer.SGDConfig{
			LearningRate: float32(x.LearningRate),
			Momentum:     float32(x.Momentum),
			Nesterov:     x.Nesterov,
		})
		sgd.WeightDecay = decay(x.WeightDecay)
		return sgd, nil
	case *deeplearning.Adam:
		adam := optimizer.NewAdam(optimizer.AdamConfig{
			LearningRate: float32(x.LearningRate),
			Beta1:        float32(x.Beta1),
			Beta2:        float32(x.Beta2),
			Epsilon:      float32(x.Epsilon),
			AMSGrad:      x.AMSGrad,
		})
		adam.WeightDecay = decay(x.WeightDecay)
		return adam, nil
	case *deeplearning.RMSProp:
		rms := optimizer.NewRMSProp(optimizer.RMSPropConfig{
			LearningRate: float32(x.LearningRate),
			Rho:          float32(x.Alpha),
			Momentum:     float32(x.Momentum),
			Epsilon:      float32(x.Epsilon),
			Centered:     x.Centered,
		})
		rms.WeightDecay = decay(x.WeightDecay)
		return rms, nil
	case nil:
		return nil, errors.Wrap(ErrNoConversion, "nil optimizer")
	}
	return nil, errors.Wrapf(ErrNoConversion, "%T", o)
}

// FromKerasOptimizer converts a Keras optimizer record. Optimizers without a
// descriptor, such as Adagrad, are reported and give nil.
func (c *Converter) FromKerasOptimizer(o optimizer.Optimizer) deeplearning.Optimizer {
	switch x := o.(type) {
	case *optimizer.SGD:
		return &deeplearning.SGD{
			LearningRate: widen(x.LearningRate),
			Momentum:     widen(x.Momentum),
			WeightDecay:  widenPtr(x.WeightDecay),
			Nesterov:     x.Nesterov,
		}
	case *optimizer.Adam:
		return &deeplearning.Adam{
			LearningRate: widen(x.LearningRate),
			Beta1:        widen(x.Beta1),
			Beta2:        widen(x.Beta2),
			Epsilon:      widen(x.Epsilon),
			WeightDecay:  widenPtr(x.WeightDecay),
			AMSGrad:      x.AMSGrad,
		}
	case *optimizer.RMSProp:
		return &deeplearning.RMSProp{
			LearningRate: widen(x.LearningRate),
			Alpha:        widen(x.Rho),
			Epsilon:      widen(x.Epsilon),
			WeightDecay:  widenPtr(x.WeightDecay),
			Momentum:     widen(x.Momentum),
			Centered:     x.Centered,
		}
	case nil:
		c.noConvert("<nil>")
		return nil
	}
	c.noConvert(o.ClassName())
	return nil
}

// FromKerasOptimizer converts o using a converter that reports on the standard logger
func FromKerasOptimizer(o optimizer.Optimizer) deeplearning.Optimizer {
	return standard.FromKerasOptimizer(o)
}

func decay(v float64) *float32 {
	if v == 0 {
		return nil
	}
	f := float32(v)
	return &f
}

// widen returns the float64 with the shortest decimal form of f, so 0.001
// narrowed to float32 widens back to 0.001
func widen(f float32) float64 {
	v, err := strconv.ParseFloat(strconv.FormatFloat(float64(f), 'g', -1, 32), 64)
	if err != nil {
		return float64(f)
	}
	return v
}

func widenPtr(f *float32) float64 {
	if f == nil {
		return 0
	}
	return widen(*f)
}
