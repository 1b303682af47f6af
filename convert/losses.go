package convert

import (
	"github.com/pkg/errors"

	"github.com/tsawler/go-keras/deeplearning"
	"github.com/tsawler/go-keras/losses"
)

// ReductionToKeras returns the Keras reduction of r
func ReductionToKeras(r deeplearning.Reduce) string {
	switch r {
	case deeplearning.Mean:
		return losses.ReductionMean
	case deeplearning.Sum:
		return losses.ReductionSum
	}
	return losses.ReductionNone
}

// ReductionFromKeras returns the reduction named by a Keras reduction string.
// "auto" is Sum. Unrecognized names are No.
func ReductionFromKeras(reduction string) deeplearning.Reduce {
	switch reduction {
	case losses.ReductionAuto, losses.ReductionSum:
		return deeplearning.Sum
	case losses.ReductionMean:
		return deeplearning.Mean
	}
	return deeplearning.No
}

// ToKerasLoss converts a loss descriptor to a Keras loss record
func ToKerasLoss(l deeplearning.Loss) (losses.Loss, error) {
	if l == nil {
		return nil, errors.Wrap(ErrNoConversion, "nil loss")
	}
	reduction := ReductionToKeras(l.ReduceMode())

	switch l.(type) {
	case *deeplearning.L1:
		return &losses.MeanAbsoluteError{Reduction: reduction}, nil
	case *deeplearning.MeanSquareError:
		return &losses.MeanSquaredError{Reduction: reduction}, nil
	case *deeplearning.BinaryCrossEntropy:
		return &losses.BinaryCrossentropy{FromLogits: false, Reduction: reduction}, nil
	case *deeplearning.BCEWithSigmoid:
		return &losses.BinaryCrossentropy{FromLogits: true, Reduction: reduction}, nil
	case *deeplearning.CrossEntropy:
		return &losses.CategoricalCrossentropy{FromLogits: true, Reduction: reduction}, nil
	case *deeplearning.NegativeLogLikelihood:
		return &losses.CategoricalCrossentropy{FromLogits: false, Reduction: reduction}, nil
	}
	return nil, errors.Wrapf(ErrNoConversion, "%T", l)
}

// FromKerasLoss converts a Keras loss record. Sparse categorical cross
// entropy converts like categorical cross entropy, so it does not round trip.
func (c *Converter) FromKerasLoss(l losses.Loss) deeplearning.Loss {
	switch x := l.(type) {
	case *losses.MeanAbsoluteError:
		return &deeplearning.L1{Reduce: ReductionFromKeras(x.Reduction)}
	case *losses.MeanSquaredError:
		return &deeplearning.MeanSquareError{Reduce: ReductionFromKeras(x.Reduction)}
	case *losses.BinaryCrossentropy:
		if x.FromLogits {
			return &deeplearning.BCEWithSigmoid{Reduce: ReductionFromKeras(x.Reduction)}
		}
		return &deeplearning.BinaryCrossEntropy{Reduce: ReductionFromKeras(x.Reduction)}
	case *losses.CategoricalCrossentropy:
		return categorical(x.FromLogits, x.Reduction)
	case *losses.SparseCategoricalCrossentropy:
		return categorical(x.FromLogits, x.Reduction)
	case nil:
		c.noConvert("<nil>")
		return nil
	}
	c.noConvert(l.ClassName())
	return nil
}

// FromKerasLoss converts l using a converter that reports on the standard logger
func FromKerasLoss(l losses.Loss) deeplearning.Loss {
	return standard.FromKerasLoss(l)
}

func categorical(fromLogits bool, reduction string) deeplearning.Loss {
	if fromLogits {
		return &deeplearning.CrossEntropy{Reduce: ReductionFromKeras(reduction)}
	}
	return &deeplearning.NegativeLogLikelihood{Reduce: ReductionFromKeras(reduction)}
}
