// Package losses holds typed records for the Keras loss classes and the
// functional forms in keras.losses.
package losses

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tsawler/go-keras/bridge"
	"github.com/tsawler/go-keras/marshal"
)

// Reduction values accepted by the Keras loss classes
const (
	ReductionAuto             = "auto"
	ReductionNone             = "none"
	ReductionSum              = "sum"
	ReductionMean             = "mean"
	ReductionSumOverBatchSize = "sum_over_batch_size"
)

// Loss is one of the loss records of this package
type Loss interface {
	marshal.Config

	// ReductionMode returns the reduction, empty when the Keras default applies
	ReductionMode() string

	loss()
}

// BinaryCrossentropy is keras.losses.BinaryCrossentropy
type BinaryCrossentropy struct {
	FromLogits     bool
	LabelSmoothing float64
	Reduction      string
	Name           string
}

// CategoricalCrossentropy is keras.losses.CategoricalCrossentropy
type CategoricalCrossentropy struct {
	FromLogits     bool
	LabelSmoothing float64
	Reduction      string
	Name           string
}

// SparseCategoricalCrossentropy is keras.losses.SparseCategoricalCrossentropy
type SparseCategoricalCrossentropy struct {
	FromLogits bool
	Reduction  string
	Name       string
}

// MeanSquaredError is keras.losses.MeanSquaredError
type MeanSquaredError struct {
	Reduction string
	Name      string
}

// MeanAbsoluteError is keras.losses.MeanAbsoluteError
type MeanAbsoluteError struct {
	Reduction string
	Name      string
}

// NewBinaryCrossentropy creates a binary cross entropy loss with "auto" reduction
func NewBinaryCrossentropy(fromLogits bool) *BinaryCrossentropy {
	return &BinaryCrossentropy{FromLogits: fromLogits, Reduction: ReductionAuto}
}

// NewCategoricalCrossentropy creates a categorical cross entropy loss with "auto" reduction
func NewCategoricalCrossentropy(fromLogits bool) *CategoricalCrossentropy {
	return &CategoricalCrossentropy{FromLogits: fromLogits, Reduction: ReductionAuto}
}

// NewSparseCategoricalCrossentropy creates a sparse categorical cross entropy loss
func NewSparseCategoricalCrossentropy(fromLogits bool) *SparseCategoricalCrossentropy {
	return &SparseCategoricalCrossentropy{FromLogits: fromLogits, Reduction: ReductionAuto}
}

// NewMeanSquaredError creates a new Mean Squared Error loss
func NewMeanSquaredError(reduction string) *MeanSquaredError {
	if reduction == "" {
		reduction = ReductionAuto
	}
	return &MeanSquaredError{Reduction: reduction}
}

// NewMeanAbsoluteError creates a new Mean Absolute Error loss
func NewMeanAbsoluteError(reduction string) *MeanAbsoluteError {
	if reduction == "" {
		reduction = ReductionAuto
	}
	return &MeanAbsoluteError{Reduction: reduction}
}

// ClassName returns the Keras class the loss serializes as
func (l *BinaryCrossentropy) ClassName() string            { return "BinaryCrossentropy" }
func (l *CategoricalCrossentropy) ClassName() string       { return "CategoricalCrossentropy" }
func (l *SparseCategoricalCrossentropy) ClassName() string { return "SparseCategoricalCrossentropy" }
func (l *MeanSquaredError) ClassName() string              { return "MeanSquaredError" }
func (l *MeanAbsoluteError) ClassName() string             { return "MeanAbsoluteError" }

// ReductionMode returns the reduction applied across the batch
func (l *BinaryCrossentropy) ReductionMode() string            { return l.Reduction }
func (l *CategoricalCrossentropy) ReductionMode() string       { return l.Reduction }
func (l *SparseCategoricalCrossentropy) ReductionMode() string { return l.Reduction }
func (l *MeanSquaredError) ReductionMode() string              { return l.Reduction }
func (l *MeanAbsoluteError) ReductionMode() string             { return l.Reduction }

func (l *BinaryCrossentropy) loss()            {}
func (l *CategoricalCrossentropy) loss()       {}
func (l *SparseCategoricalCrossentropy) loss() {}
func (l *MeanSquaredError) loss()              {}
func (l *MeanAbsoluteError) loss()             {}

// Params returns the constructor arguments of the loss; blank names are omitted
func (l *BinaryCrossentropy) Params() *marshal.Params {
	return marshal.NewParams().
		Set("from_logits", l.FromLogits).
		Set("label_smoothing", l.LabelSmoothing).
		Set("reduction", l.Reduction).
		Set("name", l.Name)
}

// Params returns the constructor arguments of the loss
func (l *CategoricalCrossentropy) Params() *marshal.Params {
	return marshal.NewParams().
		Set("from_logits", l.FromLogits).
		Set("label_smoothing", l.LabelSmoothing).
		Set("reduction", l.Reduction).
		Set("name", l.Name)
}

// Params returns the constructor arguments of the loss
func (l *SparseCategoricalCrossentropy) Params() *marshal.Params {
	return marshal.NewParams().
		Set("from_logits", l.FromLogits).
		Set("reduction", l.Reduction).
		Set("name", l.Name)
}

// Params returns the constructor arguments of the loss
func (l *MeanSquaredError) Params() *marshal.Params {
	return marshal.NewParams().Set("reduction", l.Reduction).Set("name", l.Name)
}

// Params returns the constructor arguments of the loss
func (l *MeanAbsoluteError) Params() *marshal.Params {
	return marshal.NewParams().Set("reduction", l.Reduction).Set("name", l.Name)
}

// Create instantiates the loss in the runtime through module, which is
// normally the keras losses module
func Create(ctx context.Context, sess bridge.Session, module bridge.Handle, l Loss) (bridge.Handle, error) {
	return marshal.Instantiate(ctx, sess, module, l.ClassName(), l.Params())
}

// Decode rebuilds a loss record from a Keras class name and config.
// Missing keys take the Keras defaults.
func Decode(className string, config map[string]interface{}) (Loss, error) {
	str := func(key, def string) string {
		if v, ok := config[key].(string); ok {
			return v
		}
		return def
	}
	boolean := func(key string) bool {
		v, _ := config[key].(bool)
		return v
	}
	number := func(key string) float64 {
		v, _ := config[key].(float64)
		return v
	}

	switch className {
	case "BinaryCrossentropy":
		return &BinaryCrossentropy{
			FromLogits:     boolean("from_logits"),
			LabelSmoothing: number("label_smoothing"),
			Reduction:      str("reduction", ReductionAuto),
			Name:           str("name", ""),
		}, nil
	case "CategoricalCrossentropy":
		return &CategoricalCrossentropy{
			FromLogits:     boolean("from_logits"),
			LabelSmoothing: number("label_smoothing"),
			Reduction:      str("reduction", ReductionAuto),
			Name:           str("name", ""),
		}, nil
	case "SparseCategoricalCrossentropy":
		return &SparseCategoricalCrossentropy{
			FromLogits: boolean("from_logits"),
			Reduction:  str("reduction", ReductionAuto),
			Name:       str("name", ""),
		}, nil
	case "MeanSquaredError":
		return &MeanSquaredError{Reduction: str("reduction", ReductionAuto), Name: str("name", "")}, nil
	case "MeanAbsoluteError":
		return &MeanAbsoluteError{Reduction: str("reduction", ReductionAuto), Name: str("name", "")}, nil
	}
	return nil, errors.Errorf("unknown loss %q", className)
}

// FromName maps the string identifiers accepted by Model.compile, such as
// "mse" or "binary_crossentropy", to a loss record
func FromName(name string) (Loss, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "binary_crossentropy", "bce":
		return NewBinaryCrossentropy(false), true
	case "categorical_crossentropy":
		return NewCategoricalCrossentropy(false), true
	case "sparse_categorical_crossentropy":
		return NewSparseCategoricalCrossentropy(false), true
	case "mean_squared_error", "mse":
		return NewMeanSquaredError(""), true
	case "mean_absolute_error", "mae":
		return NewMeanAbsoluteError(""), true
	}
	return nil, false
}

// Functional forms in keras.losses
const (
	FuncBinaryCrossentropy            = "binary_crossentropy"
	FuncCategoricalCrossentropy       = "categorical_crossentropy"
	FuncSparseCategoricalCrossentropy = "sparse_categorical_crossentropy"
	FuncMeanSquaredError              = "mean_squared_error"
	FuncMeanAbsoluteError             = "mean_absolute_error"
)

// Compute calls the functional form fn of a loss on yTrue and yPred, which are
// usually tensor handles. extra holds optional keyword arguments such as
// from_logits and may be nil.
func Compute(ctx context.Context, sess bridge.Session, module bridge.Handle, fn string, yTrue, yPred interface{}, extra *marshal.Params) (*structpb.Value, error) {
	p := marshal.NewParams().Set("y_true", yTrue).Set("y_pred", yPred)
	if extra != nil {
		for _, k := range extra.Keys() {
			v, _ := extra.Get(k)
			p.Set(k, v)
		}
	}
	return marshal.InvokeStaticMethod(ctx, sess, module, fn, p)
}
