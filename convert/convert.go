// Package convert maps between deeplearning descriptors and Keras layer,
// loss and optimizer records.
//
// Conversions to Keras return an error when a descriptor has no Keras
// counterpart. Conversions from Keras never fail: a record with no descriptor
// counterpart is reported on the converter's diag.Recorder and converts to
// nil, so a batch conversion carries on past it.
package convert

import (
	"github.com/pkg/errors"

	"github.com/tsawler/go-keras/deeplearning"
	"github.com/tsawler/go-keras/diag"
	"github.com/tsawler/go-keras/layers"
)

// ErrNoConversion is returned when a descriptor has no Keras counterpart
var ErrNoConversion = errors.New("no conversion")

// Input describes what a layer is applied to. Shape excludes the batch
// dimension. OutputShape is optional and only used where a descriptor stores
// its output size.
type Input struct {
	Shape       []int
	OutputShape []int
}

// Converter converts Keras records to descriptors, reporting records it
// cannot map on Recorder. A nil Recorder reports through the standard logger.
type Converter struct {
	Recorder *diag.Recorder
}

// New creates a converter reporting on rec
func New(rec *diag.Recorder) *Converter {
	return &Converter{Recorder: rec}
}

var standard = &Converter{}

// FromKeras converts l using a converter that reports on the standard logger
func FromKeras(l layers.Layer, in Input) deeplearning.Module {
	return standard.FromKeras(l, in)
}

// ToBHoM is FromKeras
func ToBHoM(l layers.Layer, in Input) deeplearning.Module {
	return standard.FromKeras(l, in)
}

// ToBHoM is FromKeras
func (c *Converter) ToBHoM(l layers.Layer, in Input) deeplearning.Module {
	return c.FromKeras(l, in)
}

func (c *Converter) noConvert(what string) {
	c.Recorder.Errorf("No Convert method found for %s", what)
}

func label(l layers.Layer) string {
	switch x := l.(type) {
	case nil:
		return "<nil>"
	case *layers.Unknown:
		return x.Class
	}
	return l.ClassName()
}
