package preprocessing

import (
	"context"

	"github.com/pkg/errors"

	"github.com/tsawler/go-keras/bridge"
	"github.com/tsawler/go-keras/keras"
	"github.com/tsawler/go-keras/marshal"
)

// TimeseriesGenerator is keras.preprocessing.sequence.TimeseriesGenerator.
// Data and Targets are runtime values, such as handles or nested lists.
// EndIndex nil means the last sample.
type TimeseriesGenerator struct {
	Data         interface{}
	Targets      interface{}
	Length       int
	SamplingRate int
	Stride       int
	StartIndex   int
	EndIndex     *int
	Shuffle      bool
	Reverse      bool
	BatchSize    int
}

// NewTimeseriesGenerator returns a generator with the Keras defaults
func NewTimeseriesGenerator(data, targets interface{}, length int) *TimeseriesGenerator {
	return &TimeseriesGenerator{
		Data:         data,
		Targets:      targets,
		Length:       length,
		SamplingRate: 1,
		Stride:       1,
		BatchSize:    128,
	}
}

// ClassName returns the Keras class name of the generator
func (g *TimeseriesGenerator) ClassName() string { return "TimeseriesGenerator" }

// Params returns the constructor arguments
func (g *TimeseriesGenerator) Params() *marshal.Params {
	var end interface{}
	if g.EndIndex != nil {
		end = *g.EndIndex
	}
	return marshal.NewParams().
		Set("data", g.Data).
		Set("targets", g.Targets).
		Set("length", g.Length).
		Set("sampling_rate", g.SamplingRate).
		Set("stride", g.Stride).
		Set("start_index", g.StartIndex).
		Set("end_index", end).
		Set("shuffle", g.Shuffle).
		Set("reverse", g.Reverse).
		Set("batch_size", g.BatchSize)
}

// Create instantiates the generator in the runtime
func (g *TimeseriesGenerator) Create(ctx context.Context, rt *keras.Runtime) (bridge.Handle, error) {
	module, err := rt.Module(ctx, keras.ModulePreprocessing+".sequence")
	if err != nil {
		return bridge.Handle{}, err
	}
	return marshal.Instantiate(ctx, rt.Session(), module, g.ClassName(), g.Params())
}

// Window is one sample of a batch: the data rows it reads, oldest first
// unless the generator is reversed, and the target row
type Window struct {
	Rows   []int
	Target int
}

func (g *TimeseriesGenerator) bounds(samples int) (start, end, step int, err error) {
	if g.Stride <= 0 || g.BatchSize <= 0 || g.SamplingRate <= 0 {
		return 0, 0, 0, errors.New("stride, batch size and sampling rate must be positive")
	}
	start = g.StartIndex + g.Length
	end = samples - 1
	if g.EndIndex != nil {
		end = *g.EndIndex
	}
	if start > end {
		return 0, 0, 0, errors.Errorf("start_index+length=%d > end_index=%d is disallowed, as no part of the sequence would be left to be used as current step", start, end)
	}
	return start, end, g.BatchSize * g.Stride, nil
}

// Len returns the number of batches over a series of the given length
func (g *TimeseriesGenerator) Len(samples int) (int, error) {
	start, end, step, err := g.bounds(samples)
	if err != nil {
		return 0, err
	}
	return (end - start + step) / step, nil
}

// Batch returns the windows of batch index over a series of the given
// length. Shuffled batches are drawn by the runtime and are not available.
func (g *TimeseriesGenerator) Batch(index, samples int) ([]Window, error) {
	if g.Shuffle {
		return nil, errors.Wrap(bridge.ErrNotSupported, "shuffled timeseries batches")
	}
	n, err := g.Len(samples)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= n {
		return nil, errors.Errorf("batch %d out of range [0, %d)", index, n)
	}
	start, end, step, _ := g.bounds(samples)

	first := start + step*index
	last := first + step
	if last > end+1 {
		last = end + 1
	}

	var out []Window
	for row := first; row < last; row += g.Stride {
		w := Window{Target: row}
		for r := row - g.Length; r < row; r += g.SamplingRate {
			w.Rows = append(w.Rows, r)
		}
		if g.Reverse {
			for i, j := 0, len(w.Rows)-1; i < j; i, j = i+1, j-1 {
				w.Rows[i], w.Rows[j] = w.Rows[j], w.Rows[i]
			}
		}
		out = append(out, w)
	}
	return out, nil
}
