// Package models drives Keras Sequential and functional models living in a
// runtime. Structure is built from layer records; training and inference
// calls are forwarded to the runtime as they are.
package models

import (
	"context"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tsawler/go-keras/bridge"
	"github.com/tsawler/go-keras/keras"
	"github.com/tsawler/go-keras/layers"
	"github.com/tsawler/go-keras/losses"
	"github.com/tsawler/go-keras/marshal"
	"github.com/tsawler/go-keras/optimizer"
)

// Model is a model object in the runtime. Models rebuilt from JSON are
// returned as a Model whatever their class.
type Model struct {
	rt     *keras.Runtime
	handle bridge.Handle
}

// Handle returns the runtime handle of the model
func (m *Model) Handle() bridge.Handle {
	return m.handle
}

// ClassName returns the Keras class of the model
func (m *Model) ClassName() string {
	return m.handle.Class
}

func (m *Model) call(ctx context.Context, method string, p *marshal.Params) (*structpb.Value, error) {
	return m.rt.Call(ctx, m.handle, method, p)
}

// AddLoss adds a loss tensor or a list of them to the model
func (m *Model) AddLoss(ctx context.Context, loss interface{}) error {
	_, err := m.call(ctx, "add_loss", marshal.NewParams().Set("losses", loss))
	return err
}

// Compile configures the model for training. The optimizer and loss records
// are created in the runtime first; metrics may be nil.
func (m *Model) Compile(ctx context.Context, opt optimizer.Optimizer, loss losses.Loss, metrics []string) error {
	p := marshal.NewParams()
	if opt != nil {
		h, err := m.rt.CreateOptimizer(ctx, opt)
		if err != nil {
			return err
		}
		p.Set("optimizer", h)
	} else {
		p.Set("optimizer", "rmsprop")
	}
	if loss != nil {
		h, err := m.rt.CreateLoss(ctx, loss)
		if err != nil {
			return err
		}
		p.Set("loss", h)
	}
	p.Set("metrics", metrics)

	_, err := m.call(ctx, "compile", p)
	return err
}

// ToJSON returns the model topology as written by Model.to_json
func (m *Model) ToJSON(ctx context.Context) (string, error) {
	v, err := m.call(ctx, "to_json", nil)
	if err != nil {
		return "", err
	}
	return v.GetStringValue(), nil
}

// Topology decodes the model topology
func (m *Model) Topology(ctx context.Context) (*layers.Topology, error) {
	text, err := m.ToJSON(ctx)
	if err != nil {
		return nil, err
	}
	return layers.DecodeTopology([]byte(text))
}

// Summary returns the text printed by Model.summary
func (m *Model) Summary(ctx context.Context) (string, error) {
	v, err := m.call(ctx, "summary", nil)
	if err != nil {
		return "", err
	}
	return v.GetStringValue(), nil
}

// SaveWeights writes the model weights to path
func (m *Model) SaveWeights(ctx context.Context, path string) error {
	_, err := m.call(ctx, "save_weights", marshal.NewParams().Set("filepath", path))
	return err
}

// LoadWeights reads the model weights from path
func (m *Model) LoadWeights(ctx context.Context, path string) error {
	_, err := m.call(ctx, "load_weights", marshal.NewParams().Set("filepath", path))
	return err
}

// Fit trains the model on x and y. extra holds further keyword arguments
// such as epochs and batch_size and may be nil. The runtime's History object
// is returned untouched.
func (m *Model) Fit(ctx context.Context, x, y interface{}, extra *marshal.Params) (*structpb.Value, error) {
	p := marshal.NewParams().Set("x", x).Set("y", y)
	merge(p, extra)
	return m.call(ctx, "fit", p)
}

// Predict runs inference on x
func (m *Model) Predict(ctx context.Context, x interface{}, extra *marshal.Params) (*structpb.Value, error) {
	p := marshal.NewParams().Set("x", x)
	merge(p, extra)
	return m.call(ctx, "predict", p)
}

// Evaluate computes the loss and metrics on x and y
func (m *Model) Evaluate(ctx context.Context, x, y interface{}, extra *marshal.Params) (*structpb.Value, error) {
	p := marshal.NewParams().Set("x", x).Set("y", y)
	merge(p, extra)
	return m.call(ctx, "evaluate", p)
}

func merge(dst, src *marshal.Params) {
	for _, k := range src.Keys() {
		v, _ := src.Get(k)
		dst.Set(k, v)
	}
}

// ModelFromJSON rebuilds a model from its topology JSON
func ModelFromJSON(ctx context.Context, rt *keras.Runtime, text string) (*Model, error) {
	v, err := rt.CallFunction(ctx, keras.ModuleModels, "model_from_json", marshal.NewParams().Set("json_string", text))
	if err != nil {
		return nil, err
	}
	h, ok := bridge.AsHandle(v)
	if !ok {
		return nil, errors.New("model_from_json did not return a model")
	}
	return &Model{rt: rt, handle: h}, nil
}
