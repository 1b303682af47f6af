package models

import (
	"context"

	"github.com/pkg/errors"

	"github.com/tsawler/go-keras/bridge"
	"github.com/tsawler/go-keras/keras"
	"github.com/tsawler/go-keras/layers"
	"github.com/tsawler/go-keras/marshal"
)

// Sequential is a keras Sequential model
type Sequential struct {
	Model
	layers []bridge.Handle
}

// NewSequential creates an empty Sequential model and adds ls to it
func NewSequential(ctx context.Context, rt *keras.Runtime, ls ...layers.Layer) (*Sequential, error) {
	module, err := rt.Models(ctx)
	if err != nil {
		return nil, err
	}
	h, err := marshal.Instantiate(ctx, rt.Session(), module, "Sequential", marshal.NewParams())
	if err != nil {
		return nil, err
	}

	s := &Sequential{Model: Model{rt: rt, handle: h}}
	for i, l := range ls {
		if err := s.Add(ctx, l); err != nil {
			return nil, errors.Wrapf(err, "failed to add layer %d", i)
		}
	}
	return s, nil
}

// FromSpec creates a Sequential model from a layer list. The spec input
// shape is declared on the first layer when it declares none itself.
func FromSpec(ctx context.Context, rt *keras.Runtime, spec *layers.ModelSpec) (*Sequential, error) {
	s, err := NewSequential(ctx, rt)
	if err != nil {
		return nil, err
	}
	for i, l := range spec.Layers {
		var h bridge.Handle
		if i == 0 {
			h, err = rt.CreateInputLayer(ctx, l, spec.InputShape)
		} else {
			h, err = rt.CreateLayer(ctx, l)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create layer %d", i)
		}
		if err := s.AddHandle(ctx, h); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add creates l in the runtime and appends it to the model
func (s *Sequential) Add(ctx context.Context, l layers.Layer) error {
	h, err := s.rt.CreateLayer(ctx, l)
	if err != nil {
		return err
	}
	return s.AddHandle(ctx, h)
}

// AddHandle appends a layer that already lives in the runtime
func (s *Sequential) AddHandle(ctx context.Context, h bridge.Handle) error {
	if _, err := s.call(ctx, "add", marshal.NewParams().Set("layer", h)); err != nil {
		return err
	}
	s.layers = append(s.layers, h)
	return nil
}

// Layers returns the handles of the layers added through this proxy
func (s *Sequential) Layers() []bridge.Handle {
	out := make([]bridge.Handle, len(s.layers))
	copy(out, s.layers)
	return out
}

// Config reads the model back as a layer list
func (s *Sequential) Config(ctx context.Context) (*layers.ModelSpec, error) {
	topo, err := s.Topology(ctx)
	if err != nil {
		return nil, err
	}
	if topo.Sequential == nil {
		return nil, errors.Errorf("model is a %s, not Sequential", topo.ClassName)
	}
	return topo.Sequential, nil
}
