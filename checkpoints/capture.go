package checkpoints

import (
	"context"
	"os"

	"github.com/pkg/errors"

	"github.com/tsawler/go-keras/keras"
	"github.com/tsawler/go-keras/models"
	"github.com/tsawler/go-keras/optimizer"
)

// Capture builds a checkpoint from a model in the runtime. The weights are
// written by the runtime to a temporary file and read back. opt may be nil.
func Capture(ctx context.Context, m *models.Model, opt optimizer.Optimizer, state TrainingState) (*Checkpoint, error) {
	topology, err := m.ToJSON(ctx)
	if err != nil {
		return nil, err
	}

	path, cleanup, err := tempWeights()
	if err != nil {
		return nil, err
	}
	defer cleanup()

	if err := m.SaveWeights(ctx, path); err != nil {
		return nil, err
	}
	weights, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read weights")
	}

	cp := &Checkpoint{
		Topology:      topology,
		Weights:       weights,
		TrainingState: state,
	}
	if opt != nil {
		cp.OptimizerState = optimizer.GetState(opt)
		if cp.TrainingState.LearningRate == 0 {
			cp.TrainingState.LearningRate = opt.LR()
		}
	}
	return cp, nil
}

// Restore rebuilds the model of a checkpoint in rt and loads its weights.
// The optimizer is nil when the checkpoint has none.
func Restore(ctx context.Context, rt *keras.Runtime, cp *Checkpoint) (*models.Model, optimizer.Optimizer, error) {
	if err := cp.Validate(); err != nil {
		return nil, nil, err
	}
	m, err := models.ModelFromJSON(ctx, rt, cp.Topology)
	if err != nil {
		return nil, nil, err
	}

	if len(cp.Weights) > 0 {
		path, cleanup, err := tempWeights()
		if err != nil {
			return nil, nil, err
		}
		defer cleanup()

		if err := os.WriteFile(path, cp.Weights, 0o600); err != nil {
			return nil, nil, errors.Wrap(err, "failed to write weights")
		}
		if err := m.LoadWeights(ctx, path); err != nil {
			return nil, nil, err
		}
	}

	var opt optimizer.Optimizer
	if cp.OptimizerState != nil {
		if opt, err = optimizer.LoadState(cp.OptimizerState); err != nil {
			return nil, nil, errors.Wrap(err, "failed to restore optimizer")
		}
	}
	return m, opt, nil
}

func tempWeights() (string, func(), error) {
	f, err := os.CreateTemp("", "keras-weights-*.h5")
	if err != nil {
		return "", nil, errors.Wrap(err, "failed to create weights file")
	}
	path := f.Name()
	f.Close()
	return path, func() { os.Remove(path) }, nil
}
