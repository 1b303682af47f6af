// Package checkpoints persists a Keras model as a topology JSON document and
// the weights blob the runtime writes, together with training progress and
// optimizer settings.
package checkpoints

import (
	"encoding/json"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/tsawler/go-keras/layers"
	"github.com/tsawler/go-keras/optimizer"
)

// ErrInvalidTopology is returned when a checkpoint topology is not JSON
var ErrInvalidTopology = errors.New("invalid model topology")

// CheckpointFormat defines the serialization format
type CheckpointFormat int

const (
	FormatJSON CheckpointFormat = iota
	FormatProto
)

func (cf CheckpointFormat) String() string {
	switch cf {
	case FormatJSON:
		return "JSON"
	case FormatProto:
		return "Proto"
	default:
		return "Unknown"
	}
}

// Checkpoint is a model as Keras persists it: the model JSON and the opaque
// weights file, plus training state and optimizer settings
type Checkpoint struct {
	// Keras model JSON, as returned by to_json. Not parsed here.
	Topology string `json:"topology"`
	// Contents of the file written by save_weights. Base64 in JSON.
	Weights []byte `json:"weights"`

	TrainingState TrainingState `json:"training_state"`

	OptimizerState *optimizer.OptimizerState `json:"optimizer_state,omitempty"`

	Metadata CheckpointMetadata `json:"metadata"`
}

// TrainingState captures the current training progress
type TrainingState struct {
	Epoch        int     `json:"epoch"`
	Step         int     `json:"step"`
	LearningRate float32 `json:"learning_rate"`
	BestLoss     float32 `json:"best_loss"`
	BestAccuracy float32 `json:"best_accuracy"`
	TotalSteps   int     `json:"total_steps"`
}

// CheckpointMetadata contains checkpoint metadata
type CheckpointMetadata struct {
	Version      string    `json:"version"`
	Framework    string    `json:"framework"`
	KerasVersion string    `json:"keras_version"`
	CreatedAt    time.Time `json:"created_at"`
	Description  string    `json:"description,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
}

// Validate checks that the topology is a JSON document
func (c *Checkpoint) Validate() error {
	if c == nil {
		return errors.New("checkpoint is nil")
	}
	if c.Topology == "" || !json.Valid([]byte(c.Topology)) {
		return ErrInvalidTopology
	}
	return nil
}

// CheckpointSaver handles saving model checkpoints in various formats
type CheckpointSaver struct {
	format CheckpointFormat
}

// NewCheckpointSaver creates a new checkpoint saver for the specified format
func NewCheckpointSaver(format CheckpointFormat) *CheckpointSaver {
	return &CheckpointSaver{
		format: format,
	}
}

// SaveCheckpoint validates and saves a checkpoint. Metadata is filled in
// when the framework is not set.
func (cs *CheckpointSaver) SaveCheckpoint(checkpoint *Checkpoint, path string) error {
	if err := checkpoint.Validate(); err != nil {
		return err
	}
	if checkpoint.Metadata.Framework == "" {
		checkpoint.Metadata.Framework = "go-keras"
		checkpoint.Metadata.Version = "1.0.0"
		checkpoint.Metadata.KerasVersion = layers.KerasVersion
		checkpoint.Metadata.CreatedAt = time.Now()
	}

	switch cs.format {
	case FormatJSON:
		return cs.saveJSON(checkpoint, path)
	case FormatProto:
		return cs.saveProto(checkpoint, path)
	default:
		return errors.Errorf("unsupported checkpoint format: %s", cs.format.String())
	}
}

// LoadCheckpoint loads and validates a checkpoint
func (cs *CheckpointSaver) LoadCheckpoint(path string) (*Checkpoint, error) {
	var (
		checkpoint *Checkpoint
		err        error
	)
	switch cs.format {
	case FormatJSON:
		checkpoint, err = cs.loadJSON(path)
	case FormatProto:
		checkpoint, err = cs.loadProto(path)
	default:
		return nil, errors.Errorf("unsupported checkpoint format: %s", cs.format.String())
	}
	if err != nil {
		return nil, err
	}
	if err := checkpoint.Validate(); err != nil {
		return nil, errors.Wrapf(err, "checkpoint %s", path)
	}
	return checkpoint, nil
}

// saveJSON saves checkpoint in JSON format
func (cs *CheckpointSaver) saveJSON(checkpoint *Checkpoint, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create checkpoint file")
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(checkpoint); err != nil {
		return errors.Wrap(err, "failed to encode checkpoint")
	}
	return nil
}

// loadJSON loads checkpoint from JSON format
func (cs *CheckpointSaver) loadJSON(path string) (*Checkpoint, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open checkpoint file")
	}
	defer file.Close()

	var checkpoint Checkpoint
	if err := json.NewDecoder(file).Decode(&checkpoint); err != nil {
		return nil, errors.Wrap(err, "failed to decode checkpoint")
	}
	return &checkpoint, nil
}
