package checkpoints

import (
	"encoding/base64"
	"os"
	"time"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tsawler/go-keras/optimizer"
)

// protoVersion is written to every proto checkpoint
const protoVersion = 1

// saveProto saves checkpoint as a binary google.protobuf.Struct
func (cs *CheckpointSaver) saveProto(checkpoint *Checkpoint, path string) error {
	msg, err := encodeProto(checkpoint)
	if err != nil {
		return err
	}
	data, err := proto.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "failed to encode checkpoint")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write checkpoint file")
	}
	return nil
}

// loadProto loads checkpoint from a binary google.protobuf.Struct
func (cs *CheckpointSaver) loadProto(path string) (*Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open checkpoint file")
	}
	var msg structpb.Struct
	if err := proto.Unmarshal(data, &msg); err != nil {
		return nil, errors.Wrap(err, "failed to decode checkpoint")
	}
	return decodeProto(&msg)
}

func encodeProto(c *Checkpoint) (*structpb.Struct, error) {
	tags := make([]interface{}, len(c.Metadata.Tags))
	for i, tag := range c.Metadata.Tags {
		tags[i] = tag
	}

	fields := map[string]interface{}{
		"format_version": protoVersion,
		"topology":       c.Topology,
		"weights":        base64.StdEncoding.EncodeToString(c.Weights),
		"training_state": map[string]interface{}{
			"epoch":         c.TrainingState.Epoch,
			"step":          c.TrainingState.Step,
			"learning_rate": float64(c.TrainingState.LearningRate),
			"best_loss":     float64(c.TrainingState.BestLoss),
			"best_accuracy": float64(c.TrainingState.BestAccuracy),
			"total_steps":   c.TrainingState.TotalSteps,
		},
		"metadata": map[string]interface{}{
			"version":       c.Metadata.Version,
			"framework":     c.Metadata.Framework,
			"keras_version": c.Metadata.KerasVersion,
			"created_at":    c.Metadata.CreatedAt.Format(time.RFC3339Nano),
			"description":   c.Metadata.Description,
			"tags":          tags,
		},
	}
	if s := c.OptimizerState; s != nil {
		fields["optimizer_state"] = map[string]interface{}{
			"type":       s.Type,
			"parameters": s.Parameters,
		}
	}

	msg, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode checkpoint")
	}
	return msg, nil
}

func decodeProto(msg *structpb.Struct) (*Checkpoint, error) {
	f := msg.GetFields()
	if v := int(f["format_version"].GetNumberValue()); v != protoVersion {
		return nil, errors.Errorf("unsupported checkpoint version %d", v)
	}

	weights, err := base64.StdEncoding.DecodeString(f["weights"].GetStringValue())
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode weights")
	}

	ts := f["training_state"].GetStructValue().GetFields()
	md := f["metadata"].GetStructValue().GetFields()

	c := &Checkpoint{
		Topology: f["topology"].GetStringValue(),
		Weights:  weights,
		TrainingState: TrainingState{
			Epoch:        int(ts["epoch"].GetNumberValue()),
			Step:         int(ts["step"].GetNumberValue()),
			LearningRate: float32(ts["learning_rate"].GetNumberValue()),
			BestLoss:     float32(ts["best_loss"].GetNumberValue()),
			BestAccuracy: float32(ts["best_accuracy"].GetNumberValue()),
			TotalSteps:   int(ts["total_steps"].GetNumberValue()),
		},
		Metadata: CheckpointMetadata{
			Version:      md["version"].GetStringValue(),
			Framework:    md["framework"].GetStringValue(),
			KerasVersion: md["keras_version"].GetStringValue(),
			Description:  md["description"].GetStringValue(),
		},
	}
	if s := md["created_at"].GetStringValue(); s != "" {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, errors.Wrap(err, "failed to decode created_at")
		}
		c.Metadata.CreatedAt = t
	}
	for _, tag := range md["tags"].GetListValue().GetValues() {
		c.Metadata.Tags = append(c.Metadata.Tags, tag.GetStringValue())
	}

	if s := f["optimizer_state"].GetStructValue(); s != nil {
		c.OptimizerState = &optimizer.OptimizerState{
			Type:       s.GetFields()["type"].GetStringValue(),
			Parameters: s.GetFields()["parameters"].GetStructValue().AsMap(),
		}
	}
	return c, nil
}
