package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tsawler/go-keras/checkpoints"
	"github.com/tsawler/go-keras/layers"
)

func runInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	in := fs.String("in", "", "checkpoint to print")
	raw := fs.Bool("raw", false, "print a proto checkpoint message as JSON")
	fs.Parse(args)

	if *in == "" {
		return errors.New("inspect: -in is required")
	}

	format := formatFor(*in)
	if *raw && format == checkpoints.FormatProto {
		data, err := os.ReadFile(*in)
		if err != nil {
			return errors.Wrap(err, "inspect")
		}
		var msg structpb.Struct
		if err := proto.Unmarshal(data, &msg); err != nil {
			return errors.Wrapf(err, "inspect %s", *in)
		}
		text, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(&msg)
		if err != nil {
			return err
		}
		fmt.Println(string(text))
		return nil
	}

	cp, err := checkpoints.NewCheckpointSaver(format).LoadCheckpoint(*in)
	if err != nil {
		return errors.Wrap(err, "inspect")
	}

	md := cp.Metadata
	fmt.Printf("format:      %s\n", format)
	fmt.Printf("framework:   %s %s (keras %s)\n", md.Framework, md.Version, md.KerasVersion)
	fmt.Printf("created:     %s\n", md.CreatedAt.Format("2006-01-02 15:04:05"))
	if md.Description != "" {
		fmt.Printf("description: %s\n", md.Description)
	}
	if len(md.Tags) > 0 {
		fmt.Printf("tags:        %v\n", md.Tags)
	}
	st := cp.TrainingState
	fmt.Printf("epoch:       %d (step %d, lr %g)\n", st.Epoch, st.Step, st.LearningRate)
	fmt.Printf("weights:     %d bytes\n", len(cp.Weights))
	if cp.OptimizerState != nil {
		fmt.Printf("optimizer:   %s\n", cp.OptimizerState.Type)
	}

	topology, err := layers.DecodeTopology([]byte(cp.Topology))
	if err != nil {
		fmt.Printf("topology:    undecodable: %v\n", err)
		return nil
	}
	switch {
	case topology.Sequential != nil:
		fmt.Printf("model:       %s (%d layers)\n", topology.ClassName, len(topology.Sequential.Layers))
		for i, l := range topology.Sequential.Layers {
			fmt.Printf("  %3d %-24s %s\n", i, l.LayerName(), l.ClassName())
		}
	case topology.Graph != nil:
		fmt.Printf("model:       %s (%d layers)\n", topology.ClassName, len(topology.Graph.Layers))
		for _, gl := range topology.Graph.Layers {
			fmt.Printf("  %-28s %s\n", gl.Layer.LayerName(), gl.Layer.ClassName())
		}
	}
	return nil
}

func writeFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}
