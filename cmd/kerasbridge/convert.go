package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/pkg/errors"

	"github.com/tsawler/go-keras/convert"
	"github.com/tsawler/go-keras/deeplearning"
	"github.com/tsawler/go-keras/diag"
	"github.com/tsawler/go-keras/layers"
)

func runConvert(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	in := fs.String("in", "", "Keras topology JSON file (model.to_json output)")
	roundTrip := fs.Bool("roundtrip", false, "convert back and print the regenerated topology JSON")
	quiet := fs.Bool("quiet", false, "do not log diagnostics while converting")
	fs.Parse(args)

	if *in == "" {
		return errors.New("convert: -in is required")
	}
	data, err := os.ReadFile(*in)
	if err != nil {
		return errors.Wrap(err, "convert")
	}
	topology, err := layers.DecodeTopology(data)
	if err != nil {
		return errors.Wrapf(err, "convert %s", *in)
	}

	logger := log.Default()
	if *quiet {
		logger = log.New(io.Discard, "", 0)
	}
	rec := diag.New(logger)
	c := convert.New(rec)

	var out []byte
	switch {
	case topology.Sequential != nil:
		spec := topology.Sequential
		modules := c.FromKerasModel(spec)
		seq := &deeplearning.Sequential{Name: spec.Name, InputShape: spec.ResolvedInputShape()}
		for i, m := range modules {
			if m == nil {
				fmt.Printf("%3d  %-28s -\n", i, spec.Layers[i].LayerName())
				continue
			}
			fmt.Printf("%3d  %-28s %T %+v\n", i, spec.Layers[i].LayerName(), m, m)
			seq.Modules = append(seq.Modules, m)
		}
		if *roundTrip {
			spec, err := convert.ToKerasSequential(seq)
			if err != nil {
				return err
			}
			if out, err = spec.ToJSON(); err != nil {
				return err
			}
		}
	case topology.Graph != nil:
		g := c.FromKerasGraph(topology.Graph)
		for _, gi := range g.Inputs {
			fmt.Printf("input %-24s %v\n", gi.Name, gi.Shape)
		}
		for _, n := range g.Nodes {
			fmt.Printf("node  %-24s %T %+v\n", n.Name, n.Module, n.Module)
		}
		for _, e := range g.Edges {
			fmt.Printf("edge  %s -> %s\n", e.From, e.To)
		}
		fmt.Printf("outputs %v\n", g.Outputs)
		if *roundTrip {
			spec, err := convert.ToKerasGraph(g)
			if err != nil {
				return err
			}
			if out, err = spec.ToJSON(); err != nil {
				return err
			}
		}
	default:
		return errors.Errorf("convert: %s holds no model", *in)
	}

	if out != nil {
		fmt.Println(string(out))
	}
	if n := len(rec.Messages(diag.Error)); n > 0 {
		fmt.Printf("%d layer(s) could not be converted\n", n)
	}
	return nil
}
