package main

import (
	"flag"
	"fmt"

	"github.com/pkg/errors"

	"github.com/tsawler/go-keras/checkpoints"
)

func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	in := fs.String("in", "", "checkpoint to read (.json, or .pb for proto)")
	out := fs.String("out", "", "checkpoint to write; the extension picks the format")
	topology := fs.String("topology", "", "also write the model topology JSON to this file")
	fs.Parse(args)

	if *in == "" || *out == "" {
		return errors.New("export: -in and -out are required")
	}

	cp, err := checkpoints.NewCheckpointSaver(formatFor(*in)).LoadCheckpoint(*in)
	if err != nil {
		return errors.Wrap(err, "export")
	}
	format := formatFor(*out)
	if err := checkpoints.NewCheckpointSaver(format).SaveCheckpoint(cp, *out); err != nil {
		return errors.Wrap(err, "export")
	}
	fmt.Printf("wrote %s checkpoint %s\n", format, *out)

	if *topology != "" {
		if err := writeFile(*topology, []byte(cp.Topology)); err != nil {
			return errors.Wrap(err, "export")
		}
		fmt.Printf("wrote topology %s\n", *topology)
	}
	return nil
}
