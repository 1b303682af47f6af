// Command kerasbridge converts Keras model topologies to deep-learning
// descriptors, moves checkpoints between formats and serves the in-process
// runtime over stdin and stdout for use as a worker.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/tsawler/go-keras/checkpoints"
)

const usage = `usage: kerasbridge <command> [flags]

commands:
  convert   convert a Keras topology JSON file to descriptors
  export    rewrite a checkpoint in another format
  serve     serve the local runtime over stdin/stdout
  inspect   print a checkpoint
`

func main() {
	log.SetFlags(0)
	log.SetPrefix("kerasbridge: ")

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "convert":
		err = runConvert(args)
	case "export":
		err = runExport(args)
	case "serve":
		err = runServe(args)
	case "inspect":
		err = runInspect(args)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}

// formatFor picks the checkpoint format from a file extension
func formatFor(path string) checkpoints.CheckpointFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pb", ".proto", ".bin":
		return checkpoints.FormatProto
	}
	return checkpoints.FormatJSON
}
