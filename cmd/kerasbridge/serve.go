package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"

	"github.com/tsawler/go-keras/bridge"
)

// runServe hosts a local runtime on stdin/stdout, so this binary can be
// configured as the worker of another process. Logs go to stderr.
func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	verbose := fs.Bool("v", false, "log session start and end")
	fs.Parse(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess := bridge.NewLocal()
	defer sess.Close()

	if *verbose {
		log.Printf("serving local runtime on stdio")
	}
	err := bridge.Serve(ctx, sess, os.Stdin, os.Stdout)
	if *verbose {
		log.Printf("session ended with %d live objects", sess.Len())
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
