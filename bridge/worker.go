package bridge

import (
	"context"
	"io"
	"os"
	"os/exec"

	"github.com/pkg/errors"
)

// WorkerConfig describes the external process hosting the Keras runtime.
//
// The process must speak the pipe protocol on its stdin and stdout: each
// message is a google.protobuf.Struct prefixed by its varint encoded length.
// Requests carry {id, op, target, name, args, kwargs, value} with op one of
// import, call, getattr or setattr. Every request is answered, in order, by
// {id, value} or {id, error: {type, message}}. Objects that are not plain
// values travel as {"__handle__": id, "__class__": name} and tuples as
// {"__tuple__": [...]}. The worker exits when stdin is closed.
//
// "kerasbridge serve" implements the protocol over the in-process runtime and
// examples/worker/keras_worker.py implements it over TensorFlow Keras.
type WorkerConfig struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
	Env     []string `json:"env,omitempty"`
	Dir     string   `json:"dir,omitempty"`
}

// Validate checks that a command is set
func (wc WorkerConfig) Validate() error {
	if wc.Command == "" {
		return errors.New("worker command is required")
	}
	return nil
}

type workerCloser struct {
	stdin io.Closer
	cmd   *exec.Cmd
}

// Close closes stdin so the worker can exit on its own and then reaps it. A
// worker that cannot be told to stop is killed. The process is always waited
// for.
func (wc *workerCloser) Close() error {
	closeErr := wc.stdin.Close()
	if closeErr != nil && wc.cmd.Process != nil {
		wc.cmd.Process.Kill()
	}
	waitErr := wc.cmd.Wait()

	if closeErr != nil {
		return errors.Wrap(closeErr, "failed to close worker stdin")
	}
	if waitErr != nil {
		return errors.Wrap(waitErr, "worker exited with error")
	}
	return nil
}

// Spawn starts the worker process and returns a pipe session connected to it.
// The process is killed if ctx is cancelled.
func Spawn(ctx context.Context, cfg WorkerConfig) (*Pipe, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, cfg.Command, cfg.Args...)
	cmd.Dir = cfg.Dir
	cmd.Stderr = os.Stderr
	if len(cfg.Env) > 0 {
		cmd.Env = append(os.Environ(), cfg.Env...)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.Wrap(err, "failed to open worker stdin")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, "failed to open worker stdout")
	}

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "failed to start worker %s", cfg.Command)
	}

	return NewPipe(stdout, stdin, &workerCloser{stdin: stdin, cmd: cmd}), nil
}
