// Package bridge carries calls between Go and the foreign Keras runtime.
//
// A Session is the only thing the rest of the module talks to. Values cross the
// boundary as google.protobuf.Value trees; object references cross as handle
// values and tuples as tagged lists, see HandleValue and TupleValue.
//
// The Keras runtime is single threaded. Every Session implementation in this
// package serializes calls with a mutex, so a Session may be shared between
// goroutines, but calls never overlap inside the runtime.
package bridge

import (
	"context"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/types/known/structpb"
)

var (
	// ErrNotSupported is returned for operations the session cannot perform,
	// such as evaluating tensors on the in-process runtime.
	ErrNotSupported = errors.New("operation not supported by this runtime")

	// ErrClosed is returned by every call made after Close.
	ErrClosed = errors.New("session closed")

	// ErrUnknownHandle is returned when a handle does not refer to a live object.
	ErrUnknownHandle = errors.New("unknown handle")

	// ErrNoAttribute is returned when a named attribute does not exist on an object.
	ErrNoAttribute = errors.New("no such attribute")
)

// Session is a connection to a foreign Keras runtime.
type Session interface {
	// Import returns a handle to a module such as "tensorflow.keras.layers".
	Import(ctx context.Context, module string) (Handle, error)

	// Call invokes the attribute name of target with the given arguments.
	// An empty name calls target itself.
	Call(ctx context.Context, target Handle, name string, args []*structpb.Value, kwargs map[string]*structpb.Value) (*structpb.Value, error)

	// GetAttr reads a named attribute of target.
	GetAttr(ctx context.Context, target Handle, name string) (*structpb.Value, error)

	// SetAttr writes a named attribute of target.
	SetAttr(ctx context.Context, target Handle, name string, value *structpb.Value) error

	// Close releases the session. Handles obtained from it become invalid.
	Close() error
}
