package bridge

import (
	"bufio"
	"context"
	"io"
	"sync"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protodelim"
	"google.golang.org/protobuf/types/known/structpb"
)

// Pipe is a Session that talks to a runtime over a byte stream. Messages are
// length delimited protobuf Structs. Requests are strictly sequential: one
// request is written, then its response is read.
type Pipe struct {
	mu     sync.Mutex
	r      *bufio.Reader
	w      io.Writer
	c      io.Closer
	nextID uint64
	closed bool
}

// NewPipe creates a pipe session. c may be nil when nothing needs closing.
func NewPipe(r io.Reader, w io.Writer, c io.Closer) *Pipe {
	return &Pipe{
		r: bufio.NewReader(r),
		w: w,
		c: c,
	}
}

// Import implements Session
func (p *Pipe) Import(ctx context.Context, module string) (Handle, error) {
	v, err := p.roundTrip(ctx, &Request{Op: OpImport, Name: module})
	if err != nil {
		return Handle{}, err
	}
	h, ok := AsHandle(v)
	if !ok {
		return Handle{}, errors.Errorf("import %s: runtime did not return a handle", module)
	}
	return h, nil
}

// Call implements Session
func (p *Pipe) Call(ctx context.Context, target Handle, name string, args []*structpb.Value, kwargs map[string]*structpb.Value) (*structpb.Value, error) {
	return p.roundTrip(ctx, &Request{Op: OpCall, Target: target, Name: name, Args: args, Kwargs: kwargs})
}

// GetAttr implements Session
func (p *Pipe) GetAttr(ctx context.Context, target Handle, name string) (*structpb.Value, error) {
	return p.roundTrip(ctx, &Request{Op: OpGetAttr, Target: target, Name: name})
}

// SetAttr implements Session
func (p *Pipe) SetAttr(ctx context.Context, target Handle, name string, value *structpb.Value) error {
	_, err := p.roundTrip(ctx, &Request{Op: OpSetAttr, Target: target, Name: name, Value: value})
	return err
}

// Close implements Session
func (p *Pipe) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	if p.c != nil {
		return p.c.Close()
	}
	return nil
}

func (p *Pipe) roundTrip(ctx context.Context, req *Request) (*structpb.Value, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.nextID++
	req.ID = p.nextID

	if _, err := protodelim.MarshalTo(p.w, req.Encode()); err != nil {
		return nil, p.fail(errors.Wrapf(err, "failed to send %s request", req.Op))
	}

	var msg structpb.Struct
	if err := protodelim.UnmarshalFrom(p.r, &msg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, p.fail(errors.Wrap(ErrClosed, "runtime closed the pipe"))
		}
		return nil, p.fail(errors.Wrapf(err, "failed to read %s response", req.Op))
	}

	resp := DecodeResponse(&msg)
	if resp.ID != req.ID {
		return nil, p.fail(errors.Errorf("response id %d does not match request id %d", resp.ID, req.ID))
	}
	if resp.Err != nil {
		return nil, resp.Err
	}
	return resp.Value, nil
}

// fail closes a pipe whose stream can no longer be trusted to be in step.
// Later requests fail with ErrClosed. p.mu must be held.
func (p *Pipe) fail(err error) error {
	p.closed = true
	if p.c != nil {
		p.c.Close()
	}
	return err
}
