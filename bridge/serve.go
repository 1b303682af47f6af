package bridge

import (
	"bufio"
	"context"
	"io"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protodelim"
	"google.golang.org/protobuf/types/known/structpb"
)

// Serve answers pipe protocol requests read from r by forwarding them to sess,
// writing responses to w. It returns nil when r reaches EOF.
func Serve(ctx context.Context, sess Session, r io.Reader, w io.Writer) error {
	br := bufio.NewReader(r)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var msg structpb.Struct
		if err := protodelim.UnmarshalFrom(br, &msg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return errors.Wrap(err, "failed to read request")
		}

		resp := dispatch(ctx, sess, &msg)
		if _, err := protodelim.MarshalTo(w, resp.Encode()); err != nil {
			return errors.Wrap(err, "failed to write response")
		}
	}
}

func dispatch(ctx context.Context, sess Session, msg *structpb.Struct) *Response {
	req, err := DecodeRequest(msg)
	if err != nil {
		return &Response{Err: &RemoteError{Type: "ValueError", Message: err.Error()}}
	}

	resp := &Response{ID: req.ID}
	var value *structpb.Value

	switch req.Op {
	case OpImport:
		var h Handle
		h, err = sess.Import(ctx, req.Name)
		if err == nil {
			value = HandleValue(h)
		}
	case OpCall:
		value, err = sess.Call(ctx, req.Target, req.Name, req.Args, req.Kwargs)
	case OpGetAttr:
		value, err = sess.GetAttr(ctx, req.Target, req.Name)
	case OpSetAttr:
		err = sess.SetAttr(ctx, req.Target, req.Name, req.Value)
	default:
		err = &RemoteError{Type: "ValueError", Message: "unknown op " + string(req.Op)}
	}

	if err != nil {
		resp.Err = remoteErrorFor(err)
		return resp
	}
	resp.Value = value
	return resp
}
