package bridge

import (
	"fmt"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/types/known/structpb"
)

// Op names a request kind on the pipe protocol.
type Op string

const (
	OpImport  Op = "import"
	OpCall    Op = "call"
	OpGetAttr Op = "getattr"
	OpSetAttr Op = "setattr"
)

// Request is one call sent to the runtime.
type Request struct {
	ID     uint64
	Op     Op
	Target Handle
	Name   string
	Args   []*structpb.Value
	Kwargs map[string]*structpb.Value
	Value  *structpb.Value
}

// Response answers the Request with the same ID.
type Response struct {
	ID    uint64
	Value *structpb.Value
	Err   *RemoteError
}

// RemoteError is an exception raised inside the foreign runtime.
type RemoteError struct {
	Type    string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap maps well known exception types back onto the package sentinels.
func (e *RemoteError) Unwrap() error {
	switch e.Type {
	case "NotImplementedError":
		return ErrNotSupported
	case "ReferenceError":
		return ErrUnknownHandle
	case "AttributeError":
		return ErrNoAttribute
	}
	return nil
}

// remoteErrorFor turns a session error into the exception sent back to the caller
func remoteErrorFor(err error) *RemoteError {
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote
	}
	switch {
	case errors.Is(err, ErrNotSupported):
		return &RemoteError{Type: "NotImplementedError", Message: err.Error()}
	case errors.Is(err, ErrUnknownHandle):
		return &RemoteError{Type: "ReferenceError", Message: err.Error()}
	case errors.Is(err, ErrNoAttribute):
		return &RemoteError{Type: "AttributeError", Message: err.Error()}
	}
	return &RemoteError{Type: "RuntimeError", Message: err.Error()}
}

// Encode packs the request into a Struct message
func (r *Request) Encode() *structpb.Struct {
	fields := map[string]*structpb.Value{
		"id": structpb.NewNumberValue(float64(r.ID)),
		"op": structpb.NewStringValue(string(r.Op)),
	}
	if r.Target.Valid() {
		fields["target"] = HandleValue(r.Target)
	}
	if r.Name != "" {
		fields["name"] = structpb.NewStringValue(r.Name)
	}
	if len(r.Args) > 0 {
		fields["args"] = structpb.NewListValue(&structpb.ListValue{Values: r.Args})
	}
	if len(r.Kwargs) > 0 {
		fields["kwargs"] = structpb.NewStructValue(&structpb.Struct{Fields: r.Kwargs})
	}
	if r.Value != nil {
		fields["value"] = r.Value
	}
	return &structpb.Struct{Fields: fields}
}

// DecodeRequest unpacks a request message
func DecodeRequest(s *structpb.Struct) (*Request, error) {
	f := s.GetFields()
	op, ok := f["op"]
	if !ok {
		return nil, errors.New("request is missing op")
	}
	r := &Request{
		ID:    uint64(f["id"].GetNumberValue()),
		Op:    Op(op.GetStringValue()),
		Name:  f["name"].GetStringValue(),
		Value: f["value"],
	}
	if t, ok := f["target"]; ok {
		h, isHandle := AsHandle(t)
		if !isHandle {
			return nil, errors.Errorf("request %d: target is not a handle", r.ID)
		}
		r.Target = h
	}
	r.Args = f["args"].GetListValue().GetValues()
	r.Kwargs = f["kwargs"].GetStructValue().GetFields()
	return r, nil
}

// Encode packs the response into a Struct message
func (r *Response) Encode() *structpb.Struct {
	fields := map[string]*structpb.Value{
		"id": structpb.NewNumberValue(float64(r.ID)),
	}
	if r.Err != nil {
		fields["error"] = structpb.NewStructValue(&structpb.Struct{
			Fields: map[string]*structpb.Value{
				"type":    structpb.NewStringValue(r.Err.Type),
				"message": structpb.NewStringValue(r.Err.Message),
			},
		})
	} else if r.Value != nil {
		fields["value"] = r.Value
	}
	return &structpb.Struct{Fields: fields}
}

// DecodeResponse unpacks a response message
func DecodeResponse(s *structpb.Struct) *Response {
	f := s.GetFields()
	r := &Response{
		ID:    uint64(f["id"].GetNumberValue()),
		Value: f["value"],
	}
	if e := f["error"].GetStructValue(); e != nil {
		r.Err = &RemoteError{
			Type:    e.Fields["type"].GetStringValue(),
			Message: e.Fields["message"].GetStringValue(),
		}
	}
	if r.Value == nil && r.Err == nil {
		r.Value = None()
	}
	return r
}
