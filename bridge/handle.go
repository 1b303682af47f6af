package bridge

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

const (
	handleKey = "__handle__"
	classKey  = "__class__"
	tupleKey  = "__tuple__"
)

// Handle references an object living inside the foreign runtime.
type Handle struct {
	ID    uint64
	Class string
}

// Valid reports whether the handle refers to an object
func (h Handle) Valid() bool {
	return h.ID != 0
}

func (h Handle) String() string {
	return fmt.Sprintf("<%s #%d>", h.Class, h.ID)
}

// HandleValue encodes a handle for the wire
func HandleValue(h Handle) *structpb.Value {
	return structpb.NewStructValue(&structpb.Struct{
		Fields: map[string]*structpb.Value{
			handleKey: structpb.NewNumberValue(float64(h.ID)),
			classKey:  structpb.NewStringValue(h.Class),
		},
	})
}

// AsHandle decodes a handle value. ok is false when v is not a handle.
func AsHandle(v *structpb.Value) (Handle, bool) {
	s := v.GetStructValue()
	if s == nil {
		return Handle{}, false
	}
	id, ok := s.Fields[handleKey]
	if !ok {
		return Handle{}, false
	}
	return Handle{
		ID:    uint64(id.GetNumberValue()),
		Class: s.Fields[classKey].GetStringValue(),
	}, true
}

// TupleValue encodes items as a foreign tuple
func TupleValue(items ...*structpb.Value) *structpb.Value {
	return structpb.NewStructValue(&structpb.Struct{
		Fields: map[string]*structpb.Value{
			tupleKey: structpb.NewListValue(&structpb.ListValue{Values: items}),
		},
	})
}

// AsTuple decodes a tuple value. ok is false when v is not a tuple.
func AsTuple(v *structpb.Value) ([]*structpb.Value, bool) {
	s := v.GetStructValue()
	if s == nil {
		return nil, false
	}
	items, ok := s.Fields[tupleKey]
	if !ok {
		return nil, false
	}
	return items.GetListValue().GetValues(), true
}

// None is the foreign None value
func None() *structpb.Value {
	return structpb.NewNullValue()
}

// IsNone reports whether v is missing or None
func IsNone(v *structpb.Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.GetKind().(*structpb.Value_NullValue)
	return ok
}
