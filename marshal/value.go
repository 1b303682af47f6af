package marshal

import (
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tsawler/go-keras/bridge"
	"github.com/tsawler/go-keras/shape"
)

// ErrUnsupportedType is wrapped by every UnsupportedTypeError
var ErrUnsupportedType = errors.New("type is not yet supported")

// UnsupportedTypeError reports a value that has no foreign representation.
// It signals a programming error and is never recovered from.
type UnsupportedTypeError struct {
	Type string
}

func (e *UnsupportedTypeError) Error() string {
	return "Type is not yet supported: " + e.Type
}

// Unwrap returns ErrUnsupportedType
func (e *UnsupportedTypeError) Unwrap() error {
	return ErrUnsupportedType
}

// Config is implemented by typed records that serialize to a Keras object
// config, {"class_name": ..., "config": {...}}.
type Config interface {
	ClassName() string
	Params() *Params
}

// Handler is implemented by proxies of objects living in the runtime
type Handler interface {
	Handle() bridge.Handle
}

// ToForeign converts a Go value to its foreign representation. Only the types
// listed in the switch are supported; anything else fails with an
// *UnsupportedTypeError naming the type.
func ToForeign(v interface{}) (*structpb.Value, error) {
	// a nil pointer, typed or not, is None
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Ptr && rv.IsNil() {
		return bridge.None(), nil
	}
	switch x := v.(type) {
	case nil:
		return bridge.None(), nil
	case *structpb.Value:
		if x == nil {
			return bridge.None(), nil
		}
		return x, nil
	case bool:
		return structpb.NewBoolValue(x), nil
	case string:
		return structpb.NewStringValue(x), nil
	case int:
		return structpb.NewNumberValue(float64(x)), nil
	case int8:
		return structpb.NewNumberValue(float64(x)), nil
	case int16:
		return structpb.NewNumberValue(float64(x)), nil
	case int32:
		return structpb.NewNumberValue(float64(x)), nil
	case int64:
		return structpb.NewNumberValue(float64(x)), nil
	case uint:
		return structpb.NewNumberValue(float64(x)), nil
	case uint8:
		return structpb.NewNumberValue(float64(x)), nil
	case uint16:
		return structpb.NewNumberValue(float64(x)), nil
	case uint32:
		return structpb.NewNumberValue(float64(x)), nil
	case uint64:
		return structpb.NewNumberValue(float64(x)), nil
	case float32:
		return structpb.NewNumberValue(float64(x)), nil
	case float64:
		return structpb.NewNumberValue(x), nil
	case []int:
		return numberList(len(x), func(i int) float64 { return float64(x[i]) }), nil
	case []int32:
		return numberList(len(x), func(i int) float64 { return float64(x[i]) }), nil
	case []int64:
		return numberList(len(x), func(i int) float64 { return float64(x[i]) }), nil
	case []float32:
		return numberList(len(x), func(i int) float64 { return float64(x[i]) }), nil
	case []float64:
		return numberList(len(x), func(i int) float64 { return x[i] }), nil
	case []string:
		values := make([]*structpb.Value, len(x))
		for i, s := range x {
			values[i] = structpb.NewStringValue(s)
		}
		return listValue(values), nil
	case []bool:
		values := make([]*structpb.Value, len(x))
		for i, b := range x {
			values[i] = structpb.NewBoolValue(b)
		}
		return listValue(values), nil
	case []interface{}:
		values := make([]*structpb.Value, len(x))
		for i, item := range x {
			fv, err := ToForeign(item)
			if err != nil {
				return nil, err
			}
			values[i] = fv
		}
		return listValue(values), nil
	case map[string]interface{}:
		fields := make(map[string]*structpb.Value, len(x))
		for k, item := range x {
			fv, err := ToForeign(item)
			if err != nil {
				return nil, err
			}
			fields[k] = fv
		}
		return structpb.NewStructValue(&structpb.Struct{Fields: fields}), nil
	case shape.Shape:
		return tupleOf(x.Dims), nil
	case shape.Tuple1:
		return tupleOf(x.Shape().Dims), nil
	case shape.Tuple2:
		return tupleOf(x.Shape().Dims), nil
	case shape.Tuple3:
		return tupleOf(x.Shape().Dims), nil
	case bridge.Handle:
		return bridge.HandleValue(x), nil
	case Handler:
		return bridge.HandleValue(x.Handle()), nil
	case Config:
		return configValue(x)
	}
	return nil, &UnsupportedTypeError{Type: typeName(v)}
}

func typeName(v interface{}) string {
	return reflect.TypeOf(v).String()
}

func listValue(values []*structpb.Value) *structpb.Value {
	return structpb.NewListValue(&structpb.ListValue{Values: values})
}

func numberList(n int, at func(int) float64) *structpb.Value {
	values := make([]*structpb.Value, n)
	for i := range values {
		values[i] = structpb.NewNumberValue(at(i))
	}
	return listValue(values)
}

func tupleOf(dims []int) *structpb.Value {
	items := make([]*structpb.Value, len(dims))
	for i, d := range dims {
		if d == shape.Unknown {
			items[i] = bridge.None()
			continue
		}
		items[i] = structpb.NewNumberValue(float64(d))
	}
	return bridge.TupleValue(items...)
}

func configValue(c Config) (*structpb.Value, error) {
	fields, err := ForeignFields(c.Params())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to serialize %s", c.ClassName())
	}
	return structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
		"class_name": structpb.NewStringValue(c.ClassName()),
		"config":     structpb.NewStructValue(&structpb.Struct{Fields: fields}),
	}}), nil
}

// ForeignFields converts every parameter that is not skippable, see Args
func ForeignFields(p *Params) (map[string]*structpb.Value, error) {
	fields := make(map[string]*structpb.Value, p.Len())
	for _, k := range p.Keys() {
		v, _ := p.Get(k)
		if skippable(v) {
			continue
		}
		fv, err := ToForeign(v)
		if err != nil {
			return nil, errors.Wrapf(err, "parameter %s", k)
		}
		fields[k] = fv
	}
	return fields, nil
}

// skippable reports whether a keyword argument is left out of a call:
// nil values, nil pointers and blank strings.
func skippable(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case *structpb.Value:
		return x == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// FromForeign decodes a foreign value into plain Go values: float64, string,
// bool, []interface{}, map[string]interface{}, bridge.Handle for object
// references and shape.Shape for integer tuples.
func FromForeign(v *structpb.Value) interface{} {
	if bridge.IsNone(v) {
		return nil
	}
	if h, ok := bridge.AsHandle(v); ok {
		return h
	}
	if items, ok := bridge.AsTuple(v); ok {
		if s, isShape := tupleShape(items); isShape {
			return s
		}
		return fromList(items)
	}

	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		return k.NumberValue
	case *structpb.Value_StringValue:
		return k.StringValue
	case *structpb.Value_BoolValue:
		return k.BoolValue
	case *structpb.Value_ListValue:
		return fromList(k.ListValue.GetValues())
	case *structpb.Value_StructValue:
		out := make(map[string]interface{}, len(k.StructValue.GetFields()))
		for name, f := range k.StructValue.GetFields() {
			out[name] = FromForeign(f)
		}
		return out
	}
	return nil
}

func fromList(values []*structpb.Value) []interface{} {
	out := make([]interface{}, len(values))
	for i, item := range values {
		out[i] = FromForeign(item)
	}
	return out
}

func tupleShape(items []*structpb.Value) (shape.Shape, bool) {
	dims := make([]int, len(items))
	for i, item := range items {
		if bridge.IsNone(item) {
			dims[i] = shape.Unknown
			continue
		}
		n, ok := item.GetKind().(*structpb.Value_NumberValue)
		if !ok || n.NumberValue != math.Trunc(n.NumberValue) {
			return shape.Shape{}, false
		}
		dims[i] = int(n.NumberValue)
	}
	return shape.Shape{Dims: dims}, true
}

// String renders a foreign value for logs and error messages
func String(v *structpb.Value) string {
	return fmt.Sprint(FromForeign(v))
}
