package bridge

import (
	"context"
	"strings"
	"sync"
	"unicode"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/types/known/structpb"
)

type objectKind int

const (
	kindModule objectKind = iota
	kindLayer
	kindModel
	kindTensor
	kindObject
)

// localObject is one object owned by the local runtime. Only the fields that
// apply to its kind are populated.
type localObject struct {
	id     uint64
	kind   objectKind
	class  string
	module string
	config map[string]*structpb.Value
	attrs  map[string]*structpb.Value

	// models
	layers     []uint64
	losses     []*structpb.Value
	compiled   map[string]*structpb.Value
	weights    []byte
	functional bool
	inputs     []uint64
	outputs    []uint64

	// layers: one entry per call, holding the inbound tensors of that call
	nodes [][]uint64

	// tensors: produced by node `node` of layer `source`
	source uint64
	node   int
}

func (o *localObject) handle() Handle {
	return Handle{ID: o.id, Class: o.class}
}

func (o *localObject) name() string {
	return o.config["name"].GetStringValue()
}

// Local is an in-process Keras runtime. It records every object the caller
// constructs together with its configuration, and implements the model
// plumbing that does not need tensors: building Sequential and functional
// models, compiling them, exporting and importing topology JSON and moving
// weight blobs to and from disk. Calls that would evaluate tensors return
// ErrNotSupported.
type Local struct {
	mu         sync.Mutex
	objects    map[uint64]*localObject
	modules    map[string]uint64
	names      map[string]int
	signatures map[string][]string
	nextID     uint64
	closed     bool
}

// LocalOption configures a Local runtime
type LocalOption func(*Local)

// WithSignature declares the leading positional parameter names of a class,
// method or module function. Positional arguments are bound to these names.
func WithSignature(callee string, positional ...string) LocalOption {
	return func(l *Local) {
		l.signatures[callee] = positional
	}
}

// NewLocal creates an empty in-process runtime
func NewLocal(opts ...LocalOption) *Local {
	l := &Local{
		objects:    make(map[uint64]*localObject),
		modules:    make(map[string]uint64),
		names:      make(map[string]int),
		signatures: make(map[string][]string, len(defaultSignatures)),
	}
	for k, v := range defaultSignatures {
		l.signatures[k] = v
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Len returns the number of live objects, modules included
func (l *Local) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.objects)
}

// Import implements Session
func (l *Local) Import(ctx context.Context, module string) (Handle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.check(ctx); err != nil {
		return Handle{}, err
	}
	if strings.TrimSpace(module) == "" {
		return Handle{}, &RemoteError{Type: "ModuleNotFoundError", Message: "empty module name"}
	}
	return l.importModule(module).handle(), nil
}

// Call implements Session
func (l *Local) Call(ctx context.Context, target Handle, name string, args []*structpb.Value, kwargs map[string]*structpb.Value) (*structpb.Value, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.check(ctx); err != nil {
		return nil, err
	}
	obj, err := l.lookup(target)
	if err != nil {
		return nil, err
	}

	switch obj.kind {
	case kindModule:
		return l.callModule(obj, name, args, kwargs)
	case kindModel:
		return l.callModel(obj, name, args, kwargs)
	case kindLayer:
		return l.callLayer(obj, name, args, kwargs)
	case kindTensor:
		return nil, errors.Wrapf(ErrNotSupported, "tensor operation %s", name)
	}
	return l.callObject(obj, name, args, kwargs)
}

// GetAttr implements Session
func (l *Local) GetAttr(ctx context.Context, target Handle, name string) (*structpb.Value, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.check(ctx); err != nil {
		return nil, err
	}
	obj, err := l.lookup(target)
	if err != nil {
		return nil, err
	}

	switch obj.kind {
	case kindModule:
		// attribute access on a module reaches its submodules
		return HandleValue(l.importModule(obj.module + "." + name).handle()), nil
	case kindTensor:
		if name == "name" {
			src := l.objects[obj.source]
			return structpb.NewStringValue(src.name()), nil
		}
	case kindModel:
		switch name {
		case "layers":
			return l.handleList(obj.layers), nil
		case "inputs":
			return l.handleList(obj.inputs), nil
		case "outputs":
			return l.handleList(obj.outputs), nil
		}
	}

	if v, ok := obj.config[name]; ok {
		return v, nil
	}
	if v, ok := obj.attrs[name]; ok {
		return v, nil
	}
	return nil, errors.Wrapf(ErrNoAttribute, "%s has no attribute %q", obj.class, name)
}

// SetAttr implements Session
func (l *Local) SetAttr(ctx context.Context, target Handle, name string, value *structpb.Value) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.check(ctx); err != nil {
		return err
	}
	obj, err := l.lookup(target)
	if err != nil {
		return err
	}
	if value == nil {
		value = None()
	}
	if _, ok := obj.config[name]; ok {
		obj.config[name] = value
		return nil
	}
	obj.attrs[name] = value
	return nil
}

// Close implements Session
func (l *Local) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.closed = true
	l.objects = make(map[uint64]*localObject)
	l.modules = make(map[string]uint64)
	return nil
}

func (l *Local) check(ctx context.Context) error {
	if l.closed {
		return ErrClosed
	}
	return ctx.Err()
}

func (l *Local) lookup(h Handle) (*localObject, error) {
	obj, ok := l.objects[h.ID]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownHandle, "%s", h)
	}
	return obj, nil
}

func (l *Local) newObject(kind objectKind, class, module string) *localObject {
	l.nextID++
	obj := &localObject{
		id:     l.nextID,
		kind:   kind,
		class:  class,
		module: module,
		config: make(map[string]*structpb.Value),
		attrs:  make(map[string]*structpb.Value),
	}
	l.objects[obj.id] = obj
	return obj
}

func (l *Local) importModule(module string) *localObject {
	if id, ok := l.modules[module]; ok {
		return l.objects[id]
	}
	obj := l.newObject(kindModule, "module", module)
	l.modules[module] = obj.id
	return obj
}

func (l *Local) handleList(ids []uint64) *structpb.Value {
	values := make([]*structpb.Value, len(ids))
	for i, id := range ids {
		values[i] = HandleValue(l.objects[id].handle())
	}
	return structpb.NewListValue(&structpb.ListValue{Values: values})
}

// bind maps positional arguments onto the declared parameter names of callee
// and merges the keyword arguments.
func (l *Local) bind(callee string, args []*structpb.Value, kwargs map[string]*structpb.Value) (map[string]*structpb.Value, error) {
	bound := make(map[string]*structpb.Value, len(args)+len(kwargs))
	if len(args) > 0 {
		names, ok := l.signatures[callee]
		if !ok {
			return nil, &RemoteError{
				Type:    "TypeError",
				Message: callee + "() positional parameters are not known to this runtime",
			}
		}
		if len(args) > len(names) {
			return nil, &RemoteError{
				Type:    "TypeError",
				Message: callee + "() got too many positional arguments",
			}
		}
		for i, v := range args {
			bound[names[i]] = v
		}
	}
	for k, v := range kwargs {
		if _, dup := bound[k]; dup {
			return nil, &RemoteError{
				Type:    "TypeError",
				Message: callee + "() got multiple values for argument '" + k + "'",
			}
		}
		bound[k] = v
	}
	return bound, nil
}

func moduleLeaf(module string) string {
	if i := strings.LastIndex(module, "."); i >= 0 {
		return module[i+1:]
	}
	return module
}

func isClassName(name string) bool {
	for _, r := range name {
		return unicode.IsUpper(r)
	}
	return false
}

func (l *Local) callModule(mod *localObject, name string, args []*structpb.Value, kwargs map[string]*structpb.Value) (*structpb.Value, error) {
	if name == "" {
		return nil, &RemoteError{Type: "TypeError", Message: "'module' object is not callable"}
	}

	leaf := moduleLeaf(mod.module)
	switch {
	case leaf == "models" && (name == "Sequential"):
		return l.newSequential(mod, args, kwargs)
	case leaf == "models" && (name == "Model" || name == "Functional"):
		return l.newFunctional(mod, name, args, kwargs)
	case leaf == "models" && name == "model_from_json":
		return l.modelFromJSON(mod, args, kwargs)
	case leaf == "layers" && name == "Input":
		return l.newInput(mod, args, kwargs)
	case !isClassName(name):
		return nil, errors.Wrapf(ErrNotSupported, "%s.%s", mod.module, name)
	}

	config, err := l.bind(name, args, kwargs)
	if err != nil {
		return nil, err
	}

	kind := kindObject
	if leaf == "layers" {
		kind = kindLayer
	}
	obj := l.newObject(kind, name, mod.module)
	obj.config = config
	if kind == kindLayer {
		l.ensureName(obj)
	}
	return HandleValue(obj.handle()), nil
}

func (l *Local) ensureName(obj *localObject) {
	if n := obj.config["name"]; n != nil && strings.TrimSpace(n.GetStringValue()) != "" {
		return
	}
	obj.config["name"] = structpb.NewStringValue(l.uniqueName(snakeCase(obj.class)))
}

func (l *Local) callObject(obj *localObject, name string, args []*structpb.Value, kwargs map[string]*structpb.Value) (*structpb.Value, error) {
	switch name {
	case "get_config":
		return l.serializeConfig(obj), nil
	}
	return nil, errors.Wrapf(ErrNotSupported, "method %s", callName(name))
}

func (l *Local) callLayer(layer *localObject, name string, args []*structpb.Value, kwargs map[string]*structpb.Value) (*structpb.Value, error) {
	switch name {
	case "get_config":
		return l.serializeConfig(layer), nil
	case "", "__call__":
	default:
		return nil, errors.Wrapf(ErrNotSupported, "method %s", name)
	}

	bound, err := l.bind("__call__", args, kwargs)
	if err != nil {
		return nil, err
	}
	inbound, err := l.tensorArgs(bound["inputs"])
	if err != nil {
		return nil, err
	}
	return HandleValue(l.addNode(layer, inbound).handle()), nil
}

// addNode records a call of layer on the inbound tensors and returns the
// tensor it produces.
func (l *Local) addNode(layer *localObject, inbound []uint64) *localObject {
	layer.nodes = append(layer.nodes, inbound)
	t := l.newObject(kindTensor, "KerasTensor", layer.module)
	t.source = layer.id
	t.node = len(layer.nodes) - 1
	return t
}

// tensorArgs accepts a tensor handle or a list of them
func (l *Local) tensorArgs(v *structpb.Value) ([]uint64, error) {
	if IsNone(v) {
		return nil, &RemoteError{Type: "ValueError", Message: "layer called without inputs"}
	}
	values := []*structpb.Value{v}
	if list := v.GetListValue(); list != nil {
		values = list.GetValues()
	} else if items, ok := AsTuple(v); ok {
		values = items
	}

	ids := make([]uint64, 0, len(values))
	for _, item := range values {
		h, ok := AsHandle(item)
		if !ok {
			return nil, &RemoteError{Type: "TypeError", Message: "inputs must be KerasTensor objects"}
		}
		obj, err := l.lookup(h)
		if err != nil {
			return nil, err
		}
		if obj.kind != kindTensor {
			return nil, &RemoteError{Type: "TypeError", Message: obj.class + " is not a KerasTensor"}
		}
		ids = append(ids, obj.id)
	}
	return ids, nil
}

func callName(name string) string {
	if name == "" {
		return "__call__"
	}
	return name
}
