package bridge

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// KerasVersion is the version string the local runtime writes into topology JSON.
const KerasVersion = "2.15.0"

func (l *Local) newSequential(mod *localObject, args []*structpb.Value, kwargs map[string]*structpb.Value) (*structpb.Value, error) {
	bound, err := l.bind("Sequential", args, kwargs)
	if err != nil {
		return nil, err
	}

	model := l.newObject(kindModel, "Sequential", mod.module)
	if n, ok := bound["name"]; ok && !IsNone(n) {
		model.config["name"] = n
	}
	l.ensureName(model)

	if initial, ok := bound["layers"]; ok && !IsNone(initial) {
		for _, item := range initial.GetListValue().GetValues() {
			if err := l.appendLayer(model, item); err != nil {
				l.dropObject(model)
				return nil, err
			}
		}
	}
	return HandleValue(model.handle()), nil
}

func (l *Local) newFunctional(mod *localObject, class string, args []*structpb.Value, kwargs map[string]*structpb.Value) (*structpb.Value, error) {
	bound, err := l.bind(class, args, kwargs)
	if err != nil {
		return nil, err
	}
	inputs, err := l.tensorArgs(bound["inputs"])
	if err != nil {
		return nil, err
	}
	outputs, err := l.tensorArgs(bound["outputs"])
	if err != nil {
		return nil, err
	}

	model := l.newObject(kindModel, "Functional", mod.module)
	model.functional = true
	model.inputs = inputs
	model.outputs = outputs
	if n, ok := bound["name"]; ok && !IsNone(n) {
		model.config["name"] = n
	} else {
		model.config["name"] = structpb.NewStringValue(l.uniqueName("model"))
	}
	model.layers = l.topology(outputs)
	return HandleValue(model.handle()), nil
}

func (l *Local) newInput(mod *localObject, args []*structpb.Value, kwargs map[string]*structpb.Value) (*structpb.Value, error) {
	bound, err := l.bind("Input", args, kwargs)
	if err != nil {
		return nil, err
	}

	layer := l.newObject(kindLayer, "InputLayer", mod.module)
	dims := []*structpb.Value{None()}
	if batch, ok := bound["batch_size"]; ok && !IsNone(batch) {
		dims[0] = batch
	}
	dims = append(dims, listItems(bound["shape"])...)
	layer.config["batch_input_shape"] = structpb.NewListValue(&structpb.ListValue{Values: dims})

	dtype := bound["dtype"]
	if IsNone(dtype) {
		dtype = structpb.NewStringValue("float32")
	}
	layer.config["dtype"] = dtype
	layer.config["sparse"] = structpb.NewBoolValue(bound["sparse"].GetBoolValue())
	if n, ok := bound["name"]; ok && !IsNone(n) {
		layer.config["name"] = n
	} else {
		layer.config["name"] = structpb.NewStringValue(l.uniqueName("input"))
	}

	return HandleValue(l.addNode(layer, nil).handle()), nil
}

// listItems flattens a list, a tuple or a single value into its items
func listItems(v *structpb.Value) []*structpb.Value {
	if IsNone(v) {
		return nil
	}
	if list := v.GetListValue(); list != nil {
		return list.GetValues()
	}
	if items, ok := AsTuple(v); ok {
		return items
	}
	return []*structpb.Value{v}
}

func (l *Local) dropObject(obj *localObject) {
	delete(l.objects, obj.id)
}

func (l *Local) appendLayer(model *localObject, v *structpb.Value) error {
	h, ok := AsHandle(v)
	if !ok {
		return &RemoteError{Type: "TypeError", Message: "the added layer must be an instance of class Layer"}
	}
	layer, err := l.lookup(h)
	if err != nil {
		return err
	}
	if layer.kind != kindLayer && layer.kind != kindModel {
		return &RemoteError{Type: "TypeError", Message: "the added layer must be an instance of class Layer, found " + layer.class}
	}
	model.layers = append(model.layers, layer.id)
	return nil
}

func (l *Local) callModel(model *localObject, name string, args []*structpb.Value, kwargs map[string]*structpb.Value) (*structpb.Value, error) {
	switch name {
	case "add", "add_loss", "compile", "save_weights", "load_weights", "to_json", "get_config", "summary":
	default:
		return nil, errors.Wrapf(ErrNotSupported, "method %s", callName(name))
	}

	bound, err := l.bind(name, args, kwargs)
	if err != nil {
		return nil, err
	}

	switch name {
	case "add":
		if model.functional {
			return nil, &RemoteError{Type: "AttributeError", Message: "'Functional' object has no attribute 'add'"}
		}
		if err := l.appendLayer(model, bound["layer"]); err != nil {
			return nil, err
		}
	case "add_loss":
		model.losses = append(model.losses, listItems(bound["losses"])...)
	case "compile":
		model.compiled = bound
		for _, key := range []string{"optimizer", "loss", "metrics"} {
			if v, ok := bound[key]; ok {
				model.attrs[key] = v
			}
		}
	case "save_weights":
		path := bound["filepath"].GetStringValue()
		if path == "" {
			return nil, &RemoteError{Type: "ValueError", Message: "save_weights requires a filepath"}
		}
		if err := os.WriteFile(path, l.weightsOf(model), 0644); err != nil {
			return nil, &RemoteError{Type: "OSError", Message: err.Error()}
		}
	case "load_weights":
		path := bound["filepath"].GetStringValue()
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &RemoteError{Type: "OSError", Message: err.Error()}
		}
		model.weights = data
	case "to_json":
		text, err := l.toJSON(model)
		if err != nil {
			return nil, err
		}
		return structpb.NewStringValue(text), nil
	case "get_config":
		return structpb.NewStructValue(l.modelConfig(model)), nil
	case "summary":
		return structpb.NewStringValue(l.summary(model)), nil
	}
	return None(), nil
}

// weightsOf returns the loaded weight blob, or a blob naming the model layers
// when nothing was loaded yet.
func (l *Local) weightsOf(model *localObject) []byte {
	if model.weights != nil {
		return model.weights
	}
	names := make([]interface{}, len(model.layers))
	for i, id := range model.layers {
		names[i] = l.objects[id].name()
	}
	s, err := structpb.NewStruct(map[string]interface{}{
		"model":  model.name(),
		"layers": names,
	})
	if err != nil {
		return nil
	}
	data, err := proto.MarshalOptions{Deterministic: true}.Marshal(s)
	if err != nil {
		return nil
	}
	return data
}

func (l *Local) summary(model *localObject) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Model: %q\n", model.name())
	for _, id := range model.layers {
		layer := l.objects[id]
		fmt.Fprintf(&b, "%s (%s)\n", layer.name(), layer.class)
	}
	fmt.Fprintf(&b, "Total layers: %d\n", len(model.layers))
	return b.String()
}

// serialize replaces handles by their serialized configuration and tuples by
// lists so the value can be written as JSON.
func (l *Local) serialize(v *structpb.Value) *structpb.Value {
	if v == nil {
		return None()
	}
	if h, ok := AsHandle(v); ok {
		obj, found := l.objects[h.ID]
		if !found {
			return None()
		}
		if obj.kind == kindTensor {
			return structpb.NewStringValue(l.objects[obj.source].name())
		}
		return structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"class_name": structpb.NewStringValue(obj.class),
			"config":     l.serializeConfig(obj),
		}})
	}
	if items, ok := AsTuple(v); ok {
		return l.serializeList(items)
	}
	if list := v.GetListValue(); list != nil {
		return l.serializeList(list.GetValues())
	}
	if s := v.GetStructValue(); s != nil {
		fields := make(map[string]*structpb.Value, len(s.GetFields()))
		for k, f := range s.GetFields() {
			fields[k] = l.serialize(f)
		}
		return structpb.NewStructValue(&structpb.Struct{Fields: fields})
	}
	return v
}

func (l *Local) serializeList(items []*structpb.Value) *structpb.Value {
	values := make([]*structpb.Value, len(items))
	for i, item := range items {
		values[i] = l.serialize(item)
	}
	return structpb.NewListValue(&structpb.ListValue{Values: values})
}

func (l *Local) serializeConfig(obj *localObject) *structpb.Value {
	if obj.kind == kindModel {
		return structpb.NewStructValue(l.modelConfig(obj))
	}
	fields := make(map[string]*structpb.Value, len(obj.config))
	for k, v := range obj.config {
		fields[k] = l.serialize(v)
	}
	return structpb.NewStructValue(&structpb.Struct{Fields: fields})
}

// layerEntry is the serialized form of one layer inside a model config.
// input_shape becomes batch_input_shape with a leading None batch dimension.
func (l *Local) layerEntry(layer *localObject) *structpb.Struct {
	cfg := l.serializeConfig(layer).GetStructValue()
	if in, ok := cfg.Fields["input_shape"]; ok {
		dims := append([]*structpb.Value{None()}, listItems(in)...)
		cfg.Fields["batch_input_shape"] = structpb.NewListValue(&structpb.ListValue{Values: dims})
		delete(cfg.Fields, "input_shape")
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"class_name": structpb.NewStringValue(layer.class),
		"config":     structpb.NewStructValue(cfg),
	}}
}

func (l *Local) modelConfig(model *localObject) *structpb.Struct {
	entries := make([]*structpb.Value, 0, len(model.layers))
	for _, id := range model.layers {
		layer := l.objects[id]
		entry := l.layerEntry(layer)
		if model.functional {
			entry.Fields["name"] = structpb.NewStringValue(layer.name())
			entry.Fields["inbound_nodes"] = l.inboundNodes(layer)
		}
		entries = append(entries, structpb.NewStructValue(entry))
	}

	cfg := &structpb.Struct{Fields: map[string]*structpb.Value{
		"name":   structpb.NewStringValue(model.name()),
		"layers": structpb.NewListValue(&structpb.ListValue{Values: entries}),
	}}
	if model.functional {
		cfg.Fields["input_layers"] = l.tensorRefs(model.inputs)
		cfg.Fields["output_layers"] = l.tensorRefs(model.outputs)
	}
	return cfg
}

// topology orders the layers reachable from outputs so every layer follows
// the layers feeding it.
func (l *Local) topology(outputs []uint64) []uint64 {
	seen := make(map[uint64]bool)
	var order []uint64

	var visit func(tensor uint64)
	visit = func(tensor uint64) {
		t := l.objects[tensor]
		layer := l.objects[t.source]
		for _, in := range layer.nodes[t.node] {
			visit(in)
		}
		if !seen[layer.id] {
			seen[layer.id] = true
			order = append(order, layer.id)
		}
	}
	for _, out := range outputs {
		visit(out)
	}
	return order
}

func (l *Local) tensorRef(tensor uint64) *structpb.Value {
	t := l.objects[tensor]
	return structpb.NewListValue(&structpb.ListValue{Values: []*structpb.Value{
		structpb.NewStringValue(l.objects[t.source].name()),
		structpb.NewNumberValue(float64(t.node)),
		structpb.NewNumberValue(0),
	}})
}

func (l *Local) tensorRefs(tensors []uint64) *structpb.Value {
	refs := make([]*structpb.Value, len(tensors))
	for i, t := range tensors {
		refs[i] = l.tensorRef(t)
	}
	return structpb.NewListValue(&structpb.ListValue{Values: refs})
}

func (l *Local) inboundNodes(layer *localObject) *structpb.Value {
	nodes := make([]*structpb.Value, 0, len(layer.nodes))
	for _, inbound := range layer.nodes {
		if len(inbound) == 0 {
			continue
		}
		refs := make([]*structpb.Value, len(inbound))
		for i, t := range inbound {
			ref := l.tensorRef(t).GetListValue()
			ref.Values = append(ref.Values, structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{}}))
			refs[i] = structpb.NewListValue(ref)
		}
		nodes = append(nodes, structpb.NewListValue(&structpb.ListValue{Values: refs}))
	}
	return structpb.NewListValue(&structpb.ListValue{Values: nodes})
}

func (l *Local) toJSON(model *localObject) (string, error) {
	class := "Sequential"
	if model.functional {
		class = "Functional"
	}
	doc := &structpb.Struct{Fields: map[string]*structpb.Value{
		"class_name":    structpb.NewStringValue(class),
		"config":        structpb.NewStructValue(l.modelConfig(model)),
		"keras_version": structpb.NewStringValue(KerasVersion),
		"backend":       structpb.NewStringValue("tensorflow"),
	}}
	data, err := protojson.Marshal(doc)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode model topology")
	}
	return string(data), nil
}

func (l *Local) modelFromJSON(mod *localObject, args []*structpb.Value, kwargs map[string]*structpb.Value) (*structpb.Value, error) {
	bound, err := l.bind("model_from_json", args, kwargs)
	if err != nil {
		return nil, err
	}

	var doc structpb.Struct
	if err := protojson.Unmarshal([]byte(bound["json_string"].GetStringValue()), &doc); err != nil {
		return nil, &RemoteError{Type: "ValueError", Message: "invalid model JSON: " + err.Error()}
	}
	cfg := doc.Fields["config"].GetStructValue()
	if cfg == nil {
		return nil, &RemoteError{Type: "ValueError", Message: "model JSON has no config"}
	}

	layerModule := strings.TrimSuffix(mod.module, "models") + "layers"
	class := doc.Fields["class_name"].GetStringValue()
	switch class {
	case "Sequential":
		return l.rebuildSequential(mod, layerModule, cfg)
	case "Functional", "Model":
		return l.rebuildFunctional(mod, layerModule, cfg)
	}
	return nil, &RemoteError{Type: "ValueError", Message: "unknown model class: " + class}
}

func (l *Local) layerFromEntry(module string, entry *structpb.Struct) (*localObject, error) {
	class := entry.Fields["class_name"].GetStringValue()
	if class == "" {
		return nil, &RemoteError{Type: "ValueError", Message: "layer entry without class_name"}
	}
	layer := l.newObject(kindLayer, class, module)
	for k, v := range entry.Fields["config"].GetStructValue().GetFields() {
		layer.config[k] = v
	}
	l.ensureName(layer)
	return layer, nil
}

func (l *Local) rebuildSequential(mod *localObject, layerModule string, cfg *structpb.Struct) (*structpb.Value, error) {
	model := l.newObject(kindModel, "Sequential", mod.module)
	if n := cfg.Fields["name"]; n != nil {
		model.config["name"] = n
	}
	l.ensureName(model)

	for _, item := range cfg.Fields["layers"].GetListValue().GetValues() {
		layer, err := l.layerFromEntry(layerModule, item.GetStructValue())
		if err != nil {
			l.dropObject(model)
			return nil, err
		}
		model.layers = append(model.layers, layer.id)
	}
	return HandleValue(model.handle()), nil
}

func (l *Local) rebuildFunctional(mod *localObject, layerModule string, cfg *structpb.Struct) (*structpb.Value, error) {
	// output tensor of every (layer name, node index) rebuilt so far
	tensors := make(map[string]uint64)
	key := func(name string, node int) string {
		return fmt.Sprintf("%s/%d", name, node)
	}
	resolve := func(ref *structpb.Value) (uint64, error) {
		items := ref.GetListValue().GetValues()
		if len(items) < 2 {
			return 0, &RemoteError{Type: "ValueError", Message: "malformed node reference"}
		}
		k := key(items[0].GetStringValue(), int(items[1].GetNumberValue()))
		id, ok := tensors[k]
		if !ok {
			return 0, &RemoteError{Type: "ValueError", Message: "reference to unknown node " + k}
		}
		return id, nil
	}

	for _, item := range cfg.Fields["layers"].GetListValue().GetValues() {
		entry := item.GetStructValue()
		layer, err := l.layerFromEntry(layerModule, entry)
		if err != nil {
			return nil, err
		}

		nodes := entry.Fields["inbound_nodes"].GetListValue().GetValues()
		if len(nodes) == 0 {
			t := l.addNode(layer, nil)
			tensors[key(layer.name(), t.node)] = t.id
			continue
		}
		for _, node := range nodes {
			var inbound []uint64
			for _, ref := range node.GetListValue().GetValues() {
				id, err := resolve(ref)
				if err != nil {
					return nil, err
				}
				inbound = append(inbound, id)
			}
			t := l.addNode(layer, inbound)
			tensors[key(layer.name(), t.node)] = t.id
		}
	}

	refList := func(v *structpb.Value) ([]uint64, error) {
		refs := v.GetListValue().GetValues()
		// a single reference may be written without the enclosing list
		if len(refs) > 0 && refs[0].GetListValue() == nil {
			refs = []*structpb.Value{v}
		}
		ids := make([]uint64, 0, len(refs))
		for _, ref := range refs {
			id, err := resolve(ref)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
		return ids, nil
	}

	inputs, err := refList(cfg.Fields["input_layers"])
	if err != nil {
		return nil, err
	}
	outputs, err := refList(cfg.Fields["output_layers"])
	if err != nil {
		return nil, err
	}

	model := l.newObject(kindModel, "Functional", mod.module)
	model.functional = true
	model.inputs = inputs
	model.outputs = outputs
	if n := cfg.Fields["name"]; n != nil {
		model.config["name"] = n
	} else {
		model.config["name"] = structpb.NewStringValue(l.uniqueName("model"))
	}
	model.layers = l.topology(outputs)
	return HandleValue(model.handle()), nil
}
