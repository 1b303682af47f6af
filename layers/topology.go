package layers

import (
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tsawler/go-keras/bridge"
	"github.com/tsawler/go-keras/marshal"
)

// KerasVersion is written into topology JSON produced by this package
const KerasVersion = bridge.KerasVersion

// NodeRef points at output Tensor of call Node of the named layer
type NodeRef struct {
	Layer  string
	Node   int
	Tensor int
}

// GraphLayer is a layer of a functional model with its inbound connections,
// one list of references per call of the layer.
type GraphLayer struct {
	Layer   Layer
	Inbound [][]NodeRef
}

// GraphSpec is a functional model
type GraphSpec struct {
	Name    string
	Layers  []GraphLayer
	Inputs  []NodeRef
	Outputs []NodeRef
}

// Find returns the layer with the given name
func (g *GraphSpec) Find(name string) (GraphLayer, bool) {
	for _, gl := range g.Layers {
		if gl.Layer.LayerName() == name {
			return gl, true
		}
	}
	return GraphLayer{}, false
}

// Validate checks that layer names are unique and every reference resolves
// to an earlier layer.
func (g *GraphSpec) Validate() error {
	seen := make(map[string]bool, len(g.Layers))
	for i, gl := range g.Layers {
		if gl.Layer == nil {
			return errors.Errorf("layer %d is nil", i)
		}
		name := gl.Layer.LayerName()
		if name == "" {
			return errors.Errorf("layer %d (%s) has no name", i, gl.Layer.ClassName())
		}
		for _, node := range gl.Inbound {
			for _, ref := range node {
				if !seen[ref.Layer] {
					return errors.Errorf("layer %s: inbound layer %q is not defined before it", name, ref.Layer)
				}
			}
		}
		if seen[name] {
			return errors.Errorf("duplicate layer name %q", name)
		}
		seen[name] = true
	}
	for _, ref := range append(append([]NodeRef{}, g.Inputs...), g.Outputs...) {
		if !seen[ref.Layer] {
			return errors.Errorf("model endpoint %q is not a layer", ref.Layer)
		}
	}
	return nil
}

// Topology is a decoded Keras model JSON document. Exactly one of
// Sequential and Graph is set.
type Topology struct {
	ClassName    string
	KerasVersion string
	Backend      string
	Sequential   *ModelSpec
	Graph        *GraphSpec
}

// DecodeTopology parses model JSON as written by Keras Model.to_json
func DecodeTopology(data []byte) (*Topology, error) {
	var doc structpb.Struct
	if err := protojson.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "invalid model JSON")
	}
	m := doc.AsMap()

	t := &Topology{}
	t.ClassName, _ = m["class_name"].(string)
	t.KerasVersion, _ = m["keras_version"].(string)
	t.Backend, _ = m["backend"].(string)

	switch t.ClassName {
	case "Sequential":
		spec, err := decodeSequential(m["config"])
		if err != nil {
			return nil, err
		}
		t.Sequential = spec
	case "Functional", "Model":
		cfg, ok := m["config"].(map[string]interface{})
		if !ok {
			return nil, errors.New("functional model JSON has no config")
		}
		graph, err := decodeGraph(cfg)
		if err != nil {
			return nil, err
		}
		t.Graph = graph
	default:
		return nil, errors.Errorf("unsupported model class %q", t.ClassName)
	}
	return t, nil
}

func decodeEntry(entry interface{}) (Layer, map[string]interface{}, error) {
	e, ok := entry.(map[string]interface{})
	if !ok {
		return nil, nil, errors.New("layer entry is not an object")
	}
	class, _ := e["class_name"].(string)
	cfg, _ := e["config"].(map[string]interface{})
	l, err := Decode(class, cfg)
	return l, e, err
}

func decodeSequential(config interface{}) (*ModelSpec, error) {
	spec := &ModelSpec{}
	var entries []interface{}

	switch c := config.(type) {
	case map[string]interface{}:
		spec.Name, _ = c["name"].(string)
		entries, _ = c["layers"].([]interface{})
	case []interface{}:
		// very old Keras wrote the layer list directly
		entries = c
	default:
		return nil, errors.New("sequential model JSON has no config")
	}

	for i, entry := range entries {
		l, _, err := decodeEntry(entry)
		if err != nil {
			return nil, errors.Wrapf(err, "layer %d", i)
		}
		if in, ok := l.(*InputLayer); ok && i == 0 {
			spec.InputShape = in.InputShape
			continue
		}
		spec.Layers = append(spec.Layers, l)
	}
	return spec, nil
}

func decodeGraph(cfg map[string]interface{}) (*GraphSpec, error) {
	g := &GraphSpec{}
	g.Name, _ = cfg["name"].(string)

	entries, _ := cfg["layers"].([]interface{})
	for i, entry := range entries {
		l, e, err := decodeEntry(entry)
		if err != nil {
			return nil, errors.Wrapf(err, "layer %d", i)
		}
		if name, ok := e["name"].(string); ok && l.LayerName() == "" {
			SetName(l, name)
		}

		gl := GraphLayer{Layer: l}
		nodes, _ := e["inbound_nodes"].([]interface{})
		for _, node := range nodes {
			refs, err := decodeRefs(node)
			if err != nil {
				return nil, errors.Wrapf(err, "layer %s", l.LayerName())
			}
			gl.Inbound = append(gl.Inbound, refs)
		}
		g.Layers = append(g.Layers, gl)
	}

	var err error
	if g.Inputs, err = decodeRefs(cfg["input_layers"]); err != nil {
		return nil, errors.Wrap(err, "input_layers")
	}
	if g.Outputs, err = decodeRefs(cfg["output_layers"]); err != nil {
		return nil, errors.Wrap(err, "output_layers")
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// decodeRefs reads a list of [layer, node, tensor, ...] references. A single
// reference written without the enclosing list is accepted too.
func decodeRefs(v interface{}) ([]NodeRef, error) {
	items, ok := v.([]interface{})
	if !ok {
		return nil, errors.New("node references must be a list")
	}
	if len(items) > 0 {
		if _, single := items[0].(string); single {
			items = []interface{}{items}
		}
	}

	refs := make([]NodeRef, 0, len(items))
	for _, item := range items {
		parts, ok := item.([]interface{})
		if !ok || len(parts) < 3 {
			return nil, errors.Errorf("malformed node reference %v", item)
		}
		name, ok := parts[0].(string)
		if !ok {
			return nil, errors.Errorf("malformed node reference %v", item)
		}
		node, _ := parts[1].(float64)
		tensor, _ := parts[2].(float64)
		refs = append(refs, NodeRef{Layer: name, Node: int(node), Tensor: int(tensor)})
	}
	return refs, nil
}

// SetName assigns the layer name of a record
func SetName(l Layer, name string) {
	type named interface{ setName(string) }
	if n, ok := l.(named); ok {
		n.setName(name)
	}
}

func (c *Common) setName(name string) { c.Name = name }

// jsonValue converts a foreign value to plain JSON: tuples become lists
func jsonValue(v *structpb.Value) *structpb.Value {
	if items, ok := bridge.AsTuple(v); ok {
		return jsonList(items)
	}
	if list := v.GetListValue(); list != nil {
		return jsonList(list.GetValues())
	}
	if s := v.GetStructValue(); s != nil {
		fields := make(map[string]*structpb.Value, len(s.GetFields()))
		for k, f := range s.GetFields() {
			fields[k] = jsonValue(f)
		}
		return structpb.NewStructValue(&structpb.Struct{Fields: fields})
	}
	return v
}

func jsonList(items []*structpb.Value) *structpb.Value {
	values := make([]*structpb.Value, len(items))
	for i, item := range items {
		values[i] = jsonValue(item)
	}
	return structpb.NewListValue(&structpb.ListValue{Values: values})
}

// Entry returns the {"class_name", "config"} object Keras writes for a layer.
// input_shape is written as batch_input_shape with a None batch dimension.
func Entry(l Layer) (*structpb.Struct, error) {
	fields, err := marshal.ForeignFields(l.Params())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to serialize %s", l.ClassName())
	}
	cfg := jsonValue(structpb.NewStructValue(&structpb.Struct{Fields: fields})).GetStructValue()
	if in, ok := cfg.Fields["input_shape"]; ok {
		dims := append([]*structpb.Value{bridge.None()}, in.GetListValue().GetValues()...)
		cfg.Fields["batch_input_shape"] = structpb.NewListValue(&structpb.ListValue{Values: dims})
		delete(cfg.Fields, "input_shape")
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"class_name": structpb.NewStringValue(l.ClassName()),
		"config":     structpb.NewStructValue(cfg),
	}}, nil
}

func document(class string, cfg *structpb.Struct) ([]byte, error) {
	doc := &structpb.Struct{Fields: map[string]*structpb.Value{
		"class_name":    structpb.NewStringValue(class),
		"config":        structpb.NewStructValue(cfg),
		"keras_version": structpb.NewStringValue(KerasVersion),
		"backend":       structpb.NewStringValue("tensorflow"),
	}}
	data, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode model topology")
	}
	return data, nil
}

// ToJSON encodes the model the way Keras Sequential.to_json does
func (ms *ModelSpec) ToJSON() ([]byte, error) {
	entries := make([]*structpb.Value, 0, len(ms.Layers))
	for i, l := range ms.Layers {
		entry, err := Entry(l)
		if err != nil {
			return nil, err
		}
		cfg := entry.Fields["config"].GetStructValue()
		if _, has := cfg.Fields["batch_input_shape"]; i == 0 && !has && len(ms.InputShape) > 0 {
			dims := []*structpb.Value{bridge.None()}
			for _, d := range ms.InputShape {
				dims = append(dims, structpb.NewNumberValue(float64(d)))
			}
			cfg.Fields["batch_input_shape"] = structpb.NewListValue(&structpb.ListValue{Values: dims})
		}
		entries = append(entries, structpb.NewStructValue(entry))
	}

	cfg := &structpb.Struct{Fields: map[string]*structpb.Value{
		"layers": structpb.NewListValue(&structpb.ListValue{Values: entries}),
	}}
	if ms.Name != "" {
		cfg.Fields["name"] = structpb.NewStringValue(ms.Name)
	}
	return document("Sequential", cfg)
}

func refValue(ref NodeRef, withKwargs bool) *structpb.Value {
	values := []*structpb.Value{
		structpb.NewStringValue(ref.Layer),
		structpb.NewNumberValue(float64(ref.Node)),
		structpb.NewNumberValue(float64(ref.Tensor)),
	}
	if withKwargs {
		values = append(values, structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{}}))
	}
	return structpb.NewListValue(&structpb.ListValue{Values: values})
}

func refList(refs []NodeRef, withKwargs bool) *structpb.Value {
	values := make([]*structpb.Value, len(refs))
	for i, r := range refs {
		values[i] = refValue(r, withKwargs)
	}
	return structpb.NewListValue(&structpb.ListValue{Values: values})
}

// ToJSON encodes the model the way Keras Functional.to_json does
func (g *GraphSpec) ToJSON() ([]byte, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	entries := make([]*structpb.Value, 0, len(g.Layers))
	for _, gl := range g.Layers {
		entry, err := Entry(gl.Layer)
		if err != nil {
			return nil, err
		}
		nodes := make([]*structpb.Value, len(gl.Inbound))
		for i, node := range gl.Inbound {
			nodes[i] = refList(node, true)
		}
		entry.Fields["name"] = structpb.NewStringValue(gl.Layer.LayerName())
		entry.Fields["inbound_nodes"] = structpb.NewListValue(&structpb.ListValue{Values: nodes})
		entries = append(entries, structpb.NewStructValue(entry))
	}

	cfg := &structpb.Struct{Fields: map[string]*structpb.Value{
		"name":          structpb.NewStringValue(g.Name),
		"layers":        structpb.NewListValue(&structpb.ListValue{Values: entries}),
		"input_layers":  refList(g.Inputs, false),
		"output_layers": refList(g.Outputs, false),
	}}
	return document("Functional", cfg)
}
