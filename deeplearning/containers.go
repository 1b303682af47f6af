package deeplearning

import (
	"github.com/pkg/errors"
)

// Sequential is an ordered stack of modules. InputShape excludes the batch
// dimension and may be nil.
type Sequential struct {
	Name       string
	InputShape []int
	Modules    []Module
}

// Node is a named module of a Graph
type Node struct {
	Name   string
	Module Module
}

// GraphInput is a named entry point of a Graph
type GraphInput struct {
	Name  string
	Shape []int
}

// Edge feeds the output of From into To. From names a node or an input.
type Edge struct {
	From string
	To   string
}

// Graph is a directed acyclic graph of named modules. The inbound edges of a
// node are ordered as they appear in Edges.
type Graph struct {
	Name    string
	Inputs  []GraphInput
	Nodes   []Node
	Edges   []Edge
	Outputs []string
}

// Inbound returns the sources feeding node name, in edge order
func (g *Graph) Inbound(name string) []string {
	var from []string
	for _, e := range g.Edges {
		if e.To == name {
			from = append(from, e.From)
		}
	}
	return from
}

// Node returns the node called name
func (g *Graph) Node(name string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.Name == name {
			return n, true
		}
	}
	return Node{}, false
}

// Validate checks names are unique, edges and outputs refer to known names,
// every node has an inbound edge and the graph has no cycle.
func (g *Graph) Validate() error {
	_, err := g.Order()
	return err
}

// Order returns the node names sorted so that every node follows its sources
func (g *Graph) Order() ([]string, error) {
	if len(g.Inputs) == 0 {
		return nil, errors.New("graph has no inputs")
	}
	if len(g.Outputs) == 0 {
		return nil, errors.New("graph has no outputs")
	}

	known := make(map[string]bool, len(g.Inputs)+len(g.Nodes))
	for _, in := range g.Inputs {
		if known[in.Name] {
			return nil, errors.Errorf("duplicate name %q", in.Name)
		}
		known[in.Name] = true
	}
	for _, n := range g.Nodes {
		if known[n.Name] {
			return nil, errors.Errorf("duplicate name %q", n.Name)
		}
		if n.Module == nil {
			return nil, errors.Errorf("node %q has no module", n.Name)
		}
		known[n.Name] = true
	}

	pending := make(map[string]int, len(g.Nodes))
	for _, n := range g.Nodes {
		pending[n.Name] = 0
	}
	for _, e := range g.Edges {
		if !known[e.From] {
			return nil, errors.Errorf("edge from unknown name %q", e.From)
		}
		if _, ok := pending[e.To]; !ok {
			return nil, errors.Errorf("edge to %q which is not a node", e.To)
		}
		pending[e.To]++
	}
	for _, name := range g.Outputs {
		if !known[name] {
			return nil, errors.Errorf("unknown output %q", name)
		}
	}
	for _, n := range g.Nodes {
		if pending[n.Name] == 0 {
			return nil, errors.Errorf("node %q has no inbound edge", n.Name)
		}
	}

	order := make([]string, 0, len(g.Nodes))
	ready := make([]string, 0, len(g.Inputs))
	for _, in := range g.Inputs {
		ready = append(ready, in.Name)
	}
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		for _, e := range g.Edges {
			if e.From != name {
				continue
			}
			pending[e.To]--
			if pending[e.To] == 0 {
				order = append(order, e.To)
				ready = append(ready, e.To)
			}
		}
	}
	if len(order) != len(g.Nodes) {
		return nil, errors.New("graph contains a cycle")
	}
	return order, nil
}
