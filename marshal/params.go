// Package marshal turns typed Go configuration into calls on the foreign
// Keras runtime.
//
// Every wrapper in this module describes its foreign constructor arguments as
// an ordered Params table. The first entry is passed positionally, the rest as
// keyword arguments; see Args for the exact rules.
package marshal

// Params is an insertion ordered table of named constructor arguments.
// The zero value is ready to use.
type Params struct {
	keys        []string
	values      map[string]interface{}
	keywordOnly bool
}

// NewParams creates an empty parameter table
func NewParams() *Params {
	return &Params{values: make(map[string]interface{})}
}

// NewKeywordParams creates a table for callables that take no positional
// arguments. Every entry is passed as a keyword argument.
func NewKeywordParams() *Params {
	return &Params{values: make(map[string]interface{}), keywordOnly: true}
}

// KeywordOnly reports whether the table was created with NewKeywordParams
func (p *Params) KeywordOnly() bool {
	return p != nil && p.keywordOnly
}

// Set stores a value. Overwriting an existing key keeps its position.
func (p *Params) Set(key string, value interface{}) *Params {
	if p.values == nil {
		p.values = make(map[string]interface{})
	}
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
	return p
}

// Get returns the value stored under key
func (p *Params) Get(key string) (interface{}, bool) {
	if p == nil {
		return nil, false
	}
	v, ok := p.values[key]
	return v, ok
}

// Delete removes key from the table
func (p *Params) Delete(key string) {
	if p == nil {
		return
	}
	if _, ok := p.values[key]; !ok {
		return
	}
	delete(p.values, key)
	for i, k := range p.keys {
		if k == key {
			p.keys = append(p.keys[:i], p.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the parameter names in insertion order
func (p *Params) Keys() []string {
	if p == nil {
		return nil
	}
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Len returns the number of parameters
func (p *Params) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// Map returns a copy of the table as a plain map
func (p *Params) Map() map[string]interface{} {
	out := make(map[string]interface{}, p.Len())
	for _, k := range p.Keys() {
		out[k] = p.values[k]
	}
	return out
}
