package param

import "fmt"

// Registry is the ordered set of parameters exposed to hosts and
// modulators. It is filled once at construction and read-only afterwards.
type Registry struct {
	params []*Parameter
	byName map[string]int
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]int)}
}

// Add appends parameters in order and assigns their indices.
func (r *Registry) Add(ps ...*Parameter) error {
	for _, p := range ps {
		if _, ok := r.byName[p.name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateParameter, p.name)
		}
		p.index = len(r.params)
		r.byName[p.name] = p.index
		r.params = append(r.params, p)
	}
	return nil
}

// Parameter returns the parameter at index, or nil when out of range.
func (r *Registry) Parameter(index int) *Parameter {
	if index < 0 || index >= len(r.params) {
		return nil
	}
	return r.params[index]
}

func (r *Registry) Find(name string) *Parameter {
	i, ok := r.byName[name]
	if !ok {
		return nil
	}
	return r.params[i]
}

// Lookup is Find with an error for unknown names.
func (r *Registry) Lookup(name string) (*Parameter, error) {
	p := r.Find(name)
	if p == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownParameter, name)
	}
	return p, nil
}

// Index returns p's position in the registry, or -1.
func (r *Registry) Index(p *Parameter) int {
	if p == nil {
		return -1
	}
	if i, ok := r.byName[p.name]; ok && r.params[i] == p {
		return i
	}
	return -1
}

func (r *Registry) Len() int {
	return len(r.params)
}

// All returns the parameters in registry order.
func (r *Registry) All() []*Parameter {
	out := make([]*Parameter, len(r.params))
	copy(out, r.params)
	return out
}
