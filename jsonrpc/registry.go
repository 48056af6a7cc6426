package jsonrpc

import "slices"

// Registry maps method names to methods. It is built once and never modified,
// so it is safe for concurrent use without locking.
type Registry struct {
	methods map[string]*Method
}

// NewRegistry builds a registry from methods. Nil methods, empty names and
// duplicate names are configuration errors.
func NewRegistry(methods ...*Method) (*Registry, error) {
	r := &Registry{methods: make(map[string]*Method, len(methods))}
	for _, m := range methods {
		if m == nil {
			return nil, &ConfigError{Err: ErrNilMethod}
		}
		if m.name == "" {
			return nil, &ConfigError{Err: ErrEmptyName}
		}
		if _, exists := r.methods[m.name]; exists {
			return nil, &ConfigError{Method: m.name, Err: ErrDuplicateMethod}
		}
		r.methods[m.name] = m
	}
	return r, nil
}

// MustRegistry is like NewRegistry but panics on error.
func MustRegistry(methods ...*Method) *Registry {
	r, err := NewRegistry(methods...)
	if err != nil {
		panic(err)
	}
	return r
}

// Resolve looks up a method by exact name.
func (r *Registry) Resolve(name string) (*Method, bool) {
	m, ok := r.methods[name]
	return m, ok
}

// Names returns the registered method names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.methods))
	for name := range r.methods {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (r *Registry) Len() int { return len(r.methods) }
