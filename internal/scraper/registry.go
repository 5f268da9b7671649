package scraper

import (
	"errors"
	"fmt"
)

// ErrUnknownAdapter is returned by Registry.Get for names never registered.
var ErrUnknownAdapter = errors.New("unknown adapter")

// Registry maps adapter names to instances. It is populated once during
// process initialization and read-only afterwards, so lookups need no
// locking. Duplicate registration is a configuration error and fails
// startup.
type Registry struct {
	order    []string
	adapters map[string]Adapter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[string]Adapter),
	}
}

// Register adds an adapter under its name. Registering the same name twice
// returns an error; callers treat that as fatal at startup.
func (r *Registry) Register(a Adapter) error {
	name := a.Name()
	if name == "" {
		return errors.New("adapter has empty name")
	}
	if _, exists := r.adapters[name]; exists {
		return fmt.Errorf("adapter %q registered twice", name)
	}
	r.adapters[name] = a
	r.order = append(r.order, name)
	return nil
}

// MustRegister registers a set of adapters, panicking on duplicates.
// Intended for wiring code that runs before the process serves traffic.
func (r *Registry) MustRegister(adapters ...Adapter) {
	for _, a := range adapters {
		if err := r.Register(a); err != nil {
			panic(err)
		}
	}
}

// Get returns the adapter registered under name.
func (r *Registry) Get(name string) (Adapter, error) {
	a, ok := r.adapters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAdapter, name)
	}
	return a, nil
}

// All returns every adapter in registration order.
func (r *Registry) All() []Adapter {
	out := make([]Adapter, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.adapters[name])
	}
	return out
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered adapters.
func (r *Registry) Len() int {
	return len(r.adapters)
}
