package entity

import (
	"fmt"
	"sort"

	"github.com/rtsforge/sagecore/internal/content"
)

// Factory builds one module instance from its template spec.
type Factory func(spec content.ModuleSpec) (Module, error)

// Registry maps module kinds to factories. It is built once at startup by
// explicit registration; there is no scanning or reflection involved in
// dispatch.
type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory, 16)}
}

// Register binds a kind to its factory. Registering the same kind twice is a
// programming error and panics at startup.
func (r *Registry) Register(kind string, f Factory) {
	if _, dup := r.factories[kind]; dup {
		panic(fmt.Sprintf("entity: module kind %q registered twice", kind))
	}
	r.factories[kind] = f
}

// New builds a module for the spec, or fails for an unregistered kind.
func (r *Registry) New(spec content.ModuleSpec) (Module, error) {
	f, ok := r.factories[spec.Kind]
	if !ok {
		return nil, fmt.Errorf("no module factory registered for kind %q", spec.Kind)
	}
	return f(spec)
}

// Kinds returns all registered kinds, sorted.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
