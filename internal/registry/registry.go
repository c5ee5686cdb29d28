package registry

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/vk/blockbind/internal/dispatch"
	"github.com/vk/blockbind/internal/graph"
	"github.com/vk/blockbind/internal/mutation"
	"github.com/vk/blockbind/internal/shape"
)

// Module is the interface that all kind modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Kind is the compiled definition of one node kind.
type Kind struct {
	Name        string
	Class       graph.Class
	Description string
	Schema      mutation.Schema
	Layout      func(mutation.Data) graph.Shape
	Hooks       dispatch.Hooks
}

// Registry holds every registered kind for a single workspace.
type Registry struct {
	kinds map[string]*Kind
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{kinds: make(map[string]*Kind)}
}

// NewWith creates a Registry and registers the given modules.
func NewWith(modules ...Module) *Registry {
	r := New()
	for _, m := range modules {
		m.Register(r)
	}
	return r
}

// RegisterKind adds a kind. Registering the same name twice panics.
func (r *Registry) RegisterKind(k Kind) {
	if k.Name == "" {
		panic("kind registered without a name")
	}
	if _, exists := r.kinds[k.Name]; exists {
		panic(fmt.Sprintf("kind with name '%s' already registered", k.Name))
	}
	if k.Layout == nil {
		k.Layout = func(mutation.Data) graph.Shape { return graph.Shape{} }
	}
	slog.Debug("Registering kind.", "name", k.Name, "class", k.Class.String())
	r.kinds[k.Name] = &k
}

// Kind looks up a kind by name.
func (r *Registry) Kind(name string) (*Kind, bool) {
	k, ok := r.kinds[name]
	return k, ok
}

// Kinds returns every kind sorted by name.
func (r *Registry) Kinds() []*Kind {
	out := make([]*Kind, 0, len(r.kinds))
	for _, k := range r.kinds {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ShapeOf implements shape.Catalog.
func (r *Registry) ShapeOf(kind string) (shape.Spec, bool) {
	k, ok := r.kinds[kind]
	if !ok {
		return shape.Spec{}, false
	}
	return shape.Spec{Schema: k.Schema, Layout: k.Layout}, true
}

// HooksFor implements dispatch.HookSource.
func (r *Registry) HooksFor(kind string) *dispatch.Hooks {
	k, ok := r.kinds[kind]
	if !ok {
		return nil
	}
	return &k.Hooks
}
