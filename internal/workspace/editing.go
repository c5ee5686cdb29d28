package workspace

import (
	"context"
	"fmt"
	"sort"

	"github.com/vk/blockbind/internal/event"
	"github.com/vk/blockbind/internal/graph"
	"github.com/vk/blockbind/internal/nodeid"
	"github.com/vk/blockbind/internal/scope"
	"github.com/vk/blockbind/modules/variables"
)

// AddVariable appends a definition of type t with a generated default name
// to the definition chain of scopeRoot.
func (w *Workspace) AddVariable(ctx context.Context, scopeRoot nodeid.ID, t graph.TypeTag) (*graph.Node, error) {
	root, err := w.node(scopeRoot)
	if err != nil {
		return nil, err
	}
	var def *graph.Node
	err = w.run(ctx, "", func() error {
		var err error
		def, err = variables.AppendDefinition(w, root, t)
		return err
	})
	return def, err
}

// RenameDefinition validates newName in the definition's scope and applies
// its normalized form. Global names must also be free in every function.
func (w *Workspace) RenameDefinition(ctx context.Context, id nodeid.ID, newName string) (string, error) {
	def, err := w.node(id)
	if err != nil {
		return "", err
	}
	if def.Class != graph.ClassDefinition {
		return "", fmt.Errorf("node %s (%s) is not a definition", id, def.Kind)
	}
	return w.setField(ctx, "", id, scope.FieldName, newName)
}

// RenameFunction validates newName against every global symbol and applies
// its normalized form. Call sites follow the rename.
func (w *Workspace) RenameFunction(ctx context.Context, id nodeid.ID, newName string) (string, error) {
	fn, err := w.node(id)
	if err != nil {
		return "", err
	}
	if fn.Class != graph.ClassFunctionScope {
		return "", fmt.Errorf("node %s (%s) is not a function", id, fn.Kind)
	}
	return w.setField(ctx, "", id, scope.FieldName, newName)
}

// checkedValue vets a NAME edit on a definition or function and returns the
// normalized name. Other fields and classes pass through.
func (w *Workspace) checkedValue(id nodeid.ID, field, value string) (string, error) {
	if field != scope.FieldName {
		return value, nil
	}
	n, err := w.node(id)
	if err != nil {
		return "", err
	}
	var (
		name string
		ok   bool
	)
	switch n.Class {
	case graph.ClassDefinition:
		root, hasScope := w.scopes.ScopeOf(n)
		deep := !hasScope || root.Class == graph.ClassGlobalScope
		name, ok = w.scopes.ValidateName(value, root, id, deep)
	case graph.ClassFunctionScope:
		name, ok = w.scopes.ValidateName(value, nil, id, false)
	default:
		return value, nil
	}
	if !ok {
		return "", fmt.Errorf("%w: %q", scope.ErrNameConflict, value)
	}
	return name, nil
}

// setField applies a host field edit in one dispatch pass and returns the
// value actually stored.
func (w *Workspace) setField(ctx context.Context, group event.GroupID, id nodeid.ID, field, value string) (string, error) {
	var stored string
	err := w.run(ctx, group, func() error {
		v, err := w.checkedValue(id, field, value)
		if err != nil {
			return err
		}
		stored = v
		return w.g.SetField(id, field, v)
	})
	return stored, err
}

// Bindings lists the names visible in a scope root.
func (w *Workspace) Bindings(scopeRoot nodeid.ID) ([]scope.Binding, error) {
	root, err := w.node(scopeRoot)
	if err != nil {
		return nil, err
	}
	if !root.Class.IsScopeRoot() {
		return nil, fmt.Errorf("node %s (%s) does not own a scope", scopeRoot, root.Kind)
	}
	return w.scopes.Bindings(root), nil
}

// Resolve looks name up in the scope owning node id.
func (w *Workspace) Resolve(id nodeid.ID, name string) (scope.Binding, bool) {
	n, ok := w.g.Node(id)
	if !ok {
		return scope.Binding{}, false
	}
	root, ok := w.scopes.ScopeOf(n)
	if !ok {
		return scope.Binding{}, false
	}
	return w.scopes.Resolve(root, name)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
