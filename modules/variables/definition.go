package variables

import (
	"fmt"

	"github.com/vk/blockbind/internal/dispatch"
	"github.com/vk/blockbind/internal/event"
	"github.com/vk/blockbind/internal/graph"
	"github.com/vk/blockbind/internal/scope"
)

// Values of the VARPAR field.
const (
	RoleFieldVariable  = "VARIABLE"
	RoleFieldParameter = "PARAMETER"
)

// AppendDefinition adds a definition of type t with a generated name at the
// end of scopeRoot's definition chain. Global definitions are variables,
// function definitions start out as parameters.
func AppendDefinition(env dispatch.Env, scopeRoot *graph.Node, t graph.TypeTag) (*graph.Node, error) {
	g := env.Graph()
	ctx := env.Context()

	var scopeName, role string
	var grow map[string]any
	switch scopeRoot.Class {
	case graph.ClassGlobalScope:
		scopeName = scope.ScopeGlobalVariable
		grow = map[string]any{keyHasVariables: true}
	case graph.ClassFunctionScope:
		scopeName, role = scope.ScopeFunctionParameter, RoleFieldParameter
		grow = map[string]any{"variables": len(env.Scopes().Definitions(scopeRoot)) + 1}
	default:
		return nil, fmt.Errorf("node %s (%s) does not own a scope", scopeRoot.ID, scopeRoot.Kind)
	}

	name, ok := env.Scopes().GenerateUniqueName(scope.DefaultBaseName(t), scopeRoot)
	if !ok {
		return nil, fmt.Errorf("%w: no free name for a new %s variable", scope.ErrNameConflict, t)
	}

	if _, err := env.Shapes().Update(ctx, scopeRoot, grow); err != nil {
		return nil, err
	}

	parent, socket := scopeRoot.ID, scope.DefinitionSocket
	if chain := g.Chain(scopeRoot.ID, scope.DefinitionSocket, scope.NextSocket); len(chain) > 0 {
		parent, socket = chain[len(chain)-1].ID, scope.NextSocket
	}

	def, err := env.Spawn(KindDefinition, parent, socket)
	if err != nil {
		return nil, err
	}
	if _, err := env.Shapes().Update(ctx, def, map[string]any{keyName: name, keyType: t.String(), keyScope: scopeName}); err != nil {
		return def, err
	}
	for _, f := range [][2]string{{scope.FieldName, name}, {scope.FieldType, t.String()}, {scope.FieldRole, role}} {
		if err := g.SetField(def.ID, f[0], f[1]); err != nil {
			return def, err
		}
	}
	return def, nil
}

// syncGlobals drops the definition socket once the list is empty.
func syncGlobals(env dispatch.Env, n *graph.Node, _ event.Event) {
	has := n.Child(scope.DefinitionSocket) != ""
	if has == n.Mutation.Bool(keyHasVariables) {
		return
	}
	_, err := env.Shapes().Update(env.Context(), n, map[string]any{keyHasVariables: has})
	dispatch.LogError(env, n, "Failed to resize global variable list.", err)
}

func onGlobalsButton(env dispatch.Env, n *graph.Node, button string) {
	if button != ButtonAdd {
		return
	}
	_, err := AppendDefinition(env, n, graph.TypeNumber)
	dispatch.LogError(env, n, "Failed to add global variable.", err)
}

// scopeName derives the scope string of a definition from its root and its
// VARPAR field.
func scopeName(env dispatch.Env, n *graph.Node) string {
	root, ok := env.Scopes().ScopeOf(n)
	if !ok {
		return ""
	}
	if root.Class == graph.ClassGlobalScope {
		return scope.ScopeGlobalVariable
	}
	if n.Field(scope.FieldRole) == RoleFieldParameter {
		return scope.ScopeFunctionParameter
	}
	return scope.ScopeFunctionVariable
}

// onDefinitionChanged mirrors edited fields into the mutation data and
// announces the new definition.
func onDefinitionChanged(env dispatch.Env, n *graph.Node, ev event.Event) {
	if ev.Element != event.ElementField {
		return
	}
	values := map[string]any{}
	switch ev.Name {
	case scope.FieldName:
		values[keyName] = ev.NewValue
	case scope.FieldType:
		newType := typeOf(ev.NewValue)
		values[keyType] = newType.String()
		if name := scope.DefinitionOf(n).Name; scope.IsDefaultName(name, typeOf(ev.OldValue)) {
			if root, ok := env.Scopes().ScopeOf(n); ok {
				if fresh, ok := env.Scopes().GenerateUniqueName(scope.DefaultBaseName(newType), root); ok {
					values[keyName] = fresh
					dispatch.LogError(env, n, "Failed to rename definition.", env.Graph().SetField(n.ID, scope.FieldName, fresh))
				}
			}
		}
	case scope.FieldRole:
		values[keyScope] = scopeName(env, n)
		if root, ok := env.Scopes().ScopeOf(n); ok && root.Class == graph.ClassFunctionScope {
			values[keyInitValue] = ev.NewValue != RoleFieldParameter
		}
	default:
		return
	}

	_, err := env.Shapes().Update(env.Context(), n, values)
	dispatch.LogError(env, n, "Failed to update definition.", err)
	announce(env, n)
}

func onDefinitionRootChanged(env dispatch.Env, n *graph.Node, _ event.Event) {
	if root, ok := env.Scopes().ScopeOf(n); ok {
		role := n.Field(scope.FieldRole)
		var err error
		switch {
		case root.Class == graph.ClassGlobalScope && role != "":
			err = env.Graph().SetField(n.ID, scope.FieldRole, "")
		case root.Class == graph.ClassFunctionScope && role == "":
			err = env.Graph().SetField(n.ID, scope.FieldRole, RoleFieldVariable)
		}
		dispatch.LogError(env, n, "Failed to reset definition role.", err)
	}

	_, err := env.Shapes().Update(env.Context(), n, map[string]any{keyScope: scopeName(env, n)})
	dispatch.LogError(env, n, "Failed to update definition scope.", err)
	announce(env, n)
}

// onDefinitionButton removes the definition once the current event has
// settled, splicing the rest of the chain into its place.
func onDefinitionButton(env dispatch.Env, n *graph.Node, button string) {
	if button != ButtonRemove {
		return
	}
	id := n.ID
	env.Defer(func() {
		if !env.Graph().Has(id) {
			return
		}
		_, err := env.Graph().Delete(id, true, scope.NextSocket)
		dispatch.LogError(env, n, "Failed to delete definition.", err)
	})
}

func announce(env dispatch.Env, n *graph.Node) {
	env.Emit(event.Event{
		Type:     event.Change,
		NodeID:   n.ID,
		Element:  event.ElementMutation,
		Name:     event.NameDefinition,
		NewValue: scope.DefinitionOf(n).String(),
	})
}
