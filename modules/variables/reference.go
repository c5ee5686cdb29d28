package variables

import (
	"fmt"

	"github.com/vk/blockbind/internal/ctxlog"
	"github.com/vk/blockbind/internal/dispatch"
	"github.com/vk/blockbind/internal/event"
	"github.com/vk/blockbind/internal/graph"
	"github.com/vk/blockbind/internal/nodeid"
	"github.com/vk/blockbind/internal/scope"
)

// ReferenceName is the variable name a reference node points at.
func ReferenceName(n *graph.Node) string {
	if name := n.Field(scope.FieldName); name != "" {
		return name
	}
	return n.Mutation.String(keyName)
}

// Resolve binds a reference node to the definition of its name in the
// scope it currently lives in. An unresolved reference inside a scope is
// flagged and disabled; outside of any scope it is left alone.
func Resolve(env dispatch.Env, n *graph.Node) (scope.Binding, bool) {
	if n.Cache == nil {
		n.Cache = &graph.ResolutionCache{}
	}
	name := ReferenceName(n)
	n.Cache.BoundName = name

	root, hasScope := env.Scopes().ScopeOf(n)
	var b scope.Binding
	ok := false
	if hasScope {
		b, ok = env.Scopes().Resolve(root, name)
	}

	if !ok {
		if hasScope && !n.Cache.Unresolved {
			ctxlog.FromContext(env.Context()).Warn("Variable reference is unresolved.", "node", n.ID, "name", name, "scope", root.ID)
		}
		n.Cache.DefinitionID = nodeid.None
		n.Cache.Unresolved = true
		n.Watch = nil
		if hasScope {
			n.Warning = fmt.Sprintf("variable %q is not defined here", name)
			n.Disabled = true
		} else {
			n.Warning = ""
			n.Disabled = false
		}
		return scope.Binding{}, false
	}

	n.Cache.DefinitionID = b.OwnerID
	n.Cache.Unresolved = false
	n.Watch = []nodeid.ID{b.OwnerID}
	n.Warning = ""
	n.Disabled = false

	_, err := env.Shapes().Update(env.Context(), n, map[string]any{keyName: b.Name, keyValueType: b.Type.String()})
	dispatch.LogError(env, n, "Failed to update reference.", err)
	return b, true
}

func resolveHook(env dispatch.Env, n *graph.Node, _ event.Event) {
	Resolve(env, n)
}

func onReferenceChanged(env dispatch.Env, n *graph.Node, ev event.Event) {
	if !ev.IsFieldChange(scope.FieldName) {
		return
	}
	Resolve(env, n)
}

// onDefinitionObserved follows the watched definition by identity, so a
// rename carries over to the reference instead of orphaning it.
func onDefinitionObserved(env dispatch.Env, n *graph.Node, ev event.Event) {
	if n.Cache == nil || ev.NodeID != n.Cache.DefinitionID {
		return
	}
	def, ok := env.Graph().Node(ev.NodeID)
	if !ok {
		Resolve(env, n)
		return
	}
	name := scope.DefinitionOf(def).Name
	if name != ReferenceName(n) {
		// The field change re-enters onReferenceChanged.
		dispatch.LogError(env, n, "Failed to follow definition rename.", env.Graph().SetField(n.ID, scope.FieldName, name))
		return
	}
	Resolve(env, n)
}
