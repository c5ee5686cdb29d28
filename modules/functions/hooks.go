package functions

import (
	"github.com/vk/blockbind/internal/ctxlog"
	"github.com/vk/blockbind/internal/dispatch"
	"github.com/vk/blockbind/internal/event"
	"github.com/vk/blockbind/internal/graph"
	"github.com/vk/blockbind/internal/nodeid"
	"github.com/vk/blockbind/internal/scope"
	"github.com/vk/blockbind/internal/signature"
	"github.com/vk/blockbind/modules/variables"
)

// ReturnOutsideFunction is the warning set on misplaced return statements.
const ReturnOutsideFunction = "return is only allowed inside a function"

// SyncFunction recounts a function's definitions, re-reads its result type
// and announces the signature when it differs from the last announced one.
func SyncFunction(env dispatch.Env, fn *graph.Node) {
	count := len(env.Graph().Chain(fn.ID, scope.DefinitionSocket, scope.NextSocket))
	_, err := env.Shapes().Update(env.Context(), fn, map[string]any{
		keyVariables:                 count,
		signature.FunctionResultType: signature.ResultType(fn).String(),
	})
	dispatch.LogError(env, fn, "Failed to update function shape.", err)

	sig := env.Signatures().Signature(fn)
	if fn.Cache == nil {
		fn.Cache = &graph.ResolutionCache{}
	}
	if prev := fn.Cache.Signature; prev != nil && prev.SameShape(sig) && prev.Name == sig.Name {
		return
	}
	fn.Cache.Signature = &sig
	env.Emit(event.Event{
		Type:     event.Change,
		NodeID:   fn.ID,
		Element:  event.ElementMutation,
		Name:     event.NameSignature,
		NewValue: sig.String(),
	})
}

func syncHook(env dispatch.Env, n *graph.Node, _ event.Event) {
	SyncFunction(env, n)
}

func onFunctionChanged(env dispatch.Env, n *graph.Node, ev event.Event) {
	switch {
	case ev.IsFieldChange(scope.FieldName):
		_, err := env.Shapes().Update(env.Context(), n, map[string]any{keyName: ev.NewValue})
		dispatch.LogError(env, n, "Failed to mirror function name.", err)
	case ev.IsFieldChange(signature.FieldResultType):
	default:
		return
	}
	SyncFunction(env, n)
}

// onDefinitionNotice reacts to definitions inside the function changing.
func onDefinitionNotice(env dispatch.Env, n *graph.Node, ev event.Event) {
	if !ev.IsNotification(event.NameDefinition) || ev.NodeID == n.ID {
		return
	}
	if root, ok := env.Graph().Root(ev.NodeID); ok && root.ID == n.ID {
		SyncFunction(env, n)
	}
}

// onAnyMove resyncs when something left or entered the function's tree.
func onAnyMove(env dispatch.Env, n *graph.Node, ev event.Event) {
	if !ev.IsReparent() {
		return
	}
	if within(env.Graph(), n.ID, ev.OldParent) || within(env.Graph(), n.ID, ev.NewParent) {
		SyncFunction(env, n)
	}
}

func within(g *graph.Graph, rootID, id nodeid.ID) bool {
	if id.IsZero() {
		return false
	}
	root, ok := g.Root(id)
	return ok && root.ID == rootID
}

func onFunctionButton(env dispatch.Env, n *graph.Node, button string) {
	if button != ButtonAddParameter {
		return
	}
	if len(env.Signatures().Signature(n).Params) >= signature.MaxParameters {
		ctxlog.FromContext(env.Context()).Warn("Parameter limit reached.", "node", n.ID, "limit", signature.MaxParameters)
		return
	}
	_, err := variables.AppendDefinition(env, n, graph.TypeNumber)
	dispatch.LogError(env, n, "Failed to add parameter.", err)
}

func syncCall(env dispatch.Env, n *graph.Node, ev *event.Event) {
	_, err := env.Signatures().Sync(env.Context(), n, ev)
	dispatch.LogError(env, n, "Failed to sync call site.", err)
}

func callSyncHook(env dispatch.Env, n *graph.Node, ev event.Event) {
	syncCall(env, n, &ev)
}

func onCallChanged(env dispatch.Env, n *graph.Node, ev event.Event) {
	if !ev.IsFieldChange(scope.FieldName) {
		return
	}
	_, err := env.Shapes().Update(env.Context(), n, map[string]any{signature.CallName: ev.NewValue})
	dispatch.LogError(env, n, "Failed to mirror call name.", err)
	syncCall(env, n, &ev)
}

func onCallMoved(env dispatch.Env, n *graph.Node, ev event.Event) {
	if ev.IsReparent() {
		syncCall(env, n, &ev)
	}
}

// onSignatureNotice gives unresolved call sites a chance to bind to a
// function that just appeared or was renamed to their name.
func onSignatureNotice(env dispatch.Env, n *graph.Node, ev event.Event) {
	if !ev.IsNotification(event.NameSignature) {
		return
	}
	if n.Cache != nil && !n.Cache.Unresolved {
		return
	}
	syncCall(env, n, &ev)
}

// CheckReturn types a return statement after its enclosing function, or
// flags it when there is none.
func CheckReturn(env dispatch.Env, n *graph.Node) {
	root, ok := env.Graph().Root(n.ID)
	if !ok || root.ID == n.ID || root.Class != graph.ClassFunctionScope {
		n.Warning = ReturnOutsideFunction
		n.Disabled = true
		return
	}
	n.Warning = ""
	n.Disabled = false
	_, err := env.Shapes().Update(env.Context(), n, map[string]any{keyValueType: signature.ResultType(root).String()})
	dispatch.LogError(env, n, "Failed to retype return.", err)
}

func checkReturnHook(env dispatch.Env, n *graph.Node, _ event.Event) {
	CheckReturn(env, n)
}

func onReturnRootChanged(env dispatch.Env, n *graph.Node, ev event.Event) {
	if ev.IsNotification(event.NameSignature) || ev.IsFieldChange(signature.FieldResultType) {
		CheckReturn(env, n)
	}
}
