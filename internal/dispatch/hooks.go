package dispatch

import (
	"context"

	"github.com/vk/blockbind/internal/ctxlog"
	"github.com/vk/blockbind/internal/event"
	"github.com/vk/blockbind/internal/graph"
	"github.com/vk/blockbind/internal/nodeid"
	"github.com/vk/blockbind/internal/scope"
	"github.com/vk/blockbind/internal/shape"
	"github.com/vk/blockbind/internal/signature"
)

// Env is what hooks may use while handling an event.
type Env interface {
	Context() context.Context
	Graph() *graph.Graph
	Scopes() *scope.Resolver
	Shapes() *shape.Reconciler
	Signatures() *signature.Propagator
	// Emit queues a synthetic event behind the one being handled.
	Emit(ev event.Event)
	// Defer schedules fn to run after the current queue drains.
	Defer(fn func())
	// Spawn creates a node of the given kind with default mutation data and
	// plugs it into parent.socket when parent is set.
	Spawn(kind string, parent nodeid.ID, socket string) (*graph.Node, error)
}

// LogError reports a failure inside a hook. Hooks have no caller to return
// errors to.
func LogError(env Env, n *graph.Node, msg string, err error) {
	if err == nil {
		return
	}
	ctxlog.FromContext(env.Context()).Error(msg, "node", n.ID, "kind", n.Kind, "error", err)
}

// Hook handles one event for one node.
type Hook func(env Env, n *graph.Node, ev event.Event)

// ButtonHook handles a button press on a node.
type ButtonHook func(env Env, n *graph.Node, button string)

// Hooks is the capability record of a node kind. Nil slots are skipped.
type Hooks struct {
	OnCreateSelf Hook
	OnChangeSelf Hook
	OnMoveSelf   Hook

	OnChangeRoot Hook
	OnMoveRoot   Hook

	OnChangeObserved Hook
	OnDeleteObserved Hook

	OnMoveChild Hook

	OnChange          Hook
	OnMove            Hook
	OnDelete          Hook
	OnFinishedLoading Hook

	OnRootChanged Hook
	OnButton      ButtonHook
}

// HookSource returns the hooks registered for a kind, or nil.
type HookSource interface {
	HooksFor(kind string) *Hooks
}
