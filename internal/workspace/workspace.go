package workspace

import (
	"context"
	"fmt"

	"github.com/vk/blockbind/internal/dispatch"
	"github.com/vk/blockbind/internal/event"
	"github.com/vk/blockbind/internal/graph"
	"github.com/vk/blockbind/internal/nodeid"
	"github.com/vk/blockbind/internal/registry"
	"github.com/vk/blockbind/internal/scope"
	"github.com/vk/blockbind/internal/shape"
	"github.com/vk/blockbind/internal/signature"
)

// Workspace binds a graph to a registry and the engine components.
type Workspace struct {
	reg    *registry.Registry
	g      *graph.Graph
	scopes *scope.Resolver
	shapes *shape.Reconciler
	sigs   *signature.Propagator
	d      *dispatch.Dispatcher
	ids    nodeid.Generator
}

type options struct {
	ids       nodeid.Generator
	maxEvents int
	policy    shape.DisconnectPolicy
}

// Option configures a Workspace.
type Option func(*options)

// WithIDGenerator overrides the UUID id generator.
func WithIDGenerator(gen nodeid.Generator) Option {
	return func(o *options) { o.ids = gen }
}

// WithMaxEvents bounds a single dispatch pass.
func WithMaxEvents(n int) Option {
	return func(o *options) { o.maxEvents = n }
}

// WithDisconnectPolicy overrides where orphaned children go.
func WithDisconnectPolicy(p shape.DisconnectPolicy) Option {
	return func(o *options) { o.policy = p }
}

// New creates an empty workspace for the kinds in reg.
func New(reg *registry.Registry, opts ...Option) *Workspace {
	o := options{ids: nodeid.UUIDGenerator{}, maxEvents: dispatch.DefaultMaxEvents}
	for _, opt := range opts {
		opt(&o)
	}

	g := graph.New()
	var shapeOpts []shape.Option
	if o.policy != nil {
		shapeOpts = append(shapeOpts, shape.WithDisconnectPolicy(o.policy))
	}
	w := &Workspace{reg: reg, g: g, ids: o.ids}
	w.scopes = scope.New(g)
	w.shapes = shape.New(g, reg, shapeOpts...)
	w.sigs = signature.New(g, w.scopes, w.shapes)
	w.d = dispatch.New(g, reg, dispatch.WithMaxEvents(o.maxEvents))
	w.d.Bind(w)
	g.SetEmitter(w.d.Enqueue)
	return w
}

// Registry returns the kind registry.
func (w *Workspace) Registry() *registry.Registry { return w.reg }

// Context implements dispatch.Env.
func (w *Workspace) Context() context.Context { return w.d.Context() }

// Graph implements dispatch.Env.
func (w *Workspace) Graph() *graph.Graph { return w.g }

// Scopes implements dispatch.Env.
func (w *Workspace) Scopes() *scope.Resolver { return w.scopes }

// Shapes implements dispatch.Env.
func (w *Workspace) Shapes() *shape.Reconciler { return w.shapes }

// Signatures implements dispatch.Env.
func (w *Workspace) Signatures() *signature.Propagator { return w.sigs }

// Emit implements dispatch.Env.
func (w *Workspace) Emit(ev event.Event) { w.g.Notify(ev) }

// Defer implements dispatch.Env.
func (w *Workspace) Defer(fn func()) { w.d.Defer(fn) }

// Spawn implements dispatch.Env.
func (w *Workspace) Spawn(kind string, parent nodeid.ID, socket string) (*graph.Node, error) {
	return w.create(w.Context(), w.ids.Next(), kind, false, parent, socket)
}

// Node looks up a node.
func (w *Workspace) Node(id nodeid.ID) (*graph.Node, bool) {
	return w.g.Node(id)
}

// node looks up a node or fails with graph.ErrNodeNotFound.
func (w *Workspace) node(id nodeid.ID) (*graph.Node, error) {
	n, ok := w.g.Node(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", graph.ErrNodeNotFound, id)
	}
	return n, nil
}

func (w *Workspace) create(ctx context.Context, id nodeid.ID, kind string, palette bool, parent nodeid.ID, socket string) (*graph.Node, error) {
	k, ok := w.reg.Kind(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %s", shape.ErrUnknownKind, kind)
	}
	n := &graph.Node{ID: id, Kind: kind, Class: k.Class, Palette: palette}
	if err := w.g.Add(n); err != nil {
		return nil, err
	}
	if _, err := w.shapes.Initialize(ctx, n); err != nil {
		return n, err
	}
	if !parent.IsZero() {
		if err := w.g.Connect(parent, socket, n.ID); err != nil {
			return n, err
		}
	}
	return n, nil
}
