package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vk/blockbind/internal/ctxlog"
	"github.com/vk/blockbind/internal/event"
	"github.com/vk/blockbind/internal/graph"
	"github.com/vk/blockbind/internal/nodeid"
)

// ErrQueueOverflow is returned when a single pass handles more than
// MaxEvents events. The remaining queue and deferred work are dropped.
var ErrQueueOverflow = errors.New("dispatch queue overflow")

// DefaultMaxEvents bounds one dispatch pass.
const DefaultMaxEvents = 10000

type deferredTask struct {
	fn    func()
	group event.GroupID
}

// Dispatcher owns the event queue of one graph.
type Dispatcher struct {
	g         *graph.Graph
	hooks     HookSource
	env       Env
	maxEvents int

	queue    []event.Event
	deferred []deferredTask
	active   bool
	group    event.GroupID
	ctx      context.Context
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithMaxEvents overrides DefaultMaxEvents.
func WithMaxEvents(n int) Option {
	return func(d *Dispatcher) {
		d.maxEvents = n
	}
}

// New creates a dispatcher. Bind must be called before the first event.
func New(g *graph.Graph, hooks HookSource, opts ...Option) *Dispatcher {
	d := &Dispatcher{g: g, hooks: hooks, maxEvents: DefaultMaxEvents}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Bind sets the environment handed to hooks.
func (d *Dispatcher) Bind(env Env) {
	d.env = env
}

// Active reports whether a pass is running.
func (d *Dispatcher) Active() bool {
	return d.active
}

// Context returns the context of the running pass, or Background.
func (d *Dispatcher) Context() context.Context {
	if d.ctx != nil {
		return d.ctx
	}
	return context.Background()
}

// CurrentGroup returns the group id of the event being handled.
func (d *Dispatcher) CurrentGroup() event.GroupID {
	return d.group
}

// NewGroup mints a fresh group id.
func (d *Dispatcher) NewGroup() event.GroupID {
	return event.GroupID(uuid.NewString())
}

// Enqueue appends an event to the queue, tagging it with the current group
// when it has none. It never processes anything by itself.
func (d *Dispatcher) Enqueue(ev event.Event) {
	if ev.Group == "" {
		ev.Group = d.group
	}
	d.queue = append(d.queue, ev)
}

// Defer schedules fn to run once the queue has drained, in the group that
// was current when it was scheduled.
func (d *Dispatcher) Defer(fn func()) {
	d.deferred = append(d.deferred, deferredTask{fn: fn, group: d.group})
}

// Dispatch queues ev and, unless a pass is already running, processes the
// queue until it settles.
func (d *Dispatcher) Dispatch(ctx context.Context, ev event.Event) error {
	d.Enqueue(ev)
	return d.Flush(ctx)
}

// Flush processes whatever is queued.
func (d *Dispatcher) Flush(ctx context.Context) error {
	return d.Do(ctx, "", func() {})
}

// Do runs fn inside a pass so that every event it raises shares one group,
// then drains the queue. An empty group mints a new one. Inside a running
// pass fn simply runs and its events join the current pass.
func (d *Dispatcher) Do(ctx context.Context, group event.GroupID, fn func()) error {
	if d.active {
		fn()
		return nil
	}
	if group == "" {
		group = d.NewGroup()
	}
	d.active = true
	d.ctx = ctx
	d.group = group
	defer func() {
		d.active = false
		d.ctx = nil
		d.group = ""
	}()

	fn()
	return d.drain()
}

func (d *Dispatcher) drain() error {
	logger := ctxlog.FromContext(d.Context())
	processed := 0
	for {
		for len(d.queue) > 0 {
			if processed >= d.maxEvents {
				dropped := len(d.queue)
				d.queue = nil
				d.deferred = nil
				logger.Error("Dispatch pass did not settle, dropping queue.", "processed", processed, "dropped", dropped)
				return fmt.Errorf("%w: %d events processed, %d dropped", ErrQueueOverflow, processed, dropped)
			}
			ev := d.queue[0]
			d.queue = d.queue[1:]
			processed++
			if ev.Group == "" {
				ev.Group = d.NewGroup()
			}
			d.group = ev.Group
			d.process(ev)
		}
		if len(d.deferred) == 0 {
			return nil
		}
		tasks := d.deferred
		d.deferred = nil
		for _, task := range tasks {
			d.group = task.group
			d.guard(task.fn, "deferred", true, "group", task.group)
		}
	}
}

func (d *Dispatcher) process(ev event.Event) {
	ctxlog.FromContext(d.Context()).Debug("Dispatching event.", "event", ev.String(), "group", ev.Group)

	// A new node starts as its own root; if it was plugged in right away
	// the following move reports the real root through OnRootChanged.
	if ev.Type == event.Create {
		if n, ok := d.g.Node(ev.NodeID); ok && n.RootID.IsZero() {
			n.RootID = n.ID
		}
	}

	for _, n := range d.order(ev.NodeID) {
		if n.Palette || !d.g.Has(n.ID) {
			continue
		}
		if h := d.hooks.HooksFor(n.Kind); h != nil {
			d.invoke(h, n, ev)
		}
	}
	if ev.StructuralChange() {
		d.refreshRoots(ev)
	}
}

// order lists live nodes with the origin first.
func (d *Dispatcher) order(origin nodeid.ID) []*graph.Node {
	live := d.g.Live()
	out := make([]*graph.Node, 0, len(live))
	if n, ok := d.g.Node(origin); ok && !n.Palette {
		out = append(out, n)
	}
	for _, n := range live {
		if n.ID != origin {
			out = append(out, n)
		}
	}
	return out
}

func (d *Dispatcher) invoke(h *Hooks, n *graph.Node, ev event.Event) {
	self := ev.NodeID == n.ID
	root := !self && !n.RootID.IsZero() && n.RootID != n.ID && ev.NodeID == n.RootID
	observed := !self && n.Watches(ev.NodeID)
	child := ev.Type == event.Move && (ev.OldParent == n.ID || ev.NewParent == n.ID)

	switch ev.Type {
	case event.Create:
		if self {
			d.call(h.OnCreateSelf, n, ev)
		}
	case event.Change:
		if self {
			d.call(h.OnChangeSelf, n, ev)
		}
		if root {
			d.call(h.OnChangeRoot, n, ev)
		}
		if observed {
			d.call(h.OnChangeObserved, n, ev)
		}
		d.call(h.OnChange, n, ev)
	case event.Move:
		if self {
			d.call(h.OnMoveSelf, n, ev)
		}
		if root {
			d.call(h.OnMoveRoot, n, ev)
		}
		if child {
			d.call(h.OnMoveChild, n, ev)
		}
		d.call(h.OnMove, n, ev)
	case event.Delete:
		if observed {
			d.call(h.OnDeleteObserved, n, ev)
		}
		d.call(h.OnDelete, n, ev)
	case event.FinishedLoading:
		d.call(h.OnFinishedLoading, n, ev)
	}
}

func (d *Dispatcher) refreshRoots(ev event.Event) {
	for _, n := range d.g.Live() {
		root, ok := d.g.Root(n.ID)
		if !ok || root.ID == n.RootID {
			continue
		}
		n.RootID = root.ID
		if h := d.hooks.HooksFor(n.Kind); h != nil {
			d.call(h.OnRootChanged, n, ev)
		}
	}
}

// Press runs a node's button hook in a fresh group.
func (d *Dispatcher) Press(ctx context.Context, n *graph.Node, button string) error {
	h := d.hooks.HooksFor(n.Kind)
	if h == nil || h.OnButton == nil {
		return fmt.Errorf("node %s (%s) has no button %q", n.ID, n.Kind, button)
	}
	return d.Do(ctx, "", func() {
		d.guard(func() { h.OnButton(d.env, n, button) }, "node", n.ID, "kind", n.Kind)
	})
}

// call runs one hook. A panicking hook is logged and contained so that the
// other nodes still see the event.
func (d *Dispatcher) call(hook Hook, n *graph.Node, ev event.Event) {
	if hook == nil || !d.g.Has(n.ID) {
		return
	}
	d.guard(func() { hook(d.env, n, ev) }, "node", n.ID, "kind", n.Kind)
}

// guard runs fn and logs a panic with attrs instead of propagating it.
func (d *Dispatcher) guard(fn func(), attrs ...any) {
	defer func() {
		if r := recover(); r != nil {
			ctxlog.FromContext(d.Context()).Error("Hook panicked.", append(attrs, "panic", r)...)
		}
	}()
	fn()
}
