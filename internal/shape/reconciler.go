package shape

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/vk/blockbind/internal/ctxlog"
	"github.com/vk/blockbind/internal/event"
	"github.com/vk/blockbind/internal/graph"
	"github.com/vk/blockbind/internal/mutation"
	"github.com/vk/blockbind/internal/nodeid"
)

// ErrUnknownKind is returned for nodes whose kind the catalog does not know.
var ErrUnknownKind = errors.New("unknown node kind")

// Spec is everything the reconciler needs to know about a node kind.
type Spec struct {
	Schema mutation.Schema
	Layout func(mutation.Data) graph.Shape
}

// Catalog looks up the Spec of a kind.
type Catalog interface {
	ShapeOf(kind string) (Spec, bool)
}

// DisconnectPolicy decides what happens to a child that lost its socket.
type DisconnectPolicy func(g *graph.Graph, parent *graph.Node, orphan nodeid.ID) error

// DefaultOffset is where Nearby parks orphans relative to their old parent.
var DefaultOffset = graph.Point{X: 24, Y: 24}

// Nearby unplugs the orphan and moves it next to its former parent.
func Nearby(offset graph.Point) DisconnectPolicy {
	return func(g *graph.Graph, parent *graph.Node, orphan nodeid.ID) error {
		if err := g.Disconnect(orphan); err != nil {
			return err
		}
		return g.SetPosition(orphan, parent.Position.Add(offset))
	}
}

// Result summarizes what a rebuild changed.
type Result struct {
	Added         []string
	Removed       []string
	Retyped       []string
	Orphans       []nodeid.ID
	OutputChanged bool
	// Skipped is set when the rebuild was dropped because the same node was
	// already being rebuilt.
	Skipped bool
}

// Changed reports whether the rebuild touched anything.
func (r Result) Changed() bool {
	return len(r.Added) > 0 || len(r.Removed) > 0 || len(r.Retyped) > 0 || r.OutputChanged
}

// Reconciler rebuilds node shapes inside one graph.
type Reconciler struct {
	g          *graph.Graph
	catalog    Catalog
	policy     DisconnectPolicy
	rebuilding map[nodeid.ID]bool
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithDisconnectPolicy replaces the Nearby default.
func WithDisconnectPolicy(p DisconnectPolicy) Option {
	return func(r *Reconciler) {
		r.policy = p
	}
}

// New creates a reconciler.
func New(g *graph.Graph, catalog Catalog, opts ...Option) *Reconciler {
	r := &Reconciler{
		g:          g,
		catalog:    catalog,
		policy:     Nearby(DefaultOffset),
		rebuilding: make(map[nodeid.ID]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Initialize resets a freshly created node to its kind's defaults and
// builds its sockets.
func (r *Reconciler) Initialize(ctx context.Context, n *graph.Node) (Result, error) {
	spec, ok := r.catalog.ShapeOf(n.Kind)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownKind, n.Kind)
	}
	n.Mutation = spec.Schema.Defaults()
	return r.Rebuild(ctx, n)
}

// Serialize returns the node's non-default mutation fields.
func (r *Reconciler) Serialize(n *graph.Node) mutation.Bag {
	return n.Mutation.Serialize()
}

// Deserialize replaces the node's mutation data from a persisted bag and
// rebuilds. Unparseable fields fall back to their defaults; the parse
// errors are returned after the rebuild has run.
func (r *Reconciler) Deserialize(ctx context.Context, n *graph.Node, bag mutation.Bag) (Result, error) {
	spec, ok := r.catalog.ShapeOf(n.Kind)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownKind, n.Kind)
	}
	data, parseErr := spec.Schema.Deserialize(bag)
	if parseErr != nil {
		ctxlog.FromContext(ctx).Warn("Mutation fields fell back to defaults.", "node", n.ID, "kind", n.Kind, "error", parseErr)
	}
	n.Mutation = data
	res, err := r.Rebuild(ctx, n)
	return res, errors.Join(parseErr, err)
}

// Update assigns mutation fields, announces the change and rebuilds. An
// update that changes nothing neither emits nor rebuilds.
func (r *Reconciler) Update(ctx context.Context, n *graph.Node, values map[string]any) (Result, error) {
	next := n.Mutation.Clone()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := next.Set(k, values[k]); err != nil {
			return Result{}, fmt.Errorf("node %s: %w", n.ID, err)
		}
	}
	if next.Equal(n.Mutation) {
		return Result{}, nil
	}

	before := bagString(n.Mutation.Serialize())
	n.Mutation = next
	r.g.NotifyMutation(n.ID, event.NameMutation, before, bagString(next.Serialize()))
	return r.Rebuild(ctx, n)
}

// Rebuild brings the node's sockets and output connector in line with
// layout(mutation). New sockets take their layout position. It is idempotent, and a call for a node that is already
// being rebuilt is dropped.
func (r *Reconciler) Rebuild(ctx context.Context, n *graph.Node) (Result, error) {
	logger := ctxlog.FromContext(ctx)
	spec, ok := r.catalog.ShapeOf(n.Kind)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownKind, n.Kind)
	}
	if r.rebuilding[n.ID] {
		logger.Debug("Dropped re-entrant rebuild.", "node", n.ID)
		return Result{Skipped: true}, nil
	}
	r.rebuilding[n.ID] = true
	defer delete(r.rebuilding, n.ID)

	desired := spec.Layout(n.Mutation)
	want := make(map[string]graph.SocketSpec, len(desired.Sockets))
	for _, s := range desired.Sockets {
		if _, dup := want[s.Name]; dup {
			return Result{}, fmt.Errorf("kind %s: layout declares socket '%s' twice", n.Kind, s.Name)
		}
		want[s.Name] = s
	}

	var res Result
	var errs []error
	orphan := func(child nodeid.ID) {
		res.Orphans = append(res.Orphans, child)
		if err := r.policy(r.g, n, child); err != nil {
			errs = append(errs, fmt.Errorf("disconnect %s from %s: %w", child, n.ID, err))
		}
	}

	for _, s := range n.Sockets() {
		d, keep := want[s.Name]
		switch {
		case !keep || d.Role != s.Role:
			if s.Occupied() {
				orphan(s.Child)
			}
			if err := r.g.RemoveSocket(n.ID, s.Name); err != nil {
				errs = append(errs, err)
				continue
			}
			res.Removed = append(res.Removed, s.Name)
		case d.Accepts != s.Accepts:
			if err := r.g.RetypeSocket(n.ID, s.Name, d.Accepts); err != nil {
				errs = append(errs, err)
				continue
			}
			res.Retyped = append(res.Retyped, s.Name)
			if child, ok := r.g.Node(s.Child); ok && !d.Fits(child.Output) {
				orphan(child.ID)
			}
		}
	}

	for i, d := range desired.Sockets {
		if _, exists := n.Socket(d.Name); exists {
			continue
		}
		if err := r.g.InsertSocket(n.ID, i, d); err != nil {
			errs = append(errs, err)
			continue
		}
		res.Added = append(res.Added, d.Name)
	}

	if n.Output != desired.Output {
		n.Output = desired.Output
		res.OutputChanged = true
		if parent, ok := r.g.Parent(n.ID); ok {
			if s, ok := parent.Socket(n.ParentSocket()); ok && !s.Fits(n.Output) {
				res.Orphans = append(res.Orphans, n.ID)
				if err := r.policy(r.g, parent, n.ID); err != nil {
					errs = append(errs, fmt.Errorf("disconnect %s from %s: %w", n.ID, parent.ID, err))
				}
			}
		}
	}

	if res.Changed() {
		logger.Debug("Rebuilt node shape.", "node", n.ID, "kind", n.Kind, "added", res.Added, "removed", res.Removed, "retyped", res.Retyped, "orphans", len(res.Orphans))
	}
	return res, errors.Join(errs...)
}

func bagString(bag mutation.Bag) string {
	keys := make([]string, 0, len(bag))
	for k := range bag {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + bag[k]
	}
	return strings.Join(parts, ";")
}
