package graph

import (
	"fmt"
	"slices"
	"sort"

	"github.com/vk/blockbind/internal/event"
	"github.com/vk/blockbind/internal/nodeid"
)

// Emitter receives every raw event produced by a graph primitive.
type Emitter func(event.Event)

// Graph is the id-indexed node table.
type Graph struct {
	nodes map[nodeid.ID]*Node
	seq   uint64
	emit  Emitter
	muted int
}

// New creates an empty graph with no emitter.
func New() *Graph {
	return &Graph{nodes: make(map[nodeid.ID]*Node)}
}

// SetEmitter installs the event sink. A nil emitter discards events.
func (g *Graph) SetEmitter(fn Emitter) {
	g.emit = fn
}

// Mute suppresses events until the returned function is called. Calls nest.
func (g *Graph) Mute() (restore func()) {
	g.muted++
	done := false
	return func() {
		if !done {
			done = true
			g.muted--
		}
	}
}

// Notify emits a synthetic event through the installed emitter.
func (g *Graph) Notify(ev event.Event) {
	if g.emit == nil || g.muted > 0 {
		return
	}
	g.emit(ev)
}

// Reset drops every node without emitting events.
func (g *Graph) Reset() {
	clear(g.nodes)
	g.seq = 0
}

// Add inserts a node. Its sockets and parent link are reset; use AddSocket
// and Connect to build structure.
func (g *Graph) Add(n *Node) error {
	if n == nil || n.ID.IsZero() {
		return fmt.Errorf("cannot add node without id")
	}
	if _, exists := g.nodes[n.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, n.ID)
	}
	g.seq++
	n.seq = g.seq
	n.parent = nodeid.None
	n.parentSocket = ""
	n.sockets = nil
	if n.Fields == nil {
		n.Fields = make(map[string]string)
	}
	g.nodes[n.ID] = n
	g.Notify(event.Event{Type: event.Create, NodeID: n.ID})
	return nil
}

// Node looks up a node by id.
func (g *Graph) Node(id nodeid.ID) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Has reports whether a node with the id exists.
func (g *Graph) Has(id nodeid.ID) bool {
	_, ok := g.nodes[id]
	return ok
}

// Len returns the number of nodes, palette nodes included.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Nodes returns every node in creation order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// Live returns every non-palette node in creation order.
func (g *Graph) Live() []*Node {
	all := g.Nodes()
	out := all[:0]
	for _, n := range all {
		if !n.Palette {
			out = append(out, n)
		}
	}
	return out
}

// IsPalette reports whether the node is a palette preview. Unknown ids are
// treated as palette so that callers skip them.
func (g *Graph) IsPalette(id nodeid.ID) bool {
	n, ok := g.nodes[id]
	return !ok || n.Palette
}

// Parent returns the node id is plugged into.
func (g *Graph) Parent(id nodeid.ID) (*Node, bool) {
	n, ok := g.nodes[id]
	if !ok || n.parent.IsZero() {
		return nil, false
	}
	return g.Node(n.parent)
}

// Root walks the parent chain up to the top-level node.
func (g *Graph) Root(id nodeid.ID) (*Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, false
	}
	for !n.parent.IsZero() {
		p, ok := g.nodes[n.parent]
		if !ok {
			break
		}
		n = p
	}
	return n, true
}

// Children returns the plugged children of a node in socket order.
func (g *Graph) Children(id nodeid.ID) []*Node {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	var out []*Node
	for _, s := range n.sockets {
		if c, ok := g.nodes[s.Child]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Descendants returns the subtree below id, depth-first, excluding id.
func (g *Graph) Descendants(id nodeid.ID) []*Node {
	var out []*Node
	var walk func(nodeid.ID)
	walk = func(cur nodeid.ID) {
		for _, c := range g.Children(cur) {
			out = append(out, c)
			walk(c.ID)
		}
	}
	walk(id)
	return out
}

// IsAncestor reports whether anc is id itself or one of its ancestors.
func (g *Graph) IsAncestor(anc, id nodeid.ID) bool {
	for cur := id; !cur.IsZero(); {
		if cur == anc {
			return true
		}
		n, ok := g.nodes[cur]
		if !ok {
			return false
		}
		cur = n.parent
	}
	return false
}

// Chain follows a statement chain: the child plugged into socket of id,
// then each node's next socket, until the chain ends.
func (g *Graph) Chain(id nodeid.ID, socket, next string) []*Node {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	var out []*Node
	seen := map[nodeid.ID]struct{}{}
	cur := n.Child(socket)
	for !cur.IsZero() {
		if _, loop := seen[cur]; loop {
			break
		}
		seen[cur] = struct{}{}
		c, ok := g.nodes[cur]
		if !ok {
			break
		}
		out = append(out, c)
		cur = c.Child(next)
	}
	return out
}

// SetField assigns a field and emits a change event when the value differs.
func (g *Graph) SetField(id nodeid.ID, name, value string) error {
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	old, had := n.Fields[name]
	if had && old == value {
		return nil
	}
	n.Fields[name] = value
	g.Notify(event.Event{
		Type:     event.Change,
		NodeID:   id,
		Element:  event.ElementField,
		Name:     name,
		OldValue: old,
		NewValue: value,
	})
	return nil
}

// NotifyMutation emits a mutation change event for id.
func (g *Graph) NotifyMutation(id nodeid.ID, name, oldValue, newValue string) {
	g.Notify(event.Event{
		Type:     event.Change,
		NodeID:   id,
		Element:  event.ElementMutation,
		Name:     name,
		OldValue: oldValue,
		NewValue: newValue,
	})
}

// AddSocket appends a socket to a node.
func (g *Graph) AddSocket(id nodeid.ID, spec SocketSpec) error {
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	return g.InsertSocket(id, len(n.sockets), spec)
}

// InsertSocket adds an empty socket at position i, clamped to the node's
// socket list.
func (g *Graph) InsertSocket(id nodeid.ID, i int, spec SocketSpec) error {
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	if n.socket(spec.Name) != nil {
		return fmt.Errorf("%w: %s.%s", ErrSocketExists, id, spec.Name)
	}
	i = min(max(i, 0), len(n.sockets))
	n.sockets = slices.Insert(n.sockets, i, &Socket{SocketSpec: spec})
	return nil
}

// RemoveSocket drops an empty socket.
func (g *Graph) RemoveSocket(id nodeid.ID, name string) error {
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	i := n.socketIndex(name)
	if i < 0 {
		return fmt.Errorf("%w: %s.%s", ErrSocketNotFound, id, name)
	}
	if n.sockets[i].Occupied() {
		return fmt.Errorf("%w: %s.%s", ErrSocketOccupied, id, name)
	}
	n.sockets = append(n.sockets[:i], n.sockets[i+1:]...)
	return nil
}

// RetypeSocket replaces the accepted type set of an existing socket. The
// caller is responsible for unplugging a child that no longer fits.
func (g *Graph) RetypeSocket(id nodeid.ID, name string, accepts TypeSet) error {
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	s := n.socket(name)
	if s == nil {
		return fmt.Errorf("%w: %s.%s", ErrSocketNotFound, id, name)
	}
	s.Accepts = accepts
	return nil
}

// Connect plugs child into parent's socket. A child already plugged
// elsewhere is moved; the single move event carries both ends.
func (g *Graph) Connect(parentID nodeid.ID, socket string, childID nodeid.ID) error {
	parent, ok := g.nodes[parentID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, parentID)
	}
	child, ok := g.nodes[childID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, childID)
	}
	s := parent.socket(socket)
	if s == nil {
		return fmt.Errorf("%w: %s.%s", ErrSocketNotFound, parentID, socket)
	}
	if s.Child == childID {
		return nil
	}
	if s.Occupied() {
		return fmt.Errorf("%w: %s.%s holds %s", ErrSocketOccupied, parentID, socket, s.Child)
	}
	if !s.Fits(child.Output) {
		return fmt.Errorf("%w: %s (%s) into %s.%s (%s %s)", ErrIncompatible, childID, child.Output, parentID, socket, s.Role, s.Accepts)
	}
	if g.IsAncestor(childID, parentID) {
		return fmt.Errorf("%w: %s under %s", ErrCycle, childID, parentID)
	}

	oldParent, oldSocket := child.parent, child.parentSocket
	g.unlink(child)
	s.Child = childID
	child.parent = parentID
	child.parentSocket = socket

	g.Notify(event.Event{
		Type:      event.Move,
		NodeID:    childID,
		OldParent: oldParent,
		OldSocket: oldSocket,
		NewParent: parentID,
		NewSocket: socket,
	})
	return nil
}

// Disconnect unplugs a node from its parent. Top-level nodes are left alone.
func (g *Graph) Disconnect(childID nodeid.ID) error {
	child, ok := g.nodes[childID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, childID)
	}
	if child.parent.IsZero() {
		return nil
	}
	oldParent, oldSocket := child.parent, child.parentSocket
	g.unlink(child)
	g.Notify(event.Event{
		Type:      event.Move,
		NodeID:    childID,
		OldParent: oldParent,
		OldSocket: oldSocket,
	})
	return nil
}

// SetPosition moves a node on the canvas without changing its parent.
func (g *Graph) SetPosition(id nodeid.ID, p Point) error {
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	if n.Position == p {
		return nil
	}
	n.Position = p
	g.Notify(event.Event{
		Type:      event.Move,
		NodeID:    id,
		OldParent: n.parent,
		OldSocket: n.parentSocket,
		NewParent: n.parent,
		NewSocket: n.parentSocket,
	})
	return nil
}

// Delete removes a node and its subtree. With heal set, the node plugged into
// the deleted node's next socket is reattached where the deleted node was,
// so a statement chain closes over the gap. The removed ids are returned in
// the order their delete events were emitted.
func (g *Graph) Delete(id nodeid.ID, heal bool, next string) ([]nodeid.ID, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}

	parentID, parentSocket := n.parent, n.parentSocket
	var survivor nodeid.ID
	if heal && next != "" {
		survivor = n.Child(next)
		if !survivor.IsZero() {
			if err := g.Disconnect(survivor); err != nil {
				return nil, err
			}
		}
	}

	doomed := append([]*Node{n}, g.Descendants(id)...)
	events := make([]event.Event, 0, len(doomed))
	for _, d := range doomed {
		events = append(events, event.Event{Type: event.Delete, NodeID: d.ID, OldParent: d.parent, OldSocket: d.parentSocket})
	}
	g.unlink(n)

	removed := make([]nodeid.ID, 0, len(doomed))
	for _, d := range doomed {
		delete(g.nodes, d.ID)
		removed = append(removed, d.ID)
	}
	for _, ev := range events {
		g.Notify(ev)
	}

	if !survivor.IsZero() && !parentID.IsZero() {
		if err := g.Connect(parentID, parentSocket, survivor); err != nil {
			return removed, fmt.Errorf("failed to heal chain after deleting %s: %w", id, err)
		}
	}
	return removed, nil
}

func (g *Graph) unlink(child *Node) {
	if child.parent.IsZero() {
		return
	}
	if p, ok := g.nodes[child.parent]; ok {
		if s := p.socket(child.parentSocket); s != nil && s.Child == child.ID {
			s.Child = nodeid.None
		}
	}
	child.parent = nodeid.None
	child.parentSocket = ""
}
