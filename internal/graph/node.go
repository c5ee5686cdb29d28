package graph

import (
	"slices"
	"strings"

	"github.com/vk/blockbind/internal/mutation"
	"github.com/vk/blockbind/internal/nodeid"
)

// Socket is a named connection point together with its plugged child.
type Socket struct {
	SocketSpec
	Child nodeid.ID
}

// Occupied reports whether a child is plugged in.
func (s Socket) Occupied() bool {
	return !s.Child.IsZero()
}

// Signature describes a function as seen by its call sites.
type Signature struct {
	Name   string
	Return TypeTag
	Params []TypeTag
}

// SameShape reports whether two signatures need the same call-site sockets.
// Names are ignored.
func (s Signature) SameShape(o Signature) bool {
	return s.Return == o.Return && slices.Equal(s.Params, o.Params)
}

func (s Signature) String() string {
	params := make([]string, len(s.Params))
	for i, p := range s.Params {
		params[i] = p.String()
	}
	return s.Name + "(" + strings.Join(params, ", ") + ") " + s.Return.String()
}

// ResolutionCache is what a reference or call site remembers about the
// definition it is bound to.
type ResolutionCache struct {
	BoundName    string
	DefinitionID nodeid.ID
	Signature    *Signature
	Unresolved   bool
}

// Resolved reports whether the cache points at a definition.
func (c *ResolutionCache) Resolved() bool {
	return c != nil && !c.Unresolved && !c.DefinitionID.IsZero()
}

// Node is a single block in the graph.
type Node struct {
	ID       nodeid.ID
	Kind     string
	Class    Class
	Palette  bool
	Position Point
	Fields   map[string]string
	Mutation mutation.Data
	Output   Connector

	// Bookkeeping maintained by the engine.
	RootID   nodeid.ID
	Watch    []nodeid.ID
	Cache    *ResolutionCache
	Warning  string
	Disabled bool

	parent       nodeid.ID
	parentSocket string
	sockets      []*Socket
	seq          uint64
}

// Parent returns the id of the node this one is plugged into.
func (n *Node) Parent() nodeid.ID {
	return n.parent
}

// ParentSocket returns the name of the parent socket holding this node.
func (n *Node) ParentSocket() string {
	return n.parentSocket
}

// IsTopLevel reports whether the node is not plugged anywhere.
func (n *Node) IsTopLevel() bool {
	return n.parent.IsZero()
}

// Field returns a field value, or "" if unset.
func (n *Node) Field(name string) string {
	return n.Fields[name]
}

// Sockets returns a snapshot of the node's sockets in order.
func (n *Node) Sockets() []Socket {
	out := make([]Socket, len(n.sockets))
	for i, s := range n.sockets {
		out[i] = *s
	}
	return out
}

// SocketNames returns the socket names in order.
func (n *Node) SocketNames() []string {
	names := make([]string, len(n.sockets))
	for i, s := range n.sockets {
		names[i] = s.Name
	}
	return names
}

// Socket returns a snapshot of the named socket.
func (n *Node) Socket(name string) (Socket, bool) {
	if s := n.socket(name); s != nil {
		return *s, true
	}
	return Socket{}, false
}

// Child returns the id plugged into the named socket, if any.
func (n *Node) Child(name string) nodeid.ID {
	if s := n.socket(name); s != nil {
		return s.Child
	}
	return nodeid.None
}

// Watches reports whether id is on the node's watch-list.
func (n *Node) Watches(id nodeid.ID) bool {
	return nodeid.Contains(n.Watch, id)
}

func (n *Node) socket(name string) *Socket {
	for _, s := range n.sockets {
		if s.Name == name {
			return s
		}
	}
	return nil
}

func (n *Node) socketIndex(name string) int {
	for i, s := range n.sockets {
		if s.Name == name {
			return i
		}
	}
	return -1
}
