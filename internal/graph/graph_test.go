package graph

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/blockbind/internal/event"
	"github.com/vk/blockbind/internal/nodeid"
)

// recorder collects emitted events for assertions.
type recorder struct {
	events []event.Event
}

func (r *recorder) emit(ev event.Event) { r.events = append(r.events, ev) }

func (r *recorder) types() []event.Type {
	out := make([]event.Type, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

// addNode is a helper that inserts a node with the given sockets and connector.
func addNode(t *testing.T, g *Graph, id string, out Connector, sockets ...SocketSpec) *Node {
	t.Helper()
	n := &Node{ID: nodeid.ID(id), Kind: "test", Output: out}
	require.NoError(t, g.Add(n))
	for _, s := range sockets {
		require.NoError(t, g.AddSocket(n.ID, s))
	}
	return n
}

func TestAdd_DuplicateAndEmptyID(t *testing.T) {
	g := New()
	addNode(t, g, "a", Connector{})

	err := g.Add(&Node{ID: "a"})
	require.ErrorIs(t, err, ErrDuplicateNode)
	require.Error(t, g.Add(&Node{}))
	assert.Equal(t, 1, g.Len())
}

func TestNodes_CreationOrderAndPalette(t *testing.T) {
	g := New()
	addNode(t, g, "z", Connector{})
	addNode(t, g, "a", Connector{})
	require.NoError(t, g.Add(&Node{ID: "p", Palette: true}))

	var ids []nodeid.ID
	for _, n := range g.Live() {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []nodeid.ID{"z", "a"}, ids)
	assert.Len(t, g.Nodes(), 3)
	assert.True(t, g.IsPalette("p"))
	assert.True(t, g.IsPalette("missing"))
	assert.False(t, g.IsPalette("a"))
}

func TestConnect_Validation(t *testing.T) {
	g := New()
	addNode(t, g, "op", ValueOutput(TypeNumber), ValueSocket("A", TypesOf(TypeNumber)), ValueSocket("B", TypesOf(TypeNumber)))
	addNode(t, g, "num", ValueOutput(TypeNumber))
	addNode(t, g, "bool", ValueOutput(TypeBoolean))
	addNode(t, g, "any", ValueOutput(TypeVoid))
	addNode(t, g, "stmt", StatementConnector(), StatementSocket("NEXT"))

	testCases := []struct {
		name   string
		parent string
		socket string
		child  string
		err    error
	}{
		{name: "number into number", parent: "op", socket: "A", child: "num"},
		{name: "occupied", parent: "op", socket: "A", child: "any", err: ErrSocketOccupied},
		{name: "wrong type", parent: "op", socket: "B", child: "bool", err: ErrIncompatible},
		{name: "statement into value", parent: "op", socket: "B", child: "stmt", err: ErrIncompatible},
		{name: "void output fits anywhere", parent: "op", socket: "B", child: "any"},
		{name: "missing socket", parent: "op", socket: "C", child: "bool", err: ErrSocketNotFound},
		{name: "missing node", parent: "nope", socket: "A", child: "num", err: ErrNodeNotFound},
		{name: "value into statement", parent: "stmt", socket: "NEXT", child: "num", err: ErrIncompatible},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := g.Connect(nodeid.ID(tc.parent), tc.socket, nodeid.ID(tc.child))
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestConnect_RejectsCycles(t *testing.T) {
	g := New()
	addNode(t, g, "a", StatementConnector(), StatementSocket("NEXT"))
	addNode(t, g, "b", StatementConnector(), StatementSocket("NEXT"))
	require.NoError(t, g.Connect("a", "NEXT", "b"))

	require.ErrorIs(t, g.Connect("b", "NEXT", "a"), ErrCycle)
}

func TestConnect_MovesChildAndEmitsOneEvent(t *testing.T) {
	g := New()
	rec := &recorder{}
	addNode(t, g, "p1", Connector{}, StatementSocket("DO"))
	addNode(t, g, "p2", Connector{}, StatementSocket("DO"))
	addNode(t, g, "c", StatementConnector())
	require.NoError(t, g.Connect("p1", "DO", "c"))

	g.SetEmitter(rec.emit)
	require.NoError(t, g.Connect("p2", "DO", "c"))

	require.Len(t, rec.events, 1)
	want := event.Event{Type: event.Move, NodeID: "c", OldParent: "p1", OldSocket: "DO", NewParent: "p2", NewSocket: "DO"}
	if diff := cmp.Diff(want, rec.events[0]); diff != "" {
		t.Errorf("move event mismatch (-want +got):\n%s", diff)
	}
	p1, _ := g.Node("p1")
	assert.True(t, p1.Child("DO").IsZero())
}

func TestRootAndChain(t *testing.T) {
	g := New()
	addNode(t, g, "scope", Connector{}, StatementSocket("VARIABLES"))
	for _, id := range []string{"d1", "d2", "d3"} {
		addNode(t, g, id, StatementConnector(), StatementSocket("NEXT"))
	}
	require.NoError(t, g.Connect("scope", "VARIABLES", "d1"))
	require.NoError(t, g.Connect("d1", "NEXT", "d2"))
	require.NoError(t, g.Connect("d2", "NEXT", "d3"))

	root, ok := g.Root("d3")
	require.True(t, ok)
	assert.Equal(t, nodeid.ID("scope"), root.ID)

	var chain []nodeid.ID
	for _, n := range g.Chain("scope", "VARIABLES", "NEXT") {
		chain = append(chain, n.ID)
	}
	assert.Equal(t, []nodeid.ID{"d1", "d2", "d3"}, chain)
	assert.True(t, g.IsAncestor("scope", "d3"))
	assert.False(t, g.IsAncestor("d3", "scope"))
}

func TestDelete_HealsChain(t *testing.T) {
	g := New()
	rec := &recorder{}
	addNode(t, g, "scope", Connector{}, StatementSocket("VARIABLES"))
	addNode(t, g, "d1", StatementConnector(), StatementSocket("NEXT"), ValueSocket("INIT", AnyValue))
	addNode(t, g, "lit", ValueOutput(TypeNumber))
	addNode(t, g, "d2", StatementConnector(), StatementSocket("NEXT"))
	require.NoError(t, g.Connect("scope", "VARIABLES", "d1"))
	require.NoError(t, g.Connect("d1", "INIT", "lit"))
	require.NoError(t, g.Connect("d1", "NEXT", "d2"))
	g.SetEmitter(rec.emit)

	removed, err := g.Delete("d1", true, "NEXT")
	require.NoError(t, err)

	assert.Equal(t, []nodeid.ID{"d1", "lit"}, removed)
	assert.False(t, g.Has("lit"))
	scope, _ := g.Node("scope")
	assert.Equal(t, nodeid.ID("d2"), scope.Child("VARIABLES"))
	assert.Equal(t, []event.Type{event.Move, event.Delete, event.Delete, event.Move}, rec.types())
	assert.Equal(t, nodeid.ID("scope"), rec.events[1].OldParent, "delete event carries the former parent")
}

func TestDelete_WithoutHealDropsChain(t *testing.T) {
	g := New()
	addNode(t, g, "a", StatementConnector(), StatementSocket("NEXT"))
	addNode(t, g, "b", StatementConnector(), StatementSocket("NEXT"))
	require.NoError(t, g.Connect("a", "NEXT", "b"))

	removed, err := g.Delete("a", false, "NEXT")
	require.NoError(t, err)
	assert.Equal(t, []nodeid.ID{"a", "b"}, removed)
	assert.Zero(t, g.Len())

	_, err = g.Delete("a", false, "")
	require.ErrorIs(t, err, ErrNodeNotFound)
}

func TestSetField_EmitsOnlyOnChange(t *testing.T) {
	g := New()
	rec := &recorder{}
	addNode(t, g, "n", Connector{})
	g.SetEmitter(rec.emit)

	require.NoError(t, g.SetField("n", "NAME", "x"))
	require.NoError(t, g.SetField("n", "NAME", "x"))
	require.NoError(t, g.SetField("n", "NAME", "y"))

	require.Len(t, rec.events, 2)
	assert.True(t, rec.events[1].IsFieldChange("NAME"))
	assert.Equal(t, "x", rec.events[1].OldValue)
	assert.Equal(t, "y", rec.events[1].NewValue)
}

func TestMute(t *testing.T) {
	g := New()
	rec := &recorder{}
	g.SetEmitter(rec.emit)

	restore := g.Mute()
	addNode(t, g, "n", Connector{})
	restore()
	restore()
	require.NoError(t, g.SetPosition("n", Point{X: 1}))

	assert.Equal(t, []event.Type{event.Move}, rec.types())
}

func TestReset_IsSilent(t *testing.T) {
	g := New()
	rec := &recorder{}
	g.SetEmitter(rec.emit)
	addNode(t, g, "a", Connector{})
	addNode(t, g, "b", Connector{})
	before := len(rec.events)

	g.Reset()

	assert.Equal(t, 0, g.Len())
	assert.Len(t, rec.events, before)
	addNode(t, g, "a", Connector{})
	assert.True(t, g.Has("a"))
}

func TestSockets_AddRemoveRetype(t *testing.T) {
	g := New()
	addNode(t, g, "n", Connector{}, ValueSocket("A", TypesOf(TypeNumber)))
	addNode(t, g, "c", ValueOutput(TypeNumber))

	require.ErrorIs(t, g.AddSocket("n", ValueSocket("A", AnyValue)), ErrSocketExists)
	require.NoError(t, g.Connect("n", "A", "c"))
	require.ErrorIs(t, g.RemoveSocket("n", "A"), ErrSocketOccupied)
	require.NoError(t, g.RetypeSocket("n", "A", TypesOf(TypeBoolean)))

	n, _ := g.Node("n")
	s, ok := n.Socket("A")
	require.True(t, ok)
	assert.Equal(t, "Boolean", s.Accepts.String())

	require.NoError(t, g.Disconnect("c"))
	require.NoError(t, g.RemoveSocket("n", "A"))
	assert.Empty(t, n.SocketNames())
}

func TestTypeTags(t *testing.T) {
	for _, name := range []string{"Number", "BOOLEAN", "color", "Void", ""} {
		_, err := ParseTypeTag(name)
		require.NoError(t, err, name)
	}
	_, err := ParseTypeTag("Matrix")
	require.Error(t, err)

	set := TypesOf(TypeNumber, TypeColor)
	assert.True(t, set.Accepts(TypeColor))
	assert.True(t, set.Accepts(TypeVoid))
	assert.False(t, set.Accepts(TypeString))
	assert.True(t, AnyValue.Accepts(TypeImage))
	assert.Equal(t, "Number|Color", set.String())
	assert.Equal(t, AnyValue, Accepting(TypeVoid))
	assert.Equal(t, TypesOf(TypeString), Accepting(TypeString))
}

func TestSignature_SameShape(t *testing.T) {
	a := Signature{Name: "f", Return: TypeNumber, Params: []TypeTag{TypeNumber}}
	b := Signature{Name: "g", Return: TypeNumber, Params: []TypeTag{TypeNumber}}
	c := Signature{Name: "f", Return: TypeVoid, Params: []TypeTag{TypeNumber}}
	assert.True(t, a.SameShape(b))
	assert.False(t, a.SameShape(c))
	assert.Equal(t, "f(Number) Number", a.String())
}
