package shape

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/blockbind/internal/event"
	"github.com/vk/blockbind/internal/graph"
	"github.com/vk/blockbind/internal/mutation"
	"github.com/vk/blockbind/internal/nodeid"
)

type mapCatalog map[string]Spec

func (c mapCatalog) ShapeOf(kind string) (Spec, bool) {
	s, ok := c[kind]
	return s, ok
}

// callLayout mimics a call site: one Number argument per parameter and a
// typed output when result is not Void.
func callLayout(d mutation.Data) graph.Shape {
	var sh graph.Shape
	for i := 0; i < d.Int("parameters"); i++ {
		sh.Sockets = append(sh.Sockets, graph.ValueSocket("ARG"+strconv.Itoa(i), graph.TypesOf(graph.TypeTag(d.Int("argType")))))
	}
	if t, _ := graph.ParseTypeTag(d.String("result")); t != graph.TypeVoid {
		sh.Output = graph.ValueOutput(t)
	} else {
		sh.Output = graph.StatementConnector()
		sh.Sockets = append(sh.Sockets, graph.StatementSocket("NEXT"))
	}
	return sh
}

func testCatalog() mapCatalog {
	return mapCatalog{
		"call": {
			Schema: mutation.Schema{
				mutation.Number("parameters", 0),
				mutation.Number("argType", float64(graph.TypeNumber)),
				mutation.String("result", "Void"),
			},
			Layout: callLayout,
		},
		"number": {
			Layout: func(mutation.Data) graph.Shape { return graph.Shape{Output: graph.ValueOutput(graph.TypeNumber)} },
		},
		"holder": {
			Layout: func(mutation.Data) graph.Shape {
				return graph.Shape{Sockets: []graph.SocketSpec{graph.ValueSocket("IN", graph.TypesOf(graph.TypeNumber)), graph.StatementSocket("DO")}}
			},
		},
	}
}

type harness struct {
	t      *testing.T
	ctx    context.Context
	g      *graph.Graph
	r      *Reconciler
	events []event.Event
}

func newHarness(t *testing.T, cat Catalog) *harness {
	h := &harness{t: t, ctx: context.Background(), g: graph.New()}
	h.g.SetEmitter(func(ev event.Event) { h.events = append(h.events, ev) })
	h.r = New(h.g, cat)
	return h
}

func (h *harness) create(id, kind string) *graph.Node {
	h.t.Helper()
	n := &graph.Node{ID: nodeid.ID(id), Kind: kind}
	require.NoError(h.t, h.g.Add(n))
	_, err := h.r.Initialize(h.ctx, n)
	require.NoError(h.t, err)
	return n
}

func TestInitialize_DefaultShape(t *testing.T) {
	h := newHarness(t, testCatalog())
	call := h.create("c", "call")

	assert.Equal(t, []string{"NEXT"}, call.SocketNames())
	assert.Equal(t, graph.StatementConnector(), call.Output)
	assert.Empty(t, h.r.Serialize(call))
}

func TestRebuild_Idempotent(t *testing.T) {
	h := newHarness(t, testCatalog())
	call := h.create("c", "call")
	_, err := h.r.Update(h.ctx, call, map[string]any{"parameters": 2, "result": "Number"})
	require.NoError(t, err)
	first := call.Sockets()

	res, err := h.r.Rebuild(h.ctx, call)
	require.NoError(t, err)
	assert.False(t, res.Changed())
	assert.Equal(t, first, call.Sockets())

	res, err = h.r.Rebuild(h.ctx, call)
	require.NoError(t, err)
	assert.False(t, res.Changed())
	assert.Equal(t, first, call.Sockets())
}

func TestRebuild_PreservesPluggedChildren(t *testing.T) {
	h := newHarness(t, testCatalog())
	call := h.create("c", "call")
	_, err := h.r.Update(h.ctx, call, map[string]any{"parameters": 1, "result": "Number"})
	require.NoError(t, err)
	arg := h.create("n", "number")
	require.NoError(t, h.g.Connect(call.ID, "ARG0", arg.ID))

	res, err := h.r.Update(h.ctx, call, map[string]any{"parameters": 3})
	require.NoError(t, err)

	assert.Equal(t, []string{"ARG1", "ARG2"}, res.Added)
	assert.Empty(t, res.Orphans)
	assert.Equal(t, arg.ID, call.Child("ARG0"))
	assert.Equal(t, []string{"ARG0", "ARG1", "ARG2"}, call.SocketNames())
}

func TestRebuild_NewSocketsTakeLayoutPosition(t *testing.T) {
	h := newHarness(t, testCatalog())
	call := h.create("c", "call")
	next := h.create("s", "call")
	require.NoError(t, h.g.Connect(call.ID, "NEXT", next.ID))

	res, err := h.r.Update(h.ctx, call, map[string]any{"parameters": 2})
	require.NoError(t, err)

	assert.Equal(t, []string{"ARG0", "ARG1"}, res.Added)
	assert.Equal(t, []string{"ARG0", "ARG1", "NEXT"}, call.SocketNames())
	assert.Equal(t, next.ID, call.Child("NEXT"))

	fresh := h.create("f", "call")
	_, err = h.r.Update(h.ctx, fresh, map[string]any{"parameters": 2})
	require.NoError(t, err)
	assert.Equal(t, fresh.SocketNames(), call.SocketNames())
}

func TestRebuild_RemovedSocketOrphansChildNearby(t *testing.T) {
	h := newHarness(t, testCatalog())
	call := h.create("c", "call")
	call.Position = graph.Point{X: 100, Y: 50}
	_, err := h.r.Update(h.ctx, call, map[string]any{"parameters": 2, "result": "Number"})
	require.NoError(t, err)
	arg := h.create("n", "number")
	require.NoError(t, h.g.Connect(call.ID, "ARG1", arg.ID))
	h.events = nil

	res, err := h.r.Update(h.ctx, call, map[string]any{"parameters": 1})
	require.NoError(t, err)

	assert.Equal(t, []nodeid.ID{arg.ID}, res.Orphans)
	assert.Equal(t, []string{"ARG1"}, res.Removed)
	assert.True(t, h.g.Has(arg.ID), "orphans are unplugged, never deleted")
	assert.True(t, arg.IsTopLevel())
	assert.Equal(t, graph.Point{X: 124, Y: 74}, arg.Position)

	var types []event.Type
	for _, ev := range h.events {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []event.Type{event.Change, event.Move, event.Move}, types)
	assert.True(t, h.events[0].IsNotification(event.NameMutation))
	assert.Equal(t, "parameters=2;result=Number", h.events[0].OldValue)
}

func TestRebuild_RetypedSocketDropsIncompatibleChild(t *testing.T) {
	h := newHarness(t, testCatalog())
	call := h.create("c", "call")
	_, err := h.r.Update(h.ctx, call, map[string]any{"parameters": 1})
	require.NoError(t, err)
	arg := h.create("n", "number")
	require.NoError(t, h.g.Connect(call.ID, "ARG0", arg.ID))

	res, err := h.r.Update(h.ctx, call, map[string]any{"argType": float64(graph.TypeBoolean)})
	require.NoError(t, err)

	assert.Equal(t, []string{"ARG0"}, res.Retyped)
	assert.Equal(t, []nodeid.ID{arg.ID}, res.Orphans)
	assert.True(t, call.Child("ARG0").IsZero())
}

func TestRebuild_OutputChangeUnplugsSelf(t *testing.T) {
	h := newHarness(t, testCatalog())
	holder := h.create("h", "holder")
	call := h.create("c", "call")
	_, err := h.r.Update(h.ctx, call, map[string]any{"result": "Number"})
	require.NoError(t, err)
	require.NoError(t, h.g.Connect(holder.ID, "IN", call.ID))

	res, err := h.r.Update(h.ctx, call, map[string]any{"result": "Void"})
	require.NoError(t, err)

	assert.True(t, res.OutputChanged)
	assert.Equal(t, []nodeid.ID{call.ID}, res.Orphans)
	assert.True(t, call.IsTopLevel())
}

func TestRebuild_ReentrantCallIsSkipped(t *testing.T) {
	var r *Reconciler
	var inner Result
	var innerErr error
	cat := mapCatalog{
		"loop": {Layout: func(mutation.Data) graph.Shape {
			n, _ := r.g.Node("x")
			inner, innerErr = r.Rebuild(context.Background(), n)
			return graph.Shape{Sockets: []graph.SocketSpec{graph.StatementSocket("DO")}}
		}},
	}
	h := newHarness(t, cat)
	r = h.r

	n := h.create("x", "loop")

	require.NoError(t, innerErr)
	assert.True(t, inner.Skipped)
	assert.Equal(t, []string{"DO"}, n.SocketNames())
	assert.Empty(t, r.rebuilding)
}

func TestDeserialize(t *testing.T) {
	h := newHarness(t, testCatalog())
	call := h.create("c", "call")

	_, err := h.r.Deserialize(h.ctx, call, mutation.Bag{"parameters": "2", "result": "Boolean"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ARG0", "ARG1"}, call.SocketNames())
	assert.Equal(t, graph.ValueOutput(graph.TypeBoolean), call.Output)
	assert.Equal(t, mutation.Bag{"parameters": "2", "result": "Boolean"}, h.r.Serialize(call))

	_, err = h.r.Deserialize(h.ctx, call, mutation.Bag{"parameters": "lots"})
	require.Error(t, err)
	assert.Equal(t, []string{"NEXT"}, call.SocketNames(), "bad values fall back to defaults and still rebuild")
}

func TestUpdate_NoChangeIsSilent(t *testing.T) {
	h := newHarness(t, testCatalog())
	call := h.create("c", "call")
	h.events = nil

	res, err := h.r.Update(h.ctx, call, map[string]any{"parameters": 0})
	require.NoError(t, err)
	assert.False(t, res.Changed())
	assert.Empty(t, h.events)

	_, err = h.r.Update(h.ctx, call, map[string]any{"nope": 1})
	require.Error(t, err)
}

func TestUnknownKind(t *testing.T) {
	h := newHarness(t, testCatalog())
	n := &graph.Node{ID: "u", Kind: "mystery"}
	require.NoError(t, h.g.Add(n))

	_, err := h.r.Rebuild(h.ctx, n)
	require.ErrorIs(t, err, ErrUnknownKind)
	_, err = h.r.Initialize(h.ctx, n)
	require.ErrorIs(t, err, ErrUnknownKind)
}
