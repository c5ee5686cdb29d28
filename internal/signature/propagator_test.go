package signature

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
	"github.com/vk/blockbind/internal/scope"
	"github.com/vk/blockbind/internal/shape"
)

type catalog map[string]shape.Spec

func (c catalog) ShapeOf(kind string) (shape.Spec, bool) {
	s, ok := c[kind]
	return s, ok
}

func testCatalog() catalog {
	return catalog{
		"fn": {
			Schema: mutation.Schema{mutation.String(FunctionResultType, "Void")},
			Layout: func(mutation.Data) graph.Shape {
				return graph.Shape{Sockets: []graph.SocketSpec{graph.StatementSocket(scope.DefinitionSocket)}}
			},
		},
		"def": {
			Layout: func(mutation.Data) graph.Shape {
				return graph.Shape{Sockets: []graph.SocketSpec{graph.StatementSocket(scope.NextSocket)}, Output: graph.StatementConnector()}
			},
		},
		"call": {
			Schema: mutation.Schema{
				mutation.String(CallName, ""),
				mutation.String(CallResult, "Void"),
				mutation.Number(CallParameters, 0),
				mutation.String(CallParameterTypes, ""),
			},
			Layout: func(d mutation.Data) graph.Shape {
				var sh graph.Shape
				types := ParseTypes(d.String(CallParameterTypes))
				for i := 0; i < d.Int(CallParameters); i++ {
					accepts := graph.AnyValue
					if i < len(types) {
						accepts = graph.TypesOf(types[i])
					}
					sh.Sockets = append(sh.Sockets, graph.ValueSocket("ARG"+strconv.Itoa(i), accepts))
				}
				if t, _ := graph.ParseTypeTag(d.String(CallResult)); t != graph.TypeVoid {
					sh.Output = graph.ValueOutput(t)
				} else {
					sh.Output = graph.StatementConnector()
				}
				return sh
			},
		},
	}
}

type fixture struct {
	t   *testing.T
	ctx context.Context
	g   *graph.Graph
	s   *shape.Reconciler
	p   *Propagator
}

func newFixture(t *testing.T) *fixture {
	g := graph.New()
	s := shape.New(g, testCatalog())
	return &fixture{t: t, ctx: context.Background(), g: g, s: s, p: New(g, scope.New(g), s)}
}

func (f *fixture) node(id, kind string, class graph.Class, fields map[string]string) *graph.Node {
	f.t.Helper()
	n := &graph.Node{ID: nodeid.ID(id), Kind: kind, Class: class, Fields: fields}
	require.NoError(f.t, f.g.Add(n))
	_, err := f.s.Initialize(f.ctx, n)
	require.NoError(f.t, err)
	return n
}

func (f *fixture) param(fn *graph.Node, id string, t graph.TypeTag) *graph.Node {
	f.t.Helper()
	d := f.node(id, "def", graph.ClassDefinition, map[string]string{scope.FieldName: id, scope.FieldType: t.String(), scope.FieldRole: "PARAMETER"})
	chain := f.p.scopes.Definitions(fn)
	if len(chain) == 0 {
		require.NoError(f.t, f.g.Connect(fn.ID, scope.DefinitionSocket, d.ID))
	} else {
		require.NoError(f.t, f.g.Connect(chain[len(chain)-1].ID, scope.NextSocket, d.ID))
	}
	return d
}

func TestSignature(t *testing.T) {
	f := newFixture(t)
	fn := f.node("f", "fn", graph.ClassFunctionScope, map[string]string{scope.FieldName: "rechne"})
	f.param(fn, "a", graph.TypeNumber)
	local := f.param(fn, "tmp", graph.TypeColor)
	local.Fields[scope.FieldRole] = "VARIABLE"
	f.param(fn, "b", graph.TypeBoolean)
	fn.Fields[FieldResultType] = "Number"

	sig := f.p.Signature(fn)
	assert.Equal(t, "rechne", sig.Name)
	assert.Equal(t, graph.TypeNumber, sig.Return)
	assert.Equal(t, []graph.TypeTag{graph.TypeNumber, graph.TypeBoolean}, sig.Params, "only parameters count, in chain order")
}

func TestSync_FollowsSignatureChanges(t *testing.T) {
	f := newFixture(t)
	fn := f.node("f", "fn", graph.ClassFunctionScope, map[string]string{scope.FieldName: "F"})
	call := f.node("c", "call", graph.ClassCallSite, map[string]string{scope.FieldName: "F"})

	outcome, err := f.p.Sync(f.ctx, call, nil)
	require.NoError(t, err)
	assert.Equal(t, Unchanged, outcome)
	assert.Empty(t, call.SocketNames())
	assert.Equal(t, []nodeid.ID{"f"}, call.Watch)

	f.param(fn, "x", graph.TypeNumber)
	f.param(fn, "y", graph.TypeNumber)
	fn.Fields[FieldResultType] = "Number"

	outcome, err = f.p.Sync(f.ctx, call, &event.Event{Type: event.Change, NodeID: fn.ID, Element: event.ElementMutation, Name: event.NameSignature})
	require.NoError(t, err)
	assert.Equal(t, Rebuilt, outcome)
	assert.Equal(t, []string{"ARG0", "ARG1"}, call.SocketNames())
	for _, s := range call.Sockets() {
		assert.Equal(t, graph.TypesOf(graph.TypeNumber), s.Accepts)
	}
	assert.Equal(t, graph.ValueOutput(graph.TypeNumber), call.Output)
	assert.Equal(t, []nodeid.ID{"f", "x", "y"}, call.Watch)

	outcome, err = f.p.Sync(f.ctx, call, nil)
	require.NoError(t, err)
	assert.Equal(t, Unchanged, outcome)
}

func TestSync_UnresolvedKeepsSockets(t *testing.T) {
	f := newFixture(t)
	fn := f.node("f", "fn", graph.ClassFunctionScope, map[string]string{scope.FieldName: "F"})
	f.param(fn, "x", graph.TypeNumber)
	call := f.node("c", "call", graph.ClassCallSite, map[string]string{scope.FieldName: "F"})
	_, err := f.p.Sync(f.ctx, call, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"ARG0"}, call.SocketNames())

	_, err = f.g.Delete(fn.ID, false, "")
	require.NoError(t, err)

	outcome, err := f.p.Sync(f.ctx, call, &event.Event{Type: event.Delete, NodeID: fn.ID})
	require.NoError(t, err)
	assert.Equal(t, Unresolved, outcome)
	assert.True(t, call.Cache.Unresolved)
	assert.False(t, call.Cache.Resolved())
	assert.Nil(t, call.Watch)
	assert.NotEmpty(t, call.Warning)
	assert.Equal(t, []string{"ARG0"}, call.SocketNames(), "sockets stay until the next explicit rebuild trigger")
}

func TestSync_RenameInFlightIsMirrored(t *testing.T) {
	f := newFixture(t)
	fn := f.node("f", "fn", graph.ClassFunctionScope, map[string]string{scope.FieldName: "alt"})
	call := f.node("c", "call", graph.ClassCallSite, map[string]string{scope.FieldName: "alt"})
	_, err := f.p.Sync(f.ctx, call, nil)
	require.NoError(t, err)

	var seen []event.Event
	f.g.SetEmitter(func(ev event.Event) { seen = append(seen, ev) })
	require.NoError(t, f.g.SetField(fn.ID, scope.FieldName, "neu"))
	rename := seen[0]

	outcome, err := f.p.Sync(f.ctx, call, &rename)
	require.NoError(t, err)
	assert.Equal(t, Mirrored, outcome)
	assert.Equal(t, "neu", call.Field(scope.FieldName))
	assert.Equal(t, "neu", call.Mutation.String(CallName))
	assert.Equal(t, fn.ID, call.Cache.DefinitionID)
	require.Len(t, seen, 2)
	assert.Equal(t, call.ID, seen[1].NodeID, "the mirrored name is announced as a change of the call site")
}

func TestSync_RenameOfOtherNodeIsNotMirrored(t *testing.T) {
	f := newFixture(t)
	f.node("f", "fn", graph.ClassFunctionScope, map[string]string{scope.FieldName: "alt"})
	other := f.node("o", "fn", graph.ClassFunctionScope, map[string]string{scope.FieldName: "anders"})
	call := f.node("c", "call", graph.ClassCallSite, map[string]string{scope.FieldName: "alt"})
	_, err := f.p.Sync(f.ctx, call, nil)
	require.NoError(t, err)

	ev := event.Event{Type: event.Change, NodeID: other.ID, Element: event.ElementField, Name: scope.FieldName, OldValue: "anders", NewValue: "x"}
	outcome, err := f.p.Sync(f.ctx, call, &ev)
	require.NoError(t, err)
	assert.Equal(t, Unchanged, outcome)
	assert.Equal(t, "alt", call.Field(scope.FieldName))
}

func TestParseFormatTypes(t *testing.T) {
	tags := []graph.TypeTag{graph.TypeNumber, graph.TypeColor}
	assert.Equal(t, "Number,Color", FormatTypes(tags))
	assert.Equal(t, tags, ParseTypes("Number, Color"))
	assert.Nil(t, ParseTypes(" "))
	assert.Equal(t, []graph.TypeTag{graph.TypeVoid}, ParseTypes("Bogus"))
}
