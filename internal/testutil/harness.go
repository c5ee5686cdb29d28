// Package testutil holds shared fixtures for workspace-level tests.
package testutil

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/blockbind/internal/ctxlog"
	"github.com/vk/blockbind/internal/graph"
	"github.com/vk/blockbind/internal/nodeid"
	"github.com/vk/blockbind/internal/registry"
	"github.com/vk/blockbind/internal/scope"
	"github.com/vk/blockbind/internal/workspace"
	"github.com/vk/blockbind/modules/functions"
	"github.com/vk/blockbind/modules/literals"
	"github.com/vk/blockbind/modules/operators"
	"github.com/vk/blockbind/modules/variables"
)

// Modules returns a fresh instance of every kind module.
func Modules() []registry.Module {
	return []registry.Module{
		&variables.Module{},
		&functions.Module{},
		&operators.Module{},
		&literals.Module{},
	}
}

// Harness drives a workspace from a test, failing the test on any error.
type Harness struct {
	T    *testing.T
	Ctx  context.Context
	WS   *workspace.Workspace
	Logs *SafeBuffer
}

// NewHarness creates a workspace with every kind module registered and
// deterministic node ids n1, n2, ...
func NewHarness(t *testing.T, opts ...workspace.Option) *Harness {
	t.Helper()
	logs := &SafeBuffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := ctxlog.WithLogger(context.Background(), logger)

	reg := registry.NewWith(Modules()...)
	require.NoError(t, reg.Validate(ctx))

	opts = append([]workspace.Option{workspace.WithIDGenerator(nodeid.NewSequence("n"))}, opts...)
	h := &Harness{T: t, Ctx: ctx, WS: workspace.New(reg, opts...), Logs: logs}
	t.Cleanup(func() {
		if t.Failed() || os.Getenv("BLOCKBIND_TEST_LOGS") == "true" {
			t.Logf("--- Log output for %s ---\n%s", t.Name(), logs.String())
		}
	})
	return h
}

// Node returns a node that must exist.
func (h *Harness) Node(id nodeid.ID) *graph.Node {
	h.T.Helper()
	n, ok := h.WS.Node(id)
	require.True(h.T, ok, "node %s not found", id)
	return n
}

// Create adds a node.
func (h *Harness) Create(kind string, opts workspace.CreateOptions) *graph.Node {
	h.T.Helper()
	n, err := h.WS.Create(h.Ctx, kind, opts)
	require.NoError(h.T, err)
	return n
}

// Connect plugs child into parent.socket.
func (h *Harness) Connect(parent nodeid.ID, socket string, child nodeid.ID) {
	h.T.Helper()
	require.NoError(h.T, h.WS.Connect(h.Ctx, parent, socket, child))
}

// Disconnect unplugs a node.
func (h *Harness) Disconnect(id nodeid.ID) {
	h.T.Helper()
	require.NoError(h.T, h.WS.Disconnect(h.Ctx, id))
}

// SetField changes a field.
func (h *Harness) SetField(id nodeid.ID, field, value string) {
	h.T.Helper()
	require.NoError(h.T, h.WS.SetField(h.Ctx, id, field, value))
}

// Press presses a node button.
func (h *Harness) Press(id nodeid.ID, button string) {
	h.T.Helper()
	require.NoError(h.T, h.WS.PressButton(h.Ctx, id, button))
}

// Delete removes a node.
func (h *Harness) Delete(id nodeid.ID, heal bool) {
	h.T.Helper()
	_, err := h.WS.Delete(h.Ctx, id, heal)
	require.NoError(h.T, err)
}

// Globals creates the global variable list.
func (h *Harness) Globals() *graph.Node {
	h.T.Helper()
	return h.Create(variables.KindGlobals, workspace.CreateOptions{})
}

// Function creates a named function.
func (h *Harness) Function(name string) *graph.Node {
	h.T.Helper()
	return h.Create(functions.KindFunction, workspace.CreateOptions{Fields: map[string]string{scope.FieldName: name}})
}

// Variable appends a generated definition of type t to scopeRoot.
func (h *Harness) Variable(scopeRoot nodeid.ID, t graph.TypeTag) *graph.Node {
	h.T.Helper()
	def, err := h.WS.AddVariable(h.Ctx, scopeRoot, t)
	require.NoError(h.T, err)
	return def
}

// Reference creates a reference of the given kind to name, plugged into
// parent.socket.
func (h *Harness) Reference(kind, name string, parent nodeid.ID, socket string) *graph.Node {
	h.T.Helper()
	return h.Create(kind, workspace.CreateOptions{
		Parent: parent,
		Socket: socket,
		Fields: map[string]string{scope.FieldName: name},
	})
}

// Call creates a call site for name.
func (h *Harness) Call(name string) *graph.Node {
	h.T.Helper()
	return h.Create(functions.KindCall, workspace.CreateOptions{Fields: map[string]string{scope.FieldName: name}})
}
