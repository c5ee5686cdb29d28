package bridge_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/blockbind/internal/bridge"
	"github.com/vk/blockbind/internal/document"
	"github.com/vk/blockbind/internal/graph"
	"github.com/vk/blockbind/internal/testutil"
	"github.com/vk/blockbind/internal/workspace"
	"github.com/zishang520/engine.io/v2/types"
)

type emitted struct {
	event   string
	payload any
}

type fakeConn struct {
	mu        sync.Mutex
	listeners map[types.EventName][]types.Listener
	out       []emitted
}

func newFakeConn() *fakeConn {
	return &fakeConn{listeners: map[types.EventName][]types.Listener{}}
}

func (c *fakeConn) On(ev types.EventName, ls ...types.Listener) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners[ev] = append(c.listeners[ev], ls...)
	return nil
}

func (c *fakeConn) Emit(ev string, args ...any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var payload any
	if len(args) > 0 {
		payload = args[0]
	}
	c.out = append(c.out, emitted{event: ev, payload: payload})
	return nil
}

func (c *fakeConn) fire(ev string, args ...any) {
	c.mu.Lock()
	ls := append([]types.Listener(nil), c.listeners[types.EventName(ev)]...)
	c.mu.Unlock()
	for _, l := range ls {
		l(args...)
	}
}

func (c *fakeConn) emitted() []emitted {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]emitted(nil), c.out...)
}

func (c *fakeConn) hasListener(ev string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.listeners[types.EventName(ev)]) > 0
}

func TestDecodeOperation(t *testing.T) {
	testCases := []struct {
		name    string
		payload any
		want    document.Operation
		wantErr string
	}{
		{
			name:    "decoded object",
			payload: map[string]any{"type": "create", "node": "g", "kind": "global_variables", "x": 5.0},
			want:    document.Operation{Type: document.OpCreate, Node: "g", Kind: "global_variables", Position: graph.Point{X: 5}},
		},
		{
			name:    "json text",
			payload: `{"type":"delete","node":"v","heal":true}`,
			want:    document.Operation{Type: document.OpDelete, Node: "v", Heal: true},
		},
		{name: "nil", payload: nil, wantErr: "empty"},
		{name: "not json", payload: "{", wantErr: "malformed"},
		{name: "unknown type", payload: map[string]any{"type": "explode"}, wantErr: "unknown operation type"},
		{name: "incomplete", payload: map[string]any{"type": "set_field", "node": "v"}, wantErr: "needs a node and a field"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			op, err := bridge.DecodeOperation(tc.payload)
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, op)
		})
	}
}

func TestBridge_AppliesEventsAndPublishes(t *testing.T) {
	h := testutil.NewHarness(t)
	conn := newFakeConn()
	ctx, cancel := context.WithCancel(h.Ctx)
	done := make(chan error, 1)
	go func() { done <- bridge.New(conn, h.WS).Run(ctx) }()

	require.Eventually(t, func() bool { return conn.hasListener(bridge.EventBlock) }, time.Second, 5*time.Millisecond)
	conn.fire(bridge.EventBlock, map[string]any{"type": "create", "node": "g", "kind": "global_variables"})
	conn.fire(bridge.EventBlock, map[string]any{"type": "button", "node": "g", "button": "PLUS"})
	conn.fire(bridge.EventBlock, map[string]any{"type": "connect", "node": "g", "parent": "missing", "socket": "DO"})

	// Initial report, one report per successful edit, then the failed connect
	// and the report that follows it.
	require.Eventually(t, func() bool { return len(conn.emitted()) >= 5 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	out := conn.emitted()
	require.Len(t, out, 5)
	assert.Equal(t, bridge.EventBindings, out[0].event)
	assert.Equal(t, bridge.EventBindings, out[2].event)
	rep, ok := out[2].payload.(workspace.Report)
	require.True(t, ok)
	require.Len(t, rep.Scopes, 1)
	require.Len(t, rep.Scopes[0].Bindings, 1)
	assert.Equal(t, "zahl1", rep.Scopes[0].Bindings[0].Name)

	assert.Equal(t, bridge.EventError, out[3].event)
	assert.Equal(t, bridge.EventBindings, out[4].event)
}
