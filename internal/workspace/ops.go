package workspace

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/blockbind/internal/ctxlog"
	"github.com/vk/blockbind/internal/document"
	"github.com/vk/blockbind/internal/event"
	"github.com/vk/blockbind/internal/graph"
	"github.com/vk/blockbind/internal/nodeid"
	"github.com/vk/blockbind/internal/scope"
)

// run executes fn as one dispatch pass. Both fn's error and a dispatch
// failure are returned.
func (w *Workspace) run(ctx context.Context, group event.GroupID, fn func() error) error {
	var opErr error
	err := w.d.Do(ctx, group, func() { opErr = fn() })
	return errors.Join(opErr, err)
}

// CreateOptions are the optional parts of a Create.
type CreateOptions struct {
	ID       nodeid.ID
	Palette  bool
	Parent   nodeid.ID
	Socket   string
	Position graph.Point
	Fields   map[string]string
}

// Create adds a node of the given kind with default mutation data. A zero
// ID is generated.
func (w *Workspace) Create(ctx context.Context, kind string, opts CreateOptions) (*graph.Node, error) {
	var n *graph.Node
	err := w.run(ctx, "", func() error {
		var err error
		n, err = w.createNode(ctx, kind, opts)
		return err
	})
	return n, err
}

func (w *Workspace) createNode(ctx context.Context, kind string, opts CreateOptions) (*graph.Node, error) {
	id := opts.ID
	if id.IsZero() {
		id = w.ids.Next()
	}
	n, err := w.create(ctx, id, kind, opts.Palette, opts.Parent, opts.Socket)
	if err != nil {
		return n, err
	}
	n.Position = opts.Position
	for _, field := range sortedKeys(opts.Fields) {
		v, err := w.checkedValue(n.ID, field, opts.Fields[field])
		if err != nil {
			return n, err
		}
		if err := w.g.SetField(n.ID, field, v); err != nil {
			return n, err
		}
	}
	return n, nil
}

// Connect plugs child into parent.socket.
func (w *Workspace) Connect(ctx context.Context, parent nodeid.ID, socket string, child nodeid.ID) error {
	return w.run(ctx, "", func() error { return w.g.Connect(parent, socket, child) })
}

// Disconnect unplugs a node, leaving it top-level where it is.
func (w *Workspace) Disconnect(ctx context.Context, child nodeid.ID) error {
	return w.run(ctx, "", func() error { return w.g.Disconnect(child) })
}

// SetField changes a host-editable field. Names of definitions and
// functions are validated and normalized as by RenameDefinition and
// RenameFunction.
func (w *Workspace) SetField(ctx context.Context, id nodeid.ID, field, value string) error {
	_, err := w.setField(ctx, "", id, field, value)
	return err
}

// Delete removes a node and its subtree. With heal, the node's NEXT child
// takes its place.
func (w *Workspace) Delete(ctx context.Context, id nodeid.ID, heal bool) ([]nodeid.ID, error) {
	var removed []nodeid.ID
	err := w.run(ctx, "", func() error {
		var err error
		removed, err = w.g.Delete(id, heal, scope.NextSocket)
		return err
	})
	return removed, err
}

// Move places a node at p.
func (w *Workspace) Move(ctx context.Context, id nodeid.ID, p graph.Point) error {
	return w.run(ctx, "", func() error { return w.g.SetPosition(id, p) })
}

// FinishLoading announces that a bulk load is complete.
func (w *Workspace) FinishLoading(ctx context.Context) error {
	return w.d.Dispatch(ctx, event.Event{Type: event.FinishedLoading})
}

// PressButton runs a node's button handler.
func (w *Workspace) PressButton(ctx context.Context, id nodeid.ID, button string) error {
	n, err := w.node(id)
	if err != nil {
		return err
	}
	return w.d.Press(ctx, n, button)
}

// Apply runs one host operation. The operation's group, if set, tags every
// event it causes.
func (w *Workspace) Apply(ctx context.Context, op document.Operation) error {
	if err := op.Validate(); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("Applying operation.", "type", op.Type, "node", op.Node)

	group := event.GroupID(op.Group)
	switch op.Type {
	case document.OpCreate:
		return w.run(ctx, group, func() error {
			_, err := w.createNode(ctx, op.Kind, CreateOptions{ID: op.Node, Parent: op.Parent, Socket: op.Socket, Position: op.Position})
			return err
		})
	case document.OpConnect:
		return w.run(ctx, group, func() error { return w.g.Connect(op.Parent, op.Socket, op.Node) })
	case document.OpDisconnect:
		return w.run(ctx, group, func() error { return w.g.Disconnect(op.Node) })
	case document.OpSetField:
		_, err := w.setField(ctx, group, op.Node, op.Field, op.Value)
		return err
	case document.OpDelete:
		return w.run(ctx, group, func() error {
			_, err := w.g.Delete(op.Node, op.Heal, scope.NextSocket)
			return err
		})
	case document.OpMove:
		return w.run(ctx, group, func() error { return w.g.SetPosition(op.Node, op.Position) })
	case document.OpFinishLoading:
		return w.FinishLoading(ctx)
	case document.OpButton:
		return w.PressButton(ctx, op.Node, op.Button)
	}
	return fmt.Errorf("unsupported operation %q", op.Type)
}

// ApplyScript runs every operation in order and stops at the first error.
func (w *Workspace) ApplyScript(ctx context.Context, script *document.Script) error {
	for i, op := range script.Operations {
		if err := w.Apply(ctx, op); err != nil {
			return fmt.Errorf("operation %d (%s): %w", i+1, op.Type, err)
		}
	}
	return nil
}
