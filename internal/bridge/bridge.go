package bridge

import (
	"context"

	"github.com/vk/blockbind/internal/ctxlog"
	"github.com/vk/blockbind/internal/document"
	"github.com/vk/blockbind/internal/workspace"
	"github.com/zishang520/engine.io/v2/types"
)

// Event names on the wire.
const (
	EventBlock    = "block_event"
	EventBindings = "bindings"
	EventError    = "binding_error"
)

// Conn is the part of a socket.io client the bridge uses. *socket.Socket
// implements it.
type Conn interface {
	On(types.EventName, ...types.Listener) error
	Emit(string, ...any) error
}

// Session is the workspace side of the bridge.
type Session interface {
	Apply(ctx context.Context, op document.Operation) error
	Report() workspace.Report
}

// Bridge forwards editor events to a session. Operations are applied on the
// goroutine running Run, one at a time, in arrival order.
type Bridge struct {
	conn Conn
	sess Session
	ops  chan document.Operation
}

// New creates a bridge. Nothing is received until Run is called.
func New(conn Conn, sess Session) *Bridge {
	return &Bridge{conn: conn, sess: sess, ops: make(chan document.Operation, 64)}
}

// Run publishes the initial report and then applies incoming operations
// until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	err := b.conn.On(types.EventName(EventBlock), func(args ...any) {
		var payload any
		if len(args) > 0 {
			payload = args[0]
		}
		op, err := DecodeOperation(payload)
		if err != nil {
			logger.Warn("Rejected block event.", "error", err)
			b.emit(ctx, EventError, failure{Operation: string(op.Type), Node: op.Node.String(), Error: err.Error()})
			return
		}
		select {
		case b.ops <- op:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return err
	}

	b.publish(ctx)
	for {
		select {
		case <-ctx.Done():
			logger.Info("Bridge stopped.")
			return nil
		case op := <-b.ops:
			if err := b.sess.Apply(ctx, op); err != nil {
				logger.Warn("Operation failed.", "type", op.Type, "node", op.Node, "error", err)
				b.emit(ctx, EventError, failure{Operation: string(op.Type), Node: op.Node.String(), Error: err.Error()})
			}
			b.publish(ctx)
		}
	}
}

func (b *Bridge) publish(ctx context.Context) {
	b.emit(ctx, EventBindings, b.sess.Report())
}

func (b *Bridge) emit(ctx context.Context, event string, payload any) {
	if err := b.conn.Emit(event, payload); err != nil {
		ctxlog.FromContext(ctx).Error("Failed to emit event.", "event", event, "error", err)
	}
}
