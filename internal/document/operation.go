package document

import (
	"fmt"

	"github.com/vk/blockbind/internal/graph"
	"github.com/vk/blockbind/internal/nodeid"
)

// OpType names a host operation.
type OpType string

const (
	OpCreate        OpType = "create"
	OpConnect       OpType = "connect"
	OpDisconnect    OpType = "disconnect"
	OpSetField      OpType = "set_field"
	OpDelete        OpType = "delete"
	OpMove          OpType = "move"
	OpFinishLoading OpType = "finish_loading"
	OpButton        OpType = "button"
)

var opTypes = map[OpType]struct{}{
	OpCreate: {}, OpConnect: {}, OpDisconnect: {}, OpSetField: {},
	OpDelete: {}, OpMove: {}, OpFinishLoading: {}, OpButton: {},
}

// ParseOpType validates an operation name.
func ParseOpType(s string) (OpType, error) {
	t := OpType(s)
	if _, ok := opTypes[t]; !ok {
		return "", fmt.Errorf("unknown operation type %q", s)
	}
	return t, nil
}

// Operation is one host edit. Only the fields relevant to Type are used.
type Operation struct {
	Type     OpType
	Node     nodeid.ID
	Kind     string
	Parent   nodeid.ID
	Socket   string
	Field    string
	Value    string
	Button   string
	Group    string
	Heal     bool
	Position graph.Point
}

// Validate checks that the fields Type needs are present.
func (op Operation) Validate() error {
	need := func(ok bool, what string) error {
		if !ok {
			return fmt.Errorf("%s operation needs %s", op.Type, what)
		}
		return nil
	}
	switch op.Type {
	case OpCreate:
		return need(op.Kind != "", "a kind")
	case OpConnect:
		if err := need(!op.Node.IsZero() && !op.Parent.IsZero(), "a node and a parent"); err != nil {
			return err
		}
		return need(op.Socket != "", "a socket")
	case OpDisconnect, OpDelete, OpMove:
		return need(!op.Node.IsZero(), "a node")
	case OpSetField:
		return need(!op.Node.IsZero() && op.Field != "", "a node and a field")
	case OpButton:
		return need(!op.Node.IsZero() && op.Button != "", "a node and a button")
	case OpFinishLoading:
		return nil
	default:
		return fmt.Errorf("unknown operation type %q", op.Type)
	}
}

// Script is an ordered list of operations.
type Script struct {
	Operations []Operation
}
