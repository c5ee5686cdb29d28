package bridge

import (
	"encoding/json"
	"fmt"

	"github.com/vk/blockbind/internal/document"
	"github.com/vk/blockbind/internal/graph"
	"github.com/vk/blockbind/internal/nodeid"
)

// wireOperation is the JSON form of a block_event payload.
type wireOperation struct {
	Type   string  `json:"type"`
	Node   string  `json:"node"`
	Kind   string  `json:"kind"`
	Parent string  `json:"parent"`
	Socket string  `json:"socket"`
	Field  string  `json:"field"`
	Value  string  `json:"value"`
	Button string  `json:"button"`
	Group  string  `json:"group"`
	Heal   bool    `json:"heal"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// DecodeOperation converts a block_event payload into an operation. The
// payload is either a decoded JSON object or the raw JSON text.
func DecodeOperation(payload any) (document.Operation, error) {
	var raw []byte
	switch p := payload.(type) {
	case nil:
		return document.Operation{}, fmt.Errorf("empty block_event payload")
	case string:
		raw = []byte(p)
	case []byte:
		raw = p
	default:
		var err error
		if raw, err = json.Marshal(p); err != nil {
			return document.Operation{}, fmt.Errorf("cannot encode payload %T: %w", payload, err)
		}
	}

	var w wireOperation
	if err := json.Unmarshal(raw, &w); err != nil {
		return document.Operation{}, fmt.Errorf("malformed block_event payload: %w", err)
	}
	t, err := document.ParseOpType(w.Type)
	if err != nil {
		return document.Operation{}, err
	}
	op := document.Operation{
		Type:     t,
		Node:     nodeid.ID(w.Node),
		Kind:     w.Kind,
		Parent:   nodeid.ID(w.Parent),
		Socket:   w.Socket,
		Field:    w.Field,
		Value:    w.Value,
		Button:   w.Button,
		Group:    w.Group,
		Heal:     w.Heal,
		Position: graph.Point{X: w.X, Y: w.Y},
	}
	return op, op.Validate()
}

// failure is published when an operation is rejected.
type failure struct {
	Operation string `json:"operation"`
	Node      string `json:"node,omitempty"`
	Error     string `json:"error"`
}
