// Package event defines the change notifications exchanged between the
// hosting editor, the graph arena and the dispatcher.
package event

import (
	"fmt"

	"github.com/vk/blockbind/internal/nodeid"
)

// Type classifies a notification.
type Type int

const (
	Create Type = iota
	Move
	Delete
	Change
	FinishedLoading
)

var typeNames = map[Type]string{
	Create:          "create",
	Move:            "move",
	Delete:          "delete",
	Change:          "change",
	FinishedLoading: "finished_loading",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// ParseType maps the wire name of an event type back to a Type.
func ParseType(s string) (Type, error) {
	for t, name := range typeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown event type %q", s)
}

// Element tells what a Change event touched.
type Element string

const (
	ElementField    Element = "field"
	ElementMutation Element = "mutation"
)

// Well-known mutation notification names carried in Event.Name.
const (
	// NameMutation marks a plain mutation-data update.
	NameMutation = "mutation"
	// NameDefinition is emitted by a definition whose name, type or role changed.
	NameDefinition = "definition"
	// NameSignature is emitted by a function whose signature may have changed.
	NameSignature = "signature"
)

// GroupID links causally related events into one undoable transaction.
type GroupID string

// Event is a single notification. Only the fields relevant to Type are set.
type Event struct {
	Type    Type
	NodeID  nodeid.ID
	Element Element
	Name    string

	OldValue string
	NewValue string

	OldParent nodeid.ID
	NewParent nodeid.ID
	OldSocket string
	NewSocket string

	Group GroupID
}

// IsFieldChange reports whether e is a change of the named field.
func (e Event) IsFieldChange(field string) bool {
	return e.Type == Change && e.Element == ElementField && e.Name == field
}

// IsNotification reports whether e is a mutation notification with the given name.
func (e Event) IsNotification(name string) bool {
	return e.Type == Change && e.Element == ElementMutation && e.Name == name
}

// IsReparent reports whether a move event changed the node's parent.
func (e Event) IsReparent() bool {
	return e.Type == Move && (e.OldParent != e.NewParent || e.OldSocket != e.NewSocket)
}

// StructuralChange reports whether roots may need to be recomputed after e.
func (e Event) StructuralChange() bool {
	return e.Type == Move || e.Type == Delete || e.Type == FinishedLoading
}

func (e Event) String() string {
	switch e.Type {
	case Change:
		return fmt.Sprintf("change(%s:%s) %s %q->%q", e.Element, e.Name, e.NodeID, e.OldValue, e.NewValue)
	case Move:
		return fmt.Sprintf("move %s %s.%s->%s.%s", e.NodeID, e.OldParent, e.OldSocket, e.NewParent, e.NewSocket)
	default:
		return fmt.Sprintf("%s %s", e.Type, e.NodeID)
	}
}
