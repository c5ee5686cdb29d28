package document

import (
	"errors"
	"fmt"

	"github.com/vk/blockbind/internal/graph"
	"github.com/vk/blockbind/internal/mutation"
	"github.com/vk/blockbind/internal/nodeid"
)

// Document is the persisted form of a workspace.
type Document struct {
	Nodes []NodeRecord
}

// NodeRecord is the persisted form of one node.
type NodeRecord struct {
	ID       nodeid.ID
	Kind     string
	Parent   nodeid.ID
	Socket   string
	Position graph.Point
	Palette  bool
	Fields   map[string]string
	Mutation mutation.Bag
}

// Validate checks record-level consistency: unique ids, known parents and
// a socket for every parent link.
func (d *Document) Validate() error {
	var errs []error
	ids := make(map[nodeid.ID]struct{}, len(d.Nodes))
	for _, n := range d.Nodes {
		if n.ID.IsZero() {
			errs = append(errs, fmt.Errorf("node of kind '%s' has no id", n.Kind))
			continue
		}
		if _, dup := ids[n.ID]; dup {
			errs = append(errs, fmt.Errorf("node '%s' declared twice", n.ID))
		}
		ids[n.ID] = struct{}{}
		if n.Kind == "" {
			errs = append(errs, fmt.Errorf("node '%s' has no kind", n.ID))
		}
	}
	for _, n := range d.Nodes {
		if n.Parent.IsZero() {
			continue
		}
		if n.Parent == n.ID {
			errs = append(errs, fmt.Errorf("node '%s' is its own parent", n.ID))
		}
		if _, ok := ids[n.Parent]; !ok {
			errs = append(errs, fmt.Errorf("node '%s' refers to unknown parent '%s'", n.ID, n.Parent))
		}
		if n.Socket == "" {
			errs = append(errs, fmt.Errorf("node '%s' has a parent but no socket", n.ID))
		}
	}
	return errors.Join(errs...)
}

// Merge appends the nodes of other.
func (d *Document) Merge(other *Document) {
	if other != nil {
		d.Nodes = append(d.Nodes, other.Nodes...)
	}
}
