package workspace

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/vk/blockbind/internal/ctxlog"
	"github.com/vk/blockbind/internal/document"
	"github.com/vk/blockbind/internal/graph"
)

var (
	// ErrNotEmpty is returned when loading into a workspace that has nodes.
	ErrNotEmpty = errors.New("workspace is not empty")
	// ErrMutationFallback marks load warnings: a mutation value could not be
	// parsed and its default was used. The load itself completed.
	ErrMutationFallback = errors.New("mutation value replaced by default")
)

// Load rebuilds the workspace from a document. Nodes are created and linked
// with events muted; a single finishedLoading event then lets every node
// bind itself. Mutation fields that fail to parse fall back to defaults and
// are reported in the returned error, which then matches
// ErrMutationFallback, but the load still completes. Any other failure
// leaves the workspace empty.
func (w *Workspace) Load(ctx context.Context, doc *document.Document) error {
	logger := ctxlog.FromContext(ctx)
	if w.g.Len() > 0 {
		return ErrNotEmpty
	}
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("invalid document: %w", err)
	}

	var warnings []error
	restore := w.g.Mute()
	err := func() error {
		for _, rec := range doc.Nodes {
			k, ok := w.reg.Kind(rec.Kind)
			if !ok {
				return fmt.Errorf("node %s: unknown kind '%s'", rec.ID, rec.Kind)
			}
			n := &graph.Node{ID: rec.ID, Kind: rec.Kind, Class: k.Class, Palette: rec.Palette, Position: rec.Position}
			if err := w.g.Add(n); err != nil {
				return err
			}
			maps.Copy(n.Fields, rec.Fields)
			if _, err := w.shapes.Deserialize(ctx, n, rec.Mutation); err != nil {
				warnings = append(warnings, fmt.Errorf("node %s: %w: %w", rec.ID, ErrMutationFallback, err))
			}
		}
		for _, rec := range doc.Nodes {
			if rec.Parent.IsZero() {
				continue
			}
			if err := w.g.Connect(rec.Parent, rec.Socket, rec.ID); err != nil {
				return fmt.Errorf("node %s: %w", rec.ID, err)
			}
		}
		return nil
	}()
	if err != nil {
		w.g.Reset()
		restore()
		return err
	}
	restore()

	logger.Debug("Document loaded, binding nodes.", "nodes", len(doc.Nodes))
	if err := w.FinishLoading(ctx); err != nil {
		return err
	}
	return errors.Join(warnings...)
}

// Snapshot returns the document form of the workspace in creation order.
func (w *Workspace) Snapshot() *document.Document {
	doc := &document.Document{}
	for _, n := range w.g.Nodes() {
		rec := document.NodeRecord{
			ID:       n.ID,
			Kind:     n.Kind,
			Parent:   n.Parent(),
			Socket:   n.ParentSocket(),
			Position: n.Position,
			Palette:  n.Palette,
			Mutation: w.shapes.Serialize(n),
		}
		if len(n.Fields) > 0 {
			rec.Fields = maps.Clone(n.Fields)
		}
		doc.Nodes = append(doc.Nodes, rec)
	}
	return doc
}
