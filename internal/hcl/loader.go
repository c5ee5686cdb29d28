package hcl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/blockbind/internal/ctxlog"
	"github.com/vk/blockbind/internal/document"
	"github.com/vk/blockbind/internal/fsutil"
	"github.com/vk/blockbind/internal/graph"
	"github.com/vk/blockbind/internal/nodeid"
)

// Extension is the file extension of documents and scripts.
const Extension = ".hcl"

// Loader is the HCL implementation of document.Loader and
// document.ScriptLoader.
type Loader struct{}

// NewLoader creates a new HCL loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file under paths and merges their node blocks
// into one document. Files are read in path order.
func (l *Loader) Load(ctx context.Context, paths ...string) (*document.Document, error) {
	logger := ctxlog.FromContext(ctx)
	files, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	doc := &document.Document{}
	for _, file := range files {
		f, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		part, err := decodeDocument(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, err)
		}
		doc.Merge(part)
	}
	logger.Debug("HCL document loaded.", "nodes", len(doc.Nodes))
	return doc, nil
}

// LoadScript parses the op blocks of every .hcl file under paths.
func (l *Loader) LoadScript(ctx context.Context, paths ...string) (*document.Script, error) {
	files, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}

	parser := hclparse.NewParser()
	script := &document.Script{}
	for _, file := range files {
		f, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		part, err := decodeScript(f)
		if err != nil {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, err)
		}
		script.Operations = append(script.Operations, part.Operations...)
	}
	ctxlog.FromContext(ctx).Debug("HCL script loaded.", "operations", len(script.Operations))
	return script, nil
}

// ParseDocument decodes a document from source text.
func ParseDocument(ctx context.Context, filename string, src []byte) (*document.Document, error) {
	f, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, diags
	}
	return decodeDocument(ctx, f)
}

// ParseScript decodes a script from source text.
func ParseScript(filename string, src []byte) (*document.Script, error) {
	f, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, diags
	}
	return decodeScript(f)
}

func decodeRoot(f *hcl.File) (*fileRoot, error) {
	var root fileRoot
	if diags := gohcl.DecodeBody(f.Body, nil, &root); diags.HasErrors() {
		return nil, diags
	}
	return &root, nil
}

func decodeDocument(ctx context.Context, f *hcl.File) (*document.Document, error) {
	root, err := decodeRoot(f)
	if err != nil {
		return nil, err
	}
	doc := &document.Document{}
	var errs []error
	for _, b := range root.Nodes {
		rec, err := translateNode(ctx, b)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		doc.Nodes = append(doc.Nodes, rec)
	}
	return doc, errors.Join(errs...)
}

func translateNode(ctx context.Context, b *nodeBlock) (document.NodeRecord, error) {
	id, err := nodeid.Parse(b.ID)
	if err != nil {
		return document.NodeRecord{}, fmt.Errorf("node block: %w", err)
	}
	rec := document.NodeRecord{
		ID:       id,
		Kind:     b.Kind,
		Socket:   b.Socket,
		Position: graph.Point{X: b.X, Y: b.Y},
		Palette:  b.Palette,
		Fields:   b.Fields,
	}
	if b.Parent != "" {
		if rec.Parent, err = nodeid.Parse(b.Parent); err != nil {
			return rec, fmt.Errorf("node '%s' parent: %w", id, err)
		}
	}
	if rec.Mutation, err = decodeBag(ctx, b.Mutation); err != nil {
		return rec, fmt.Errorf("node '%s': %w", id, err)
	}
	return rec, nil
}

func decodeScript(f *hcl.File) (*document.Script, error) {
	root, err := decodeRoot(f)
	if err != nil {
		return nil, err
	}
	script := &document.Script{}
	for i, b := range root.Ops {
		op, err := translateOp(b)
		if err != nil {
			return nil, fmt.Errorf("op block %d: %w", i+1, err)
		}
		script.Operations = append(script.Operations, op)
	}
	return script, nil
}

func translateOp(b *opBlock) (document.Operation, error) {
	t, err := document.ParseOpType(b.Type)
	if err != nil {
		return document.Operation{}, err
	}
	op := document.Operation{
		Type:     t,
		Node:     nodeid.ID(b.Node),
		Kind:     b.Kind,
		Parent:   nodeid.ID(b.Parent),
		Socket:   b.Socket,
		Field:    b.Field,
		Value:    b.Value,
		Button:   b.Button,
		Group:    b.Group,
		Heal:     b.Heal,
		Position: graph.Point{X: b.X, Y: b.Y},
	}
	return op, op.Validate()
}

// findAllHCLFiles returns the .hcl files under paths, sorted and without
// duplicates. Missing paths are skipped.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	seen := make(map[string]struct{})
	var all []string
	add := func(p string) {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			all = append(all, p)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}
		if !info.IsDir() {
			if filepath.Ext(path) == Extension {
				add(path)
			}
			continue
		}
		files, err := fsutil.FindFilesByExtension(path, Extension)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			add(f)
		}
	}
	return all, nil
}
