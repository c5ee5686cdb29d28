package scope

import (
	"errors"
	"strconv"
	"strings"

	"github.com/vk/blockbind/internal/graph"
	"github.com/vk/blockbind/internal/names"
	"github.com/vk/blockbind/internal/nodeid"
)

// ErrNameConflict is returned by callers that refuse to commit a name
// ValidateName rejected.
var ErrNameConflict = errors.New("name conflict")

// maxSuffix bounds GenerateUniqueName.
const maxSuffix = 999

// Resolver answers scope queries over a graph.
type Resolver struct {
	g *graph.Graph
}

// New creates a resolver bound to g.
func New(g *graph.Graph) *Resolver {
	return &Resolver{g: g}
}

// GlobalScope returns the first live global scope root.
func (r *Resolver) GlobalScope() (*graph.Node, bool) {
	for _, n := range r.g.Live() {
		if n.Class == graph.ClassGlobalScope {
			return n, true
		}
	}
	return nil, false
}

// ScopeOf returns the scope root n lives in: its structural root, if that
// root owns a scope. Palette nodes have no scope.
func (r *Resolver) ScopeOf(n *graph.Node) (*graph.Node, bool) {
	if n == nil || n.Palette {
		return nil, false
	}
	root, ok := r.g.Root(n.ID)
	if !ok || root.Palette || !root.Class.IsScopeRoot() {
		return nil, false
	}
	return root, true
}

// Functions returns every live function scope root in creation order.
func (r *Resolver) Functions() []*graph.Node {
	var out []*graph.Node
	for _, n := range r.g.Live() {
		if n.Class == graph.ClassFunctionScope {
			out = append(out, n)
		}
	}
	return out
}

// Function finds a function by name.
func (r *Resolver) Function(name string) (*graph.Node, bool) {
	for _, fn := range r.Functions() {
		if names.Same(FunctionName(fn), name) {
			return fn, true
		}
	}
	return nil, false
}

// Definitions returns the definition chain of a scope root in link order.
func (r *Resolver) Definitions(scopeRoot *graph.Node) []*graph.Node {
	if scopeRoot == nil {
		return nil
	}
	var out []*graph.Node
	for _, n := range r.g.Chain(scopeRoot.ID, DefinitionSocket, NextSocket) {
		if n.Class == graph.ClassDefinition {
			out = append(out, n)
		}
	}
	return out
}

// Bindings lists the names visible in scopeRoot. Function scopes list their
// own definitions first and the global ones after them.
func (r *Resolver) Bindings(scopeRoot *graph.Node) []Binding {
	if scopeRoot == nil {
		return nil
	}
	var out []Binding
	for _, d := range r.Definitions(scopeRoot) {
		out = append(out, DefinitionOf(d))
	}
	if scopeRoot.Class == graph.ClassFunctionScope {
		if global, ok := r.GlobalScope(); ok {
			for _, d := range r.Definitions(global) {
				out = append(out, DefinitionOf(d))
			}
		}
	}
	return out
}

// Resolve returns the first binding in scopeRoot with the given name.
func (r *Resolver) Resolve(scopeRoot *graph.Node, name string) (Binding, bool) {
	if name == "" {
		return Binding{}, false
	}
	for _, b := range r.Bindings(scopeRoot) {
		if b.Name == name {
			return b, true
		}
	}
	return Binding{}, false
}

// ValidateName checks a candidate symbol name for use in scopeRoot (nil means
// the global scope) and returns its normalized form. It rejects reserved
// words, blank or unnormalizable input, and any name already taken by a
// definition or function in the scope chain other than ignore. With deep set,
// the definitions of every function are checked as well.
func (r *Resolver) ValidateName(candidate string, scopeRoot *graph.Node, ignore nodeid.ID, deep bool) (string, bool) {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" || names.IsReserved(trimmed) {
		return "", false
	}
	normalized, ok := names.Normalize(trimmed)
	if !ok || names.IsReserved(normalized) {
		return "", false
	}

	taken := func(name string, owner nodeid.ID) bool {
		if owner == ignore && !ignore.IsZero() {
			return false
		}
		n, ok := names.Normalize(name)
		return ok && n == normalized
	}

	global, hasGlobal := r.GlobalScope()
	if scopeRoot == nil && hasGlobal {
		scopeRoot = global
	}

	checked := map[nodeid.ID]struct{}{}
	checkScope := func(root *graph.Node) bool {
		if root == nil {
			return false
		}
		if _, done := checked[root.ID]; done {
			return false
		}
		checked[root.ID] = struct{}{}
		for _, d := range r.Definitions(root) {
			if taken(DefinitionOf(d).Name, d.ID) {
				return true
			}
		}
		return false
	}

	if checkScope(scopeRoot) {
		return "", false
	}
	if hasGlobal && checkScope(global) {
		return "", false
	}
	for _, fn := range r.Functions() {
		if taken(FunctionName(fn), fn.ID) {
			return "", false
		}
		if deep && checkScope(fn) {
			return "", false
		}
	}
	return normalized, true
}

// GenerateUniqueName returns the first of base1 .. base999 that validates in
// scopeRoot against every scope.
func (r *Resolver) GenerateUniqueName(base string, scopeRoot *graph.Node) (string, bool) {
	for i := 1; i <= maxSuffix; i++ {
		if name, ok := r.ValidateName(base+strconv.Itoa(i), scopeRoot, nodeid.None, true); ok {
			return name, true
		}
	}
	return "", false
}
