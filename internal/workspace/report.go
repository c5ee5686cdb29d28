package workspace

import (
	"github.com/vk/blockbind/internal/graph"
	"github.com/vk/blockbind/internal/nodeid"
	"github.com/vk/blockbind/internal/scope"
)

// Report is a read-only summary of bindings and problems.
type Report struct {
	Scopes      []ScopeReport `json:"scopes"`
	Calls       []CallReport  `json:"calls"`
	Diagnostics []Diagnostic  `json:"diagnostics"`
}

// ScopeReport lists the bindings visible in one scope root.
type ScopeReport struct {
	RootID   nodeid.ID       `json:"root"`
	Kind     string          `json:"kind"`
	Name     string          `json:"name,omitempty"`
	Bindings []BindingReport `json:"bindings"`
}

// BindingReport is the serializable form of a scope.Binding.
type BindingReport struct {
	Name    string    `json:"name"`
	Type    string    `json:"type"`
	Role    string    `json:"role"`
	OwnerID nodeid.ID `json:"owner"`
}

// CallReport describes how one call site is bound.
type CallReport struct {
	NodeID     nodeid.ID `json:"node"`
	Name       string    `json:"name"`
	FunctionID nodeid.ID `json:"function,omitempty"`
	Signature  string    `json:"signature,omitempty"`
}

// Diagnostic is a warning attached to a node.
type Diagnostic struct {
	NodeID   nodeid.ID `json:"node"`
	Kind     string    `json:"kind"`
	Message  string    `json:"message"`
	Disabled bool      `json:"disabled"`
}

// OK reports whether there are no diagnostics.
func (r Report) OK() bool {
	return len(r.Diagnostics) == 0
}

// Report summarizes every scope, call site and warning.
func (w *Workspace) Report() Report {
	rep := Report{Scopes: []ScopeReport{}, Calls: []CallReport{}, Diagnostics: []Diagnostic{}}
	for _, n := range w.g.Live() {
		if n.Class.IsScopeRoot() {
			sr := ScopeReport{RootID: n.ID, Kind: n.Kind, Bindings: []BindingReport{}}
			if n.Class == graph.ClassFunctionScope {
				sr.Name = scope.FunctionName(n)
			}
			for _, b := range w.scopes.Bindings(n) {
				sr.Bindings = append(sr.Bindings, BindingReport{Name: b.Name, Type: b.Type.String(), Role: b.Role.String(), OwnerID: b.OwnerID})
			}
			rep.Scopes = append(rep.Scopes, sr)
		}
		if n.Class == graph.ClassCallSite {
			cr := CallReport{NodeID: n.ID}
			if n.Cache != nil {
				cr.Name = n.Cache.BoundName
				cr.FunctionID = n.Cache.DefinitionID
				if n.Cache.Signature != nil && !n.Cache.Unresolved {
					cr.Signature = n.Cache.Signature.String()
				}
			}
			rep.Calls = append(rep.Calls, cr)
		}
		if n.Warning != "" {
			rep.Diagnostics = append(rep.Diagnostics, Diagnostic{NodeID: n.ID, Kind: n.Kind, Message: n.Warning, Disabled: n.Disabled})
		}
	}
	return rep
}
