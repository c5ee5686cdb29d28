// Package operators registers the typed binary operator kinds.
package operators

import (
	"github.com/vk/blockbind/internal/graph"
	"github.com/vk/blockbind/internal/registry"
)

var comparisons = []string{"EQ", "NEQ", "GT", "LT", "GET", "LET"}

// Table lists every binary operator kind.
var Table = []Binary{
	{Name: "operator_num_num2", Operand: graph.TypeNumber, Result: graph.TypeNumber, Operators: []string{"ADD", "SUB", "MUL", "DIV", "MOD"}},
	{Name: "operator_bool_bool2", Operand: graph.TypeBoolean, Result: graph.TypeBoolean, Operators: []string{"AND", "OR", "XOR", "NXOR"}},
	{Name: "operator_bool_num2", Operand: graph.TypeNumber, Result: graph.TypeBoolean, Operators: comparisons},
	{Name: "operator_bool_col2", Operand: graph.TypeColor, Result: graph.TypeBoolean, Operators: []string{"EQ", "NEQ"}},
	{Name: "operator_bool_str2", Operand: graph.TypeString, Result: graph.TypeBoolean, Operators: comparisons},
}

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers one kind per table entry.
func (m *Module) Register(r *registry.Registry) {
	for _, b := range Table {
		r.RegisterKind(b.Kind())
	}
}
