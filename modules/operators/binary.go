package operators

import (
	"fmt"
	"slices"

	"github.com/vk/blockbind/internal/dispatch"
	"github.com/vk/blockbind/internal/event"
	"github.com/vk/blockbind/internal/graph"
	"github.com/vk/blockbind/internal/mutation"
	"github.com/vk/blockbind/internal/registry"
)

// Socket and field names of binary operators.
const (
	SocketA = "A"
	SocketB = "B"
	FieldOp = "OP"

	keyOperator = "operator"
)

// Binary describes one binary operator kind. Each kind is an instance of
// this component rather than a variant of a shared node type.
type Binary struct {
	Name      string
	Operand   graph.TypeTag
	Result    graph.TypeTag
	Operators []string
}

// Supports reports whether op belongs to the operator table.
func (b Binary) Supports(op string) bool {
	return slices.Contains(b.Operators, op)
}

// Kind builds the registry definition.
func (b Binary) Kind() registry.Kind {
	return registry.Kind{
		Name:        b.Name,
		Class:       graph.ClassPlain,
		Description: fmt.Sprintf("%s x %s -> %s", b.Operand, b.Operand, b.Result),
		Schema:      mutation.Schema{mutation.String(keyOperator, b.Operators[0])},
		Layout: func(mutation.Data) graph.Shape {
			return graph.Shape{
				Sockets: []graph.SocketSpec{
					graph.ValueSocket(SocketA, graph.TypesOf(b.Operand)),
					graph.ValueSocket(SocketB, graph.TypesOf(b.Operand)),
				},
				Output: graph.ValueOutput(b.Result),
			}
		},
		Hooks: dispatch.Hooks{OnChangeSelf: b.onChange},
	}
}

// onChange accepts operators from the table and rolls anything else back.
func (b Binary) onChange(env dispatch.Env, n *graph.Node, ev event.Event) {
	if !ev.IsFieldChange(FieldOp) {
		return
	}
	if !b.Supports(ev.NewValue) {
		n.Warning = fmt.Sprintf("operator %q is not available for %s", ev.NewValue, b.Operand)
		dispatch.LogError(env, n, "Failed to restore operator.", env.Graph().SetField(n.ID, FieldOp, n.Mutation.String(keyOperator)))
		return
	}
	n.Warning = ""
	_, err := env.Shapes().Update(env.Context(), n, map[string]any{keyOperator: ev.NewValue})
	dispatch.LogError(env, n, "Failed to update operator.", err)
}
