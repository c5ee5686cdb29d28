// Package literals registers constant value nodes.
package literals

import (
	"fmt"
	"regexp"

	"github.com/vk/blockbind/internal/dispatch"
	"github.com/vk/blockbind/internal/event"
	"github.com/vk/blockbind/internal/graph"
	"github.com/vk/blockbind/internal/mutation"
	"github.com/vk/blockbind/internal/registry"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// FieldValue holds the literal text.
const FieldValue = "VALUE"

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Literal describes one literal kind.
type Literal struct {
	Name string
	Type graph.TypeTag
}

// Table lists every literal kind.
var Table = []Literal{
	{Name: "literal_number", Type: graph.TypeNumber},
	{Name: "literal_boolean", Type: graph.TypeBoolean},
	{Name: "literal_color", Type: graph.TypeColor},
	{Name: "literal_string", Type: graph.TypeString},
}

// Check validates literal text for type t.
func Check(t graph.TypeTag, text string) error {
	switch t {
	case graph.TypeNumber:
		if _, err := convert.Convert(cty.StringVal(text), cty.Number); err != nil {
			return fmt.Errorf("%q is not a number", text)
		}
	case graph.TypeBoolean:
		if _, err := convert.Convert(cty.StringVal(text), cty.Bool); err != nil {
			return fmt.Errorf("%q is not true or false", text)
		}
	case graph.TypeColor:
		if !colorPattern.MatchString(text) {
			return fmt.Errorf("%q is not a #rrggbb color", text)
		}
	}
	return nil
}

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the literal kinds.
func (m *Module) Register(r *registry.Registry) {
	for _, l := range Table {
		r.RegisterKind(registry.Kind{
			Name:        l.Name,
			Class:       graph.ClassPlain,
			Description: l.Type.String() + " constant",
			Layout: func(mutation.Data) graph.Shape {
				return graph.Shape{Output: graph.ValueOutput(l.Type)}
			},
			Hooks: dispatch.Hooks{
				OnChangeSelf: func(_ dispatch.Env, n *graph.Node, ev event.Event) {
					if !ev.IsFieldChange(FieldValue) {
						return
					}
					n.Warning = ""
					if err := Check(l.Type, ev.NewValue); err != nil {
						n.Warning = err.Error()
					}
				},
			},
		})
	}
}
