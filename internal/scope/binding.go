package scope

import (
	"fmt"
	"strings"

	"github.com/vk/blockbind/internal/graph"
	"github.com/vk/blockbind/internal/nodeid"
)

// Socket and field names shared by every scope-aware node kind.
const (
	DefinitionSocket = "VARIABLES"
	NextSocket       = "NEXT"

	FieldName = "NAME"
	FieldType = "TYPE"
	FieldRole = "VARPAR"
)

// Definition scope strings as stored in a definition's mutation data.
const (
	ScopeGlobalVariable    = "global:variable"
	ScopeFunctionVariable  = "function:variable"
	ScopeFunctionParameter = "function:parameter"
)

// Role distinguishes plain variables from function parameters.
type Role int

const (
	RoleVariable Role = iota
	RoleParameter
)

func (r Role) String() string {
	if r == RoleParameter {
		return "parameter"
	}
	return "variable"
}

// Binding is a resolved name derived from a definition node.
type Binding struct {
	Name    string
	Type    graph.TypeTag
	Role    Role
	OwnerID nodeid.ID
}

func (b Binding) String() string {
	return fmt.Sprintf("%s:%s (%s @%s)", b.Name, b.Type, b.Role, b.OwnerID)
}

// DefinitionOf reads the binding a definition node declares. Host-visible
// fields win over mutation data, because fields are what the user edits.
func DefinitionOf(n *graph.Node) Binding {
	name := n.Field(FieldName)
	if name == "" {
		name = n.Mutation.String("name")
	}
	typeName := n.Field(FieldType)
	if typeName == "" {
		typeName = n.Mutation.String("type")
	}
	t, err := graph.ParseTypeTag(typeName)
	if err != nil {
		t = graph.TypeVoid
	}

	role := RoleVariable
	if n.Field(FieldRole) == "PARAMETER" || n.Mutation.String("scope") == ScopeFunctionParameter {
		role = RoleParameter
	}
	return Binding{Name: name, Type: t, Role: role, OwnerID: n.ID}
}

// FunctionName returns the declared name of a function scope root. System
// functions such as setup and loop carry their name in staticFunction.
func FunctionName(n *graph.Node) string {
	if static := n.Mutation.String("staticFunction"); static != "" {
		return static
	}
	if name := n.Field(FieldName); name != "" {
		return name
	}
	return n.Mutation.String("name")
}

// DefaultBaseName is the prefix used for generated variable names of type t.
func DefaultBaseName(t graph.TypeTag) string {
	switch t {
	case graph.TypeNumber:
		return "zahl"
	case graph.TypeColor:
		return "farbe"
	case graph.TypeBoolean:
		return "wahrheit"
	default:
		return "variable"
	}
}

// IsDefaultName reports whether name looks generated for type t, i.e. the
// base name followed only by digits.
func IsDefaultName(name string, t graph.TypeTag) bool {
	digits, ok := strings.CutPrefix(strings.TrimSpace(name), DefaultBaseName(t))
	if !ok || digits == "" {
		return false
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
