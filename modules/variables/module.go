// Package variables registers the global variable list, variable
// definitions and the two reference kinds that read and write them.
package variables

import (
	"github.com/vk/blockbind/internal/dispatch"
	"github.com/vk/blockbind/internal/graph"
	"github.com/vk/blockbind/internal/mutation"
	"github.com/vk/blockbind/internal/registry"
	"github.com/vk/blockbind/internal/scope"
)

// Kind names.
const (
	KindGlobals    = "global_variables"
	KindDefinition = "variable_definition"
	KindValue      = "variable_value"
	KindSet        = "variable_set"
)

// Button names.
const (
	ButtonAdd    = "PLUS"
	ButtonRemove = "MINUS"
)

// Field and socket names local to this package.
const (
	SocketInitialize = "INITIALIZE"
	SocketValue      = "VALUE"
)

// Mutation keys.
const (
	keyHasVariables = "hasVariables"
	keyName         = "name"
	keyType         = "type"
	keyScope        = "scope"
	keyInitValue    = "initValue"
	keyValueType    = "valueType"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the variable kinds.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKind(registry.Kind{
		Name:        KindGlobals,
		Class:       graph.ClassGlobalScope,
		Description: "List of global variable definitions; heads the main program chain.",
		Schema:      mutation.Schema{mutation.Bool(keyHasVariables, false)},
		Layout:      globalsLayout,
		Hooks: dispatch.Hooks{
			OnMoveChild: syncGlobals,
			OnDelete:    syncGlobals,
			OnButton:    onGlobalsButton,
		},
	})

	r.RegisterKind(registry.Kind{
		Name:        KindDefinition,
		Class:       graph.ClassDefinition,
		Description: "Declares one variable or parameter.",
		Schema: mutation.Schema{
			mutation.String(keyName, "var"),
			mutation.String(keyType, "Void"),
			mutation.String(keyScope, ""),
			mutation.Bool(keyInitValue, false),
		},
		Layout: definitionLayout,
		Hooks: dispatch.Hooks{
			OnChangeSelf:  onDefinitionChanged,
			OnRootChanged: onDefinitionRootChanged,
			OnButton:      onDefinitionButton,
		},
	})

	referenceHooks := dispatch.Hooks{
		OnChangeSelf:      onReferenceChanged,
		OnChangeObserved:  onDefinitionObserved,
		OnDeleteObserved:  resolveHook,
		OnFinishedLoading: resolveHook,
		OnRootChanged:     resolveHook,
	}
	referenceSchema := mutation.Schema{
		mutation.String(keyName, ""),
		mutation.String(keyValueType, "Void"),
	}
	r.RegisterKind(registry.Kind{
		Name:        KindValue,
		Class:       graph.ClassReference,
		Description: "Reads a variable.",
		Schema:      referenceSchema,
		Layout:      valueLayout,
		Hooks:       referenceHooks,
	})
	r.RegisterKind(registry.Kind{
		Name:        KindSet,
		Class:       graph.ClassReference,
		Description: "Assigns a variable.",
		Schema:      referenceSchema,
		Layout:      setLayout,
		Hooks:       referenceHooks,
	})
}

func globalsLayout(d mutation.Data) graph.Shape {
	var sh graph.Shape
	if d.Bool(keyHasVariables) {
		sh.Sockets = append(sh.Sockets, graph.StatementSocket(scope.DefinitionSocket))
	}
	sh.Sockets = append(sh.Sockets, graph.StatementSocket(scope.NextSocket))
	return sh
}

func definitionLayout(d mutation.Data) graph.Shape {
	sh := graph.Shape{Output: graph.StatementConnector()}
	if d.Bool(keyInitValue) {
		sh.Sockets = append(sh.Sockets, graph.ValueSocket(SocketInitialize, graph.Accepting(typeOf(d.String(keyType)))))
	}
	sh.Sockets = append(sh.Sockets, graph.StatementSocket(scope.NextSocket))
	return sh
}

func valueLayout(d mutation.Data) graph.Shape {
	return graph.Shape{Output: graph.ValueOutput(typeOf(d.String(keyValueType)))}
}

func setLayout(d mutation.Data) graph.Shape {
	return graph.Shape{
		Sockets: []graph.SocketSpec{
			graph.ValueSocket(SocketValue, graph.Accepting(typeOf(d.String(keyValueType)))),
			graph.StatementSocket(scope.NextSocket),
		},
		Output: graph.StatementConnector(),
	}
}

func typeOf(s string) graph.TypeTag {
	t, err := graph.ParseTypeTag(s)
	if err != nil {
		return graph.TypeVoid
	}
	return t
}
