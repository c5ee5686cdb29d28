// Package functions registers the main loop, function definitions, call
// sites and return statements.
package functions

import (
	"strconv"

	"github.com/vk/blockbind/internal/dispatch"
	"github.com/vk/blockbind/internal/graph"
	"github.com/vk/blockbind/internal/mutation"
	"github.com/vk/blockbind/internal/registry"
	"github.com/vk/blockbind/internal/scope"
	"github.com/vk/blockbind/internal/signature"
)

// Kind names.
const (
	KindMainLoop = "main_loop"
	KindFunction = "function_definition"
	KindCall     = "function_call"
	KindReturn   = "function_return"
)

// Socket names.
const (
	SocketDo     = "DO"
	SocketResult = "RESULT"
	SocketValue  = "VALUE"
)

// ButtonAddParameter appends a parameter to a function.
const ButtonAddParameter = "PLUS_VAR"

const (
	keyName           = "name"
	keyVariables      = "variables"
	keyStaticFunction = "staticFunction"
	keyValueType      = "valueType"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the function kinds.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKind(registry.Kind{
		Name:        KindMainLoop,
		Class:       graph.ClassPlain,
		Description: "Program body run forever after setup.",
		Layout: func(mutation.Data) graph.Shape {
			return graph.Shape{
				Sockets: []graph.SocketSpec{graph.StatementSocket(SocketDo), graph.StatementSocket(scope.NextSocket)},
				Output:  graph.StatementConnector(),
			}
		},
	})

	r.RegisterKind(registry.Kind{
		Name:        KindFunction,
		Class:       graph.ClassFunctionScope,
		Description: "User function with parameters, locals and an optional result.",
		Schema: mutation.Schema{
			mutation.String(keyName, ""),
			mutation.Number(keyVariables, 0),
			mutation.String(signature.FunctionResultType, "Void"),
			mutation.String(keyStaticFunction, ""),
		},
		Layout: functionLayout,
		Hooks: dispatch.Hooks{
			OnChangeSelf:      onFunctionChanged,
			OnChange:          onDefinitionNotice,
			OnMove:            onAnyMove,
			OnDelete:          syncHook,
			OnFinishedLoading: syncHook,
			OnButton:          onFunctionButton,
		},
	})

	r.RegisterKind(registry.Kind{
		Name:        KindCall,
		Class:       graph.ClassCallSite,
		Description: "Calls a user function by name.",
		Schema: mutation.Schema{
			mutation.String(signature.CallName, ""),
			mutation.String(signature.CallResult, "Void"),
			mutation.Number(signature.CallParameters, 0).Range(0, signature.MaxParameters),
			mutation.String(signature.CallParameterTypes, ""),
		},
		Layout: callLayout,
		Hooks: dispatch.Hooks{
			OnChangeSelf:      onCallChanged,
			OnMoveSelf:        onCallMoved,
			OnChangeObserved:  callSyncHook,
			OnDeleteObserved:  callSyncHook,
			OnChange:          onSignatureNotice,
			OnFinishedLoading: callSyncHook,
			OnRootChanged:     callSyncHook,
		},
	})

	r.RegisterKind(registry.Kind{
		Name:        KindReturn,
		Class:       graph.ClassPlain,
		Description: "Returns from the enclosing function.",
		Schema:      mutation.Schema{mutation.String(keyValueType, "Void")},
		Layout:      returnLayout,
		Hooks: dispatch.Hooks{
			OnCreateSelf:      checkReturnHook,
			OnChangeRoot:      onReturnRootChanged,
			OnFinishedLoading: checkReturnHook,
			OnRootChanged:     checkReturnHook,
		},
	})
}

func functionLayout(d mutation.Data) graph.Shape {
	var sh graph.Shape
	if d.Int(keyVariables) > 0 {
		sh.Sockets = append(sh.Sockets, graph.StatementSocket(scope.DefinitionSocket))
	}
	sh.Sockets = append(sh.Sockets, graph.StatementSocket(SocketDo))
	if rt := typeOf(d.String(signature.FunctionResultType)); rt != graph.TypeVoid {
		sh.Sockets = append(sh.Sockets, graph.ValueSocket(SocketResult, graph.TypesOf(rt)))
	}
	return sh
}

func callLayout(d mutation.Data) graph.Shape {
	var sh graph.Shape
	count := min(max(d.Int(signature.CallParameters), 0), signature.MaxParameters)
	types := signature.ParseTypes(d.String(signature.CallParameterTypes))
	for i := 0; i < count; i++ {
		t := graph.TypeVoid
		if i < len(types) {
			t = types[i]
		}
		sh.Sockets = append(sh.Sockets, graph.ValueSocket("ARG"+strconv.Itoa(i), graph.Accepting(t)))
	}
	if rt := typeOf(d.String(signature.CallResult)); rt != graph.TypeVoid {
		sh.Output = graph.ValueOutput(rt)
	} else {
		sh.Sockets = append(sh.Sockets, graph.StatementSocket(scope.NextSocket))
		sh.Output = graph.StatementConnector()
	}
	return sh
}

func returnLayout(d mutation.Data) graph.Shape {
	sh := graph.Shape{Output: graph.StatementConnector()}
	if vt := typeOf(d.String(keyValueType)); vt != graph.TypeVoid {
		sh.Sockets = append(sh.Sockets, graph.ValueSocket(SocketValue, graph.TypesOf(vt)))
	}
	return sh
}

func typeOf(s string) graph.TypeTag {
	t, err := graph.ParseTypeTag(s)
	if err != nil {
		return graph.TypeVoid
	}
	return t
}
